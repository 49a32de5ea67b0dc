package acquisition

import (
	"fmt"
	"strings"
)

// Mode selects how far down the source tiers the orchestrator may fall.
type Mode int

// Acquisition modes.
const (
	// ModeReport uses API then HTML history.
	ModeReport Mode = iota
	// ModeScheduler also tries the generic scraper when both are empty.
	ModeScheduler
	// ModeAdHoc also tries RSS as a last resort.
	ModeAdHoc
)

func (m Mode) String() string {
	switch m {
	case ModeReport:
		return "report"
	case ModeScheduler:
		return "scheduler"
	case ModeAdHoc:
		return "adhoc"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "report", "":
		return ModeReport, nil
	case "scheduler":
		return ModeScheduler, nil
	case "adhoc", "ad-hoc":
		return ModeAdHoc, nil
	}
	return ModeReport, fmt.Errorf("unknown acquisition mode %q", s)
}
