package normalize

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateTimeRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?`)
	monthDayRe    = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})(?:\s+(\d{1,2}):(\d{2}))?`)
	isoDateRe     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	usDateRe      = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dayMonYearRe  = regexp.MustCompile(`(\d{1,2})-([A-Za-z]+)-(\d{4})`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

var months = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		months[name] = m
		months[name[:3]] = m
	}
	months["sept"] = time.September
}

// dateParser tries one textual convention and reports whether it matched.
type dateParser func(text string) (time.Time, bool)

// dateParsers run in priority order; the first success wins.
var dateParsers = []dateParser{
	parseISODateTime,
	parseMonthDayYear,
	parseISODate,
	parseUSDate,
	parseDayMonYear,
}

// ParseDate extracts a timestamp from free text such as "Dec 5, 2024 10:30 UTC",
// "2024-12-05T10:30:00Z", "12/05/2024" or "05-Dec-2024". Only ISO input keeps
// its offset; textual dates are returned in UTC. When nothing matches it logs
// a warning and returns false.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, parse := range dateParsers {
		if t, ok := parse(text); ok {
			return t, true
		}
	}

	slog.Warn("could not parse date", "text", text)
	return time.Time{}, false
}

// ParseISO parses a structured API timestamp. Empty input is not an error
// and is not logged.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseISODateTime(s); ok {
		return t, true
	}
	slog.Warn("could not parse datetime", "value", s)
	return time.Time{}, false
}

func parseISODateTime(text string) (time.Time, bool) {
	match := isoDateTimeRe.FindString(text)
	if match == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, match); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseMonthDayYear(text string) (time.Time, bool) {
	for _, m := range monthDayRe.FindAllStringSubmatch(text, -1) {
		month, ok := months[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		hour, minute := 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
		}
		if t, ok := buildDate(m[3], month, m[2], hour, minute); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseISODate(text string) (time.Time, bool) {
	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		month, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if t, ok := buildDate(m[1], time.Month(month), m[3], 0, 0); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseUSDate(text string) (time.Time, bool) {
	for _, m := range usDateRe.FindAllStringSubmatch(text, -1) {
		month, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if t, ok := buildDate(m[3], time.Month(month), m[2], 0, 0); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDayMonYear(text string) (time.Time, bool) {
	for _, m := range dayMonYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		if t, ok := buildDate(m[3], month, m[1], 0, 0); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildDate rejects out-of-range fields instead of letting time.Date
// normalize them, so "Feb 30" is a miss rather than "Mar 2".
func buildDate(yearStr string, month time.Month, dayStr string, hour, minute int) (time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	if month < time.January || month > time.December || day < 1 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
