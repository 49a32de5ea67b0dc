package domain

import "time"

// Timeframe is an inclusive time window. A zero bound is unbounded.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// Naive drops the UTC offset of t while keeping its wall clock reading.
// Window comparisons are done on naive values so that sources reporting
// local times and sources reporting UTC compare by their printed clock.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Contains reports whether t falls inside the window, after offset stripping.
func (tf Timeframe) Contains(t time.Time) bool {
	n := Naive(t)
	if !tf.Start.IsZero() && n.Before(Naive(tf.Start)) {
		return false
	}
	if !tf.End.IsZero() && n.After(Naive(tf.End)) {
		return false
	}
	return true
}

// Filter returns the incidents whose effective start is inside the window,
// preserving input order.
func (tf Timeframe) Filter(incidents []Incident) []Incident {
	filtered := make([]Incident, 0, len(incidents))
	for i := range incidents {
		if tf.Contains(incidents[i].EffectiveStart()) {
			filtered = append(filtered, incidents[i])
		}
	}
	return filtered
}

// Days returns the number of whole days in the window.
func (tf Timeframe) Days() int {
	if tf.Start.IsZero() || tf.End.IsZero() {
		return 0
	}
	return int(Naive(tf.End).Sub(Naive(tf.Start)).Hours() / 24)
}
