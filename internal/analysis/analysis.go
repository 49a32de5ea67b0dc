// Package analysis computes reliability statistics, trend series and peer
// comparisons over an acquired incident collection.
package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

// Uncategorized is the by-category key for incidents without a category.
const Uncategorized = "uncategorized"

// Period is a trend grouping granularity.
type Period string

// Periods.
const (
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// Stats summarizes incidents. Durations only count resolved incidents that
// have a resolution time; MTTR is their mean.
func Stats(incidents []domain.Incident) domain.IncidentStats {
	stats := domain.IncidentStats{ByCategory: map[string]int{}}
	if len(incidents) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(incidents))
	for i := range incidents {
		inc := &incidents[i]
		stats.TotalCount++
		if inc.IsResolved() {
			stats.ResolvedCount++
		}

		switch inc.Impact {
		case domain.ImpactCritical:
			stats.CriticalCount++
		case domain.ImpactMajor:
			stats.MajorCount++
		case domain.ImpactMinor:
			stats.MinorCount++
		case domain.ImpactNone, domain.ImpactMaintenance:
			stats.NoneCount++
		}

		category := Uncategorized
		if inc.Category != nil && *inc.Category != "" {
			category = *inc.Category
		}
		stats.ByCategory[category]++

		if h := resolvedHours(inc); h != nil {
			durations = append(durations, *h)
		}
	}
	stats.UnresolvedCount = stats.TotalCount - stats.ResolvedCount

	if len(durations) > 0 {
		avg := mean(durations)
		med := median(durations)
		lo, hi := slices.Min(durations), slices.Max(durations)
		mttr := avg
		stats.AvgDurationHours = &avg
		stats.MedianDurationHours = &med
		stats.MinDurationHours = &lo
		stats.MaxDurationHours = &hi
		stats.MTTRHours = &mttr
	}
	return stats
}

// Trends groups incidents by their effective start into month or quarter
// buckets, ordered chronologically. Unknown periods fall back to month.
func Trends(incidents []domain.Incident, period Period) []domain.TrendPoint {
	if len(incidents) == 0 {
		return nil
	}

	buckets := make(map[time.Time][]*domain.Incident)
	for i := range incidents {
		start := periodStart(domain.Naive(incidents[i].EffectiveStart()), period)
		buckets[start] = append(buckets[start], &incidents[i])
	}

	starts := make([]time.Time, 0, len(buckets))
	for s := range buckets {
		starts = append(starts, s)
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	points := make([]domain.TrendPoint, 0, len(starts))
	for _, start := range starts {
		group := buckets[start]
		point := domain.TrendPoint{
			Period:        periodLabel(start, period),
			PeriodStart:   start,
			PeriodEnd:     periodEnd(start, period),
			IncidentCount: len(group),
		}

		var durations []float64
		for _, inc := range group {
			switch inc.Impact {
			case domain.ImpactCritical:
				point.CriticalCount++
			case domain.ImpactMajor:
				point.MajorCount++
			}
			if h := resolvedHours(inc); h != nil {
				durations = append(durations, *h)
				point.TotalDowntimeHours += *h
			}
		}
		if len(durations) > 0 {
			avg := mean(durations)
			point.AvgDurationHours = &avg
		}
		points = append(points, point)
	}
	return points
}

// ComparePeer compares target incidents with one peer's. Positive diffs mean
// the target has more incidents or resolves more slowly.
func ComparePeer(target, peer []domain.Incident, peerName string) domain.PeerComparison {
	ts, ps := Stats(target), Stats(peer)

	comparison := domain.PeerComparison{
		PeerName:          peerName,
		PeerIncidentCount: ps.TotalCount,
		PeerMTTRHours:     ps.MTTRHours,
		PeerCriticalCount: ps.CriticalCount,
		IncidentCountDiff: ts.TotalCount - ps.TotalCount,
	}
	if ts.MTTRHours != nil && ps.MTTRHours != nil {
		diff := *ts.MTTRHours - *ps.MTTRHours
		comparison.MTTRDiffHours = &diff
	}
	return comparison
}

// ComparePeers compares target against every peer, ordered by peer name.
func ComparePeers(target []domain.Incident, peers map[string][]domain.Incident) []domain.PeerComparison {
	names := make([]string, 0, len(peers))
	for name := range peers {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]domain.PeerComparison, 0, len(names))
	for _, name := range names {
		out = append(out, ComparePeer(target, peers[name], name))
	}
	return out
}

// SortByStart orders incidents by effective start, newest first. Ties keep
// their input order.
func SortByStart(incidents []domain.Incident) {
	slices.SortStableFunc(incidents, func(a, b domain.Incident) int {
		return cmp.Compare(domain.Naive(b.EffectiveStart()).UnixNano(), domain.Naive(a.EffectiveStart()).UnixNano())
	})
}

func resolvedHours(inc *domain.Incident) *float64 {
	if !inc.IsResolved() {
		return nil
	}
	return inc.DurationHours()
}

func periodStart(t time.Time, period Period) time.Time {
	month := t.Month()
	if period == PeriodQuarter {
		month = time.Month((int(month)-1)/3*3 + 1)
	}
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}

func periodEnd(start time.Time, period Period) time.Time {
	if period == PeriodQuarter {
		return start.AddDate(0, 3, 0)
	}
	return start.AddDate(0, 1, 0)
}

func periodLabel(start time.Time, period Period) string {
	if period == PeriodQuarter {
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	}
	return start.Format("2006-01")
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
