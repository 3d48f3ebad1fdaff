package types

import (
	"fmt"
	"sort"
)

// FleetStats holds N-day-active client counts for one statistic (agent
// version, platform, or platform release), broken down by system label and
// fleet-wide. Zero-count cells are never stored.
type FleetStats struct {
	dayBuckets []int

	// label -> day bucket -> statistic value -> count
	perLabel map[string]map[int]map[string]int64
	// day bucket -> statistic value -> count
	totals map[int]map[string]int64
}

// DayBuckets returns the sorted n-day-active thresholds the stats were
// computed for.
func (f *FleetStats) DayBuckets() []int {
	out := make([]int, len(f.dayBuckets))
	copy(out, f.dayBuckets)
	return out
}

// Labels returns the sorted set of labels with at least one non-zero
// count.
func (f *FleetStats) Labels() []string {
	labels := make([]string, 0, len(f.perLabel))
	for label := range f.perLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// CountsForLabel returns statistic-value counts for one label and day
// bucket. The map is empty when nothing was active in the window.
func (f *FleetStats) CountsForLabel(label string, dayBucket int) map[string]int64 {
	return copyCounts(f.perLabel[label][dayBucket])
}

// TotalCounts returns fleet-wide statistic-value counts for one day
// bucket, ignoring labels.
func (f *FleetStats) TotalCounts(dayBucket int) map[string]int64 {
	return copyCounts(f.totals[dayBucket])
}

func copyCounts(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for value, n := range counts {
		out[value] = n
	}
	return out
}

// FleetStatsBuilder accumulates per-label and total counts for a fixed
// set of day buckets. Increments against an unknown bucket are rejected.
type FleetStatsBuilder struct {
	stats   *FleetStats
	buckets map[int]bool
}

// NewFleetStatsBuilder creates a builder for the given day buckets.
func NewFleetStatsBuilder(dayBuckets []int) *FleetStatsBuilder {
	sorted := make([]int, len(dayBuckets))
	copy(sorted, dayBuckets)
	sort.Ints(sorted)

	buckets := make(map[int]bool, len(sorted))
	for _, b := range sorted {
		buckets[b] = true
	}

	return &FleetStatsBuilder{
		stats: &FleetStats{
			dayBuckets: sorted,
			perLabel:   make(map[string]map[int]map[string]int64),
			totals:     make(map[int]map[string]int64),
		},
		buckets: buckets,
	}
}

// IncrementLabel adds delta to the count for (label, dayBucket, value).
func (b *FleetStatsBuilder) IncrementLabel(label, value string, dayBucket int, delta int64) error {
	if !b.buckets[dayBucket] {
		return fmt.Errorf("unknown day bucket %d", dayBucket)
	}
	byBucket, ok := b.stats.perLabel[label]
	if !ok {
		byBucket = make(map[int]map[string]int64)
		b.stats.perLabel[label] = byBucket
	}
	byValue, ok := byBucket[dayBucket]
	if !ok {
		byValue = make(map[string]int64)
		byBucket[dayBucket] = byValue
	}
	byValue[value] += delta
	return nil
}

// IncrementTotal adds delta to the fleet-wide count for (dayBucket, value).
func (b *FleetStatsBuilder) IncrementTotal(value string, dayBucket int, delta int64) error {
	if !b.buckets[dayBucket] {
		return fmt.Errorf("unknown day bucket %d", dayBucket)
	}
	byValue, ok := b.stats.totals[dayBucket]
	if !ok {
		byValue = make(map[string]int64)
		b.stats.totals[dayBucket] = byValue
	}
	byValue[value] += delta
	return nil
}

// Build returns the accumulated stats. The builder must not be used after
// Build.
func (b *FleetStatsBuilder) Build() *FleetStats {
	return b.stats
}
