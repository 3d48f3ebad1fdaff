// Unit tests for the fleet stats container and its builder.
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleetStatsBuilderAccumulates(t *testing.T) {
	b := NewFleetStatsBuilder([]int{7, 1, 30})

	require.NoError(t, b.IncrementLabel("prod", "1.0.0", 1, 2))
	require.NoError(t, b.IncrementLabel("prod", "1.0.0", 7, 3))
	require.NoError(t, b.IncrementLabel("staging", "2.0.0", 7, 1))
	require.NoError(t, b.IncrementTotal("1.0.0", 7, 4))

	stats := b.Build()

	// Buckets come back sorted regardless of input order.
	assert.Equal(t, []int{1, 7, 30}, stats.DayBuckets())
	assert.Equal(t, []string{"prod", "staging"}, stats.Labels())

	assert.Equal(t, int64(2), stats.CountsForLabel("prod", 1)["1.0.0"])
	assert.Equal(t, int64(3), stats.CountsForLabel("prod", 7)["1.0.0"])
	assert.Equal(t, int64(4), stats.TotalCounts(7)["1.0.0"])
}

func TestFleetStatsBuilderRejectsUnknownBucket(t *testing.T) {
	b := NewFleetStatsBuilder([]int{1, 7})

	assert.Error(t, b.IncrementLabel("prod", "1.0.0", 14, 1))
	assert.Error(t, b.IncrementTotal("1.0.0", 14, 1))
}

func TestFleetStatsEmptyCells(t *testing.T) {
	b := NewFleetStatsBuilder([]int{1, 7})
	require.NoError(t, b.IncrementLabel("prod", "1.0.0", 7, 1))
	stats := b.Build()

	// Untouched cells come back as empty maps, not nil panics.
	assert.Empty(t, stats.CountsForLabel("prod", 1))
	assert.Empty(t, stats.CountsForLabel("absent", 7))
	assert.Empty(t, stats.TotalCounts(1))
}

func TestFleetStatsAccessorsReturnCopies(t *testing.T) {
	b := NewFleetStatsBuilder([]int{1})
	require.NoError(t, b.IncrementTotal("1.0.0", 1, 1))
	stats := b.Build()

	counts := stats.TotalCounts(1)
	counts["1.0.0"] = 99
	assert.Equal(t, int64(1), stats.TotalCounts(1)["1.0.0"])

	buckets := stats.DayBuckets()
	buckets[0] = 42
	assert.Equal(t, []int{1}, stats.DayBuckets())
}
