// Unit tests for fleet-wide activity aggregation.
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// seedActiveClient creates a client with a snapshot (denormalizing the
// statistic columns) and a last ping the given duration in the past.
func seedActiveClient(t *testing.T, b *Backend, version, platform string, pingAge time.Duration) types.ClientID {
	t.Helper()
	ctx := context.Background()
	id := newClient(t, b)

	require.NoError(t, b.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:        id,
		AgentVersion:    version,
		Platform:        platform,
		PlatformRelease: platform + "-release",
	}))

	lastPing := time.Now().UTC().Add(-pingAge)
	require.NoError(t, b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		LastPing: &lastPing,
	}))
	return id
}

func TestCountClientVersionStringsByLabel(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	// Two recently active 1.0.0 clients, one 7-day-old 2.0.0 client, and
	// one client too old for any bucket.
	fresh1 := seedActiveClient(t, b, "1.0.0", "linux", 2*time.Hour)
	fresh2 := seedActiveClient(t, b, "1.0.0", "linux", 3*time.Hour)
	aging := seedActiveClient(t, b, "2.0.0", "darwin", 3*24*time.Hour)
	seedActiveClient(t, b, "3.0.0", "windows", 60*24*time.Hour)

	require.NoError(t, b.AddClientLabels(ctx,
		[]types.ClientID{fresh1, fresh2, aging}, types.SystemLabelOwner, []string{"prod"}))

	stats, err := b.CountClientVersionStringsByLabel(ctx, []int{1, 7, 30})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 7, 30}, stats.DayBuckets())
	assert.Equal(t, []string{"prod"}, stats.Labels())

	day1 := stats.CountsForLabel("prod", 1)
	assert.Equal(t, int64(2), day1["1.0.0"])
	assert.NotContains(t, day1, "2.0.0")

	day7 := stats.CountsForLabel("prod", 7)
	assert.Equal(t, int64(2), day7["1.0.0"])
	assert.Equal(t, int64(1), day7["2.0.0"])

	totals := stats.TotalCounts(30)
	assert.Equal(t, int64(2), totals["1.0.0"])
	assert.Equal(t, int64(1), totals["2.0.0"])
	assert.NotContains(t, totals, "3.0.0")
}

func TestCountStatsIgnoreNonSystemLabels(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	id := seedActiveClient(t, b, "1.0.0", "linux", time.Hour)
	require.NoError(t, b.AddClientLabels(ctx, []types.ClientID{id}, "alice", []string{"personal"}))

	stats, err := b.CountClientPlatformsByLabel(ctx, []int{7})
	require.NoError(t, err)

	// Only system-owned labels contribute to the per-label breakdown; the
	// fleet-wide totals still count the client.
	assert.Empty(t, stats.Labels())
	assert.Equal(t, int64(1), stats.TotalCounts(7)["linux"])
}

func TestCountStatsExcludeClientsThatNeverPinged(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	id := newClient(t, b)
	require.NoError(t, b.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:     id,
		AgentVersion: "1.0.0",
		Platform:     "linux",
	}))

	stats, err := b.CountClientPlatformsByLabel(ctx, []int{7})
	require.NoError(t, err)
	assert.Empty(t, stats.TotalCounts(7))
}

func TestCountClientPlatformReleasesByLabel(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	id := seedActiveClient(t, b, "1.0.0", "linux", time.Hour)
	require.NoError(t, b.AddClientLabels(ctx, []types.ClientID{id}, types.SystemLabelOwner, []string{"prod"}))

	stats, err := b.CountClientPlatformReleasesByLabel(ctx, []int{1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CountsForLabel("prod", 1)["linux-release"])
}

func TestCountStatsEmptyFleet(t *testing.T) {
	b := setupBackend(t)

	stats, err := b.CountClientVersionStringsByLabel(context.Background(), []int{1, 7})
	require.NoError(t, err)
	assert.Empty(t, stats.Labels())
	assert.Empty(t, stats.TotalCounts(1))
	assert.Empty(t, stats.TotalCounts(7))
}
