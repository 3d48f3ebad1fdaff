// Integration tests driving the datastore through its public API: the
// full lifecycle of a client from registration through snapshots, index
// writes, aggregation, retention, and deletion.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwatch/fleetstore/pkg/sqlite"
	"github.com/meshwatch/fleetstore/pkg/types"
)

// newAttachedStore creates a store attached to a temp directory through
// the public facade.
func newAttachedStore(t *testing.T) types.ClientStore {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { store.Detach() })
	return store
}

func TestClientLifecycle(t *testing.T) {
	store := newAttachedStore(t)
	ctx := context.Background()

	// Register.
	id := types.NewClientID()
	firstSeen := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		Certificate: []byte("cert"),
		FirstSeen:   &firstSeen,
	}))

	// Report inventory.
	require.NoError(t, store.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:        id,
		AgentVersion:    "1.2.3",
		Platform:        "linux",
		PlatformRelease: "Ubuntu 22.04",
		Hostname:        "worker-7",
	}))

	// Index for discovery.
	require.NoError(t, store.AddClientKeywords(ctx, []types.ClientID{id}, []string{"worker-7", "linux"}))
	require.NoError(t, store.AddClientLabels(ctx, []types.ClientID{id}, types.SystemLabelOwner, []string{"prod"}))

	// Record activity and resource usage.
	lastPing := time.Now().UTC()
	require.NoError(t, store.WriteClientMetadata(ctx, id, types.MetadataUpdate{LastPing: &lastPing}))
	require.NoError(t, store.WriteClientStats(ctx, id, &types.ClientStats{CPUPercent: 3.5}))

	// Read the composite view back.
	infos, err := store.MultiReadClientFullInfo(ctx, []types.ClientID{id}, nil)
	require.NoError(t, err)
	require.Contains(t, infos, id)

	info := infos[id]
	assert.Equal(t, []byte("cert"), info.Metadata.Certificate)
	assert.Equal(t, "worker-7", info.LastSnapshot.Hostname)
	require.Len(t, info.Labels, 1)
	assert.Equal(t, types.SystemLabelOwner, info.Labels[0].Owner)

	// Discover by keyword.
	byKeyword, err := store.ListClientsForKeywords(ctx, []string{"worker-7"}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []types.ClientID{id}, byKeyword["worker-7"])

	// Aggregate fleet activity.
	stats, err := store.CountClientVersionStringsByLabel(ctx, []int{7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CountsForLabel("prod", 7)["1.2.3"])

	// Retire.
	require.NoError(t, store.DeleteClient(ctx, id))
	md, err := store.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	assert.Empty(t, md)
}

func TestRetentionPurgeThroughPublicAPI(t *testing.T) {
	store := newAttachedStore(t)
	ctx := context.Background()

	id := types.NewClientID()
	require.NoError(t, store.WriteClientMetadata(ctx, id, types.MetadataUpdate{}))

	cutoff := time.Now().UTC().Truncate(time.Microsecond)
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.WriteClientStats(ctx, id, &types.ClientStats{
			Timestamp: cutoff.Add(-time.Duration(i) * time.Hour),
		}))
	}

	purge := store.DeleteOldClientStats(ctx, cutoff, 2)
	var total int64
	for purge.Next() {
		total += purge.Count()
	}
	require.NoError(t, purge.Err())
	assert.Equal(t, int64(3), total)
}

func TestScanAcrossManyClients(t *testing.T) {
	store := newAttachedStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		id := types.NewClientID()
		lastPing := time.Now().UTC()
		require.NoError(t, store.WriteClientMetadata(ctx, id, types.MetadataUpdate{LastPing: &lastPing}))
	}

	scanner := store.ScanClientLastPings(ctx, types.LastPingScanOptions{BatchSize: 3})
	seen := 0
	for scanner.Next() {
		seen += len(scanner.Batch())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 10, seen)
}
