// Unit tests for the clients pointer-record table: sparse upserts,
// batched reads, and deletion with cascade.
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwatch/fleetstore/pkg/types"
)

func TestWriteClientMetadataCreatesClient(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	id := types.NewClientID()
	firstSeen := time.Now().UTC().Truncate(time.Microsecond)
	err := b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		Certificate: []byte("cert-pem"),
		FirstSeen:   &firstSeen,
	})
	require.NoError(t, err)

	got, err := b.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	require.Contains(t, got, id)

	md := got[id]
	assert.Equal(t, []byte("cert-pem"), md.Certificate)
	assert.True(t, md.FirstSeen.Equal(firstSeen))
	assert.True(t, md.LastPing.IsZero())
}

func TestWriteClientMetadataIsSparse(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := types.NewClientID()

	firstSeen := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		Certificate: []byte("cert"),
		FirstSeen:   &firstSeen,
	}))

	// A second update supplying only last_ping must not clobber the
	// fields written before.
	lastPing := firstSeen.Add(time.Hour)
	require.NoError(t, b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		LastPing: &lastPing,
	}))

	got, err := b.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	md := got[id]

	assert.Equal(t, []byte("cert"), md.Certificate)
	assert.True(t, md.FirstSeen.Equal(firstSeen))
	assert.True(t, md.LastPing.Equal(lastPing))
}

func TestWriteClientMetadataValidationInfo(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := types.NewClientID()

	require.NoError(t, b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		ValidationInfo: &types.ValidationInfo{Tags: map[string]string{"os_check": "ok"}},
	}))

	got, err := b.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	require.NotNil(t, got[id].ValidationInfo)
	assert.Equal(t, "ok", got[id].ValidationInfo.Tags["os_check"])

	// Omitting validation info on the next write clears it.
	lastPing := time.Now().UTC()
	require.NoError(t, b.WriteClientMetadata(ctx, id, types.MetadataUpdate{
		LastPing: &lastPing,
	}))

	got, err = b.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	assert.Nil(t, got[id].ValidationInfo)
}

func TestWriteClientMetadataRejectsMalformedID(t *testing.T) {
	b := setupBackend(t)
	err := b.WriteClientMetadata(context.Background(), "not-a-client", types.MetadataUpdate{})
	assert.ErrorIs(t, err, types.ErrInvalidClientID)
}

func TestMultiReadClientMetadataOmitsUnknownIDs(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	known := newClient(t, b)
	unknown := types.NewClientID()

	got, err := b.MultiReadClientMetadata(ctx, []types.ClientID{known, unknown})
	require.NoError(t, err)

	assert.Contains(t, got, known)
	assert.NotContains(t, got, unknown)
	assert.Len(t, got, 1)
}

func TestMultiReadClientMetadataEmptyInput(t *testing.T) {
	b := setupBackend(t)
	got, err := b.MultiReadClientMetadata(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteClientRemovesEverything(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	require.NoError(t, b.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:     id,
		AgentVersion: "1.0.0",
		Platform:     "linux",
	}))
	require.NoError(t, b.WriteClientCrashInfo(ctx, id, &types.CrashInfo{Reason: "segfault"}))
	require.NoError(t, b.AddClientKeywords(ctx, []types.ClientID{id}, []string{"linux"}))
	require.NoError(t, b.AddClientLabels(ctx, []types.ClientID{id}, "alice", []string{"canary"}))

	require.NoError(t, b.DeleteClient(ctx, id))

	md, err := b.MultiReadClientMetadata(ctx, []types.ClientID{id})
	require.NoError(t, err)
	assert.NotContains(t, md, id)

	history, err := b.ReadClientSnapshotHistory(ctx, id, nil)
	require.NoError(t, err)
	assert.Empty(t, history)

	crashes, err := b.ReadClientCrashInfoHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, crashes)

	byKeyword, err := b.ListClientsForKeywords(ctx, []string{"linux"}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, byKeyword["linux"])

	labels, err := b.ReadClientLabels(ctx, []types.ClientID{id})
	require.NoError(t, err)
	assert.Empty(t, labels[id])
}

func TestDeleteClientUnknownClient(t *testing.T) {
	b := setupBackend(t)
	err := b.DeleteClient(context.Background(), types.NewClientID())
	assert.ErrorIs(t, err, types.ErrUnknownClient)
}

func TestDeleteClientLeavesOthersIntact(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	victim := newClient(t, b)
	survivor := newClient(t, b)
	require.NoError(t, b.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:     survivor,
		AgentVersion: "2.0.0",
		Platform:     "darwin",
	}))

	require.NoError(t, b.DeleteClient(ctx, victim))

	got, err := b.MultiReadClientSnapshot(ctx, []types.ClientID{survivor})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got[survivor].AgentVersion)
}
