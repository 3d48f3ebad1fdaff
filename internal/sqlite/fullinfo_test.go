// Unit tests for the composite full-info reader.
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwatch/fleetstore/pkg/types"
)

func TestMultiReadClientFullInfoComposite(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	require.NoError(t, b.WriteClientSnapshot(ctx, &types.ClientSnapshot{
		ClientID:     id,
		AgentVersion: "1.0.0",
		Platform:     "linux",
	}))
	require.NoError(t, b.WriteClientStartupInfo(ctx, id, &types.StartupInfo{AgentVersion: "1.0.1"}))
	require.NoError(t, b.WriteClientAgentStartup(ctx, id, &types.AgentStartup{AgentVersion: "2.0.0"}))
	require.NoError(t, b.AddClientLabels(ctx, []types.ClientID{id}, "bob", []string{"staging"}))
	require.NoError(t, b.AddClientLabels(ctx, []types.ClientID{id}, "alice", []string{"canary"}))

	got, err := b.MultiReadClientFullInfo(ctx, []types.ClientID{id}, nil)
	require.NoError(t, err)
	require.Contains(t, got, id)

	info := got[id]
	require.NotNil(t, info.Metadata)
	assert.False(t, info.Metadata.FirstSeen.IsZero())

	require.NotNil(t, info.LastSnapshot)
	assert.Equal(t, "1.0.0", info.LastSnapshot.AgentVersion)
	require.NotNil(t, info.LastSnapshot.StartupInfo)
	assert.True(t, info.LastSnapshot.StartupInfo.Timestamp.Equal(info.LastSnapshot.Timestamp))

	// The independent startup pointer moved past the snapshot's pair.
	require.NotNil(t, info.LastStartupInfo)
	assert.Equal(t, "1.0.1", info.LastStartupInfo.AgentVersion)

	require.NotNil(t, info.LastAgentStartup)
	assert.Equal(t, "2.0.0", info.LastAgentStartup.AgentVersion)

	assert.Equal(t, []types.ClientLabel{
		{Owner: "alice", Name: "canary"},
		{Owner: "bob", Name: "staging"},
	}, info.Labels)
}

func TestMultiReadClientFullInfoShellSnapshot(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	got, err := b.MultiReadClientFullInfo(ctx, []types.ClientID{id}, nil)
	require.NoError(t, err)
	require.Contains(t, got, id)

	info := got[id]
	require.NotNil(t, info.LastSnapshot)
	assert.Equal(t, id, info.LastSnapshot.ClientID)
	assert.Empty(t, info.LastSnapshot.AgentVersion)
	assert.Nil(t, info.LastStartupInfo)
	assert.Nil(t, info.LastAgentStartup)
	assert.Empty(t, info.Labels)
}

func TestMultiReadClientFullInfoOmitsUnknownIDs(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	known := newClient(t, b)
	unknown := types.NewClientID()

	got, err := b.MultiReadClientFullInfo(ctx, []types.ClientID{known, unknown}, nil)
	require.NoError(t, err)
	assert.Contains(t, got, known)
	assert.NotContains(t, got, unknown)
}

func TestMultiReadClientFullInfoMinLastPingFilter(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	current := time.Now().UTC().Truncate(time.Microsecond)
	active := newClient(t, b)
	idle := newClient(t, b)

	activePing := current.Add(-time.Hour)
	idlePing := current.Add(-30 * 24 * time.Hour)
	require.NoError(t, b.WriteClientMetadata(ctx, active, types.MetadataUpdate{LastPing: &activePing}))
	require.NoError(t, b.WriteClientMetadata(ctx, idle, types.MetadataUpdate{LastPing: &idlePing}))

	cutoff := current.Add(-24 * time.Hour)
	got, err := b.MultiReadClientFullInfo(ctx, []types.ClientID{active, idle}, &cutoff)
	require.NoError(t, err)
	assert.Contains(t, got, active)
	assert.NotContains(t, got, idle)
}

func TestMultiReadClientFullInfoEmptyInput(t *testing.T) {
	b := setupBackend(t)
	got, err := b.MultiReadClientFullInfo(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
