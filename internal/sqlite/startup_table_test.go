// Unit tests for the startup stream's independent write path and for the
// agent startup stream, which resolves its latest record without a
// pointer.
package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshwatch/fleetstore/pkg/types"
)

func TestWriteClientStartupInfoThenReadLatest(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	require.NoError(t, b.WriteClientStartupInfo(ctx, id, &types.StartupInfo{
		AgentVersion: "1.0.0",
	}))
	require.NoError(t, b.WriteClientStartupInfo(ctx, id, &types.StartupInfo{
		AgentVersion: "1.1.0",
		CommandLine:  "/usr/bin/agent --foreground",
	}))

	info, err := b.ReadClientStartupInfo(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1.1.0", info.AgentVersion)
	assert.Equal(t, "/usr/bin/agent --foreground", info.CommandLine)
	assert.False(t, info.Timestamp.IsZero())
}

func TestReadClientStartupInfoNilWhenNeverWritten(t *testing.T) {
	b := setupBackend(t)
	id := newClient(t, b)

	info, err := b.ReadClientStartupInfo(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestWriteClientStartupInfoUnknownClient(t *testing.T) {
	b := setupBackend(t)
	err := b.WriteClientStartupInfo(context.Background(), types.NewClientID(), &types.StartupInfo{
		AgentVersion: "1.0.0",
	})
	assert.ErrorIs(t, err, types.ErrUnknownClient)
}

func TestReadClientStartupInfoHistoryDescending(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0"} {
		require.NoError(t, b.WriteClientStartupInfo(ctx, id, &types.StartupInfo{AgentVersion: v}))
	}

	history, err := b.ReadClientStartupInfoHistory(ctx, id, nil)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "1.2.0", history[0].AgentVersion)
	assert.Equal(t, "1.0.0", history[2].AgentVersion)
	assert.True(t, history[0].Timestamp.After(history[2].Timestamp))
}

func TestWriteClientAgentStartupThenReadLatest(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := newClient(t, b)

	require.NoError(t, b.WriteClientAgentStartup(ctx, id, &types.AgentStartup{
		AgentVersion: "2.0.0",
		PID:          100,
	}))
	require.NoError(t, b.WriteClientAgentStartup(ctx, id, &types.AgentStartup{
		AgentVersion: "2.1.0",
		PID:          200,
		Args:         []string{"--verbose"},
	}))

	startup, err := b.ReadClientAgentStartup(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, startup)
	assert.Equal(t, "2.1.0", startup.AgentVersion)
	assert.Equal(t, 200, startup.PID)
	assert.Equal(t, []string{"--verbose"}, startup.Args)
}

func TestReadClientAgentStartupNilWhenNeverWritten(t *testing.T) {
	b := setupBackend(t)
	id := newClient(t, b)

	startup, err := b.ReadClientAgentStartup(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, startup)
}

func TestReadClientAgentStartupUnknownClient(t *testing.T) {
	b := setupBackend(t)
	_, err := b.ReadClientAgentStartup(context.Background(), types.NewClientID())
	assert.ErrorIs(t, err, types.ErrUnknownClient)
}

func TestWriteClientAgentStartupUnknownClient(t *testing.T) {
	b := setupBackend(t)
	err := b.WriteClientAgentStartup(context.Background(), types.NewClientID(), &types.AgentStartup{
		AgentVersion: "2.0.0",
	})
	assert.ErrorIs(t, err, types.ErrUnknownClient)
}
