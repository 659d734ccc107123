package plannerserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestSessionManager_Create(t *testing.T) {
	m := NewSessionManager(0, nil, testutil.NopLogger())
	bad := agent.DefaultSettings()
	bad.DecisionBudget = 0

	tests := []struct {
		name     string
		side     core.PlayerID
		settings agent.Settings
		wantErr  bool
	}{
		{name: "p1", side: core.P1, settings: agent.DefaultSettings()},
		{name: "p2", side: core.P2, settings: agent.DefaultSettings()},
		{name: "no player", side: core.NoPlayer, settings: agent.DefaultSettings(), wantErr: true},
		{name: "invalid settings", side: core.P1, settings: bad, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := m.Create(tt.side, tt.settings, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.side, s.side)
			got, ok := m.Get(s.id)
			require.True(t, ok)
			assert.Same(t, s, got)
		})
	}
	assert.Equal(t, 2, m.Len())
}

func TestSessionManager_Capacity(t *testing.T) {
	m := NewSessionManager(1, nil, testutil.NopLogger())
	_, err := m.Create(core.P1, agent.DefaultSettings(), 1)
	require.NoError(t, err)
	_, err = m.Create(core.P2, agent.DefaultSettings(), 1)
	assert.ErrorIs(t, err, ErrAtCapacity)
}

func TestSessionManager_CleanupIdle(t *testing.T) {
	now := time.Unix(5000, 0)
	m := NewSessionManager(0, nil, testutil.NopLogger())
	m.now = func() time.Time { return now }

	stale, err := m.Create(core.P1, agent.DefaultSettings(), 1)
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	fresh, err := m.Create(core.P2, agent.DefaultSettings(), 1)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	removed := m.CleanupIdle(30 * time.Minute)
	assert.Equal(t, []string{stale.id}, removed)

	_, ok := m.Get(stale.id)
	assert.False(t, ok)
	_, ok = m.Get(fresh.id)
	assert.True(t, ok)

	_, ok = m.Remove(fresh.id)
	assert.True(t, ok)
	_, ok = m.Remove(fresh.id)
	assert.False(t, ok)
}
