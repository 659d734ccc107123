package experience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestSerializer_StateFeatures(t *testing.T) {
	s := NewSerializer()
	state := testutil.StandardState()
	state.Grid.SetObstacle(core.Coordinate{R: 0, C: 11}, true)
	state.Grid.At(core.Coordinate{R: 6, C: 12}).SmokeTurns = 2
	hidden := testutil.AddMine(state, core.P2, core.MineNormal, core.Coordinate{R: 1, C: 9})
	testutil.AddMine(state, core.P1, core.MineSlow, core.Coordinate{R: 5, C: 9})
	testutil.AddBuilding(state, core.P1, core.Tower, core.Coordinate{R: 0, C: 1})
	state.Unit("p2-ranger").HP = 8

	f := s.StateFeatures(state, core.P1)
	require.Len(t, f, FeatureSize)

	assert.Equal(t, float32(1), f[channelIndex(ChannelOwnUnits, 3, 2)], "own general at full hp")
	assert.Equal(t, float32(0.5), f[channelIndex(ChannelEnemyUnits, 2, core.Cols-3)], "enemy ranger at half hp")
	assert.Equal(t, float32(1), f[channelIndex(ChannelOwnFlag, 3, 0)])
	assert.Equal(t, float32(1), f[channelIndex(ChannelEnemyFlag, 3, core.Cols-1)])
	assert.Equal(t, float32(1), f[channelIndex(ChannelObstacles, 0, 11)])
	assert.Equal(t, float32(1), f[channelIndex(ChannelSmoke, 6, 12)])
	assert.Equal(t, float32(1), f[channelIndex(ChannelOwnMines, 5, 9)])
	assert.Zero(t, f[channelIndex(ChannelEnemyMines, 1, 9)], "unrevealed enemy mine stays hidden")
	assert.Positive(t, f[channelIndex(ChannelOwnBuildings, 0, 1)])

	for i := range state.Mines {
		if state.Mines[i].ID == hidden {
			state.Mines[i].Revealed[core.P1] = true
		}
	}
	f = s.StateFeatures(state, core.P1)
	assert.Equal(t, float32(1), f[channelIndex(ChannelEnemyMines, 1, 9)])

	tail := NumChannels * core.Rows * core.Cols
	assert.InDelta(t, float32(core.InitialEnergy)/MaxEnergyValue, f[tail], 1e-6)
}

func TestSerializer_PerspectiveIsMirrored(t *testing.T) {
	s := NewSerializer()
	state := testutil.StandardState()

	p1 := s.StateFeatures(state, core.P1)
	p2 := s.StateFeatures(state, core.P2)
	assert.Equal(t, p1[channelIndex(ChannelOwnUnits, 3, 2)], p2[channelIndex(ChannelEnemyUnits, 3, 2)])
	assert.Equal(t, p1[channelIndex(ChannelOwnFlag, 3, 0)], p2[channelIndex(ChannelEnemyFlag, 3, 0)])
}

func TestSerializer_StealthedEnemyHidden(t *testing.T) {
	state := testutil.StandardState()
	state.Unit("p2-ranger").Stealthed = true
	f := NewSerializer().StateFeatures(state, core.P1)
	assert.Zero(t, f[channelIndex(ChannelEnemyUnits, 2, core.Cols-3)])
}

func TestSerializer_ActionIndexRoundTrip(t *testing.T) {
	s := NewSerializer()
	state := testutil.StandardState()

	tests := []struct {
		name     string
		cmd      core.Command
		wantCell core.Coordinate
	}{
		{
			name:     "move to cell",
			cmd:      core.Command{Type: core.ActionMove, Target: core.CellTarget(core.Coordinate{R: 2, C: 5})},
			wantCell: core.Coordinate{R: 2, C: 5},
		},
		{
			name:     "attack unit",
			cmd:      core.Command{Type: core.ActionAttack, Target: core.UnitTarget("p2-general")},
			wantCell: core.Coordinate{R: 3, C: core.Cols - 3},
		},
		{
			name:     "end turn",
			cmd:      core.Command{Type: core.ActionEndTurn, Target: core.NoTarget()},
			wantCell: core.Coordinate{R: 0, C: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := s.ActionToIndex(tt.cmd, state)
			assert.Less(t, idx, s.ActionSpaceSize())
			action, cell := s.IndexToAction(idx)
			assert.Equal(t, tt.cmd.Type, action)
			assert.Equal(t, tt.wantCell, cell)
		})
	}
}

func TestSerializer_NilState(t *testing.T) {
	f := NewSerializer().StateFeatures(nil, core.P1)
	assert.Len(t, f, FeatureSize)
}
