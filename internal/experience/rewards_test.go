package experience

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestCalculateReward_Terminal(t *testing.T) {
	tests := []struct {
		name   string
		winner core.PlayerID
		side   core.PlayerID
		want   float32
	}{
		{name: "win", winner: core.P1, side: core.P1, want: 1},
		{name: "loss", winner: core.P2, side: core.P1, want: -1},
		{name: "draw", winner: core.NoPlayer, side: core.P2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := testutil.StandardState()
			next := prev.Clone()
			next.GameOver = true
			next.Winner = tt.winner
			assert.Equal(t, tt.want, CalculateReward(prev, next, tt.side))
		})
	}
}

func TestCalculateReward_NoChange(t *testing.T) {
	prev := testutil.StandardState()
	assert.Zero(t, CalculateReward(prev, prev.Clone(), core.P1))
}

func TestCalculateReward_Damage(t *testing.T) {
	config := DefaultRewardConfig()
	prev := testutil.StandardState()

	next := prev.Clone()
	next.Unit("p2-ranger").HP -= 4
	assert.InDelta(t, 4*config.DamageDealt, CalculateRewardWithConfig(prev, next, core.P1, config), 1e-6)
	assert.InDelta(t, 4*config.DamageTaken, CalculateRewardWithConfig(prev, next, core.P2, config), 1e-6)
}

func TestCalculateReward_Kill(t *testing.T) {
	config := DefaultRewardConfig()
	prev := testutil.StandardState()
	prev.Unit("p2-maker").HP = 2

	next := prev.Clone()
	victim := next.Unit("p2-maker")
	victim.HP = 0
	victim.IsDead = true

	want := 2*config.DamageDealt + config.KillUnit
	assert.InDelta(t, want, CalculateRewardWithConfig(prev, next, core.P1, config), 1e-6)
}

func TestCalculateReward_FlagProgress(t *testing.T) {
	config := DefaultRewardConfig()
	prev := testutil.StandardState()

	next := prev.Clone()
	next.Players[core.P1].FlagPosition = core.Coordinate{R: 3, C: 2}

	assert.InDelta(t, 2*config.FlagProgress, CalculateRewardWithConfig(prev, next, core.P1, config), 1e-6)
	assert.InDelta(t, 2*config.FlagThreat, CalculateRewardWithConfig(prev, next, core.P2, config), 1e-6)
}

func TestCalculateReward_EnergyAndMines(t *testing.T) {
	config := DefaultRewardConfig()
	prev := testutil.StandardState()
	testutil.AddMine(prev, core.P2, core.MineNormal, core.Coordinate{R: 0, C: 10})

	next := prev.Clone()
	next.Players[core.P1].Energy -= 5
	testutil.AddMine(next, core.P1, core.MineNormal, core.Coordinate{R: 6, C: 10})
	next.Mines = next.Mines[1:]

	want := 5*config.EnergySpent + config.MinePlaced + config.MineDisarmed
	assert.InDelta(t, want, CalculateRewardWithConfig(prev, next, core.P1, config), 1e-6)
}

func TestCalculateReward_InvalidInput(t *testing.T) {
	s := testutil.StandardState()
	assert.Zero(t, CalculateReward(nil, s, core.P1))
	assert.Zero(t, CalculateReward(s, nil, core.P1))
	assert.Zero(t, CalculateReward(s, s, core.NoPlayer))
}
