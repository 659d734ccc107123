package experience

import (
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// RewardConfig holds configurable reward values
type RewardConfig struct {
	WinGame      float32
	LoseGame     float32
	KillUnit     float32
	LoseUnit     float32
	DamageDealt  float32 // Per HP removed from enemy units
	DamageTaken  float32 // Per HP lost by own units
	FlagProgress float32 // Per cell the own flag moved towards the enemy start
	FlagThreat   float32 // Per cell the enemy flag moved towards our start
	EnergySpent  float32 // Per energy point spent
	MinePlaced   float32
	MineDisarmed float32
}

// DefaultRewardConfig returns the default reward configuration
func DefaultRewardConfig() *RewardConfig {
	return &RewardConfig{
		WinGame:      1.0,
		LoseGame:     -1.0,
		KillUnit:     0.2,
		LoseUnit:     -0.2,
		DamageDealt:  0.01,
		DamageTaken:  -0.01,
		FlagProgress: 0.05,
		FlagThreat:   -0.05,
		EnergySpent:  -0.0005,
		MinePlaced:   0.02,
		MineDisarmed: 0.03,
	}
}

// CalculateReward computes the reward for side across one state transition
func CalculateReward(prev, next *core.GameState, side core.PlayerID) float32 {
	return CalculateRewardWithConfig(prev, next, side, DefaultRewardConfig())
}

// CalculateRewardWithConfig computes reward using custom configuration
func CalculateRewardWithConfig(prev, next *core.GameState, side core.PlayerID, config *RewardConfig) float32 {
	if prev == nil || next == nil || !side.Valid() {
		return 0
	}
	opp := side.Opponent()

	// Terminal states dominate everything else. A draw scores zero.
	if next.GameOver {
		switch next.Winner {
		case side:
			return config.WinGame
		case opp:
			return config.LoseGame
		default:
			return 0
		}
	}

	reward := float32(0)

	reward += float32(totalHP(prev, opp)-totalHP(next, opp)) * config.DamageDealt
	reward += float32(totalHP(prev, side)-totalHP(next, side)) * config.DamageTaken

	reward += float32(aliveCount(prev, opp)-aliveCount(next, opp)) * config.KillUnit
	reward += float32(aliveCount(prev, side)-aliveCount(next, side)) * config.LoseUnit

	reward += float32(flagDistance(prev, side)-flagDistance(next, side)) * config.FlagProgress
	reward += float32(flagDistance(prev, opp)-flagDistance(next, opp)) * config.FlagThreat

	if spent := prev.Players[side].Energy - next.Players[side].Energy; spent > 0 {
		reward += float32(spent) * config.EnergySpent
	}

	if placed := next.MinesOwnedBy(side) - prev.MinesOwnedBy(side); placed > 0 {
		reward += float32(placed) * config.MinePlaced
	}
	if disarmed := prev.MinesOwnedBy(opp) - next.MinesOwnedBy(opp); disarmed > 0 {
		reward += float32(disarmed) * config.MineDisarmed
	}

	return reward
}

func totalHP(state *core.GameState, p core.PlayerID) int {
	hp := 0
	for _, u := range state.AliveUnits(p) {
		hp += u.HP
	}
	return hp
}

func aliveCount(state *core.GameState, p core.PlayerID) int {
	return len(state.AliveUnits(p))
}

// flagDistance is how far p's flag still has to travel to win.
func flagDistance(state *core.GameState, p core.PlayerID) int {
	return state.Players[p].FlagPosition.Manhattan(core.FlagStart(p.Opponent()))
}
