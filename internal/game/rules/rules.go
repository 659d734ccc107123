package rules

import (
	"math"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Queries is the pure rule surface consulted by planners. Implementations
// must not mutate the state they are given.
type Queries interface {
	AttackDamage(state *core.GameState, attacker, target *core.Unit) int
	CheckEnergyCap(unit *core.Unit, cost int) bool
	DisplayCost(state *core.GameState, unit *core.Unit, base int, action core.ActionType) int
	TerritoryCost(unit *core.Unit, base int) int
}

// Standard implements Queries with the stock rule set.
type Standard struct {
	// GodMode zeroes attack damage.
	GodMode bool
}

func NewStandard() *Standard {
	return &Standard{}
}

// AttackDamage is the General's flat strike, reduced to 75% when the
// target's side has General B2 and the target stands within Chebyshev 2 of
// its own flag.
func (s *Standard) AttackDamage(state *core.GameState, attacker, target *core.Unit) int {
	if target == nil || state == nil {
		return 0
	}
	dmg := core.StatsByType[core.General].AttackDamage
	targetSide := state.Player(target.Owner)
	if targetSide != nil && targetSide.Evolution[core.General].B >= 2 &&
		target.Pos.Chebyshev(targetSide.FlagPosition) <= 2 {
		dmg = int(math.Floor(float64(dmg) * 0.75))
	}
	if s.GodMode {
		dmg = 0
	}
	return dmg
}

// CheckEnergyCap enforces the per-turn spend limit of one third of the
// energy the unit's side had when its turn began.
func (s *Standard) CheckEnergyCap(unit *core.Unit, cost int) bool {
	limit := int(math.Floor(float64(unit.StartOfActionEnergy) * core.EnergyCapRatio))
	return unit.EnergyUsedThisTurn+cost <= limit
}

// TerritoryCost surcharges actions taken from enemy territory.
func (s *Standard) TerritoryCost(unit *core.Unit, base int) int {
	if !core.InEnemyTerritory(unit.Owner, unit.Pos) {
		return base
	}
	if base < 5 {
		return base + 1
	}
	return base + 2
}

// DisplayCost applies move modifiers (ranger evolution, hub discount,
// debuffs, stealth) and then the territory surcharge. Teleport and
// evolution ignore both.
func (s *Standard) DisplayCost(state *core.GameState, unit *core.Unit, base int, action core.ActionType) int {
	if unit == nil || state == nil {
		return base
	}
	cost := base
	if action == core.ActionMove {
		ranger := state.Evolution(unit.Owner, core.Ranger)
		if unit.Type == core.Ranger && ranger.B >= 3 {
			cost = 2
		}
		for _, hub := range state.BuildingsOf(unit.Owner, core.Hub) {
			if hub.Pos.Manhattan(unit.Pos) <= 2 {
				cost = max(1, cost-1)
				break
			}
		}
		if unit.MoveCostDebuff > 0 {
			cost += unit.MoveCostDebuff
		}
		if unit.Stealthed && !(unit.Type == core.Ranger && ranger.B3(1)) {
			cost = 3
		}
	}
	if action == core.ActionTeleport || action.IsEvolve() {
		return base
	}
	return s.TerritoryCost(unit, cost)
}

// MoveBaseCost is the unmodified cost of one step; a General carrying the
// flag moves at its heavier flag rate.
func MoveBaseCost(unit *core.Unit) int {
	stats := unit.Stats()
	if unit.HasFlag && stats.FlagMoveCost > 0 {
		return stats.FlagMoveCost
	}
	return stats.MoveCost
}
