package rules

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// ActionCost is the energy a host charges for cmd, the same figure the
// planner shows for the action. It does not check legality.
func ActionCost(q Queries, state *core.GameState, unit *core.Unit, cmd core.Command) int {
	if unit == nil || state == nil {
		return 0
	}
	side := unit.Owner
	owner := state.Player(side)
	evo := func(t core.UnitType) core.EvolutionLevel { return state.Evolution(side, t) }

	switch cmd.Type {
	case core.ActionMove:
		return q.DisplayCost(state, unit, MoveBaseCost(unit), core.ActionMove)
	case core.ActionAttack:
		return GeneralAttackCost(q, state, unit)
	case core.ActionScan:
		base := 3
		if owner != nil && owner.Quest.SweeperScansThisRound >= 2 {
			base = 4
		}
		return q.TerritoryCost(unit, base)
	case core.ActionSensorScan:
		if evo(core.Sweeper).B >= 3 {
			return 4
		}
		return 5
	case core.ActionPlaceTower:
		base := 6
		if evo(core.Sweeper).A3(1) {
			base = 5
		}
		return q.TerritoryCost(unit, base)
	case core.ActionDetonateTower:
		return 2
	case core.ActionPlaceMine:
		return q.TerritoryCost(unit, cmd.MineType.BaseCost())
	case core.ActionPlaceFactory:
		return q.TerritoryCost(unit, 6)
	case core.ActionPlaceHub:
		return q.DisplayCost(state, unit, 4, core.ActionPlaceHub)
	case core.ActionTeleport:
		if unit.Type != core.Ranger {
			return 5
		}
		if evo(core.Ranger).A3(2) {
			return 3
		}
		return 0
	case core.ActionThrowMine:
		return q.TerritoryCost(unit, 5)
	case core.ActionDisarm:
		return q.TerritoryCost(unit, unit.Stats().DisarmCost)
	case core.ActionMoveMine:
		if evo(core.Defuser).B3(2) {
			return 5
		}
		return 2
	case core.ActionConvertMine:
		return 5
	}
	if cmd.Type.IsEvolve() {
		if level := evo(unit.Type).Level(cmd.Type.EvolveBranch()); level < core.MaxEvolveLevel {
			return core.EvolutionCosts[level]
		}
	}
	return 0
}
