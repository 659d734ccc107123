package rules

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// CanOccupy reports whether a unit could stand on c: on the grid, not an
// obstacle, and free of living units.
func CanOccupy(state *core.GameState, c core.Coordinate) bool {
	return c.InBounds() && !state.Grid.IsObstacle(c) && !state.Occupied(c)
}

// GeneralAttackCost is the energy a General pays to strike from where it
// stands.
func GeneralAttackCost(q Queries, state *core.GameState, attacker *core.Unit) int {
	levels := state.Evolution(attacker.Owner, core.General)
	base := core.StatsByType[core.General].AttackCost
	if attacker.HasFlag && levels.A3(1) {
		base = 6
	}
	return q.TerritoryCost(attacker, base)
}

// GeneralAttackRange is 2 once General A2 is reached.
func GeneralAttackRange(state *core.GameState, owner core.PlayerID) int {
	if state.Evolution(owner, core.General).A >= 2 {
		return 2
	}
	return 1
}

// CanGeneralAttack checks line, range, flag and energy rules for a strike.
func CanGeneralAttack(q Queries, state *core.GameState, attacker, target *core.Unit) bool {
	if attacker == nil || target == nil || attacker.Type != core.General ||
		attacker.IsDead || target.IsDead || attacker.Owner == target.Owner {
		return false
	}
	if !attacker.Pos.SharesLine(target.Pos) || attacker.Pos.Manhattan(target.Pos) > GeneralAttackRange(state, attacker.Owner) {
		return false
	}
	if attacker.HasFlag && !state.Evolution(attacker.Owner, core.General).A3(1) {
		return false
	}
	cost := GeneralAttackCost(q, state, attacker)
	if state.Player(attacker.Owner).Energy < cost {
		return false
	}
	return q.CheckEnergyCap(attacker, cost)
}

// CanCarryFlag is true for Generals, or for any unit once General B3 is
// reached.
func CanCarryFlag(state *core.GameState, unit *core.Unit) bool {
	return unit.Type == core.General || state.Evolution(unit.Owner, core.General).B >= 3
}

// TowerLimit is 2 with Sweeper A3 variant 1, otherwise 1.
func TowerLimit(state *core.GameState, p core.PlayerID) int {
	if state.Evolution(p, core.Sweeper).A3(1) {
		return 2
	}
	return 1
}

// FactoryLimit is 2 with Maker B3 variant 2, otherwise 1.
func FactoryLimit(state *core.GameState, p core.PlayerID) int {
	if state.Evolution(p, core.Maker).B3(2) {
		return 2
	}
	return 1
}

// MakerMineTypes lists the mine kinds the player's Maker has unlocked.
func MakerMineTypes(state *core.GameState, p core.PlayerID) []core.MineType {
	levels := state.Evolution(p, core.Maker)
	types := []core.MineType{core.MineNormal}
	if levels.A >= 1 {
		types = append(types, core.MineSlow)
	}
	if levels.A >= 2 {
		types = append(types, core.MineSmoke)
	}
	if levels.A3(1) {
		types = append(types, core.MineChain)
	}
	if levels.A3(2) {
		types = append(types, core.MineNuke)
	}
	return types
}

// EnemyMinesWithin returns mines not owned by p within Chebyshev radius of c.
func EnemyMinesWithin(state *core.GameState, p core.PlayerID, c core.Coordinate, radius int) []core.Mine {
	var out []core.Mine
	for _, m := range state.Mines {
		if m.Owner != p && m.Pos.Chebyshev(c) <= radius {
			out = append(out, m)
		}
	}
	return out
}
