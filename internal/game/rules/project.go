package rules

import (
	"math"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Project returns a deep copy of state with cmd applied for the acting side.
// The input state is never touched, so alternatives projected from the same
// snapshot cannot see each other.
func Project(q Queries, state *core.GameState, cmd core.Command, cost int) *core.GameState {
	next := state.Clone()
	Apply(q, next, cmd, cost)
	return next
}

// Apply mutates state in place with the direct effects of cmd: energy is
// spent and the action-specific effect runs. The unit's turn stays open;
// marking it as acted is the host's job when the unit turn completes.
// Legality is the caller's concern; effects that cannot happen are skipped.
func Apply(q Queries, state *core.GameState, cmd core.Command, cost int) {
	side := cmd.Player
	owner := state.Player(side)
	if owner == nil {
		return
	}
	unit := state.Unit(cmd.UnitID)
	if unit == nil || unit.IsDead || unit.Owner != side {
		return
	}
	enemy := side.Opponent()

	owner.Energy = max(0, owner.Energy-cost)
	unit.EnergyUsedThisTurn += cost

	target := cmd.Target.Cell
	switch cmd.Type {
	case core.ActionMove:
		if cmd.Target.Kind != core.TargetCell {
			return
		}
		unit.Pos = target
		if unit.HasFlag {
			owner.FlagPosition = target
		}

	case core.ActionAttack:
		victim := state.Unit(cmd.Target.UnitID)
		if victim == nil || victim.IsDead || victim.Owner != enemy {
			return
		}
		damage(state, victim, q.AttackDamage(state, unit, victim))

	case core.ActionPlaceMine:
		if state.MineAt(target) != nil {
			return
		}
		m := core.Mine{ID: state.NewID("mine"), Owner: side, Type: cmd.MineType, Pos: target}
		m.Revealed[side] = true
		state.Mines = append(state.Mines, m)

	case core.ActionPlaceTower:
		placeBuilding(state, side, core.Tower, unit.Pos, TowerLimit(state, side), max(1, state.Evolution(side, core.Sweeper).A))

	case core.ActionPlaceFactory:
		placeBuilding(state, side, core.Factory, unit.Pos, FactoryLimit(state, side), max(1, state.Evolution(side, core.Maker).B))

	case core.ActionPlaceHub:
		placeBuilding(state, side, core.Hub, unit.Pos, 1, max(1, state.Evolution(side, unit.Type).A))

	case core.ActionTeleport:
		teleport(state, side, unit)

	case core.ActionDetonateTower:
		towers := state.BuildingsOf(side, core.Tower)
		if len(towers) == 0 {
			return
		}
		nearTower := func(c core.Coordinate) bool {
			for _, t := range towers {
				if t.Pos.Chebyshev(c) <= 1 {
					return true
				}
			}
			return false
		}
		kept := state.Mines[:0]
		for _, m := range state.Mines {
			if m.Owner == enemy && nearTower(m.Pos) {
				continue
			}
			kept = append(kept, m)
		}
		state.Mines = kept
		for _, e := range state.AliveUnits(enemy) {
			if nearTower(e.Pos) {
				damage(state, e, 3)
			}
		}
		for _, t := range towers {
			state.RemoveBuilding(t.ID)
		}

	case core.ActionThrowMine:
		victim := state.UnitAt(target)
		if victim == nil || victim.Owner != enemy {
			return
		}
		damage(state, victim, core.MineDamage)
		unit.CarryingMine = false

	case core.ActionPickupMine:
		if unit.CarryingMine {
			return
		}
		m := state.MineAt(target)
		if m == nil {
			return
		}
		unit.CarryingMine = true
		unit.CarriedMine = m.Type
		state.RemoveMine(m.ID)

	case core.ActionDropMine:
		if !unit.CarryingMine || state.MineAt(unit.Pos) != nil || state.Grid.IsObstacle(unit.Pos) {
			return
		}
		m := core.Mine{ID: state.NewID("mine"), Owner: side, Type: unit.CarriedMine, Pos: unit.Pos}
		m.Revealed[side] = true
		state.Mines = append(state.Mines, m)
		unit.CarryingMine = false

	case core.ActionMoveMine:
		if cmd.Source == nil {
			return
		}
		m := state.MineAt(*cmd.Source)
		if m == nil || m.Owner == side {
			return
		}
		if state.Evolution(side, core.Defuser).B3(2) {
			if victim := state.UnitAt(target); victim != nil && victim.Owner == enemy {
				damage(state, victim, int(math.Floor(core.MineDamage*0.4)))
				state.RemoveMine(m.ID)
				return
			}
		}
		m.Pos = target

	case core.ActionConvertMine:
		m := state.MineAt(target)
		if m == nil || m.Owner == side {
			return
		}
		m.Owner = side
		m.Revealed = [core.PlayerCount]bool{}
		m.Revealed[side] = true

	case core.ActionDisarm:
		if m := state.MineAt(target); m != nil && m.Owner == enemy {
			state.RemoveMine(m.ID)
		}

	case core.ActionPickupFlag:
		unit.HasFlag = true

	case core.ActionDropFlag:
		unit.HasFlag = false
		owner.FlagPosition = unit.Pos

	case core.ActionScan, core.ActionSensorScan:
		for i := range state.Mines {
			m := &state.Mines[i]
			if m.Owner != side && m.Pos.Chebyshev(target) <= 1 {
				m.Revealed[side] = true
			}
		}

	default:
		if cmd.Type.IsEvolve() {
			evolve(owner, unit.Type, cmd.Type)
		}
	}
}

// damage lowers HP and handles death; a dying carrier drops its flag where
// it fell.
func damage(state *core.GameState, victim *core.Unit, amount int) {
	victim.HP = max(0, victim.HP-amount)
	if victim.HP > 0 {
		return
	}
	victim.IsDead = true
	if victim.HasFlag {
		victim.HasFlag = false
		state.Player(victim.Owner).FlagPosition = victim.Pos
	}
}

// placeBuilding appends a building, evicting the oldest of the same type
// once the limit is reached.
func placeBuilding(state *core.GameState, side core.PlayerID, kind core.BuildingType, at core.Coordinate, limit, level int) {
	existing := state.BuildingsOf(side, kind)
	if len(existing) >= limit && len(existing) > 0 {
		state.RemoveBuilding(existing[0].ID)
	}
	state.Buildings = append(state.Buildings, core.Building{
		ID:    state.NewID(kind.String()),
		Owner: side,
		Type:  kind,
		Pos:   at,
		Level: level,
	})
}

func teleport(state *core.GameState, side core.PlayerID, unit *core.Unit) {
	ranger := state.Evolution(side, core.Ranger)
	allowOthers := ranger.A3(2)
	allowRanger := unit.Type == core.Ranger && ranger.A >= 2
	if !allowOthers && !allowRanger {
		return
	}
	hubs := state.BuildingsOf(side, core.Hub)
	if len(hubs) == 0 {
		return
	}
	hub := hubs[0]
	if other := state.UnitAt(hub.Pos); other != nil && other.ID != unit.ID {
		return
	}
	unit.Pos = hub.Pos
	if unit.HasFlag {
		state.Player(side).FlagPosition = hub.Pos
	}
	if unit.Type == core.Ranger && !ranger.A3(2) {
		state.RemoveBuilding(hub.ID)
	}
}

func evolve(owner *core.Player, t core.UnitType, action core.ActionType) {
	levels := &owner.Evolution[t]
	variant := action.EvolveVariant()
	if action.EvolveBranch() == core.BranchA {
		levels.A = min(core.MaxEvolveLevel, levels.A+1)
		if variant != 0 {
			levels.AVariant = variant
		}
		return
	}
	levels.B = min(core.MaxEvolveLevel, levels.B+1)
	if variant != 0 {
		levels.BVariant = variant
	}
}
