package ai

import (
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

var defaultRoles = [core.UnitTypeCount]Role{
	core.General: Striker,
	core.Sweeper: Scout,
	core.Ranger:  Flanker,
	core.Maker:   Controller,
	core.Defuser: Support,
}

// AssignRoles gives every living unit of side exactly one role.
func AssignRoles(state *core.GameState, side core.PlayerID, intent Intent, opp OpponentModel) map[string]Role {
	units := state.AliveUnits(side)
	roles := make(map[string]Role, len(units))
	for _, u := range units {
		role := defaultRoles[u.Type]
		switch {
		case intent == HuntFlagCarrier && u.Type == core.Ranger:
			role = Striker
		case intent == Stabilize && u.Type == core.General && opp.Aggression > 3.5:
			role = Support
		}
		roles[u.ID] = role
	}
	return roles
}

func freeNeighbors(state *core.GameState, u *core.Unit) int {
	n := 0
	for _, c := range u.Pos.ValidNeighbors() {
		if !state.Grid.IsObstacle(c) && !state.Occupied(c) {
			n++
		}
	}
	return n
}

// FormationBonus rewards a unit for standing where its role wants it.
func FormationBonus(state *core.GameState, u *core.Unit, role Role, intent Intent, side core.PlayerID) float64 {
	ownFlag := state.Players[side].FlagPosition
	enemyFlag := state.Players[side.Opponent()].FlagPosition
	distEnemy := float64(u.Pos.Manhattan(enemyFlag))
	distOwn := float64(u.Pos.Manhattan(ownFlag))
	mobility := float64(freeNeighbors(state, u))

	bonus := 0.0
	switch role {
	case Striker:
		bonus += max(0, 9-distEnemy) * 0.7
		bonus += (distOwn - distEnemy) * 0.25
		if u.HasFlag {
			bonus += 4
		}
	case Flanker:
		bonus += max(0, 8-distEnemy)*0.45 + mobility*0.65
	case Controller:
		center := float64(enemyFlag.C+ownFlag.C) / 2
		bonus += max(0, 6-abs(float64(u.Pos.C)-center))*0.6 + mobility*0.35
	case Scout:
		bonus += mobility*0.8 + max(0, 10-distEnemy)*0.3
	default:
		bonus += max(0, 8-distOwn) * 0.75
		bonus += max(0, 7-float64(u.Stats().MoveCost)) * 0.3
	}

	switch intent {
	case PushFlag:
		if role == Striker || role == Flanker {
			bonus += 1.4
		} else {
			bonus -= 0.2
		}
	case HuntFlagCarrier:
		switch role {
		case Striker:
			bonus += 1.8
		case Flanker:
			bonus += 1
		}
	case ControlMines:
		if role == Controller || role == Scout || role == Support {
			bonus += 1.3
		} else {
			bonus -= 0.4
		}
	case Stabilize:
		switch role {
		case Support:
			bonus += 1.6
		case Striker:
			bonus -= 0.8
		default:
			bonus += 0.3
		}
	}
	return bonus
}
