package agent

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// actionApplied reports whether anything an action could change differs
// between the snapshot before it was submitted and the one after. A host
// that rejects a command leaves the state untouched, so no difference means
// the action did not go through.
func actionApplied(before, after *core.GameState, unitID string, side core.PlayerID) bool {
	if before == nil || after == nil {
		return false
	}
	if after.GameOver || after.CurrentPlayer != side || after.Phase != core.PhaseAction || after.TurnCount != before.TurnCount {
		return true
	}
	ub, ua := before.Unit(unitID), after.Unit(unitID)
	if ub == nil || ua == nil {
		return ub != ua
	}
	switch {
	case ua.HasActedThisRound && !ub.HasActedThisRound:
		return true
	case ua.IsDead != ub.IsDead:
		return true
	case ua.Pos != ub.Pos, ua.HP != ub.HP, ua.HasFlag != ub.HasFlag:
		return true
	case ua.EnergyUsedThisTurn != ub.EnergyUsedThisTurn:
		return true
	}
	if after.Players[side].Energy != before.Players[side].Energy {
		return true
	}
	return len(after.Mines) != len(before.Mines) || len(after.Buildings) != len(before.Buildings)
}

// ourTurn is true when side may act on state right now.
func ourTurn(state *core.GameState, side core.PlayerID) bool {
	return state != nil && !state.GameOver && state.Phase == core.PhaseAction && state.CurrentPlayer == side
}

// canStillAct is true when u may take another action in the current turn.
func canStillAct(state *core.GameState, u *core.Unit) bool {
	return u != nil && !u.IsDead && !u.HasActedThisRound && ourTurn(state, u.Owner)
}
