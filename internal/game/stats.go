package game

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// This file contains the per-side statistics the engine keeps for a match.

// SideStats counts what one side did over a match.
type SideStats struct {
	Actions     int
	EnergySpent int
	UnitTurns   int
	Damage      int
	UnitsLost   int
	MinesLaid   int
}

// MatchStats holds both sides' counters.
type MatchStats struct {
	Sides  [core.PlayerCount]SideStats
	Rounds int
}

// recordAction folds one applied command into the stats.
func (e *Engine) recordAction(prev, next *core.GameState, cmd core.Command, cost int) {
	s := &e.stats.Sides[cmd.Player]
	s.Actions++
	s.EnergySpent += cost
	if cmd.Type == core.ActionPlaceMine {
		s.MinesLaid++
	}

	enemy := cmd.Player.Opponent()
	s.Damage += max(0, hpTotal(prev, enemy)-hpTotal(next, enemy))
	e.stats.Sides[enemy].UnitsLost += len(prev.AliveUnits(enemy)) - len(next.AliveUnits(enemy))
	e.stats.Sides[cmd.Player].UnitsLost += len(prev.AliveUnits(cmd.Player)) - len(next.AliveUnits(cmd.Player))
}

func hpTotal(state *core.GameState, p core.PlayerID) int {
	total := 0
	for _, u := range state.AliveUnits(p) {
		total += u.HP
	}
	return total
}

// Stats returns a copy of the match statistics.
func (e *Engine) Stats() MatchStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
