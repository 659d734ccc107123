package game

import (
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// TurnProcessor moves play between the sides. Sides alternate one unit turn
// at a time; a side with no unit left to act is skipped, and once neither
// side has one a new round begins.
type TurnProcessor struct {
	engine *Engine
	logger zerolog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(engine *Engine) *TurnProcessor {
	return &TurnProcessor{
		engine: engine,
		logger: engine.logger,
	}
}

// HandOff decides who moves after a unit turn ended. Callers hold the
// engine lock.
func (tp *TurnProcessor) HandOff(state *core.GameState) {
	current := state.CurrentPlayer
	next := current.Opponent()
	switch {
	case hasUnitToAct(state, next):
		tp.startUnitTurn(state, next)
	case hasUnitToAct(state, current):
		tp.startUnitTurn(state, current)
	default:
		tp.startNewRound(state)
	}
}

func hasUnitToAct(state *core.GameState, p core.PlayerID) bool {
	for _, u := range state.AliveUnits(p) {
		if !u.HasActedThisRound {
			return true
		}
	}
	return false
}

// startUnitTurn gives p the move. The per-turn energy cap is measured
// against what p holds right now.
func (tp *TurnProcessor) startUnitTurn(state *core.GameState, p core.PlayerID) {
	state.CurrentPlayer = p
	owner := &state.Players[p]
	for i := range owner.Units {
		u := &owner.Units[i]
		if !u.HasActedThisRound {
			u.StartOfActionEnergy = owner.Energy
		}
	}
	tp.engine.eventBus.Publish(events.NewRoundAdvancedEvent(tp.engine.matchID, state.TurnCount, p, owner.Energy))
}

// startNewRound grants income, refreshes every unit and gives P1 the first
// move, or ends the match in a draw once the turn limit is passed.
func (tp *TurnProcessor) startNewRound(state *core.GameState) {
	next := state.TurnCount + 1
	if limit := tp.engine.turnLimit; limit > 0 && next > limit {
		tp.logger.Info().Int("turn_limit", limit).Msg("Turn limit reached")
		tp.engine.finish(core.NoPlayer, false)
		return
	}
	state.TurnCount = next
	tp.engine.stats.Rounds++

	for r := range state.Grid.Cells {
		for c := range state.Grid.Cells[r] {
			if cell := &state.Grid.Cells[r][c]; cell.SmokeTurns > 0 {
				cell.SmokeTurns--
			}
		}
	}

	for _, p := range []core.PlayerID{core.P1, core.P2} {
		owner := &state.Players[p]
		owner.Energy = EnergyIncome(owner.Energy, next)
		owner.Quest.SweeperScansThisRound = 0
		for i := range owner.Units {
			u := &owner.Units[i]
			u.HasActedThisRound = false
			u.EnergyUsedThisTurn = 0
			u.StartOfActionEnergy = owner.Energy
		}
	}
	state.Phase = core.PhaseAction

	tp.logger.Debug().
		Int("turn", next).
		Int("p1_energy", state.Players[core.P1].Energy).
		Int("p2_energy", state.Players[core.P2].Energy).
		Msg("New round")

	if hasUnitToAct(state, core.P1) {
		tp.startUnitTurn(state, core.P1)
	} else {
		tp.startUnitTurn(state, core.P2)
	}
}

// EnergyIncome is the energy a side holds after the start of round turn:
// the round's regeneration plus one per ten banked, capped.
func EnergyIncome(energy, turn int) int {
	interest := min(energy/10, core.MaxInterest)
	return energy + core.EnergyRegen(turn) + interest
}
