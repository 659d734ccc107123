package rules

import (
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/rs/zerolog"
)

// WinConditionChecker handles game over detection and winner determination
type WinConditionChecker struct {
	logger zerolog.Logger
}

// NewWinConditionChecker creates a new win condition checker
func NewWinConditionChecker(logger zerolog.Logger) *WinConditionChecker {
	return &WinConditionChecker{
		logger: logger.With().Str("component", "WinConditionChecker").Logger(),
	}
}

// CheckGameOver reports a winner when a side has carried its flag onto the
// enemy flag's start cell, or when a General has fallen.
func (wc *WinConditionChecker) CheckGameOver(state *core.GameState) (bool, core.PlayerID) {
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		if state.Players[p].FlagPosition == core.FlagStart(p.Opponent()) {
			wc.logger.Info().Str("winner", p.String()).Str("reason", "flag_captured").Msg("Winner determined")
			return true, p
		}
	}

	for _, p := range []core.PlayerID{core.P1, core.P2} {
		for _, u := range state.Players[p].Units {
			if u.Type == core.General && u.IsDead {
				winner := p.Opponent()
				wc.logger.Info().Str("winner", winner.String()).Str("reason", "general_killed").Msg("Winner determined")
				return true, winner
			}
		}
	}

	wc.logger.Debug().Int("turn", state.TurnCount).Msg("Game over check complete")
	return false, core.P1
}
