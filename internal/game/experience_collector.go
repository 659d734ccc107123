package game

import "github.com/mitchelldurbincs/tacticsai/internal/game/core"

// ExperienceCollector is an interface for collecting experiences during gameplay
type ExperienceCollector interface {
	// OnAction is called after each applied command with the snapshots on
	// either side of it
	OnAction(prev, next *core.GameState, cmd core.Command, cost int)

	// OnGameEnd is called when the game ends
	OnGameEnd(final *core.GameState)
}
