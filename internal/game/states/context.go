package states

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// CycleContext carries the facts states use to validate a transition and
// to log about the cycle in flight.
type CycleContext struct {
	// MatchID identifies the match the agent plays in
	MatchID string

	// Side is the player the agent controls
	Side core.PlayerID

	Logger zerolog.Logger

	// CycleID is fresh for every cycle; empty when idle
	CycleID string

	// Turn is the game turn the cycle was started for
	Turn int

	// UnitID is the unit being decided for, once selected
	UnitID string

	// Actions counts actions applied for UnitID in this cycle
	Actions int

	// StartedAt is the clock time the cycle began
	StartedAt time.Time

	// Err is the last recoverable failure of the cycle
	Err error
}

// NewCycleContext creates a new idle cycle context
func NewCycleContext(matchID string, side core.PlayerID, logger zerolog.Logger) *CycleContext {
	return &CycleContext{
		MatchID: matchID,
		Side:    side,
		Logger:  logger.With().Str("match_id", matchID).Str("side", side.String()).Logger(),
	}
}

// Begin prepares the context for a new cycle.
func (cc *CycleContext) Begin(cycleID string, turn int, now time.Time) {
	cc.CycleID = cycleID
	cc.Turn = turn
	cc.UnitID = ""
	cc.Actions = 0
	cc.StartedAt = now
	cc.Err = nil
}

// Clear returns the context to idle.
func (cc *CycleContext) Clear() {
	cc.Begin("", 0, time.Time{})
}

// Elapsed returns the time spent in the cycle as of now.
func (cc *CycleContext) Elapsed(now time.Time) time.Duration {
	if cc.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(cc.StartedAt)
}
