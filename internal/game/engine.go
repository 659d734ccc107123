package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/processor"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// Observer receives a fresh snapshot after every change to the match.
type Observer func(*core.GameState)

// Engine owns the authoritative state of one match. Players talk to it one
// command at a time; every change is pushed to the observers as a snapshot
// they may keep.
type Engine struct {
	mu sync.Mutex

	state    *core.GameState
	rng      *rand.Rand
	matchID  string
	logger   zerolog.Logger
	selected string

	rules           rules.Queries
	actionProcessor *processor.ActionProcessor
	winCondition    *rules.WinConditionChecker
	turnProcessor   *TurnProcessor
	eventBus        events.Publisher
	collector       ExperienceCollector

	turnLimit int
	startedAt time.Time
	stats     MatchStats

	obsMu     sync.Mutex
	observers []Observer
}

func (e *Engine) MatchID() string { return e.matchID }

// Subscribe registers fn for every future snapshot.
func (e *Engine) Subscribe(fn Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, fn)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *core.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// IsGameOver reports whether the match has finished.
func (e *Engine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GameOver
}

// Winner returns the winning side; ok is false while the match runs and
// after a draw.
func (e *Engine) Winner() (core.PlayerID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.GameOver || e.state.Winner == core.NoPlayer {
		return core.NoPlayer, false
	}
	return e.state.Winner, true
}

// Selected is the unit a player last highlighted.
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Start publishes the opening snapshot to the observers.
func (e *Engine) Start() {
	e.notify()
}

// Apply validates cmd and applies it. The acting unit's turn stays open
// until CompleteUnitTurn.
func (e *Engine) Apply(ctx context.Context, cmd core.Command) error {
	e.mu.Lock()
	prev := e.state.Clone()
	cost, err := e.actionProcessor.Process(ctx, e.state, cmd)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	next := e.state.Clone()
	e.recordAction(prev, next, cmd, cost)
	if e.collector != nil {
		e.collector.OnAction(prev, next, cmd, cost)
	}
	e.checkGameOver()
	e.mu.Unlock()

	e.notify()
	return nil
}

// SelectUnit highlights a unit for viewers.
func (e *Engine) SelectUnit(unitID string) {
	e.mu.Lock()
	e.selected = unitID
	e.mu.Unlock()
	e.logger.Debug().Str("unit", unitID).Msg("Unit selected")
}

// CompleteUnitTurn closes a unit's turn and hands play to whoever moves
// next.
func (e *Engine) CompleteUnitTurn(unitID string) {
	e.mu.Lock()
	if e.state.GameOver {
		e.mu.Unlock()
		return
	}
	u := e.state.Unit(unitID)
	if u == nil || u.Owner != e.state.CurrentPlayer || u.HasActedThisRound {
		e.logger.Warn().Str("unit", unitID).Msg("Ignoring completion of a unit that cannot be completed")
		e.mu.Unlock()
		return
	}
	u.HasActedThisRound = true
	e.stats.Sides[u.Owner].UnitTurns++
	e.selected = ""
	e.turnProcessor.HandOff(e.state)
	e.mu.Unlock()

	e.notify()
}

// CompleteTurn ends every remaining unit turn of the side to move.
func (e *Engine) CompleteTurn() {
	e.mu.Lock()
	if e.state.GameOver {
		e.mu.Unlock()
		return
	}
	side := e.state.CurrentPlayer
	for i := range e.state.Players[side].Units {
		e.state.Players[side].Units[i].HasActedThisRound = true
	}
	e.selected = ""
	e.turnProcessor.HandOff(e.state)
	e.mu.Unlock()

	e.notify()
}

// checkGameOver settles the match once a win condition holds. Callers hold
// the lock.
func (e *Engine) checkGameOver() {
	if e.state.GameOver {
		return
	}
	over, winner := e.winCondition.CheckGameOver(e.state)
	if !over {
		return
	}
	e.finish(winner, true)
}

// finish closes the match. Callers hold the lock.
func (e *Engine) finish(winner core.PlayerID, decided bool) {
	e.state.GameOver = true
	e.state.Winner = core.NoPlayer
	if decided {
		e.state.Winner = winner
	}
	duration := time.Since(e.startedAt)
	e.logger.Info().
		Bool("decided", decided).
		Str("winner", e.state.Winner.String()).
		Int("turn", e.state.TurnCount).
		Dur("duration", duration).
		Msg("Match over")
	e.eventBus.Publish(events.NewMatchEndedEvent(e.matchID, e.state.Winner, decided, e.state.TurnCount, duration))
	if e.collector != nil {
		e.collector.OnGameEnd(e.state.Clone())
	}
}

// notify pushes one snapshot to every observer outside the engine lock, so
// observers may call back into the engine.
func (e *Engine) notify() {
	e.obsMu.Lock()
	observers := append([]Observer(nil), e.observers...)
	e.obsMu.Unlock()
	if len(observers) == 0 {
		return
	}
	snap := e.Snapshot()
	for _, fn := range observers {
		fn(snap.Clone())
	}
}
