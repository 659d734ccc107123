// Package selfplay runs matches between two agents on one engine.
package selfplay

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/scheduler"
)

// DefaultTurnLimit keeps a match between two passive agents finite.
const DefaultTurnLimit = 40

var (
	ErrStalled       = errors.New("selfplay: nothing scheduled but the match is not over")
	ErrStepsExceeded = errors.New("selfplay: step limit reached before the match ended")
)

// Config describes one match.
type Config struct {
	MatchID         string
	Seed            int64
	ObstacleDensity float64
	TurnLimit       int
	// Settings per side, indexed by core.PlayerID.
	Settings  [core.PlayerCount]agent.Settings
	Book      *ai.OpeningBook
	EventBus  events.Publisher
	Collector game.ExperienceCollector
	// Clock defaults to a ManualClock, which makes Run a fast simulation.
	Clock scheduler.Clock
}

// DefaultConfig pits two normal balanced agents against each other at full
// speed.
func DefaultConfig(seed int64) Config {
	s := agent.DefaultSettings()
	s.PacingScale = 0
	return Config{
		Seed:      seed,
		TurnLimit: DefaultTurnLimit,
		Settings:  [core.PlayerCount]agent.Settings{s, s},
	}
}

// Result summarises a finished match.
type Result struct {
	MatchID  string
	Winner   core.PlayerID
	Decided  bool
	Turns    int
	Stats    game.MatchStats
	Duration time.Duration
}

// Match owns the engine, the scheduler and one agent per side.
type Match struct {
	engine *game.Engine
	agents [core.PlayerCount]*agent.Agent
	sched  *scheduler.Scheduler
	clock  scheduler.Clock
	logger zerolog.Logger
	done   chan struct{}
}

// NewMatch sets up a match; nothing runs until Run or Step.
func NewMatch(ctx context.Context, cfg Config, logger zerolog.Logger) (*Match, error) {
	if cfg.TurnLimit <= 0 {
		cfg.TurnLimit = DefaultTurnLimit
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Clock == nil {
		cfg.Clock = scheduler.NewManualClock(time.Unix(0, 0))
	}
	logger = logger.With().Str("component", "SelfPlay").Logger()
	if cfg.EventBus == nil {
		cfg.EventBus = events.NewEventBus(logger)
	}

	engine, err := game.NewEngine(ctx, game.GameConfig{
		MatchID:         cfg.MatchID,
		Seed:            cfg.Seed,
		ObstacleDensity: cfg.ObstacleDensity,
		TurnLimit:       cfg.TurnLimit,
		EventBus:        cfg.EventBus,
		Collector:       cfg.Collector,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	m := &Match{
		engine: engine,
		sched:  scheduler.New(cfg.Clock, logger),
		clock:  cfg.Clock,
		logger: logger.With().Str("match_id", engine.MatchID()).Logger(),
		done:   make(chan struct{}),
	}
	for _, side := range []core.PlayerID{core.P1, core.P2} {
		seed := cfg.Seed + int64(side) + 1
		planner := ai.NewPlanner(nil, cfg.Book, rand.New(rand.NewSource(seed)), logger)
		a, err := agent.New(agent.Config{
			MatchID:   engine.MatchID(),
			Side:      side,
			Planner:   planner,
			Host:      engine,
			Scheduler: m.sched,
			Publisher: cfg.EventBus,
			Settings:  cfg.Settings[side],
			Rand:      rand.New(rand.NewSource(seed * 31)),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating %s agent: %w", side, err)
		}
		m.agents[side] = a
	}

	engine.Subscribe(func(state *core.GameState) {
		for _, a := range m.agents {
			a.Observe(state)
		}
		if state.GameOver {
			m.closeDone()
		}
	})
	return m, nil
}

func (m *Match) closeDone() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

func (m *Match) Engine() *game.Engine { return m.engine }

// Agent returns the agent playing side.
func (m *Match) Agent(side core.PlayerID) *agent.Agent { return m.agents[side] }

func (m *Match) Scheduler() *scheduler.Scheduler { return m.sched }

// Run plays the match to the end. On a ManualClock the clock jumps straight
// to the next scheduled step; on any other clock the scheduler follows wall
// time until the match ends or ctx is done.
func (m *Match) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	m.engine.Start()

	if manual, ok := m.clock.(*scheduler.ManualClock); ok {
		if err := m.runManual(ctx, manual, 0); err != nil {
			return m.result(started), err
		}
		return m.result(started), nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- m.sched.Run(runCtx) }()

	select {
	case <-m.done:
		cancel()
		<-errc
		return m.result(started), nil
	case <-ctx.Done():
		<-errc
		return m.result(started), ctx.Err()
	}
}

// Step runs at most steps scheduler rounds on a ManualClock match. It
// returns ErrStepsExceeded if the match is still going afterwards.
func (m *Match) Step(ctx context.Context, steps int) error {
	manual, ok := m.clock.(*scheduler.ManualClock)
	if !ok {
		return errors.New("selfplay: Step needs a manual clock")
	}
	return m.runManual(ctx, manual, steps)
}

func (m *Match) runManual(ctx context.Context, clock *scheduler.ManualClock, steps int) error {
	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.sched.RunDue()
		if m.engine.IsGameOver() {
			return nil
		}
		at, ok := m.sched.NextDue()
		if !ok {
			m.logger.Error().Int("turn", m.engine.Snapshot().TurnCount).Msg("Match stalled")
			return ErrStalled
		}
		if wait := at.Sub(clock.Now()); wait > 0 {
			clock.Advance(wait)
		}
	}
	return ErrStepsExceeded
}

func (m *Match) result(started time.Time) Result {
	final := m.engine.Snapshot()
	winner, decided := m.engine.Winner()
	res := Result{
		MatchID:  m.engine.MatchID(),
		Winner:   winner,
		Decided:  decided,
		Turns:    final.TurnCount,
		Stats:    m.engine.Stats(),
		Duration: time.Since(started),
	}
	m.logger.Info().
		Str("winner", winner.String()).
		Bool("decided", decided).
		Int("turns", res.Turns).
		Dur("duration", res.Duration).
		Msg("Self-play match finished")
	return res
}

// SetSettings retunes both agents; used by config hot reload.
func (m *Match) SetSettings(s agent.Settings) error {
	for _, a := range m.agents {
		if err := a.SetSettings(s); err != nil {
			return err
		}
	}
	return nil
}
