package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/mapgen"
	"github.com/mitchelldurbincs/tacticsai/internal/game/processor"
	"github.com/mitchelldurbincs/tacticsai/internal/game/rules"
)

// GameConfig holds everything needed to set up a match.
type GameConfig struct {
	MatchID string
	// Seed feeds map generation when Rng is nil. Zero picks a time seed.
	Seed            int64
	Rng             *rand.Rand
	ObstacleDensity float64
	// TurnLimit ends the match in a draw after this many rounds; zero means
	// no limit.
	TurnLimit int
	Rules     rules.Queries
	EventBus  events.Publisher
	Collector ExperienceCollector
	Logger    zerolog.Logger
}

// DeploymentOrder lists the unit types and the rows they start on.
var DeploymentOrder = []struct {
	Type core.UnitType
	Row  int
}{
	{core.General, 3},
	{core.Sweeper, 1},
	{core.Ranger, 2},
	{core.Maker, 4},
	{core.Defuser, 5},
}

// EngineInitializer handles the complex initialization of a game engine
type EngineInitializer struct {
	config GameConfig
	logger zerolog.Logger
}

// NewEngineInitializer creates a new engine initializer
func NewEngineInitializer(cfg GameConfig) *EngineInitializer {
	logger := cfg.Logger.With().Str("component", "GameEngine").Logger()
	return &EngineInitializer{
		config: cfg,
		logger: logger,
	}
}

// NewEngine is shorthand for NewEngineInitializer(cfg).Initialize(ctx).
func NewEngine(ctx context.Context, cfg GameConfig) (*Engine, error) {
	return NewEngineInitializer(cfg).Initialize(ctx)
}

// Initialize creates and initializes a new game engine
func (ei *EngineInitializer) Initialize(ctx context.Context) (*Engine, error) {
	select {
	case <-ctx.Done():
		ei.logger.Error().Err(ctx.Err()).Msg("Engine creation cancelled or timed out during initial phase")
		return nil, ctx.Err()
	default:
	}

	ei.setupDefaults()

	grid, err := ei.generateMap()
	if err != nil {
		return nil, fmt.Errorf("map generation failed: %w", err)
	}

	state := ei.initializeGameState(grid)
	engine := ei.createEngine(state)

	engine.eventBus.Publish(events.NewMatchStartedEvent(
		engine.matchID,
		mapgen.CountObstacles(&state.Grid),
		ei.config.Seed,
	))

	ei.logger.Info().
		Str("match_id", engine.matchID).
		Int64("seed", ei.config.Seed).
		Int("obstacles", mapgen.CountObstacles(&state.Grid)).
		Int("turn_limit", ei.config.TurnLimit).
		Msg("Engine created successfully")

	return engine, nil
}

// setupDefaults sets up default values for missing configuration
func (ei *EngineInitializer) setupDefaults() {
	if ei.config.Rng == nil {
		if ei.config.Seed == 0 {
			ei.config.Seed = time.Now().UnixNano()
		}
		ei.logger.Debug().Int64("seed", ei.config.Seed).Msg("No RNG provided, creating seeded RNG")
		ei.config.Rng = rand.New(rand.NewSource(ei.config.Seed))
	}
	if ei.config.MatchID == "" {
		ei.config.MatchID = uuid.NewString()
	}
	if ei.config.Rules == nil {
		ei.config.Rules = rules.NewStandard()
	}
	if ei.config.EventBus == nil {
		ei.config.EventBus = events.NewEventBus(ei.config.Logger)
	}
	if ei.config.Collector != nil {
		ei.logger.Info().Msg("Experience collection enabled")
	}
}

// generateMap generates the obstacle layout
func (ei *EngineInitializer) generateMap() (core.Grid, error) {
	generator := mapgen.NewGenerator(mapgen.ConfigForDensity(ei.config.ObstacleDensity), ei.config.Rng)
	return generator.GenerateGrid()
}

// initializeGameState deploys both sides and opens round one with P1 to
// move.
func (ei *EngineInitializer) initializeGameState(grid core.Grid) *core.GameState {
	state := &core.GameState{
		Grid:          grid,
		TurnCount:     1,
		Phase:         core.PhaseAction,
		CurrentPlayer: core.P1,
		Winner:        core.NoPlayer,
	}
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		col := 2
		if p == core.P2 {
			col = core.Cols - 3
		}
		owner := core.Player{ID: p, Energy: core.InitialEnergy, FlagPosition: core.FlagStart(p)}
		for _, d := range DeploymentOrder {
			stats := core.StatsByType[d.Type]
			owner.Units = append(owner.Units, core.Unit{
				ID:                  fmt.Sprintf("%s-%s", strings.ToLower(p.String()), d.Type),
				Type:                d.Type,
				Owner:               p,
				Pos:                 core.Coordinate{R: d.Row, C: col},
				HP:                  stats.MaxHP,
				MaxHP:               stats.MaxHP,
				StartOfActionEnergy: core.InitialEnergy,
			})
		}
		state.Players[p] = owner
	}
	return state
}

// createEngine creates the engine with all its components
func (ei *EngineInitializer) createEngine(state *core.GameState) *Engine {
	engine := &Engine{
		state:           state,
		rng:             ei.config.Rng,
		matchID:         ei.config.MatchID,
		logger:          ei.logger.With().Str("match_id", ei.config.MatchID).Logger(),
		rules:           ei.config.Rules,
		actionProcessor: processor.NewActionProcessor(ei.config.Rules, ei.logger),
		winCondition:    rules.NewWinConditionChecker(ei.logger),
		eventBus:        ei.config.EventBus,
		collector:       ei.config.Collector,
		turnLimit:       ei.config.TurnLimit,
		startedAt:       time.Now(),
	}
	engine.turnProcessor = NewTurnProcessor(engine)
	return engine
}
