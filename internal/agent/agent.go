// Package agent drives the decision pipeline for one side of a match. The
// host hands it snapshots through Observe; the agent answers through the
// Applier interface, pacing itself on a cooperative scheduler so that no
// call ever blocks the host.
package agent

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/states"
	"github.com/mitchelldurbincs/tacticsai/internal/scheduler"
)

// Applier is the host side of the agent: it owns the authoritative game.
type Applier interface {
	Snapshot() *core.GameState
	Apply(ctx context.Context, cmd core.Command) error
	CompleteUnitTurn(unitID string)
	CompleteTurn()
	SelectUnit(unitID string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// cycle is the state of one decision cycle. It is replaced, never reused.
type cycle struct {
	id       string
	token    *scheduler.Token
	turn     int
	started  time.Time
	// waited is the time spent parked on the scheduler. Pacing delays do
	// not count against the decision budget.
	waited   time.Duration
	settings Settings
	meta     events.EventMetadata
	plan     ai.Plan
	unitID   string
	actions  int
}

// Agent plays one side. All pipeline work runs on the scheduler; the
// exported methods are safe to call from any goroutine.
type Agent struct {
	matchID   string
	side      core.PlayerID
	planner   *ai.Planner
	host      Applier
	sched     *scheduler.Scheduler
	publisher events.Publisher
	logger    zerolog.Logger

	mu       sync.Mutex
	settings Settings
	memory   Memory
	machine  *states.StateMachine
	cctx     *states.CycleContext
	current  *cycle
	rng      *rand.Rand
}

// Config bundles the collaborators of an agent. Publisher and Rand are
// optional.
type Config struct {
	MatchID   string
	Side      core.PlayerID
	Planner   *ai.Planner
	Host      Applier
	Scheduler *scheduler.Scheduler
	Publisher events.Publisher
	Settings  Settings
	Rand      *rand.Rand
}

// New creates an idle agent.
func New(cfg Config, logger zerolog.Logger) (*Agent, error) {
	if cfg.Planner == nil || cfg.Host == nil || cfg.Scheduler == nil {
		return nil, errors.New("agent needs a planner, a host and a scheduler")
	}
	if !cfg.Side.Valid() {
		return nil, core.ErrInvalidPlayer
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Publisher == nil {
		cfg.Publisher = nopPublisher{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger = logger.With().Str("component", "Agent").Str("side", cfg.Side.String()).Logger()

	cctx := states.NewCycleContext(cfg.MatchID, cfg.Side, logger)
	machine := states.NewStateMachine(cctx, cfg.Publisher)
	machine.SetTimeSource(cfg.Scheduler.Clock().Now)

	return &Agent{
		matchID:   cfg.MatchID,
		side:      cfg.Side,
		planner:   cfg.Planner,
		host:      cfg.Host,
		sched:     cfg.Scheduler,
		publisher: cfg.Publisher,
		logger:    logger,
		settings:  cfg.Settings,
		memory:    NewMemory(),
		machine:   machine,
		cctx:      cctx,
		rng:       cfg.Rand,
	}, nil
}

func (a *Agent) Side() core.PlayerID { return a.side }

// Phase reports where the current cycle stands.
func (a *Agent) Phase() states.DecisionPhase { return a.machine.CurrentPhase() }

// Pending is true while a cycle is in flight.
func (a *Agent) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Memory returns a copy of the agent's memory.
func (a *Agent) Memory() Memory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.memory.Clone()
}

func (a *Agent) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// SetSettings applies new settings from the next cycle on.
func (a *Agent) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s
	a.logger.Info().
		Str("difficulty", s.Difficulty.String()).
		Str("profile", s.Profile.String()).
		Dur("budget", s.DecisionBudget).
		Float64("pacing", s.PacingScale).
		Msg("Agent settings updated")
	return nil
}

// Reset cancels any pending cycle and forgets the memory.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked("reset")
	a.memory.Reset()
}

// Observe hands the agent a new snapshot. A cycle starts when it is the
// agent's side in the action phase, the game is not over and no cycle is
// pending; a pending cycle is cancelled once that no longer holds.
func (a *Agent) Observe(state *core.GameState) {
	if state == nil {
		return
	}
	a.sched.After(0, func() { a.locked(func() { a.observe(state) }) })
}

// locked runs fn under the agent lock, the way every scheduled step runs.
func (a *Agent) locked(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("Decision step panicked")
			a.cancelLocked("panic")
		}
	}()
	fn()
}

// schedule runs fn after d as part of cycle c; it becomes a no-op once c is
// cancelled.
func (a *Agent) schedule(c *cycle, d time.Duration, fn func()) {
	parked := a.now()
	a.sched.AfterWithToken(d, c.token, func() {
		a.locked(func() {
			if a.current != c || c.token.Cancelled() {
				return
			}
			c.waited += a.now().Sub(parked)
			fn()
		})
	})
}

func (a *Agent) now() time.Time { return a.sched.Clock().Now() }

// elapsed is the budgeted time of c: everything since it started except
// scheduler waits.
func (a *Agent) elapsed(c *cycle) time.Duration {
	return a.now().Sub(c.started) - c.waited
}

func (a *Agent) observe(state *core.GameState) {
	if !ourTurn(state, a.side) {
		if a.current != nil {
			a.cancelLocked("turn left the agent")
		}
		return
	}
	if a.current != nil {
		return
	}
	a.startCycle(state)
}

func (a *Agent) transition(to states.DecisionPhase, reason string) {
	if err := a.machine.TransitionTo(to, reason); err != nil {
		a.logger.Warn().Err(err).Msg("Decision phase transition refused")
	}
}

func (a *Agent) startCycle(state *core.GameState) {
	c := &cycle{
		id:       uuid.NewString(),
		token:    &scheduler.Token{},
		turn:     state.TurnCount,
		started:  a.now(),
		settings: a.settings,
	}
	c.meta = events.EventMetadata{Side: a.side, Turn: c.turn, CycleID: c.id}
	a.current = c
	a.cctx.Begin(c.id, c.turn, c.started)
	a.transition(states.PhaseContextBuilding, "turn granted")
	a.publisher.Publish(events.NewCycleStartedEvent(a.matchID, c.meta))

	lastTurn := a.memory.LastTurn
	if a.memory.Observe(state, a.side) {
		a.logger.Info().Int("turn", state.TurnCount).Int("last_turn", lastTurn).Msg("Turn went backwards, memory reset")
		a.publisher.Publish(events.NewMemoryResetEvent(a.matchID, c.meta, lastTurn))
	}
	d, prof := c.settings.Difficulty, c.settings.Profile
	a.memory.RefreshOpening(state.TurnCount, func() ai.OpeningPlan {
		return a.planner.Book().Choose(ai.NewOpeningEnv(state, d, prof, a.memory.Opponent, a.side))
	})

	a.schedule(c, c.settings.pace(ai.ThinkDelay[d]), func() { a.plan(c) })
}

// plan ranks the options on the snapshot current after the think delay.
func (a *Agent) plan(c *cycle) {
	state := a.host.Snapshot()
	if !ourTurn(state, a.side) || state.TurnCount != c.turn {
		a.cancelLocked("turn moved on while thinking")
		return
	}

	a.transition(states.PhaseUnitSelection, "context ready")
	plan, err := a.planner.Plan(context.Background(), state, a.planInput(c))
	if err != nil {
		if errors.Is(err, ai.ErrNoCandidates) {
			a.logger.Debug().Int("turn", state.TurnCount).Msg("No unit left to act, ending turn")
			a.host.CompleteTurn()
			a.publisher.Publish(events.NewTurnCompletedEvent(a.matchID, c.meta))
		} else {
			a.logger.Error().Err(err).Msg("Planning failed")
			a.host.CompleteTurn()
		}
		a.finish(c, "no candidates")
		return
	}
	c.plan = plan
	c.unitID = plan.Unit.UnitID
	a.cctx.UnitID = c.unitID
	if plan.Feinted {
		a.memory.LastFeintTurn = plan.LastFeintTurn
		f := plan.Ranked[0]
		a.publisher.Publish(events.NewFeintEvent(a.matchID, c.meta, f.UnitID, f.Type, f.SourceRank))
	}
	a.host.SelectUnit(c.unitID)
	a.transition(states.PhaseActionExecution, "ranked")

	delay := c.settings.pace(ai.ExecutionDelay(plan.Ranked[0].Type, len(plan.Ranked)))
	a.schedule(c, delay, func() { a.tryAction(c, 0) })
}

func (a *Agent) planInput(c *cycle) ai.PlanInput {
	return ai.PlanInput{
		Difficulty:    c.settings.Difficulty,
		Profile:       c.settings.Profile,
		Side:          a.side,
		Opponent:      a.memory.Opponent,
		OpeningPlan:   a.memory.OpeningPlan,
		LastFeintTurn: a.memory.LastFeintTurn,
		Recent:        a.memory.Recent,

		SelectionBudget: c.settings.SelectionBudget,
	}
}

// overBudget publishes and reports a cycle that ran out of time.
func (a *Agent) overBudget(c *cycle) bool {
	elapsed := a.elapsed(c)
	if elapsed <= c.settings.DecisionBudget {
		return false
	}
	a.logger.Warn().
		Str("unit", c.unitID).
		Dur("elapsed", elapsed).
		Err(ai.ErrBudgetExceeded).
		Msg("Decision budget exceeded")
	a.publisher.Publish(events.NewBudgetExceededEvent(a.matchID, c.meta, c.unitID, elapsed, c.settings.DecisionBudget))
	return true
}

func (a *Agent) tryAction(c *cycle, i int) {
	if a.overBudget(c) {
		a.completeUnit(c, "budget exceeded")
		return
	}
	if i >= len(c.plan.Ranked) || i >= c.settings.MaxRetries {
		a.completeUnit(c, "candidates exhausted")
		return
	}
	chosen := c.plan.Ranked[i]
	report := c.plan.Report(chosen, c.settings.Profile)
	a.execute(c, chosen, report, i+1, false, func(reason string) {
		a.publisher.Publish(events.NewActionRejectedEvent(a.matchID, c.meta, chosen.UnitID, chosen.Type, i+1, reason))
		a.tryAction(c, i+1)
	})
}

// execute submits chosen and checks the outcome after the observe delay.
// end_turn hands the unit back without touching the game.
func (a *Agent) execute(c *cycle, chosen ai.Candidate, report ai.DecisionReport, attempt int, followUp bool, rejected func(reason string)) {
	a.publisher.Publish(events.NewDecisionMadeEvent(a.matchID, c.meta, attempt, followUp, report))
	if c.settings.Debug {
		a.logger.Debug().Msg(report.String())
	} else {
		a.logger.Debug().Int("attempt", attempt).Bool("follow_up", followUp).EmbedObject(report).Msg("Decision")
	}
	if chosen.Type == core.ActionEndTurn {
		a.completeUnit(c, "end_turn")
		return
	}

	before := a.host.Snapshot()
	remaining := c.settings.DecisionBudget - a.elapsed(c)
	ctx, cancel := context.WithTimeout(context.Background(), max(remaining, time.Millisecond))
	err := a.host.Apply(ctx, chosen.Command(a.side))
	cancel()
	if err != nil {
		a.logger.Debug().Err(core.WrapActionError(&core.Command{Player: a.side, UnitID: chosen.UnitID, Type: chosen.Type, Target: chosen.Target}, err)).Msg("Action refused")
		rejected(err.Error())
		return
	}

	a.schedule(c, c.settings.pace(ai.ObserveDelay), func() {
		after := a.host.Snapshot()
		if !actionApplied(before, after, chosen.UnitID, a.side) {
			rejected(ai.ErrApplicationRejected.Error())
			return
		}
		a.applied(c, chosen, after)
	})
}

func (a *Agent) applied(c *cycle, chosen ai.Candidate, state *core.GameState) {
	a.memory.Recent = ai.RecordAction(a.memory.Recent, chosen.Type)
	c.actions++
	a.cctx.Actions = c.actions

	u := state.Unit(c.unitID)
	if !canStillAct(state, u) || c.actions >= c.settings.MaxActionsPerUnit {
		a.completeUnit(c, "unit done")
		return
	}
	a.transition(states.PhaseFollowUpCheck, "action applied")
	jitter := time.Duration(a.rng.Float64() * float64(ai.FollowUpJitter))
	a.schedule(c, c.settings.pace(ai.FollowUpDelay+jitter), func() { a.followUp(c) })
}

func (a *Agent) followUp(c *cycle) {
	if a.overBudget(c) {
		a.completeUnit(c, "budget exceeded")
		return
	}
	state := a.host.Snapshot()
	if !ourTurn(state, a.side) || state.TurnCount != c.turn {
		a.cancelLocked("turn moved on before follow-up")
		return
	}
	u := state.Unit(c.unitID)
	if !canStillAct(state, u) {
		a.completeUnit(c, "unit can no longer act")
		return
	}

	chosen, pctx, ok := a.planner.FollowUp(state, u, a.planInput(c))
	a.publisher.Publish(events.NewFollowUpEvent(a.matchID, c.meta, c.unitID, chosen.Type, chosen.Score, ok))
	if !ok {
		a.completeUnit(c, "no worthwhile follow-up")
		return
	}
	a.transition(states.PhaseActionExecution, "follow-up")
	report := ai.NewDecisionReport(chosen, pctx, c.settings.Profile, nil, nil, nil)
	a.execute(c, chosen, report, c.actions+1, true, func(reason string) {
		a.publisher.Publish(events.NewActionRejectedEvent(a.matchID, c.meta, chosen.UnitID, chosen.Type, c.actions+1, reason))
		a.completeUnit(c, "follow-up rejected")
	})
}

func (a *Agent) completeUnit(c *cycle, reason string) {
	elapsed := a.elapsed(c)
	if c.unitID != "" {
		a.host.CompleteUnitTurn(c.unitID)
	}
	a.publisher.Publish(events.NewUnitCompletedEvent(a.matchID, c.meta, c.unitID, c.actions, reason, elapsed))
	a.finish(c, reason)
}

// finish closes c. The host may already have called Observe from inside
// CompleteUnitTurn; that step is queued behind this one and sees no cycle.
func (a *Agent) finish(c *cycle, reason string) {
	if a.current != c {
		return
	}
	c.token.Cancel()
	a.transition(states.PhaseTurnComplete, reason)
	a.transition(states.PhaseIdle, "cycle closed")
	a.current = nil
}

func (a *Agent) cancelLocked(reason string) {
	c := a.current
	if c == nil {
		return
	}
	c.token.Cancel()
	a.current = nil
	if err := a.machine.Reset(reason); err != nil {
		a.logger.Warn().Err(err).Msg("Could not reset decision phase")
	}
	a.logger.Debug().
		Str("cycle_id", c.id).
		Str("reason", reason).
		AnErr("cause", ai.ErrStaleContext).
		Msg("Decision cycle cancelled")
}
