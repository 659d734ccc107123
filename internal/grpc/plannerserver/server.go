package plannerserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// Server configuration defaults
const (
	defaultCleanupInterval = time.Minute
	defaultIdleTimeout     = 30 * time.Minute
)

// Options configure a Server. Zero values take the defaults.
type Options struct {
	MaxSessions     int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	// Defaults seed the settings of every new session.
	Defaults  agent.Settings
	Book      *ai.OpeningBook
	Publisher events.Publisher
}

// Server implements PlannerServiceServer.
type Server struct {
	sessions    *SessionManager
	idempotency *IdempotencyManager
	defaults    agent.Settings
	idleTimeout time.Duration
	publisher   events.Publisher
	logger      zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

var _ PlannerServiceServer = (*Server)(nil)

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// NewServer creates a planner server and starts its idle-session cleanup.
// Call Stop to end the cleanup loop.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	if opts.Defaults == (agent.Settings{}) {
		opts.Defaults = agent.DefaultSettings()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	logger = logger.With().Str("component", "PlannerServer").Logger()

	s := &Server{
		sessions:    NewSessionManager(opts.MaxSessions, opts.Book, logger),
		idempotency: NewIdempotencyManager(),
		defaults:    opts.Defaults,
		idleTimeout: opts.IdleTimeout,
		publisher:   opts.Publisher,
		logger:      logger,
		stop:        make(chan struct{}),
	}
	go s.runCleanup(opts.CleanupInterval)
	return s
}

// Sessions exposes the session manager, for monitoring.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Stop ends the cleanup loop. Open sessions stay usable.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Server) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, id := range s.sessions.CleanupIdle(s.idleTimeout) {
				s.idempotency.Forget(id)
			}
		case <-s.stop:
			return
		}
	}
}

// CreateSession opens a planner for one side
func (s *Server) CreateSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CreateSessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	side, err := core.ParsePlayerID(req.Side)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid side: %v", err)
	}
	settings := s.defaults
	if req.Difficulty != "" {
		if settings.Difficulty, err = ai.ParseDifficulty(req.Difficulty); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid difficulty: %v", err)
		}
	}
	if req.Profile != "" {
		if settings.Profile, err = ai.ParseProfile(req.Profile); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid profile: %v", err)
		}
	}

	sess, err := s.sessions.Create(side, settings, req.Seed)
	switch {
	case errors.Is(err, ErrAtCapacity):
		return nil, status.Errorf(codes.ResourceExhausted, "failed to create session: %v", err)
	case err != nil:
		return nil, status.Errorf(codes.InvalidArgument, "failed to create session: %v", err)
	}

	s.logger.Info().
		Str("session_id", sess.id).
		Str("side", side.String()).
		Str("difficulty", settings.Difficulty.String()).
		Str("profile", settings.Profile.String()).
		Msg("Created planner session")

	return s.encode(CreateSessionResponse{
		SessionID:  sess.id,
		Side:       side.String(),
		Difficulty: settings.Difficulty.String(),
		Profile:    settings.Profile.String(),
	})
}

// Decide folds the snapshot into the session memory and returns the
// planner's next command for it.
func (s *Server) Decide(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req DecideRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %q not found", req.SessionID)
	}
	if cached := s.idempotency.Check(req.SessionID, req.RequestID); cached != nil {
		s.logger.Debug().Str("session_id", req.SessionID).Str("request_id", req.RequestID).Msg("Returning cached decision")
		return cached, nil
	}

	state := req.State
	if state == nil {
		return nil, status.Error(codes.InvalidArgument, "missing state")
	}
	if err := checkState(state); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid state: %v", err)
	}
	if state.GameOver {
		return nil, status.Errorf(codes.FailedPrecondition, "game is over on turn %d", state.TurnCount)
	}
	if state.Phase != core.PhaseAction || state.CurrentPlayer != sess.side {
		return nil, status.Errorf(codes.FailedPrecondition, "not %s's action phase: %s to play in %s",
			sess.side, state.CurrentPlayer, state.Phase)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A concurrent retry may have finished while this one waited.
	if cached := s.idempotency.Check(req.SessionID, req.RequestID); cached != nil {
		return cached, nil
	}

	resp, err := s.decide(ctx, sess, req.RequestID, state)
	if err != nil {
		return nil, err
	}
	out, err := s.encode(resp)
	if err != nil {
		return nil, err
	}
	s.idempotency.Store(req.SessionID, req.RequestID, out)
	return out, nil
}

// decide runs with sess.mu held.
func (s *Server) decide(ctx context.Context, sess *session, requestID string, state *core.GameState) (DecideResponse, error) {
	meta := events.EventMetadata{Side: sess.side, Turn: state.TurnCount, CycleID: requestID}
	resp := DecideResponse{SessionID: sess.id, Turn: state.TurnCount}

	lastTurn := sess.memory.LastTurn
	if sess.memory.Observe(state, sess.side) {
		resp.RolledBack = true
		s.publisher.Publish(events.NewMemoryResetEvent(sess.id, meta, lastTurn))
	}
	d, prof := sess.settings.Difficulty, sess.settings.Profile
	sess.memory.RefreshOpening(state.TurnCount, func() ai.OpeningPlan {
		return sess.planner.Book().Choose(ai.NewOpeningEnv(state, d, prof, sess.memory.Opponent, sess.side))
	})
	sess.lastUsed = time.Now()
	sess.decisions++

	dctx, cancel := context.WithTimeout(ctx, sess.settings.DecisionBudget)
	defer cancel()
	start := time.Now()
	plan, err := sess.planner.Plan(dctx, state, ai.PlanInput{
		Difficulty:    d,
		Profile:       prof,
		Side:          sess.side,
		Opponent:      sess.memory.Opponent,
		OpeningPlan:   sess.memory.OpeningPlan,
		LastFeintTurn: sess.memory.LastFeintTurn,
		Recent:        sess.memory.Recent,

		SelectionBudget: sess.settings.SelectionBudget,
	})
	elapsed := time.Since(start)
	if errors.Is(err, ai.ErrNoCandidates) {
		resp.EndTurn = true
		resp.Command = core.Command{Player: sess.side, Type: core.ActionEndTurn, Target: core.NoTarget()}
		resp.Summary = "no unit can act"
		s.publisher.Publish(events.NewTurnCompletedEvent(sess.id, meta))
		return resp, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.id).Msg("Planning failed")
		return resp, status.Errorf(codes.Internal, "planning failed: %v", err)
	}
	if elapsed > sess.settings.DecisionBudget {
		s.logger.Warn().
			Str("session_id", sess.id).
			Dur("elapsed", elapsed).
			Dur("budget", sess.settings.DecisionBudget).
			Msg("Decision exceeded its budget")
		s.publisher.Publish(events.NewBudgetExceededEvent(sess.id, meta, plan.Unit.UnitID, elapsed, sess.settings.DecisionBudget))
	}

	sess.memory.LastFeintTurn = plan.LastFeintTurn
	chosen := plan.Ranked[0]
	sess.memory.Recent = ai.RecordAction(sess.memory.Recent, chosen.Type)
	report := plan.Report(chosen, prof)

	resp.Command = chosen.Command(sess.side)
	resp.EndTurn = chosen.Type == core.ActionEndTurn
	resp.Summary = chosen.String()
	resp.Report = &report
	for i := 1; i < len(plan.Ranked) && i < sess.settings.MaxRetries; i++ {
		resp.Alternatives = append(resp.Alternatives, plan.Ranked[i].Command(sess.side))
	}

	if plan.Feinted {
		s.publisher.Publish(events.NewFeintEvent(sess.id, meta, chosen.UnitID, chosen.Type, chosen.SourceRank))
	}
	s.publisher.Publish(events.NewDecisionMadeEvent(sess.id, meta, 1, false, report))
	if sess.settings.Debug {
		s.logger.Info().Str("session_id", sess.id).Object("report", report).Msg("Decision")
	}
	return resp, nil
}

// ResetSession clears the session memory, as for a new match
func (s *Server) ResetSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.lookup(in)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	sess.memory.Reset()
	sess.lastUsed = time.Now()
	sess.mu.Unlock()
	s.idempotency.Forget(sess.id)

	s.logger.Info().Str("session_id", sess.id).Msg("Reset planner session")
	return s.encode(sess.info())
}

// CloseSession drops the session and its cached responses
func (s *Server) CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.lookup(in)
	if err != nil {
		return nil, err
	}
	s.sessions.Remove(sess.id)
	s.idempotency.Forget(sess.id)

	info := sess.info()
	s.logger.Info().Str("session_id", sess.id).Int("decisions", info.Decisions).Msg("Closed planner session")
	return s.encode(info)
}

func (s *Server) lookup(in *structpb.Struct) (*session, error) {
	var req SessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %q not found", req.SessionID)
	}
	return sess, nil
}

func (s *Server) encode(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
