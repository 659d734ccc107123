package plannerserver

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

var (
	ErrAtCapacity      = errors.New("server at session capacity")
	ErrSessionNotFound = errors.New("session not found")
)

// session is one remote side: its own planner and its own memory. mu
// serialises decisions so the memory sees snapshots in request order.
type session struct {
	id       string
	side     core.PlayerID
	settings agent.Settings
	planner  *ai.Planner

	mu        sync.Mutex
	memory    agent.Memory
	decisions int
	createdAt time.Time
	lastUsed  time.Time
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{SessionID: s.id, Decisions: s.decisions, LastTurn: s.memory.LastTurn}
}

// SessionManager owns every open session.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	maxSessions int
	book        *ai.OpeningBook
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSessionManager creates an empty manager. maxSessions <= 0 means no limit.
func NewSessionManager(maxSessions int, book *ai.OpeningBook, logger zerolog.Logger) *SessionManager {
	if book == nil {
		book = ai.DefaultOpeningBook()
	}
	return &SessionManager{
		sessions:    make(map[string]*session),
		maxSessions: maxSessions,
		book:        book,
		now:         time.Now,
		logger:      logger,
	}
}

// Create opens a session for side. A zero seed draws one from the clock.
func (m *SessionManager) Create(side core.PlayerID, settings agent.Settings, seed int64) (*session, error) {
	if !side.Valid() {
		return nil, core.ErrInvalidPlayer
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = m.now().UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.logger.Warn().
			Int("current_sessions", len(m.sessions)).
			Int("max_sessions", m.maxSessions).
			Msg("Rejecting session creation - server at capacity")
		return nil, fmt.Errorf("%w: %d/%d sessions active", ErrAtCapacity, len(m.sessions), m.maxSessions)
	}

	id := "sess-" + uuid.NewString()
	now := m.now()
	s := &session{
		id:        id,
		side:      side,
		settings:  settings,
		planner:   ai.NewPlanner(nil, m.book, rand.New(rand.NewSource(seed)), m.logger.With().Str("session_id", id).Logger()),
		memory:    agent.NewMemory(),
		createdAt: now,
		lastUsed:  now,
	}
	m.sessions[id] = s
	return s, nil
}

func (m *SessionManager) Get(id string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *SessionManager) Remove(id string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	return s, ok
}

// Len reports the open sessions. It lets the runtime monitor watch the
// manager like a queue.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle closes sessions unused for longer than idle and returns
// their ids.
func (m *SessionManager) CleanupIdle(idle time.Duration) []string {
	cutoff := m.now().Add(-idle)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Remove(id)
	}
	if len(stale) > 0 {
		m.logger.Info().Int("removed", len(stale)).Dur("idle_timeout", idle).Msg("Cleaned up idle sessions")
	}
	return stale
}
