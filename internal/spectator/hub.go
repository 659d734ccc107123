// Package spectator streams match and decision events to websocket clients.
package spectator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	clientQueueLen = 256
)

// Envelope is the JSON frame sent for every event.
type Envelope struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Time    time.Time       `json:"timestamp"`
	Summary string          `json:"summary"`
	Event   json.RawMessage `json:"event,omitempty"`
}

// Hub fans events out to every connected spectator. Clients that cannot
// keep up are disconnected rather than slowing the publisher down.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	// Snapshot, when set, is sent to each client right after it connects.
	Snapshot func() (Envelope, bool)

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	sent    atomic.Int64
	dropped atomic.Int64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates an empty hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("component", "spectator").Logger(),
		clients: make(map[*client]struct{}),
	}
}

// ID implements events.Subscriber
func (h *Hub) ID() string { return "spectator-hub" }

// InterestedIn implements events.Subscriber
func (h *Hub) InterestedIn(eventType string) bool { return true }

// HandleEvent implements events.Subscriber
func (h *Hub) HandleEvent(ev events.Event) {
	h.Broadcast(NewEnvelope(ev))
}

// NewEnvelope wraps ev for the wire. Events that do not encode, for
// example because a score is infinite, are sent with the summary only.
func NewEnvelope(ev events.Event) Envelope {
	env := Envelope{
		Type:    ev.Type(),
		MatchID: ev.GameID(),
		Time:    ev.Timestamp(),
		Summary: Describe(ev),
	}
	if raw, err := json.Marshal(ev); err == nil {
		env.Event = raw
	}
	return env
}

// Broadcast queues env on every client
func (h *Hub) Broadcast(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Warn().Err(err).Str("type", env.Type).Msg("Failed to encode spectator frame")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
			h.sent.Add(1)
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Msg("Spectator too slow, disconnecting")
		h.remove(c)
		h.dropped.Add(1)
	}
}

// ServeHTTP upgrades the request to a websocket and streams events to it
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "spectator hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueLen)}
	if h.Snapshot != nil {
		if env, ok := h.Snapshot(); ok {
			if payload, err := json.Marshal(env); err == nil {
				c.send <- payload
			}
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("Spectator connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; spectators never send commands.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug().Err(err).Msg("Spectator read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Clients returns the number of connected spectators
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns frames sent and clients dropped for being slow
func (h *Hub) Stats() (sent, dropped int64) {
	return h.sent.Load(), h.dropped.Load()
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

// Describe renders a one-line human summary of ev
func Describe(ev events.Event) string {
	switch e := ev.(type) {
	case *events.MatchStartedEvent:
		return fmt.Sprintf("match started seed=%d obstacles=%d", e.Seed, e.Obstacles)
	case *events.RoundAdvancedEvent:
		return fmt.Sprintf("turn %d: %s to move with %d energy", e.Turn, e.Player, e.Energy)
	case *events.CycleStartedEvent:
		return fmt.Sprintf("%s starts deciding", e.Metadata.Side)
	case *events.DecisionMadeEvent:
		return fmt.Sprintf("%s %s %s %s score=%.2f", e.Metadata.Side, e.Report.UnitID, e.Report.Action, e.Report.Target, e.Report.Score)
	case *events.ActionRejectedEvent:
		return fmt.Sprintf("%s %s rejected: %s", e.UnitID, e.Action, e.Reason)
	case *events.FeintEvent:
		return fmt.Sprintf("%s feints with %s (rank %d)", e.UnitID, e.Action, e.SourceRank)
	case *events.FollowUpEvent:
		return fmt.Sprintf("%s follow-up %s accepted=%t", e.UnitID, e.Action, e.Accepted)
	case *events.UnitCompletedEvent:
		return fmt.Sprintf("%s done after %d actions (%s)", e.UnitID, e.Actions, e.Reason)
	case *events.TurnCompletedEvent:
		return fmt.Sprintf("%s ends turn %d", e.Metadata.Side, e.Metadata.Turn)
	case *events.BudgetExceededEvent:
		return fmt.Sprintf("%s over budget: %s of %s", e.UnitID, e.Elapsed, e.Budget)
	case *events.MemoryResetEvent:
		return fmt.Sprintf("%s memory reset after turn %d", e.Metadata.Side, e.LastTurn)
	case *events.StateTransitionEvent:
		return fmt.Sprintf("%s -> %s (%s)", e.FromPhase, e.ToPhase, e.Reason)
	case *events.MatchEndedEvent:
		if !e.Decided {
			return fmt.Sprintf("draw after turn %d", e.FinalTurn)
		}
		return fmt.Sprintf("%s wins on turn %d", e.Winner, e.FinalTurn)
	}
	return ev.Type()
}
