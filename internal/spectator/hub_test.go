package spectator

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastsEvents(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a, b := dial(t, srv), dial(t, srv)
	waitForClients(t, h, 2)

	bus := events.NewEventBus(zerolog.Nop())
	bus.Subscribe(h)
	bus.Publish(events.NewRoundAdvancedEvent("match-1", 4, core.P2, 70))

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		assert.Equal(t, events.TypeRoundAdvanced, env.Type)
		assert.Equal(t, "match-1", env.MatchID)
		assert.Equal(t, "turn 4: P2 to move with 70 energy", env.Summary)

		var body struct{ Turn, Energy int }
		require.NoError(t, json.Unmarshal(env.Event, &body))
		assert.Equal(t, 4, body.Turn)
		assert.Equal(t, 70, body.Energy)
	}

	sent, dropped := h.Stats()
	assert.Equal(t, int64(2), sent)
	assert.Zero(t, dropped)
}

func TestHub_SnapshotOnConnect(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.Snapshot = func() (Envelope, bool) {
		return Envelope{Type: "board", Summary: "turn 1"}, true
	}
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	env := readEnvelope(t, conn)
	assert.Equal(t, "board", env.Type)
	assert.Equal(t, "turn 1", env.Summary)
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)
	require.NoError(t, conn.Close())
	waitForClients(t, h, 0)
}

func TestHub_CloseRefusesNewClients(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)
	h.Close()
	assert.Equal(t, 0, h.Clients())

	// The existing connection receives a close frame.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, 503, resp.StatusCode)
	}
}

func TestDescribe(t *testing.T) {
	meta := events.EventMetadata{Side: core.P1, Turn: 3}
	tests := []struct {
		name string
		ev   events.Event
		want string
	}{
		{name: "match started", ev: events.NewMatchStartedEvent("m", 12, 42), want: "match started seed=42 obstacles=12"},
		{name: "rejected", ev: events.NewActionRejectedEvent("m", meta, "p1-maker", core.ActionPlaceMine, 1, "occupied"), want: "p1-maker place_mine rejected: occupied"},
		{name: "turn completed", ev: events.NewTurnCompletedEvent("m", meta), want: "P1 ends turn 3"},
		{name: "win", ev: events.NewMatchEndedEvent("m", core.P2, true, 17, time.Minute), want: "P2 wins on turn 17"},
		{name: "draw", ev: events.NewMatchEndedEvent("m", core.NoPlayer, false, 40, time.Minute), want: "draw after turn 40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.ev))
		})
	}
}
