package main

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	bus := events.NewEventBus(testutil.NopLogger())
	feed := subscribers.NewDecisionFeed("watcher", 16)
	bus.Subscribe(feed)

	cfg := selfplay.DefaultConfig(11)
	cfg.EventBus = bus
	match, err := selfplay.NewMatch(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)
	return newModel(context.Background(), match, feed, time.Millisecond)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_StepsOnTick(t *testing.T) {
	m := newTestModel(t)
	require.NotNil(t, m.Init())

	m, cmd := update(t, m, tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, m.inFlight)

	// A tick while a step is running is ignored.
	_, again := update(t, m, tickMsg(time.Now()))
	assert.Nil(t, again)

	msg := cmd()
	step, ok := msg.(stepMsg)
	require.True(t, ok)
	assert.ErrorIs(t, step.err, selfplay.ErrStepsExceeded)

	m, cmd = update(t, m, step)
	assert.False(t, m.inFlight)
	assert.Equal(t, 1, m.steps)
	assert.NotNil(t, cmd, "the next tick is scheduled")
}

func TestModel_PauseAndStep(t *testing.T) {
	m := newTestModel(t)
	m.Init()

	m, _ = update(t, m, key(" "))
	assert.True(t, m.paused)

	_, cmd := update(t, m, tickMsg(time.Now()))
	assert.Nil(t, cmd, "paused models ignore ticks")

	m, cmd = update(t, m, key("n"))
	require.NotNil(t, cmd)
	assert.True(t, m.inFlight)

	m, cmd = update(t, m, cmd())
	assert.Nil(t, cmd, "no tick is scheduled while paused")
	assert.Equal(t, 1, m.steps)

	m, cmd = update(t, m, key(" "))
	assert.False(t, m.paused)
	assert.NotNil(t, cmd)
}

func TestModel_Finish(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, stepMsg{})
	assert.Nil(t, cmd)
	assert.True(t, m.finished)
	assert.Contains(t, m.View(), "Finished:")

	m = newTestModel(t)
	m, _ = update(t, m, stepMsg{err: errors.New("boom")})
	assert.True(t, m.finished)
	assert.Equal(t, "boom", m.status)
}

func TestModel_KeysAndView(t *testing.T) {
	m := newTestModel(t)
	m.Init()

	m, _ = update(t, m, key("v"))
	assert.Equal(t, core.P1, m.viewer)
	m, _ = update(t, m, key("v"))
	assert.Equal(t, core.P2, m.viewer)

	view := m.View()
	assert.Contains(t, view, "Recent decisions:")
	assert.Contains(t, view, "space pause")

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
