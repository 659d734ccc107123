package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mitchelldurbincs/tacticsai/internal/game"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/layout"
)

const recentDecisions = 8

type tickMsg time.Time

// stepMsg reports one scheduler step of the match.
type stepMsg struct{ err error }

type model struct {
	ctx   context.Context
	match *selfplay.Match
	feed  *subscribers.DecisionFeed
	delay time.Duration

	paused   bool
	inFlight bool
	finished bool
	viewer   core.PlayerID
	steps    int
	status   string
	started  time.Time
}

func newModel(ctx context.Context, match *selfplay.Match, feed *subscribers.DecisionFeed, delay time.Duration) model {
	return model{
		ctx:     ctx,
		match:   match,
		feed:    feed,
		delay:   delay,
		viewer:  core.NoPlayer,
		started: time.Now(),
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) stepCmd() tea.Cmd {
	match, ctx := m.match, m.ctx
	return func() tea.Msg {
		return stepMsg{err: match.Step(ctx, 1)}
	}
}

func (m model) Init() tea.Cmd {
	m.match.Engine().Start()
	return tickCmd(m.delay)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if !m.paused && !m.inFlight && !m.finished {
				return m, tickCmd(m.delay)
			}
		case "n":
			if m.paused && !m.inFlight && !m.finished {
				m.inFlight = true
				return m, m.stepCmd()
			}
		case "v":
			m.viewer = layout.NextViewer(m.viewer)
		}
	case tickMsg:
		if m.paused || m.finished || m.inFlight {
			return m, nil
		}
		m.inFlight = true
		return m, m.stepCmd()
	case stepMsg:
		m.inFlight = false
		m.steps++
		switch {
		case msg.err == nil:
			m.finished = true
			winner, decided := m.match.Engine().Winner()
			if decided {
				m.status = fmt.Sprintf("%s wins", winner)
			} else {
				m.status = "draw"
			}
		case errors.Is(msg.err, selfplay.ErrStepsExceeded):
			if !m.paused {
				return m, tickCmd(m.delay)
			}
		default:
			m.finished = true
			m.status = msg.err.Error()
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	state := m.match.Engine().Snapshot()
	fmt.Fprintf(&b, "match %s  step %d  %s\n\n", m.match.Engine().MatchID(), m.steps, time.Since(m.started).Round(time.Second))
	b.WriteString(game.RenderBoard(state, m.viewer))

	b.WriteString("\nRecent decisions:\n")
	var lines []string
	for _, e := range m.feed.Entries() {
		lines = append(lines, e.Line)
	}
	for _, l := range layout.LastLines(lines, recentDecisions) {
		b.WriteString("  " + l + "\n")
	}

	switch {
	case m.finished:
		fmt.Fprintf(&b, "\nFinished: %s\n", m.status)
	case m.paused:
		b.WriteString("\nPaused\n")
	}
	b.WriteString("\nspace pause  n step  v mines view  q quit\n")
	return b.String()
}
