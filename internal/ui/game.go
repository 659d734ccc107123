package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/config"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/input"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/layout"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/renderer"
)

const (
	lineHeight      = 15
	statusFrames    = 180
	defaultInterval = 15
	feedLines       = 2
)

var (
	backgroundColor = color.RGBA{R: 50, G: 50, B: 50, A: 255} // Dark gray background
	textColor       = color.White
	dimTextColor    = color.RGBA{R: 170, G: 170, B: 170, A: 255}
)

// Options configure a Viewer.
type Options struct {
	UI config.UIConfig
	// StepInterval is the number of frames between scheduler steps.
	StepInterval int
	// Difficulty drives the threat overlay, as the planner would see it.
	Difficulty ai.Difficulty
	// Copy writes to the system clipboard unless replaced.
	Copy func(string) error
}

// Viewer plays a self-play match one scheduler step at a time inside the
// ebiten loop. The match must run on a manual clock.
type Viewer struct {
	ctx    context.Context
	match  *selfplay.Match
	feed   *subscribers.DecisionFeed
	board  *renderer.EnhancedBoardRenderer
	input  *input.Handler
	face   font.Face
	opts   Options
	logger zerolog.Logger

	interval   int
	frame      int
	paused     bool
	showThreat bool
	viewer     core.PlayerID
	finished   bool

	status    string
	statusTTL int

	threatKey threatKey
	threat    ai.ThreatMap
}

type threatKey struct {
	seen  int
	turn  int
	side  core.PlayerID
	valid bool
}

// NewViewer starts the match and returns the ebiten game that shows it.
// feed must already be subscribed to the match's event bus.
func NewViewer(ctx context.Context, match *selfplay.Match, feed *subscribers.DecisionFeed, opts Options, logger zerolog.Logger) *Viewer {
	if opts.StepInterval <= 0 {
		opts.StepInterval = defaultInterval
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	grid := layout.Grid{CellSize: opts.UI.CellSize}
	face := basicfont.Face7x13

	v := &Viewer{
		ctx:        ctx,
		match:      match,
		feed:       feed,
		board:      renderer.NewEnhancedBoardRenderer(grid, face),
		input:      input.NewHandler(grid),
		face:       face,
		opts:       opts,
		logger:     logger.With().Str("component", "Viewer").Logger(),
		interval:   opts.StepInterval,
		showThreat: opts.UI.ShowThreatOverlay,
		viewer:     core.NoPlayer,
	}
	match.Engine().Start()
	return v
}

// Update proceeds the match.
func (v *Viewer) Update() error {
	v.input.Update()
	for _, a := range v.input.Actions() {
		v.handleAction(a)
	}
	if v.statusTTL > 0 {
		v.statusTTL--
	}

	if v.finished || v.paused {
		return nil
	}
	v.frame++
	if v.frame < v.interval {
		return nil
	}
	v.frame = 0
	v.step()
	return nil
}

func (v *Viewer) handleAction(a input.Action) {
	switch a {
	case input.ActionTogglePause:
		v.paused = !v.paused
		if v.paused {
			v.setStatus("paused")
		} else {
			v.setStatus("running")
		}
	case input.ActionStep:
		if v.paused && !v.finished {
			v.step()
		}
	case input.ActionToggleThreat:
		v.showThreat = !v.showThreat
	case input.ActionCycleViewer:
		v.viewer = layout.NextViewer(v.viewer)
		v.setStatus(fmt.Sprintf("viewing as %s", viewerName(v.viewer)))
	case input.ActionFaster:
		v.interval = layout.AdjustInterval(v.interval, true)
		v.setStatus(fmt.Sprintf("step every %d frames", v.interval))
	case input.ActionSlower:
		v.interval = layout.AdjustInterval(v.interval, false)
		v.setStatus(fmt.Sprintf("step every %d frames", v.interval))
	case input.ActionCopyReport:
		v.copyReport()
	}
}

func (v *Viewer) step() {
	err := v.match.Step(v.ctx, 1)
	switch {
	case err == nil:
		v.finished = true
		winner, decided := v.match.Engine().Winner()
		if decided {
			v.setStatus(fmt.Sprintf("%s wins", winner))
		} else {
			v.setStatus("draw")
		}
	case errors.Is(err, selfplay.ErrStepsExceeded):
	default:
		v.finished = true
		v.logger.Error().Err(err).Msg("Match stopped")
		v.setStatus(err.Error())
	}
}

func (v *Viewer) copyReport() {
	report, ok := v.feed.LastReport()
	if !ok {
		v.setStatus("no decision yet")
		return
	}
	if err := v.opts.Copy(report.String()); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to copy decision report")
		v.setStatus("copy failed")
		return
	}
	v.setStatus(fmt.Sprintf("copied report for %s", report.UnitID))
}

func (v *Viewer) setStatus(msg string) {
	v.status = msg
	v.statusTTL = statusFrames
}

// threatFor recomputes the overlay only when the board may have changed.
func (v *Viewer) threatFor(state *core.GameState) *ai.ThreatMap {
	side := v.viewer
	if !side.Valid() {
		side = state.CurrentPlayer
	}
	if !side.Valid() {
		return nil
	}
	key := threatKey{seen: v.feed.Seen(), turn: state.TurnCount, side: side, valid: true}
	if key != v.threatKey {
		v.threat = ai.BuildThreatMap(state, side, v.opts.Difficulty)
		v.threatKey = key
	}
	return &v.threat
}

// Draw renders the game screen.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	state := v.match.Engine().Snapshot()
	report, hasReport := v.feed.LastReport()

	var threat *ai.ThreatMap
	if v.showThreat {
		threat = v.threatFor(state)
	}
	v.board.SetThreat(threat)
	if hasReport {
		v.board.SetDecision(state, &report)
	} else {
		v.board.SetDecision(state, nil)
	}
	hover, hasHover := v.input.Hovered()
	v.board.SetHover(hover, hasHover)
	selected, hasSelection := v.input.Selected()
	v.board.SetSelection(selected, hasSelection)
	v.board.Draw(screen, state, v.viewer)

	grid := v.board.Grid()
	y := grid.Height() + lineHeight
	text.Draw(screen, layout.StatusLine(state), v.face, 5, y, textColor)

	inspect := ""
	switch {
	case hasSelection:
		inspect = layout.UnitLine(state, selected, threat)
	case hasHover:
		inspect = layout.UnitLine(state, hover, threat)
	}
	if inspect != "" {
		y += lineHeight
		text.Draw(screen, inspect, v.face, 5, y, textColor)
	}

	var lines []string
	for _, e := range v.feed.Entries() {
		lines = append(lines, e.Line)
	}
	for _, line := range layout.LastLines(lines, feedLines) {
		y += lineHeight
		text.Draw(screen, line, v.face, 5, y, dimTextColor)
	}

	help := "space pause  n step  t threat  v view  c copy  +/- speed"
	if v.statusTTL > 0 {
		help = v.status
	}
	ebitenutil.DebugPrintAt(screen, help, 5, v.opts.UI.Window.Height-lineHeight-2)
}

// Layout defines the Ebitengine screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return v.opts.UI.Window.Width, v.opts.UI.Window.Height
}

func viewerName(p core.PlayerID) string {
	if p == core.NoPlayer {
		return "spectator"
	}
	return p.String()
}
