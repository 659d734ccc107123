package renderer

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/layout"
)

var (
	SelectionColor = color.RGBA{255, 255, 100, 255} // Yellow highlight
	CandidateColor = color.RGBA{100, 255, 100, 96}  // Semi-transparent green
	ChosenColor    = color.RGBA{100, 255, 100, 255}
	HoverColor     = color.RGBA{255, 255, 255, 64} // Semi-transparent white
)

// EnhancedBoardRenderer draws the board plus the threat overlay, the last
// decision's candidate targets, hover and selection.
type EnhancedBoardRenderer struct {
	*BoardRenderer

	selected     core.Coordinate
	hasSelection bool

	hover    core.Coordinate
	hasHover bool

	// threat is nil when the overlay is off.
	threat *ai.ThreatMap

	// candidates[0] is the chosen target.
	candidates []core.Coordinate
	actor      core.Coordinate
	hasActor   bool
}

func NewEnhancedBoardRenderer(grid layout.Grid, f font.Face) *EnhancedBoardRenderer {
	return &EnhancedBoardRenderer{BoardRenderer: NewBoardRenderer(grid, f)}
}

func (ebr *EnhancedBoardRenderer) SetSelection(c core.Coordinate, hasSelection bool) {
	ebr.selected = c
	ebr.hasSelection = hasSelection
}

func (ebr *EnhancedBoardRenderer) SetHover(c core.Coordinate, ok bool) {
	ebr.hover = c
	ebr.hasHover = ok
}

// SetThreat shows m as a heat overlay; nil hides it.
func (ebr *EnhancedBoardRenderer) SetThreat(m *ai.ThreatMap) {
	ebr.threat = m
}

// SetDecision marks the acting unit and the cells its ranked candidates
// aim at.
func (ebr *EnhancedBoardRenderer) SetDecision(state *core.GameState, report *ai.DecisionReport) {
	ebr.candidates = layout.ReportCells(state, report)
	ebr.hasActor = false
	if report == nil {
		return
	}
	if u := state.Unit(report.UnitID); u.Alive() {
		ebr.actor, ebr.hasActor = u.Pos, true
	}
}

func (ebr *EnhancedBoardRenderer) Draw(screen *ebiten.Image, state *core.GameState, viewer core.PlayerID) {
	if state == nil {
		return
	}
	// First draw the base board
	ebr.BoardRenderer.Draw(screen, state, viewer)

	// Then draw overlays
	ebr.drawOverlays(screen, state)
}

func (ebr *EnhancedBoardRenderer) drawOverlays(screen *ebiten.Image, state *core.GameState) {
	if ebr.threat != nil {
		peak := layout.MaxThreat(state, ebr.threat)
		for r := 0; r < core.Rows; r++ {
			for c := 0; c < core.Cols; c++ {
				at := core.Coordinate{R: r, C: c}
				if state.Grid.At(at).Obstacle {
					continue
				}
				if a := layout.ThreatAlpha(ebr.threat.At(at), peak); a > 0 {
					heat := layout.ThreatColor
					heat.A = a
					ebr.drawCellOverlay(screen, at, premultiply(heat))
				}
			}
		}
	}

	for i, c := range ebr.candidates {
		if i == 0 {
			ebr.drawBorder(screen, c, ChosenColor, 2)
			continue
		}
		ebr.drawCellOverlay(screen, c, CandidateColor)
	}
	if ebr.hasActor {
		ebr.drawBorder(screen, ebr.actor, ChosenColor, 1)
	}

	if ebr.hasHover {
		ebr.drawCellOverlay(screen, ebr.hover, HoverColor)
	}
	if ebr.hasSelection {
		ebr.drawBorder(screen, ebr.selected, SelectionColor, 3)
	}
}

func (ebr *EnhancedBoardRenderer) drawCellOverlay(screen *ebiten.Image, at core.Coordinate, c color.Color) {
	rect := ebr.grid.CellRect(at)
	size := float32(ebr.grid.CellSize)
	vector.DrawFilledRect(screen, float32(rect.Min.X), float32(rect.Min.Y), size, size, c, false)
}

func (ebr *EnhancedBoardRenderer) drawBorder(screen *ebiten.Image, at core.Coordinate, c color.Color, thickness float32) {
	rect := ebr.grid.CellRect(at)
	x, y := float32(rect.Min.X), float32(rect.Min.Y)
	size := float32(ebr.grid.CellSize)

	// Draw four border lines
	vector.DrawFilledRect(screen, x, y, size, thickness, c, false)
	vector.DrawFilledRect(screen, x, y+size-thickness, size, thickness, c, false)
	vector.DrawFilledRect(screen, x, y, thickness, size, c, false)
	vector.DrawFilledRect(screen, x+size-thickness, y, thickness, size, c, false)
}

// ebiten blends premultiplied colours.
func premultiply(c color.RGBA) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(c.A) / 255) }
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}
