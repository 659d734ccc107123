package renderer

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/ui/layout"
)

var (
	GlyphColor    = color.White
	MineRingColor = color.RGBA{240, 220, 60, 255}
	HPBarBack     = color.RGBA{20, 20, 20, 255}
	HPBarFront    = color.RGBA{90, 220, 90, 255}
)

var buildingGlyphs = map[core.BuildingType]string{core.Tower: "T", core.Factory: "F", core.Hub: "H"}

type BoardRenderer struct {
	grid        layout.Grid
	defaultFont font.Face
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(grid layout.Grid, f font.Face) *BoardRenderer {
	return &BoardRenderer{grid: grid, defaultFont: f}
}

func (br *BoardRenderer) Grid() layout.Grid { return br.grid }

// Draw renders the board as viewer sees it. NoPlayer sees every mine.
func (br *BoardRenderer) Draw(screen *ebiten.Image, state *core.GameState, viewer core.PlayerID) {
	if state == nil {
		return
	}
	for r := 0; r < core.Rows; r++ {
		for c := 0; c < core.Cols; c++ {
			br.drawCell(screen, state, core.Coordinate{R: r, C: c}, viewer)
		}
	}
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		flag := state.Players[p].FlagPosition
		if state.UnitAt(flag) == nil {
			br.drawFlag(screen, flag, layout.SideColors[p])
		}
	}
	for _, b := range state.Buildings {
		br.drawGlyph(screen, b.Pos, buildingGlyphs[b.Type], layout.ShiftColor(layout.SideColors[b.Owner], 60))
	}
	for i := range state.Mines {
		m := &state.Mines[i]
		if viewer == core.NoPlayer || m.Owner == viewer || m.RevealedTo(viewer) {
			br.drawMine(screen, m)
		}
	}
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		for _, u := range state.AliveUnits(p) {
			br.drawUnit(screen, u)
		}
	}
}

func (br *BoardRenderer) drawCell(screen *ebiten.Image, state *core.GameState, at core.Coordinate, viewer core.PlayerID) {
	cell := state.Grid.At(at)
	rect := br.grid.CellRect(at)
	x, y, size := float32(rect.Min.X), float32(rect.Min.Y), float32(br.grid.CellSize)

	var fill color.RGBA
	switch {
	case cell.Obstacle:
		fill = layout.ObstacleColor
	case cell.SmokeTurns > 0:
		fill = layout.Blend(layout.TerritoryColor(at), layout.SmokeColor, 0.5)
	default:
		fill = layout.TerritoryColor(at)
	}
	vector.DrawFilledRect(screen, x, y, size, size, fill, false)
	vector.StrokeRect(screen, x, y, size, size, 1, layout.GridLineColor, false)
}

func (br *BoardRenderer) drawFlag(screen *ebiten.Image, at core.Coordinate, clr color.RGBA) {
	rect := br.grid.CellRect(at)
	s := float32(br.grid.CellSize)
	x, y := float32(rect.Min.X), float32(rect.Min.Y)
	vector.DrawFilledRect(screen, x+s*0.3, y+s*0.2, s*0.08, s*0.6, GlyphColor, false)
	vector.DrawFilledRect(screen, x+s*0.38, y+s*0.2, s*0.32, s*0.22, clr, false)
}

func (br *BoardRenderer) drawMine(screen *ebiten.Image, m *core.Mine) {
	rect := br.grid.CellRect(m.Pos)
	s := float32(br.grid.CellSize)
	cx, cy := float32(rect.Min.X)+s/2, float32(rect.Min.Y)+s/2
	vector.DrawFilledCircle(screen, cx, cy, s*0.18, layout.SideColors[m.Owner], true)
	vector.StrokeCircle(screen, cx, cy, s*0.22, 2, MineRingColor, true)
}

func (br *BoardRenderer) drawUnit(screen *ebiten.Image, u *core.Unit) {
	rect := br.grid.CellRect(u.Pos)
	s := float32(br.grid.CellSize)
	x, y := float32(rect.Min.X), float32(rect.Min.Y)
	inset := s * 0.12
	vector.DrawFilledRect(screen, x+inset, y+inset, s-2*inset, s-2*inset, layout.UnitColor(u), false)

	// hp bar along the bottom edge
	barW := s - 2*inset
	vector.DrawFilledRect(screen, x+inset, y+s-inset-3, barW, 3, HPBarBack, false)
	vector.DrawFilledRect(screen, x+inset, y+s-inset-3, barW*float32(u.HPRatio()), 3, HPBarFront, false)

	br.drawGlyph(screen, u.Pos, layout.UnitGlyph(u), GlyphColor)
}

func (br *BoardRenderer) drawGlyph(screen *ebiten.Image, at core.Coordinate, glyph string, clr color.Color) {
	if br.defaultFont == nil || glyph == "" {
		return
	}
	rect := br.grid.CellRect(at)
	b := text.BoundString(br.defaultFont, glyph)
	textW := b.Max.X - b.Min.X
	textH := b.Max.Y - b.Min.Y
	x := rect.Min.X + (br.grid.CellSize-textW)/2
	y := rect.Min.Y + (br.grid.CellSize+textH)/2
	text.Draw(screen, glyph, br.defaultFont, x, y, clr)
}
