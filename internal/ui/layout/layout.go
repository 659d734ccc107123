// Package layout holds the viewer's screen geometry and text helpers. It does
// not import ebiten so it can be tested headless.
package layout

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Grid maps board cells to screen pixels.
type Grid struct {
	CellSize int
	OffsetX  int
	OffsetY  int
}

// Width and Height are the board's size in pixels.
func (g Grid) Width() int  { return core.Cols * g.CellSize }
func (g Grid) Height() int { return core.Rows * g.CellSize }

// CellAt returns the cell under the pixel (x, y).
func (g Grid) CellAt(x, y int) (core.Coordinate, bool) {
	if g.CellSize <= 0 || x < g.OffsetX || y < g.OffsetY {
		return core.Coordinate{}, false
	}
	c := core.Coordinate{R: (y - g.OffsetY) / g.CellSize, C: (x - g.OffsetX) / g.CellSize}
	if !c.InBounds() {
		return core.Coordinate{}, false
	}
	return c, true
}

// CellRect is the pixel rectangle covered by c.
func (g Grid) CellRect(c core.Coordinate) image.Rectangle {
	x := g.OffsetX + c.C*g.CellSize
	y := g.OffsetY + c.R*g.CellSize
	return image.Rect(x, y, x+g.CellSize, y+g.CellSize)
}

var (
	SideColors = [core.PlayerCount]color.RGBA{
		{200, 50, 50, 255},
		{50, 100, 200, 255},
	}
	FloorColor    = color.RGBA{60, 60, 60, 255}
	ObstacleColor = color.RGBA{25, 25, 25, 255}
	SmokeColor    = color.RGBA{170, 170, 170, 255}
	GridLineColor = color.RGBA{40, 40, 40, 255}
	ThreatColor   = color.RGBA{255, 140, 0, 255}
)

// TerritoryColor tints the floor towards the side owning the half.
func TerritoryColor(c core.Coordinate) color.RGBA {
	side := core.P1
	if c.C >= core.MidColumn {
		side = core.P2
	}
	return Blend(FloorColor, SideColors[side], 0.12)
}

// Blend mixes a towards b by t in [0, 1].
func Blend(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

// ShiftColor returns a lighter (amount > 0) or darker version of c.
func ShiftColor(c color.Color, amount int) color.RGBA {
	r, g, b, a := c.RGBA()
	shift := func(v uint32) uint8 {
		return uint8(clamp16(int64(v)+int64(amount)<<8) >> 8)
	}
	return color.RGBA{shift(r), shift(g), shift(b), uint8(a >> 8)}
}

func clamp16(v int64) uint32 {
	const maxV = 0xFFFF
	switch {
	case v > maxV:
		return maxV
	case v < 0:
		return 0
	}
	return uint32(v)
}

// UnitColor dims units that already acted this round.
func UnitColor(u *core.Unit) color.RGBA {
	c := SideColors[u.Owner]
	if u.HasActedThisRound {
		return ShiftColor(c, -60)
	}
	return c
}

var unitGlyphs = [core.UnitTypeCount]string{"G", "S", "R", "M", "D"}

// UnitGlyph is the unit's letter, suffixed with "!" while it carries a flag.
func UnitGlyph(u *core.Unit) string {
	g := "?"
	if u.Type >= 0 && u.Type < core.UnitTypeCount {
		g = unitGlyphs[u.Type]
	}
	if u.HasFlag {
		g += "!"
	}
	return g
}

// MaxThreat is the largest threat over open cells. Obstacles carry a
// sentinel risk and are skipped.
func MaxThreat(state *core.GameState, m *ai.ThreatMap) float64 {
	best := 0.0
	for r := 0; r < core.Rows; r++ {
		for c := 0; c < core.Cols; c++ {
			at := core.Coordinate{R: r, C: c}
			if state.Grid.At(at).Obstacle {
				continue
			}
			best = math.Max(best, m.At(at))
		}
	}
	return best
}

// ThreatAlpha scales v against peak into an overlay alpha, capped at 160.
func ThreatAlpha(v, peak float64) uint8 {
	if peak <= 0 || v <= 0 {
		return 0
	}
	return uint8(math.Round(math.Min(v/peak, 1) * 160))
}

// StatusLine summarises turn, side to move and energy.
func StatusLine(state *core.GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %d  %s to move (%s)", state.TurnCount, state.CurrentPlayer, state.Phase)
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		fmt.Fprintf(&b, "  %s energy %d units %d", p, state.Players[p].Energy, len(state.AliveUnits(p)))
	}
	if state.GameOver {
		if state.Winner == core.NoPlayer {
			b.WriteString("  draw")
		} else {
			fmt.Fprintf(&b, "  %s wins", state.Winner)
		}
	}
	return b.String()
}

// UnitLine describes the unit on c, or the cell when none stands there.
func UnitLine(state *core.GameState, c core.Coordinate, threat *ai.ThreatMap) string {
	cell := state.Grid.At(c)
	if cell == nil {
		return ""
	}
	if u := state.UnitAt(c); u != nil {
		line := fmt.Sprintf("%s %s %s hp %d/%d", u.ID, u.Owner, u.Type, u.HP, u.MaxHP)
		if u.HasFlag {
			line += " flag"
		}
		if u.CarryingMine {
			line += " mine:" + u.CarriedMine.String()
		}
		if threat != nil {
			line += fmt.Sprintf(" threat %.1f", threat.At(c))
		}
		return line
	}
	switch {
	case cell.Obstacle:
		return fmt.Sprintf("%s obstacle", c)
	case cell.SmokeTurns > 0:
		return fmt.Sprintf("%s smoke %d", c, cell.SmokeTurns)
	}
	if threat != nil {
		return fmt.Sprintf("%s threat %.1f", c, threat.At(c))
	}
	return c.String()
}

// LastLines returns at most n trailing non-empty lines of text.
func LastLines(lines []string, n int) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	if n >= 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// TargetCell resolves t to a board cell. Unit targets follow the unit; a
// target without a position reports false.
func TargetCell(state *core.GameState, t core.Target) (core.Coordinate, bool) {
	switch t.Kind {
	case core.TargetCell:
		return t.Cell, t.Cell.InBounds()
	case core.TargetUnit:
		if u := state.Unit(t.UnitID); u.Alive() {
			return u.Pos, true
		}
	}
	return core.Coordinate{}, false
}

// ReportCells lists the cells the report's final candidates aim at, best
// first and without repeats.
func ReportCells(state *core.GameState, r *ai.DecisionReport) []core.Coordinate {
	if r == nil {
		return nil
	}
	seen := make(map[core.Coordinate]bool)
	var out []core.Coordinate
	for _, v := range r.FinalTop {
		c, ok := TargetCell(state, v.Target)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// NextViewer cycles the mine visibility: everything, then P1, then P2.
func NextViewer(v core.PlayerID) core.PlayerID {
	switch v {
	case core.NoPlayer:
		return core.P1
	case core.P1:
		return core.P2
	}
	return core.NoPlayer
}

// Step interval bounds, in frames.
const (
	MinStepInterval = 1
	MaxStepInterval = 120
)

// AdjustInterval halves (faster) or doubles (slower) the frames between
// scheduler steps, within the bounds.
func AdjustInterval(frames int, faster bool) int {
	if faster {
		frames /= 2
	} else {
		frames *= 2
	}
	return max(MinStepInterval, min(MaxStepInterval, frames))
}
