package layout

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/testutil"
)

func TestGrid_CellAt(t *testing.T) {
	g := Grid{CellSize: 40, OffsetX: 10, OffsetY: 20}

	tests := []struct {
		name string
		x, y int
		want core.Coordinate
		ok   bool
	}{
		{name: "top left", x: 10, y: 20, want: core.Coordinate{R: 0, C: 0}, ok: true},
		{name: "inside first cell", x: 49, y: 59, want: core.Coordinate{R: 0, C: 0}, ok: true},
		{name: "second column", x: 50, y: 20, want: core.Coordinate{R: 0, C: 1}, ok: true},
		{name: "bottom right", x: 10 + 24*40 - 1, y: 20 + 7*40 - 1, want: core.Coordinate{R: 6, C: 23}, ok: true},
		{name: "left of board", x: 5, y: 30},
		{name: "above board", x: 30, y: 10},
		{name: "right of board", x: 10 + 24*40, y: 30},
		{name: "below board", x: 30, y: 20 + 7*40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.CellAt(tt.x, tt.y)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, ok := Grid{}.CellAt(0, 0)
	assert.False(t, ok, "zero cell size never maps")
}

func TestGrid_CellRectRoundTrip(t *testing.T) {
	g := Grid{CellSize: 30, OffsetX: 4}
	assert.Equal(t, 24*30, g.Width())
	assert.Equal(t, 7*30, g.Height())

	c := core.Coordinate{R: 3, C: 11}
	rect := g.CellRect(c)
	assert.Equal(t, image.Rect(4+11*30, 3*30, 4+12*30, 4*30), rect)

	got, ok := g.CellAt(rect.Min.X+1, rect.Min.Y+1)
	require.True(t, ok)
	assert.Equal(t, c, got)
}

func TestShiftColor(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 255, 110, 255}, ShiftColor(color.RGBA{250, 200, 10, 255}, 100))
	assert.Equal(t, color.RGBA{255, 230, 40, 255}, ShiftColor(color.RGBA{250, 200, 10, 255}, 30))
	assert.Equal(t, color.RGBA{0, 140, 0, 255}, ShiftColor(color.RGBA{50, 200, 10, 255}, -60))
}

func TestBlend(t *testing.T) {
	a := color.RGBA{0, 0, 0, 255}
	b := color.RGBA{200, 100, 50, 255}
	assert.Equal(t, a, Blend(a, b, 0))
	assert.Equal(t, b, Blend(a, b, 1))
	assert.Equal(t, b, Blend(a, b, 3), "t is clamped")
	assert.Equal(t, color.RGBA{100, 50, 25, 255}, Blend(a, b, 0.5))
}

func TestTerritoryColor(t *testing.T) {
	left := TerritoryColor(core.Coordinate{R: 0, C: 0})
	right := TerritoryColor(core.Coordinate{R: 0, C: core.Cols - 1})
	assert.NotEqual(t, left, right)
	assert.Greater(t, left.R, right.R, "P1 half leans red")
	assert.Greater(t, right.B, left.B, "P2 half leans blue")
}

func TestUnitGlyphAndColor(t *testing.T) {
	state := testutil.StandardState()
	general := state.Unit("p1-general")
	require.NotNil(t, general)

	assert.Equal(t, "G", UnitGlyph(general))
	assert.Equal(t, SideColors[core.P1], UnitColor(general))

	general.HasFlag = true
	general.HasActedThisRound = true
	assert.Equal(t, "G!", UnitGlyph(general))
	assert.NotEqual(t, SideColors[core.P1], UnitColor(general))

	maker := state.Unit("p2-maker")
	require.NotNil(t, maker)
	assert.Equal(t, "M", UnitGlyph(maker))
	assert.Equal(t, SideColors[core.P2], UnitColor(maker))
}

func TestThreatScaling(t *testing.T) {
	state := testutil.EmptyState()
	state.Grid.SetObstacle(core.Coordinate{R: 0, C: 0}, true)

	var m ai.ThreatMap
	m[0][0] = 999
	m[2][5] = 4
	m[3][6] = 8

	peak := MaxThreat(state, &m)
	assert.Equal(t, 8.0, peak, "obstacles do not set the scale")
	assert.Equal(t, uint8(160), ThreatAlpha(8, peak))
	assert.Equal(t, uint8(80), ThreatAlpha(4, peak))
	assert.Equal(t, uint8(160), ThreatAlpha(50, peak))
	assert.Zero(t, ThreatAlpha(0, peak))
	assert.Zero(t, ThreatAlpha(3, 0))
}

func TestStatusLine(t *testing.T) {
	state := testutil.StandardState()
	line := StatusLine(state)
	assert.Contains(t, line, "turn 1")
	assert.Contains(t, line, "P2 to move (action)")
	assert.Contains(t, line, "P1 energy 50 units 5")

	state.GameOver = true
	state.Winner = core.P1
	assert.Contains(t, StatusLine(state), "P1 wins")
	state.Winner = core.NoPlayer
	assert.Contains(t, StatusLine(state), "draw")
}

func TestUnitLine(t *testing.T) {
	state := testutil.StandardState()
	var m ai.ThreatMap
	m[3][2] = 2.5

	line := UnitLine(state, core.Coordinate{R: 3, C: 2}, &m)
	assert.Contains(t, line, "p1-general P1 general hp 28/28")
	assert.Contains(t, line, "threat 2.5")

	state.Grid.SetObstacle(core.Coordinate{R: 0, C: 10}, true)
	assert.Equal(t, "(0,10) obstacle", UnitLine(state, core.Coordinate{R: 0, C: 10}, nil))

	state.Grid.At(core.Coordinate{R: 6, C: 10}).SmokeTurns = 2
	assert.Equal(t, "(6,10) smoke 2", UnitLine(state, core.Coordinate{R: 6, C: 10}, nil))

	assert.Equal(t, "(5,10)", UnitLine(state, core.Coordinate{R: 5, C: 10}, nil))
	assert.Empty(t, UnitLine(state, core.Coordinate{R: -1, C: 0}, nil))
}

func TestLastLines(t *testing.T) {
	lines := []string{"a", "", "b", "  ", "c", "d"}
	assert.Equal(t, []string{"c", "d"}, LastLines(lines, 2))
	assert.Equal(t, []string{"a", "b", "c", "d"}, LastLines(lines, 10))
	assert.Empty(t, LastLines(nil, 3))
}

func TestReportCells(t *testing.T) {
	state := testutil.StandardState()
	report := &ai.DecisionReport{
		FinalTop: []ai.CandidateView{
			{Rank: 1, Type: core.ActionMove, Target: core.CellTarget(core.Coordinate{R: 3, C: 3})},
			{Rank: 2, Type: core.ActionAttack, Target: core.UnitTarget("p2-general")},
			{Rank: 3, Type: core.ActionMove, Target: core.CellTarget(core.Coordinate{R: 3, C: 3})},
			{Rank: 4, Type: core.ActionEndTurn, Target: core.NoTarget()},
			{Rank: 5, Type: core.ActionAttack, Target: core.UnitTarget("missing")},
		},
	}
	cells := ReportCells(state, report)
	assert.Equal(t, []core.Coordinate{{R: 3, C: 3}, {R: 3, C: core.Cols - 3}}, cells)
	assert.Nil(t, ReportCells(state, nil))

	state.Unit("p2-general").IsDead = true
	_, ok := TargetCell(state, core.UnitTarget("p2-general"))
	assert.False(t, ok, "dead units are not targets")
}

func TestNextViewer(t *testing.T) {
	assert.Equal(t, core.P1, NextViewer(core.NoPlayer))
	assert.Equal(t, core.P2, NextViewer(core.P1))
	assert.Equal(t, core.NoPlayer, NextViewer(core.P2))
}

func TestAdjustInterval(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		faster bool
		want   int
	}{
		{name: "faster halves", frames: 20, faster: true, want: 10},
		{name: "slower doubles", frames: 20, want: 40},
		{name: "floor", frames: 1, faster: true, want: MinStepInterval},
		{name: "ceiling", frames: 100, want: MaxStepInterval},
		{name: "zero recovers", frames: 0, want: MinStepInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustInterval(tt.frames, tt.faster))
		})
	}
}
