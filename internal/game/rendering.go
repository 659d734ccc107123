package game

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// This file contains all board rendering functionality for the game engine.

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorBlue   = "\033[34m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

const (
	EmptySymbol    = "·"
	ObstacleSymbol = "▲"
	SmokeSymbol    = "~"
	FlagSymbol     = "⚑"
	MineSymbol     = "*"
)

var playerColors = [core.PlayerCount]string{ColorRed, ColorBlue}

var unitSymbols = [core.UnitTypeCount]byte{'G', 'S', 'R', 'M', 'D'}

var buildingSymbols = map[core.BuildingType]byte{core.Tower: 'T', core.Factory: 'F', core.Hub: 'H'}

// Board renders the current state as viewer sees it.
func (e *Engine) Board(viewer core.PlayerID) string {
	return RenderBoard(e.Snapshot(), viewer)
}

// RenderBoard draws the grid with one two-column cell per square. Mines are
// shown only once revealed to viewer; NoPlayer sees every mine.
func RenderBoard(state *core.GameState, viewer core.PlayerID) string {
	var sb strings.Builder
	sb.Grow((core.Cols*14 + 8) * (core.Rows + 4))

	sb.WriteString("   ")
	for c := 0; c < core.Cols; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")

	for r := 0; r < core.Rows; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < core.Cols; c++ {
			writeCell(&sb, state, core.Coordinate{R: r, C: c}, viewer)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nturn %d  %s to move", state.TurnCount, state.CurrentPlayer)
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		fmt.Fprintf(&sb, "  %s%s%s energy %d", playerColors[p], p, ColorReset, state.Players[p].Energy)
	}
	if state.GameOver {
		if state.Winner == core.NoPlayer {
			sb.WriteString("  draw")
		} else {
			fmt.Fprintf(&sb, "  %s wins", state.Winner)
		}
	}
	sb.WriteString("\nG=general S=sweeper R=ranger M=maker D=defuser lower case=acted\n")
	return sb.String()
}

func writeCell(sb *strings.Builder, state *core.GameState, at core.Coordinate, viewer core.PlayerID) {
	cell := state.Grid.At(at)
	switch {
	case cell.Obstacle:
		sb.WriteString(ColorGray + " " + ObstacleSymbol)
	case state.UnitAt(at) != nil:
		u := state.UnitAt(at)
		sym := unitSymbols[u.Type]
		if u.HasActedThisRound {
			sym += 'a' - 'A'
		}
		sb.WriteString(playerColors[u.Owner])
		if u.HasFlag {
			sb.WriteString(FlagSymbol)
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteByte(sym)
	case flagOwnerAt(state, at) != core.NoPlayer:
		sb.WriteString(playerColors[flagOwnerAt(state, at)] + " " + FlagSymbol)
	case visibleMine(state, at, viewer) != nil:
		m := visibleMine(state, at, viewer)
		sb.WriteString(playerColors[m.Owner] + " " + MineSymbol)
	case buildingAt(state, at) != nil:
		b := buildingAt(state, at)
		sb.WriteString(playerColors[b.Owner] + " ")
		sb.WriteByte(buildingSymbols[b.Type])
	case cell.SmokeTurns > 0:
		sb.WriteString(ColorWhite + " " + SmokeSymbol)
	default:
		sb.WriteString(ColorGray + " " + EmptySymbol)
	}
	sb.WriteString(ColorReset)
}

func flagOwnerAt(state *core.GameState, at core.Coordinate) core.PlayerID {
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		if state.Players[p].FlagPosition == at {
			return p
		}
	}
	return core.NoPlayer
}

func visibleMine(state *core.GameState, at core.Coordinate, viewer core.PlayerID) *core.Mine {
	m := state.MineAt(at)
	if m == nil {
		return nil
	}
	if viewer == core.NoPlayer || m.Owner == viewer || m.RevealedTo(viewer) {
		return m
	}
	return nil
}

func buildingAt(state *core.GameState, at core.Coordinate) *core.Building {
	for i := range state.Buildings {
		if state.Buildings[i].Pos == at {
			return &state.Buildings[i]
		}
	}
	return nil
}
