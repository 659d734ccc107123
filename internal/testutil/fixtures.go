package testutil

import (
	"fmt"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// EmptyState creates an action-phase snapshot with both flags at their
// start cells, no units and full starting energy.
func EmptyState() *core.GameState {
	s := &core.GameState{TurnCount: 1, Phase: core.PhaseAction, CurrentPlayer: core.P2}
	for _, p := range []core.PlayerID{core.P1, core.P2} {
		s.Players[p] = core.Player{
			ID:           p,
			Energy:       core.InitialEnergy,
			FlagPosition: core.FlagStart(p),
		}
	}
	return s
}

// AddUnit places a fresh unit and returns its id. Ids follow
// "<side>-<type>" with a numeric suffix for repeats.
func AddUnit(s *core.GameState, p core.PlayerID, t core.UnitType, pos core.Coordinate) string {
	pl := s.Player(p)
	id := fmt.Sprintf("%s-%s", lower(p.String()), t)
	if s.Unit(id) != nil {
		id = fmt.Sprintf("%s-%d", id, len(pl.Units))
	}
	stats := core.StatsByType[t]
	pl.Units = append(pl.Units, core.Unit{
		ID:                  id,
		Type:                t,
		Owner:               p,
		Pos:                 pos,
		HP:                  stats.MaxHP,
		MaxHP:               stats.MaxHP,
		StartOfActionEnergy: pl.Energy,
	})
	return id
}

// AddMine places a mine revealed only to its owner.
func AddMine(s *core.GameState, owner core.PlayerID, t core.MineType, pos core.Coordinate) string {
	m := core.Mine{ID: s.NewID("mine"), Owner: owner, Type: t, Pos: pos}
	m.Revealed[owner] = true
	s.Mines = append(s.Mines, m)
	return m.ID
}

// AddBuilding places a level 1 building.
func AddBuilding(s *core.GameState, owner core.PlayerID, t core.BuildingType, pos core.Coordinate) string {
	b := core.Building{ID: s.NewID(t.String()), Owner: owner, Type: t, Pos: pos, Level: 1}
	s.Buildings = append(s.Buildings, b)
	return b.ID
}

// SetEnergy updates a side's energy and the start-of-turn energy of its units
// so energy cap checks follow.
func SetEnergy(s *core.GameState, p core.PlayerID, energy int) {
	pl := s.Player(p)
	pl.Energy = energy
	for i := range pl.Units {
		pl.Units[i].StartOfActionEnergy = energy
	}
}

// StandardState deploys all five unit types for both sides in their spawn
// columns, the same layout the engine uses for a new match.
func StandardState() *core.GameState {
	s := EmptyState()
	order := []core.UnitType{core.General, core.Sweeper, core.Ranger, core.Maker, core.Defuser}
	rows := []int{3, 1, 2, 4, 5}
	for i, t := range order {
		AddUnit(s, core.P1, t, core.Coordinate{R: rows[i], C: 2})
		AddUnit(s, core.P2, t, core.Coordinate{R: rows[i], C: core.Cols - 3})
	}
	return s
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
