package core

import "fmt"

type Phase int

const (
	PhasePlacement Phase = iota
	PhaseThinking
	PhaseAction
)

func (p Phase) String() string {
	switch p {
	case PhasePlacement:
		return "placement"
	case PhaseThinking:
		return "thinking"
	case PhaseAction:
		return "action"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Player struct {
	ID           PlayerID
	Energy       int
	FlagPosition Coordinate
	Units        []Unit
	Evolution    [UnitTypeCount]EvolutionLevel
	Quest        QuestStats
}

// GameState is the full snapshot of a match. Consumers outside the rules
// engine treat it as read-only and work on Clone() when they need to mutate.
type GameState struct {
	Grid          Grid
	Players       [PlayerCount]Player
	Mines         []Mine
	Buildings     []Building
	TurnCount     int
	Phase         Phase
	CurrentPlayer PlayerID
	GameOver      bool
	Winner        PlayerID
	// NextID feeds identifiers for mines and buildings created mid-game.
	NextID int
}

// Clone returns a deep copy that shares no memory with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	for i := range s.Players {
		out.Players[i].Units = append([]Unit(nil), s.Players[i].Units...)
	}
	out.Mines = append([]Mine(nil), s.Mines...)
	out.Buildings = append([]Building(nil), s.Buildings...)
	return &out
}

func (s *GameState) Player(p PlayerID) *Player {
	if !p.Valid() {
		return nil
	}
	return &s.Players[p]
}

// Unit finds a unit of either side by id, dead or alive.
func (s *GameState) Unit(id string) *Unit {
	for p := range s.Players {
		units := s.Players[p].Units
		for i := range units {
			if units[i].ID == id {
				return &units[i]
			}
		}
	}
	return nil
}

// UnitAt returns the living unit standing on c.
func (s *GameState) UnitAt(c Coordinate) *Unit {
	for p := range s.Players {
		units := s.Players[p].Units
		for i := range units {
			if !units[i].IsDead && units[i].Pos == c {
				return &units[i]
			}
		}
	}
	return nil
}

func (s *GameState) Occupied(c Coordinate) bool { return s.UnitAt(c) != nil }

// AliveUnits returns pointers into the player's unit slice.
func (s *GameState) AliveUnits(p PlayerID) []*Unit {
	pl := s.Player(p)
	if pl == nil {
		return nil
	}
	out := make([]*Unit, 0, len(pl.Units))
	for i := range pl.Units {
		if !pl.Units[i].IsDead {
			out = append(out, &pl.Units[i])
		}
	}
	return out
}

// FlagCarrier returns p's living unit carrying the enemy flag, if any.
func (s *GameState) FlagCarrier(p PlayerID) *Unit {
	for _, u := range s.AliveUnits(p) {
		if u.HasFlag {
			return u
		}
	}
	return nil
}

func (s *GameState) MineAt(c Coordinate) *Mine {
	for i := range s.Mines {
		if s.Mines[i].Pos == c {
			return &s.Mines[i]
		}
	}
	return nil
}

func (s *GameState) MinesOwnedBy(p PlayerID) int {
	n := 0
	for i := range s.Mines {
		if s.Mines[i].Owner == p {
			n++
		}
	}
	return n
}

func (s *GameState) RemoveMine(id string) {
	for i := range s.Mines {
		if s.Mines[i].ID == id {
			s.Mines = append(s.Mines[:i], s.Mines[i+1:]...)
			return
		}
	}
}

// BuildingsOf lists p's buildings of type t in creation order.
func (s *GameState) BuildingsOf(p PlayerID, t BuildingType) []Building {
	var out []Building
	for _, b := range s.Buildings {
		if b.Owner == p && b.Type == t {
			out = append(out, b)
		}
	}
	return out
}

func (s *GameState) BuildingAt(p PlayerID, t BuildingType, c Coordinate) bool {
	for _, b := range s.Buildings {
		if b.Owner == p && b.Type == t && b.Pos == c {
			return true
		}
	}
	return false
}

func (s *GameState) RemoveBuilding(id string) {
	for i := range s.Buildings {
		if s.Buildings[i].ID == id {
			s.Buildings = append(s.Buildings[:i], s.Buildings[i+1:]...)
			return
		}
	}
}

// NewID hands out identifiers such as "mine-7".
func (s *GameState) NewID(prefix string) string {
	s.NextID++
	return fmt.Sprintf("%s-%d", prefix, s.NextID)
}

// Evolution returns the evolution levels p has reached for unit type t.
func (s *GameState) Evolution(p PlayerID, t UnitType) EvolutionLevel {
	pl := s.Player(p)
	if pl == nil || t < 0 || t >= UnitTypeCount {
		return EvolutionLevel{}
	}
	return pl.Evolution[t]
}
