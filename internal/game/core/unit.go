package core

import (
	"fmt"
	"strings"
)

type PlayerID int

const (
	P1 PlayerID = iota
	P2

	PlayerCount = 2
)

// NoPlayer marks the absence of a side, as in a drawn match.
const NoPlayer PlayerID = -1

func (p PlayerID) Opponent() PlayerID {
	if p == P1 {
		return P2
	}
	return P1
}

func (p PlayerID) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return fmt.Sprintf("Player(%d)", int(p))
	}
}

func (p PlayerID) Valid() bool { return p == P1 || p == P2 }

// ParsePlayerID accepts "p1"/"p2" in any case.
func ParsePlayerID(s string) (PlayerID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P1":
		return P1, nil
	case "P2":
		return P2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPlayer, s)
}

type UnitType int

const (
	General UnitType = iota
	Sweeper
	Ranger
	Maker
	Defuser

	UnitTypeCount
)

var unitTypeNames = [UnitTypeCount]string{"general", "sweeper", "ranger", "maker", "defuser"}

func (t UnitType) String() string {
	if t < 0 || t >= UnitTypeCount {
		return fmt.Sprintf("UnitType(%d)", int(t))
	}
	return unitTypeNames[t]
}

func ParseUnitType(s string) (UnitType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range unitTypeNames {
		if n == s {
			return UnitType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown unit type %q", s)
}

type MineType int

const (
	MineNormal MineType = iota
	MineSlow
	MineSmoke
	MineNuke
	MineChain

	MineTypeCount
)

var mineTypeNames = [MineTypeCount]string{"normal", "slow", "smoke", "nuke", "chain"}

func (m MineType) String() string {
	if m < 0 || m >= MineTypeCount {
		return fmt.Sprintf("MineType(%d)", int(m))
	}
	return mineTypeNames[m]
}

func ParseMineType(s string) (MineType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range mineTypeNames {
		if n == s {
			return MineType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mine type %q", s)
}

type BuildingType int

const (
	Tower BuildingType = iota
	Factory
	Hub
)

func (b BuildingType) String() string {
	switch b {
	case Tower:
		return "tower"
	case Factory:
		return "factory"
	case Hub:
		return "hub"
	}
	return fmt.Sprintf("BuildingType(%d)", int(b))
}

type Branch int

const (
	BranchA Branch = iota
	BranchB
)

func (b Branch) String() string {
	if b == BranchB {
		return "b"
	}
	return "a"
}

// Unit is one piece on the board.
type Unit struct {
	ID                  string
	Type                UnitType
	Owner               PlayerID
	Pos                 Coordinate
	HP                  int
	MaxHP               int
	HasFlag             bool
	IsDead              bool
	HasActedThisRound   bool
	EnergyUsedThisTurn  int
	StartOfActionEnergy int
	CarryingMine        bool
	CarriedMine         MineType
	Stealthed           bool
	MoveCostDebuff      int
}

func (u *Unit) Alive() bool { return u != nil && !u.IsDead }

// HPRatio is 1 for units without a max HP so callers never divide by zero.
func (u *Unit) HPRatio() float64 {
	if u.MaxHP <= 0 {
		return 1
	}
	return float64(u.HP) / float64(u.MaxHP)
}

func (u *Unit) Stats() UnitStats { return StatsByType[u.Type] }

type Mine struct {
	ID       string
	Owner    PlayerID
	Type     MineType
	Pos      Coordinate
	Revealed [PlayerCount]bool
}

func (m *Mine) RevealedTo(p PlayerID) bool {
	return p.Valid() && m.Revealed[p]
}

type Building struct {
	ID    string
	Owner PlayerID
	Type  BuildingType
	Pos   Coordinate
	Level int
}

// EvolutionLevel tracks both upgrade branches of one unit type.
type EvolutionLevel struct {
	A        int
	AVariant int
	B        int
	BVariant int
}

func (e EvolutionLevel) Level(b Branch) int {
	if b == BranchB {
		return e.B
	}
	return e.A
}

func (e EvolutionLevel) Variant(b Branch) int {
	if b == BranchB {
		return e.BVariant
	}
	return e.AVariant
}

// A3 reports a maxed A branch with the given variant.
func (e EvolutionLevel) A3(variant int) bool { return e.A >= 3 && e.AVariant == variant }

// B3 reports a maxed B branch with the given variant.
func (e EvolutionLevel) B3(variant int) bool { return e.B >= 3 && e.BVariant == variant }

// QuestStats are the per-player counters that unlock evolutions.
type QuestStats struct {
	GeneralDamage                int
	GeneralFlagSteps             int
	SweeperMinesMarked           int
	SweeperConsecutiveSafeRounds int
	SweeperScansThisRound        int
	RangerSteps                  int
	RangerMinesMoved             int
	MakerMinesTriggeredByEnemy   int
	MakerMinesPlaced             int
	DefuserMinesSoaked           int
	DefuserMinesDisarmed         int
}

// Progress returns the counter that gates branch b of unit type t.
func (q QuestStats) Progress(t UnitType, b Branch) int {
	a := b == BranchA
	switch t {
	case General:
		if a {
			return q.GeneralDamage
		}
		return q.GeneralFlagSteps
	case Sweeper:
		if a {
			return q.SweeperMinesMarked
		}
		return q.SweeperConsecutiveSafeRounds
	case Ranger:
		if a {
			return q.RangerSteps
		}
		return q.RangerMinesMoved
	case Maker:
		if a {
			return q.MakerMinesTriggeredByEnemy
		}
		return q.MakerMinesPlaced
	case Defuser:
		if a {
			return q.DefuserMinesSoaked
		}
		return q.DefuserMinesDisarmed
	}
	return 0
}
