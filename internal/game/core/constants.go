package core

const (
	Rows = 7
	Cols = 24

	// MidColumn splits the board into the two territories.
	MidColumn = Cols / 2

	InitialEnergy   = 50
	EnergyCapRatio  = 0.3333
	MaxMinesOnBoard = 5
	MineDamage      = 8
	MaxEvolveLevel  = 3
)

// MaxInterest caps the round bonus of one energy per ten banked.
const MaxInterest = 10

// EvolutionCosts is indexed by the branch's current level.
var EvolutionCosts = [MaxEvolveLevel]int{10, 20, 30}

// UnitStats are the static per-type numbers.
type UnitStats struct {
	MaxHP        int
	MoveCost     int
	FlagMoveCost int
	AttackCost   int
	AttackDamage int
	ScanCost     int
	MakeCost     int
	DisarmCost   int
}

var StatsByType = [UnitTypeCount]UnitStats{
	General: {MaxHP: 28, MoveCost: 3, FlagMoveCost: 5, AttackCost: 8, AttackDamage: 4},
	Sweeper: {MaxHP: 14, MoveCost: 3, ScanCost: 4},
	Ranger:  {MaxHP: 16, MoveCost: 2},
	Maker:   {MaxHP: 12, MoveCost: 3, MakeCost: 5},
	Defuser: {MaxHP: 18, MoveCost: 3, DisarmCost: 2},
}

// EvolutionThresholds holds the quest progress needed for each level, per
// unit type and branch.
var EvolutionThresholds = [UnitTypeCount][2][MaxEvolveLevel]int{
	General: {{4, 12, 20}, {6, 13, 20}},
	Sweeper: {{2, 5, 8}, {2, 4, 6}},
	Ranger:  {{8, 18, 28}, {3, 7, 12}},
	Maker:   {{2, 5, 8}, {3, 6, 9}},
	Defuser: {{2, 5, 8}, {2, 5, 8}},
}

var mineBaseCosts = [MineTypeCount]int{
	MineNormal: 5,
	MineSlow:   4,
	MineSmoke:  6,
	MineNuke:   9,
	MineChain:  7,
}

// BaseCost is the energy cost of placing a mine of this type before
// territory adjustments.
func (m MineType) BaseCost() int {
	if m < 0 || m >= MineTypeCount {
		return mineBaseCosts[MineNormal]
	}
	return mineBaseCosts[m]
}

// EnergyRegen returns the energy granted at the start of a round.
func EnergyRegen(turn int) int {
	switch {
	case turn >= 12:
		return 50
	case turn >= 8:
		return 45
	case turn >= 4:
		return 40
	default:
		return 35
	}
}

// FlagStart is the cell where a player's flag begins.
func FlagStart(p PlayerID) Coordinate {
	if p == P2 {
		return Coordinate{R: 3, C: Cols - 1}
	}
	return Coordinate{R: 3, C: 0}
}

// SpawnColumns returns the inclusive column range a player deploys into.
func SpawnColumns(p PlayerID) (int, int) {
	if p == P2 {
		return Cols - 4, Cols - 1
	}
	return 0, 3
}

// InEnemyTerritory reports whether c lies on the opponent's half for p.
func InEnemyTerritory(p PlayerID, c Coordinate) bool {
	if p == P2 {
		return c.C < MidColumn
	}
	return c.C >= MidColumn
}
