package ai

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard

	difficultyCount
)

var difficultyNames = [difficultyCount]string{"easy", "normal", "hard"}

func (d Difficulty) String() string {
	if d < 0 || d >= difficultyCount {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range difficultyNames {
		if n == s {
			return Difficulty(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown difficulty %q", s)
}

type Role int

const (
	Striker Role = iota
	Flanker
	Controller
	Scout
	Support

	roleCount
)

var roleNames = [roleCount]string{"striker", "flanker", "controller", "scout", "support"}

func (r Role) String() string {
	if r < 0 || r >= roleCount {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

type Intent int

const (
	PushFlag Intent = iota
	HuntFlagCarrier
	ControlMines
	Stabilize

	intentCount
)

var intentNames = [intentCount]string{"push_flag", "hunt_flag_carrier", "control_mines", "stabilize"}

func (i Intent) String() string {
	if i < 0 || i >= intentCount {
		return fmt.Sprintf("Intent(%d)", int(i))
	}
	return intentNames[i]
}

type EndgameMode int

const (
	EndgameNone EndgameMode = iota
	EndgameRace
	EndgameDefense
	EndgameAttrition
)

func (m EndgameMode) String() string {
	switch m {
	case EndgameRace:
		return "race"
	case EndgameDefense:
		return "defense"
	case EndgameAttrition:
		return "attrition"
	}
	return "none"
}

// EndgameState is the late-game classification; Urgency scales every
// endgame bias.
type EndgameState struct {
	Active     bool
	Mode       EndgameMode
	Urgency    float64
	OwnAlive   int
	EnemyAlive int
}

// OpeningState carries the active opening plan and its decaying weight.
type OpeningState struct {
	Active bool
	Plan   OpeningPlan
	Weight float64
	Turn   int
}

// Hotspot marks a contested cell.
type Hotspot struct {
	Pos    core.Coordinate
	Weight float64
}

// ThreatMap has one danger score per grid cell.
type ThreatMap [core.Rows][core.Cols]float64

func (m *ThreatMap) At(c core.Coordinate) float64 {
	if !c.InBounds() {
		return obstacleRisk
	}
	return m[c.R][c.C]
}

// Breakdown keeps the named score components next to the total.
type Breakdown struct {
	Total   float64
	Attack  float64
	Flag    float64
	Safety  float64
	Utility float64
	Energy  float64
}

// Candidate is one scored action option for one unit.
type Candidate struct {
	UnitID     string
	Type       core.ActionType
	Target     core.Target
	Source     *core.Coordinate
	MineType   core.MineType
	EnergyCost int
	Score      float64
	Breakdown  Breakdown
	// Lookahead is set by the beam reranker for the candidates it simulated.
	Lookahead  *float64
	IsFeint    bool
	SourceRank int
}

// RankScore is the lookahead score when present, else the base score.
func (c *Candidate) RankScore() float64 {
	if c.Lookahead != nil {
		return *c.Lookahead
	}
	return c.Score
}

// Command converts the candidate into an apply request for side p.
func (c *Candidate) Command(p core.PlayerID) core.Command {
	return core.Command{
		Player:   p,
		UnitID:   c.UnitID,
		Type:     c.Type,
		Target:   c.Target,
		Source:   c.Source,
		MineType: c.MineType,
	}
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s %s (%.2f)", c.UnitID, c.Type, c.Target, c.RankScore())
}

// UnitCandidate is a unit with its aggregate priority.
type UnitCandidate struct {
	UnitID    string
	Score     float64
	Breakdown Breakdown
}
