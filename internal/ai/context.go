package ai

import (
	"math"
	"sort"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Context is the per-tick planning picture. It is built once per decision
// and never mutated afterwards. A nil *Context means "no context" and every
// consumer treats it as neutral.
type Context struct {
	Difficulty Difficulty
	Profile    Profile
	Side       core.PlayerID
	Turn       int
	Threat     ThreatMap
	Hotspots   []Hotspot
	Roles      map[string]Role
	Intent     Intent
	Opening    OpeningState
	Endgame    EndgameState
	Opponent   OpponentModel
	Reserve    int

	book *OpeningBook
}

// ContextInput collects what BuildContext needs besides the snapshot.
type ContextInput struct {
	Difficulty Difficulty
	Profile    Profile
	Side       core.PlayerID
	Opponent   OpponentModel
	// Plan is the opening plan carried over from earlier turns; PlanNone
	// lets the book choose.
	Plan OpeningPlan
	Book *OpeningBook
}

// BuildContext derives intent, threat, roles, reserve, hotspots, opening and
// endgame state for in.Side. The profile's reserve delta is already applied.
func BuildContext(state *core.GameState, in ContextInput) *Context {
	book := in.Book
	if book == nil {
		book = defaultBook
	}
	opp := in.Opponent
	if opp.Hotspots == nil {
		opp = NewOpponentModel()
	}

	endgame := EvaluateEndgame(state, in.Side)
	intent := DeriveIntent(state, in.Side, opp)
	ctx := &Context{
		Difficulty: in.Difficulty,
		Profile:    in.Profile,
		Side:       in.Side,
		Turn:       state.TurnCount,
		Threat:     BuildThreatMap(state, in.Side, in.Difficulty),
		Hotspots:   topHotspots(opp),
		Roles:      AssignRoles(state, in.Side, intent, opp),
		Intent:     intent,
		Opening:    DetectOpening(state, book, in.Difficulty, in.Profile, opp, in.Side, in.Plan, endgame),
		Endgame:    endgame,
		Opponent:   opp,
		book:       book,
	}
	reserve := ReserveEnergy(state, intent, in.Difficulty, in.Side)
	ctx.Reserve = max(0, reserve+int(in.Profile.Tuning().ReserveEnergyDelta))
	return ctx
}

// RoleOf is nil-safe.
func (c *Context) RoleOf(unitID string) (Role, bool) {
	if c == nil {
		return 0, false
	}
	r, ok := c.Roles[unitID]
	return r, ok
}

// ThreatMap returns nil without a context.
func (c *Context) ThreatMap() *ThreatMap {
	if c == nil {
		return nil
	}
	return &c.Threat
}

// DeriveIntent picks the side's strategic goal; the first matching case wins.
func DeriveIntent(state *core.GameState, side core.PlayerID, opp OpponentModel) Intent {
	enemy := side.Opponent()
	if state.FlagCarrier(enemy) != nil {
		return HuntFlagCarrier
	}
	if state.FlagCarrier(side) != nil {
		return PushFlag
	}

	own := state.AliveUnits(side)
	threatened := false
	for _, m := range state.Mines {
		if m.Owner != enemy {
			continue
		}
		for _, u := range own {
			if u.Pos.Manhattan(m.Pos) <= 2 {
				threatened = true
				break
			}
		}
		if threatened {
			break
		}
	}
	if threatened || opp.MinePressure >= 4.5 {
		return ControlMines
	}

	fragile := 0
	for _, u := range own {
		if u.MaxHP > 0 && u.HPRatio() <= 0.45 {
			fragile++
		}
	}
	if fragile >= 2 || state.Players[side].Energy <= 12 || opp.Aggression >= 5.5 {
		return Stabilize
	}
	if opp.FlagRush >= 5.2 {
		return HuntFlagCarrier
	}
	return PushFlag
}

// BuildThreatMap scores how dangerous each cell is for side.
func BuildThreatMap(state *core.GameState, side core.PlayerID, d Difficulty) ThreatMap {
	enemy := side.Opponent()
	foes := state.AliveUnits(enemy)
	generalRange := 1
	if state.Evolution(enemy, core.General).A >= 2 {
		generalRange = 2
	}
	scale := 1.0
	if d >= 0 && d < difficultyCount {
		scale = ThreatScale[d]
	}

	var m ThreatMap
	for r := 0; r < core.Rows; r++ {
		for c := 0; c < core.Cols; c++ {
			cell := core.Coordinate{R: r, C: c}
			if state.Grid.IsObstacle(cell) {
				m[r][c] = obstacleRisk
				continue
			}
			risk := 0.0
			for _, mine := range state.Mines {
				if mine.Owner != enemy {
					continue
				}
				if mine.Pos == cell {
					risk += 90
					break
				}
			}
			for _, mine := range state.Mines {
				if mine.Owner == enemy && mine.Type == core.MineNuke && mine.Pos.Chebyshev(cell) <= 1 {
					risk += 65
					break
				}
			}
			for _, u := range foes {
				dist := u.Pos.Manhattan(cell)
				switch {
				case dist <= 1:
					risk += 9
				case dist == 2:
					risk += 4
				}
				if u.Type == core.General && u.Pos.SharesLine(cell) && dist <= generalRange {
					risk += 16
				}
			}
			m[r][c] = risk * scale
		}
	}
	return m
}

// ReserveEnergy is the energy the side tries to keep unspent, before
// profile tuning.
func ReserveEnergy(state *core.GameState, intent Intent, d Difficulty, side core.PlayerID) int {
	reserve := 6.0
	if d >= 0 && d < difficultyCount {
		reserve = ReserveBase[d]
	}
	switch intent {
	case HuntFlagCarrier, Stabilize:
		reserve += 2
	case PushFlag, ControlMines:
		reserve += 1
	}
	capped := max(0, int(math.Floor(float64(state.Players[side].Energy)*0.55)))
	return min(int(reserve), capped)
}

func topHotspots(opp OpponentModel) []Hotspot {
	out := make([]Hotspot, 0, len(opp.Hotspots))
	for pos, w := range opp.Hotspots {
		if !pos.InBounds() {
			continue
		}
		out = append(out, Hotspot{Pos: pos, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Pos.ToIndex() < out[j].Pos.ToIndex()
	})
	if len(out) > maxHotspots {
		out = out[:maxHotspots]
	}
	return out
}

// HotspotPressure sums w/(d+1) over hotspots within Manhattan radius.
func HotspotPressure(ctx *Context, cell core.Coordinate, radius int) float64 {
	if ctx == nil {
		return 0
	}
	sum := 0.0
	for _, h := range ctx.Hotspots {
		d := h.Pos.Manhattan(cell)
		if d > radius {
			continue
		}
		sum += h.Weight / float64(d+1)
	}
	return sum
}

// EvaluateTargetCellRisk is the danger of unit stepping onto cell. Blocked
// cells score obstacleRisk. With a nil threat map, mines are checked
// directly.
func EvaluateTargetCellRisk(state *core.GameState, u *core.Unit, cell core.Coordinate, threat *ThreatMap) float64 {
	if !cell.InBounds() || state.Grid.IsObstacle(cell) || state.Occupied(cell) {
		return obstacleRisk
	}
	enemy := u.Owner.Opponent()

	risk := 0.0
	if threat != nil {
		risk = threat.At(cell)
	} else {
		for _, m := range state.Mines {
			if m.Owner != u.Owner && m.Pos == cell {
				risk += 90
				break
			}
		}
		for _, m := range state.Mines {
			if m.Owner != u.Owner && m.Type == core.MineNuke &&
				m.Pos.Chebyshev(cell) <= 1 && m.Pos.Chebyshev(u.Pos) > 1 {
				risk += 70
				break
			}
		}
	}

	if state.Evolution(enemy, core.General).B3(2) {
		flag := state.Players[enemy].FlagPosition
		if u.Pos.Chebyshev(flag) > 1 && cell.Chebyshev(flag) <= 1 {
			risk += 18
		}
	}

	adjacent := 0
	for _, e := range state.AliveUnits(enemy) {
		if e.Pos.Chebyshev(cell) <= 1 {
			adjacent++
		}
	}
	if adjacent > 0 {
		per := 7.0
		if u.HPRatio() < 0.5 {
			per = 12
		}
		risk += float64(adjacent) * per
	}
	return risk
}
