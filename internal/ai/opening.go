package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/tacticsai/internal/common"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

//go:embed openingbook.yaml
var openingBookYAML []byte

type OpeningPlan int

const (
	PlanNone OpeningPlan = iota
	PlanCenterBreak
	PlanLanePressure
	PlanMineScreen
	PlanScoutProbe
	PlanFortress
	PlanFlagSpear

	planCount
)

var planNames = [planCount]string{"none", "center_break", "lane_pressure", "mine_screen", "scout_probe", "fortress", "flag_spear"}

func (p OpeningPlan) String() string {
	if p < 0 || p >= planCount {
		return fmt.Sprintf("OpeningPlan(%d)", int(p))
	}
	return planNames[p]
}

func ParseOpeningPlan(s string) (OpeningPlan, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range planNames {
		if n == s {
			return OpeningPlan(i), nil
		}
	}
	return PlanNone, fmt.Errorf("unknown opening plan %q", s)
}

// Lane is the part of the board an opening plan steers targets toward.
type Lane int

const (
	LaneCenter Lane = iota
	LaneUpper
	LaneLower
	LaneWide
	LaneFortress
)

var laneNames = map[string]Lane{
	"center":   LaneCenter,
	"upper":    LaneUpper,
	"lower":    LaneLower,
	"wide":     LaneWide,
	"fortress": LaneFortress,
}

// OpeningEnv is what chooser rule conditions can reference.
type OpeningEnv struct {
	MinePressure    float64
	FlagRush        float64
	Profile         string
	Difficulty      string
	CenterObstacles int
	ForwardPressure int
}

type openingRule struct {
	name    string
	src     string
	plan    OpeningPlan
	program *vm.Program
}

// OpeningBook is immutable after loading.
type OpeningBook struct {
	actionBias [planCount][core.ActionTypeCount]float64
	roleBias   [planCount][roleCount]float64
	lanes      [planCount]Lane
	rules      []openingRule
	fallback   OpeningPlan
}

type bookFile struct {
	Plans map[string]struct {
		Lane    string             `yaml:"lane"`
		Actions map[string]float64 `yaml:"actions"`
		Roles   map[string]float64 `yaml:"roles"`
	} `yaml:"plans"`
	Rules []struct {
		Name string `yaml:"name"`
		When string `yaml:"when"`
		Plan string `yaml:"plan"`
	} `yaml:"rules"`
	Default string `yaml:"default"`
}

var defaultBook = mustLoadOpeningBook(openingBookYAML)

func mustLoadOpeningBook(data []byte) *OpeningBook {
	b, err := LoadOpeningBook(data)
	if err != nil {
		panic(fmt.Sprintf("embedded opening book: %v", err))
	}
	return b
}

// DefaultOpeningBook returns the book compiled into the binary.
func DefaultOpeningBook() *OpeningBook { return defaultBook }

// LoadOpeningBook parses a YAML opening book and compiles its chooser rules.
func LoadOpeningBook(data []byte) (*OpeningBook, error) {
	var f bookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse opening book: %w", err)
	}

	b := &OpeningBook{}
	for name, entry := range f.Plans {
		plan, err := ParseOpeningPlan(name)
		if err != nil || plan == PlanNone {
			return nil, fmt.Errorf("opening book plan %q: unknown plan", name)
		}
		lane, ok := laneNames[entry.Lane]
		if !ok {
			return nil, fmt.Errorf("opening book plan %q: unknown lane %q", name, entry.Lane)
		}
		b.lanes[plan] = lane
		for action, v := range entry.Actions {
			at, err := core.ParseActionType(action)
			if err != nil {
				return nil, fmt.Errorf("opening book plan %q: %w", name, err)
			}
			b.actionBias[plan][at] = v
		}
		for role, v := range entry.Roles {
			r, err := ParseRole(role)
			if err != nil {
				return nil, fmt.Errorf("opening book plan %q: %w", name, err)
			}
			b.roleBias[plan][r] = v
		}
	}

	for i, r := range f.Rules {
		plan, err := ParseOpeningPlan(r.Plan)
		if err != nil || plan == PlanNone {
			return nil, fmt.Errorf("opening rule %d (%s): unknown plan %q", i, r.Name, r.Plan)
		}
		prog, err := expr.Compile(r.When, expr.Env(OpeningEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile opening rule %q: %w", r.Name, err)
		}
		b.rules = append(b.rules, openingRule{name: r.Name, src: r.When, plan: plan, program: prog})
	}

	b.fallback = PlanMineScreen
	if f.Default != "" {
		plan, err := ParseOpeningPlan(f.Default)
		if err != nil || plan == PlanNone {
			return nil, fmt.Errorf("opening book default %q: unknown plan", f.Default)
		}
		b.fallback = plan
	}
	return b, nil
}

// CenterObstacles counts obstacles in the four middle columns.
func CenterObstacles(state *core.GameState) int {
	return state.Grid.ObstaclesInColumns(core.Cols/2-2, core.Cols/2+1)
}

// NewOpeningEnv gathers the rule inputs for side.
func NewOpeningEnv(state *core.GameState, d Difficulty, p Profile, opp OpponentModel, side core.PlayerID) OpeningEnv {
	ownFlag := state.Players[side].FlagPosition
	pressure := 0
	for _, u := range state.AliveUnits(side.Opponent()) {
		if u.Pos.Manhattan(ownFlag) <= 7 {
			pressure++
		}
	}
	return OpeningEnv{
		MinePressure:    opp.MinePressure,
		FlagRush:        opp.FlagRush,
		Profile:         p.String(),
		Difficulty:      d.String(),
		CenterObstacles: CenterObstacles(state),
		ForwardPressure: pressure,
	}
}

// Choose returns the plan of the first rule that matches env. A rule that
// fails to evaluate is skipped.
func (b *OpeningBook) Choose(env OpeningEnv) OpeningPlan {
	for _, r := range b.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			continue
		}
		if ok, _ := out.(bool); ok {
			return r.plan
		}
	}
	return b.fallback
}

// ChooseOpeningPlan picks a plan for side from the embedded book.
func ChooseOpeningPlan(state *core.GameState, d Difficulty, p Profile, opp OpponentModel, side core.PlayerID) OpeningPlan {
	return defaultBook.Choose(NewOpeningEnv(state, d, p, opp, side))
}

// DetectOpening decides whether the opening phase still applies. plan is
// the carried plan; PlanNone asks the book for one.
func DetectOpening(state *core.GameState, book *OpeningBook, d Difficulty, p Profile, opp OpponentModel, side core.PlayerID, plan OpeningPlan, endgame EndgameState) OpeningState {
	st := OpeningState{Turn: state.TurnCount}
	carrier := state.FlagCarrier(side) != nil || state.FlagCarrier(side.Opponent()) != nil
	if endgame.Active || carrier || state.TurnCount > 6 {
		return st
	}
	if book == nil {
		book = defaultBook
	}
	if plan == PlanNone {
		plan = book.Choose(NewOpeningEnv(state, d, p, opp, side))
	}
	st.Active = true
	st.Plan = plan
	st.Weight = max(0.22, float64(7-state.TurnCount)/6)
	return st
}

func laneScore(lane Lane, target core.Coordinate, owner core.PlayerID) float64 {
	r, c := float64(target.R), float64(target.C)
	switch lane {
	case LaneCenter:
		cr, cc := float64(core.Rows/2), float64(core.Cols/2)
		return common.Clamp(4-(abs(r-cr)*0.7+abs(c-cc)*0.18), 0, 4)
	case LaneUpper:
		return common.Clamp(3.8-r*0.9, 0, 3.8)
	case LaneLower:
		return common.Clamp(3.8-float64(core.Rows-1-target.R)*0.9, 0, 3.8)
	case LaneFortress:
		backline := 2.0
		if owner == core.P2 {
			backline = float64(core.Cols - 3)
		}
		return common.Clamp(4.2-abs(c-backline)*0.45, 0, 4.2)
	}
	edge := float64(min(target.R, core.Rows-1-target.R))
	return common.Clamp(3.4-edge*0.9, 0, 3.4)
}

// OpeningActionBias is the opening plan's nudge for one action, already
// scaled by the opening weight. target is nil for untargeted actions.
func OpeningActionBias(ctx *Context, unit *core.Unit, action core.ActionType, target *core.Coordinate, mine core.MineType) float64 {
	if ctx == nil || !ctx.Opening.Active || ctx.Opening.Plan == PlanNone {
		return 0
	}
	book := ctx.book
	if book == nil {
		book = defaultBook
	}
	plan := ctx.Opening.Plan

	bonus := book.actionBias[plan][action]
	if role, ok := ctx.RoleOf(unit.ID); ok {
		bonus += book.roleBias[plan][role]
	}

	if target != nil {
		bonus += laneScore(book.lanes[plan], *target, unit.Owner) * 0.65
		if action == core.ActionMove {
			forward := target.C - unit.Pos.C
			if unit.Owner == core.P2 {
				forward = -forward
			}
			if forward > 0 {
				bonus += float64(forward) * 0.55
			}
		}
	}

	if action == core.ActionPlaceMine {
		if plan == PlanMineScreen && mine == core.MineChain {
			bonus += 1.2
		}
		if plan == PlanFortress && (mine == core.MineNormal || mine == core.MineSlow) {
			bonus += 0.9
		}
	}
	if plan == PlanFlagSpear && unit.Type == core.General && action == core.ActionPickupFlag {
		bonus += 1.3
	}
	return bonus * ctx.Opening.Weight
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
