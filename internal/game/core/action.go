package core

import (
	"fmt"
	"strings"
)

// ActionType enumerates everything a unit can do in one step.
type ActionType int

const (
	ActionMove ActionType = iota
	ActionAttack
	ActionScan
	ActionSensorScan
	ActionPlaceMine
	ActionPlaceTower
	ActionPlaceFactory
	ActionPlaceHub
	ActionTeleport
	ActionDetonateTower
	ActionThrowMine
	ActionPickupMine
	ActionDropMine
	ActionMoveMine
	ActionConvertMine
	ActionDisarm
	ActionEvolveA
	ActionEvolveA1
	ActionEvolveA2
	ActionEvolveB
	ActionEvolveB1
	ActionEvolveB2
	ActionPickupFlag
	ActionDropFlag
	ActionEndTurn

	ActionTypeCount
)

var actionNames = [ActionTypeCount]string{
	ActionMove:          "move",
	ActionAttack:        "attack",
	ActionScan:          "scan",
	ActionSensorScan:    "sensor_scan",
	ActionPlaceMine:     "place_mine",
	ActionPlaceTower:    "place_tower",
	ActionPlaceFactory:  "place_factory",
	ActionPlaceHub:      "place_hub",
	ActionTeleport:      "teleport",
	ActionDetonateTower: "detonate_tower",
	ActionThrowMine:     "throw_mine",
	ActionPickupMine:    "pickup_mine",
	ActionDropMine:      "drop_mine",
	ActionMoveMine:      "move_mine",
	ActionConvertMine:   "convert_mine",
	ActionDisarm:        "disarm",
	ActionEvolveA:       "evolve_a",
	ActionEvolveA1:      "evolve_a_1",
	ActionEvolveA2:      "evolve_a_2",
	ActionEvolveB:       "evolve_b",
	ActionEvolveB1:      "evolve_b_1",
	ActionEvolveB2:      "evolve_b_2",
	ActionPickupFlag:    "pickup_flag",
	ActionDropFlag:      "drop_flag",
	ActionEndTurn:       "end_turn",
}

func (a ActionType) String() string {
	if a < 0 || a >= ActionTypeCount {
		return fmt.Sprintf("ActionType(%d)", int(a))
	}
	return actionNames[a]
}

// ParseActionType converts the snake_case wire name into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range actionNames {
		if name == s {
			return ActionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// TargetKind is the shape of target an action type requires.
func (a ActionType) TargetKind() TargetKind {
	switch a {
	case ActionAttack:
		return TargetUnit
	case ActionMove, ActionScan, ActionSensorScan, ActionPlaceMine, ActionPlaceTower,
		ActionPlaceFactory, ActionPlaceHub, ActionTeleport, ActionThrowMine,
		ActionPickupMine, ActionDropMine, ActionMoveMine, ActionConvertMine, ActionDisarm:
		return TargetCell
	default:
		return TargetNone
	}
}

func (a ActionType) IsEvolve() bool {
	return a >= ActionEvolveA && a <= ActionEvolveB2
}

// EvolveBranch returns the branch an evolve action advances.
func (a ActionType) EvolveBranch() Branch {
	if a >= ActionEvolveB && a <= ActionEvolveB2 {
		return BranchB
	}
	return BranchA
}

// EvolveVariant is 1 or 2 for the level-3 variant actions and 0 otherwise.
func (a ActionType) EvolveVariant() int {
	switch a {
	case ActionEvolveA1, ActionEvolveB1:
		return 1
	case ActionEvolveA2, ActionEvolveB2:
		return 2
	}
	return 0
}

// IsRepositioning covers actions that change where the acting unit stands.
func (a ActionType) IsRepositioning() bool {
	return a == ActionMove || a == ActionTeleport
}

// TargetKind discriminates the Target variant.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetCell
	TargetUnit
	TargetMine
)

func (k TargetKind) String() string {
	switch k {
	case TargetCell:
		return "cell"
	case TargetUnit:
		return "unit"
	case TargetMine:
		return "mine"
	default:
		return "none"
	}
}

// Target is a tagged variant: only the field selected by Kind is meaningful.
type Target struct {
	Kind   TargetKind
	Cell   Coordinate
	UnitID string
	Mine   MineType
}

func NoTarget() Target { return Target{Kind: TargetNone} }

func CellTarget(c Coordinate) Target { return Target{Kind: TargetCell, Cell: c} }

func UnitTarget(id string) Target { return Target{Kind: TargetUnit, UnitID: id} }

func MineTarget(kind MineType) Target { return Target{Kind: TargetMine, Mine: kind} }

// Position resolves the target to a grid coordinate. Unit targets are looked
// up in state; ok is false when the target has no position.
func (t Target) Position(state *GameState) (Coordinate, bool) {
	switch t.Kind {
	case TargetCell:
		return t.Cell, true
	case TargetUnit:
		if state == nil {
			return Coordinate{}, false
		}
		if u := state.Unit(t.UnitID); u != nil {
			return u.Pos, true
		}
	}
	return Coordinate{}, false
}

func (t Target) String() string {
	switch t.Kind {
	case TargetCell:
		return t.Cell.String()
	case TargetUnit:
		return "unit:" + t.UnitID
	case TargetMine:
		return "mine:" + t.Mine.String()
	default:
		return "-"
	}
}

// Command is a fully specified request to apply one action for one unit.
type Command struct {
	Player   PlayerID
	UnitID   string
	Type     ActionType
	Target   Target
	Source   *Coordinate
	MineType MineType
}

// Validate checks the structural shape of the command, not its legality.
func (c *Command) Validate() error {
	if c.Player != P1 && c.Player != P2 {
		return ErrInvalidPlayer
	}
	if c.UnitID == "" {
		return ErrUnitNotFound
	}
	if c.Type < 0 || c.Type >= ActionTypeCount {
		return ErrIllegalAction
	}
	if c.Target.Kind != c.Type.TargetKind() {
		return ErrTargetKind
	}
	if c.Target.Kind == TargetCell && !c.Target.Cell.InBounds() {
		return ErrInvalidCoordinates
	}
	if c.Type == ActionMoveMine && (c.Source == nil || !c.Source.InBounds()) {
		return ErrInvalidCoordinates
	}
	return nil
}

func (c Command) String() string {
	s := fmt.Sprintf("%s %s %s", c.UnitID, c.Type, c.Target)
	if c.Type == ActionPlaceMine {
		s += " " + c.MineType.String()
	}
	if c.Source != nil {
		s += " from " + c.Source.String()
	}
	return s
}
