package states

import "errors"

var (
	errNoCycle   = errors.New("no decision cycle in progress")
	errNoUnit    = errors.New("no unit selected")
	errNoActions = errors.New("follow-up requires an applied action")
)

// IdleState waits for the next observation that grants the agent a turn
type IdleState struct{}

func NewIdleState() State { return &IdleState{} }

func (s *IdleState) Phase() DecisionPhase { return PhaseIdle }

func (s *IdleState) Enter(ctx *CycleContext) error {
	ctx.Clear()
	return nil
}

func (s *IdleState) Exit(ctx *CycleContext) error { return nil }

func (s *IdleState) Validate(ctx *CycleContext) error { return nil }

// ContextBuildingState updates memory and builds the planning context
type ContextBuildingState struct{}

func NewContextBuildingState() State { return &ContextBuildingState{} }

func (s *ContextBuildingState) Phase() DecisionPhase { return PhaseContextBuilding }

func (s *ContextBuildingState) Enter(ctx *CycleContext) error {
	ctx.Logger.Debug().
		Str("cycle_id", ctx.CycleID).
		Int("turn", ctx.Turn).
		Msg("Decision cycle started")
	return nil
}

func (s *ContextBuildingState) Exit(ctx *CycleContext) error { return nil }

func (s *ContextBuildingState) Validate(ctx *CycleContext) error {
	if ctx.CycleID == "" {
		return errNoCycle
	}
	return nil
}

// UnitSelectionState picks the acting unit and ranks its options
type UnitSelectionState struct{}

func NewUnitSelectionState() State { return &UnitSelectionState{} }

func (s *UnitSelectionState) Phase() DecisionPhase { return PhaseUnitSelection }

func (s *UnitSelectionState) Enter(ctx *CycleContext) error { return nil }

func (s *UnitSelectionState) Exit(ctx *CycleContext) error { return nil }

func (s *UnitSelectionState) Validate(ctx *CycleContext) error {
	if ctx.CycleID == "" {
		return errNoCycle
	}
	return nil
}

// ActionExecutionState submits ranked actions
type ActionExecutionState struct{}

func NewActionExecutionState() State { return &ActionExecutionState{} }

func (s *ActionExecutionState) Phase() DecisionPhase { return PhaseActionExecution }

func (s *ActionExecutionState) Enter(ctx *CycleContext) error {
	ctx.Logger.Debug().
		Str("cycle_id", ctx.CycleID).
		Str("unit", ctx.UnitID).
		Int("actions", ctx.Actions).
		Msg("Executing")
	return nil
}

func (s *ActionExecutionState) Exit(ctx *CycleContext) error { return nil }

func (s *ActionExecutionState) Validate(ctx *CycleContext) error {
	if ctx.UnitID == "" {
		return errNoUnit
	}
	return nil
}

// FollowUpCheckState decides whether the unit should act again
type FollowUpCheckState struct{}

func NewFollowUpCheckState() State { return &FollowUpCheckState{} }

func (s *FollowUpCheckState) Phase() DecisionPhase { return PhaseFollowUpCheck }

func (s *FollowUpCheckState) Enter(ctx *CycleContext) error { return nil }

func (s *FollowUpCheckState) Exit(ctx *CycleContext) error { return nil }

func (s *FollowUpCheckState) Validate(ctx *CycleContext) error {
	if ctx.Actions == 0 {
		return errNoActions
	}
	return nil
}

// TurnCompleteState records the end of a cycle
type TurnCompleteState struct{}

func NewTurnCompleteState() State { return &TurnCompleteState{} }

func (s *TurnCompleteState) Phase() DecisionPhase { return PhaseTurnComplete }

func (s *TurnCompleteState) Enter(ctx *CycleContext) error {
	ctx.Logger.Debug().
		Str("cycle_id", ctx.CycleID).
		Str("unit", ctx.UnitID).
		Int("actions", ctx.Actions).
		AnErr("last_error", ctx.Err).
		Msg("Decision cycle complete")
	return nil
}

func (s *TurnCompleteState) Exit(ctx *CycleContext) error { return nil }

func (s *TurnCompleteState) Validate(ctx *CycleContext) error { return nil }
