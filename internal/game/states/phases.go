package states

import "fmt"

// DecisionPhase is where an agent's decision cycle currently stands.
type DecisionPhase int

const (
	// PhaseIdle - no cycle pending
	PhaseIdle DecisionPhase = iota

	// PhaseContextBuilding - memory update and planning context
	PhaseContextBuilding

	// PhaseUnitSelection - picking the unit to act and ranking its actions
	PhaseUnitSelection

	// PhaseActionExecution - submitting ranked actions until one applies
	PhaseActionExecution

	// PhaseFollowUpCheck - deciding whether the unit acts again
	PhaseFollowUpCheck

	// PhaseTurnComplete - the unit's turn was handed back to the host
	PhaseTurnComplete
)

var phaseNames = [...]string{"Idle", "ContextBuilding", "UnitSelection", "ActionExecution", "FollowUpCheck", "TurnComplete"}

// String returns the string representation of a DecisionPhase
func (p DecisionPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
	return phaseNames[p]
}

// IsBusy is true while a cycle is in flight.
func (p DecisionPhase) IsBusy() bool {
	return p != PhaseIdle && p != PhaseTurnComplete
}

// CanSubmitActions returns true if the agent may hand commands to the host
func (p DecisionPhase) CanSubmitActions() bool {
	return p == PhaseActionExecution
}

// AllowedTransitions returns the valid phases this phase can transition to.
// Every busy phase may fall back to Idle when its cycle is cancelled.
func (p DecisionPhase) AllowedTransitions() []DecisionPhase {
	switch p {
	case PhaseIdle:
		return []DecisionPhase{PhaseContextBuilding}
	case PhaseContextBuilding:
		return []DecisionPhase{PhaseUnitSelection, PhaseTurnComplete, PhaseIdle}
	case PhaseUnitSelection:
		return []DecisionPhase{PhaseActionExecution, PhaseTurnComplete, PhaseIdle}
	case PhaseActionExecution:
		return []DecisionPhase{PhaseFollowUpCheck, PhaseTurnComplete, PhaseIdle}
	case PhaseFollowUpCheck:
		return []DecisionPhase{PhaseActionExecution, PhaseTurnComplete, PhaseIdle}
	case PhaseTurnComplete:
		return []DecisionPhase{PhaseIdle}
	default:
		return []DecisionPhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p DecisionPhase) CanTransitionTo(target DecisionPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a DecisionPhase
func ParsePhase(s string) DecisionPhase {
	for i, n := range phaseNames {
		if n == s {
			return DecisionPhase(i)
		}
	}
	return PhaseIdle
}
