package states

import (
	"fmt"
	"sync"
	"time"

	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// State represents a decision phase with lifecycle callbacks
type State interface {
	// Phase returns the DecisionPhase this state represents
	Phase() DecisionPhase

	// Enter is called when transitioning into this state
	Enter(ctx *CycleContext) error

	// Exit is called when transitioning out of this state
	Exit(ctx *CycleContext) error

	// Validate checks if the state is valid given the context
	Validate(ctx *CycleContext) error
}

// Transition represents a state transition in the history
type Transition struct {
	From      DecisionPhase
	To        DecisionPhase
	Timestamp time.Time
	Reason    string
}

// StateMachine guards the phases of one agent's decision cycle
type StateMachine struct {
	mu             sync.RWMutex
	currentPhase   DecisionPhase
	states         map[DecisionPhase]State
	context        *CycleContext
	history        []Transition
	maxHistorySize int
	publisher      events.Publisher
	now            func() time.Time
}

// NewStateMachine creates a new state machine in PhaseIdle. A nil
// publisher disables transition events.
func NewStateMachine(ctx *CycleContext, publisher events.Publisher) *StateMachine {
	sm := &StateMachine{
		currentPhase:   PhaseIdle,
		states:         make(map[DecisionPhase]State),
		context:        ctx,
		history:        make([]Transition, 0, 64),
		maxHistorySize: 256,
		publisher:      publisher,
		now:            time.Now,
	}

	sm.RegisterState(NewIdleState())
	sm.RegisterState(NewContextBuildingState())
	sm.RegisterState(NewUnitSelectionState())
	sm.RegisterState(NewActionExecutionState())
	sm.RegisterState(NewFollowUpCheckState())
	sm.RegisterState(NewTurnCompleteState())

	return sm
}

// SetTimeSource replaces the clock used for transition timestamps.
func (sm *StateMachine) SetTimeSource(now func() time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.now = now
}

// RegisterState registers a state implementation
func (sm *StateMachine) RegisterState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[state.Phase()] = state
}

// CurrentPhase returns the current decision phase
func (sm *StateMachine) CurrentPhase() DecisionPhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase
}

// TransitionTo attempts to transition to the specified phase
func (sm *StateMachine) TransitionTo(targetPhase DecisionPhase, reason string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.currentPhase.CanTransitionTo(targetPhase) {
		return fmt.Errorf("invalid transition from %s to %s", sm.currentPhase, targetPhase)
	}
	return sm.transitionLocked(targetPhase, reason)
}

func (sm *StateMachine) transitionLocked(targetPhase DecisionPhase, reason string) error {
	currentState, hasCurrentState := sm.states[sm.currentPhase]
	targetState, hasTargetState := sm.states[targetPhase]

	if !hasTargetState {
		return fmt.Errorf("no state implementation for phase %s", targetPhase)
	}

	if err := targetState.Validate(sm.context); err != nil {
		return fmt.Errorf("target state validation failed: %w", err)
	}

	if hasCurrentState {
		if err := currentState.Exit(sm.context); err != nil {
			sm.context.Logger.Error().
				Err(err).
				Str("from_phase", sm.currentPhase.String()).
				Str("to_phase", targetPhase.String()).
				Msg("Error exiting state")
			// Continue with transition despite exit error
		}
	}

	sm.addToHistory(Transition{
		From:      sm.currentPhase,
		To:        targetPhase,
		Timestamp: sm.now(),
		Reason:    reason,
	})

	previousPhase := sm.currentPhase
	sm.currentPhase = targetPhase

	if err := targetState.Enter(sm.context); err != nil {
		// Rollback on enter failure
		sm.currentPhase = previousPhase
		return fmt.Errorf("failed to enter state %s: %w", targetPhase, err)
	}

	if sm.publisher != nil {
		sm.publisher.Publish(events.NewStateTransitionEvent(
			sm.context.MatchID,
			previousPhase.String(),
			targetPhase.String(),
			reason,
		))
	}

	sm.context.Logger.Trace().
		Str("from_phase", previousPhase.String()).
		Str("to_phase", targetPhase.String()).
		Str("reason", reason).
		Msg("State transition completed")

	return nil
}

// addToHistory adds a transition to the history, maintaining max size
func (sm *StateMachine) addToHistory(transition Transition) {
	sm.history = append(sm.history, transition)

	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
}

// GetHistory returns a copy of the transition history
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	history := make([]Transition, len(sm.history))
	copy(history, sm.history)
	return history
}

// GetContext returns the cycle context
func (sm *StateMachine) GetContext() *CycleContext {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.context
}

// CanTransitionTo checks if a transition to the target phase is allowed
func (sm *StateMachine) CanTransitionTo(targetPhase DecisionPhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase.CanTransitionTo(targetPhase)
}

// Reset abandons the cycle in flight and returns to PhaseIdle. It is a
// no-op when already idle.
func (sm *StateMachine) Reset(reason string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.currentPhase == PhaseIdle {
		return nil
	}
	return sm.transitionLocked(PhaseIdle, reason)
}
