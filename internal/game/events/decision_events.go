package events

import (
	"time"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// Event type constants
const (
	TypeCycleStarted    = "decision.cycle_started"
	TypeDecisionMade    = "decision.made"
	TypeActionRejected  = "decision.action_rejected"
	TypeFeint           = "decision.feint"
	TypeFollowUp        = "decision.follow_up"
	TypeUnitCompleted   = "decision.unit_completed"
	TypeTurnCompleted   = "decision.turn_completed"
	TypeBudgetExceeded  = "decision.budget_exceeded"
	TypeMemoryReset     = "decision.memory_reset"
	TypeStateTransition = "state.transition"
	TypeMatchStarted    = "match.started"
	TypeRoundAdvanced   = "match.round_advanced"
	TypeMatchEnded      = "match.ended"
)

func base(eventType, matchID string) BaseEvent {
	return BaseEvent{EventType: eventType, Time: time.Now(), Game: matchID}
}

// CycleStartedEvent is published when the agent begins deciding for a turn.
type CycleStartedEvent struct {
	BaseEvent
	Metadata EventMetadata
}

func NewCycleStartedEvent(matchID string, meta EventMetadata) *CycleStartedEvent {
	return &CycleStartedEvent{BaseEvent: base(TypeCycleStarted, matchID), Metadata: meta}
}

// DecisionMadeEvent carries the full report of an action about to be
// submitted. Attempt counts retries within the unit's ranked list.
type DecisionMadeEvent struct {
	BaseEvent
	Metadata EventMetadata
	Attempt  int
	FollowUp bool
	Report   ai.DecisionReport
}

func NewDecisionMadeEvent(matchID string, meta EventMetadata, attempt int, followUp bool, report ai.DecisionReport) *DecisionMadeEvent {
	return &DecisionMadeEvent{
		BaseEvent: base(TypeDecisionMade, matchID),
		Metadata:  meta,
		Attempt:   attempt,
		FollowUp:  followUp,
		Report:    report,
	}
}

// ActionRejectedEvent is published when a submitted action did not change
// the game.
type ActionRejectedEvent struct {
	BaseEvent
	Metadata EventMetadata
	UnitID   string
	Action   core.ActionType
	Attempt  int
	Reason   string
}

func NewActionRejectedEvent(matchID string, meta EventMetadata, unitID string, action core.ActionType, attempt int, reason string) *ActionRejectedEvent {
	return &ActionRejectedEvent{
		BaseEvent: base(TypeActionRejected, matchID),
		Metadata:  meta,
		UnitID:    unitID,
		Action:    action,
		Attempt:   attempt,
		Reason:    reason,
	}
}

// FeintEvent marks a decision where a lower-ranked action was promoted.
type FeintEvent struct {
	BaseEvent
	Metadata   EventMetadata
	UnitID     string
	Action     core.ActionType
	SourceRank int
}

func NewFeintEvent(matchID string, meta EventMetadata, unitID string, action core.ActionType, sourceRank int) *FeintEvent {
	return &FeintEvent{
		BaseEvent:  base(TypeFeint, matchID),
		Metadata:   meta,
		UnitID:     unitID,
		Action:     action,
		SourceRank: sourceRank,
	}
}

// FollowUpEvent reports the outcome of a follow-up check.
type FollowUpEvent struct {
	BaseEvent
	Metadata EventMetadata
	UnitID   string
	Action   core.ActionType
	Score    float64
	Accepted bool
}

func NewFollowUpEvent(matchID string, meta EventMetadata, unitID string, action core.ActionType, score float64, accepted bool) *FollowUpEvent {
	return &FollowUpEvent{
		BaseEvent: base(TypeFollowUp, matchID),
		Metadata:  meta,
		UnitID:    unitID,
		Action:    action,
		Score:     score,
		Accepted:  accepted,
	}
}

// UnitCompletedEvent is published when the agent hands a unit's turn back.
type UnitCompletedEvent struct {
	BaseEvent
	Metadata EventMetadata
	UnitID   string
	Actions  int
	Reason   string
	Elapsed  time.Duration
}

func NewUnitCompletedEvent(matchID string, meta EventMetadata, unitID string, actions int, reason string, elapsed time.Duration) *UnitCompletedEvent {
	return &UnitCompletedEvent{
		BaseEvent: base(TypeUnitCompleted, matchID),
		Metadata:  meta,
		UnitID:    unitID,
		Actions:   actions,
		Reason:    reason,
		Elapsed:   elapsed,
	}
}

// TurnCompletedEvent is published when the agent ends the whole turn
// because no unit is left to act.
type TurnCompletedEvent struct {
	BaseEvent
	Metadata EventMetadata
}

func NewTurnCompletedEvent(matchID string, meta EventMetadata) *TurnCompletedEvent {
	return &TurnCompletedEvent{BaseEvent: base(TypeTurnCompleted, matchID), Metadata: meta}
}

// BudgetExceededEvent is published when a cycle ran out of decision time.
type BudgetExceededEvent struct {
	BaseEvent
	Metadata EventMetadata
	UnitID   string
	Elapsed  time.Duration
	Budget   time.Duration
}

func NewBudgetExceededEvent(matchID string, meta EventMetadata, unitID string, elapsed, budget time.Duration) *BudgetExceededEvent {
	return &BudgetExceededEvent{
		BaseEvent: base(TypeBudgetExceeded, matchID),
		Metadata:  meta,
		UnitID:    unitID,
		Elapsed:   elapsed,
		Budget:    budget,
	}
}

// MemoryResetEvent is published when a rollback wiped the agent's memory.
type MemoryResetEvent struct {
	BaseEvent
	Metadata EventMetadata
	LastTurn int
}

func NewMemoryResetEvent(matchID string, meta EventMetadata, lastTurn int) *MemoryResetEvent {
	return &MemoryResetEvent{BaseEvent: base(TypeMemoryReset, matchID), Metadata: meta, LastTurn: lastTurn}
}

// StateTransitionEvent is published when a decision cycle changes phase
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

func NewStateTransitionEvent(matchID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: base(TypeStateTransition, matchID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}

// MatchStartedEvent is published when a self-play match is set up.
type MatchStartedEvent struct {
	BaseEvent
	Obstacles int
	Seed      int64
}

func NewMatchStartedEvent(matchID string, obstacles int, seed int64) *MatchStartedEvent {
	return &MatchStartedEvent{BaseEvent: base(TypeMatchStarted, matchID), Obstacles: obstacles, Seed: seed}
}

// RoundAdvancedEvent is published when the turn passes to the other side.
type RoundAdvancedEvent struct {
	BaseEvent
	Turn   int
	Player core.PlayerID
	Energy int
}

func NewRoundAdvancedEvent(matchID string, turn int, player core.PlayerID, energy int) *RoundAdvancedEvent {
	return &RoundAdvancedEvent{
		BaseEvent: base(TypeRoundAdvanced, matchID),
		Turn:      turn,
		Player:    player,
		Energy:    energy,
	}
}

// MatchEndedEvent is published once when a match finishes. Winner is only
// meaningful when Decided is set; a turn-limit draw leaves it false.
type MatchEndedEvent struct {
	BaseEvent
	Winner    core.PlayerID
	Decided   bool
	FinalTurn int
	Duration  time.Duration
}

func NewMatchEndedEvent(matchID string, winner core.PlayerID, decided bool, finalTurn int, duration time.Duration) *MatchEndedEvent {
	return &MatchEndedEvent{
		BaseEvent: base(TypeMatchEnded, matchID),
		Winner:    winner,
		Decided:   decided,
		FinalTurn: finalTurn,
		Duration:  duration,
	}
}
