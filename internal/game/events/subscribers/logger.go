package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	// If no filter is set, interested in all events
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("match_id", event.GameID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	// Create the base event log
	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	// Add event-specific fields based on type
	switch e := event.(type) {
	case *events.CycleStartedEvent:
		withMeta(logEvent, e.Metadata)

	case *events.DecisionMadeEvent:
		withMeta(logEvent, e.Metadata).
			Int("attempt", e.Attempt).
			Bool("follow_up", e.FollowUp).
			EmbedObject(e.Report)

	case *events.ActionRejectedEvent:
		withMeta(logEvent, e.Metadata).
			Str("unit", e.UnitID).
			Str("action", e.Action.String()).
			Int("attempt", e.Attempt).
			Str("reason", e.Reason)

	case *events.FeintEvent:
		withMeta(logEvent, e.Metadata).
			Str("unit", e.UnitID).
			Str("action", e.Action.String()).
			Int("source_rank", e.SourceRank)

	case *events.FollowUpEvent:
		withMeta(logEvent, e.Metadata).
			Str("unit", e.UnitID).
			Str("action", e.Action.String()).
			Float64("score", e.Score).
			Bool("accepted", e.Accepted)

	case *events.UnitCompletedEvent:
		withMeta(logEvent, e.Metadata).
			Str("unit", e.UnitID).
			Int("actions", e.Actions).
			Str("reason", e.Reason).
			Dur("elapsed", e.Elapsed)

	case *events.TurnCompletedEvent:
		withMeta(logEvent, e.Metadata)

	case *events.BudgetExceededEvent:
		withMeta(logEvent, e.Metadata).
			Str("unit", e.UnitID).
			Dur("elapsed", e.Elapsed).
			Dur("budget", e.Budget)

	case *events.MemoryResetEvent:
		withMeta(logEvent, e.Metadata).Int("last_turn", e.LastTurn)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from", e.FromPhase).
			Str("to", e.ToPhase).
			Str("reason", e.Reason)

	case *events.MatchStartedEvent:
		logEvent.
			Int("obstacles", e.Obstacles).
			Int64("seed", e.Seed)

	case *events.RoundAdvancedEvent:
		logEvent.
			Int("turn", e.Turn).
			Str("player", e.Player.String()).
			Int("energy", e.Energy)

	case *events.MatchEndedEvent:
		logEvent.
			Str("winner", e.Winner.String()).
			Bool("decided", e.Decided).
			Int("final_turn", e.FinalTurn).
			Dur("duration", e.Duration)
	}

	// In dev mode, also log the full event as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	// Send the log
	logEvent.Msg("Decision event")
}

func withMeta(e *zerolog.Event, m events.EventMetadata) *zerolog.Event {
	return e.
		Str("side", m.Side.String()).
		Int("turn", m.Turn).
		Str("cycle_id", m.CycleID)
}
