package subscribers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypeDecisionMade))
	assert.True(t, logSub.InterestedIn(events.TypeMatchEnded))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)
	meta := events.EventMetadata{Side: core.P2, Turn: 5, CycleID: "cycle-1"}

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name: "DecisionMadeEvent",
			event: events.NewDecisionMadeEvent("test-match-1", meta, 1, false, ai.DecisionReport{
				UnitID: "p2-general",
				Action: core.ActionAttack,
				Target: core.UnitTarget("p1-maker"),
				Score:  12.5,
			}),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "P2", logLine["side"])
				assert.Equal(t, float64(5), logLine["turn"])
				assert.Equal(t, "cycle-1", logLine["cycle_id"])
				assert.Equal(t, float64(1), logLine["attempt"])
				assert.Equal(t, "p2-general", logLine["unit"])
				assert.Equal(t, "attack", logLine["action"])
			},
		},
		{
			name:  "ActionRejectedEvent",
			event: events.NewActionRejectedEvent("test-match-1", meta, "p2-maker", core.ActionMove, 2, "no change observed"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "p2-maker", logLine["unit"])
				assert.Equal(t, "move", logLine["action"])
				assert.Equal(t, "no change observed", logLine["reason"])
			},
		},
		{
			name:  "BudgetExceededEvent",
			event: events.NewBudgetExceededEvent("test-match-1", meta, "p2-maker", 1500*time.Millisecond, 1200*time.Millisecond),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(1500), logLine["elapsed"])
				assert.Equal(t, float64(1200), logLine["budget"])
			},
		},
		{
			name:  "MatchEndedEvent",
			event: events.NewMatchEndedEvent("test-match-1", core.P1, true, 42, 5*time.Minute),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "P1", logLine["winner"])
				assert.Equal(t, true, logLine["decided"])
				assert.Equal(t, float64(42), logLine["final_turn"])
				assert.Equal(t, float64(300000), logLine["duration"]) // 5 minutes in ms
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			logOutput := buf.String()
			require.NotEmpty(t, logOutput, "Log output should not be empty")

			var logLine map[string]interface{}
			err := json.Unmarshal([]byte(logOutput), &logLine)
			require.NoError(t, err, "Should be able to parse log output as JSON")

			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, "Decision event", logLine["message"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, "test-match-1", logLine["match_id"])

			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	logSub := subscribers.NewLoggerSubscriber("filtered-logger", zerolog.Nop(), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeDecisionMade, events.TypeMatchEnded})

	assert.True(t, logSub.InterestedIn(events.TypeDecisionMade))
	assert.True(t, logSub.InterestedIn(events.TypeMatchEnded))
	assert.False(t, logSub.InterestedIn(events.TypeStateTransition))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeStateTransition))
}

func TestLoggerSubscriberDevMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("dev-logger", zerolog.New(&buf), zerolog.DebugLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewFeintEvent("m", events.EventMetadata{}, "p1-sweeper", core.ActionScan, 3))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
	assert.Equal(t, "debug", logLine["level"])
	data, ok := logLine["event_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["SourceRank"])
}
