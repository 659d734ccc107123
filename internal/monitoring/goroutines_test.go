package monitoring

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/tacticsai/internal/scheduler"
)

type fakeQueue struct{ n int }

func (q *fakeQueue) Len() int { return q.n }

func TestNewGoroutineMonitor_Defaults(t *testing.T) {
	gm := NewGoroutineMonitor(Config{}, zerolog.Nop())
	assert.Equal(t, DefaultConfig().Interval, gm.config.Interval)
	assert.Equal(t, DefaultConfig().GoroutineThreshold, gm.config.GoroutineThreshold)
	assert.Equal(t, DefaultConfig().QueueThreshold, gm.config.QueueThreshold)
	assert.Positive(t, gm.GetMetrics().Baseline)
}

func TestGoroutineMonitor_QueueAlerts(t *testing.T) {
	tests := []struct {
		name       string
		depth      int
		threshold  int
		wantAlerts int
	}{
		{name: "below threshold", depth: 3, threshold: 10, wantAlerts: 0},
		{name: "at threshold", depth: 10, threshold: 10, wantAlerts: 0},
		{name: "above threshold", depth: 11, threshold: 10, wantAlerts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := NewGoroutineMonitor(Config{
				QueueThreshold:     tt.threshold,
				GoroutineThreshold: 1 << 20,
				AlertCooldown:      time.Hour,
			}, zerolog.Nop())
			gm.Watch("p1", &fakeQueue{n: tt.depth})

			assert.Equal(t, tt.wantAlerts, gm.Check())
			m := gm.GetMetrics()
			assert.Equal(t, tt.depth, m.QueueDepths["p1"])
			assert.Equal(t, tt.wantAlerts, m.Alerts)
		})
	}
}

func TestGoroutineMonitor_AlertCooldown(t *testing.T) {
	gm := NewGoroutineMonitor(Config{
		QueueThreshold:     1,
		GoroutineThreshold: 1 << 20,
		AlertCooldown:      time.Hour,
	}, zerolog.Nop())
	q := &fakeQueue{n: 5}
	gm.Watch("match", q)

	assert.Equal(t, 1, gm.Check())
	assert.Equal(t, 0, gm.Check(), "second alert suppressed during cooldown")

	q.n = 2
	gm.Check()
	assert.Equal(t, 5, gm.GetMetrics().QueuePeaks["match"])
	assert.Equal(t, 2, gm.GetMetrics().QueueDepths["match"])
}

func TestGoroutineMonitor_GoroutineThreshold(t *testing.T) {
	gm := NewGoroutineMonitor(Config{GoroutineThreshold: 1, AlertCooldown: 0}, zerolog.Nop())
	assert.Equal(t, 1, gm.Check())
	assert.Equal(t, 1, gm.Check())
	assert.GreaterOrEqual(t, gm.GetMetrics().Peak, 1)
}

func TestGoroutineMonitor_WatchesScheduler(t *testing.T) {
	clock := scheduler.NewManualClock(time.Unix(0, 0))
	sched := scheduler.New(clock, zerolog.Nop())
	for i := 0; i < 3; i++ {
		sched.After(time.Second, func() {})
	}

	gm := NewGoroutineMonitor(DefaultConfig(), zerolog.Nop())
	gm.Watch("p1", sched)
	gm.Check()
	assert.Equal(t, 3, gm.GetMetrics().QueueDepths["p1"])

	gm.Unwatch("p1")
	gm.Check()
	_, ok := gm.GetMetrics().QueueDepths["p1"]
	assert.False(t, ok)
}

func TestGoroutineMonitor_StartStop(t *testing.T) {
	gm := NewGoroutineMonitor(Config{Interval: time.Millisecond}, zerolog.Nop())
	gm.Start()
	time.Sleep(5 * time.Millisecond)
	gm.Stop()
	gm.Stop()
}
