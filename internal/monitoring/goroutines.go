package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// QueueProbe reports the depth of a work queue, such as a match scheduler.
type QueueProbe interface {
	Len() int
}

// Config holds the monitor thresholds
type Config struct {
	Interval           time.Duration
	GoroutineThreshold int
	QueueThreshold     int
	AlertCooldown      time.Duration
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() Config {
	return Config{
		Interval:           30 * time.Second,
		GoroutineThreshold: 1000,
		QueueThreshold:     64,
		AlertCooldown:      5 * time.Minute,
	}
}

// GoroutineMonitor tracks goroutine counts and scheduler queue depths and
// warns when either crosses its threshold.
type GoroutineMonitor struct {
	mu         sync.RWMutex
	config     Config
	baseline   int
	current    int
	peak       int
	lastAlert  map[string]time.Time
	stopChan   chan struct{}
	stopOnce   sync.Once
	probes     map[string]QueueProbe
	queueDepth map[string]int
	queuePeak  map[string]int
	alerts     int
	logger     zerolog.Logger
}

// NewGoroutineMonitor creates a new goroutine monitor
func NewGoroutineMonitor(config Config, logger zerolog.Logger) *GoroutineMonitor {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.GoroutineThreshold <= 0 {
		config.GoroutineThreshold = def.GoroutineThreshold
	}
	if config.QueueThreshold <= 0 {
		config.QueueThreshold = def.QueueThreshold
	}
	if config.AlertCooldown < 0 {
		config.AlertCooldown = 0
	}

	baseline := runtime.NumGoroutine()
	return &GoroutineMonitor{
		config:     config,
		baseline:   baseline,
		current:    baseline,
		peak:       baseline,
		lastAlert:  make(map[string]time.Time),
		stopChan:   make(chan struct{}),
		probes:     make(map[string]QueueProbe),
		queueDepth: make(map[string]int),
		queuePeak:  make(map[string]int),
		logger:     logger.With().Str("component", "monitor").Logger(),
	}
}

// Start begins monitoring
func (gm *GoroutineMonitor) Start() {
	go gm.monitor()
	gm.logger.Info().
		Int("baseline", gm.baseline).
		Dur("interval", gm.config.Interval).
		Msg("Started goroutine monitoring")
}

// Stop stops the monitor
func (gm *GoroutineMonitor) Stop() {
	gm.stopOnce.Do(func() { close(gm.stopChan) })
}

// monitor is the main monitoring loop
func (gm *GoroutineMonitor) monitor() {
	defer func() {
		if r := recover(); r != nil {
			gm.logger.Error().
				Interface("panic", r).
				Msg("Goroutine monitor panicked - restarting")
			time.Sleep(5 * time.Second)
			go gm.monitor()
		}
	}()

	ticker := time.NewTicker(gm.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.Check()
		case <-gm.stopChan:
			return
		}
	}
}

// Watch registers a queue to sample on every check
func (gm *GoroutineMonitor) Watch(name string, probe QueueProbe) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.probes[name] = probe
}

// Unwatch stops sampling a queue
func (gm *GoroutineMonitor) Unwatch(name string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	delete(gm.probes, name)
	delete(gm.queueDepth, name)
}

// Check samples goroutines and queues once and logs alerts. It returns the
// number of alerts raised by this check.
func (gm *GoroutineMonitor) Check() int {
	current := runtime.NumGoroutine()
	now := time.Now()

	gm.mu.Lock()
	gm.current = current
	if current > gm.peak {
		gm.peak = current
	}
	growth := current - gm.baseline
	growthRate := 0.0
	if gm.baseline > 0 {
		growthRate = float64(growth) / float64(gm.baseline) * 100
	}

	type queueAlert struct {
		name  string
		depth int
	}
	var queueAlerts []queueAlert
	for name, probe := range gm.probes {
		depth := probe.Len()
		gm.queueDepth[name] = depth
		if depth > gm.queuePeak[name] {
			gm.queuePeak[name] = depth
		}
		if depth > gm.config.QueueThreshold && gm.cooledDown("queue:"+name, now) {
			queueAlerts = append(queueAlerts, queueAlert{name, depth})
		}
	}
	goroutineAlert := current > gm.config.GoroutineThreshold && gm.cooledDown("goroutines", now)
	raised := len(queueAlerts)
	if goroutineAlert {
		raised++
	}
	gm.alerts += raised
	peak := gm.peak
	gm.mu.Unlock()

	gm.logger.Debug().
		Int("current", current).
		Int("baseline", gm.baseline).
		Int("peak", peak).
		Float64("growth_rate", growthRate).
		Msg("Goroutine metrics")

	if goroutineAlert {
		gm.logger.Warn().
			Int("current", current).
			Int("threshold", gm.config.GoroutineThreshold).
			Float64("growth_rate", growthRate).
			Msg("High goroutine count detected - possible leak")
	}
	sort.Slice(queueAlerts, func(i, j int) bool { return queueAlerts[i].name < queueAlerts[j].name })
	for _, qa := range queueAlerts {
		gm.logger.Warn().
			Str("queue", qa.name).
			Int("depth", qa.depth).
			Int("threshold", gm.config.QueueThreshold).
			Msg("Scheduler queue backing up")
	}
	return raised
}

// cooledDown must be called with gm.mu held.
func (gm *GoroutineMonitor) cooledDown(key string, now time.Time) bool {
	if last, ok := gm.lastAlert[key]; ok && now.Sub(last) < gm.config.AlertCooldown {
		return false
	}
	gm.lastAlert[key] = now
	return true
}

// GetMetrics returns current metrics
func (gm *GoroutineMonitor) GetMetrics() Metrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return Metrics{
		Current:     gm.current,
		Baseline:    gm.baseline,
		Peak:        gm.peak,
		Growth:      gm.current - gm.baseline,
		QueueDepths: copyMap(gm.queueDepth),
		QueuePeaks:  copyMap(gm.queuePeak),
		Alerts:      gm.alerts,
	}
}

// Metrics contains goroutine and queue statistics
type Metrics struct {
	Current     int            `json:"current"`
	Baseline    int            `json:"baseline"`
	Peak        int            `json:"peak"`
	Growth      int            `json:"growth"`
	QueueDepths map[string]int `json:"queue_depths"`
	QueuePeaks  map[string]int `json:"queue_peaks"`
	Alerts      int            `json:"alerts"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
