package experience

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
)

// CollectorConfig tunes a Collector
type CollectorConfig struct {
	BufferCapacity int
	// FlushThreshold drains the buffer to persistence once it holds this
	// many records. Zero means half the capacity.
	FlushThreshold int
	FlushInterval  time.Duration
	// IncludeFeatures stores a StateFeatures vector on applied records.
	IncludeFeatures bool
}

// DefaultCollectorConfig returns the default collector configuration
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		BufferCapacity:  4096,
		FlushInterval:   5 * time.Second,
		IncludeFeatures: true,
	}
}

// Collector turns decision events and applied commands into trace records.
// It is both an events.Subscriber and a game.ExperienceCollector.
type Collector struct {
	config      CollectorConfig
	buffer      *Buffer
	persistence PersistenceLayer
	serializer  *Serializer
	logger      zerolog.Logger

	mu      sync.Mutex
	matchID string
	flushes int
	errs    int

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewCollector creates a collector writing through persistence. A nil
// persistence keeps everything in memory.
func NewCollector(config CollectorConfig, persistence PersistenceLayer, logger zerolog.Logger) *Collector {
	if persistence == nil {
		persistence = NewNullPersistence()
	}
	buffer := NewBuffer(config.BufferCapacity, logger)
	if config.FlushThreshold <= 0 || config.FlushThreshold > buffer.Capacity() {
		config.FlushThreshold = buffer.Capacity() / 2
	}
	return &Collector{
		config:      config,
		buffer:      buffer,
		persistence: persistence,
		serializer:  NewSerializer(),
		logger:      logger.With().Str("component", "trace_collector").Logger(),
		stop:        make(chan struct{}),
	}
}

// SetMatchID names the match that applied-command records belong to.
// MatchStarted events set it too.
func (c *Collector) SetMatchID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchID = id
}

func (c *Collector) currentMatch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

// ID implements events.Subscriber
func (c *Collector) ID() string { return "trace-collector" }

// InterestedIn implements events.Subscriber
func (c *Collector) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeMatchStarted,
		events.TypeDecisionMade,
		events.TypeActionRejected,
		events.TypeFeint,
		events.TypeFollowUp,
		events.TypeUnitCompleted,
		events.TypeBudgetExceeded,
		events.TypeMatchEnded:
		return true
	}
	return false
}

// HandleEvent implements events.Subscriber
func (c *Collector) HandleEvent(ev events.Event) {
	var rec *Record
	switch e := ev.(type) {
	case *events.MatchStartedEvent:
		c.SetMatchID(e.GameID())
		return
	case *events.DecisionMadeEvent:
		rec = decisionRecord(e)
	case *events.ActionRejectedEvent:
		rec = metaRecord(e, KindRejected, e.Metadata)
		rec.UnitID = e.UnitID
		rec.Action = e.Action.String()
		rec.Attempt = int32(e.Attempt)
		rec.Reason = e.Reason
	case *events.FeintEvent:
		rec = metaRecord(e, KindFeint, e.Metadata)
		rec.UnitID = e.UnitID
		rec.Action = e.Action.String()
		rec.IsFeint = true
		rec.SourceRank = int32(e.SourceRank)
	case *events.FollowUpEvent:
		rec = metaRecord(e, KindFollowUp, e.Metadata)
		rec.UnitID = e.UnitID
		rec.Action = e.Action.String()
		rec.Score = e.Score
		rec.FollowUp = e.Accepted
	case *events.UnitCompletedEvent:
		rec = metaRecord(e, KindUnitCompleted, e.Metadata)
		rec.UnitID = e.UnitID
		rec.Attempt = int32(e.Actions)
		rec.Reason = e.Reason
	case *events.BudgetExceededEvent:
		rec = metaRecord(e, KindBudget, e.Metadata)
		rec.UnitID = e.UnitID
		rec.Reason = e.Elapsed.String()
	case *events.MatchEndedEvent:
		rec = &Record{
			MatchID:   e.GameID(),
			Kind:      KindMatchEnded,
			Turn:      int32(e.FinalTurn),
			Timestamp: e.Timestamp().UnixMilli(),
			Reason:    "draw",
		}
		if e.Decided {
			rec.Side = e.Winner.String()
			rec.Reason = "won"
		}
	default:
		return
	}
	c.add(rec)
}

func metaRecord(ev events.Event, kind string, meta events.EventMetadata) *Record {
	return &Record{
		MatchID:   ev.GameID(),
		CycleID:   meta.CycleID,
		Kind:      kind,
		Side:      meta.Side.String(),
		Turn:      int32(meta.Turn),
		Timestamp: ev.Timestamp().UnixMilli(),
	}
}

func decisionRecord(e *events.DecisionMadeEvent) *Record {
	r := e.Report
	rec := metaRecord(e, KindDecision, e.Metadata)
	rec.UnitID = r.UnitID
	rec.Action = r.Action.String()
	rec.Target = r.Target.String()
	rec.Attempt = int32(e.Attempt)
	rec.FollowUp = e.FollowUp
	rec.Score = r.Score
	if r.Lookahead != nil {
		rec.HasLookahead = true
		rec.Lookahead = *r.Lookahead
	}
	rec.Attack = r.Breakdown.Attack
	rec.Flag = r.Breakdown.Flag
	rec.Safety = r.Breakdown.Safety
	rec.Utility = r.Breakdown.Utility
	rec.Energy = r.Breakdown.Energy
	rec.Intent = r.Intent.String()
	if r.HasRole {
		rec.Role = r.Role.String()
	}
	rec.Profile = r.Profile.String()
	rec.Opening = r.OpeningPlan.String()
	rec.Endgame = r.EndgameMode.String()
	rec.IsFeint = r.IsFeint
	rec.SourceRank = int32(r.SourceRank)
	rec.Rejections = int32(len(r.Rejections))
	return rec
}

// OnAction implements game.ExperienceCollector
func (c *Collector) OnAction(prev, next *core.GameState, cmd core.Command, cost int) {
	if prev == nil || next == nil {
		return
	}
	rec := &Record{
		MatchID:      c.currentMatch(),
		Kind:         KindApplied,
		Side:         cmd.Player.String(),
		Turn:         int32(prev.TurnCount),
		Timestamp:    time.Now().UnixMilli(),
		UnitID:       cmd.UnitID,
		Action:       cmd.Type.String(),
		Target:       cmd.Target.String(),
		Cost:         int32(cost),
		EnergyBefore: int32(prev.Players[cmd.Player].Energy),
		EnergyAfter:  int32(next.Players[cmd.Player].Energy),
		Reward:       CalculateReward(prev, next, cmd.Player),
	}
	if c.config.IncludeFeatures {
		rec.Features = c.serializer.StateFeatures(prev, cmd.Player)
	}
	c.add(rec)
}

// OnGameEnd implements game.ExperienceCollector; it flushes everything
// collected for the match.
func (c *Collector) OnGameEnd(final *core.GameState) {
	if final != nil {
		c.logger.Info().
			Str("match_id", c.currentMatch()).
			Str("winner", final.Winner.String()).
			Int("final_turn", final.TurnCount).
			Int("buffered", c.buffer.Size()).
			Msg("Match ended, flushing traces")
	}
	if err := c.Flush(context.Background()); err != nil {
		c.logger.Error().Err(err).Msg("Final trace flush failed")
	}
}

func (c *Collector) add(rec *Record) {
	if rec.MatchID == "" {
		rec.MatchID = c.currentMatch()
	}
	if err := c.buffer.Add(rec); err != nil {
		c.logger.Debug().Err(err).Str("kind", rec.Kind).Msg("Dropped trace record")
		return
	}
	if c.buffer.Size() >= c.config.FlushThreshold {
		if err := c.Flush(context.Background()); err != nil {
			c.logger.Error().Err(err).Msg("Trace flush failed")
		}
	}
}

// Flush drains the buffer into persistence
func (c *Collector) Flush(ctx context.Context) error {
	records := c.buffer.Drain()
	if len(records) == 0 {
		return nil
	}
	err := c.persistence.Write(ctx, records)

	c.mu.Lock()
	c.flushes++
	if err != nil {
		c.errs++
	}
	c.mu.Unlock()
	return err
}

// Start flushes on FlushInterval until ctx ends or Close is called
func (c *Collector) Start(ctx context.Context) {
	if c.config.FlushInterval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.config.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if err := c.Flush(ctx); err != nil {
					c.logger.Error().Err(err).Msg("Periodic trace flush failed")
				}
			}
		}
	}()
}

// Records returns the records still buffered, oldest first
func (c *Collector) Records() []*Record {
	return c.buffer.GetAll()
}

// Close stops the flush loop, flushes what is left and closes persistence
func (c *Collector) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
		err = c.Flush(context.Background())
		_ = c.buffer.Close()
		if cerr := c.persistence.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// CollectorStats summarises collector activity
type CollectorStats struct {
	Buffer      BufferStats
	Persistence PersistenceStats
	Flushes     int
	FlushErrors int
}

// Stats returns collector statistics
func (c *Collector) Stats() CollectorStats {
	c.mu.Lock()
	flushes, errs := c.flushes, c.errs
	c.mu.Unlock()
	return CollectorStats{
		Buffer:      c.buffer.Stats(),
		Persistence: c.persistence.Stats(),
		Flushes:     flushes,
		FlushErrors: errs,
	}
}
