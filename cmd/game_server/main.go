package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/tacticsai/internal/agent"
	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/config"
	"github.com/mitchelldurbincs/tacticsai/internal/experience"
	"github.com/mitchelldurbincs/tacticsai/internal/game"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/monitoring"
	"github.com/mitchelldurbincs/tacticsai/internal/scheduler"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
	"github.com/mitchelldurbincs/tacticsai/internal/spectator"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	games := flag.Int("games", -1, "Number of matches to play (-1 to use config default)")
	seed := flag.Int64("seed", -1, "Seed of the first match, 0 for random (-1 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (empty to use config default)")
	traceDir := flag.String("trace-dir", "", "Write decision traces to this directory")
	spectate := flag.String("spectate", "", "Serve the websocket spectator feed on this address")
	showBoard := flag.Bool("board", false, "Print the final board of every match")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()

	if *games == -1 {
		*games = cfg.SelfPlay.Games
	}
	if *seed == -1 {
		*seed = cfg.SelfPlay.Seed
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}
	if *traceDir != "" {
		cfg.Trace.Enabled = true
		cfg.Trace.Directory = *traceDir
	}
	if *spectate != "" {
		cfg.Server.Spectator.Enabled = true
		cfg.Server.Spectator.Address = *spectate
	}
	setupLogging(*logLevel, cfg.Development.VerboseLogging)

	var settings [core.PlayerCount]agent.Settings
	for _, side := range []core.PlayerID{core.P1, core.P2} {
		s, err := cfg.SelfPlaySettings(side)
		if err != nil {
			log.Fatal().Err(err).Str("side", side.String()).Msg("Invalid agent settings")
		}
		if !cfg.SelfPlay.RealTime {
			s.PacingScale = 0
		}
		settings[side] = s
	}
	book, err := loadBook(cfg.AI.OpeningBook)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load opening book")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := events.NewEventBus(log.Logger)
	if cfg.Development.VerboseLogging {
		bus.Subscribe(subscribers.NewLoggerSubscriber("event-log", log.Logger, zerolog.DebugLevel))
	}

	var collector *experience.Collector
	if cfg.Trace.Enabled {
		store, err := experience.NewPersistence(experience.PersistenceConfig{
			Type:    experience.PersistenceTypeParquet,
			BaseDir: cfg.Trace.Directory,
		}, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open trace store")
		}
		collector = experience.NewCollector(experience.CollectorConfig{
			BufferCapacity:  cfg.Trace.BufferCapacity,
			FlushInterval:   cfg.Trace.FlushInterval,
			IncludeFeatures: true,
		}, store, log.Logger)
		collector.Start(ctx)
		bus.Subscribe(collector)
		defer func() {
			if err := collector.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to flush decision traces")
			}
			log.Info().Interface("stats", collector.Stats()).Msg("Decision traces written")
		}()
	}

	var current atomic.Pointer[selfplay.Match]

	if cfg.Server.Spectator.Enabled {
		hub := spectator.NewHub(log.Logger)
		hub.Snapshot = func() (spectator.Envelope, bool) {
			m := current.Load()
			if m == nil {
				return spectator.Envelope{}, false
			}
			state := m.Engine().Snapshot()
			return spectator.Envelope{
				Type:    "board",
				MatchID: m.Engine().MatchID(),
				Time:    time.Now(),
				Summary: game.RenderBoard(state, core.NoPlayer),
			}, true
		}
		bus.Subscribe(hub)
		srv := &http.Server{Addr: cfg.Server.Spectator.Address, Handler: hub, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("address", srv.Addr).Msg("Spectator feed listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Spectator feed stopped")
			}
		}()
		defer func() {
			hub.Close()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var monitor *monitoring.GoroutineMonitor
	if cfg.Monitoring.Enabled {
		monitor = monitoring.NewGoroutineMonitor(monitoring.Config{
			Interval:           cfg.Monitoring.Interval,
			GoroutineThreshold: cfg.Monitoring.GoroutineThreshold,
			QueueThreshold:     cfg.Monitoring.QueueThreshold,
		}, log.Logger)
		monitor.Start()
		defer monitor.Stop()
	}

	config.WatchConfig(func(next *config.Config) {
		m := current.Load()
		if m == nil {
			return
		}
		s, err := next.AI.AgentSettings()
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring invalid ai settings")
			return
		}
		if !next.SelfPlay.RealTime {
			s.PacingScale = 0
		}
		if err := m.SetSettings(s); err != nil {
			log.Warn().Err(err).Msg("Failed to apply ai settings")
			return
		}
		log.Info().Str("difficulty", s.Difficulty.String()).Str("profile", s.Profile.String()).Msg("Reloaded ai settings")
	})

	var tally [core.PlayerCount]int
	draws := 0
	for i := 0; i < *games; i++ {
		matchCfg := selfplay.DefaultConfig(0)
		if *seed != 0 {
			matchCfg.Seed = *seed + int64(i)
		}
		matchCfg.TurnLimit = cfg.SelfPlay.TurnLimit
		matchCfg.ObstacleDensity = cfg.SelfPlay.ObstacleDensity
		matchCfg.Settings = settings
		matchCfg.Book = book
		matchCfg.EventBus = bus
		if collector != nil {
			matchCfg.Collector = collector
		}
		if cfg.SelfPlay.RealTime {
			matchCfg.Clock = scheduler.SystemClock{}
		}

		m, err := selfplay.NewMatch(ctx, matchCfg, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create match")
		}
		current.Store(m)
		if monitor != nil {
			monitor.Watch("scheduler", m.Scheduler())
		}

		res, err := m.Run(ctx)
		if monitor != nil {
			monitor.Unwatch("scheduler")
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Int("played", i).Msg("Interrupted")
				break
			}
			log.Error().Err(err).Str("match_id", res.MatchID).Msg("Match failed")
			continue
		}

		if res.Decided {
			tally[res.Winner]++
		} else {
			draws++
		}
		if *showBoard {
			fmt.Print(m.Engine().Board(core.NoPlayer))
		}
		logResult(res)
	}

	log.Info().
		Int("p1_wins", tally[core.P1]).
		Int("p2_wins", tally[core.P2]).
		Int("draws", draws).
		Msg("Self-play finished")
}

func loadBook(path string) (*ai.OpeningBook, error) {
	if path == "" {
		return ai.DefaultOpeningBook(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ai.LoadOpeningBook(data)
}

func logResult(res selfplay.Result) {
	ev := log.Info().
		Str("match_id", res.MatchID).
		Bool("decided", res.Decided).
		Int("turns", res.Turns).
		Int("rounds", res.Stats.Rounds).
		Dur("duration", res.Duration)
	for _, side := range []core.PlayerID{core.P1, core.P2} {
		s := res.Stats.Sides[side]
		ev = ev.Dict(side.String(), zerolog.Dict().
			Int("actions", s.Actions).
			Int("energy_spent", s.EnergySpent).
			Int("damage", s.Damage).
			Int("units_lost", s.UnitsLost).
			Int("mines_laid", s.MinesLaid))
	}
	if res.Decided {
		ev = ev.Str("winner", res.Winner.String())
	}
	ev.Msg("Match result")
}

func setupLogging(level string, verbose bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	if verbose {
		logLevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
