package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/config"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
	"github.com/mitchelldurbincs/tacticsai/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	seed := flag.Int64("seed", 0, "Match seed, 0 for random")
	interval := flag.Int("interval", 15, "Frames between scheduler steps")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	setupLogging(cfg.Server.LogLevel)

	matchCfg := selfplay.DefaultConfig(*seed)
	matchCfg.TurnLimit = cfg.SelfPlay.TurnLimit
	matchCfg.ObstacleDensity = cfg.SelfPlay.ObstacleDensity
	for _, side := range []core.PlayerID{core.P1, core.P2} {
		s, err := cfg.SelfPlaySettings(side)
		if err != nil {
			log.Fatal().Err(err).Str("side", side.String()).Msg("Invalid agent settings")
		}
		// The viewer paces the match itself.
		s.PacingScale = 0
		matchCfg.Settings[side] = s
	}
	if cfg.AI.OpeningBook != "" {
		data, err := os.ReadFile(cfg.AI.OpeningBook)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read opening book")
		}
		if matchCfg.Book, err = ai.LoadOpeningBook(data); err != nil {
			log.Fatal().Err(err).Msg("Invalid opening book")
		}
	}

	bus := events.NewEventBus(log.Logger)
	feed := subscribers.NewDecisionFeed("viewer", 32)
	bus.Subscribe(feed)
	matchCfg.EventBus = bus

	ctx := context.Background()
	match, err := selfplay.NewMatch(ctx, matchCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create match")
	}

	viewer := ui.NewViewer(ctx, match, feed, ui.Options{
		UI:           cfg.UI,
		StepInterval: *interval,
		Difficulty:   matchCfg.Settings[core.P1].Difficulty,
	}, log.Logger)

	ebiten.SetWindowSize(cfg.UI.Window.Width, cfg.UI.Window.Height)
	ebiten.SetWindowTitle(cfg.UI.Window.Title)

	log.Info().Str("match_id", match.Engine().MatchID()).Msg("Starting viewer")
	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal().Err(err).Msg("Viewer stopped")
	}
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}
