package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/config"
	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/tacticsai/internal/selfplay"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	seed := flag.Int64("seed", 0, "Match seed, 0 for random")
	delay := flag.Duration("delay", 150*time.Millisecond, "Pause between scheduler steps")
	logFile := flag.String("log-file", "", "Write logs to this file (the terminal is taken by the board)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	out, closeLog, err := logOutput(*logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	setupLogging(cfg.Server.LogLevel, os.Stderr)

	matchCfg := selfplay.DefaultConfig(*seed)
	matchCfg.TurnLimit = cfg.SelfPlay.TurnLimit
	matchCfg.ObstacleDensity = cfg.SelfPlay.ObstacleDensity
	for _, side := range []core.PlayerID{core.P1, core.P2} {
		s, err := cfg.SelfPlaySettings(side)
		if err != nil {
			log.Fatal().Err(err).Str("side", side.String()).Msg("Invalid agent settings")
		}
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

	// The board owns the terminal from here on.
	setupLogging(cfg.Server.LogLevel, out)
	bus := events.NewEventBus(log.Logger)
	feed := subscribers.NewDecisionFeed("watcher", 64)
	bus.Subscribe(feed)
	matchCfg.EventBus = bus

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	match, err := selfplay.NewMatch(ctx, matchCfg, log.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create match: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(ctx, match, feed, *delay), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "watcher stopped: %v\n", err)
		os.Exit(1)
	}

	winner, decided := match.Engine().Winner()
	fmt.Print(match.Engine().Board(core.NoPlayer))
	if decided {
		fmt.Printf("%s wins\n", winner)
	} else if match.Engine().IsGameOver() {
		fmt.Println("draw")
	}
}

func logOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func setupLogging(level string, out io.Writer) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
}
