package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/mitchelldurbincs/tacticsai/internal/ai"
	"github.com/mitchelldurbincs/tacticsai/internal/config"
	"github.com/mitchelldurbincs/tacticsai/internal/experience"
	"github.com/mitchelldurbincs/tacticsai/internal/game/events"
	"github.com/mitchelldurbincs/tacticsai/internal/grpc/plannerserver"
	"github.com/mitchelldurbincs/tacticsai/internal/monitoring"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", -1, "The server port (-1 to use config default)")
	host := flag.String("host", "", "The server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	maxSessions := flag.Int("max-sessions", -1, "Maximum concurrent planner sessions (-1 to use config default)")
	enableReflection := flag.Bool("enable-reflection", false, "Enable gRPC reflection for debugging")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}

	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = cfg.Server.GRPCServer.Port
	}
	if *host == "" {
		*host = cfg.Server.GRPCServer.Host
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}
	if *maxSessions == -1 {
		*maxSessions = cfg.Server.GRPCServer.MaxSessions
	}
	// For enableReflection, use config if flag not explicitly set to true
	if !*enableReflection {
		*enableReflection = cfg.Server.GRPCServer.EnableReflection
	}

	// Setup logging
	setupLogging(*logLevel)

	defaults, err := cfg.AI.AgentSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ai settings")
	}
	book := ai.DefaultOpeningBook()
	if cfg.AI.OpeningBook != "" {
		data, err := os.ReadFile(cfg.AI.OpeningBook)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.AI.OpeningBook).Msg("Failed to read opening book")
		}
		if book, err = ai.LoadOpeningBook(data); err != nil {
			log.Fatal().Err(err).Str("path", cfg.AI.OpeningBook).Msg("Invalid opening book")
		}
	}

	log.Info().
		Int("port", *port).
		Str("host", *host).
		Int("max_sessions", *maxSessions).
		Str("difficulty", defaults.Difficulty.String()).
		Msg("Starting gRPC planner server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewEventBus(log.Logger)
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
			BufferCapacity: cfg.Trace.BufferCapacity,
			FlushInterval:  cfg.Trace.FlushInterval,
		}, store, log.Logger)
		collector.Start(ctx)
		bus.Subscribe(collector)
		log.Info().Str("directory", cfg.Trace.Directory).Msg("Decision traces enabled")
	}

	// Create listener
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	// Create gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			recoveryInterceptor,
		),
	}

	grpcServer := grpc.NewServer(opts...)

	// Register planner service
	plannerService := plannerserver.NewServer(plannerserver.Options{
		MaxSessions: *maxSessions,
		IdleTimeout: cfg.Server.GRPCServer.SessionIdleTimeout,
		Defaults:    defaults,
		Book:        book,
		Publisher:   bus,
	}, log.Logger)
	plannerserver.RegisterPlannerServiceServer(grpcServer, plannerService)

	// Register health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	// Set health status
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(plannerserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Register reflection service for debugging
	if *enableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	var monitor *monitoring.GoroutineMonitor
	if cfg.Monitoring.Enabled {
		monitor = monitoring.NewGoroutineMonitor(monitoring.Config{
			Interval:           cfg.Monitoring.Interval,
			GoroutineThreshold: cfg.Monitoring.GoroutineThreshold,
			QueueThreshold:     cfg.Monitoring.QueueThreshold,
		}, log.Logger)
		monitor.Watch("sessions", plannerService.Sessions())
		monitor.Start()
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		// Set health status to NOT_SERVING
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(plannerserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// Give ongoing requests time to complete
		time.Sleep(time.Duration(cfg.Server.GRPCServer.GracefulShutdownDelay) * time.Second)

		log.Info().Msg("Gracefully stopping gRPC server")
		grpcServer.GracefulStop()
		plannerService.Stop()
		if monitor != nil {
			monitor.Stop()
		}
		if collector != nil {
			if err := collector.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to flush decision traces")
			}
		}
		cancel()
	}()

	// Start server
	log.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Check if we're in production
	if os.Getenv("APP_ENV") == "production" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}

// loggingInterceptor logs all unary RPC calls
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	code := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		}
	}

	log.Info().
		Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC call")

	return resp, err
}

// recoveryInterceptor catches panics and returns proper gRPC errors
func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}
