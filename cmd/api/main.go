package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/carematch/internal/adapters/cache"
	"github.com/zatekoja/carematch/internal/adapters/database"
	"github.com/zatekoja/carematch/internal/adapters/events"
	"github.com/zatekoja/carematch/internal/adapters/messaging"
	"github.com/zatekoja/carematch/internal/api/handlers"
	"github.com/zatekoja/carematch/internal/api/routes"
	"github.com/zatekoja/carematch/internal/application/services"
	"github.com/zatekoja/carematch/internal/domain/providers"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/redis"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
	"github.com/zatekoja/carematch/pkg/config"
	"github.com/zatekoja/carematch/pkg/secrets"
)

func main() {
	// Pull deployment secrets into the environment before reading config
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := secrets.Apply(bootCtx, secrets.ConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to apply vault secrets: %v\n", err)
	}
	bootCancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; the engine runs uncached and without events when
	// it is unavailable.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache and events")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Redis client initialized")
	}

	// Adapters
	patientAdapter := database.NewPatientAdapter(pgClient)
	matchAdapter := database.NewMatchAdapter(pgClient)

	var agencyAdapter repositories.AgencyRepository = database.NewAgencyAdapter(pgClient)
	if cacheProvider != nil {
		agencyAdapter = database.NewCachedAgencyAdapter(agencyAdapter, cacheProvider)
		log.Info().Msg("agency adapter wrapped with caching layer")
	}

	channelProvisioner := messaging.NewChannelAdapter(&cfg.Messaging)

	// Application services
	resolver := services.NewRequirementsResolver(patientAdapter, config.DefaultServiceAliases(), cfg.Matching.FallbackLocation)
	candidateService := services.NewCandidateService(agencyAdapter, matchAdapter)
	scoringService := services.NewMatchScoringService()

	matchingOpts := []services.MatchingServiceOption{
		services.WithWorkerCount(cfg.Matching.WorkerCount),
		services.WithDefaultLimit(cfg.Matching.CandidateLimit),
		services.WithMetrics(metrics),
	}
	if eventBus != nil {
		matchingOpts = append(matchingOpts, services.WithEventBus(eventBus))
	}
	matchingService := services.NewMatchingService(
		resolver,
		candidateService,
		scoringService,
		patientAdapter,
		matchAdapter,
		channelProvisioner,
		matchingOpts...,
	)

	// HTTP surface
	matchHandler := handlers.NewMatchHandler(matchingService)
	var streamHandler *handlers.StreamHandler
	if eventBus != nil {
		streamHandler = handlers.NewStreamHandler(eventBus, patientAdapter)
	}
	router := routes.NewRouter(matchHandler, streamHandler, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
