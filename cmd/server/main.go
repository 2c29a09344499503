package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appservice "github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/internal/config"
	domainservice "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/internal/domain/strategy"
	"github.com/agrovia/riskengine/internal/infrastructure/catalog"
	"github.com/agrovia/riskengine/internal/infrastructure/consumers"
	"github.com/agrovia/riskengine/internal/infrastructure/monitoring"
	"github.com/agrovia/riskengine/internal/infrastructure/notifier"
	"github.com/agrovia/riskengine/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/agrovia/riskengine/internal/infrastructure/persistence/redis"
	"github.com/agrovia/riskengine/internal/infrastructure/providers"
	"github.com/agrovia/riskengine/internal/infrastructure/queue"
	"github.com/agrovia/riskengine/internal/infrastructure/scheduler"
	"github.com/agrovia/riskengine/internal/interfaces/http/handlers"
	"github.com/agrovia/riskengine/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize tracing", err)
	}

	// Backing stores.
	db, err := postgres.NewDBConnection(&cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to connect to database", err)
	}
	if err := postgres.Migrate(db); err != nil {
		appLogger.Fatal(ctx, "failed to run migrations", err)
	}

	redisClient, err := redisinfra.NewRedisClient(ctx, &cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to connect to redis", err)
	}

	// Repositories.
	definitionRepo := postgres.NewRiskDefinitionRepository(db, appLogger)
	evaluationRepo := redisinfra.NewCachedEvaluationRepository(
		postgres.NewEvaluationRepository(db, appLogger), redisClient, appLogger)
	subscriptionRepo := postgres.NewSubscriptionRepository(db, appLogger)
	webhookRepo := postgres.NewWebhookRepository(db, appLogger)
	failureRepo := postgres.NewDeliveryFailureRepository(db, appLogger)

	// Domain services.
	metrics := monitoring.NewMetrics()
	strategies := strategy.NewDefaultRegistry()
	versionStore := redisinfra.NewCatalogVersionStore(redisClient)
	catalogService := domainservice.NewCatalogService(definitionRepo, strategies, versionStore, appLogger)

	// External providers.
	weather := providers.NewHTTPWeatherProvider(&cfg.Providers.Weather, appLogger)
	telemetry := providers.NewInfluxTelemetryProvider(&cfg.Providers.Telemetry, appLogger)
	platform := providers.NewPlatformClient(&cfg.Providers.Platform, appLogger)

	// Application services. The evaluation orchestrator reads the catalog
	// through the version-stamped cache.
	cachedCatalog := catalog.NewCachedCatalog(catalogService, appLogger)
	notificationQueue := queue.NewKafkaNotificationQueue(&cfg.Kafka, appLogger)
	notificationSvc := appservice.NewNotificationAppService(subscriptionRepo, notificationQueue, metrics, appLogger)
	evaluationSvc := appservice.NewEvaluationAppService(
		cachedCatalog,
		strategies,
		evaluationRepo,
		weather,
		telemetry,
		platform,
		platform,
		notificationSvc,
		metrics,
		appservice.EvaluationOptions{
			Workers:           cfg.Evaluation.Workers,
			RealtimeSlots:     cfg.Evaluation.RealtimeSlots,
			StrategyTimeout:   cfg.Evaluation.StrategyTimeout,
			SnapshotFreshness: cfg.Evaluation.SnapshotFreshness,
		},
		appLogger,
	)
	catalogAppSvc := appservice.NewCatalogAppService(catalogService)
	subscriptionSvc := appservice.NewSubscriptionAppService(subscriptionRepo, catalogService, appLogger)
	webhookSvc := appservice.NewWebhookAppService(webhookRepo, failureRepo, appLogger)

	// Delivery pipeline: consumer drains the Kafka topic and the notifier
	// posts signed payloads to tenant endpoints.
	webhookNotifier := notifier.NewWebhookNotifier(webhookRepo, failureRepo, &cfg.Webhook, metrics, appLogger)
	consumer := consumers.NewNotificationConsumer(&cfg.Kafka, webhookNotifier, appLogger)
	go consumer.Start(ctx)

	// Batch sweep scheduler.
	sweeper := scheduler.NewSweepScheduler(&cfg.Scheduler, evaluationSvc, appLogger)
	if cfg.Scheduler.Enabled {
		if err := sweeper.Start(ctx); err != nil {
			appLogger.Fatal(ctx, "failed to start sweep scheduler", err)
		}
	}

	// HTTP surface.
	httpRouter := router.NewRouter(
		cfg,
		appLogger,
		tracing.Tracer(),
		handlers.NewHealthHandler(db, redisClient, appLogger),
		handlers.NewCatalogHandler(catalogAppSvc),
		handlers.NewEvaluationHandler(evaluationSvc),
		handlers.NewSubscriptionHandler(subscriptionSvc),
		handlers.NewWebhookHandler(webhookSvc),
		handlers.NewAdminHandler(sweeper),
	)

	go func() {
		if err := httpRouter.Start(); err != nil {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		sweeper.Stop()
	}
	consumer.Stop()
	if err := httpRouter.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP shutdown failed", err)
	}
	if q, ok := notificationQueue.(interface{ Close() error }); ok {
		q.Close()
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "tracing shutdown failed", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	redisClient.Close()

	appLogger.Info(ctx, "shutdown complete")
}
