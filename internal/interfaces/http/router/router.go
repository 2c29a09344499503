// Package router wires the HTTP surface of the risk engine.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/interfaces/http/handlers"
	"github.com/agrovia/riskengine/internal/interfaces/http/middleware"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/logger"
)

// Router owns the gin engine and the HTTP server lifecycle.
type Router struct {
	engine              *gin.Engine
	config              *config.Config
	logger              logger.Logger
	tracer              trace.Tracer
	healthHandler       *handlers.HealthHandler
	catalogHandler      *handlers.CatalogHandler
	evaluationHandler   *handlers.EvaluationHandler
	subscriptionHandler *handlers.SubscriptionHandler
	webhookHandler      *handlers.WebhookHandler
	adminHandler        *handlers.AdminHandler
	server              *http.Server
}

// NewRouter creates the router with all handlers.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	tracer trace.Tracer,
	healthHandler *handlers.HealthHandler,
	catalogHandler *handlers.CatalogHandler,
	evaluationHandler *handlers.EvaluationHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	webhookHandler *handlers.WebhookHandler,
	adminHandler *handlers.AdminHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:              gin.New(),
		config:              cfg,
		logger:              log,
		tracer:              tracer,
		healthHandler:       healthHandler,
		catalogHandler:      catalogHandler,
		evaluationHandler:   evaluationHandler,
		subscriptionHandler: subscriptionHandler,
		webhookHandler:      webhookHandler,
		adminHandler:        adminHandler,
	}
}

// SetupRoutes mounts middleware and routes.
func (r *Router) SetupRoutes() {
	requestsTotal, requestDuration := middleware.NewHTTPMetrics()

	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Observability(r.tracer, requestsTotal, requestDuration))

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", constants.RequestIDHeader, constants.TenantIDHeader},
		ExposeHeaders:    []string{constants.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.engine.Use(cors.New(corsConfig))

	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		// Catalog routes are platform-wide: risk definitions are shared
		// across tenants.
		risks := v1.Group("/risks")
		{
			risks.POST("", r.catalogHandler.Register)
			risks.GET("", r.catalogHandler.ListActive)
			risks.GET("/:code", r.catalogHandler.Lookup)
			risks.PUT("/:code", r.catalogHandler.Update)
		}

		// Everything below is tenant-scoped.
		scoped := v1.Group("")
		scoped.Use(middleware.TenantScope())
		{
			evaluations := scoped.Group("/evaluations")
			{
				evaluations.GET("", r.evaluationHandler.History)
				evaluations.GET("/latest", r.evaluationHandler.Latest)
			}

			subscriptions := scoped.Group("/subscriptions")
			{
				subscriptions.PUT("", r.subscriptionHandler.Upsert)
				subscriptions.GET("", r.subscriptionHandler.List)
				subscriptions.DELETE("/:risk_code", r.subscriptionHandler.Delete)
			}

			webhooks := scoped.Group("/webhooks")
			{
				webhooks.POST("", r.webhookHandler.Register)
				webhooks.GET("", r.webhookHandler.List)
				webhooks.GET("/failures", r.webhookHandler.ListFailures)
				webhooks.GET("/:id", r.webhookHandler.Get)
				webhooks.PUT("/:id", r.webhookHandler.Update)
				webhooks.DELETE("/:id", r.webhookHandler.Deactivate)
			}
		}
	}

	// Internal routes for the data pipeline and operators. The gateway
	// never exposes /internal.
	internal := r.engine.Group("/internal/v1")
	{
		internal.POST("/ingest", middleware.TenantScope(), r.evaluationHandler.Ingest)
		internal.POST("/sweep", r.adminHandler.TriggerSweep)
		internal.GET("/evaluations", middleware.Diagnostic(), r.evaluationHandler.History)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "the requested resource was not found",
		})
	})
}

// Start runs the HTTP server; blocking until shutdown.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
