// Package service contains the engine's domain services and the interfaces
// of its external collaborators. Identity, entity storage and data ingestion
// belong to the wider platform; the engine consumes them through the narrow
// interfaces declared here.
package service

import (
	"context"
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
)

//go:generate mockery --name WeatherProvider --output mocks --outpkg mocks
// WeatherProvider answers weather snapshots keyed by tenant, location and
// time. Backed by the platform's weather ingestion pipeline.
type WeatherProvider interface {
	// Snapshot returns the latest weather snapshot for a location.
	Snapshot(ctx context.Context, tenantID string, lat, lon float64) (*models.WeatherSnapshot, error)

	// AccumulatedGDD returns growing degree days accumulated from the given
	// day of year to now, above the base temperature, plus the observation
	// time of the newest contributing day.
	AccumulatedGDD(ctx context.Context, tenantID string, lat, lon float64, baseTemp float64, startDayOfYear int) (float64, time.Time, error)
}

//go:generate mockery --name TelemetryProvider --output mocks --outpkg mocks
// TelemetryProvider answers the latest device readings for an entity.
type TelemetryProvider interface {
	// Latest returns the newest reading per requested metric. Metrics with no
	// reading are simply absent from the result.
	Latest(ctx context.Context, tenantID, entityID string, metrics []string) (map[string]models.TelemetryReading, error)
}

//go:generate mockery --name EntityDirectory --output mocks --outpkg mocks
// EntityDirectory enumerates monitored entities of a given type per tenant.
type EntityDirectory interface {
	// ListEntities returns the tenant's entities of the given type with their
	// subtype, location and filterable attributes.
	ListEntities(ctx context.Context, tenantID, entityType string) ([]models.EntityRef, error)

	// GetEntity returns a single entity or a not_found error.
	GetEntity(ctx context.Context, tenantID, entityID string) (*models.EntityRef, error)
}

//go:generate mockery --name TenantRegistry --output mocks --outpkg mocks
// TenantRegistry reports the active tenants batch sweeps are scoped to.
type TenantRegistry interface {
	ActiveTenants(ctx context.Context) ([]*models.Tenant, error)
}

//go:generate mockery --name NotificationQueue --output mocks --outpkg mocks
// NotificationQueue decouples webhook delivery from the evaluation pipeline.
// Enqueue must be cheap; a slow or unreachable receiver never stalls
// evaluation throughput.
type NotificationQueue interface {
	Enqueue(ctx context.Context, event *models.NotificationEvent) error
}

//go:generate mockery --name CatalogVersionStore --output mocks --outpkg mocks
// CatalogVersionStore holds the monotonically increasing catalog version
// stamp that invalidates orchestrator-side caches across instances.
type CatalogVersionStore interface {
	// Bump increments and returns the version stamp.
	Bump(ctx context.Context) (int64, error)

	// Current returns the version stamp, zero if never bumped.
	Current(ctx context.Context) (int64, error)
}

// Evaluation outcome labels recorded against Metrics.
const (
	OutcomeEvaluated    = "evaluated"
	OutcomeSkipped      = "skipped"
	OutcomeNotEvaluable = "not_evaluable"
	OutcomeFailed       = "failed"
)

// Metrics abstracts the engine's operational counters so domain and
// application code stay free of the metrics backend. The Prometheus
// implementation lives in internal/infrastructure/monitoring.
type Metrics interface {
	// RecordEvaluation counts one evaluation attempt by risk code and outcome.
	RecordEvaluation(riskCode, outcome string)

	// ObserveSweepDuration records how long a full batch sweep took.
	ObserveSweepDuration(seconds float64)

	// RecordNotificationEnqueued counts one matched event put on the queue.
	RecordNotificationEnqueued(riskCode string)

	// RecordWebhookDelivery counts one delivery attempt sequence outcome.
	RecordWebhookDelivery(success bool)
}

// NoopMetrics discards all measurements. Useful in tests and tools.
type NoopMetrics struct{}

func (NoopMetrics) RecordEvaluation(string, string)    {}
func (NoopMetrics) ObserveSweepDuration(float64)       {}
func (NoopMetrics) RecordNotificationEnqueued(string)  {}
func (NoopMetrics) RecordWebhookDelivery(bool)         {}
