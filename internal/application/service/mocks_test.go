package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/logger"
)

// Hand-rolled testify mocks for the orchestrator's collaborators.

type mockCatalogReader struct {
	mock.Mock
}

func (m *mockCatalogReader) ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error) {
	args := m.Called(ctx, filter)
	if defs := args.Get(0); defs != nil {
		return defs.([]*models.RiskDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogReader) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockEvaluationRepo struct {
	mock.Mock
}

func (m *mockEvaluationRepo) Append(ctx context.Context, eval *models.RiskEvaluation) error {
	args := m.Called(ctx, eval)
	return args.Error(0)
}

func (m *mockEvaluationRepo) LatestFor(ctx context.Context, tenantID, entityID, riskCode string) (*models.RiskEvaluation, error) {
	args := m.Called(ctx, tenantID, entityID, riskCode)
	if eval := args.Get(0); eval != nil {
		return eval.(*models.RiskEvaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationRepo) Query(ctx context.Context, q models.EvaluationQuery) ([]*models.RiskEvaluation, error) {
	args := m.Called(ctx, q)
	if evals := args.Get(0); evals != nil {
		return evals.([]*models.RiskEvaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWeatherProvider struct {
	mock.Mock
}

func (m *mockWeatherProvider) Snapshot(ctx context.Context, tenantID string, lat, lon float64) (*models.WeatherSnapshot, error) {
	args := m.Called(ctx, tenantID, lat, lon)
	if w := args.Get(0); w != nil {
		return w.(*models.WeatherSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWeatherProvider) AccumulatedGDD(ctx context.Context, tenantID string, lat, lon, baseTemp float64, startDayOfYear int) (float64, time.Time, error) {
	args := m.Called(ctx, tenantID, lat, lon, baseTemp, startDayOfYear)
	return args.Get(0).(float64), args.Get(1).(time.Time), args.Error(2)
}

type mockTelemetryProvider struct {
	mock.Mock
}

func (m *mockTelemetryProvider) Latest(ctx context.Context, tenantID, entityID string, metrics []string) (map[string]models.TelemetryReading, error) {
	args := m.Called(ctx, tenantID, entityID, metrics)
	if readings := args.Get(0); readings != nil {
		return readings.(map[string]models.TelemetryReading), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEntityDirectory struct {
	mock.Mock
}

func (m *mockEntityDirectory) ListEntities(ctx context.Context, tenantID, entityType string) ([]models.EntityRef, error) {
	args := m.Called(ctx, tenantID, entityType)
	if entities := args.Get(0); entities != nil {
		return entities.([]models.EntityRef), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntityDirectory) GetEntity(ctx context.Context, tenantID, entityID string) (*models.EntityRef, error) {
	args := m.Called(ctx, tenantID, entityID)
	if e := args.Get(0); e != nil {
		return e.(*models.EntityRef), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTenantRegistry struct {
	mock.Mock
}

func (m *mockTenantRegistry) ActiveTenants(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	if tenants := args.Get(0); tenants != nil {
		return tenants.([]*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Upsert(ctx context.Context, sub *models.TenantSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) FindActiveByRisk(ctx context.Context, tenantID, riskCode string) ([]*models.TenantSubscription, error) {
	args := m.Called(ctx, tenantID, riskCode)
	if subs := args.Get(0); subs != nil {
		return subs.([]*models.TenantSubscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.TenantSubscription, error) {
	args := m.Called(ctx, tenantID)
	if subs := args.Get(0); subs != nil {
		return subs.([]*models.TenantSubscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) Delete(ctx context.Context, tenantID, riskCode string) error {
	args := m.Called(ctx, tenantID, riskCode)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) DeleteByTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

// mockQueue captures enqueued events in memory.
type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, event *models.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// panicStrategy simulates a model implementation blowing up mid-evaluation.
type panicStrategy struct{}

func (panicStrategy) Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	panic("model exploded")
}

// recordingLogger captures error messages so tests can assert on them.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Debug(ctx context.Context, message string, fields ...logger.Field) {}
func (l *recordingLogger) Info(ctx context.Context, message string, fields ...logger.Field)  {}
func (l *recordingLogger) Warn(ctx context.Context, message string, fields ...logger.Field)  {}

func (l *recordingLogger) Error(ctx context.Context, message string, err error, fields ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, message)
}

func (l *recordingLogger) Fatal(ctx context.Context, message string, err error, fields ...logger.Field) {
	l.Error(ctx, message, err, fields...)
}

func (l *recordingLogger) WithFields(fields ...logger.Field) logger.Logger { return l }
func (l *recordingLogger) WithComponent(component string) logger.Logger   { return l }

func (l *recordingLogger) errorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}
