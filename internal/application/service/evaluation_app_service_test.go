package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/internal/domain/models"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/internal/domain/strategy"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

type orchestratorFixture struct {
	catalog   *mockCatalogReader
	evalRepo  *mockEvaluationRepo
	weather   *mockWeatherProvider
	telemetry *mockTelemetryProvider
	directory *mockEntityDirectory
	tenants   *mockTenantRegistry
	subRepo   *mockSubscriptionRepo
	queue     *mockQueue
	svc       service.EvaluationAppService
}

func newOrchestrator(t *testing.T) *orchestratorFixture {
	t.Helper()
	return newOrchestratorWith(t, strategy.NewDefaultRegistry(), service.EvaluationOptions{Workers: 2}, logger.NewNoopLogger())
}

func newOrchestratorWith(t *testing.T, registry *strategy.Registry, opts service.EvaluationOptions, log logger.Logger) *orchestratorFixture {
	t.Helper()
	f := &orchestratorFixture{
		catalog:   new(mockCatalogReader),
		evalRepo:  new(mockEvaluationRepo),
		weather:   new(mockWeatherProvider),
		telemetry: new(mockTelemetryProvider),
		directory: new(mockEntityDirectory),
		tenants:   new(mockTenantRegistry),
		subRepo:   new(mockSubscriptionRepo),
		queue:     new(mockQueue),
	}
	notifier := service.NewNotificationAppService(f.subRepo, f.queue, domainsvc.NoopMetrics{}, logger.NewNoopLogger())
	f.svc = service.NewEvaluationAppService(
		f.catalog,
		registry,
		f.evalRepo,
		f.weather,
		f.telemetry,
		f.directory,
		f.tenants,
		notifier,
		domainsvc.NoopMetrics{},
		opts,
		log,
	)
	return f
}

func frostDefinition() *models.RiskDefinition {
	return &models.RiskDefinition{
		Code:                "frost_night",
		Name:                "Night frost risk",
		Domain:              constants.RiskDomainAgronomic,
		TargetEntityType:    "parcel",
		RequiredDataSources: []constants.DataSource{constants.DataSourceWeather},
		EvaluationMode:      constants.EvaluationModeHybrid,
		ModelType:           constants.ModelTypeSimple,
		ModelConfig:         models.ModelConfig{"formula": strategy.FormulaFrost},
		SeverityThresholds:  models.SeverityThresholds{Low: 35, Medium: 60, High: 80, Critical: 93},
		Active:              true,
	}
}

func freshWeather(tempMin float64) *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		Temperature: 4,
		Humidity:    80,
		TempMin:     tempMin,
		ObservedAt:  time.Now().UTC(),
	}
}

func TestRunSweep_Empty(t *testing.T) {
	f := newOrchestrator(t)
	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(0), nil)

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.Evaluated)
	assert.Zero(t, report.Failed)
	f.evalRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRunSweep_EvaluatesAndNotifies(t *testing.T) {
	f := newOrchestrator(t)
	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(7), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6},
	}, nil)
	// temp_min=-3 scores in the 80..93 band: high severity.
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 44.8, -0.6).Return(freshWeather(-3), nil)
	f.evalRepo.On("Append", mock.Anything, mock.AnythingOfType("*models.RiskEvaluation")).Return(nil)
	// Threshold 70 fires on a score above 80; threshold 85 stays silent.
	f.subRepo.On("FindActiveByRisk", mock.Anything, "tenant-1", "frost_night").Return([]*models.TenantSubscription{
		{TenantID: "tenant-1", RiskCode: "frost_night", Active: true, UserThreshold: 70},
		{TenantID: "tenant-1", RiskCode: "frost_night", Active: true, UserThreshold: 85},
	}, nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("*models.NotificationEvent")).Return(nil)

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Notified)
	assert.Zero(t, report.Failed)

	appended := f.evalRepo.Calls[0].Arguments.Get(1).(*models.RiskEvaluation)
	assert.Equal(t, constants.SeverityHigh, appended.Severity)
	assert.GreaterOrEqual(t, appended.ProbabilityScore, 80.0)
	assert.Less(t, appended.ProbabilityScore, 93.0)
	assert.Equal(t, int64(7), appended.EvaluationVersion)
	f.queue.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestRunSweep_EntityIsolation(t *testing.T) {
	f := newOrchestrator(t)
	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-bad", Type: "parcel", Latitude: 1, Longitude: 1},
		{ID: "parcel-good", Type: "parcel", Latitude: 2, Longitude: 2},
	}, nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 1.0, 1.0).Return(nil, errors.ErrUnavailable("weather provider down", nil))
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 2.0, 2.0).Return(freshWeather(5), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, mock.Anything, mock.Anything).Return([]*models.TenantSubscription{}, nil)

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Evaluated)
}

func TestRunSweep_RecoversPanickingStrategy(t *testing.T) {
	registry := strategy.NewDefaultRegistry()
	registry.Register(constants.ModelType("exploding"), panicStrategy{})
	f := newOrchestratorWith(t, registry, service.EvaluationOptions{Workers: 2}, logger.NewNoopLogger())

	exploding := frostDefinition()
	exploding.Code = "exploding_risk"
	exploding.TargetEntityType = "orchard"
	exploding.ModelType = constants.ModelType("exploding")

	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition(), exploding}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6},
	}, nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "orchard").Return([]models.EntityRef{
		{ID: "orchard-1", Type: "orchard", Latitude: 45.1, Longitude: -0.3},
	}, nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", mock.Anything, mock.Anything).Return(freshWeather(-3), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, mock.Anything, mock.Anything).Return([]*models.TenantSubscription{}, nil)

	report, err := f.svc.RunSweep(context.Background())

	// The orchard's panic is contained to its entity; the parcel still
	// evaluates and persists.
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Evaluated)
	f.evalRepo.AssertNumberOfCalls(t, "Append", 1)
}

func TestRunSweep_LogsDispatchFailure(t *testing.T) {
	log := &recordingLogger{}
	f := newOrchestratorWith(t, strategy.NewDefaultRegistry(), service.EvaluationOptions{Workers: 2}, log)

	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6},
	}, nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 44.8, -0.6).Return(freshWeather(-3), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, "tenant-1", "frost_night").
		Return(nil, errors.ErrUnavailable("subscription store down", nil))

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Zero(t, report.Notified)
	assert.Contains(t, log.errorMessages(), "notification dispatch failed")
}

func TestRunSweep_SkipsStaleSnapshots(t *testing.T) {
	f := newOrchestrator(t)
	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-1", Type: "parcel"},
	}, nil)
	stale := freshWeather(-3)
	stale.ObservedAt = time.Now().Add(-3 * time.Hour)
	f.weather.On("Snapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(stale, nil)

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Evaluated)
	f.evalRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRunSweep_SkipsNotEvaluable(t *testing.T) {
	f := newOrchestrator(t)
	def := frostDefinition()
	def.ModelType = constants.ModelTypeML

	f.tenants.On("ActiveTenants", mock.Anything).Return([]*models.Tenant{
		{ID: "tenant-1", Status: constants.TenantStatusActive},
	}, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{def}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.directory.On("ListEntities", mock.Anything, "tenant-1", "parcel").Return([]models.EntityRef{
		{ID: "parcel-1", Type: "parcel"},
	}, nil)
	f.weather.On("Snapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(freshWeather(-3), nil)

	report, err := f.svc.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)
}

func TestTriggerRealtime(t *testing.T) {
	f := newOrchestrator(t)
	entity := &models.EntityRef{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6}

	f.directory.On("GetEntity", mock.Anything, "tenant-1", "parcel-1").Return(entity, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(3), nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 44.8, -0.6).Return(freshWeather(1), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, mock.Anything, mock.Anything).Return([]*models.TenantSubscription{}, nil)

	// The ingested temp_min overrides the provider's value.
	count, err := f.svc.TriggerRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   string(constants.DataSourceWeather),
		Metrics:  map[string]float64{models.MetricTempMin: -6},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	appended := f.evalRepo.Calls[0].Arguments.Get(1).(*models.RiskEvaluation)
	assert.Equal(t, constants.SeverityCritical, appended.Severity)
}

func TestTriggerRealtime_UnknownSource(t *testing.T) {
	f := newOrchestrator(t)
	_, err := f.svc.TriggerRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   "satellite",
	})
	assert.True(t, errors.IsValidation(err))
}

func TestTriggerRealtime_IgnoresBatchOnlyDefinitions(t *testing.T) {
	f := newOrchestrator(t)
	def := frostDefinition()
	def.EvaluationMode = constants.EvaluationModeBatch
	entity := &models.EntityRef{ID: "parcel-1", Type: "parcel"}

	f.directory.On("GetEntity", mock.Anything, "tenant-1", "parcel-1").Return(entity, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{def}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)

	count, err := f.svc.TriggerRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   string(constants.DataSourceWeather),
	})

	require.NoError(t, err)
	assert.Zero(t, count)
	f.weather.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerRealtime_LogsDispatchFailure(t *testing.T) {
	log := &recordingLogger{}
	f := newOrchestratorWith(t, strategy.NewDefaultRegistry(), service.EvaluationOptions{Workers: 2}, log)
	entity := &models.EntityRef{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6}

	f.directory.On("GetEntity", mock.Anything, "tenant-1", "parcel-1").Return(entity, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 44.8, -0.6).Return(freshWeather(-6), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.ErrUnavailable("subscription store down", nil))

	count, err := f.svc.TriggerRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   string(constants.DataSourceWeather),
	})

	// The evaluation itself still counts; the lost dispatch leaves a trace.
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, log.errorMessages(), "notification dispatch failed")
}

func TestEnqueueRealtime_DoesNotBlockIngestion(t *testing.T) {
	f := newOrchestrator(t)
	entity := &models.EntityRef{ID: "parcel-1", Type: "parcel", Latitude: 44.8, Longitude: -0.6}
	done := make(chan struct{})

	// The directory stalls like a slow upstream; the caller must not wait
	// on it.
	f.directory.On("GetEntity", mock.Anything, "tenant-1", "parcel-1").
		Run(func(mock.Arguments) { time.Sleep(300 * time.Millisecond) }).
		Return(entity, nil)
	f.catalog.On("ListActive", mock.Anything, mock.Anything).Return([]*models.RiskDefinition{frostDefinition()}, nil)
	f.catalog.On("Version", mock.Anything).Return(int64(1), nil)
	f.weather.On("Snapshot", mock.Anything, "tenant-1", 44.8, -0.6).Return(freshWeather(-6), nil)
	f.evalRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.subRepo.On("FindActiveByRisk", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(done) }).
		Return([]*models.TenantSubscription{}, nil)

	started := time.Now()
	err := f.svc.EnqueueRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   string(constants.DataSourceWeather),
	})
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Less(t, elapsed, 150*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background evaluation never ran")
	}
	f.evalRepo.AssertNumberOfCalls(t, "Append", 1)
}

func TestEnqueueRealtime_UnknownSource(t *testing.T) {
	f := newOrchestrator(t)

	err := f.svc.EnqueueRealtime(context.Background(), "tenant-1", &dto.IngestRequest{
		EntityID: "parcel-1",
		Source:   "satellite",
	})

	assert.True(t, errors.IsValidation(err))
	f.directory.AssertNotCalled(t, "GetEntity", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnqueueRealtime_RejectsWhenBacklogFull(t *testing.T) {
	f := newOrchestratorWith(t, strategy.NewDefaultRegistry(),
		service.EvaluationOptions{Workers: 1, RealtimeSlots: 1}, logger.NewNoopLogger())

	release := make(chan struct{})
	done := make(chan struct{})
	f.directory.On("GetEntity", mock.Anything, "tenant-1", "parcel-1").
		Run(func(mock.Arguments) { <-release; close(done) }).
		Return(nil, errors.ErrNotFound("entity", "parcel-1"))

	req := &dto.IngestRequest{EntityID: "parcel-1", Source: string(constants.DataSourceWeather)}
	require.NoError(t, f.svc.EnqueueRealtime(context.Background(), "tenant-1", req))

	// The single slot is taken; the next request is rejected, not queued.
	err := f.svc.EnqueueRealtime(context.Background(), "tenant-1", req)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeUnavailable, appErr.Code())

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background evaluation never ran")
	}
}

func TestHistory_RejectsUnknownSeverity(t *testing.T) {
	f := newOrchestrator(t)
	_, err := f.svc.History(context.Background(), "tenant-1", &dto.EvaluationHistoryQuery{MinSeverity: "apocalyptic"})
	assert.True(t, errors.IsValidation(err))
}
