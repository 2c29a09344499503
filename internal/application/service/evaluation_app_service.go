package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/internal/domain/strategy"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// CatalogReader is the orchestrator's view of the risk catalog. The domain
// CatalogService satisfies it directly; the cached decorator in
// internal/infrastructure/catalog wraps it for hot paths.
type CatalogReader interface {
	ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error)
	Version(ctx context.Context) (int64, error)
}

// EvaluationAppService orchestrates risk evaluations: the scheduled batch
// sweep over all active tenants, the realtime trigger on data arrival, and
// reads over the persisted evaluation history.
type EvaluationAppService interface {
	// RunSweep evaluates every batch-mode definition against every matching
	// entity of every active tenant. One entity's failure never aborts the
	// sweep; failures are counted and logged.
	RunSweep(ctx context.Context) (*dto.SweepReport, error)

	// EnqueueRealtime validates an ingest request and hands the evaluation
	// work to a bounded background worker, so the ingestion caller never
	// waits on providers, storage or the broker. A saturated worker pool
	// rejects the request with an unavailable error.
	EnqueueRealtime(ctx context.Context, tenantID string, req *dto.IngestRequest) error

	// TriggerRealtime synchronously re-evaluates the realtime definitions
	// that consume the updated data source for one entity. Returns how many
	// evaluations were persisted. EnqueueRealtime runs this on a worker.
	TriggerRealtime(ctx context.Context, tenantID string, req *dto.IngestRequest) (int, error)

	// History returns persisted evaluations for the tenant, newest first.
	History(ctx context.Context, tenantID string, q *dto.EvaluationHistoryQuery) ([]*dto.EvaluationResponse, error)

	// Latest returns the most recent evaluation for (entity, risk).
	Latest(ctx context.Context, tenantID, entityID, riskCode string) (*dto.EvaluationResponse, error)
}

// EvaluationOptions tunes the orchestrator.
type EvaluationOptions struct {
	Workers           int
	RealtimeSlots     int
	StrategyTimeout   time.Duration
	SnapshotFreshness time.Duration
}

func (o EvaluationOptions) withDefaults() EvaluationOptions {
	if o.Workers <= 0 {
		o.Workers = constants.DefaultSweepWorkers
	}
	if o.RealtimeSlots <= 0 {
		o.RealtimeSlots = constants.DefaultRealtimeSlots
	}
	if o.StrategyTimeout <= 0 {
		o.StrategyTimeout = constants.StrategyTimeout
	}
	if o.SnapshotFreshness <= 0 {
		o.SnapshotFreshness = constants.DefaultSnapshotFreshness
	}
	return o
}

type evaluationAppServiceImpl struct {
	catalog    CatalogReader
	strategies *strategy.Registry
	evalRepo   repository.EvaluationRepository
	weather    domainsvc.WeatherProvider
	telemetry  domainsvc.TelemetryProvider
	directory  domainsvc.EntityDirectory
	tenants    domainsvc.TenantRegistry
	notifier   NotificationAppService
	metrics    domainsvc.Metrics
	opts       EvaluationOptions
	log        logger.Logger

	// realtimeSlots bounds concurrent background realtime evaluations.
	realtimeSlots chan struct{}
}

// NewEvaluationAppService creates the evaluation orchestrator.
func NewEvaluationAppService(
	catalog CatalogReader,
	strategies *strategy.Registry,
	evalRepo repository.EvaluationRepository,
	weather domainsvc.WeatherProvider,
	telemetry domainsvc.TelemetryProvider,
	directory domainsvc.EntityDirectory,
	tenants domainsvc.TenantRegistry,
	notifier NotificationAppService,
	metrics domainsvc.Metrics,
	opts EvaluationOptions,
	log logger.Logger,
) EvaluationAppService {
	opts = opts.withDefaults()
	return &evaluationAppServiceImpl{
		catalog:       catalog,
		strategies:    strategies,
		evalRepo:      evalRepo,
		weather:       weather,
		telemetry:     telemetry,
		directory:     directory,
		tenants:       tenants,
		notifier:      notifier,
		metrics:       metrics,
		opts:          opts,
		log:           log.WithComponent("evaluation-service"),
		realtimeSlots: make(chan struct{}, opts.RealtimeSlots),
	}
}

// ================================================================================
// Batch sweep
// ================================================================================

// sweepCounters aggregates outcomes across worker goroutines.
type sweepCounters struct {
	evaluated int
	skipped   int
	failed    int
	notified  int
}

func (s *evaluationAppServiceImpl) RunSweep(ctx context.Context) (*dto.SweepReport, error) {
	started := time.Now().UTC()

	tenants, err := s.tenants.ActiveTenants(ctx)
	if err != nil {
		return nil, errors.ErrUnavailable("tenant registry unavailable", err)
	}
	defs, err := s.batchDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	version := s.catalogVersion(ctx)

	report := &dto.SweepReport{StartedAt: started, Tenants: len(tenants)}
	if len(tenants) == 0 || len(defs) == 0 {
		report.Duration = time.Since(started)
		s.log.Info(ctx, "sweep completed with nothing to do",
			logger.Int("tenants", len(tenants)),
			logger.Int("definitions", len(defs)))
		return report, nil
	}

	defsByType := groupByEntityType(defs)

	counters := make(chan sweepCounters, s.opts.Workers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range counters {
			report.Evaluated += c.evaluated
			report.Skipped += c.skipped
			report.Failed += c.failed
			report.Notified += c.notified
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, tenant := range tenants {
		if !tenant.IsActive() {
			continue
		}
		for entityType, typeDefs := range defsByType {
			entities, err := s.directory.ListEntities(ctx, tenant.ID, entityType)
			if err != nil {
				s.log.Error(ctx, "entity listing failed, skipping tenant/type", err,
					logger.String("tenant_id", tenant.ID),
					logger.String("entity_type", entityType))
				continue
			}
			report.Entities += len(entities)

			for _, entity := range entities {
				tenantID, entity, typeDefs := tenant.ID, entity, typeDefs
				g.Go(func() error {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					counters <- s.sweepEntity(gctx, tenantID, entity, typeDefs, version)
					return nil
				})
			}
		}
	}

	err = g.Wait()
	close(counters)
	<-done

	report.Duration = time.Since(started)
	s.metrics.ObserveSweepDuration(report.Duration.Seconds())
	s.log.Info(ctx, "sweep completed",
		logger.Int("tenants", report.Tenants),
		logger.Int("entities", report.Entities),
		logger.Int("evaluated", report.Evaluated),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed),
		logger.Int("notified", report.Notified),
		logger.Duration("duration", report.Duration))
	return report, err
}

// sweepEntity evaluates all applicable definitions for one entity. A panic in
// one entity's evaluation is contained here so the sweep survives it.
func (s *evaluationAppServiceImpl) sweepEntity(ctx context.Context, tenantID string, entity models.EntityRef, defs []*models.RiskDefinition, version int64) (c sweepCounters) {
	defer func() {
		if r := recover(); r != nil {
			c.failed++
			s.log.Error(ctx, "entity evaluation panicked", fmt.Errorf("panic: %v", r),
				logger.String("tenant_id", tenantID),
				logger.String("entity_id", entity.ID))
		}
	}()

	for _, def := range defs {
		if !def.AppliesTo(entity.Type, entity.Subtype) {
			continue
		}
		eval, outcome, err := s.evaluateOne(ctx, tenantID, entity, def, version)
		s.metrics.RecordEvaluation(def.Code, outcome)
		switch outcome {
		case domainsvc.OutcomeEvaluated:
			c.evaluated++
			if eval != nil {
				if n, dispatchErr := s.notifier.DispatchEvaluation(ctx, eval); dispatchErr == nil {
					c.notified += n
				} else {
					s.log.Error(ctx, "notification dispatch failed", dispatchErr,
						logger.String("tenant_id", tenantID),
						logger.String("risk_code", def.Code))
				}
			}
		case domainsvc.OutcomeFailed:
			c.failed++
			s.log.Error(ctx, "evaluation failed", err,
				logger.String("tenant_id", tenantID),
				logger.String("entity_id", entity.ID),
				logger.String("risk_code", def.Code))
		default:
			c.skipped++
		}
	}
	return c
}

// ================================================================================
// Realtime trigger
// ================================================================================

// EnqueueRealtime rejects requests it can see are invalid, then moves the
// evaluation off the ingestion path. The caller's response is written before
// any provider, storage or broker call runs.
func (s *evaluationAppServiceImpl) EnqueueRealtime(ctx context.Context, tenantID string, req *dto.IngestRequest) error {
	if !constants.DataSource(req.Source).IsValid() {
		return errors.ErrInvalidRequest("unknown data source: " + req.Source)
	}

	select {
	case s.realtimeSlots <- struct{}{}:
	default:
		return errors.ErrUnavailable("realtime evaluation backlog is full", nil)
	}

	// Detached from the request context so writing the response does not
	// cancel the evaluation; context values (request ID, tenant) survive.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() { <-s.realtimeSlots }()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error(bgCtx, "realtime evaluation panicked", fmt.Errorf("panic: %v", r),
					logger.String("tenant_id", tenantID),
					logger.String("entity_id", req.EntityID))
			}
		}()
		if _, err := s.TriggerRealtime(bgCtx, tenantID, req); err != nil {
			s.log.Error(bgCtx, "realtime evaluation failed", err,
				logger.String("tenant_id", tenantID),
				logger.String("entity_id", req.EntityID),
				logger.String("source", req.Source))
		}
	}()
	return nil
}

func (s *evaluationAppServiceImpl) TriggerRealtime(ctx context.Context, tenantID string, req *dto.IngestRequest) (int, error) {
	source := constants.DataSource(req.Source)
	if !source.IsValid() {
		return 0, errors.ErrInvalidRequest("unknown data source: " + req.Source)
	}

	entity, err := s.directory.GetEntity(ctx, tenantID, req.EntityID)
	if err != nil {
		return 0, err
	}

	defs, err := s.catalog.ListActive(ctx, models.DefinitionFilter{})
	if err != nil {
		return 0, err
	}
	version := s.catalogVersion(ctx)

	var evaluatedCount int
	for _, def := range defs {
		if !def.EvaluationMode.IncludesRealtime() ||
			!def.RequiresSource(source) ||
			!def.AppliesTo(entity.Type, entity.Subtype) {
			continue
		}
		eval, outcome, evalErr := s.evaluateOne(ctx, tenantID, *entity, def, version, withSeed(source, req.Metrics))
		s.metrics.RecordEvaluation(def.Code, outcome)
		switch outcome {
		case domainsvc.OutcomeEvaluated:
			evaluatedCount++
			if eval != nil {
				if _, dispatchErr := s.notifier.DispatchEvaluation(ctx, eval); dispatchErr != nil {
					s.log.Error(ctx, "notification dispatch failed", dispatchErr,
						logger.String("tenant_id", tenantID),
						logger.String("risk_code", def.Code))
				}
			}
		case domainsvc.OutcomeFailed:
			s.log.Error(ctx, "realtime evaluation failed", evalErr,
				logger.String("tenant_id", tenantID),
				logger.String("entity_id", entity.ID),
				logger.String("risk_code", def.Code))
		}
	}
	return evaluatedCount, nil
}

// ================================================================================
// History reads
// ================================================================================

func (s *evaluationAppServiceImpl) History(ctx context.Context, tenantID string, q *dto.EvaluationHistoryQuery) ([]*dto.EvaluationResponse, error) {
	if q.MinSeverity != "" && !constants.Severity(q.MinSeverity).IsValid() {
		return nil, errors.ErrInvalidRequest("unknown severity: " + q.MinSeverity)
	}
	evals, err := s.evalRepo.Query(ctx, q.ToDomain(tenantID))
	if err != nil {
		return nil, err
	}
	out := make([]*dto.EvaluationResponse, 0, len(evals))
	for _, e := range evals {
		out = append(out, dto.EvaluationToDTO(e))
	}
	return out, nil
}

func (s *evaluationAppServiceImpl) Latest(ctx context.Context, tenantID, entityID, riskCode string) (*dto.EvaluationResponse, error) {
	eval, err := s.evalRepo.LatestFor(ctx, tenantID, entityID, riskCode)
	if err != nil {
		return nil, err
	}
	return dto.EvaluationToDTO(eval), nil
}

// ================================================================================
// Single evaluation
// ================================================================================

// evaluateOption adjusts snapshot resolution for one evaluation.
type evaluateOption func(*models.EvaluationSnapshot)

// withSeed overlays freshly ingested metric values onto the snapshot and
// marks the source observed now, so realtime triggers never skip on the very
// data that triggered them.
func withSeed(source constants.DataSource, metrics map[string]float64) evaluateOption {
	return func(snap *models.EvaluationSnapshot) {
		for k, v := range metrics {
			snap.SetMetric(k, v)
		}
		snap.MarkObserved(source, snap.TakenAt)
	}
}

// evaluateOne resolves inputs, runs the strategy, classifies severity and
// persists the evaluation. The returned outcome is one of the
// domainsvc.Outcome* labels; eval is non-nil only for OutcomeEvaluated.
func (s *evaluationAppServiceImpl) evaluateOne(ctx context.Context, tenantID string, entity models.EntityRef, def *models.RiskDefinition, version int64, opts ...evaluateOption) (*models.RiskEvaluation, string, error) {
	snap, err := s.resolveSnapshot(ctx, tenantID, entity, def)
	if err != nil {
		return nil, domainsvc.OutcomeFailed, err
	}
	for _, opt := range opts {
		opt(snap)
	}

	if stale := s.staleSources(snap, def); len(stale) > 0 {
		s.log.Debug(ctx, "evaluation skipped on stale inputs",
			logger.String("tenant_id", tenantID),
			logger.String("entity_id", entity.ID),
			logger.String("risk_code", def.Code),
			logger.Any("stale_sources", stale))
		return nil, domainsvc.OutcomeSkipped, nil
	}

	strat, ok := s.strategies.Get(def.ModelType)
	if !ok {
		return nil, domainsvc.OutcomeFailed, errors.ErrUnknownModelType(string(def.ModelType))
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.opts.StrategyTimeout)
	score, err := strat.Evaluate(evalCtx, snap, def.ModelConfig)
	cancel()
	if err != nil {
		if strategy.IsNotEvaluable(err) {
			s.log.Debug(ctx, "definition not evaluable for entity",
				logger.String("entity_id", entity.ID),
				logger.String("risk_code", def.Code),
				logger.String("reason", err.Error()))
			return nil, domainsvc.OutcomeNotEvaluable, nil
		}
		return nil, domainsvc.OutcomeFailed, err
	}

	eval := &models.RiskEvaluation{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		EntityID:          entity.ID,
		EntityType:        entity.Type,
		RiskCode:          def.Code,
		ProbabilityScore:  score,
		Severity:          domainsvc.ClassifySeverity(score, def.SeverityThresholds),
		Snapshot:          snap,
		EvaluatedAt:       time.Now().UTC(),
		EvaluationVersion: version,
	}
	if err := s.evalRepo.Append(ctx, eval); err != nil {
		return nil, domainsvc.OutcomeFailed, err
	}
	return eval, domainsvc.OutcomeEvaluated, nil
}

// resolveSnapshot pulls every required data source into one snapshot. A
// provider error is a hard failure; an individual metric simply missing is
// left for the strategy to judge.
func (s *evaluationAppServiceImpl) resolveSnapshot(ctx context.Context, tenantID string, entity models.EntityRef, def *models.RiskDefinition) (*models.EvaluationSnapshot, error) {
	snap := models.NewEvaluationSnapshot(tenantID, entity, time.Now().UTC())

	for _, source := range def.RequiredDataSources {
		switch source {
		case constants.DataSourceWeather:
			w, err := s.weather.Snapshot(ctx, tenantID, entity.Latitude, entity.Longitude)
			if err != nil {
				return nil, err
			}
			snap.SetMetric(models.MetricTemperature, w.Temperature)
			snap.SetMetric(models.MetricHumidity, w.Humidity)
			snap.SetMetric(models.MetricWindSpeed, w.WindSpeed)
			snap.SetMetric(models.MetricPrecipitation, w.Precipitation)
			snap.SetMetric(models.MetricET0, w.ET0)
			snap.SetMetric(models.MetricTempMin, w.TempMin)
			snap.MarkObserved(source, w.ObservedAt)

		case constants.DataSourceGDD:
			baseTemp := def.ModelConfig.FloatOr("gdd_base_temp", 10)
			startDay := int(def.ModelConfig.FloatOr("season_start_day", 1))
			gdd, observedAt, err := s.weather.AccumulatedGDD(ctx, tenantID, entity.Latitude, entity.Longitude, baseTemp, startDay)
			if err != nil {
				return nil, err
			}
			snap.SetMetric(models.MetricGDD, gdd)
			snap.MarkObserved(source, observedAt)

		case constants.DataSourceTelemetry:
			s.resolveTelemetry(ctx, snap, tenantID, entity.ID, source, telemetryMetricsFor(def))

		case constants.DataSourceSoilMoisture:
			s.resolveTelemetry(ctx, snap, tenantID, entity.ID, source, []string{models.MetricSoilMoisture})

		case constants.DataSourceVegetationIndex:
			s.resolveTelemetry(ctx, snap, tenantID, entity.ID, source, []string{models.MetricNDVI})
		}
	}
	return snap, nil
}

// resolveTelemetry is best effort: a telemetry outage surfaces as missing
// freshness, which downgrades the evaluation to a skip instead of a failure.
func (s *evaluationAppServiceImpl) resolveTelemetry(ctx context.Context, snap *models.EvaluationSnapshot, tenantID, entityID string, source constants.DataSource, metrics []string) {
	readings, err := s.telemetry.Latest(ctx, tenantID, entityID, metrics)
	if err != nil {
		s.log.Warn(ctx, "telemetry read failed",
			logger.String("tenant_id", tenantID),
			logger.String("entity_id", entityID),
			logger.String("source", string(source)),
			logger.String("error", err.Error()))
		return
	}
	var newest time.Time
	for metric, reading := range readings {
		snap.SetMetric(metric, reading.Value)
		if reading.ObservedAt.After(newest) {
			newest = reading.ObservedAt
		}
	}
	if !newest.IsZero() {
		snap.MarkObserved(source, newest)
	}
}

func (s *evaluationAppServiceImpl) staleSources(snap *models.EvaluationSnapshot, def *models.RiskDefinition) []string {
	var stale []string
	for _, source := range def.RequiredDataSources {
		if !snap.IsFresh(source, s.opts.SnapshotFreshness) {
			stale = append(stale, string(source))
		}
	}
	return stale
}

func (s *evaluationAppServiceImpl) batchDefinitions(ctx context.Context) ([]*models.RiskDefinition, error) {
	defs, err := s.catalog.ListActive(ctx, models.DefinitionFilter{})
	if err != nil {
		return nil, err
	}
	batch := defs[:0:0]
	for _, def := range defs {
		if def.EvaluationMode.IncludesBatch() {
			batch = append(batch, def)
		}
	}
	return batch, nil
}

func (s *evaluationAppServiceImpl) catalogVersion(ctx context.Context) int64 {
	version, err := s.catalog.Version(ctx)
	if err != nil {
		s.log.Warn(ctx, "catalog version read failed",
			logger.String("error", err.Error()))
		return 0
	}
	return version
}

// telemetryMetricsFor reads the definition's requested telemetry metrics,
// defaulting to soil moisture.
func telemetryMetricsFor(def *models.RiskDefinition) []string {
	raw, ok := def.ModelConfig["telemetry_metrics"]
	if !ok {
		return []string{models.MetricSoilMoisture}
	}
	list, ok := raw.([]interface{})
	if !ok {
		return []string{models.MetricSoilMoisture}
	}
	metrics := make([]string, 0, len(list))
	for _, item := range list {
		if name, ok := item.(string); ok {
			metrics = append(metrics, name)
		}
	}
	if len(metrics) == 0 {
		return []string{models.MetricSoilMoisture}
	}
	return metrics
}

func groupByEntityType(defs []*models.RiskDefinition) map[string][]*models.RiskDefinition {
	grouped := make(map[string][]*models.RiskDefinition)
	for _, def := range defs {
		grouped[def.TargetEntityType] = append(grouped[def.TargetEntityType], def)
	}
	return grouped
}
