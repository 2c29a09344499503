package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// The repositories run the same GORM code against an in-memory SQLite for
// unit tests; the integration suite exercises real PostgreSQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	// A pooled second connection would see a different in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func testDefinition(code string) *models.RiskDefinition {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.RiskDefinition{
		Code:                code,
		Name:                "Night frost risk",
		Domain:              constants.RiskDomainAgronomic,
		TargetEntityType:    "parcel",
		RequiredDataSources: []constants.DataSource{constants.DataSourceWeather},
		EvaluationMode:      constants.EvaluationModeHybrid,
		ModelType:           constants.ModelTypeSimple,
		ModelConfig:         models.ModelConfig{"formula": "frost"},
		SeverityThresholds:  models.SeverityThresholds{Low: 35, Medium: 60, High: 80, Critical: 93},
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestRiskDefinitionRepo_CreateAndFind(t *testing.T) {
	repo := NewRiskDefinitionRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testDefinition("frost_night")))

	got, err := repo.FindByCode(ctx, "frost_night")
	require.NoError(t, err)
	assert.Equal(t, "frost_night", got.Code)
	assert.Equal(t, constants.ModelTypeSimple, got.ModelType)
	assert.Equal(t, 80.0, got.SeverityThresholds.High)
	formula, _ := got.ModelConfig.String("formula")
	assert.Equal(t, "frost", formula)
}

func TestRiskDefinitionRepo_DuplicateCode(t *testing.T) {
	repo := NewRiskDefinitionRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testDefinition("frost_night")))
	err := repo.Create(ctx, testDefinition("frost_night"))

	assert.True(t, errors.IsDuplicateCode(err))
}

func TestRiskDefinitionRepo_ListActiveOrdering(t *testing.T) {
	repo := NewRiskDefinitionRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	inactive := testDefinition("aaa_inactive")
	inactive.Active = false
	require.NoError(t, repo.Create(ctx, inactive))
	require.NoError(t, repo.Create(ctx, testDefinition("zz_spray")))
	require.NoError(t, repo.Create(ctx, testDefinition("frost_night")))

	defs, err := repo.ListActive(ctx, models.DefinitionFilter{})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "frost_night", defs[0].Code)
	assert.Equal(t, "zz_spray", defs[1].Code)
}

func TestRiskDefinitionRepo_UpdateUnknownCode(t *testing.T) {
	repo := NewRiskDefinitionRepository(newTestDB(t), logger.NewNoopLogger())
	err := repo.Update(context.Background(), testDefinition("ghost"))
	assert.True(t, errors.IsNotFound(err))
}

func testEvaluation(id, tenantID string, score float64, severity constants.Severity, at time.Time) *models.RiskEvaluation {
	snap := models.NewEvaluationSnapshot(tenantID, models.EntityRef{ID: "parcel-1", Type: "parcel"}, at)
	snap.SetMetric(models.MetricTempMin, -3)
	return &models.RiskEvaluation{
		ID:               id,
		TenantID:         tenantID,
		EntityID:         "parcel-1",
		EntityType:       "parcel",
		RiskCode:         "frost_night",
		ProbabilityScore: score,
		Severity:         severity,
		Snapshot:         snap,
		EvaluatedAt:      at,
	}
}

func TestEvaluationRepo_AppendAndLatest(t *testing.T) {
	repo := NewEvaluationRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Append(ctx, testEvaluation("e1", "tenant-1", 40, constants.SeverityLow, base.Add(-time.Hour))))
	require.NoError(t, repo.Append(ctx, testEvaluation("e2", "tenant-1", 84, constants.SeverityHigh, base)))

	latest, err := repo.LatestFor(ctx, "tenant-1", "parcel-1", "frost_night")
	require.NoError(t, err)
	assert.Equal(t, "e2", latest.ID)
	require.NotNil(t, latest.Snapshot)
	v, ok := latest.Snapshot.Metric(models.MetricTempMin)
	assert.True(t, ok)
	assert.Equal(t, -3.0, v)
}

func TestEvaluationRepo_QueryMinSeverity(t *testing.T) {
	repo := NewEvaluationRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Append(ctx, testEvaluation("e1", "tenant-1", 10, constants.SeverityNone, base.Add(-2*time.Hour))))
	require.NoError(t, repo.Append(ctx, testEvaluation("e2", "tenant-1", 55, constants.SeverityMedium, base.Add(-time.Hour))))
	require.NoError(t, repo.Append(ctx, testEvaluation("e3", "tenant-1", 95, constants.SeverityCritical, base)))

	evals, err := repo.Query(ctx, models.EvaluationQuery{
		TenantID:    "tenant-1",
		MinSeverity: constants.SeverityMedium,
	})
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, "e3", evals[0].ID, "newest first")
	assert.Equal(t, "e2", evals[1].ID)
}

func TestEvaluationRepo_TenantIsolation(t *testing.T) {
	repo := NewEvaluationRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Append(ctx, testEvaluation("e1", "tenant-1", 84, constants.SeverityHigh, base)))
	require.NoError(t, repo.Append(ctx, testEvaluation("e2", "tenant-2", 84, constants.SeverityHigh, base)))

	evals, err := repo.Query(ctx, models.EvaluationQuery{TenantID: "tenant-1"})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "tenant-1", evals[0].TenantID)

	// An unscoped query is rejected without the diagnostic marker.
	_, err = repo.Query(ctx, models.EvaluationQuery{})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeTenantMismatch, appErr.Code())

	// The diagnostic marker opens the cross-tenant read.
	diagCtx := context.WithValue(ctx, constants.ContextKeyDiagnostic, true)
	evals, err = repo.Query(diagCtx, models.EvaluationQuery{})
	require.NoError(t, err)
	assert.Len(t, evals, 2)
}

func TestSubscriptionRepo_UpsertReplaces(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	sub := &models.TenantSubscription{
		TenantID:             "tenant-1",
		RiskCode:             "frost_night",
		Active:               true,
		UserThreshold:        70,
		NotificationChannels: []string{"email"},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, repo.Upsert(ctx, sub))

	sub.UserThreshold = 85
	sub.EntityFilter = &models.EntityFilter{Subtype: "vineyard"}
	require.NoError(t, repo.Upsert(ctx, sub))

	subs, err := repo.ListByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 85.0, subs[0].UserThreshold)
	require.NotNil(t, subs[0].EntityFilter)
	assert.Equal(t, "vineyard", subs[0].EntityFilter.Subtype)
}

func TestSubscriptionRepo_FindActiveByRisk(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	active := &models.TenantSubscription{TenantID: "tenant-1", RiskCode: "frost_night", Active: true, UserThreshold: 70}
	muted := &models.TenantSubscription{TenantID: "tenant-1", RiskCode: "spray_window", Active: false, UserThreshold: 50}
	other := &models.TenantSubscription{TenantID: "tenant-2", RiskCode: "frost_night", Active: true, UserThreshold: 60}
	require.NoError(t, repo.Upsert(ctx, active))
	require.NoError(t, repo.Upsert(ctx, muted))
	require.NoError(t, repo.Upsert(ctx, other))

	subs, err := repo.FindActiveByRisk(ctx, "tenant-1", "frost_night")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "tenant-1", subs[0].TenantID)
}

func TestWebhookRepo_TenantMismatch(t *testing.T) {
	repo := NewWebhookRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	reg := &models.WebhookRegistration{
		ID:               "wh-1",
		TenantID:         "tenant-1",
		URL:              "https://alerts.example.com/hook",
		Secret:           "s3cret",
		SubscribedEvents: []string{constants.EventTypeRiskEvaluation},
		MinSeverity:      constants.SeverityLow,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.Create(ctx, reg))

	_, err := repo.FindByID(ctx, "tenant-2", "wh-1")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeTenantMismatch, appErr.Code())
}

func TestWebhookRepo_DeactivateAndList(t *testing.T) {
	repo := NewWebhookRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"wh-1", "wh-2"} {
		require.NoError(t, repo.Create(ctx, &models.WebhookRegistration{
			ID:          id,
			TenantID:    "tenant-1",
			URL:         "https://alerts.example.com/" + id,
			Secret:      "s3cret",
			MinSeverity: constants.SeverityLow,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
	}

	require.NoError(t, repo.Deactivate(ctx, "tenant-1", "wh-1"))

	active, err := repo.ListActiveByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "wh-2", active[0].ID)

	all, err := repo.ListByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.True(t, errors.IsNotFound(repo.Deactivate(ctx, "tenant-1", "ghost")))
}

func TestDeliveryFailureRepo_RecordAndList(t *testing.T) {
	repo := NewDeliveryFailureRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	older := &models.DeliveryFailure{
		ID: "f1", TenantID: "tenant-1", WebhookID: "wh-1", EventID: "ev-1",
		URL: "https://alerts.example.com/hook", Attempts: 5,
		LastError: "connection refused", FailedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := &models.DeliveryFailure{
		ID: "f2", TenantID: "tenant-1", WebhookID: "wh-1", EventID: "ev-2",
		URL: "https://alerts.example.com/hook", Attempts: 5,
		LastError: "504 gateway timeout", FailedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Record(ctx, older))
	require.NoError(t, repo.Record(ctx, newer))

	failures, err := repo.ListByTenant(ctx, "tenant-1", 10)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "f2", failures[0].ID, "newest first")
}
