package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// riskEvaluationDBM is the persistence shape of one evaluation. Rows are
// append-only; severity_rank is denormalized so history reads can filter on
// a minimum severity without decoding.
type riskEvaluationDBM struct {
	ID                string  `gorm:"primaryKey;size:36"`
	TenantID          string  `gorm:"size:64;index:idx_eval_lookup,priority:1;not null"`
	EntityID          string  `gorm:"size:64;index:idx_eval_lookup,priority:2"`
	EntityType        string  `gorm:"size:64"`
	RiskCode          string  `gorm:"size:128;index:idx_eval_lookup,priority:3"`
	ProbabilityScore  float64 `gorm:"not null"`
	Severity          string  `gorm:"size:16"`
	SeverityRank      int     `gorm:"index"`
	Snapshot          string  `gorm:"type:text"` // JSON
	EvaluatedAt       time.Time `gorm:"index:idx_eval_lookup,priority:4,sort:desc"`
	EvaluationVersion int64
}

func (riskEvaluationDBM) TableName() string { return "risk_evaluations" }

func (m *riskEvaluationDBM) toDomain() (*models.RiskEvaluation, error) {
	var snap *models.EvaluationSnapshot
	if m.Snapshot != "" {
		snap = &models.EvaluationSnapshot{}
		if err := json.Unmarshal([]byte(m.Snapshot), snap); err != nil {
			return nil, err
		}
	}
	return &models.RiskEvaluation{
		ID:                m.ID,
		TenantID:          m.TenantID,
		EntityID:          m.EntityID,
		EntityType:        m.EntityType,
		RiskCode:          m.RiskCode,
		ProbabilityScore:  m.ProbabilityScore,
		Severity:          constants.Severity(m.Severity),
		Snapshot:          snap,
		EvaluatedAt:       m.EvaluatedAt,
		EvaluationVersion: m.EvaluationVersion,
	}, nil
}

func fromDomainEvaluation(e *models.RiskEvaluation) (*riskEvaluationDBM, error) {
	var snap []byte
	if e.Snapshot != nil {
		var err error
		snap, err = json.Marshal(e.Snapshot)
		if err != nil {
			return nil, err
		}
	}
	return &riskEvaluationDBM{
		ID:                e.ID,
		TenantID:          e.TenantID,
		EntityID:          e.EntityID,
		EntityType:        e.EntityType,
		RiskCode:          e.RiskCode,
		ProbabilityScore:  e.ProbabilityScore,
		Severity:          string(e.Severity),
		SeverityRank:      e.Severity.Rank(),
		Snapshot:          string(snap),
		EvaluatedAt:       e.EvaluatedAt,
		EvaluationVersion: e.EvaluationVersion,
	}, nil
}

// EvaluationRepoImpl implements the append-only risk state store.
type EvaluationRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewEvaluationRepository creates the evaluation repository.
func NewEvaluationRepository(db *gorm.DB, log logger.Logger) repository.EvaluationRepository {
	return &EvaluationRepoImpl{db: db, logger: log}
}

func (r *EvaluationRepoImpl) Append(ctx context.Context, eval *models.RiskEvaluation) error {
	dbm, err := fromDomainEvaluation(eval)
	if err != nil {
		return errors.ErrInternal("encoding evaluation", err)
	}
	if err := r.db.WithContext(ctx).Create(dbm).Error; err != nil {
		r.logger.Error(ctx, "evaluation insert failed", err,
			logger.String("tenant_id", eval.TenantID),
			logger.String("risk_code", eval.RiskCode))
		return errors.ErrInternal("persisting evaluation", err)
	}
	return nil
}

func (r *EvaluationRepoImpl) LatestFor(ctx context.Context, tenantID, entityID, riskCode string) (*models.RiskEvaluation, error) {
	var dbm riskEvaluationDBM
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_id = ? AND risk_code = ?", tenantID, entityID, riskCode).
		Order("evaluated_at desc").
		First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("evaluation", entityID+"/"+riskCode)
		}
		return nil, errors.ErrInternal("reading latest evaluation", err)
	}
	eval, err := dbm.toDomain()
	if err != nil {
		return nil, errors.ErrInternal("decoding evaluation", err)
	}
	return eval, nil
}

func (r *EvaluationRepoImpl) Query(ctx context.Context, q models.EvaluationQuery) ([]*models.RiskEvaluation, error) {
	if q.TenantID == "" {
		// Cross-tenant reads are reserved for platform diagnostics and are
		// audited when they happen.
		if !isDiagnostic(ctx) {
			return nil, errors.ErrTenantMismatch("")
		}
		r.logger.Warn(ctx, "cross-tenant evaluation query under diagnostic context")
	}

	query := r.db.WithContext(ctx).Model(&riskEvaluationDBM{})
	if q.TenantID != "" {
		query = query.Where("tenant_id = ?", q.TenantID)
	}
	if q.EntityID != "" {
		query = query.Where("entity_id = ?", q.EntityID)
	}
	if q.RiskCode != "" {
		query = query.Where("risk_code = ?", q.RiskCode)
	}
	if q.MinSeverity != "" {
		query = query.Where("severity_rank >= ?", q.MinSeverity.Rank())
	}
	if !q.From.IsZero() {
		query = query.Where("evaluated_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("evaluated_at <= ?", q.To)
	}
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var dbms []riskEvaluationDBM
	if err := query.Order("evaluated_at desc").Limit(limit).Find(&dbms).Error; err != nil {
		return nil, errors.ErrInternal("querying evaluations", err)
	}

	evals := make([]*models.RiskEvaluation, 0, len(dbms))
	for i := range dbms {
		eval, err := dbms[i].toDomain()
		if err != nil {
			return nil, errors.ErrInternal("decoding evaluation", err)
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

func isDiagnostic(ctx context.Context) bool {
	v, ok := ctx.Value(constants.ContextKeyDiagnostic).(bool)
	return ok && v
}
