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

// riskDefinitionDBM is the persistence shape of a catalog entry.
type riskDefinitionDBM struct {
	Code                string  `gorm:"primaryKey;size:128"`
	Name                string  `gorm:"size:255;not null"`
	Domain              string  `gorm:"size:32;index"`
	TargetEntityType    string  `gorm:"size:64;index"`
	TargetSubtype       string  `gorm:"size:64"`
	RequiredDataSources string  `gorm:"type:text"` // JSON array
	EvaluationMode      string  `gorm:"size:16;index"`
	ModelType           string  `gorm:"size:32"`
	ModelConfig         string  `gorm:"type:text"` // JSON object
	ThresholdLow        float64 `gorm:"not null"`
	ThresholdMedium     float64 `gorm:"not null"`
	ThresholdHigh       float64 `gorm:"not null"`
	ThresholdCritical   float64 `gorm:"not null"`
	Active              bool    `gorm:"index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (riskDefinitionDBM) TableName() string { return "risk_definitions" }

func (m *riskDefinitionDBM) toDomain() (*models.RiskDefinition, error) {
	var sources []constants.DataSource
	if m.RequiredDataSources != "" {
		if err := json.Unmarshal([]byte(m.RequiredDataSources), &sources); err != nil {
			return nil, err
		}
	}
	var cfg models.ModelConfig
	if m.ModelConfig != "" {
		if err := json.Unmarshal([]byte(m.ModelConfig), &cfg); err != nil {
			return nil, err
		}
	}
	return &models.RiskDefinition{
		Code:                m.Code,
		Name:                m.Name,
		Domain:              constants.RiskDomain(m.Domain),
		TargetEntityType:    m.TargetEntityType,
		TargetSubtype:       m.TargetSubtype,
		RequiredDataSources: sources,
		EvaluationMode:      constants.EvaluationMode(m.EvaluationMode),
		ModelType:           constants.ModelType(m.ModelType),
		ModelConfig:         cfg,
		SeverityThresholds: models.SeverityThresholds{
			Low:      m.ThresholdLow,
			Medium:   m.ThresholdMedium,
			High:     m.ThresholdHigh,
			Critical: m.ThresholdCritical,
		},
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func fromDomainDefinition(d *models.RiskDefinition) (*riskDefinitionDBM, error) {
	sources, err := json.Marshal(d.RequiredDataSources)
	if err != nil {
		return nil, err
	}
	cfg, err := json.Marshal(d.ModelConfig)
	if err != nil {
		return nil, err
	}
	return &riskDefinitionDBM{
		Code:                d.Code,
		Name:                d.Name,
		Domain:              string(d.Domain),
		TargetEntityType:    d.TargetEntityType,
		TargetSubtype:       d.TargetSubtype,
		RequiredDataSources: string(sources),
		EvaluationMode:      string(d.EvaluationMode),
		ModelType:           string(d.ModelType),
		ModelConfig:         string(cfg),
		ThresholdLow:        d.SeverityThresholds.Low,
		ThresholdMedium:     d.SeverityThresholds.Medium,
		ThresholdHigh:       d.SeverityThresholds.High,
		ThresholdCritical:   d.SeverityThresholds.Critical,
		Active:              d.Active,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}, nil
}

// RiskDefinitionRepoImpl implements RiskDefinitionRepository on PostgreSQL.
type RiskDefinitionRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewRiskDefinitionRepository creates the catalog repository.
func NewRiskDefinitionRepository(db *gorm.DB, log logger.Logger) repository.RiskDefinitionRepository {
	return &RiskDefinitionRepoImpl{db: db, logger: log}
}

func (r *RiskDefinitionRepoImpl) Create(ctx context.Context, def *models.RiskDefinition) error {
	dbm, err := fromDomainDefinition(def)
	if err != nil {
		return errors.ErrInternal("encoding risk definition", err)
	}
	if err := r.db.WithContext(ctx).Create(dbm).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrDuplicateCode(def.Code)
		}
		r.logger.Error(ctx, "risk definition insert failed", err,
			logger.String("code", def.Code))
		return errors.ErrInternal("persisting risk definition", err)
	}
	return nil
}

func (r *RiskDefinitionRepoImpl) Update(ctx context.Context, def *models.RiskDefinition) error {
	dbm, err := fromDomainDefinition(def)
	if err != nil {
		return errors.ErrInternal("encoding risk definition", err)
	}
	result := r.db.WithContext(ctx).
		Model(&riskDefinitionDBM{}).
		Where("code = ?", def.Code).
		Select("*").
		Omit("code", "created_at").
		Updates(dbm)
	if result.Error != nil {
		r.logger.Error(ctx, "risk definition update failed", result.Error,
			logger.String("code", def.Code))
		return errors.ErrInternal("updating risk definition", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("risk definition", def.Code)
	}
	return nil
}

func (r *RiskDefinitionRepoImpl) FindByCode(ctx context.Context, code string) (*models.RiskDefinition, error) {
	var dbm riskDefinitionDBM
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("risk definition", code)
		}
		return nil, errors.ErrInternal("reading risk definition", err)
	}
	def, err := dbm.toDomain()
	if err != nil {
		return nil, errors.ErrInternal("decoding risk definition", err)
	}
	return def, nil
}

func (r *RiskDefinitionRepoImpl) ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if filter.Domain != "" {
		query = query.Where("domain = ?", string(filter.Domain))
	}
	if filter.TargetType != "" {
		query = query.Where("target_entity_type = ?", filter.TargetType)
	}
	if filter.Mode != "" {
		query = query.Where("evaluation_mode = ?", string(filter.Mode))
	}

	var dbms []riskDefinitionDBM
	if err := query.Order("code asc").Find(&dbms).Error; err != nil {
		return nil, errors.ErrInternal("listing risk definitions", err)
	}

	defs := make([]*models.RiskDefinition, 0, len(dbms))
	for i := range dbms {
		def, err := dbms[i].toDomain()
		if err != nil {
			return nil, errors.ErrInternal("decoding risk definition", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
