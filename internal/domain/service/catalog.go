package service

import (
	"context"
	"strings"
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/internal/domain/strategy"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// CatalogService manages the risk definition registry: registration,
// lookup and active listings. Every successful write bumps the shared
// catalog version so orchestrator caches on other instances refresh.
type CatalogService struct {
	repo       repository.RiskDefinitionRepository
	strategies *strategy.Registry
	versions   CatalogVersionStore
	log        logger.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(
	repo repository.RiskDefinitionRepository,
	strategies *strategy.Registry,
	versions CatalogVersionStore,
	log logger.Logger,
) *CatalogService {
	return &CatalogService{
		repo:       repo,
		strategies: strategies,
		versions:   versions,
		log:        log.WithComponent("catalog-service"),
	}
}

// Register validates and persists a new risk definition. The code must be
// unique across the catalog; thresholds must be strictly increasing; the
// model type must have a registered strategy.
func (s *CatalogService) Register(ctx context.Context, def *models.RiskDefinition) (*models.RiskDefinition, error) {
	if err := s.validate(def); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}

	version := s.bumpVersion(ctx)
	s.log.Info(ctx, "risk definition registered",
		logger.String("code", def.Code),
		logger.String("model_type", string(def.ModelType)),
		logger.Int64("catalog_version", version))
	return def, nil
}

// Update replaces an existing definition. The code routes the update; the
// same validation as Register applies to the new revision.
func (s *CatalogService) Update(ctx context.Context, def *models.RiskDefinition) (*models.RiskDefinition, error) {
	if err := s.validate(def); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCode(ctx, def.Code)
	if err != nil {
		return nil, err
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}

	version := s.bumpVersion(ctx)
	s.log.Info(ctx, "risk definition updated",
		logger.String("code", def.Code),
		logger.Bool("active", def.Active),
		logger.Int64("catalog_version", version))
	return def, nil
}

// Lookup returns the definition for a code or a not_found error.
func (s *CatalogService) Lookup(ctx context.Context, code string) (*models.RiskDefinition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.ErrInvalidRequest("risk code is required")
	}
	return s.repo.FindByCode(ctx, code)
}

// ListActive returns active definitions matching the filter, ordered by code.
func (s *CatalogService) ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error) {
	if filter.Domain != "" && !filter.Domain.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown risk domain: " + string(filter.Domain))
	}
	if filter.Mode != "" && !filter.Mode.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown evaluation mode: " + string(filter.Mode))
	}
	return s.repo.ListActive(ctx, filter)
}

// Version returns the current catalog version stamp.
func (s *CatalogService) Version(ctx context.Context) (int64, error) {
	return s.versions.Current(ctx)
}

func (s *CatalogService) validate(def *models.RiskDefinition) error {
	if def == nil {
		return errors.ErrInvalidRequest("risk definition is required")
	}
	def.Code = strings.TrimSpace(def.Code)
	switch {
	case def.Code == "":
		return errors.ErrInvalidRequest("risk code is required")
	case def.Name == "":
		return errors.ErrInvalidRequest("risk name is required")
	case def.TargetEntityType == "":
		return errors.ErrInvalidRequest("target entity type is required")
	case len(def.RequiredDataSources) == 0:
		return errors.ErrInvalidRequest("at least one required data source is needed")
	}
	if !def.Domain.IsValid() {
		return errors.ErrInvalidRequest("unknown risk domain: " + string(def.Domain))
	}
	if !def.EvaluationMode.IsValid() {
		return errors.ErrInvalidRequest("unknown evaluation mode: " + string(def.EvaluationMode))
	}
	for _, src := range def.RequiredDataSources {
		if !src.IsValid() {
			return errors.ErrInvalidRequest("unknown data source: " + string(src))
		}
	}
	if err := def.SeverityThresholds.Validate(); err != nil {
		return errors.ErrInvalidThresholds(err.Error())
	}
	if !s.strategies.Has(def.ModelType) {
		return errors.ErrUnknownModelType(string(def.ModelType))
	}
	return nil
}

// bumpVersion is best effort. A failed bump only delays cache refresh until
// the TTL expires, so it logs instead of failing the write.
func (s *CatalogService) bumpVersion(ctx context.Context) int64 {
	version, err := s.versions.Bump(ctx)
	if err != nil {
		s.log.Warn(ctx, "catalog version bump failed",
			logger.String("error", err.Error()))
		return 0
	}
	return version
}
