// Package service contains the application services: thin orchestration over
// the domain, speaking DTOs toward the interfaces layer.
package service

import (
	"context"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/domain/models"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
)

// CatalogAppService exposes the risk catalog to the interfaces layer.
type CatalogAppService interface {
	Register(ctx context.Context, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error)
	Update(ctx context.Context, code string, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error)
	Lookup(ctx context.Context, code string) (*dto.RiskDefinitionResponse, error)
	ListActive(ctx context.Context, domain, targetType, mode string) ([]*dto.RiskDefinitionResponse, error)
}

type catalogAppServiceImpl struct {
	catalog *domainsvc.CatalogService
}

// NewCatalogAppService creates the catalog application service.
func NewCatalogAppService(catalog *domainsvc.CatalogService) CatalogAppService {
	return &catalogAppServiceImpl{catalog: catalog}
}

func (s *catalogAppServiceImpl) Register(ctx context.Context, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error) {
	def, err := s.catalog.Register(ctx, req.ToDomain())
	if err != nil {
		return nil, err
	}
	return dto.RiskDefinitionToDTO(def), nil
}

func (s *catalogAppServiceImpl) Update(ctx context.Context, code string, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error) {
	def := req.ToDomain()
	def.Code = code
	updated, err := s.catalog.Update(ctx, def)
	if err != nil {
		return nil, err
	}
	return dto.RiskDefinitionToDTO(updated), nil
}

func (s *catalogAppServiceImpl) Lookup(ctx context.Context, code string) (*dto.RiskDefinitionResponse, error) {
	def, err := s.catalog.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	return dto.RiskDefinitionToDTO(def), nil
}

func (s *catalogAppServiceImpl) ListActive(ctx context.Context, domain, targetType, mode string) ([]*dto.RiskDefinitionResponse, error) {
	filter := models.DefinitionFilter{
		Domain:     constants.RiskDomain(domain),
		TargetType: targetType,
		Mode:       constants.EvaluationMode(mode),
	}
	defs, err := s.catalog.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.RiskDefinitionResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, dto.RiskDefinitionToDTO(def))
	}
	return out, nil
}
