package service

import (
	"context"
	"time"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/domain/repository"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// SubscriptionAppService manages tenant alert preferences.
type SubscriptionAppService interface {
	Upsert(ctx context.Context, tenantID string, req *dto.UpsertSubscriptionRequest) (*dto.SubscriptionResponse, error)
	List(ctx context.Context, tenantID string) ([]*dto.SubscriptionResponse, error)
	Delete(ctx context.Context, tenantID, riskCode string) error
}

type subscriptionAppServiceImpl struct {
	subRepo repository.SubscriptionRepository
	catalog *domainsvc.CatalogService
	log     logger.Logger
}

// NewSubscriptionAppService creates the subscription application service.
func NewSubscriptionAppService(subRepo repository.SubscriptionRepository, catalog *domainsvc.CatalogService, log logger.Logger) SubscriptionAppService {
	return &subscriptionAppServiceImpl{
		subRepo: subRepo,
		catalog: catalog,
		log:     log.WithComponent("subscription-service"),
	}
}

func (s *subscriptionAppServiceImpl) Upsert(ctx context.Context, tenantID string, req *dto.UpsertSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if req.UserThreshold < constants.ScoreMin || req.UserThreshold > constants.ScoreMax {
		return nil, errors.ErrInvalidRequest("user_threshold must be between 0 and 100")
	}
	// Subscriptions to unknown risk codes would never fire; reject them.
	if _, err := s.catalog.Lookup(ctx, req.RiskCode); err != nil {
		return nil, err
	}
	sub := req.ToDomain(tenantID)
	sub.UpdatedAt = time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = sub.UpdatedAt
	}
	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "subscription upserted",
		logger.String("tenant_id", tenantID),
		logger.String("risk_code", sub.RiskCode),
		logger.Float64("user_threshold", sub.UserThreshold))
	return dto.SubscriptionToDTO(sub), nil
}

func (s *subscriptionAppServiceImpl) List(ctx context.Context, tenantID string) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.subRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, dto.SubscriptionToDTO(sub))
	}
	return out, nil
}

func (s *subscriptionAppServiceImpl) Delete(ctx context.Context, tenantID, riskCode string) error {
	if riskCode == "" {
		return errors.ErrInvalidRequest("risk code is required")
	}
	return s.subRepo.Delete(ctx, tenantID, riskCode)
}
