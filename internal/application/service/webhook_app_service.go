package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// WebhookAppService manages tenant webhook registrations and exposes the
// terminal delivery failure log.
type WebhookAppService interface {
	Register(ctx context.Context, tenantID string, req *dto.RegisterWebhookRequest) (*dto.WebhookResponse, error)
	Update(ctx context.Context, tenantID, id string, req *dto.RegisterWebhookRequest) (*dto.WebhookResponse, error)
	Get(ctx context.Context, tenantID, id string) (*dto.WebhookResponse, error)
	List(ctx context.Context, tenantID string) ([]*dto.WebhookResponse, error)
	Deactivate(ctx context.Context, tenantID, id string) error
	ListFailures(ctx context.Context, tenantID string, limit int) ([]*dto.DeliveryFailureResponse, error)
}

type webhookAppServiceImpl struct {
	webhookRepo repository.WebhookRepository
	failureRepo repository.DeliveryFailureRepository
	log         logger.Logger
}

// NewWebhookAppService creates the webhook application service.
func NewWebhookAppService(
	webhookRepo repository.WebhookRepository,
	failureRepo repository.DeliveryFailureRepository,
	log logger.Logger,
) WebhookAppService {
	return &webhookAppServiceImpl{
		webhookRepo: webhookRepo,
		failureRepo: failureRepo,
		log:         log.WithComponent("webhook-service"),
	}
}

func (s *webhookAppServiceImpl) Register(ctx context.Context, tenantID string, req *dto.RegisterWebhookRequest) (*dto.WebhookResponse, error) {
	if err := validateEndpoint(req.URL); err != nil {
		return nil, err
	}
	reg := req.ToDomain(tenantID)
	if !reg.MinSeverity.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown min_severity: " + req.MinSeverity)
	}
	reg.ID = uuid.NewString()
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if err := s.webhookRepo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "webhook registered",
		logger.String("tenant_id", tenantID),
		logger.String("webhook_id", reg.ID),
		logger.String("url", reg.URL))
	return dto.WebhookToDTO(reg), nil
}

func (s *webhookAppServiceImpl) Update(ctx context.Context, tenantID, id string, req *dto.RegisterWebhookRequest) (*dto.WebhookResponse, error) {
	if err := validateEndpoint(req.URL); err != nil {
		return nil, err
	}
	existing, err := s.webhookRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	reg := req.ToDomain(tenantID)
	if !reg.MinSeverity.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown min_severity: " + req.MinSeverity)
	}
	reg.ID = existing.ID
	reg.CreatedAt = existing.CreatedAt
	reg.UpdatedAt = time.Now().UTC()
	if reg.Secret == "" {
		reg.Secret = existing.Secret
	}
	if err := s.webhookRepo.Update(ctx, reg); err != nil {
		return nil, err
	}
	return dto.WebhookToDTO(reg), nil
}

func (s *webhookAppServiceImpl) Get(ctx context.Context, tenantID, id string) (*dto.WebhookResponse, error) {
	reg, err := s.webhookRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return dto.WebhookToDTO(reg), nil
}

func (s *webhookAppServiceImpl) List(ctx context.Context, tenantID string) ([]*dto.WebhookResponse, error) {
	regs, err := s.webhookRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.WebhookResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, dto.WebhookToDTO(reg))
	}
	return out, nil
}

func (s *webhookAppServiceImpl) Deactivate(ctx context.Context, tenantID, id string) error {
	if err := s.webhookRepo.Deactivate(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info(ctx, "webhook deactivated",
		logger.String("tenant_id", tenantID),
		logger.String("webhook_id", id))
	return nil
}

func (s *webhookAppServiceImpl) ListFailures(ctx context.Context, tenantID string, limit int) ([]*dto.DeliveryFailureResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	failures, err := s.failureRepo.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DeliveryFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, dto.DeliveryFailureToDTO(f))
	}
	return out, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.ErrInvalidRequest("webhook url must be an absolute http(s) URL")
	}
	return nil
}
