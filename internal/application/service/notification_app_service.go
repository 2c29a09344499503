package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/logger"
)

// NotificationAppService matches persisted evaluations against tenant
// subscriptions and enqueues one notification event per match. Matching is
// strictly tenant-scoped: only the evaluation's own tenant is consulted.
type NotificationAppService interface {
	// DispatchEvaluation runs subscription matching for one evaluation. A
	// queue failure for one subscription never blocks the others; the first
	// enqueue error is returned after all matches were attempted.
	DispatchEvaluation(ctx context.Context, eval *models.RiskEvaluation) (int, error)
}

type notificationAppServiceImpl struct {
	subRepo repository.SubscriptionRepository
	queue   domainsvc.NotificationQueue
	metrics domainsvc.Metrics
	log     logger.Logger
}

// NewNotificationAppService creates the subscription matcher.
func NewNotificationAppService(
	subRepo repository.SubscriptionRepository,
	queue domainsvc.NotificationQueue,
	metrics domainsvc.Metrics,
	log logger.Logger,
) NotificationAppService {
	return &notificationAppServiceImpl{
		subRepo: subRepo,
		queue:   queue,
		metrics: metrics,
		log:     log.WithComponent("notification-service"),
	}
}

func (s *notificationAppServiceImpl) DispatchEvaluation(ctx context.Context, eval *models.RiskEvaluation) (int, error) {
	if !eval.NeedsNotification() {
		return 0, nil
	}

	subs, err := s.subRepo.FindActiveByRisk(ctx, eval.TenantID, eval.RiskCode)
	if err != nil {
		return 0, err
	}

	var enqueued int
	var firstErr error
	for _, sub := range subs {
		if !sub.MatchesEvaluation(eval) {
			continue
		}
		event := s.buildEvent(eval, sub)
		if err := s.queue.Enqueue(ctx, event); err != nil {
			s.log.Error(ctx, "notification enqueue failed", err,
				logger.String("event_id", event.EventID),
				logger.String("risk_code", eval.RiskCode),
				logger.String("tenant_id", eval.TenantID))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		enqueued++
		s.metrics.RecordNotificationEnqueued(eval.RiskCode)
	}

	if enqueued > 0 {
		s.log.Info(ctx, "evaluation dispatched",
			logger.String("risk_code", eval.RiskCode),
			logger.String("entity_id", eval.EntityID),
			logger.String("severity", string(eval.Severity)),
			logger.Int("matches", enqueued))
	}
	return enqueued, firstErr
}

func (s *notificationAppServiceImpl) buildEvent(eval *models.RiskEvaluation, sub *models.TenantSubscription) *models.NotificationEvent {
	var entity models.EntityRef
	if eval.Snapshot != nil {
		entity = eval.Snapshot.Entity
	} else {
		entity = models.EntityRef{ID: eval.EntityID, Type: eval.EntityType}
	}
	return &models.NotificationEvent{
		EventID:      uuid.NewString(),
		EventType:    constants.EventTypeRiskEvaluation,
		TenantID:     eval.TenantID,
		RiskCode:     eval.RiskCode,
		Severity:     eval.Severity,
		Score:        eval.ProbabilityScore,
		EvaluationID: eval.ID,
		Entity:       entity,
		Channels:     sub.NotificationChannels,
		EvaluatedAt:  eval.EvaluatedAt,
		EmittedAt:    time.Now().UTC(),
	}
}
