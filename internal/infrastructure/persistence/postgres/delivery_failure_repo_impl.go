package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// deliveryFailureDBM records one webhook delivery that exhausted its retries.
type deliveryFailureDBM struct {
	ID        string `gorm:"primaryKey;size:36"`
	TenantID  string `gorm:"size:64;index"`
	WebhookID string `gorm:"size:36;index"`
	EventID   string `gorm:"size:36"`
	URL       string `gorm:"size:2048"`
	Attempts  int
	LastError string    `gorm:"type:text"`
	FailedAt  time.Time `gorm:"index"`
}

func (deliveryFailureDBM) TableName() string { return "webhook_delivery_failures" }

func (m *deliveryFailureDBM) toDomain() *models.DeliveryFailure {
	return &models.DeliveryFailure{
		ID:        m.ID,
		TenantID:  m.TenantID,
		WebhookID: m.WebhookID,
		EventID:   m.EventID,
		URL:       m.URL,
		Attempts:  m.Attempts,
		LastError: m.LastError,
		FailedAt:  m.FailedAt,
	}
}

// DeliveryFailureRepoImpl implements DeliveryFailureRepository on PostgreSQL.
type DeliveryFailureRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewDeliveryFailureRepository creates the delivery failure repository.
func NewDeliveryFailureRepository(db *gorm.DB, log logger.Logger) repository.DeliveryFailureRepository {
	return &DeliveryFailureRepoImpl{db: db, logger: log}
}

func (r *DeliveryFailureRepoImpl) Record(ctx context.Context, failure *models.DeliveryFailure) error {
	dbm := &deliveryFailureDBM{
		ID:        failure.ID,
		TenantID:  failure.TenantID,
		WebhookID: failure.WebhookID,
		EventID:   failure.EventID,
		URL:       failure.URL,
		Attempts:  failure.Attempts,
		LastError: failure.LastError,
		FailedAt:  failure.FailedAt,
	}
	if err := r.db.WithContext(ctx).Create(dbm).Error; err != nil {
		r.logger.Error(ctx, "delivery failure insert failed", err,
			logger.String("tenant_id", failure.TenantID),
			logger.String("webhook_id", failure.WebhookID))
		return errors.ErrInternal("persisting delivery failure", err)
	}
	return nil
}

func (r *DeliveryFailureRepoImpl) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*models.DeliveryFailure, error) {
	if limit <= 0 {
		limit = 100
	}
	var dbms []deliveryFailureDBM
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("failed_at desc").
		Limit(limit).
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrInternal("listing delivery failures", err)
	}
	failures := make([]*models.DeliveryFailure, 0, len(dbms))
	for i := range dbms {
		failures = append(failures, dbms[i].toDomain())
	}
	return failures, nil
}
