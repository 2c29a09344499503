package postgres

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// subscriptionDBM is the persistence shape of a tenant alert preference.
type subscriptionDBM struct {
	TenantID      string  `gorm:"primaryKey;size:64"`
	RiskCode      string  `gorm:"primaryKey;size:128"`
	Active        bool    `gorm:"index"`
	UserThreshold float64 `gorm:"not null"`
	Channels      string  `gorm:"type:text"` // JSON array
	EntityFilter  string  `gorm:"type:text"` // JSON object, empty when unfiltered
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (subscriptionDBM) TableName() string { return "tenant_subscriptions" }

func (m *subscriptionDBM) toDomain() (*models.TenantSubscription, error) {
	var channels []string
	if m.Channels != "" {
		if err := json.Unmarshal([]byte(m.Channels), &channels); err != nil {
			return nil, err
		}
	}
	var filter *models.EntityFilter
	if m.EntityFilter != "" {
		filter = &models.EntityFilter{}
		if err := json.Unmarshal([]byte(m.EntityFilter), filter); err != nil {
			return nil, err
		}
	}
	return &models.TenantSubscription{
		TenantID:             m.TenantID,
		RiskCode:             m.RiskCode,
		Active:               m.Active,
		UserThreshold:        m.UserThreshold,
		NotificationChannels: channels,
		EntityFilter:         filter,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func fromDomainSubscription(s *models.TenantSubscription) (*subscriptionDBM, error) {
	channels, err := json.Marshal(s.NotificationChannels)
	if err != nil {
		return nil, err
	}
	var filter []byte
	if s.EntityFilter != nil {
		filter, err = json.Marshal(s.EntityFilter)
		if err != nil {
			return nil, err
		}
	}
	return &subscriptionDBM{
		TenantID:      s.TenantID,
		RiskCode:      s.RiskCode,
		Active:        s.Active,
		UserThreshold: s.UserThreshold,
		Channels:      string(channels),
		EntityFilter:  string(filter),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

// SubscriptionRepoImpl implements SubscriptionRepository on PostgreSQL.
type SubscriptionRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSubscriptionRepository creates the subscription repository.
func NewSubscriptionRepository(db *gorm.DB, log logger.Logger) repository.SubscriptionRepository {
	return &SubscriptionRepoImpl{db: db, logger: log}
}

func (r *SubscriptionRepoImpl) Upsert(ctx context.Context, sub *models.TenantSubscription) error {
	dbm, err := fromDomainSubscription(sub)
	if err != nil {
		return errors.ErrInternal("encoding subscription", err)
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "risk_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"active", "user_threshold", "channels", "entity_filter", "updated_at",
		}),
	}).Create(dbm).Error
	if err != nil {
		r.logger.Error(ctx, "subscription upsert failed", err,
			logger.String("tenant_id", sub.TenantID),
			logger.String("risk_code", sub.RiskCode))
		return errors.ErrInternal("persisting subscription", err)
	}
	return nil
}

func (r *SubscriptionRepoImpl) FindActiveByRisk(ctx context.Context, tenantID, riskCode string) ([]*models.TenantSubscription, error) {
	var dbms []subscriptionDBM
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND risk_code = ? AND active = ?", tenantID, riskCode, true).
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrInternal("reading subscriptions", err)
	}
	return subscriptionsToDomain(dbms)
}

func (r *SubscriptionRepoImpl) ListByTenant(ctx context.Context, tenantID string) ([]*models.TenantSubscription, error) {
	var dbms []subscriptionDBM
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("risk_code asc").
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrInternal("listing subscriptions", err)
	}
	return subscriptionsToDomain(dbms)
}

func (r *SubscriptionRepoImpl) Delete(ctx context.Context, tenantID, riskCode string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND risk_code = ?", tenantID, riskCode).
		Delete(&subscriptionDBM{})
	if result.Error != nil {
		return errors.ErrInternal("deleting subscription", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("subscription", riskCode)
	}
	return nil
}

func (r *SubscriptionRepoImpl) DeleteByTenant(ctx context.Context, tenantID string) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&subscriptionDBM{}).Error
	if err != nil {
		return errors.ErrInternal("deleting tenant subscriptions", err)
	}
	return nil
}

func subscriptionsToDomain(dbms []subscriptionDBM) ([]*models.TenantSubscription, error) {
	subs := make([]*models.TenantSubscription, 0, len(dbms))
	for i := range dbms {
		sub, err := dbms[i].toDomain()
		if err != nil {
			return nil, errors.ErrInternal("decoding subscription", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
