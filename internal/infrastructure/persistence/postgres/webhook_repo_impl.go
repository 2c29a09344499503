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

// webhookDBM is the persistence shape of a webhook registration.
type webhookDBM struct {
	ID               string `gorm:"primaryKey;size:36"`
	TenantID         string `gorm:"size:64;index"`
	URL              string `gorm:"size:2048;not null"`
	Secret           string `gorm:"size:255;not null"`
	SubscribedEvents string `gorm:"type:text"` // JSON array
	MinSeverity      string `gorm:"size:16"`
	Active           bool   `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (webhookDBM) TableName() string { return "webhook_registrations" }

func (m *webhookDBM) toDomain() (*models.WebhookRegistration, error) {
	var events []string
	if m.SubscribedEvents != "" {
		if err := json.Unmarshal([]byte(m.SubscribedEvents), &events); err != nil {
			return nil, err
		}
	}
	return &models.WebhookRegistration{
		ID:               m.ID,
		TenantID:         m.TenantID,
		URL:              m.URL,
		Secret:           m.Secret,
		SubscribedEvents: events,
		MinSeverity:      constants.Severity(m.MinSeverity),
		Active:           m.Active,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

func fromDomainWebhook(w *models.WebhookRegistration) (*webhookDBM, error) {
	events, err := json.Marshal(w.SubscribedEvents)
	if err != nil {
		return nil, err
	}
	return &webhookDBM{
		ID:               w.ID,
		TenantID:         w.TenantID,
		URL:              w.URL,
		Secret:           w.Secret,
		SubscribedEvents: string(events),
		MinSeverity:      string(w.MinSeverity),
		Active:           w.Active,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}, nil
}

// WebhookRepoImpl implements WebhookRepository on PostgreSQL.
type WebhookRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewWebhookRepository creates the webhook repository.
func NewWebhookRepository(db *gorm.DB, log logger.Logger) repository.WebhookRepository {
	return &WebhookRepoImpl{db: db, logger: log}
}

func (r *WebhookRepoImpl) Create(ctx context.Context, reg *models.WebhookRegistration) error {
	dbm, err := fromDomainWebhook(reg)
	if err != nil {
		return errors.ErrInternal("encoding webhook registration", err)
	}
	if err := r.db.WithContext(ctx).Create(dbm).Error; err != nil {
		r.logger.Error(ctx, "webhook insert failed", err,
			logger.String("tenant_id", reg.TenantID))
		return errors.ErrInternal("persisting webhook registration", err)
	}
	return nil
}

func (r *WebhookRepoImpl) Update(ctx context.Context, reg *models.WebhookRegistration) error {
	// Surfaces not_found and tenant_mismatch before the blind update.
	if _, err := r.FindByID(ctx, reg.TenantID, reg.ID); err != nil {
		return err
	}

	dbm, err := fromDomainWebhook(reg)
	if err != nil {
		return errors.ErrInternal("encoding webhook registration", err)
	}
	result := r.db.WithContext(ctx).
		Model(&webhookDBM{}).
		Where("id = ? AND tenant_id = ?", reg.ID, reg.TenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(dbm)
	if result.Error != nil {
		return errors.ErrInternal("updating webhook registration", result.Error)
	}
	return nil
}

func (r *WebhookRepoImpl) FindByID(ctx context.Context, tenantID, id string) (*models.WebhookRegistration, error) {
	var dbm webhookDBM
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("webhook", id)
		}
		return nil, errors.ErrInternal("reading webhook registration", err)
	}
	if dbm.TenantID != tenantID {
		return nil, errors.ErrTenantMismatch(tenantID)
	}
	return dbm.toDomain()
}

func (r *WebhookRepoImpl) ListByTenant(ctx context.Context, tenantID string) ([]*models.WebhookRegistration, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("tenant_id = ?", tenantID))
}

func (r *WebhookRepoImpl) ListActiveByTenant(ctx context.Context, tenantID string) ([]*models.WebhookRegistration, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("tenant_id = ? AND active = ?", tenantID, true))
}

func (r *WebhookRepoImpl) Deactivate(ctx context.Context, tenantID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&webhookDBM{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return errors.ErrInternal("deactivating webhook", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("webhook", id)
	}
	return nil
}

func (r *WebhookRepoImpl) list(ctx context.Context, query *gorm.DB) ([]*models.WebhookRegistration, error) {
	var dbms []webhookDBM
	if err := query.Order("created_at asc").Find(&dbms).Error; err != nil {
		return nil, errors.ErrInternal("listing webhook registrations", err)
	}
	regs := make([]*models.WebhookRegistration, 0, len(dbms))
	for i := range dbms {
		reg, err := dbms[i].toDomain()
		if err != nil {
			return nil, errors.ErrInternal("decoding webhook registration", err)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}
