package repository

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

//go:generate mockery --name WebhookRepository --output mocks --outpkg mocks
// WebhookRepository stores tenant webhook registrations.
type WebhookRepository interface {
	// Create persists a new registration.
	Create(ctx context.Context, reg *models.WebhookRegistration) error

	// Update replaces a registration. Returns not_found for an unknown ID and
	// tenant_mismatch if the registration belongs to another tenant.
	Update(ctx context.Context, reg *models.WebhookRegistration) error

	// FindByID returns a registration scoped to the tenant.
	FindByID(ctx context.Context, tenantID, id string) (*models.WebhookRegistration, error)

	// ListByTenant returns all registrations for a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*models.WebhookRegistration, error)

	// ListActiveByTenant returns the active registrations for a tenant.
	ListActiveByTenant(ctx context.Context, tenantID string) ([]*models.WebhookRegistration, error)

	// Deactivate marks a registration inactive without deleting its history.
	Deactivate(ctx context.Context, tenantID, id string) error
}

//go:generate mockery --name DeliveryFailureRepository --output mocks --outpkg mocks
// DeliveryFailureRepository records webhook deliveries that exhausted their
// retry budget.
type DeliveryFailureRepository interface {
	// Record persists one terminal delivery failure.
	Record(ctx context.Context, failure *models.DeliveryFailure) error

	// ListByTenant returns recent failures for a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*models.DeliveryFailure, error)
}
