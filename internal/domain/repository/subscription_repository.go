package repository

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

//go:generate mockery --name SubscriptionRepository --output mocks --outpkg mocks
// SubscriptionRepository stores tenant alert preferences, one row per
// (tenant, riskCode).
type SubscriptionRepository interface {
	// Upsert creates or replaces the subscription for its (tenant, riskCode).
	Upsert(ctx context.Context, sub *models.TenantSubscription) error

	// FindActiveByRisk returns the active subscriptions for a tenant and risk
	// code. An empty result is not an error.
	FindActiveByRisk(ctx context.Context, tenantID, riskCode string) ([]*models.TenantSubscription, error)

	// ListByTenant returns all subscriptions for a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*models.TenantSubscription, error)

	// Delete removes the subscription for (tenant, riskCode).
	Delete(ctx context.Context, tenantID, riskCode string) error

	// DeleteByTenant removes all subscriptions for a tenant (offboarding).
	DeleteByTenant(ctx context.Context, tenantID string) error
}
