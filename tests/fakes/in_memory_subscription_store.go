//go:build test

package fakes

import (
	"context"
	"sync"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
)

// InMemorySubscriptionStore is a mock implementation of
// repository.SubscriptionRepository for testing purposes.
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]*models.TenantSubscription // keyed by tenantID + "/" + riskCode
}

// NewInMemorySubscriptionStore creates an empty store.
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{subs: make(map[string]*models.TenantSubscription)}
}

func subKey(tenantID, riskCode string) string { return tenantID + "/" + riskCode }

// Upsert creates or replaces the subscription for its (tenant, riskCode).
func (s *InMemorySubscriptionStore) Upsert(ctx context.Context, sub *models.TenantSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.subs[subKey(sub.TenantID, sub.RiskCode)] = &cp
	return nil
}

// FindActiveByRisk returns the active subscriptions for a tenant and risk code.
func (s *InMemorySubscriptionStore) FindActiveByRisk(ctx context.Context, tenantID, riskCode string) ([]*models.TenantSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TenantSubscription
	if sub, ok := s.subs[subKey(tenantID, riskCode)]; ok && sub.Active {
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}

// ListByTenant returns all subscriptions for a tenant.
func (s *InMemorySubscriptionStore) ListByTenant(ctx context.Context, tenantID string) ([]*models.TenantSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TenantSubscription
	for _, sub := range s.subs {
		if sub.TenantID == tenantID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Delete removes the subscription for (tenant, riskCode).
func (s *InMemorySubscriptionStore) Delete(ctx context.Context, tenantID, riskCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, subKey(tenantID, riskCode))
	return nil
}

// DeleteByTenant removes all subscriptions for a tenant.
func (s *InMemorySubscriptionStore) DeleteByTenant(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sub := range s.subs {
		if sub.TenantID == tenantID {
			delete(s.subs, key)
		}
	}
	return nil
}

var _ repository.SubscriptionRepository = (*InMemorySubscriptionStore)(nil)
