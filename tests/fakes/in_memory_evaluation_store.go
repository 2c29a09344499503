//go:build test

package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
)

// InMemoryEvaluationStore is a mock implementation of
// repository.EvaluationRepository for testing purposes. It keeps the
// append-only and tenant-isolation semantics of the real store.
type InMemoryEvaluationStore struct {
	mu    sync.RWMutex
	evals []*models.RiskEvaluation
}

// NewInMemoryEvaluationStore creates an empty store.
func NewInMemoryEvaluationStore() *InMemoryEvaluationStore {
	return &InMemoryEvaluationStore{}
}

// Append persists one evaluation.
func (s *InMemoryEvaluationStore) Append(ctx context.Context, eval *models.RiskEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *eval
	s.evals = append(s.evals, &cp)
	return nil
}

// LatestFor returns the most recent evaluation for (tenant, entity, risk).
func (s *InMemoryEvaluationStore) LatestFor(ctx context.Context, tenantID, entityID, riskCode string) (*models.RiskEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.RiskEvaluation
	for _, e := range s.evals {
		if e.TenantID != tenantID || e.EntityID != entityID || e.RiskCode != riskCode {
			continue
		}
		if latest == nil || e.EvaluatedAt.After(latest.EvaluatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, errors.ErrNotFound("evaluation", entityID+"/"+riskCode)
	}
	cp := *latest
	return &cp, nil
}

// Query returns evaluations matching the query, newest first.
func (s *InMemoryEvaluationStore) Query(ctx context.Context, q models.EvaluationQuery) ([]*models.RiskEvaluation, error) {
	if q.TenantID == "" {
		if v, ok := ctx.Value(constants.ContextKeyDiagnostic).(bool); !ok || !v {
			return nil, errors.ErrTenantMismatch("")
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RiskEvaluation
	for _, e := range s.evals {
		if q.TenantID != "" && e.TenantID != q.TenantID {
			continue
		}
		if q.EntityID != "" && e.EntityID != q.EntityID {
			continue
		}
		if q.RiskCode != "" && e.RiskCode != q.RiskCode {
			continue
		}
		if q.MinSeverity != "" && e.Severity.Rank() < q.MinSeverity.Rank() {
			continue
		}
		if !q.From.IsZero() && e.EvaluatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && e.EvaluatedAt.After(q.To) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EvaluatedAt.After(out[j].EvaluatedAt) })

	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports how many evaluations were appended.
func (s *InMemoryEvaluationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evals)
}

var _ repository.EvaluationRepository = (*InMemoryEvaluationStore)(nil)
