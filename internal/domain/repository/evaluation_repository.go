package repository

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

//go:generate mockery --name EvaluationRepository --output mocks --outpkg mocks
// EvaluationRepository is the append-only risk state store. All operations
// are bound to the tenant carried in their arguments; implementations must
// reject cross-tenant access unless the context carries the explicit
// platform-diagnostic marker, in which case reads are permitted and audited.
type EvaluationRepository interface {
	// Append persists one evaluation. Evaluations are never updated.
	Append(ctx context.Context, eval *models.RiskEvaluation) error

	// LatestFor returns the most recent evaluation for (tenant, entity, risk),
	// or a not_found error if none exists.
	LatestFor(ctx context.Context, tenantID, entityID, riskCode string) (*models.RiskEvaluation, error)

	// Query returns evaluations in the query's time window, newest first.
	Query(ctx context.Context, q models.EvaluationQuery) ([]*models.RiskEvaluation, error)
}
