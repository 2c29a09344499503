package strategy

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

// MLStrategy is the slot reserved for an external inference backend. Until
// one is wired it declines every snapshot as NotEvaluable, so definitions
// bound to it register cleanly but never produce scores.
type MLStrategy struct{}

// NewMLStrategy creates the stub ML strategy.
func NewMLStrategy() *MLStrategy {
	return &MLStrategy{}
}

// Evaluate always declines.
func (s *MLStrategy) Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	return 0, notEvaluable("ml inference backend is not configured")
}
