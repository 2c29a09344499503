package strategy

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

// RegressionStrategy scores a linear model: intercept plus the weighted sum
// of snapshot metrics. Model config carries "intercept" and a "coefficients"
// map of metric name to weight. Any metric named in the coefficients must be
// present in the snapshot.
type RegressionStrategy struct{}

// NewRegressionStrategy creates the regression strategy.
func NewRegressionStrategy() *RegressionStrategy {
	return &RegressionStrategy{}
}

// Evaluate computes the clamped linear combination.
func (s *RegressionStrategy) Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	rawCoeffs, ok := cfg["coefficients"]
	if !ok {
		return 0, notEvaluable("regression model config is missing coefficients")
	}
	coeffs, ok := rawCoeffs.(map[string]interface{})
	if !ok {
		return 0, notEvaluable("regression coefficients must be a map of metric to weight")
	}

	score := cfg.FloatOr("intercept", 0)
	for metric, rawWeight := range coeffs {
		weight, ok := models.ModelConfig(coeffs).Float(metric)
		if !ok {
			return 0, notEvaluable("regression weight for %q is not numeric (%T)", metric, rawWeight)
		}
		value, ok := snapshot.Metric(metric)
		if !ok {
			return 0, notEvaluable("missing metric %q", metric)
		}
		score += weight * value
	}

	return clampScore(score), nil
}
