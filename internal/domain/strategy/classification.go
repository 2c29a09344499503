package strategy

import (
	"context"
	"sort"

	"github.com/agrovia/riskengine/internal/domain/models"
)

// ClassificationStrategy scores by banding a single metric: model config
// names the "metric" and a "bands" list, each band a map with "upper" (the
// inclusive upper bound of the metric value) and "score". The first band, in
// ascending upper order, whose bound the value does not exceed wins; values
// above every band take the "overflow_score" (default 100).
type ClassificationStrategy struct{}

// NewClassificationStrategy creates the classification strategy.
func NewClassificationStrategy() *ClassificationStrategy {
	return &ClassificationStrategy{}
}

type band struct {
	upper float64
	score float64
}

// Evaluate resolves the metric and picks its band.
func (s *ClassificationStrategy) Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	metric, ok := cfg.String("metric")
	if !ok {
		return 0, notEvaluable("classification model config is missing the metric key")
	}
	value, ok := snapshot.Metric(metric)
	if !ok {
		return 0, notEvaluable("missing metric %q", metric)
	}

	bands, err := parseBands(cfg)
	if err != nil {
		return 0, err
	}

	for _, b := range bands {
		if value <= b.upper {
			return clampScore(b.score), nil
		}
	}
	return clampScore(cfg.FloatOr("overflow_score", 100)), nil
}

func parseBands(cfg models.ModelConfig) ([]band, error) {
	raw, ok := cfg["bands"]
	if !ok {
		return nil, notEvaluable("classification model config is missing bands")
	}
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, notEvaluable("classification bands must be a non-empty list")
	}

	bands := make([]band, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, notEvaluable("classification band entries must be maps")
		}
		entry := models.ModelConfig(m)
		upper, okUpper := entry.Float("upper")
		score, okScore := entry.Float("score")
		if !okUpper || !okScore {
			return nil, notEvaluable("classification bands require numeric upper and score")
		}
		bands = append(bands, band{upper: upper, score: score})
	}

	sort.Slice(bands, func(i, j int) bool { return bands[i].upper < bands[j].upper })
	return bands, nil
}
