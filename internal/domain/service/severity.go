package service

import (
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

// ClassifySeverity maps a probability score through ordered thresholds to a
// severity tier. It returns the highest tier whose threshold the score meets
// or exceeds; a score exactly equal to a threshold counts as that tier. It is
// the single source of truth for severity: the state store persists its
// output and never recomputes it.
func ClassifySeverity(score float64, t models.SeverityThresholds) constants.Severity {
	switch {
	case score >= t.Critical:
		return constants.SeverityCritical
	case score >= t.High:
		return constants.SeverityHigh
	case score >= t.Medium:
		return constants.SeverityMedium
	case score >= t.Low:
		return constants.SeverityLow
	default:
		return constants.SeverityNone
	}
}
