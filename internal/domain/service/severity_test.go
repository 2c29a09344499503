package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
)

var thresholds = models.SeverityThresholds{Low: 25, Medium: 50, High: 75, Critical: 90}

func TestClassifySeverity_Tiers(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		want  constants.Severity
	}{
		{"below low", 10, constants.SeverityNone},
		{"between low and medium", 30, constants.SeverityLow},
		{"between medium and high", 60, constants.SeverityMedium},
		{"between high and critical", 80, constants.SeverityHigh},
		{"above critical", 95, constants.SeverityCritical},
		{"top of scale", 100, constants.SeverityCritical},
		{"bottom of scale", 0, constants.SeverityNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.ClassifySeverity(tc.score, thresholds))
		})
	}
}

func TestClassifySeverity_BoundaryInclusive(t *testing.T) {
	// A score exactly equal to a threshold counts as that tier, not the lower one.
	assert.Equal(t, constants.SeverityLow, service.ClassifySeverity(25, thresholds))
	assert.Equal(t, constants.SeverityMedium, service.ClassifySeverity(50, thresholds))
	assert.Equal(t, constants.SeverityHigh, service.ClassifySeverity(75, thresholds))
	assert.Equal(t, constants.SeverityCritical, service.ClassifySeverity(90, thresholds))
}

func TestClassifySeverity_Monotone(t *testing.T) {
	prev := -1
	for score := 0.0; score <= 100.0; score += 0.5 {
		tier := service.ClassifySeverity(score, thresholds)
		rank := tier.Rank()
		assert.GreaterOrEqual(t, rank, prev, "severity rank must not decrease at score %v", score)
		prev = rank
	}
}
