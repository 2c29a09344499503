package models

import (
	"time"

	"github.com/agrovia/riskengine/pkg/constants"
)

// RiskEvaluation is one scored evaluation of one risk for one entity at one
// instant. Rows are append-only: severity is derived from the score and the
// definition's thresholds at evaluation time and never mutated afterward.
type RiskEvaluation struct {
	ID                string              `json:"id"`
	TenantID          string              `json:"tenant_id"`
	EntityID          string              `json:"entity_id"`
	EntityType        string              `json:"entity_type"`
	RiskCode          string              `json:"risk_code"`
	ProbabilityScore  float64             `json:"probability_score"`
	Severity          constants.Severity  `json:"severity"`
	Snapshot          *EvaluationSnapshot `json:"snapshot"`
	EvaluatedAt       time.Time           `json:"evaluated_at"`
	EvaluationVersion int64               `json:"evaluation_version"`
}

// NeedsNotification reports whether the evaluation is a candidate for
// subscription matching.
func (e *RiskEvaluation) NeedsNotification() bool {
	return e.Severity != constants.SeverityNone && e.Severity.IsValid()
}

// EvaluationQuery bounds history reads on the state store.
type EvaluationQuery struct {
	TenantID    string
	EntityID    string
	RiskCode    string
	MinSeverity constants.Severity
	From        time.Time
	To          time.Time
	Limit       int
}
