package dto

import (
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

// IngestRequest announces fresh data for an entity and asks the engine to
// re-evaluate the realtime risks that consume the updated source.
type IngestRequest struct {
	EntityID string             `json:"entity_id" binding:"required"`
	Source   string             `json:"source" binding:"required"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// EvaluationResponse is the API view of one persisted evaluation.
type EvaluationResponse struct {
	ID                string             `json:"id"`
	TenantID          string             `json:"tenant_id"`
	EntityID          string             `json:"entity_id"`
	EntityType        string             `json:"entity_type"`
	RiskCode          string             `json:"risk_code"`
	ProbabilityScore  float64            `json:"probability_score"`
	Severity          string             `json:"severity"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	EvaluatedAt       time.Time          `json:"evaluated_at"`
	EvaluationVersion int64              `json:"evaluation_version"`
}

// EvaluationToDTO maps a domain evaluation to its API view.
func EvaluationToDTO(e *models.RiskEvaluation) *EvaluationResponse {
	resp := &EvaluationResponse{
		ID:                e.ID,
		TenantID:          e.TenantID,
		EntityID:          e.EntityID,
		EntityType:        e.EntityType,
		RiskCode:          e.RiskCode,
		ProbabilityScore:  e.ProbabilityScore,
		Severity:          string(e.Severity),
		EvaluatedAt:       e.EvaluatedAt,
		EvaluationVersion: e.EvaluationVersion,
	}
	if e.Snapshot != nil {
		resp.Metrics = e.Snapshot.Metrics
	}
	return resp
}

// EvaluationHistoryQuery bounds a history read.
type EvaluationHistoryQuery struct {
	EntityID    string `form:"entity_id"`
	RiskCode    string `form:"risk_code"`
	MinSeverity string `form:"min_severity"`
	From        string `form:"from"`
	To          string `form:"to"`
	Limit       int    `form:"limit"`
}

// ToDomain converts the query for the tenant, parsing RFC 3339 bounds.
// Unparsable bounds are left zero and the store treats them as unbounded.
func (q *EvaluationHistoryQuery) ToDomain(tenantID string) models.EvaluationQuery {
	out := models.EvaluationQuery{
		TenantID:    tenantID,
		EntityID:    q.EntityID,
		RiskCode:    q.RiskCode,
		MinSeverity: constants.Severity(q.MinSeverity),
		Limit:       q.Limit,
	}
	if t, err := time.Parse(time.RFC3339, q.From); err == nil {
		out.From = t
	}
	if t, err := time.Parse(time.RFC3339, q.To); err == nil {
		out.To = t
	}
	return out
}

// SweepReport summarizes one batch sweep run.
type SweepReport struct {
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Tenants    int           `json:"tenants"`
	Entities   int           `json:"entities"`
	Evaluated  int           `json:"evaluated"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Notified   int           `json:"notified"`
}
