package models

import (
	"time"
)

// EntityFilter is an optional predicate over entity attributes. Every listed
// attribute must match exactly; Subtype, when set, must match the entity's
// subtype. An empty filter matches every entity.
type EntityFilter struct {
	Subtype    string            `json:"subtype,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Matches reports whether the entity satisfies the filter.
func (f *EntityFilter) Matches(entity EntityRef) bool {
	if f == nil {
		return true
	}
	if f.Subtype != "" && f.Subtype != entity.Subtype {
		return false
	}
	for k, want := range f.Attributes {
		if got, ok := entity.Attributes[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// TenantSubscription is a tenant user's alert preference for one risk code.
// Unique per (tenant, riskCode).
type TenantSubscription struct {
	TenantID             string        `json:"tenant_id"`
	RiskCode             string        `json:"risk_code"`
	Active               bool          `json:"active"`
	UserThreshold        float64       `json:"user_threshold"` // 0-100, inclusive trigger bound
	NotificationChannels []string      `json:"notification_channels"`
	EntityFilter         *EntityFilter `json:"entity_filter,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// MatchesEvaluation reports whether the subscription fires for the given
// evaluation. The user threshold is an inclusive lower bound on the score.
func (s *TenantSubscription) MatchesEvaluation(eval *RiskEvaluation) bool {
	if !s.Active || s.RiskCode != eval.RiskCode || s.TenantID != eval.TenantID {
		return false
	}
	if eval.ProbabilityScore < s.UserThreshold {
		return false
	}
	if eval.Snapshot != nil {
		return s.EntityFilter.Matches(eval.Snapshot.Entity)
	}
	return s.EntityFilter == nil
}
