package models

import (
	"time"

	"github.com/agrovia/riskengine/pkg/constants"
)

// NotificationEvent is derived from a RiskEvaluation x TenantSubscription
// match. It is transient: carried on the notification queue and consumed by
// the webhook notifier, never persisted as such. EventID identifies the event
// for at-least-once receivers to deduplicate on.
type NotificationEvent struct {
	EventID      string             `json:"event_id"`
	EventType    string             `json:"event_type"`
	TenantID     string             `json:"tenant_id"`
	RiskCode     string             `json:"risk_code"`
	Severity     constants.Severity `json:"severity"`
	Score        float64            `json:"score"`
	EvaluationID string             `json:"evaluation_id"`
	Entity       EntityRef          `json:"entity"`
	Channels     []string           `json:"channels"`
	EvaluatedAt  time.Time          `json:"evaluated_at"`
	EmittedAt    time.Time          `json:"emitted_at"`
}
