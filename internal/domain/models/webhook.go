package models

import (
	"time"

	"github.com/agrovia/riskengine/pkg/constants"
)

// WebhookRegistration is a tenant-configured external endpoint that receives
// signed push notifications for matching risk evaluations.
type WebhookRegistration struct {
	ID               string             `json:"id"`
	TenantID         string             `json:"tenant_id"`
	URL              string             `json:"url"`
	Secret           string             `json:"secret,omitempty"` // HMAC signing key; never returned on reads
	SubscribedEvents []string           `json:"subscribed_events"`
	MinSeverity      constants.Severity `json:"min_severity"`
	Active           bool               `json:"active"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// SubscribesTo reports whether the registration listens for the event type.
func (w *WebhookRegistration) SubscribesTo(eventType string) bool {
	for _, e := range w.SubscribedEvents {
		if e == eventType {
			return true
		}
	}
	return false
}

// AcceptsSeverity reports whether the event severity meets the registration's
// minimum severity rank.
func (w *WebhookRegistration) AcceptsSeverity(severity constants.Severity) bool {
	return severity.AtLeast(w.MinSeverity)
}

// DeliveryFailure records a webhook delivery that exhausted its retries. It is
// diagnostic only and never affects the underlying evaluation.
type DeliveryFailure struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	WebhookID    string    `json:"webhook_id"`
	EventID      string    `json:"event_id"`
	URL          string    `json:"url"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error"`
	FailedAt     time.Time `json:"failed_at"`
}
