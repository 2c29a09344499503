package dto

import (
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

// RegisterWebhookRequest registers an external endpoint for signed push
// notifications.
type RegisterWebhookRequest struct {
	URL              string   `json:"url" binding:"required"`
	Secret           string   `json:"secret" binding:"required"`
	SubscribedEvents []string `json:"subscribed_events"`
	MinSeverity      string   `json:"min_severity"`
	Active           *bool    `json:"active"`
}

// ToDomain converts the request to a domain registration for the tenant.
func (r *RegisterWebhookRequest) ToDomain(tenantID string) *models.WebhookRegistration {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	events := r.SubscribedEvents
	if len(events) == 0 {
		events = []string{constants.EventTypeRiskEvaluation}
	}
	minSev := constants.Severity(r.MinSeverity)
	if r.MinSeverity == "" {
		minSev = constants.SeverityLow
	}
	return &models.WebhookRegistration{
		TenantID:         tenantID,
		URL:              r.URL,
		Secret:           r.Secret,
		SubscribedEvents: events,
		MinSeverity:      minSev,
		Active:           active,
	}
}

// WebhookResponse is the API view of a registration. The signing secret is
// write-only and never echoed back.
type WebhookResponse struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	URL              string    `json:"url"`
	SubscribedEvents []string  `json:"subscribed_events"`
	MinSeverity      string    `json:"min_severity"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WebhookToDTO maps a registration to its API view, dropping the secret.
func WebhookToDTO(w *models.WebhookRegistration) *WebhookResponse {
	return &WebhookResponse{
		ID:               w.ID,
		TenantID:         w.TenantID,
		URL:              w.URL,
		SubscribedEvents: w.SubscribedEvents,
		MinSeverity:      string(w.MinSeverity),
		Active:           w.Active,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

// DeliveryFailureResponse is the API view of a terminal delivery failure.
type DeliveryFailureResponse struct {
	ID        string    `json:"id"`
	WebhookID string    `json:"webhook_id"`
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

// DeliveryFailureToDTO maps a failure record to its API view.
func DeliveryFailureToDTO(f *models.DeliveryFailure) *DeliveryFailureResponse {
	return &DeliveryFailureResponse{
		ID:        f.ID,
		WebhookID: f.WebhookID,
		EventID:   f.EventID,
		URL:       f.URL,
		Attempts:  f.Attempts,
		LastError: f.LastError,
		FailedAt:  f.FailedAt,
	}
}
