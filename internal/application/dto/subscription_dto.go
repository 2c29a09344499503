package dto

import (
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
)

// EntityFilterDTO is an optional subscription predicate over entities.
type EntityFilterDTO struct {
	Subtype    string            `json:"subtype,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UpsertSubscriptionRequest creates or replaces a tenant's alert preference
// for one risk code.
type UpsertSubscriptionRequest struct {
	RiskCode             string           `json:"risk_code" binding:"required"`
	UserThreshold        float64          `json:"user_threshold"`
	NotificationChannels []string         `json:"notification_channels"`
	EntityFilter         *EntityFilterDTO `json:"entity_filter,omitempty"`
	Active               *bool            `json:"active"`
}

// ToDomain converts the request to a domain subscription for the tenant.
func (r *UpsertSubscriptionRequest) ToDomain(tenantID string) *models.TenantSubscription {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	sub := &models.TenantSubscription{
		TenantID:             tenantID,
		RiskCode:             r.RiskCode,
		Active:               active,
		UserThreshold:        r.UserThreshold,
		NotificationChannels: r.NotificationChannels,
	}
	if r.EntityFilter != nil {
		sub.EntityFilter = &models.EntityFilter{
			Subtype:    r.EntityFilter.Subtype,
			Attributes: r.EntityFilter.Attributes,
		}
	}
	return sub
}

// SubscriptionResponse is the API view of a subscription.
type SubscriptionResponse struct {
	TenantID             string           `json:"tenant_id"`
	RiskCode             string           `json:"risk_code"`
	Active               bool             `json:"active"`
	UserThreshold        float64          `json:"user_threshold"`
	NotificationChannels []string         `json:"notification_channels"`
	EntityFilter         *EntityFilterDTO `json:"entity_filter,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// SubscriptionToDTO maps a domain subscription to its API view.
func SubscriptionToDTO(s *models.TenantSubscription) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		TenantID:             s.TenantID,
		RiskCode:             s.RiskCode,
		Active:               s.Active,
		UserThreshold:        s.UserThreshold,
		NotificationChannels: s.NotificationChannels,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if s.EntityFilter != nil {
		resp.EntityFilter = &EntityFilterDTO{
			Subtype:    s.EntityFilter.Subtype,
			Attributes: s.EntityFilter.Attributes,
		}
	}
	return resp
}
