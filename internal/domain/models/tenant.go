package models

import "github.com/agrovia/riskengine/pkg/constants"

// Tenant is the engine's view of a platform tenant, as reported by the
// external tenant registry. The engine never manages tenant lifecycle; it
// only scopes work to active tenants.
type Tenant struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	PlanTier string                 `json:"plan_tier"`
	Status   constants.TenantStatus `json:"status"`
}

// IsActive reports whether the tenant participates in batch sweeps.
func (t *Tenant) IsActive() bool {
	return t.Status == constants.TenantStatusActive
}
