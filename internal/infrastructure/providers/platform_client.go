package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// PlatformClient talks to the core platform API. It serves as both the
// entity directory and the tenant registry.
type PlatformClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     logger.Logger
}

// NewPlatformClient creates the platform API client.
func NewPlatformClient(cfg *config.PlatformClientConfig, log logger.Logger) *PlatformClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PlatformClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.WithComponent("platform-client"),
	}
}

type entityResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Subtype    string            `json:"subtype"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Attributes map[string]string `json:"attributes"`
}

func (e entityResponse) toDomain() models.EntityRef {
	return models.EntityRef{
		ID:         e.ID,
		Type:       e.Type,
		Subtype:    e.Subtype,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
		Attributes: e.Attributes,
	}
}

// ListEntities returns the tenant's entities of the given type.
func (c *PlatformClient) ListEntities(ctx context.Context, tenantID, entityType string) ([]models.EntityRef, error) {
	params := url.Values{}
	params.Set("type", entityType)

	var resp struct {
		Entities []entityResponse `json:"entities"`
	}
	if err := c.getJSON(ctx, tenantID, "/v1/entities", params, &resp); err != nil {
		return nil, err
	}
	entities := make([]models.EntityRef, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		entities = append(entities, e.toDomain())
	}
	return entities, nil
}

// GetEntity returns a single entity or a not_found error.
func (c *PlatformClient) GetEntity(ctx context.Context, tenantID, entityID string) (*models.EntityRef, error) {
	var resp entityResponse
	err := c.getJSON(ctx, tenantID, "/v1/entities/"+url.PathEscape(entityID), nil, &resp)
	if err != nil {
		return nil, err
	}
	entity := resp.toDomain()
	return &entity, nil
}

type tenantResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PlanTier string `json:"plan_tier"`
	Status   string `json:"status"`
}

// ActiveTenants returns the tenants batch sweeps are scoped to.
func (c *PlatformClient) ActiveTenants(ctx context.Context) ([]*models.Tenant, error) {
	var resp struct {
		Tenants []tenantResponse `json:"tenants"`
	}
	params := url.Values{}
	params.Set("status", string(constants.TenantStatusActive))
	if err := c.getJSON(ctx, "", "/v1/tenants", params, &resp); err != nil {
		return nil, err
	}
	tenants := make([]*models.Tenant, 0, len(resp.Tenants))
	for _, t := range resp.Tenants {
		tenants = append(tenants, &models.Tenant{
			ID:       t.ID,
			Name:     t.Name,
			PlanTier: t.PlanTier,
			Status:   constants.TenantStatus(t.Status),
		})
	}
	return tenants, nil
}

func (c *PlatformClient) getJSON(ctx context.Context, tenantID, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.ErrInternal("building platform request", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.ErrUnavailable("calling platform api", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound("platform resource", path)
	case resp.StatusCode != http.StatusOK:
		return errors.ErrUnavailable(fmt.Sprintf("platform api returned %d for %s", resp.StatusCode, path), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.ErrUnavailable("decoding platform response", err)
	}
	return nil
}

var (
	_ service.EntityDirectory = (*PlatformClient)(nil)
	_ service.TenantRegistry  = (*PlatformClient)(nil)
)
