// Package dto defines the request and response shapes of the application
// layer. Handlers bind these; domain models never cross the HTTP boundary.
package dto

import (
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

// SeverityThresholdsDTO mirrors the fixed 4-slot threshold structure.
type SeverityThresholdsDTO struct {
	Low      float64 `json:"low" binding:"required"`
	Medium   float64 `json:"medium" binding:"required"`
	High     float64 `json:"high" binding:"required"`
	Critical float64 `json:"critical" binding:"required"`
}

// RegisterRiskRequest is the payload for registering or updating a risk
// definition.
type RegisterRiskRequest struct {
	Code                string                 `json:"code" binding:"required"`
	Name                string                 `json:"name" binding:"required"`
	Domain              string                 `json:"domain" binding:"required"`
	TargetEntityType    string                 `json:"target_entity_type" binding:"required"`
	TargetSubtype       string                 `json:"target_subtype"`
	RequiredDataSources []string               `json:"required_data_sources" binding:"required"`
	EvaluationMode      string                 `json:"evaluation_mode" binding:"required"`
	ModelType           string                 `json:"model_type" binding:"required"`
	ModelConfig         map[string]interface{} `json:"model_config"`
	SeverityThresholds  SeverityThresholdsDTO  `json:"severity_thresholds" binding:"required"`
	Active              *bool                  `json:"active"`
}

// ToDomain converts the request into a domain definition. Validation beyond
// shape happens in the catalog service.
func (r *RegisterRiskRequest) ToDomain() *models.RiskDefinition {
	sources := make([]constants.DataSource, 0, len(r.RequiredDataSources))
	for _, s := range r.RequiredDataSources {
		sources = append(sources, constants.DataSource(s))
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &models.RiskDefinition{
		Code:                r.Code,
		Name:                r.Name,
		Domain:              constants.RiskDomain(r.Domain),
		TargetEntityType:    r.TargetEntityType,
		TargetSubtype:       r.TargetSubtype,
		RequiredDataSources: sources,
		EvaluationMode:      constants.EvaluationMode(r.EvaluationMode),
		ModelType:           constants.ModelType(r.ModelType),
		ModelConfig:         models.ModelConfig(r.ModelConfig),
		SeverityThresholds: models.SeverityThresholds{
			Low:      r.SeverityThresholds.Low,
			Medium:   r.SeverityThresholds.Medium,
			High:     r.SeverityThresholds.High,
			Critical: r.SeverityThresholds.Critical,
		},
		Active: active,
	}
}

// RiskDefinitionResponse is the API view of a catalog entry.
type RiskDefinitionResponse struct {
	Code                string                 `json:"code"`
	Name                string                 `json:"name"`
	Domain              string                 `json:"domain"`
	TargetEntityType    string                 `json:"target_entity_type"`
	TargetSubtype       string                 `json:"target_subtype,omitempty"`
	RequiredDataSources []string               `json:"required_data_sources"`
	EvaluationMode      string                 `json:"evaluation_mode"`
	ModelType           string                 `json:"model_type"`
	ModelConfig         map[string]interface{} `json:"model_config,omitempty"`
	SeverityThresholds  SeverityThresholdsDTO  `json:"severity_thresholds"`
	Active              bool                   `json:"active"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// RiskDefinitionToDTO maps a domain definition to its API view.
func RiskDefinitionToDTO(d *models.RiskDefinition) *RiskDefinitionResponse {
	sources := make([]string, 0, len(d.RequiredDataSources))
	for _, s := range d.RequiredDataSources {
		sources = append(sources, string(s))
	}
	return &RiskDefinitionResponse{
		Code:                d.Code,
		Name:                d.Name,
		Domain:              string(d.Domain),
		TargetEntityType:    d.TargetEntityType,
		TargetSubtype:       d.TargetSubtype,
		RequiredDataSources: sources,
		EvaluationMode:      string(d.EvaluationMode),
		ModelType:           string(d.ModelType),
		ModelConfig:         map[string]interface{}(d.ModelConfig),
		SeverityThresholds: SeverityThresholdsDTO{
			Low:      d.SeverityThresholds.Low,
			Medium:   d.SeverityThresholds.Medium,
			High:     d.SeverityThresholds.High,
			Critical: d.SeverityThresholds.Critical,
		},
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
