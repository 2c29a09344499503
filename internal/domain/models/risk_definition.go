// Package models defines the domain models for the risk evaluation engine.
package models

import (
	"time"

	"github.com/agrovia/riskengine/pkg/constants"
)

// SeverityThresholds is the fixed 4-slot ordered threshold structure a risk
// definition maps probability scores through. Values are on the 0-100 score
// scale and must be strictly increasing: Low < Medium < High < Critical.
type SeverityThresholds struct {
	Low      float64 `json:"low"`
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// Validate checks that the thresholds are in range and strictly increasing.
func (t SeverityThresholds) Validate() error {
	if t.Low < constants.ScoreMin || t.Critical > constants.ScoreMax {
		return errOutOfRange
	}
	if !(t.Low < t.Medium && t.Medium < t.High && t.High < t.Critical) {
		return errNotIncreasing
	}
	return nil
}

// sentinel validation failures; the catalog wraps them into AppErrors.
var (
	errOutOfRange    = thresholdError("thresholds must lie within the 0-100 score scale")
	errNotIncreasing = thresholdError("thresholds must be strictly increasing: low < medium < high < critical")
)

type thresholdError string

func (e thresholdError) Error() string { return string(e) }

// ModelConfig carries opaque key-value parameters interpreted by the strategy
// matched to the definition's model type.
type ModelConfig map[string]interface{}

// Float reads a numeric parameter, accepting the number types JSON and YAML
// decoding produce.
func (c ModelConfig) Float(key string) (float64, bool) {
	v, ok := c[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// FloatOr reads a numeric parameter with a fallback.
func (c ModelConfig) FloatOr(key string, fallback float64) float64 {
	if v, ok := c.Float(key); ok {
		return v
	}
	return fallback
}

// String reads a string parameter.
func (c ModelConfig) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// RiskDefinition is a catalog entry: the rule, thresholds and required inputs
// for one monitored risk. Identity (Code) is immutable; updates are versioned
// implicitly by UpdatedAt and the catalog version counter.
type RiskDefinition struct {
	Code                string                   `json:"code"`
	Name                string                   `json:"name"`
	Domain              constants.RiskDomain     `json:"domain"`
	TargetEntityType    string                   `json:"target_entity_type"`
	TargetSubtype       string                   `json:"target_subtype,omitempty"`
	RequiredDataSources []constants.DataSource   `json:"required_data_sources"`
	EvaluationMode      constants.EvaluationMode `json:"evaluation_mode"`
	ModelType           constants.ModelType      `json:"model_type"`
	ModelConfig         ModelConfig              `json:"model_config"`
	SeverityThresholds  SeverityThresholds       `json:"severity_thresholds"`
	Active              bool                     `json:"active"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// RequiresSource reports whether the definition lists the given data source
// among its required inputs.
func (d *RiskDefinition) RequiresSource(source constants.DataSource) bool {
	for _, s := range d.RequiredDataSources {
		if s == source {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the definition targets the given entity type and
// subtype. An empty TargetSubtype matches any subtype.
func (d *RiskDefinition) AppliesTo(entityType, subtype string) bool {
	if d.TargetEntityType != entityType {
		return false
	}
	return d.TargetSubtype == "" || d.TargetSubtype == subtype
}

// DefinitionFilter narrows catalog listings.
type DefinitionFilter struct {
	Domain     constants.RiskDomain
	TargetType string
	Mode       constants.EvaluationMode
}

// Matches reports whether a definition satisfies every set filter field.
func (f DefinitionFilter) Matches(d *RiskDefinition) bool {
	if f.Domain != "" && d.Domain != f.Domain {
		return false
	}
	if f.TargetType != "" && d.TargetEntityType != f.TargetType {
		return false
	}
	if f.Mode != "" && d.EvaluationMode != f.Mode {
		return false
	}
	return true
}
