package main

import (
	"github.com/spf13/cobra"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

func listFilter(cmd *cobra.Command) models.DefinitionFilter {
	domain, _ := cmd.Flags().GetString("domain")
	mode, _ := cmd.Flags().GetString("mode")
	return models.DefinitionFilter{
		Domain: constants.RiskDomain(domain),
		Mode:   constants.EvaluationMode(mode),
	}
}

// builtinDefinitions returns the standard agronomic catalog entries shipped
// with the engine. Tenants subscribe to these; platform agronomists register
// additional definitions through the API.
func builtinDefinitions() []*models.RiskDefinition {
	return []*models.RiskDefinition{
		{
			Code:                "frost_risk_v1",
			Name:                "Overnight Frost Risk",
			Domain:              constants.RiskDomainAgronomic,
			TargetEntityType:    "plot",
			RequiredDataSources: []constants.DataSource{constants.DataSourceWeather},
			EvaluationMode:      constants.EvaluationModeHybrid,
			ModelType:           constants.ModelTypeSimple,
			ModelConfig: models.ModelConfig{
				"formula":  "frost",
				"watch":    2.0,
				"light":    0.0,
				"moderate": -2.0,
				"severe":   -5.0,
			},
			SeverityThresholds: models.SeverityThresholds{Low: 35, Medium: 60, High: 80, Critical: 93},
			Active:             true,
		},
		{
			Code:                "spray_window_v1",
			Name:                "Spray Condition Risk (Delta-T)",
			Domain:              constants.RiskDomainAgronomic,
			TargetEntityType:    "plot",
			RequiredDataSources: []constants.DataSource{constants.DataSourceWeather},
			EvaluationMode:      constants.EvaluationModeRealtime,
			ModelType:           constants.ModelTypeSimple,
			ModelConfig: models.ModelConfig{
				"formula":     "spray_delta_t",
				"optimal_min": 2.0,
				"optimal_max": 8.0,
				"caution_max": 10.0,
			},
			SeverityThresholds: models.SeverityThresholds{Low: 25, Medium: 50, High: 75, Critical: 90},
			Active:             true,
		},
		{
			Code:                "wind_spray_drift_v1",
			Name:                "Spray Drift Wind Risk",
			Domain:              constants.RiskDomainAgronomic,
			TargetEntityType:    "plot",
			RequiredDataSources: []constants.DataSource{constants.DataSourceWeather},
			EvaluationMode:      constants.EvaluationModeRealtime,
			ModelType:           constants.ModelTypeSimple,
			ModelConfig: models.ModelConfig{
				"formula": "wind_spray",
			},
			SeverityThresholds: models.SeverityThresholds{Low: 30, Medium: 55, High: 75, Critical: 90},
			Active:             true,
		},
		{
			Code:                "water_stress_v1",
			Name:                "Crop Water Stress",
			Domain:              constants.RiskDomainAgronomic,
			TargetEntityType:    "plot",
			RequiredDataSources: []constants.DataSource{constants.DataSourceWeather, constants.DataSourceSoilMoisture},
			EvaluationMode:      constants.EvaluationModeBatch,
			ModelType:           constants.ModelTypeSimple,
			ModelConfig: models.ModelConfig{
				"formula": "water_stress",
			},
			SeverityThresholds: models.SeverityThresholds{Low: 30, Medium: 55, High: 78, Critical: 92},
			Active:             true,
		},
		{
			Code:                "gdd_pest_pressure_v1",
			Name:                "Pest Pressure (Growing Degree Days)",
			Domain:              constants.RiskDomainAgronomic,
			TargetEntityType:    "plot",
			RequiredDataSources: []constants.DataSource{constants.DataSourceGDD},
			EvaluationMode:      constants.EvaluationModeBatch,
			ModelType:           constants.ModelTypeSimple,
			ModelConfig: models.ModelConfig{
				"formula":       "gdd_pest",
				"gdd_base_temp": 10.0,
				"gdd_watch":     250.0,
				"gdd_alert":     400.0,
				"gdd_critical":  550.0,
			},
			SeverityThresholds: models.SeverityThresholds{Low: 30, Medium: 55, High: 75, Critical: 90},
			Active:             true,
		},
	}
}
