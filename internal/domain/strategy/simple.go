package strategy

import (
	"context"
	"math"

	"github.com/agrovia/riskengine/internal/domain/models"
)

// formulaFunc scores one named risk family.
type formulaFunc func(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error)

// SimpleStrategy evaluates deterministic agronomic formulas over snapshot
// sub-metrics. The formula is selected by the "formula" model config key.
type SimpleStrategy struct {
	formulas map[string]formulaFunc
}

// Formula names accepted by the simple strategy.
const (
	FormulaSprayDeltaT = "spray_delta_t"
	FormulaFrost       = "frost"
	FormulaWindSpray   = "wind_spray"
	FormulaWaterStress = "water_stress"
	FormulaGDDPest     = "gdd_pest"
)

// NewSimpleStrategy creates the simple strategy with all built-in formulas.
func NewSimpleStrategy() *SimpleStrategy {
	return &SimpleStrategy{formulas: map[string]formulaFunc{
		FormulaSprayDeltaT: evaluateSprayDeltaT,
		FormulaFrost:       evaluateFrost,
		FormulaWindSpray:   evaluateWindSpray,
		FormulaWaterStress: evaluateWaterStress,
		FormulaGDDPest:     evaluateGDDPest,
	}}
}

// Evaluate dispatches to the configured formula.
func (s *SimpleStrategy) Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	name, ok := cfg.String("formula")
	if !ok {
		return 0, notEvaluable("simple model config is missing the formula key")
	}
	formula, ok := s.formulas[name]
	if !ok {
		return 0, notEvaluable("unknown simple formula %q", name)
	}
	return formula(snapshot, cfg)
}

// WetBulbTemperature approximates wet-bulb temperature from dry-bulb
// temperature (C) and relative humidity (percent) using the Stull (2011)
// psychrometric fit. Valid for RH in [5,99] and T in [-20,50]; accuracy is
// within 1 C, which is sufficient for spray suitability banding.
func WetBulbTemperature(tempC, humidityPct float64) float64 {
	t := tempC
	rh := humidityPct
	return t*math.Atan(0.151977*math.Sqrt(rh+8.313659)) +
		math.Atan(t+rh) -
		math.Atan(rh-1.676331) +
		0.00391838*math.Pow(rh, 1.5)*math.Atan(0.023101*rh) -
		4.686035
}

// evaluateSprayDeltaT scores spray suitability from Delta-T (dry-bulb minus
// wet-bulb). 2-8 C is optimal, 8-10 C caution, outside that unsuitable.
// Scores land so that the default 25/50/75/90 thresholds classify the three
// bands as low, medium and high/critical respectively.
func evaluateSprayDeltaT(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	temp, ok := snapshot.Metric(models.MetricTemperature)
	if !ok {
		return 0, notEvaluable("missing temperature")
	}
	humidity, ok := snapshot.Metric(models.MetricHumidity)
	if !ok {
		return 0, notEvaluable("missing humidity")
	}
	if humidity < 0 || humidity > 100 {
		return 0, notEvaluable("relative humidity %.1f outside [0,100]", humidity)
	}

	optimalMin := cfg.FloatOr("optimal_min", 2)
	optimalMax := cfg.FloatOr("optimal_max", 8)
	cautionMax := cfg.FloatOr("caution_max", 10)

	deltaT := temp - WetBulbTemperature(temp, humidity)

	switch {
	case deltaT >= optimalMin && deltaT <= optimalMax:
		// Optimal spraying conditions.
		return 30, nil
	case deltaT > optimalMax && deltaT <= cautionMax:
		// Caution: evaporation risk rising.
		return 60, nil
	case deltaT > cautionMax:
		// Unsuitable: droplets evaporate before deposition.
		return clampScore(80 + (deltaT-cautionMax)*2.5), nil
	default:
		// Below optimal: drift and poor drying.
		return clampScore(80 + (optimalMin-deltaT)*5), nil
	}
}

// evaluateFrost scores frost risk from the minimum forecast temperature.
// The probability rises monotonically as the temperature falls below the
// watch threshold, passing through each band boundary at the score that the
// matching severity tier begins at (interpolated linearly inside bands).
func evaluateFrost(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	tempMin, ok := snapshot.Metric(models.MetricTempMin)
	if !ok {
		return 0, notEvaluable("missing minimum forecast temperature")
	}

	watch := cfg.FloatOr("watch", 2.0)
	light := cfg.FloatOr("light", 0.0)
	moderate := cfg.FloatOr("moderate", -2.0)
	severe := cfg.FloatOr("severe", -5.0)
	if !(watch > light && light > moderate && moderate > severe) {
		return 0, notEvaluable("frost band temperatures must decrease: watch > light > moderate > severe")
	}

	// Anchor scores at the band boundaries. These align with the frost
	// definitions' severity thresholds so band and tier agree.
	const (
		watchScore    = 35
		lightScore    = 60
		moderateScore = 80
		severeScore   = 93
	)

	switch {
	case tempMin > watch:
		// No frost expected; decays to zero above the watch line.
		return clampScore(watchScore - 12*(tempMin-watch)), nil
	case tempMin > light:
		return interpolate(tempMin, watch, light, watchScore, lightScore), nil
	case tempMin > moderate:
		return interpolate(tempMin, light, moderate, lightScore, moderateScore), nil
	case tempMin > severe:
		return interpolate(tempMin, moderate, severe, moderateScore, severeScore), nil
	default:
		// Severe frost; saturates at 100 five degrees below the severe line.
		return clampScore(severeScore + 7*(severe-tempMin)/5), nil
	}
}

// interpolate maps v in the falling range [hi, lo] onto [fromScore, toScore].
func interpolate(v, hi, lo, fromScore, toScore float64) float64 {
	progress := (hi - v) / (hi - lo)
	return clampScore(fromScore + (toScore-fromScore)*progress)
}

// evaluateWindSpray scores spray suitability from wind speed alone.
func evaluateWindSpray(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	wind, ok := snapshot.Metric(models.MetricWindSpeed)
	if !ok {
		return 0, notEvaluable("missing wind speed")
	}
	if wind < 0 {
		return 0, notEvaluable("negative wind speed %.1f", wind)
	}

	suitableMax := cfg.FloatOr("suitable_max", 3)
	cautionMax := cfg.FloatOr("caution_max", 5)

	switch {
	case wind < suitableMax:
		return 20, nil
	case wind <= cautionMax:
		return 60, nil
	default:
		return clampScore(80 + (wind-cautionMax)*8), nil
	}
}

// evaluateWaterStress scores crop water stress from the rolling water balance
// (precipitation minus reference evapotranspiration) weighted by shallow soil
// moisture. Soil moisture below the configured minimum raises the score
// independent of the balance.
func evaluateWaterStress(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	precip, ok := snapshot.Metric(models.MetricPrecipitation)
	if !ok {
		return 0, notEvaluable("missing precipitation")
	}
	et0, ok := snapshot.Metric(models.MetricET0)
	if !ok {
		return 0, notEvaluable("missing reference evapotranspiration")
	}
	if et0 < 0 {
		return 0, notEvaluable("negative reference evapotranspiration %.1f", et0)
	}
	soilMoisture, hasSoil := snapshot.Metric(models.MetricSoilMoisture)
	if hasSoil && (soilMoisture < 0 || soilMoisture > 100) {
		return 0, notEvaluable("soil moisture %.1f outside [0,100]", soilMoisture)
	}

	soilWeight := cfg.FloatOr("soil_weight", 0.2)
	soilMin := cfg.FloatOr("soil_moisture_min", 15)

	balance := precip - et0
	if hasSoil {
		// Moist soil relieves a negative balance; dry soil deepens it.
		balance += soilWeight * (soilMoisture - soilMin)
	}

	var score float64
	switch {
	case balance >= 0:
		score = 10
	case balance > -5:
		score = interpolate(balance, 0, -5, 30, 50)
	case balance > -15:
		score = interpolate(balance, -5, -15, 50, 80)
	default:
		score = clampScore(90 + (-15-balance))
	}

	// Depleted topsoil is stressful regardless of the recent balance.
	if hasSoil && soilMoisture < soilMin {
		score = math.Max(score, 50)
		score = clampScore(score + (soilMin-soilMoisture)*2)
	}

	return clampScore(score), nil
}

// evaluateGDDPest scores pest pressure from accumulated growing degree days
// against per-pest watch/alert/critical sums. The accumulation itself (daily
// positive part of (Tmax+Tmin)/2 - baseTemp from the configured day of year)
// is resolved by the weather provider into the gdd metric.
func evaluateGDDPest(snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error) {
	gdd, ok := snapshot.Metric(models.MetricGDD)
	if !ok {
		return 0, notEvaluable("missing accumulated degree days")
	}
	if gdd < 0 {
		return 0, notEvaluable("negative degree day accumulation %.1f", gdd)
	}

	watch, okWatch := cfg.Float("gdd_watch")
	alert, okAlert := cfg.Float("gdd_alert")
	critical, okCritical := cfg.Float("gdd_critical")
	if !okWatch || !okAlert || !okCritical {
		return 0, notEvaluable("gdd formula requires gdd_watch, gdd_alert and gdd_critical")
	}
	if !(watch < alert && alert < critical) {
		return 0, notEvaluable("gdd thresholds must increase: watch < alert < critical")
	}

	switch {
	case gdd < watch:
		return clampScore(30 * gdd / watch), nil
	case gdd < alert:
		return interpolate(-gdd, -watch, -alert, 40, 65), nil
	case gdd < critical:
		return interpolate(-gdd, -alert, -critical, 75, 87), nil
	default:
		return clampScore(92 + (gdd-critical)/critical*8), nil
	}
}

// DailyTemperature is one day's extremes for degree-day accumulation.
type DailyTemperature struct {
	Max float64
	Min float64
}

// AccumulateGDD sums daily growing degree days above the base temperature:
// the positive part of ((Tmax+Tmin)/2 - baseTemp) per day.
func AccumulateGDD(days []DailyTemperature, baseTemp float64) float64 {
	var sum float64
	for _, d := range days {
		if dd := (d.Max+d.Min)/2 - baseTemp; dd > 0 {
			sum += dd
		}
	}
	return sum
}
