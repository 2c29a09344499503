package models

import (
	"time"

	"github.com/agrovia/riskengine/pkg/constants"
)

// Metric keys used inside evaluation snapshots. Providers populate these;
// strategies read them.
const (
	MetricTemperature   = "temperature"    // dry-bulb air temperature, C
	MetricHumidity      = "humidity"       // relative humidity, percent
	MetricWindSpeed     = "wind_speed"     // m/s
	MetricPrecipitation = "precipitation"  // mm over the rolling window
	MetricET0           = "et0"            // reference evapotranspiration, mm over the rolling window
	MetricSoilMoisture  = "soil_moisture"  // volumetric, 0-10 cm, percent
	MetricTempMin       = "temp_min"       // minimum forecast temperature, C
	MetricGDD           = "gdd"            // accumulated growing degree days
	MetricNDVI          = "ndvi"           // normalized difference vegetation index, -1..1
)

// EntityRef identifies a monitored entity (parcel, device, herd, ...) inside
// a tenant, together with the attributes subscriptions may filter on.
type EntityRef struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Subtype    string            `json:"subtype,omitempty"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EvaluationSnapshot is the resolved set of input values one evaluation ran
// against. It is persisted verbatim with the evaluation for audit.
type EvaluationSnapshot struct {
	TenantID   string                              `json:"tenant_id"`
	Entity     EntityRef                           `json:"entity"`
	TakenAt    time.Time                           `json:"taken_at"`
	Metrics    map[string]float64                  `json:"metrics"`
	ObservedAt map[constants.DataSource]time.Time  `json:"observed_at"`
}

// NewEvaluationSnapshot creates an empty snapshot for the given entity.
func NewEvaluationSnapshot(tenantID string, entity EntityRef, takenAt time.Time) *EvaluationSnapshot {
	return &EvaluationSnapshot{
		TenantID:   tenantID,
		Entity:     entity,
		TakenAt:    takenAt,
		Metrics:    make(map[string]float64),
		ObservedAt: make(map[constants.DataSource]time.Time),
	}
}

// Metric reads a metric value from the snapshot.
func (s *EvaluationSnapshot) Metric(key string) (float64, bool) {
	v, ok := s.Metrics[key]
	return v, ok
}

// SetMetric records a metric value.
func (s *EvaluationSnapshot) SetMetric(key string, value float64) {
	s.Metrics[key] = value
}

// MarkObserved records when a data source's values were observed; used for
// freshness checks.
func (s *EvaluationSnapshot) MarkObserved(source constants.DataSource, at time.Time) {
	s.ObservedAt[source] = at
}

// IsFresh reports whether the named source was observed within the freshness
// window relative to the snapshot time. A source never marked is not fresh.
func (s *EvaluationSnapshot) IsFresh(source constants.DataSource, window time.Duration) bool {
	at, ok := s.ObservedAt[source]
	if !ok {
		return false
	}
	return s.TakenAt.Sub(at) <= window
}

// WeatherSnapshot is the weather provider's answer for one location and time.
type WeatherSnapshot struct {
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	Precipitation float64   `json:"precipitation"`
	ET0           float64   `json:"et0"`
	TempMin       float64   `json:"temp_min"`
	ObservedAt    time.Time `json:"observed_at"`
}

// TelemetryReading is one device metric from the telemetry provider.
type TelemetryReading struct {
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}
