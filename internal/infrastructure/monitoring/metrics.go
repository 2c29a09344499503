package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus-backed implementation of the domain metrics
// interface. Register it once per process; promauto panics on duplicates.
type Metrics struct {
	Evaluations           *prometheus.CounterVec
	SweepDuration         prometheus.Histogram
	NotificationsEnqueued *prometheus.CounterVec
	WebhookDeliveries     *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_evaluations_total",
				Help: "Total number of risk evaluations by outcome.",
			},
			[]string{"risk_code", "outcome"},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "riskengine_sweep_duration_seconds",
				Help:    "Duration of batch evaluation sweeps.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		NotificationsEnqueued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_notifications_enqueued_total",
				Help: "Total number of notification events enqueued.",
			},
			[]string{"risk_code"},
		),
		WebhookDeliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_webhook_deliveries_total",
				Help: "Total number of webhook delivery attempts by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordEvaluation counts a single definition/entity evaluation outcome.
func (m *Metrics) RecordEvaluation(riskCode, outcome string) {
	m.Evaluations.WithLabelValues(riskCode, outcome).Inc()
}

// ObserveSweepDuration records how long a full sweep took.
func (m *Metrics) ObserveSweepDuration(seconds float64) {
	m.SweepDuration.Observe(seconds)
}

// RecordNotificationEnqueued counts a notification event handed to the queue.
func (m *Metrics) RecordNotificationEnqueued(riskCode string) {
	m.NotificationsEnqueued.WithLabelValues(riskCode).Inc()
}

// RecordWebhookDelivery counts a completed webhook delivery.
func (m *Metrics) RecordWebhookDelivery(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.WebhookDeliveries.WithLabelValues(result).Inc()
}
