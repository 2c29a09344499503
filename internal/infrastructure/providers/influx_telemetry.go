// Package providers implements the engine's external data collaborators:
// weather, device telemetry and the platform directory.
package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// telemetryLookback bounds how far back the latest-reading query scans.
// Readings older than this are useless for freshness-gated evaluations
// anyway.
const telemetryLookback = -24 * time.Hour

// InfluxTelemetryProvider reads device telemetry from InfluxDB. Readings are
// written by the platform's ingestion pipeline with tenant_id and entity_id
// tags and one field per metric.
type InfluxTelemetryProvider struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	bucket   string
	log      logger.Logger
}

// NewInfluxTelemetryProvider connects the telemetry provider.
func NewInfluxTelemetryProvider(cfg *config.TelemetryProviderConfig, log logger.Logger) *InfluxTelemetryProvider {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxTelemetryProvider{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
		log:      log.WithComponent("influx-telemetry"),
	}
}

// Latest returns the newest reading per requested metric within the lookback
// window. Metrics with no reading are absent from the result.
func (p *InfluxTelemetryProvider) Latest(ctx context.Context, tenantID, entityID string, metrics []string) (map[string]models.TelemetryReading, error) {
	if len(metrics) == 0 {
		return map[string]models.TelemetryReading{}, nil
	}

	fields := make([]string, 0, len(metrics))
	for _, m := range metrics {
		fields = append(fields, fmt.Sprintf("r._field == %q", m))
	}
	query := fmt.Sprintf(`
		from(bucket: %q)
		  |> range(start: %s)
		  |> filter(fn: (r) => r._measurement == "device_telemetry")
		  |> filter(fn: (r) => r.tenant_id == %q)
		  |> filter(fn: (r) => r.entity_id == %q)
		  |> filter(fn: (r) => %s)
		  |> last()
	`, p.bucket, durationLiteral(telemetryLookback), tenantID, entityID, strings.Join(fields, " or "))

	result, err := p.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, errors.ErrUnavailable("querying telemetry", err)
	}

	readings := make(map[string]models.TelemetryReading, len(metrics))
	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			continue
		}
		readings[record.Field()] = models.TelemetryReading{
			Metric:     record.Field(),
			Value:      value,
			ObservedAt: record.Time(),
		}
	}
	if result.Err() != nil {
		return nil, errors.ErrUnavailable("reading telemetry result", result.Err())
	}
	return readings, nil
}

// Close releases the underlying HTTP client.
func (p *InfluxTelemetryProvider) Close() {
	p.client.Close()
}

func durationLiteral(d time.Duration) string {
	return fmt.Sprintf("%dh", int(d.Hours()))
}

var _ service.TelemetryProvider = (*InfluxTelemetryProvider)(nil)
