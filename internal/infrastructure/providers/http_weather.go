package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// HTTPWeatherProvider reads weather snapshots from the platform's weather
// service over its JSON API.
type HTTPWeatherProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     logger.Logger
}

// NewHTTPWeatherProvider creates the weather provider.
func NewHTTPWeatherProvider(cfg *config.WeatherProviderConfig, log logger.Logger) *HTTPWeatherProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWeatherProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.WithComponent("weather-provider"),
	}
}

type weatherResponse struct {
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	Precipitation float64   `json:"precipitation"`
	ET0           float64   `json:"et0"`
	TempMin       float64   `json:"temp_min"`
	ObservedAt    time.Time `json:"observed_at"`
}

// Snapshot returns the latest weather snapshot for a location.
func (p *HTTPWeatherProvider) Snapshot(ctx context.Context, tenantID string, lat, lon float64) (*models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))

	var resp weatherResponse
	if err := p.getJSON(ctx, tenantID, "/v1/weather/current", params, &resp); err != nil {
		return nil, err
	}
	return &models.WeatherSnapshot{
		Temperature:   resp.Temperature,
		Humidity:      resp.Humidity,
		WindSpeed:     resp.WindSpeed,
		Precipitation: resp.Precipitation,
		ET0:           resp.ET0,
		TempMin:       resp.TempMin,
		ObservedAt:    resp.ObservedAt,
	}, nil
}

type gddResponse struct {
	GDD        float64   `json:"gdd"`
	ObservedAt time.Time `json:"observed_at"`
}

// AccumulatedGDD returns growing degree days accumulated since the given day
// of year above the base temperature.
func (p *HTTPWeatherProvider) AccumulatedGDD(ctx context.Context, tenantID string, lat, lon, baseTemp float64, startDayOfYear int) (float64, time.Time, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("base_temp", strconv.FormatFloat(baseTemp, 'f', 2, 64))
	params.Set("start_day", strconv.Itoa(startDayOfYear))

	var resp gddResponse
	if err := p.getJSON(ctx, tenantID, "/v1/weather/gdd", params, &resp); err != nil {
		return 0, time.Time{}, err
	}
	return resp.GDD, resp.ObservedAt, nil
}

func (p *HTTPWeatherProvider) getJSON(ctx context.Context, tenantID, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.ErrInternal("building weather request", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.ErrUnavailable("calling weather service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrUnavailable(fmt.Sprintf("weather service returned %d for %s", resp.StatusCode, path), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.ErrUnavailable("decoding weather response", err)
	}
	return nil
}

var _ service.WeatherProvider = (*HTTPWeatherProvider)(nil)
