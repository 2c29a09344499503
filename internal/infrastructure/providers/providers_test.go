package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

func TestHTTPWeatherProvider_Snapshot(t *testing.T) {
	observed := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/weather/current", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant-ID"))
		assert.Equal(t, "44.800000", r.URL.Query().Get("lat"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temperature":4.2,"humidity":81,"wind_speed":2.5,"temp_min":-3,"observed_at":"` +
			observed.Format(time.RFC3339) + `"}`))
	}))
	defer srv.Close()

	p := NewHTTPWeatherProvider(&config.WeatherProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	}, logger.NewNoopLogger())

	snap, err := p.Snapshot(context.Background(), "tenant-1", 44.8, -0.6)
	require.NoError(t, err)
	assert.Equal(t, 4.2, snap.Temperature)
	assert.Equal(t, -3.0, snap.TempMin)
	assert.Equal(t, observed, snap.ObservedAt.UTC())
}

func TestHTTPWeatherProvider_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPWeatherProvider(&config.WeatherProviderConfig{BaseURL: srv.URL}, logger.NewNoopLogger())
	_, err := p.Snapshot(context.Background(), "tenant-1", 44.8, -0.6)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus())
}

func TestPlatformClient_ListEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/entities", r.URL.Path)
		assert.Equal(t, "parcel", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entities":[{"id":"parcel-1","type":"parcel","subtype":"vineyard","latitude":44.8,"longitude":-0.6,"attributes":{"region":"medoc"}}]}`))
	}))
	defer srv.Close()

	c := NewPlatformClient(&config.PlatformClientConfig{BaseURL: srv.URL}, logger.NewNoopLogger())
	entities, err := c.ListEntities(context.Background(), "tenant-1", "parcel")

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "vineyard", entities[0].Subtype)
	assert.Equal(t, "medoc", entities[0].Attributes["region"])
}

func TestPlatformClient_GetEntityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewPlatformClient(&config.PlatformClientConfig{BaseURL: srv.URL}, logger.NewNoopLogger())
	_, err := c.GetEntity(context.Background(), "tenant-1", "ghost")

	assert.True(t, errors.IsNotFound(err))
}
