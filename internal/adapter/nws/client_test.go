package nws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/observability"
)

const (
	testUserAgent     = "surf-report-test (test@example.com)"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/geo+json"
)

var oceanBeach = domain.Location{Name: "ocean-beach", Lat: 37.7594, Lon: -122.5107}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, testUserAgent, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeNWS serves /points and /gridpoints and counts points lookups.
func fakeNWS(t *testing.T, pointCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /points/{coords}", func(w http.ResponseWriter, r *http.Request) {
		pointCalls.Add(1)
		assert.Equal(t, "37.7594,-122.5107", r.PathValue("coords"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		var resp pointResponse
		resp.Properties.GridID = "MTR"
		resp.Properties.GridX = 82
		resp.Properties.GridY = 105
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("GET /gridpoints/MTR/82,105/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		var resp forecastResponse
		resp.Properties.Periods = []period{
			{Name: "This Morning", Temperature: 61, TemperatureUnit: "F", ShortForecast: "Patchy Fog", DetailedForecast: "Patchy fog before 11am. Mostly sunny."},
			{Name: "Tonight", Temperature: 52, TemperatureUnit: "F", ShortForecast: "Mostly Cloudy"},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchForecast_Success(t *testing.T) {
	var calls atomic.Int32
	srv := fakeNWS(t, &calls)

	got, err := testClient(srv.URL).FetchForecast(context.Background(), oceanBeach)
	require.NoError(t, err)

	assert.Equal(t, "ocean-beach", got.Location)
	assert.Equal(t, "Patchy Fog", got.ShortConditions)
	assert.Equal(t, "61°F", got.Temperature)
	assert.Equal(t, "Patchy fog before 11am. Mostly sunny.", got.DetailedForecast)
	assert.False(t, got.FetchedAt.IsZero())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchForecast_CachedGridpoint(t *testing.T) {
	var calls atomic.Int32
	srv := fakeNWS(t, &calls)
	metrics := observability.NewMetricsForTesting()

	c := testClient(srv.URL)
	c.UseResolver(NewCachedResolver(c, 8, metrics))

	for range 3 {
		_, err := c.FetchForecast(context.Background(), oceanBeach)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), calls.Load(), "points should be resolved once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GridpointCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.GridpointCache.WithLabelValues("hit")), 0)
}

func TestClient_FetchForecast_NoPeriods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		if r.URL.Path == "/points/37.7594,-122.5107" {
			_, _ = io.WriteString(w, `{"properties":{"gridId":"MTR","gridX":1,"gridY":2}}`)
			return
		}
		_, _ = io.WriteString(w, `{"properties":{"periods":[]}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchForecast(context.Background(), oceanBeach)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no periods")
}

func TestClient_Gridpoint_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"Data Unavailable For Requested Point"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Gridpoint(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testUserAgent, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchForecast(context.Background(), oceanBeach)
	require.Error(t, err)
}
