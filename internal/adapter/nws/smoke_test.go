//go:build nws

package nws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// These tests hit the real api.weather.gov.
// Run with: go test -tags=nws ./internal/adapter/nws/ -v -count=1

func TestSmoke_FetchForecast(t *testing.T) {
	c := NewClient(DefaultBaseURL, "surf-report-service smoke test", 15*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := c.FetchForecast(context.Background(), domain.Location{Name: "ocean-beach", Lat: 37.7594, Lon: -122.5107})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ShortConditions)
	assert.Contains(t, got.Temperature, "°")
}
