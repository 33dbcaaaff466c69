// Package nws fetches short-range forecasts from the National Weather Service
// API (api.weather.gov).
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// DefaultBaseURL is the public NWS API root.
const DefaultBaseURL = "https://api.weather.gov"

// Gridpoint identifies an NWS forecast grid cell.
type Gridpoint struct {
	Office string
	X      int
	Y      int
}

// GridpointResolver maps coordinates to a forecast grid cell.
type GridpointResolver interface {
	Gridpoint(ctx context.Context, lat, lon float64) (Gridpoint, error)
}

// Client talks to api.weather.gov. NWS rejects requests without a
// User-Agent identifying the caller.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	points     GridpointResolver
	logger     *slog.Logger
}

// NewClient creates an NWS client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	c.points = c
	return c
}

// UseResolver routes gridpoint lookups through r, typically a
// CachedResolver wrapping this client.
func (c *Client) UseResolver(r GridpointResolver) {
	c.points = r
}

// Gridpoint resolves lat/lon through the /points endpoint.
func (c *Client) Gridpoint(ctx context.Context, lat, lon float64) (Gridpoint, error) {
	var resp pointResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon), &resp); err != nil {
		return Gridpoint{}, fmt.Errorf("resolve gridpoint: %w", err)
	}
	if resp.Properties.GridID == "" {
		return Gridpoint{}, fmt.Errorf("resolve gridpoint: no grid for %.4f,%.4f", lat, lon)
	}
	return Gridpoint{
		Office: resp.Properties.GridID,
		X:      resp.Properties.GridX,
		Y:      resp.Properties.GridY,
	}, nil
}

// FetchForecast returns the current forecast period for the location.
func (c *Client) FetchForecast(ctx context.Context, loc domain.Location) (domain.WeatherSnapshot, error) {
	gp, err := c.points.Gridpoint(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}

	var resp forecastResponse
	u := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", c.baseURL, gp.Office, gp.X, gp.Y)
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("fetch forecast: %w", err)
	}
	if len(resp.Properties.Periods) == 0 {
		return domain.WeatherSnapshot{}, fmt.Errorf("fetch forecast: no periods for %s/%d,%d", gp.Office, gp.X, gp.Y)
	}

	p := resp.Properties.Periods[0]
	c.logger.Debug("nws forecast fetched", "office", gp.Office, "period", p.Name, "conditions", p.ShortForecast)

	return domain.WeatherSnapshot{
		Location:         loc.Name,
		ShortConditions:  p.ShortForecast,
		Temperature:      fmt.Sprintf("%d°%s", p.Temperature, p.TemperatureUnit),
		DetailedForecast: p.DetailedForecast,
		FetchedAt:        time.Now().UTC(),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NWS API response types.

type pointResponse struct {
	Properties struct {
		GridID string `json:"gridId"`
		GridX  int    `json:"gridX"`
		GridY  int    `json:"gridY"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []period `json:"periods"`
	} `json:"properties"`
}

type period struct {
	Name             string `json:"name"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}
