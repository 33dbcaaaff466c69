// Package coops fetches high/low tide predictions from the NOAA CO-OPS
// data API.
package coops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// DefaultBaseURL is the CO-OPS datagetter endpoint.
const DefaultBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

const predictionLayout = "2006-01-02 15:04"

// Client fetches tide predictions.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	application string
	logger      *slog.Logger
}

// NewClient creates a CO-OPS client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		application: "surf-report-service",
		logger:      logger,
	}
}

// FetchTides returns the day's high and low tides at the location's tide
// station, in time order and in the station's local time.
func (c *Client) FetchTides(ctx context.Context, loc domain.Location, date string) ([]domain.TideEvent, error) {
	if loc.TideStation == "" {
		return nil, fmt.Errorf("location %q has no tide station", loc.Name)
	}
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	params := url.Values{
		"begin_date":  {day.Format("20060102")},
		"end_date":    {day.Format("20060102")},
		"station":     {loc.TideStation},
		"product":     {"predictions"},
		"datum":       {"MLLW"},
		"time_zone":   {"lst_ldt"},
		"interval":    {"hilo"},
		"units":       {"english"},
		"format":      {"json"},
		"application": {c.application},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("co-ops request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("co-ops API error: status %d: %s", resp.StatusCode, body)
	}

	var tr tideResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// CO-OPS reports request problems with a 200 and an error object.
	if tr.Error != nil {
		return nil, errors.New("co-ops: " + tr.Error.Message)
	}

	tz := loc.TimeLocation()
	events := make([]domain.TideEvent, 0, len(tr.Predictions))
	for _, p := range tr.Predictions {
		at, err := time.ParseInLocation(predictionLayout, p.Time, tz)
		if err != nil {
			c.logger.Debug("skipping tide prediction", "time", p.Time, "error", err)
			continue
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(p.Height), 64)
		if err != nil {
			c.logger.Debug("skipping tide prediction", "height", p.Height, "error", err)
			continue
		}
		events = append(events, domain.TideEvent{Time: at, Type: tideType(p.Type), Height: height})
	}
	return events, nil
}

// tideType maps CO-OPS H/HH/L/LL codes.
func tideType(code string) domain.TideType {
	if strings.HasPrefix(strings.ToUpper(code), "H") {
		return domain.TideHigh
	}
	return domain.TideLow
}

// CO-OPS API response types.

type tideResponse struct {
	Predictions []struct {
		Time   string `json:"t"`
		Height string `json:"v"`
		Type   string `json:"type"`
	} `json:"predictions"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
