package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/pipeline"
)

// GenerateResponse is the body of POST /api/surf-report.
type GenerateResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Date       string `json:"date,omitempty"`
	Location   string `json:"location,omitempty"`
	RunID      string `json:"runId,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	Rating     int    `json:"rating,omitempty"`
	Degraded   bool   `json:"degraded,omitempty"`
	Superseded bool   `json:"superseded,omitempty"`

	// Set only under the degrade policy.
	HasWeatherData   *bool `json:"hasWeatherData,omitempty"`
	HasTideData      *bool `json:"hasTideData,omitempty"`
	HasValidWaveData *bool `json:"hasValidWaveData,omitempty"`
}

type generateRequest struct {
	Location string `json:"location"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("location")
	if name == "" && r.Body != nil {
		var req generateRequest
		err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		name = req.Location
	}

	loc, ok := s.resolveLocation(name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: domain.ErrUnknownLocation.Error() + ": " + name})
		return
	}

	ctx := r.Context()
	if s.deps.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.RunTimeout)
		defer cancel()
	}

	res, err := s.deps.Runner.Run(ctx, loc)
	status, body := GenerateResult(res, err)
	if err != nil {
		s.logger.Warn("surf report run failed", "location", loc.Name, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

// GenerateResult maps a run outcome to the response status and body.
func GenerateResult(res pipeline.Result, err error) (int, GenerateResponse) {
	body := GenerateResponse{
		Date:     res.Key.Date,
		Location: res.Key.Location,
		RunID:    res.RunID,
		Attempts: res.Attempts,
	}
	if res.Policy == domain.ExhaustDegrade {
		body.HasWeatherData = boolPtr(res.HasWeatherData)
		body.HasTideData = boolPtr(res.HasTideData)
		body.HasValidWaveData = boolPtr(res.HasValidWaveData)
	}

	if err == nil {
		body.Success = true
		body.Rating = res.Rating
		body.Degraded = res.Degraded
		body.Superseded = res.Superseded
		switch {
		case res.Superseded:
			body.Message = "A newer surf report was already stored"
		case res.Degraded:
			body.Message = "Surf report generated without valid wave data"
		default:
			body.Message = "Surf report generated successfully"
		}
		return http.StatusOK, body
	}

	body.Error = err.Error()
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable, body
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, ok := s.resolveLocation(q.Get("location"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": domain.ErrUnknownLocation.Error()})
		return
	}

	key := loc.KeyAt(s.deps.Clock.Now())
	if date := q.Get("date"); date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		key.Date = date
	}

	report, err := s.deps.Reports.GetReport(r.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report for " + key.String()})
		return
	}
	if err != nil {
		s.logger.Error("read surf report failed", "key", key.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read report"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func boolPtr(b bool) *bool { return &b }
