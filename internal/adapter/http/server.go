package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/pipeline"
)

// ReportRunner runs one report generation for a location.
type ReportRunner interface {
	Run(ctx context.Context, loc domain.Location) (pipeline.Result, error)
}

// ReportReader looks up a stored report.
type ReportReader interface {
	GetReport(ctx context.Context, key domain.ReportKey) (domain.SurfReport, error)
}

// Catalog resolves location names. An empty name means the default location.
type Catalog interface {
	Location(name string) (domain.Location, bool)
}

// Deps are the collaborators behind the report endpoints.
type Deps struct {
	Runner   ReportRunner
	Reports  ReportReader
	Catalog  Catalog
	Default  string
	Ready    sharedobs.ReadinessChecker
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// RunTimeout bounds a synchronous POST; the write timeout is derived from it.
	RunTimeout time.Duration
	// Clock resolves today's report date. Nil uses the real clock.
	Clock clockwork.Clock
}

// Server exposes the report endpoints alongside health, readiness, and
// metrics.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/surf-report, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	writeTimeout := 10 * time.Second
	if deps.RunTimeout > 0 {
		writeTimeout += deps.RunTimeout
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("POST /api/surf-report", s.handleGenerate)
	mux.HandleFunc("GET /api/surf-report", s.handleGet)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", metricsHandler(deps.Gatherer))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) resolveLocation(name string) (domain.Location, bool) {
	if name == "" {
		name = s.deps.Default
	}
	return s.deps.Catalog.Location(name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
