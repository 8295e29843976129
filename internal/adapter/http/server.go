package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/couchcryptid/quake-map-service/internal/quakeview"
)

// View is the state holder the server renders and mutates.
type View interface {
	sharedobs.ReadinessChecker
	Snapshot() quakeview.Snapshot
	SetMinMagnitude(m domain.Magnitude) (bool, error)
	SetWindow(w domain.Window) (bool, error)
	SetFilter(f domain.Filter) (bool, error)
	Subscribe() (<-chan struct{}, func())
}

var errEmptyFilter = errors.New("min_magnitude or window is required")

// Server exposes the map page, the view API, the event stream, and the
// health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	view       View
	mapCfg     domain.MapConfig
	page       *template.Template
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the page, API, and ops routes.
func NewServer(addr string, view View, mapCfg domain.MapConfig, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		view:    view,
		mapCfg:  mapCfg,
		page:    pageTemplate,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/events.geojson", s.handleEventsGeoJSON)
	mux.HandleFunc("PUT /api/filter", s.handleSetFilter)
	mux.HandleFunc("GET /api/stream", s.handleStream)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(view))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked stream connections are not tracked by net/http; they end when the
// view closes its subscriber channels.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleEventsGeoJSON(w http.ResponseWriter, _ *http.Request) {
	fc := quakeview.OverlayFeatureCollection(s.view.Snapshot().Markers)
	data, err := json.Marshal(fc)
	if err != nil {
		s.logger.Error("encode overlay", "error", err)
		writeError(w, http.StatusInternalServerError, "encode overlay")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type filterRequest struct {
	MinMagnitude *string `json:"min_magnitude"`
	Window       *string `json:"window"`
}

// handleSetFilter applies a partial filter update. It answers 202 when a
// fetch was started and 200 when nothing changed; both carry the snapshot.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)

	var req filterRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	started, err := s.applyFilter(req)
	switch {
	case errors.Is(err, domain.ErrUnsupportedFilter):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, domain.ErrUnknownMagnitude),
		errors.Is(err, domain.ErrUnknownWindow),
		errors.Is(err, errEmptyFilter):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, quakeview.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("set filter", "error", err)
		writeError(w, http.StatusInternalServerError, "set filter")
		return
	}

	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	sharedobs.WriteJSON(w, status, s.view.Snapshot())
}

func (s *Server) applyFilter(req filterRequest) (bool, error) {
	switch {
	case req.MinMagnitude != nil && req.Window != nil:
		return s.view.SetFilter(domain.Filter{
			MinMagnitude: domain.Magnitude(*req.MinMagnitude),
			Window:       domain.Window(*req.Window),
		})
	case req.MinMagnitude != nil:
		return s.view.SetMinMagnitude(domain.Magnitude(*req.MinMagnitude))
	case req.Window != nil:
		return s.view.SetWindow(domain.Window(*req.Window))
	default:
		return false, errEmptyFilter
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
