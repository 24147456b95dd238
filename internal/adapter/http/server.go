// Package http exposes the service API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/meteopt/aviso/internal/adapter/ipma"
	"github.com/meteopt/aviso/internal/domain"
	"github.com/meteopt/aviso/internal/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SafetyService is the slice of the monitor the HTTP layer needs.
type SafetyService interface {
	CheckReadiness(ctx context.Context) error
	EvaluateAt(lat, lon float64) monitor.Assessment
	EvaluateLatest() (monitor.Assessment, bool)
	SetFix(ctx context.Context, lat, lon float64) monitor.Assessment
	TriggerRefresh()
	Status() monitor.Snapshot
	ForecastFor(ctx context.Context, d domain.District) (json.RawMessage, error)
}

// Server wires the service routes onto a net/http server.
type Server struct {
	httpServer *http.Server
	service    SafetyService
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, service SafetyService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/safety", s.handleSafety)
	mux.HandleFunc("POST /v1/location", s.handleLocation)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/forecast", s.handleForecast)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleSafety evaluates an explicit coordinate, or the latest recorded fix
// when no coordinates are given.
func (s *Server) handleSafety(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("lat") == "" && r.URL.Query().Get("lon") == "" {
		a, ok := s.service.EvaluateLatest()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no location fix recorded"})
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	lat, lon, err := coords(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.service.EvaluateAt(lat, lon))
}

// handleLocation records a new latest fix (GPS ingest or simulated location)
// and returns its assessment.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Lat == nil || body.Lon == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"lat\": <num>, \"lon\": <num>}"})
		return
	}
	writeJSON(w, http.StatusOK, s.service.SetFix(r.Context(), *body.Lat, *body.Lon))
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.service.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

// handleForecast resolves the district for a coordinate and serves its daily
// forecast payload, fetching through the cache on demand.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coords(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	d, ok := domain.Resolve(lat, lon)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "coordinates outside all districts"})
		return
	}

	payload, err := s.service.ForecastFor(r.Context(), d)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ipma.ErrNoForecastID) {
			status = http.StatusNotFound
		}
		s.logger.Warn("forecast fetch failed", "district", d.Name, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"district":    d.Name,
		"forecast_id": d.ForecastID,
		"payload":     payload,
	})
}

func coords(r *http.Request) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, errors.New("lat must be a number")
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, errors.New("lon must be a number")
	}
	return lat, lon, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
