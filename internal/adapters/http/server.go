package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/overlord"
	"github.com/aretw0/overlord/pkg/domain"
	"github.com/aretw0/overlord/pkg/supervisor"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the part of the supervisor the control server drives.
type Controller interface {
	Status() supervisor.Status
	Shutdown(ctx context.Context, req domain.ShutdownRequest) domain.ShutdownState
}

// Server exposes status, metrics and shutdown requests over HTTP.
type Server struct {
	Controller Controller
	Gatherer   prometheus.Gatherer
}

// NewHandler creates the HTTP handler. A nil gatherer disables /metrics.
func NewHandler(ctrl Controller, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{Controller: ctrl, Gatherer: gatherer}
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Post("/shutdown", s.PostShutdown)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "overlord",
		"version": strings.TrimSpace(overlord.Version),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.Status())
}

// PostShutdown handles POST /shutdown?mode=graceful|force. It has the same
// effect as the corresponding signal and returns without waiting.
func (s *Server) PostShutdown(w http.ResponseWriter, r *http.Request) {
	req, ok := domain.ParseShutdownRequest(r.URL.Query().Get("mode"))
	if !ok {
		http.Error(w, "mode must be 'graceful' or 'force'", http.StatusBadRequest)
		return
	}

	state := s.Controller.Shutdown(r.Context(), req)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"request": req.String(),
		"state":   state.String(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
