// Package api serves the engine over HTTP: a query endpoint plus health and
// discovery endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sweetpotato0/ragalytics/orchestrator"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
)

// Engine is the ask capability the server fronts.
type Engine interface {
	Ask(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
}

// HealthChecker reports readiness of a named dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server wraps the engine with an HTTP surface.
type Server struct {
	engine  Engine
	checks  map[string]HealthChecker
	version string
	logger  interface {
		Info(msg string, args ...any)
		Error(msg string, args ...any)
	}
}

// NewServer creates the HTTP server. Checks are optional named dependencies
// reported by the health endpoint.
func NewServer(engine Engine, version string, checks map[string]HealthChecker) *Server {
	return &Server{
		engine:  engine,
		checks:  checks,
		version: version,
		logger:  logging.WithComponent("api"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /examples", s.handleExamples)
	mux.HandleFunc("POST /query", s.handleQuery)
	return mux
}

// ListenAndServe serves on the port until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "ragalytics",
		"version": s.version,
		"endpoints": []string{
			"POST /query",
			"GET /health",
			"GET /examples",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := map[string]string{}
	for name, check := range s.checks {
		if err := check.Ping(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := map[string]any{"status": "ok", "version": s.version}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	writeJSON(w, status, body)
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"analytics": []string{
			"What is the total turnover in Belgium?",
			"Which game launched most recently?",
			"How many high-segment products are there per country?",
		},
		"semantic": []string{
			"How does Lucky 7 Slots work?",
			"What side bets does Roulette Pro offer?",
			"Explain the respin feature in Star Burst.",
		},
		"general": []string{
			"Hello!",
			"What can you help me with?",
		},
		"personas": []string{"product_owner", "marketing"},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := s.engine.Ask(r.Context(), req)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process query")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
