package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sweetpotato0/ragalytics/orchestrator"
	"github.com/sweetpotato0/ragalytics/router"
)

type stubEngine struct {
	resp *orchestrator.Response
	err  error
	got  orchestrator.Request
}

func (s *stubEngine) Ask(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	s.got = req
	return s.resp, s.err
}

type stubCheck struct{ err error }

func (s stubCheck) Ping(ctx context.Context) error { return s.err }

func TestQueryEndpoint(t *testing.T) {
	engine := &stubEngine{resp: &orchestrator.Response{
		Question: "Total turnover in Belgium?",
		Category: router.CategoryAnalytics,
		Persona:  "product_owner",
		Answer:   "Total turnover in Belgium is 4.05.",
	}}
	srv := NewServer(engine, "test", nil)

	body := strings.NewReader(`{"question":"Total turnover in Belgium?","persona":"product_owner"}`)
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}
	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category != router.CategoryAnalytics || resp.Answer == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if engine.got.Persona != "product_owner" {
		t.Errorf("persona not forwarded: %q", engine.got.Persona)
	}
}

func TestQueryRejectsBlankQuestion(t *testing.T) {
	srv := NewServer(&stubEngine{}, "test", nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"  "}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: %d", rec.Code)
	}
}

func TestQueryRejectsMalformedBody(t *testing.T) {
	srv := NewServer(&stubEngine{}, "test", nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: %d", rec.Code)
	}
}

func TestQueryEngineFailure(t *testing.T) {
	srv := NewServer(&stubEngine{err: errors.New("classifier down")}, "test", nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "classifier down") {
		t.Error("internal error detail must not leak to clients")
	}
}

func TestHealthReportsDependencies(t *testing.T) {
	srv := NewServer(&stubEngine{}, "test", map[string]HealthChecker{
		"sql": stubCheck{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sql":"ok"`) {
		t.Errorf("dependency status missing: %s", rec.Body)
	}
}

func TestHealthDegradedOnFailedDependency(t *testing.T) {
	srv := NewServer(&stubEngine{}, "test", map[string]HealthChecker{
		"sql": stubCheck{err: errors.New("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Errorf("body: %s", rec.Body)
	}
}

func TestExamplesEndpoint(t *testing.T) {
	srv := NewServer(&stubEngine{}, "test", nil)

	req := httptest.NewRequest(http.MethodGet, "/examples", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	for _, key := range []string{"analytics", "semantic", "general", "personas"} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Errorf("examples missing %q section", key)
		}
	}
}

func TestRootEndpoint(t *testing.T) {
	srv := NewServer(&stubEngine{}, "1.2.3", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1.2.3") {
		t.Errorf("version missing: %s", rec.Body)
	}
}
