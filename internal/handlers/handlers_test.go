package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/metrics"
	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/pipeline"
)

func TestValidateCollection_DefaultsToTECConnections(t *testing.T) {
	got, err := validateCollection("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != catalog.CollectionTECConnections {
		t.Errorf("expected default tec_connections, got %q", got)
	}
}

func TestValidateCollection_RejectsUnknownCollection(t *testing.T) {
	if _, err := validateCollection("not_a_real_table"); err == nil {
		t.Errorf("expected an error for an unrecognized collection")
	}
}

func TestValidateLimit_RejectsNonPositive(t *testing.T) {
	if _, err := validateLimit("0"); err == nil {
		t.Errorf("expected an error for a zero limit")
	}
	if _, err := validateLimit("abc"); err == nil {
		t.Errorf("expected an error for a non-numeric limit")
	}
}

func TestValidateLimit_CapsAtMaximum(t *testing.T) {
	got, err := validateLimit("100000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5000 {
		t.Errorf("expected limit capped at 5000, got %d", got)
	}
}

func TestValidatePersona_UnknownFallsBackFlaggedInvalid(t *testing.T) {
	p, resolution, err := validatePersona("not_a_persona")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || *p != persona.Hyperscaler {
		t.Fatalf("expected fallback to hyperscaler, got %v", p)
	}
	if resolution != persona.ResolutionInvalid {
		t.Errorf("expected resolution status invalid, got %q", resolution)
	}
}

func TestValidatePersona_BlankIsNil(t *testing.T) {
	p, _, err := validatePersona("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil persona for blank input")
	}
}

func TestValidateWeights_RejectsZeroSum(t *testing.T) {
	if err := validateWeights(map[string]float64{"capacity": 0}); err == nil {
		t.Errorf("expected an error for a zero-sum weight vector")
	}
}

func TestValidateWeights_RejectsNegative(t *testing.T) {
	if err := validateWeights(map[string]float64{"capacity": -1, "resilience": 2}); err == nil {
		t.Errorf("expected an error for a negative weight")
	}
}

type fakeStore struct{}

func (f *fakeStore) FetchCollection(ctx context.Context, collection string) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) FetchSites(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	return []map[string]any{
		{"id": "1", "project_name": "Test Site", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 40.0, "technology_type": "solar"},
	}, nil
}

func newTestDeps() *Dependencies {
	store := &fakeStore{}
	cache := catalog.NewCache(store, time.Hour, 0.5, nil, nil)
	runner := pipeline.NewRunner(cache, store, metrics.NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &Dependencies{
		Runner: runner,
		Cache:  cache,
		Logger: slog.Default(),
		Config: &Config{Version: "test", ServiceName: "test-service", AlgorithmVersion: "test"},
	}
}

func TestHandleScoreSites_ReturnsFeatureCollection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestDeps()
	h := NewScoreSitesHandler(deps)

	r := gin.New()
	r.GET("/api/v1/score/sites", h.HandleScoreSites)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/score/sites?collection=tec_connections", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleScoreSites_RejectsBadCollection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestDeps()
	h := NewScoreSitesHandler(deps)

	r := gin.New()
	r.GET("/api/v1/score/sites", h.HandleScoreSites)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/score/sites?collection=bogus", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleCompareScoringSystems_ReturnsComparisons(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestDeps()
	h := NewCompareHandler(deps)

	r := gin.New()
	r.GET("/api/v1/score/compare", h.HandleCompareScoringSystems)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/score/compare?collection=tec_connections", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthHandler_ReportsCatalogStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestDeps()
	h := NewHealthHandler(deps)

	r := gin.New()
	r.GET("/health", h.HandleHealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
