package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/infranodal/site-scoring/internal/types"
)

func TestFetchCollection_DecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"latitude":51.5,"longitude":-0.1}]`))
	}))
	defer server.Close()

	s := NewRESTStore(server.URL, "test-key")
	records, err := s.FetchCollection(context.Background(), "substations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestFetchCollection_MissingBaseURLReturnsCredentialsError(t *testing.T) {
	s := NewRESTStore("", "")
	_, err := s.FetchCollection(context.Background(), "substations")
	scoringErr, ok := err.(*types.ScoringError)
	if !ok {
		t.Fatalf("expected a *types.ScoringError, got %T", err)
	}
	if scoringErr.Code != types.ErrorCodeStoreCredentials {
		t.Errorf("expected credentials error code, got %s", scoringErr.Code)
	}
}

func TestFetchCollection_NonOKStatusReturnsStoreFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewRESTStore(server.URL, "test-key")
	_, err := s.FetchCollection(context.Background(), "substations")
	scoringErr, ok := err.(*types.ScoringError)
	if !ok {
		t.Fatalf("expected a *types.ScoringError, got %T", err)
	}
	if scoringErr.Code != types.ErrorCodeStoreFetch {
		t.Errorf("expected store fetch error code, got %s", scoringErr.Code)
	}
}
