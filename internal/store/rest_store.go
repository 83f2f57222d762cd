// Package store provides a thin REST client satisfying catalog.Store
// against a PostgREST-style endpoint (e.g. Supabase), the wiring a real
// deployment plugs in. Schema and query logic for any particular feature
// store are out of scope; this only does the HTTP plumbing the interface
// needs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/infranodal/site-scoring/internal/types"
)

// RESTStore fetches collections from a PostgREST-compatible endpoint using
// a table-per-collection convention: GET {baseURL}/rest/v1/{collection}.
type RESTStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRESTStore constructs a RESTStore. An empty baseURL is accepted: every
// fetch then fails with a store-credentials error (not retryable) rather
// than a panic.
func NewRESTStore(baseURL, apiKey string) *RESTStore {
	return &RESTStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *RESTStore) FetchCollection(ctx context.Context, collection string) ([]map[string]any, error) {
	return s.fetch(ctx, collection, 0)
}

func (s *RESTStore) FetchSites(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	return s.fetch(ctx, collection, limit)
}

func (s *RESTStore) fetch(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	if s.baseURL == "" {
		return nil, types.NewStoreCredentialsError()
	}

	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, types.NewStoreFetchError(collection, err)
	}
	endpoint.Path = fmt.Sprintf("%s/rest/v1/%s", endpoint.Path, collection)
	q := endpoint.Query()
	q.Set("select", "*")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, types.NewStoreFetchError(collection, err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, types.NewStoreFetchError(collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewStoreFetchError(collection, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, types.NewStoreFetchError(collection, err)
	}
	return records, nil
}
