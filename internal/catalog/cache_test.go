package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	fetchCount int32
	fail       bool
}

func (f *fakeStore) FetchCollection(ctx context.Context, collection string) ([]map[string]any, error) {
	atomic.AddInt32(&f.fetchCount, 1)
	if f.fail {
		return nil, errors.New("boom")
	}
	if collection == CollectionSubstations {
		return []map[string]any{{"latitude": 51.5, "longitude": -0.1}}, nil
	}
	return nil, nil
}

func (f *fakeStore) FetchSites(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	return nil, nil
}

func TestCache_GetTriggersInitialLoad(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store, time.Minute, 0.5, nil, nil)

	cat, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.Substations, 1)
}

func TestCache_GetReusesSnapshotWithinTTL(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store, time.Hour, 0.5, nil, nil)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	firstCount := atomic.LoadInt32(&store.fetchCount)

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firstCount, atomic.LoadInt32(&store.fetchCount), "expected no refetch within TTL")
}

func TestCache_RefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	store := &fakeStore{}
	cache := NewCache(store, time.Millisecond, 0.5, nil, nil)

	cat, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Substations, 1)

	time.Sleep(2 * time.Millisecond)
	store.fail = true

	cat2, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, cat, cat2, "expected the stale catalog to be served on refresh failure")
}

func TestCache_NoPreviousSnapshotAndFetchFailsReturnsError(t *testing.T) {
	store := &fakeStore{fail: true}
	cache := NewCache(store, time.Hour, 0.5, nil, nil)

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}
