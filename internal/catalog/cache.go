package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infranodal/site-scoring/internal/metrics"
	"github.com/infranodal/site-scoring/internal/types"
)

// Cache is the single-writer/multi-reader catalog cell: exactly one writer
// may refresh at a time (guarded by refreshMu), while readers take a
// snapshot of the current pointer under a short read lock (mu). A
// refresh builds the new catalog off to the side and swaps it in
// atomically; on any fetch error the prior catalog remains authoritative.
type Cache struct {
	store       Store
	ttl         time.Duration
	cellSizeDeg float64
	logger      *slog.Logger
	metrics     *metrics.Registry

	mu      sync.RWMutex
	current *InfrastructureCatalog

	refreshMu sync.Mutex
}

// NewCache constructs a Cache. The first Get call triggers the initial load.
func NewCache(store Store, ttl time.Duration, cellSizeDeg float64, logger *slog.Logger, reg *metrics.Registry) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:       store,
		ttl:         ttl,
		cellSizeDeg: cellSizeDeg,
		logger:      logger,
		metrics:     reg,
	}
}

// Get returns the current catalog, refreshing it first if the TTL has
// elapsed. Callers that find the TTL elapsed while a refresh is already in
// flight block on that refresh and then return the newly installed
// catalog, or, if it failed, attempt a refresh of their own.
func (c *Cache) Get(ctx context.Context) (*InfrastructureCatalog, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current != nil && time.Since(current.LoadTimestamp) <= c.ttl {
		return current, nil
	}

	return c.refresh(ctx, current)
}

// refresh performs the all-or-nothing catalog rebuild. If another refresh
// is already in flight, it waits for that one to finish; when that refresh
// installed a fresh catalog it is returned without fetching again,
// otherwise this call fetches itself.
func (c *Cache) refresh(ctx context.Context, fallback *InfrastructureCatalog) (*InfrastructureCatalog, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another goroutine may have already refreshed while we waited for the lock.
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()
	if current != nil && time.Since(current.LoadTimestamp) <= c.ttl {
		return current, nil
	}

	runID := uuid.New().String()
	start := time.Now()
	log := c.logger.With("run_id", runID, "component", "catalog")
	log.Info("catalog refresh starting")

	result, err := c.fetchAndBuild(ctx)
	duration := time.Since(start)

	if err != nil {
		if c.metrics != nil {
			c.metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		}
		log.Error("catalog refresh failed, keeping previous snapshot", "error", err, "duration_seconds", duration.Seconds())
		if fallback != nil {
			return fallback, nil
		}
		return nil, types.NewStoreFetchError("infrastructure catalog", err).WithRequestID(runID)
	}

	c.mu.Lock()
	c.current = result.Catalog
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.CatalogRefreshTotal.WithLabelValues("success").Inc()
		c.metrics.CatalogRefreshDuration.Observe(duration.Seconds())
		for layer, count := range result.Catalog.Counts {
			c.metrics.CatalogLayerFeatures.WithLabelValues(layer).Set(float64(count))
		}
	}

	log.Info("catalog refresh complete",
		"duration_seconds", duration.Seconds(),
		"counts", result.Catalog.Counts,
		"dropped", result.Dropped,
	)

	return result.Catalog, nil
}

// fetchAndBuild gathers all five infrastructure collections concurrently
// (the spec's preferred shape for suspension points) before building any
// index, then normalizes them in one pass.
func (c *Cache) fetchAndBuild(ctx context.Context) (*BuildResult, error) {
	collections := []string{
		CollectionSubstations,
		CollectionTransmissionLines,
		CollectionFiberCables,
		CollectionIXPs,
		CollectionWaterResources,
	}

	results := make([][]map[string]any, len(collections))
	errs := make([]error, len(collections))

	var wg sync.WaitGroup
	for i, collection := range collections {
		wg.Add(1)
		go func(i int, collection string) {
			defer wg.Done()
			records, err := c.store.FetchCollection(ctx, collection)
			results[i] = records
			errs[i] = err
		}(i, collection)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return BuildFromRecords(c.cellSizeDeg, results[0], results[1], results[2], results[3], results[4]), nil
}
