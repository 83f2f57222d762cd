package proximity

import (
	"time"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/metrics"
)

// BatchSite is the minimal shape the batch engine needs from a site: a
// stable key for matching results back up, and its coordinates.
type BatchSite struct {
	Key string
	Lat float64
	Lon float64
}

// Batch runs Score for every site against a single catalog snapshot fetched
// once by the caller, recording duration and grid-fallback occurrences if
// a metrics registry is supplied.
func Batch(cat *catalog.InfrastructureCatalog, sites []BatchSite, reg *metrics.Registry) map[string]*ScoreSet {
	start := time.Now()
	results := make(map[string]*ScoreSet, len(sites))
	fallbacks := 0

	for _, site := range sites {
		score := Score(cat, site.Lat, site.Lon)
		results[site.Key] = score
		if score.GridFallbackOccurred {
			fallbacks++
		}
	}

	if reg != nil {
		reg.ProximityBatchDuration.Observe(time.Since(start).Seconds())
		if fallbacks > 0 {
			reg.ProximityGridFallback.Add(float64(fallbacks))
		}
	}

	return results
}
