// Package proximity implements the batch proximity engine: for a site and
// a loaded catalog, find the nearest feature per infrastructure layer
// within that layer's search radius, and convert the distance into a
// bounded exponential-decay score.
package proximity

import (
	"math"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/geo"
	"github.com/infranodal/site-scoring/internal/grid"
)

// SearchRadiusKM is the per-layer search radius, all 100km per the spec.
var SearchRadiusKM = map[string]float64{
	catalog.LayerSubstation:   100,
	catalog.LayerTransmission: 100,
	catalog.LayerFiber:        100,
	catalog.LayerIXP:          100,
	catalog.LayerWater:        100,
}

// HalfDistanceKM is the per-layer exponential decay half-distance, matching
// the richer of the two source tables (30/30/15/40/25), which also matches
// the canonical spec values.
var HalfDistanceKM = map[string]float64{
	catalog.LayerSubstation:   30,
	catalog.LayerTransmission: 30,
	catalog.LayerFiber:        15,
	catalog.LayerIXP:          40,
	catalog.LayerWater:        25,
}

// ScoreSet is the per-site proximity result: one score per layer in [0,100],
// their sum, and the raw nearest distances (only for layers that hit).
type ScoreSet struct {
	SubstationScore      float64
	TransmissionScore    float64
	FiberScore           float64
	IXPScore             float64
	WaterScore           float64
	TotalProximityBonus  float64
	NearestDistancesKM   map[string]float64
	GridFallbackOccurred bool
}

// exponentialScore implements `100 * 2^(-d/half_d)` clamped to [0,100],
// forced to 0 once d >= 200km regardless of half-distance.
func exponentialScore(distanceKM, halfDistanceKM float64) float64 {
	if distanceKM >= 200 {
		return 0
	}
	k := math.Ln2 / halfDistanceKM
	score := 100 * math.Exp(-k*distanceKM)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// round1 rounds to one decimal place, matching the spec's distance
// rounding rule.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// NearestPoint ring-expands the grid from step 1 upward, stopping at the
// first step that yields any in-radius match, then falls back to a full
// linear scan of raw when the grid-limited scan finds nothing.
func NearestPoint(index *grid.SpatialGrid, raw []*catalog.PointFeature, lat, lon, radiusKM float64) (distanceKM float64, feature *catalog.PointFeature, fellBack bool, ok bool) {
	maxSteps := index.StepsForRadius(radiusKM)
	best := math.Inf(1)

	for step := 1; step <= maxSteps+1; step++ {
		found := false
		for _, raw := range index.Query(lat, lon, step) {
			pf, isPoint := raw.(*catalog.PointFeature)
			if !isPoint {
				continue
			}
			d := geo.Haversine(lat, lon, pf.Lat, pf.Lon)
			if d > radiusKM {
				continue
			}
			if d < best {
				best = d
				feature = pf
				found = true
			}
		}
		if found {
			return best, feature, false, true
		}
	}

	// Full-scan fallback.
	for _, pf := range raw {
		d := geo.Haversine(lat, lon, pf.Lat, pf.Lon)
		if d > radiusKM {
			continue
		}
		if d < best {
			best = d
			feature = pf
		}
	}
	if feature != nil {
		return best, feature, true, true
	}
	return 0, nil, true, false
}

// distanceToLine returns the minimum point_to_segment distance across a
// line feature's precomputed segments.
func distanceToLine(line *catalog.LineFeature, lat, lon float64) float64 {
	best := math.Inf(1)
	for _, seg := range line.Segments {
		d := geo.PointToSegmentKM(lat, lon, seg[0], seg[1], seg[2], seg[3])
		if d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	if math.IsInf(best, 1) {
		return 9999.0
	}
	return best
}

// NearestLine ring-expands the grid, rejecting candidates whose bbox can't
// possibly be in range before computing the more expensive segment
// distance, then falls back to a full linear scan.
func NearestLine(index *grid.SpatialGrid, raw []*catalog.LineFeature, lat, lon, radiusKM float64) (distanceKM float64, feature *catalog.LineFeature, fellBack bool, ok bool) {
	maxSteps := index.StepsForRadius(radiusKM)
	best := math.Inf(1)

	for step := 1; step <= maxSteps+1; step++ {
		found := false
		for _, rawFeature := range index.Query(lat, lon, step) {
			lf, isLine := rawFeature.(*catalog.LineFeature)
			if !isLine {
				continue
			}
			if !geo.BBoxWithinSearch(lf.BBox, lat, lon, radiusKM) {
				continue
			}
			d := distanceToLine(lf, lat, lon)
			if d > radiusKM {
				continue
			}
			if d < best {
				best = d
				feature = lf
				found = true
			}
		}
		if found {
			return best, feature, false, true
		}
	}

	for _, lf := range raw {
		if !geo.BBoxWithinSearch(lf.BBox, lat, lon, radiusKM) {
			continue
		}
		d := distanceToLine(lf, lat, lon)
		if d > radiusKM {
			continue
		}
		if d < best {
			best = d
			feature = lf
		}
	}
	if feature != nil {
		return best, feature, true, true
	}
	return 0, nil, true, false
}

// Score computes the full per-layer proximity result for one site against
// one catalog snapshot.
func Score(cat *catalog.InfrastructureCatalog, lat, lon float64) *ScoreSet {
	result := &ScoreSet{NearestDistancesKM: make(map[string]float64)}

	if d, _, fellBack, ok := NearestPoint(cat.SubstationIndex, cat.Substations, lat, lon, SearchRadiusKM[catalog.LayerSubstation]); ok {
		result.SubstationScore = exponentialScore(d, HalfDistanceKM[catalog.LayerSubstation])
		result.NearestDistancesKM[catalog.LayerSubstation] = round1(d)
		result.GridFallbackOccurred = result.GridFallbackOccurred || fellBack
	}

	if d, _, fellBack, ok := NearestLine(cat.TransmissionIndex, cat.TransmissionLines, lat, lon, SearchRadiusKM[catalog.LayerTransmission]); ok {
		result.TransmissionScore = exponentialScore(d, HalfDistanceKM[catalog.LayerTransmission])
		result.NearestDistancesKM[catalog.LayerTransmission] = round1(d)
		result.GridFallbackOccurred = result.GridFallbackOccurred || fellBack
	}

	if d, _, fellBack, ok := NearestLine(cat.FiberIndex, cat.FiberCables, lat, lon, SearchRadiusKM[catalog.LayerFiber]); ok {
		result.FiberScore = exponentialScore(d, HalfDistanceKM[catalog.LayerFiber])
		result.NearestDistancesKM[catalog.LayerFiber] = round1(d)
		result.GridFallbackOccurred = result.GridFallbackOccurred || fellBack
	}

	if d, _, fellBack, ok := NearestPoint(cat.IXPIndex, cat.InternetExchangePoints, lat, lon, SearchRadiusKM[catalog.LayerIXP]); ok {
		result.IXPScore = exponentialScore(d, HalfDistanceKM[catalog.LayerIXP])
		result.NearestDistancesKM[catalog.LayerIXP] = round1(d)
		result.GridFallbackOccurred = result.GridFallbackOccurred || fellBack
	}

	// Water: minimum of nearest-point and nearest-line outcomes.
	waterRadius := SearchRadiusKM[catalog.LayerWater]
	pointDist, _, pointFellBack, pointOK := NearestPoint(cat.WaterPointIndex, cat.WaterPoints, lat, lon, waterRadius)
	lineDist, _, lineFellBack, lineOK := NearestLine(cat.WaterLineIndex, cat.WaterLines, lat, lon, waterRadius)

	switch {
	case pointOK && lineOK:
		best := pointDist
		if lineDist < best {
			best = lineDist
		}
		result.WaterScore = exponentialScore(best, HalfDistanceKM[catalog.LayerWater])
		result.NearestDistancesKM[catalog.LayerWater] = round1(best)
		result.GridFallbackOccurred = result.GridFallbackOccurred || pointFellBack || lineFellBack
	case pointOK:
		result.WaterScore = exponentialScore(pointDist, HalfDistanceKM[catalog.LayerWater])
		result.NearestDistancesKM[catalog.LayerWater] = round1(pointDist)
		result.GridFallbackOccurred = result.GridFallbackOccurred || pointFellBack
	case lineOK:
		result.WaterScore = exponentialScore(lineDist, HalfDistanceKM[catalog.LayerWater])
		result.NearestDistancesKM[catalog.LayerWater] = round1(lineDist)
		result.GridFallbackOccurred = result.GridFallbackOccurred || lineFellBack
	}

	result.TotalProximityBonus = result.SubstationScore + result.TransmissionScore +
		result.FiberScore + result.IXPScore + result.WaterScore

	return result
}
