// Package catalog builds and serves the in-memory infrastructure catalog:
// six spatial grids (substations, transmission lines, fiber cables, IXPs,
// water points, water lines) plus the parallel raw lists used as a
// full-scan fallback, refreshed under a single-writer/multi-reader TTL cell.
package catalog

import (
	"time"

	"github.com/infranodal/site-scoring/internal/geo"
	"github.com/infranodal/site-scoring/internal/grid"
)

// PointFeature represents a substation, IXP, or point-shaped water resource.
// Immutable after ingestion.
type PointFeature struct {
	Lat, Lon float64
	Data     map[string]any
}

// LineFeature represents a transmission line, fiber route, or river-shaped
// water resource. Segments is the precomputed adjacent-pair list; BBox is
// the axis-aligned envelope in degrees. Both are derived from Coordinates
// at construction time and must stay consistent with it. Immutable.
type LineFeature struct {
	Coordinates [][2]float64 // [lat, lon] pairs, in source order
	Segments    [][4]float64 // [lat1, lon1, lat2, lon2] adjacent pairs
	BBox        geo.BBox
	Data        map[string]any
}

// NewLineFeature derives Segments and BBox from coordinates in one pass.
// Returns false if fewer than two valid vertices are supplied.
func NewLineFeature(coordinates [][2]float64, data map[string]any) (LineFeature, bool) {
	if len(coordinates) < 2 {
		return LineFeature{}, false
	}

	segments := make([][4]float64, 0, len(coordinates)-1)
	minLat, minLon := coordinates[0][0], coordinates[0][1]
	maxLat, maxLon := coordinates[0][0], coordinates[0][1]

	for i := 1; i < len(coordinates); i++ {
		a, b := coordinates[i-1], coordinates[i]
		segments = append(segments, [4]float64{a[0], a[1], b[0], b[1]})
	}
	for _, c := range coordinates {
		if c[0] < minLat {
			minLat = c[0]
		}
		if c[0] > maxLat {
			maxLat = c[0]
		}
		if c[1] < minLon {
			minLon = c[1]
		}
		if c[1] > maxLon {
			maxLon = c[1]
		}
	}

	return LineFeature{
		Coordinates: coordinates,
		Segments:    segments,
		BBox:        geo.BBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon},
		Data:        data,
	}, true
}

// Layer names used throughout the catalog, proximity, and metrics packages.
const (
	LayerSubstation   = "substation"
	LayerTransmission = "transmission"
	LayerFiber        = "fiber"
	LayerIXP          = "ixp"
	LayerWater        = "water"
)

// InfrastructureCatalog owns six grids plus parallel raw lists for
// fallback scans, a load timestamp, and a per-layer feature count.
// Constructed once by Build, then treated as immutable: concurrent readers
// require no locking.
type InfrastructureCatalog struct {
	Substations            []*PointFeature
	TransmissionLines      []*LineFeature
	FiberCables            []*LineFeature
	InternetExchangePoints []*PointFeature
	WaterPoints            []*PointFeature
	WaterLines             []*LineFeature

	SubstationIndex   *grid.SpatialGrid
	TransmissionIndex *grid.SpatialGrid
	FiberIndex        *grid.SpatialGrid
	IXPIndex          *grid.SpatialGrid
	WaterPointIndex   *grid.SpatialGrid
	WaterLineIndex    *grid.SpatialGrid

	LoadTimestamp time.Time
	Counts        map[string]int
}

// Build indexes the given raw feature slices into a new, immutable catalog.
func Build(
	cellSizeDeg float64,
	substations []*PointFeature,
	transmissionLines []*LineFeature,
	fiberCables []*LineFeature,
	ixps []*PointFeature,
	waterPoints []*PointFeature,
	waterLines []*LineFeature,
) *InfrastructureCatalog {
	c := &InfrastructureCatalog{
		Substations:            substations,
		TransmissionLines:      transmissionLines,
		FiberCables:            fiberCables,
		InternetExchangePoints: ixps,
		WaterPoints:            waterPoints,
		WaterLines:             waterLines,

		SubstationIndex:   grid.New(cellSizeDeg),
		TransmissionIndex: grid.New(cellSizeDeg),
		FiberIndex:        grid.New(cellSizeDeg),
		IXPIndex:          grid.New(cellSizeDeg),
		WaterPointIndex:   grid.New(cellSizeDeg),
		WaterLineIndex:    grid.New(cellSizeDeg),

		LoadTimestamp: timeNow(),
		Counts:        make(map[string]int),
	}

	for _, f := range substations {
		c.SubstationIndex.AddPoint(f.Lat, f.Lon, f)
	}
	for _, f := range transmissionLines {
		c.TransmissionIndex.AddBBox(f.BBox.MinLat, f.BBox.MinLon, f.BBox.MaxLat, f.BBox.MaxLon, f)
	}
	for _, f := range fiberCables {
		c.FiberIndex.AddBBox(f.BBox.MinLat, f.BBox.MinLon, f.BBox.MaxLat, f.BBox.MaxLon, f)
	}
	for _, f := range ixps {
		c.IXPIndex.AddPoint(f.Lat, f.Lon, f)
	}
	for _, f := range waterPoints {
		c.WaterPointIndex.AddPoint(f.Lat, f.Lon, f)
	}
	for _, f := range waterLines {
		c.WaterLineIndex.AddBBox(f.BBox.MinLat, f.BBox.MinLon, f.BBox.MaxLat, f.BBox.MaxLon, f)
	}

	c.Counts[LayerSubstation] = len(substations)
	c.Counts[LayerTransmission] = len(transmissionLines)
	c.Counts[LayerFiber] = len(fiberCables)
	c.Counts[LayerIXP] = len(ixps)
	c.Counts[LayerWater] = len(waterPoints) + len(waterLines)

	return c
}

// timeNow is a package-level indirection so tests can pin the load
// timestamp without reaching into unexported fields.
var timeNow = time.Now
