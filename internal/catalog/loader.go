package catalog

import (
	"encoding/json"

	"github.com/infranodal/site-scoring/internal/coords"
)

// recordToPoint normalizes one raw record into a PointFeature. Coordinates
// that fail to parse as finite floats cause the record to be dropped (ok
// is false).
func recordToPoint(record map[string]any) (*PointFeature, bool) {
	lat, lon, ok := coords.ExtractLatLon(record)
	if !ok {
		return nil, false
	}
	return &PointFeature{Lat: lat, Lon: lon, Data: record}, true
}

// recordToLine normalizes one raw record into a LineFeature. The geometry
// may arrive as a JSON string (an encoded list of [lon, lat] pairs) or
// already as a decoded list. Fewer than two valid vertices drops the
// record.
func recordToLine(record map[string]any, geometryKey string) (*LineFeature, bool) {
	raw, present := record[geometryKey]
	if !present {
		return nil, false
	}

	pairs, ok := decodeCoordinateList(raw)
	if !ok || len(pairs) < 2 {
		return nil, false
	}

	// Incoming pairs are [lon, lat]; LineFeature.Coordinates is [lat, lon].
	coordinates := make([][2]float64, 0, len(pairs))
	for _, p := range pairs {
		coordinates = append(coordinates, [2]float64{p[1], p[0]})
	}

	line, ok := NewLineFeature(coordinates, record)
	if !ok {
		return nil, false
	}
	return &line, true
}

// decodeCoordinateList accepts either a JSON-encoded string or an already
// decoded []any of [lon, lat] pairs and returns a normalized [][2]float64
// of [lon, lat] values.
func decodeCoordinateList(raw any) ([][2]float64, bool) {
	switch v := raw.(type) {
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, false
		}
		return decodeCoordinateSlice(decoded)
	case []any:
		return decodeCoordinateSlice(v)
	default:
		return nil, false
	}
}

func decodeCoordinateSlice(raw []any) ([][2]float64, bool) {
	pairs := make([][2]float64, 0, len(raw))
	for _, entry := range raw {
		pair, ok := entry.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		lon, lonOK := coords.CoerceFloat(pair[0])
		lat, latOK := coords.CoerceFloat(pair[1])
		if !lonOK || !latOK {
			continue
		}
		pairs = append(pairs, [2]float64{lon, lat})
	}
	if len(pairs) < 2 {
		return nil, false
	}
	return pairs, true
}

// flatCoordinatePair recognizes a bare [lon, lat] pair of two numbers, as
// distinct from a list of such pairs.
func flatCoordinatePair(raw any) (lon, lat float64, ok bool) {
	list, isList := raw.([]any)
	if !isList || len(list) != 2 {
		return 0, 0, false
	}
	lonVal, lonOK := coords.CoerceFloat(list[0])
	latVal, latOK := coords.CoerceFloat(list[1])
	if !lonOK || !latOK {
		return 0, 0, false
	}
	return lonVal, latVal, true
}

// recordToWaterFeature handles the polymorphic water_resources collection:
// a single [lon, lat] pair becomes a point; anything else is parsed as a
// line. Returns exactly one of (point, line) non-nil, or neither on
// failure to parse either shape.
func recordToWaterFeature(record map[string]any, geometryKey string) (point *PointFeature, line *LineFeature) {
	raw, present := record[geometryKey]
	if !present {
		if p, ok := recordToPoint(record); ok {
			return p, nil
		}
		return nil, nil
	}

	// A single [lon, lat] pair is a point; anything else is parsed as a line.
	if lon, lat, ok := flatCoordinatePair(raw); ok {
		return &PointFeature{Lat: lat, Lon: lon, Data: record}, nil
	}

	pairs, ok := decodeCoordinateList(raw)
	if ok && len(pairs) == 1 {
		return &PointFeature{Lat: pairs[0][1], Lon: pairs[0][0], Data: record}, nil
	}
	if ok && len(pairs) >= 2 {
		coordinates := make([][2]float64, 0, len(pairs))
		for _, p := range pairs {
			coordinates = append(coordinates, [2]float64{p[1], p[0]})
		}
		if l, lOK := NewLineFeature(coordinates, record); lOK {
			return nil, &l
		}
	}

	// Fall back to treating the record itself as a point via the usual key
	// variants (covers water_resources rows that carry plain lat/lon
	// columns rather than a geometry blob).
	if p, ok := recordToPoint(record); ok {
		return p, nil
	}
	return nil, nil
}

// BuildResult is the outcome of normalizing one store fetch into a catalog,
// including per-collection drop counts for metadata/metrics.
type BuildResult struct {
	Catalog *InfrastructureCatalog
	Dropped map[string]int
}

// BuildFromRecords normalizes raw store records for all five infrastructure
// collections into a new catalog. Records with unparseable coordinates or
// geometry are dropped and counted, never fatal to the refresh.
func BuildFromRecords(
	cellSizeDeg float64,
	substationRecords []map[string]any,
	transmissionRecords []map[string]any,
	fiberRecords []map[string]any,
	ixpRecords []map[string]any,
	waterRecords []map[string]any,
) *BuildResult {
	dropped := make(map[string]int)

	var substations []*PointFeature
	for _, r := range substationRecords {
		if p, ok := recordToPoint(r); ok {
			substations = append(substations, p)
		} else {
			dropped[CollectionSubstations]++
		}
	}

	var transmissionLines []*LineFeature
	for _, r := range transmissionRecords {
		if l, ok := recordToLine(r, "geometry"); ok {
			transmissionLines = append(transmissionLines, l)
		} else {
			dropped[CollectionTransmissionLines]++
		}
	}

	var fiberCables []*LineFeature
	for _, r := range fiberRecords {
		if l, ok := recordToLine(r, "geometry"); ok {
			fiberCables = append(fiberCables, l)
		} else {
			dropped[CollectionFiberCables]++
		}
	}

	var ixps []*PointFeature
	for _, r := range ixpRecords {
		if p, ok := recordToPoint(r); ok {
			ixps = append(ixps, p)
		} else {
			dropped[CollectionIXPs]++
		}
	}

	var waterPoints []*PointFeature
	var waterLines []*LineFeature
	for _, r := range waterRecords {
		p, l := recordToWaterFeature(r, "geometry")
		switch {
		case p != nil:
			waterPoints = append(waterPoints, p)
		case l != nil:
			waterLines = append(waterLines, l)
		default:
			dropped[CollectionWaterResources]++
		}
	}

	cat := Build(cellSizeDeg, substations, transmissionLines, fiberCables, ixps, waterPoints, waterLines)
	return &BuildResult{Catalog: cat, Dropped: dropped}
}
