package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFromRecords_DropsUnparseablePoints(t *testing.T) {
	substationRecords := []map[string]any{
		{"latitude": 51.5, "longitude": -0.1, "name": "ok"},
		{"name": "missing coords"},
		{"lat": "not-a-number", "lon": -0.2},
	}

	result := BuildFromRecords(0.5, substationRecords, nil, nil, nil, nil)

	require.Len(t, result.Catalog.Substations, 1)
	assert.Equal(t, 2, result.Dropped[CollectionSubstations])
}

func TestBuildFromRecords_ParsesLineGeometryFromJSONString(t *testing.T) {
	transmissionRecords := []map[string]any{
		{"geometry": `[[-0.1, 51.5], [-0.2, 51.6]]`, "name": "line-a"},
	}

	result := BuildFromRecords(0.5, nil, transmissionRecords, nil, nil, nil)

	require.Len(t, result.Catalog.TransmissionLines, 1)
	line := result.Catalog.TransmissionLines[0]
	assert.Len(t, line.Segments, 1)
	assert.InDelta(t, 51.5, line.BBox.MinLat, 1e-9)
	assert.InDelta(t, 51.6, line.BBox.MaxLat, 1e-9)
}

func TestBuildFromRecords_DropsLineWithOneVertex(t *testing.T) {
	transmissionRecords := []map[string]any{
		{"geometry": []any{[]any{-0.1, 51.5}}},
	}

	result := BuildFromRecords(0.5, nil, transmissionRecords, nil, nil, nil)

	assert.Len(t, result.Catalog.TransmissionLines, 0)
	assert.Equal(t, 1, result.Dropped[CollectionTransmissionLines])
}

func TestBuildFromRecords_WaterResourcePolymorphism(t *testing.T) {
	waterRecords := []map[string]any{
		{"geometry": []any{-0.1, 51.5}},                             // single pair -> point
		{"geometry": []any{[]any{-0.1, 51.5}, []any{-0.2, 51.6}}},    // list of pairs -> line
	}

	result := BuildFromRecords(0.5, nil, nil, nil, nil, waterRecords)

	assert.Len(t, result.Catalog.WaterPoints, 1)
	assert.Len(t, result.Catalog.WaterLines, 1)
}

func TestBuild_IndexesCellsForQuery(t *testing.T) {
	substations := []*PointFeature{{Lat: 51.5, Lon: -0.1, Data: map[string]any{}}}
	cat := Build(0.5, substations, nil, nil, nil, nil, nil)

	hits := cat.SubstationIndex.Query(51.5, -0.1, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, cat.Counts[LayerSubstation])
}
