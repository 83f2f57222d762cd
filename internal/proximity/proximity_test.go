package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infranodal/site-scoring/internal/catalog"
)

func buildTestCatalog() *catalog.InfrastructureCatalog {
	substations := []*catalog.PointFeature{
		{Lat: 51.50, Lon: -0.10, Data: map[string]any{"name": "near"}},
		{Lat: 52.50, Lon: -0.10, Data: map[string]any{"name": "far"}},
	}
	line, _ := catalog.NewLineFeature([][2]float64{{51.5, -0.2}, {51.5, 0.0}}, map[string]any{"name": "transmission-a"})
	return catalog.Build(0.5, substations, []*catalog.LineFeature{&line}, nil, nil, nil, nil)
}

func TestScore_ExactHitScoresNearMax(t *testing.T) {
	cat := buildTestCatalog()
	result := Score(cat, 51.50, -0.10)

	assert.InDelta(t, 100, result.SubstationScore, 0.01)
	assert.Equal(t, 0.0, result.NearestDistancesKM[catalog.LayerSubstation])
}

func TestScore_MonotoneProximity(t *testing.T) {
	closeScore := exponentialScore(5, HalfDistanceKM[catalog.LayerSubstation])
	farScore := exponentialScore(50, HalfDistanceKM[catalog.LayerSubstation])
	assert.Greater(t, closeScore, farScore, "increasing distance must never increase score")
}

func TestExponentialScore_ForcedZeroBeyond200KM(t *testing.T) {
	assert.Equal(t, 0.0, exponentialScore(200, 30))
	assert.Equal(t, 0.0, exponentialScore(500, 30))
}

func TestExponentialScore_ClampedToRange(t *testing.T) {
	score := exponentialScore(0, 30)
	assert.LessOrEqual(t, score, 100.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestNearestLine_RejectsOutOfRadiusCandidate(t *testing.T) {
	cat := buildTestCatalog()
	_, _, _, ok := NearestLine(cat.TransmissionIndex, cat.TransmissionLines, 60.0, 10.0, 100)
	assert.False(t, ok, "a site far from every line within its bbox margin should find nothing")
}

func TestNearestLine_FindsClosePointOnSegment(t *testing.T) {
	cat := buildTestCatalog()
	d, feature, fellBack, ok := NearestLine(cat.TransmissionIndex, cat.TransmissionLines, 51.5, -0.1, 100)
	require.True(t, ok)
	assert.False(t, fellBack)
	assert.NotNil(t, feature)
	assert.InDelta(t, 0, d, 1e-6)
}

func TestBatch_MatchesIndividualScoring(t *testing.T) {
	cat := buildTestCatalog()
	sites := []BatchSite{
		{Key: "a", Lat: 51.5, Lon: -0.1},
		{Key: "b", Lat: 52.5, Lon: -0.1},
	}

	results := Batch(cat, sites, nil)
	for _, site := range sites {
		expected := Score(cat, site.Lat, site.Lon)
		got := results[site.Key]
		assert.InDelta(t, expected.TotalProximityBonus, got.TotalProximityBonus, 1e-6)
	}
}

func TestScore_WaterTakesMinimumOfPointAndLine(t *testing.T) {
	waterPoints := []*catalog.PointFeature{{Lat: 51.6, Lon: -0.1, Data: map[string]any{}}}
	line, _ := catalog.NewLineFeature([][2]float64{{51.5, -0.1}, {51.5, 0.1}}, map[string]any{})
	cat := catalog.Build(0.5, nil, nil, nil, nil, waterPoints, []*catalog.LineFeature{&line})

	result := Score(cat, 51.5, -0.1)
	// The line passes directly through the query point; the point is ~11km away.
	assert.InDelta(t, 0, result.NearestDistancesKM[catalog.LayerWater], 0.5)
}
