package scoring

import (
	"testing"

	"github.com/infranodal/site-scoring/internal/catalog"
)

func TestCapacityComponentScore_IdealCapacityScoresAroundHalf(t *testing.T) {
	got := CapacityComponentScore(75, 75)
	if got < 49 || got > 51 {
		t.Errorf("expected ~50 at the ideal capacity, got %v", got)
	}
}

func TestCapacityComponentScore_MonotoneInCapacity(t *testing.T) {
	low := CapacityComponentScore(10, 75)
	high := CapacityComponentScore(200, 75)
	if high <= low {
		t.Errorf("expected score to increase with capacity, got low=%v high=%v", low, high)
	}
}

func TestDevelopmentStageScore_ExactMatch(t *testing.T) {
	if got := DevelopmentStageScore("Operational"); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
}

func TestDevelopmentStageScore_SubstringFallback(t *testing.T) {
	if got := DevelopmentStageScore("Planning Permission - In Planning - Awaiting Decision"); got != 55 {
		t.Errorf("expected the 'in planning' substring match of 55, got %v", got)
	}
}

func TestDevelopmentStageScore_UnknownDefaultsTo45(t *testing.T) {
	if got := DevelopmentStageScore("some unrecognized status"); got != 45 {
		t.Errorf("expected default of 45, got %v", got)
	}
}

func TestTechnologyScore_CCGTMatchesLowercased(t *testing.T) {
	if got := TechnologyScore("CCGT"); got != 100 {
		t.Errorf("expected CCGT to score 100, got %v", got)
	}
}

func TestTechnologyScore_Hybrid(t *testing.T) {
	if got := TechnologyScore("Solar + Battery Hybrid"); got != 100 {
		t.Errorf("expected hybrid to score 100, got %v", got)
	}
}

func TestGridInfrastructureScore_NoDistancesIsZero(t *testing.T) {
	if got := GridInfrastructureScore(map[string]float64{}); got != 0 {
		t.Errorf("expected 0 with no known distances, got %v", got)
	}
}

func TestGridInfrastructureScore_CloseSubstationScoresHigh(t *testing.T) {
	got := GridInfrastructureScore(map[string]float64{catalog.LayerSubstation: 1})
	if got < 45 {
		t.Errorf("expected a close substation to score high, got %v", got)
	}
}

func TestLCOEScore_KnownStatus(t *testing.T) {
	if got := LCOEScore("Consented"); got != 85 {
		t.Errorf("expected 85, got %v", got)
	}
}

func TestLCOEScore_UnknownDefaultsTo50(t *testing.T) {
	if got := LCOEScore("something else"); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
}

func TestEstimateCapacityFactor_UserProvidedIsClamped(t *testing.T) {
	v := 150.0
	got := EstimateCapacityFactor("solar", 52, &v)
	if got != 95 {
		t.Errorf("expected clamp to 95, got %v", got)
	}
}

func TestEstimateCapacityFactor_OffshoreWindIsFixed(t *testing.T) {
	got := EstimateCapacityFactor("Offshore Wind", 55, nil)
	if got != 45 {
		t.Errorf("expected 45, got %v", got)
	}
}

func TestConnectionSpeedScore_MissingDistancesUsesDefault(t *testing.T) {
	got := ConnectionSpeedScore("operational", map[string]float64{})
	if got < 0 || got > 100 {
		t.Errorf("expected a bounded score, got %v", got)
	}
}

func TestResilienceScore_MoreBackupRaisesScore(t *testing.T) {
	sparse := ResilienceScore("solar", map[string]float64{})
	rich := ResilienceScore("battery storage", map[string]float64{
		catalog.LayerSubstation:   5,
		catalog.LayerTransmission: 10,
		catalog.LayerFiber:        5,
		catalog.LayerIXP:          20,
	})
	if rich <= sparse {
		t.Errorf("expected more infrastructure redundancy to score higher, got sparse=%v rich=%v", sparse, rich)
	}
}

func TestPriceSensitivityScore_CheaperSiteScoresHigherAgainstCap(t *testing.T) {
	maxPrice := 80.0
	cheap := PriceSensitivityScore("solar", 52, -1, nil, &maxPrice)
	expensive := PriceSensitivityScore("biomass", 52, -1, nil, &maxPrice)
	if cheap <= expensive {
		t.Errorf("expected the cheaper technology to score higher, got cheap=%v expensive=%v", cheap, expensive)
	}
}

func TestPriceSensitivityScore_BoundedWithoutUserCap(t *testing.T) {
	got := PriceSensitivityScore("wind", 54, -2, nil, nil)
	if got < 0 || got > 100 {
		t.Errorf("expected a bounded score, got %v", got)
	}
}
