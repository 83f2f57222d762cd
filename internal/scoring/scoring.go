// Package scoring implements the per-site component scorers that feed the
// persona-weighted investment rating: capacity, development stage,
// technology, grid/digital/water infrastructure proximity, LCOE, connection
// speed, resilience, and price sensitivity. Every scorer returns a value in
// [0, 100].
package scoring

import (
	"math"
	"strings"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/tnuos"
)

// ComponentHalfDistanceKM is the exponential decay half-distance used when
// aggregating nearest-distance measurements into the grid/digital/water
// infrastructure component scores. It is deliberately distinct from the
// proximity engine's own per-layer half-distances (internal/proximity),
// which score each layer independently rather than as a blended component.
var ComponentHalfDistanceKM = map[string]float64{
	catalog.LayerSubstation:   50.0,
	catalog.LayerTransmission: 50.0,
	catalog.LayerFiber:        25.0,
	catalog.LayerIXP:          25.0,
	catalog.LayerWater:        25.0,
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CapacityComponentScore applies a logistic curve centered on a persona's
// ideal capacity: capacity near the ideal scores near 50, well above or
// below it saturates toward 100 or 0.
func CapacityComponentScore(capacityMW, idealMW float64) float64 {
	score := 100.0 / (1.0 + math.Exp(-0.05*(capacityMW-idealMW)))
	return clamp(score, 0, 100)
}

type statusScore struct {
	key   string
	score float64
}

// developmentStageTable is ordered exactly as the canonical source declares
// it; substring fallback matching depends on this order when a status
// string doesn't match any key exactly.
var developmentStageTable = []statusScore{
	{"decommissioned", 0},
	{"abandoned", 5},
	{"appeal withdrawn", 10},
	{"appeal refused", 15},
	{"under construction", 20},
	{"appeal lodged", 25},
	{"application refused", 30},
	{"application withdrawn", 35},
	{"awaiting construction", 40},
	{"no application made", 45},
	{"secretary of state granted", 80},
	{"planning expired", 70},
	{"no application required", 100},
	{"application submitted", 100},
	{"revised", 90},
	{"consented", 70},
	{"granted", 70},
	{"in planning", 55},
	{"operational", 10},
}

// DevelopmentStageScore maps a project's development status to a score from
// developmentStageTable; pre-operational stages such as a submitted
// application score highest, while operational (10), under construction
// (20) and decommissioned (0) projects score low. An exact
// (case-insensitive, trimmed) match is tried first; failing that, the
// first table entry whose key appears as a substring wins. An unrecognized
// status defaults to 45.
func DevelopmentStageScore(status string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(status))

	for _, entry := range developmentStageTable {
		if entry.key == normalized {
			return entry.score
		}
	}
	for _, entry := range developmentStageTable {
		if strings.Contains(normalized, entry.key) {
			return entry.score
		}
	}
	return 45.0
}

// TechnologyScore rates a project's technology type. Gas/CCGT plant scores
// alongside hybrid at the top tier; the canonical source's matching
// substring for CCGT mismatched the lowercased input it compared against,
// so it could never be reached. It is matched here as the lowercased
// "ccgt".
func TechnologyScore(techType string) float64 {
	tech := strings.ToLower(techType)
	switch {
	case strings.Contains(tech, "hybrid"):
		return 100.0
	case strings.Contains(tech, "ccgt"):
		return 100.0
	case strings.Contains(tech, "solar"):
		return 80.0
	case strings.Contains(tech, "battery"):
		return 80.0
	case strings.Contains(tech, "wind"):
		return 60.0
	default:
		return 80.0
	}
}

func rawDecay(distances map[string]float64, layer string) float64 {
	d, ok := distances[layer]
	if !ok {
		return 0
	}
	return math.Exp(-d / ComponentHalfDistanceKM[layer])
}

// GridInfrastructureScore blends substation and transmission-line proximity
// into one 0-100 score.
func GridInfrastructureScore(distances map[string]float64) float64 {
	score := 50.0 * (rawDecay(distances, catalog.LayerSubstation) + rawDecay(distances, catalog.LayerTransmission))
	return clamp(score, 0, 100)
}

// DigitalInfrastructureScore blends fiber and internet-exchange-point
// proximity into one 0-100 score.
func DigitalInfrastructureScore(distances map[string]float64) float64 {
	score := 50.0 * (rawDecay(distances, catalog.LayerFiber) + rawDecay(distances, catalog.LayerIXP))
	return clamp(score, 0, 100)
}

// WaterResourcesScore scores proximity to the nearest water resource,
// relevant to cooling-dependent technologies.
func WaterResourcesScore(distances map[string]float64) float64 {
	return clamp(100.0*rawDecay(distances, catalog.LayerWater), 0, 100)
}

var lcoeStatusScores = map[string]float64{
	"operational":         10.0,
	"under construction":  50.0,
	"consented":           85.0,
	"in planning":         70.0,
	"site identified":     50.0,
	"concept":             30.0,
	"unknown":             50.0,
}

// LCOEScore is a levelized-cost-of-energy proxy keyed purely on development
// status via lcoeStatusScores: consented 85, in planning 70, under
// construction and site identified 50, concept 30, operational 10. Only
// exact (case-insensitive, trimmed) matches are recognized; any other
// status scores 50.
func LCOEScore(developmentStatusShort string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(developmentStatusShort))
	if normalized == "" {
		normalized = "unknown"
	}
	score, ok := lcoeStatusScores[normalized]
	if !ok {
		score = lcoeStatusScores["unknown"]
	}
	return clamp(score, 0, 100)
}

// EstimateCapacityFactor estimates a technology's capacity factor (as a
// percentage) from its type and latitude, unless the caller already
// supplies one.
func EstimateCapacityFactor(techType string, latitude float64, userProvided *float64) float64 {
	if userProvided != nil {
		return clamp(*userProvided, 5.0, 95.0)
	}

	tech := strings.ToLower(techType)

	switch {
	case strings.Contains(tech, "solar"):
		base := 12.0 - ((latitude-50.0)/8.0)*2.0
		return clamp(base, 9.0, 13.0)
	case strings.Contains(tech, "wind"):
		if strings.Contains(tech, "offshore") {
			return 45.0
		}
		base := 28.0 + ((latitude-50.0)/8.0)*7.0
		return clamp(base, 25.0, 38.0)
	case strings.Contains(tech, "battery") || strings.Contains(tech, "bess"):
		return 20.0
	case strings.Contains(tech, "hydro"):
		return 50.0
	case strings.Contains(tech, "gas") || strings.Contains(tech, "ccgt"):
		return 70.0
	case strings.Contains(tech, "biomass"):
		return 70.0
	case strings.Contains(tech, "hybrid"):
		return 50.0
	default:
		return 30.0
	}
}

// ConnectionSpeedScore blends how far along a project is in planning with
// how close it sits to the substation and transmission network, since both
// determine how quickly it can actually connect.
func ConnectionSpeedScore(developmentStatusShort string, distances map[string]float64) float64 {
	baseStage := DevelopmentStageScore(developmentStatusShort)

	const stageMin, stageMax = 20.0, 95.0
	normalized := clamp((baseStage-stageMin)/(stageMax-stageMin), 0, 1)
	stageScore := clamp(15.0+normalized*(100.0-15.0), 15.0, 100.0)

	substationKM := distanceOrDefault(distances, catalog.LayerSubstation, 999)
	transmissionKM := distanceOrDefault(distances, catalog.LayerTransmission, 999)

	substationScore := 100.0 * math.Exp(-substationKM/30.0)
	transmissionScore := 100.0 * math.Exp(-transmissionKM/50.0)

	final := stageScore*0.50 + substationScore*0.30 + transmissionScore*0.20
	return clamp(final, 0, 100)
}

func distanceOrDefault(distances map[string]float64, layer string, def float64) float64 {
	if d, ok := distances[layer]; ok {
		return d
	}
	return def
}

// ResilienceScore rates how many independent backup paths a site has:
// nearby substations and transmission for grid redundancy, nearby fiber and
// IXPs for connectivity redundancy, plus an on-site bonus for storage or
// dispatchable backup generation.
func ResilienceScore(techType string, distances map[string]float64) float64 {
	backupCount := 0

	substationKM := distanceOrDefault(distances, catalog.LayerSubstation, 999)
	switch {
	case substationKM < 15:
		backupCount += 4
	case substationKM < 30:
		backupCount += 3
	case substationKM < 50:
		backupCount += 2
	case substationKM < 75:
		backupCount++
	}

	transmissionKM := distanceOrDefault(distances, catalog.LayerTransmission, 999)
	switch {
	case transmissionKM < 20:
		backupCount += 3
	case transmissionKM < 40:
		backupCount += 2
	case transmissionKM < 60:
		backupCount++
	}

	fiberKM := distanceOrDefault(distances, catalog.LayerFiber, 999)
	switch {
	case fiberKM < 10:
		backupCount += 2
	case fiberKM < 25:
		backupCount++
	}

	ixpKM := distanceOrDefault(distances, catalog.LayerIXP, 999)
	switch {
	case ixpKM < 50:
		backupCount += 2
	case ixpKM < 100:
		backupCount++
	}

	tech := strings.ToLower(techType)
	if strings.Contains(tech, "battery") || strings.Contains(tech, "storage") {
		backupCount += 2
	}
	if strings.Contains(tech, "gas") || strings.Contains(tech, "diesel") {
		backupCount++
	}

	switch {
	case backupCount <= 1:
		return 25.0
	case backupCount == 2:
		return 35.0
	case backupCount == 3:
		return 45.0
	case backupCount == 4:
		return 60.0
	case backupCount == 5:
		return 70.0
	case backupCount == 6:
		return 80.0
	case backupCount == 7:
		return 90.0
	default:
		return 95.0
	}
}

type lcoeProfile struct {
	baseLCOE    float64
	referenceCF float64
}

func priceProfileFor(tech string) lcoeProfile {
	switch {
	case strings.Contains(tech, "solar"):
		return lcoeProfile{55.0, 0.12}
	case strings.Contains(tech, "wind") && strings.Contains(tech, "offshore"):
		return lcoeProfile{80.0, 0.40}
	case strings.Contains(tech, "wind"):
		return lcoeProfile{60.0, 0.30}
	case strings.Contains(tech, "battery") || strings.Contains(tech, "bess"):
		return lcoeProfile{65.0, 0.20}
	case strings.Contains(tech, "hydro"):
		return lcoeProfile{70.0, 0.35}
	case strings.Contains(tech, "biomass"):
		return lcoeProfile{85.0, 0.70}
	case strings.Contains(tech, "gas") || strings.Contains(tech, "ccgt"):
		return lcoeProfile{70.0, 0.55}
	case strings.Contains(tech, "hybrid"):
		return lcoeProfile{70.0, 0.25}
	default:
		return lcoeProfile{70.0, 0.30}
	}
}

// PriceSensitivityScore estimates a site's all-in delivered cost (LCOE
// adjusted for its actual capacity factor, plus an estimated TNUoS
// transmission charge) and scores it against either a caller-supplied
// maximum acceptable price or a fixed expected cost band.
func PriceSensitivityScore(techType string, latitude, longitude float64, userProvidedCF *float64, userMaxPriceMWh *float64) float64 {
	tech := strings.ToLower(techType)
	profile := priceProfileFor(tech)

	capacityFactorPct := EstimateCapacityFactor(tech, latitude, userProvidedCF)
	capacityFactor := capacityFactorPct / 100.0

	adjustedLCOE := profile.baseLCOE
	if capacityFactor > 0 {
		adjustedLCOE = profile.baseLCOE * (profile.referenceCF / capacityFactor)
	}

	tnuosPercentile := tnuos.Score(latitude, longitude)

	const tnuosMin, tnuosMax = -3.0, 16.0
	tnuosTariff := tnuosMin + ((100.0-tnuosPercentile)/100.0)*(tnuosMax-tnuosMin)

	const annualHours = 8760.0
	capacityHours := annualHours * capacityFactor

	tnuosMWhImpact := 0.0
	if capacityHours > 0 {
		tnuosMWhImpact = (math.Abs(tnuosTariff) * 1000) / capacityHours
	}

	var totalCostMWh float64
	if tnuosTariff < 0 {
		totalCostMWh = adjustedLCOE - tnuosMWhImpact
	} else {
		totalCostMWh = adjustedLCOE + tnuosMWhImpact
	}

	var score float64
	if userMaxPriceMWh != nil && *userMaxPriceMWh > 0 {
		maxPrice := *userMaxPriceMWh
		if totalCostMWh <= maxPrice {
			savingsPct := (maxPrice - totalCostMWh) / maxPrice
			score = 50 + savingsPct*50
		} else {
			overagePct := (totalCostMWh - maxPrice) / maxPrice
			score = 50 * math.Exp(-overagePct*2)
		}
	} else {
		const minExpected, maxExpected = 40.0, 100.0
		normalized := clamp((totalCostMWh-minExpected)/(maxExpected-minExpected), 0, 1)
		score = 100 * (1 - normalized)
	}

	return clamp(score, 0, 100)
}
