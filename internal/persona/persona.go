// Package persona resolves demand-side and supply-side investor personas
// and aggregates component scores into a persona-weighted investment
// rating, mirroring the weighting and capacity-fit conventions used across
// the rest of the scoring pipeline.
package persona

import (
	"math"
	"strings"

	"github.com/infranodal/site-scoring/internal/scoring"
	"github.com/infranodal/site-scoring/internal/tnuos"
)

// Type is a demand-side data-center operator persona.
type Type string

const (
	Hyperscaler   Type = "hyperscaler"
	Colocation    Type = "colocation"
	EdgeComputing Type = "edge_computing"
)

// PowerDeveloperType is a supply-side project persona.
type PowerDeveloperType string

const (
	Greenfield PowerDeveloperType = "greenfield"
	Repower    PowerDeveloperType = "repower"
	Stranded   PowerDeveloperType = "stranded"
)

// Weights is the set of component weights applied when aggregating a
// weighted investment score. Keys mirror ComponentScores' fields.
type Weights map[string]float64

// DemandWeights holds the per-persona weights for the seven shared
// investment components, tuned to each operator type's priorities.
var DemandWeights = map[Type]Weights{
	Hyperscaler: {
		"capacity":           0.244,
		"connection_speed":   0.167,
		"resilience":         0.133,
		"land_planning":      0.2,
		"latency":            0.056,
		"cooling":            0.144,
		"price_sensitivity":  0.056,
	},
	Colocation: {
		"capacity":           0.141,
		"connection_speed":   0.163,
		"resilience":         0.196,
		"land_planning":      0.163,
		"latency":            0.217,
		"cooling":            0.087,
		"price_sensitivity":  0.033,
	},
	EdgeComputing: {
		"capacity":           0.097,
		"connection_speed":   0.129,
		"resilience":         0.108,
		"land_planning":      0.28,
		"latency":            0.247,
		"cooling":            0.054,
		"price_sensitivity":  0.086,
	},
}

// PowerDeveloperWeights holds the per-persona weights for supply-side
// project analysis, over the same seven components.
var PowerDeveloperWeights = map[PowerDeveloperType]Weights{
	Greenfield: {
		"capacity":          0.15,
		"connection_speed":  0.15,
		"resilience":        0.10,
		"land_planning":     0.25,
		"latency":           0.03,
		"cooling":           0.02,
		"price_sensitivity": 0.20,
	},
	Repower: {
		"capacity":          0.15,
		"connection_speed":  0.20,
		"resilience":        0.12,
		"land_planning":     0.15,
		"latency":           0.05,
		"cooling":           0.03,
		"price_sensitivity": 0.15,
	},
	Stranded: {
		"capacity":          0.05,
		"connection_speed":  0.25,
		"resilience":        0.10,
		"land_planning":     0.05,
		"latency":           0.05,
		"cooling":           0.05,
		"price_sensitivity": 0.25,
	},
}

// CapacityRange is an inclusive [Min, Max] MW band.
type CapacityRange struct {
	Min, Max float64
}

// CapacityRanges gates which demand personas a project's capacity actually
// suits, independent of the logistic capacity *score*.
var CapacityRanges = map[Type]CapacityRange{
	EdgeComputing: {Min: 0.4, Max: 5},
	Colocation:    {Min: 5, Max: 30},
	Hyperscaler:   {Min: 30, Max: 1000},
}

// CapacityParams gives the ideal capacity (MW) the logistic capacity score
// centers on, per persona, plus a "default" used outside any named persona.
type CapacityParams struct {
	MinMW, IdealMW, MaxMW float64
}

var capacityParams = map[string]CapacityParams{
	"edge_computing": {MinMW: 0.4, IdealMW: 2.0, MaxMW: 5.0},
	"colocation":     {MinMW: 5.0, IdealMW: 15.0, MaxMW: 30.0},
	"hyperscaler":    {MinMW: 30.0, IdealMW: 75.0, MaxMW: 200.0},
	"default":        {MinMW: 5.0, IdealMW: 50.0, MaxMW: 100.0},
}

// idealCapacityFor resolves a persona key to its ideal MW, falling back to
// the default band for an empty, "custom", or unrecognized persona.
func idealCapacityFor(personaKey string) float64 {
	key := strings.ToLower(personaKey)
	if key == "" || key == "custom" {
		key = "default"
	}
	params, ok := capacityParams[key]
	if !ok {
		params = capacityParams["default"]
	}
	return params.IdealMW
}

// Resolution describes how a requested persona string was interpreted.
type Resolution string

const (
	ResolutionValid     Resolution = "valid"
	ResolutionDefaulted Resolution = "defaulted"
	ResolutionInvalid   Resolution = "invalid"
)

// ResolvePowerDeveloperPersona normalizes a raw, user-supplied persona
// string: blank input defaults to greenfield, an unrecognized value falls
// back to greenfield flagged invalid, otherwise the trimmed, lowercased
// value is returned flagged valid.
func ResolvePowerDeveloperPersona(raw string) (resolved PowerDeveloperType, requested string, resolution Resolution) {
	requested = strings.TrimSpace(raw)
	normalized := strings.ToLower(requested)

	if normalized == "" {
		return Greenfield, requested, ResolutionDefaulted
	}

	switch PowerDeveloperType(normalized) {
	case Greenfield, Repower, Stranded:
		return PowerDeveloperType(normalized), requested, ResolutionValid
	default:
		return Greenfield, requested, ResolutionInvalid
	}
}

// ResolveDemandPersona normalizes a raw, user-supplied demand persona
// string the same way ResolvePowerDeveloperPersona does for the supply
// side: blank defaults to hyperscaler, an unrecognized value falls back to
// hyperscaler flagged invalid, otherwise the trimmed, lowercased value is
// returned flagged valid.
func ResolveDemandPersona(raw string) (resolved Type, requested string, resolution Resolution) {
	requested = strings.TrimSpace(raw)
	normalized := strings.ToLower(requested)

	if normalized == "" {
		return Hyperscaler, requested, ResolutionDefaulted
	}

	switch Type(normalized) {
	case Hyperscaler, Colocation, EdgeComputing:
		return Type(normalized), requested, ResolutionValid
	default:
		return Hyperscaler, requested, ResolutionInvalid
	}
}

// Project is the minimal site shape the component scorers need.
type Project struct {
	CapacityMW         float64
	DevelopmentStatus  string
	TechnologyType     string
	Latitude, Longitude float64
	CapacityFactor     *float64
}

// ComponentScores is the shared set of investment components scored for
// every persona; only Capacity varies by persona (via its ideal-capacity
// centering), the rest are persona-independent.
type ComponentScores map[string]float64

// BuildSharedComponentScores computes the six components that do not
// depend on a persona, so they can be reused across multiple persona
// evaluations of the same site (e.g. calculate_best_customer_match) without
// recomputation.
func BuildSharedComponentScores(project Project, distances map[string]float64, userMaxPriceMWh *float64) ComponentScores {
	return ComponentScores{
		"connection_speed":  scoring.ConnectionSpeedScore(project.DevelopmentStatus, distances),
		"resilience":        scoring.ResilienceScore(project.TechnologyType, distances),
		"land_planning":     scoring.DevelopmentStageScore(project.DevelopmentStatus),
		"latency":           scoring.DigitalInfrastructureScore(distances),
		"cooling":           scoring.WaterResourcesScore(distances),
		"price_sensitivity": scoring.PriceSensitivityScore(project.TechnologyType, project.Latitude, project.Longitude, project.CapacityFactor, userMaxPriceMWh),
	}
}

// BuildComponentScores completes a shared component set with the
// persona-dependent capacity score. Pass a previously computed shared set
// to avoid recomputing the persona-independent components.
func BuildComponentScores(project Project, distances map[string]float64, personaKey string, userMaxPriceMWh *float64, shared ComponentScores) ComponentScores {
	base := shared
	if len(base) == 0 {
		base = BuildSharedComponentScores(project, distances, userMaxPriceMWh)
	}
	scores := make(ComponentScores, len(base)+1)
	for k, v := range base {
		scores[k] = v
	}
	scores["capacity"] = scoring.CapacityComponentScore(project.CapacityMW, idealCapacityFor(personaKey))
	return scores
}

// ColorForScore maps a 0-100 internal score to the display color band used
// across the rating scale.
func ColorForScore(scoreOutOf100 float64) string {
	display := scoreOutOf100 / 10.0
	switch {
	case display >= 9.0:
		return "#00DD00"
	case display >= 8.0:
		return "#33FF33"
	case display >= 7.0:
		return "#7FFF00"
	case display >= 6.0:
		return "#CCFF00"
	case display >= 5.0:
		return "#FFFF00"
	case display >= 4.0:
		return "#FFCC00"
	case display >= 3.0:
		return "#FF9900"
	case display >= 2.0:
		return "#FF6600"
	case display >= 1.0:
		return "#FF3300"
	default:
		return "#CC0000"
	}
}

// DescriptionForScore maps a 0-100 internal score to its rating label.
func DescriptionForScore(scoreOutOf100 float64) string {
	display := scoreOutOf100 / 10.0
	switch {
	case display >= 9.0:
		return "Excellent"
	case display >= 8.0:
		return "Very Good"
	case display >= 7.0:
		return "Good"
	case display >= 6.0:
		return "Above Average"
	case display >= 5.0:
		return "Average"
	case display >= 4.0:
		return "Below Average"
	case display >= 3.0:
		return "Poor"
	case display >= 2.0:
		return "Very Poor"
	case display >= 1.0:
		return "Bad"
	default:
		return "Very Bad"
	}
}

func clamp01to100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WeightedScoreResult is the full persona-weighted rating of one site.
type WeightedScoreResult struct {
	InvestmentRating       float64
	RatingDescription      string
	ColorCode              string
	ComponentScores        map[string]float64
	WeightedContributions  map[string]float64
	Persona                string
	PersonaWeights         map[string]float64
	InternalTotalScore     float64
	NearestInfrastructure  map[string]float64
}

// WeightedScore aggregates a project's component scores for one demand
// persona into a final investment rating. Pass a previously built shared
// component set to skip recomputing the persona-independent half.
func WeightedScore(project Project, distances map[string]float64, persona Type, userMaxPriceMWh *float64, shared ComponentScores) WeightedScoreResult {
	return WeightedScoreForWeights(project, distances, DemandWeights[persona], string(persona), userMaxPriceMWh, shared)
}

// WeightedScoreForWeights runs the same seven-key component aggregation as
// WeightedScore, but against a caller-supplied weight map rather than a
// looked-up demand persona. This is what the supply-side power-developer
// workflow uses: it drives the identical aggregator with
// PowerDeveloperWeights or with frontend criteria translated via
// TranslateFrontendCriteria, labeling the result with its own persona name
// rather than a demand Type.
func WeightedScoreForWeights(project Project, distances map[string]float64, weights map[string]float64, label string, userMaxPriceMWh *float64, shared ComponentScores) WeightedScoreResult {
	components := BuildComponentScores(project, distances, label, userMaxPriceMWh, shared)

	var weighted float64
	contributions := make(map[string]float64, len(components))
	for key, value := range components {
		w := weights[key]
		contributions[key] = round1(value * w)
		weighted += value * w
	}

	internal := clamp01to100(weighted)

	weightsOut := make(map[string]float64, len(weights))
	for k, v := range weights {
		weightsOut[k] = v
	}
	rounded := make(map[string]float64, len(components))
	for k, v := range components {
		rounded[k] = round1(v)
	}

	return WeightedScoreResult{
		InvestmentRating:      round1(internal / 10.0),
		RatingDescription:     DescriptionForScore(internal),
		ColorCode:             ColorForScore(internal),
		ComponentScores:       rounded,
		WeightedContributions: contributions,
		Persona:               label,
		PersonaWeights:        weightsOut,
		InternalTotalScore:    round1(internal),
		NearestInfrastructure: distances,
	}
}

// CustomWeightedScore aggregates the eight investor-facing criteria (a
// different, coarser decomposition than the persona component set) under
// caller-supplied weights, used when a user builds their own weighting
// instead of picking a named persona.
func CustomWeightedScore(project Project, distances map[string]float64, customWeights map[string]float64) WeightedScoreResult {
	components := map[string]float64{
		"capacity":              scoring.CapacityComponentScore(project.CapacityMW, idealCapacityFor("")),
		"development_stage":     scoring.DevelopmentStageScore(project.DevelopmentStatus),
		"technology":            scoring.TechnologyScore(project.TechnologyType),
		"grid_infrastructure":   scoring.GridInfrastructureScore(distances),
		"digital_infrastructure": scoring.DigitalInfrastructureScore(distances),
		"water_resources":       scoring.WaterResourcesScore(distances),
		"lcoe_resource_quality": scoring.LCOEScore(project.DevelopmentStatus),
		"tnuos_transmission_costs": tnuos.Score(project.Latitude, project.Longitude),
	}

	var weighted float64
	contributions := make(map[string]float64, len(components))
	for key, value := range components {
		w := customWeights[key]
		contributions[key] = round1(value * w)
		weighted += value * w
	}

	internal := clamp01to100(weighted)

	rounded := make(map[string]float64, len(components))
	for k, v := range components {
		rounded[k] = round1(v)
	}
	weightsOut := make(map[string]float64, len(customWeights))
	for k, v := range customWeights {
		weightsOut[k] = v
	}

	return WeightedScoreResult{
		InvestmentRating:      round1(internal / 10.0),
		RatingDescription:     DescriptionForScore(internal),
		ColorCode:             ColorForScore(internal),
		ComponentScores:       rounded,
		WeightedContributions: contributions,
		Persona:               "custom",
		PersonaWeights:        weightsOut,
		InternalTotalScore:    round1(internal),
		NearestInfrastructure: distances,
	}
}

// FrontendCriteriaFieldMapping translates the data-center-analysis UI's
// criteria field names into the backend's component-score keys, so a
// user-built weighting from that surface can drive the same weighted
// aggregator as a named demand persona.
var FrontendCriteriaFieldMapping = map[string]string{
	"connection_headroom": "connection_speed",
	"route_to_market":     "price_sensitivity",
	"project_stage":       "land_planning",
	"demand_scale":        "capacity",
	"grid_infrastructure": "resilience",
	"digital_infrastructure": "latency",
	"water_resources":     "cooling",
}

// TranslateFrontendCriteria maps UI criteria field names to backend
// component keys and renormalizes the result to sum to 1.0.
func TranslateFrontendCriteria(criteria map[string]float64) map[string]float64 {
	translated := make(map[string]float64, len(criteria))
	var total float64
	for k, v := range criteria {
		key := k
		if mapped, ok := FrontendCriteriaFieldMapping[k]; ok {
			key = mapped
		}
		translated[key] += v
		total += v
	}
	if total == 0 {
		return translated
	}
	for k, v := range translated {
		translated[k] = v / total
	}
	return translated
}

func baseInvestmentScoreRenewable(project Project) float64 {
	capacity := project.CapacityMW
	status := strings.ToLower(project.DevelopmentStatus)
	tech := strings.ToLower(project.TechnologyType)

	var capacityScore float64
	switch {
	case capacity >= 200:
		capacityScore = 30.0
	case capacity >= 100:
		capacityScore = 80.0
	case capacity >= 50:
		capacityScore = 70.0
	case capacity >= 25:
		capacityScore = 90.0
	case capacity >= 10:
		capacityScore = 60.0
	case capacity >= 5:
		capacityScore = 30.0
	default:
		capacityScore = 15.0
	}

	var stageScore float64
	switch {
	case strings.Contains(status, "operational"):
		stageScore = 10.0
	case strings.Contains(status, "construction"):
		stageScore = 60.0
	case strings.Contains(status, "granted"):
		stageScore = 90.0
	case strings.Contains(status, "submitted"):
		stageScore = 80.0
	case strings.Contains(status, "planning"):
		stageScore = 70.0
	case strings.Contains(status, "pre-planning"):
		stageScore = 60.0
	default:
		stageScore = 50.0
	}

	var techScore float64
	switch {
	case strings.Contains(tech, "solar"):
		techScore = 80.0
	case strings.Contains(tech, "battery"):
		techScore = 85.0
	case strings.Contains(tech, "wind"):
		techScore = 80.0
	case strings.Contains(tech, "hybrid"):
		techScore = 100.0
	default:
		techScore = 70.0
	}

	return clamp01to100(capacityScore*0.30 + stageScore*0.50 + techScore*0.20)
}

// InfrastructureBonusFromScores reproduces calculate_infrastructure_bonus_renewable,
// which grades the legacy score against the proximity engine's own per-layer
// 0-100 scores (not the aggregated component scores above).
func InfrastructureBonusFromScores(substationScore, transmissionScore, fiberScore, ixpScore, waterScore float64) float64 {
	gridBonus := 0.0
	switch {
	case substationScore > 40:
		gridBonus += 15.0
	case substationScore > 25:
		gridBonus += 10.0
	case substationScore > 10:
		gridBonus += 5.0
	}
	switch {
	case transmissionScore > 30:
		gridBonus += 10.0
	case transmissionScore > 15:
		gridBonus += 5.0
	}
	if gridBonus > 25.0 {
		gridBonus = 25.0
	}

	digitalBonus := 0.0
	switch {
	case fiberScore > 15:
		digitalBonus += 5.0
	case fiberScore > 8:
		digitalBonus += 3.0
	}
	switch {
	case ixpScore > 8:
		digitalBonus += 5.0
	case ixpScore > 4:
		digitalBonus += 2.0
	}
	if digitalBonus > 10.0 {
		digitalBonus = 10.0
	}

	waterBonus := 0.0
	switch {
	case waterScore > 10:
		waterBonus = 5.0
	case waterScore > 5:
		waterBonus = 3.0
	case waterScore > 2:
		waterBonus = 1.0
	}

	return gridBonus + digitalBonus + waterBonus
}

// EnhancedInvestmentRating picks the persona-weighted rating when a
// persona is supplied, otherwise falls back to the legacy renewable-only
// scoring. substationScore..waterScore are the proximity engine's own
// per-layer 0-100 scores, needed only for the legacy path's bonus.
func EnhancedInvestmentRating(
	project Project,
	distances map[string]float64,
	persona *Type,
	substationScore, transmissionScore, fiberScore, ixpScore, waterScore float64,
) WeightedScoreResult {
	if persona != nil {
		return WeightedScore(project, distances, *persona, nil, nil)
	}

	base := baseInvestmentScoreRenewable(project)
	bonus := InfrastructureBonusFromScores(substationScore, transmissionScore, fiberScore, ixpScore, waterScore)
	total := clamp01to100(base + bonus)

	return WeightedScoreResult{
		InvestmentRating:      round1(total / 10.0),
		RatingDescription:     DescriptionForScore(total),
		ColorCode:             ColorForScore(total),
		ComponentScores:       map[string]float64{"base_investment_score": round1(base / 10.0), "infrastructure_bonus": round1(bonus / 10.0)},
		WeightedContributions: map[string]float64{},
		Persona:               "",
		PersonaWeights:        map[string]float64{},
		InternalTotalScore:    round1(total),
		NearestInfrastructure: distances,
	}
}

// BestCustomerMatch scores a project under every demand persona whose
// capacity range it fits (out-of-range personas are scored at a flat 2.0,
// matching the canonical penalty for an unsuitable match) and returns the
// best-fitting one.
func BestCustomerMatch(project Project, distances map[string]float64) (bestPersona Type, bestScore float64, allScores map[Type]float64, suitable []Type) {
	shared := BuildSharedComponentScores(project, distances, nil)
	allScores = make(map[Type]float64, 3)
	order := []Type{Hyperscaler, Colocation, EdgeComputing}

	for _, p := range order {
		r := CapacityRanges[p]
		if project.CapacityMW >= r.Min && project.CapacityMW <= r.Max {
			result := WeightedScore(project, distances, p, nil, shared)
			allScores[p] = result.InvestmentRating
		} else {
			allScores[p] = 2.0
		}
	}

	for _, p := range order {
		score := allScores[p]
		if bestPersona == "" || score > bestScore {
			bestPersona = p
			bestScore = score
		}
		if score >= 6.0 {
			suitable = append(suitable, p)
		}
	}

	return bestPersona, round1(bestScore), allScores, suitable
}

// FilterByPersonaCapacity keeps only the projects whose capacity falls
// within a persona's suitability band.
func FilterByPersonaCapacity(projects []Project, persona Type) []Project {
	r := CapacityRanges[persona]
	filtered := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.CapacityMW >= r.Min && p.CapacityMW <= r.Max {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// RatingDistribution buckets a set of investment ratings (0-10 display
// scale) into the nine named bands used in reporting summaries.
func RatingDistribution(ratings []float64) map[string]int {
	distribution := map[string]int{
		"excellent": 0, "very_good": 0, "good": 0, "above_average": 0,
		"average": 0, "below_average": 0, "poor": 0, "very_poor": 0, "bad": 0,
	}
	for _, rating := range ratings {
		switch {
		case rating >= 9.0:
			distribution["excellent"]++
		case rating >= 8.0:
			distribution["very_good"]++
		case rating >= 7.0:
			distribution["good"]++
		case rating >= 6.0:
			distribution["above_average"]++
		case rating >= 5.0:
			distribution["average"]++
		case rating >= 4.0:
			distribution["below_average"]++
		case rating >= 3.0:
			distribution["poor"]++
		case rating >= 2.0:
			distribution["very_poor"]++
		default:
			distribution["bad"]++
		}
	}
	return distribution
}
