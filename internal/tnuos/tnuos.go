// Package tnuos resolves UK Transmission Network Use of System generation
// zones from coordinates and converts zone tariffs into 0-100 investment
// scores.
package tnuos

import (
	"math"
	"sort"
)

// Zone is one TNUoS generation zone: a tariff and the bounding box used to
// resolve a coordinate to it.
type Zone struct {
	ID      string
	Name    string
	TariffPoundsPerKW float64
	MinLat, MaxLat    float64
	MinLng, MaxLng    float64
}

// Zones is the hard-coded table of the 27 GB generation zones, in the order
// they are checked. Overlapping boxes resolve to the first match.
var Zones = []Zone{
	{ID: "GZ1", Name: "North Scotland", TariffPoundsPerKW: 15.32, MinLat: 57.5, MaxLat: 61.0, MinLng: -6.0, MaxLng: -1.5},
	{ID: "GZ2", Name: "South Scotland", TariffPoundsPerKW: 14.87, MinLat: 55.0, MaxLat: 57.5, MinLng: -4.0, MaxLng: -1.5},
	{ID: "GZ3", Name: "Borders", TariffPoundsPerKW: 13.45, MinLat: 54.5, MaxLat: 56.0, MinLng: -4.0, MaxLng: -1.5},
	{ID: "GZ4", Name: "Central Scotland", TariffPoundsPerKW: 12.98, MinLat: 55.5, MaxLat: 56.5, MinLng: -5.0, MaxLng: -3.0},
	{ID: "GZ5", Name: "Argyll", TariffPoundsPerKW: 11.67, MinLat: 55.0, MaxLat: 57.0, MinLng: -6.0, MaxLng: -4.0},
	{ID: "GZ6", Name: "Dumfries", TariffPoundsPerKW: 10.34, MinLat: 54.5, MaxLat: 55.5, MinLng: -4.5, MaxLng: -2.5},
	{ID: "GZ7", Name: "Ayr", TariffPoundsPerKW: 9.87, MinLat: 54.8, MaxLat: 55.5, MinLng: -5.0, MaxLng: -3.5},
	{ID: "GZ8", Name: "Central Belt", TariffPoundsPerKW: 8.92, MinLat: 55.2, MaxLat: 56.0, MinLng: -4.5, MaxLng: -3.0},
	{ID: "GZ9", Name: "Lothian", TariffPoundsPerKW: 7.56, MinLat: 55.5, MaxLat: 56.2, MinLng: -3.5, MaxLng: -2.0},
	{ID: "GZ10", Name: "Southern Scotland", TariffPoundsPerKW: 6.23, MinLat: 54.8, MaxLat: 55.5, MinLng: -3.5, MaxLng: -1.5},
	{ID: "GZ11", Name: "North East England", TariffPoundsPerKW: 5.67, MinLat: 54.0, MaxLat: 55.5, MinLng: -3.0, MaxLng: -0.5},
	{ID: "GZ12", Name: "Yorkshire", TariffPoundsPerKW: 4.89, MinLat: 53.0, MaxLat: 54.5, MinLng: -3.0, MaxLng: -0.5},
	{ID: "GZ13", Name: "Humber", TariffPoundsPerKW: 4.12, MinLat: 52.5, MaxLat: 53.5, MinLng: -2.0, MaxLng: 0.5},
	{ID: "GZ14", Name: "North West England", TariffPoundsPerKW: 3.78, MinLat: 52.5, MaxLat: 54.5, MinLng: -3.5, MaxLng: -1.5},
	{ID: "GZ15", Name: "East Midlands", TariffPoundsPerKW: 2.95, MinLat: 51.5, MaxLat: 53.0, MinLng: -2.5, MaxLng: 0.0},
	{ID: "GZ16", Name: "West Midlands", TariffPoundsPerKW: 2.34, MinLat: 51.5, MaxLat: 52.7, MinLng: -3.0, MaxLng: -1.5},
	{ID: "GZ17", Name: "East England", TariffPoundsPerKW: 1.87, MinLat: 51.5, MaxLat: 52.5, MinLng: -0.5, MaxLng: 1.5},
	{ID: "GZ18", Name: "South Wales", TariffPoundsPerKW: 1.45, MinLat: 51.2, MaxLat: 52.0, MinLng: -3.5, MaxLng: -2.0},
	{ID: "GZ19", Name: "North Wales", TariffPoundsPerKW: 0.98, MinLat: 52.3, MaxLat: 53.5, MinLng: -3.8, MaxLng: -2.8},
	{ID: "GZ20", Name: "Pembroke", TariffPoundsPerKW: 0.67, MinLat: 51.6, MaxLat: 52.1, MinLng: -5.5, MaxLng: -4.8},
	{ID: "GZ21", Name: "South West England", TariffPoundsPerKW: -0.12, MinLat: 50.5, MaxLat: 51.5, MinLng: -4.5, MaxLng: -2.0},
	{ID: "GZ22", Name: "Cornwall", TariffPoundsPerKW: -0.45, MinLat: 49.9, MaxLat: 50.7, MinLng: -5.5, MaxLng: -4.5},
	{ID: "GZ23", Name: "London", TariffPoundsPerKW: -0.78, MinLat: 51.2, MaxLat: 51.8, MinLng: -0.5, MaxLng: 0.5},
	{ID: "GZ24", Name: "South East England", TariffPoundsPerKW: -1.23, MinLat: 50.5, MaxLat: 51.5, MinLng: -2.0, MaxLng: 1.5},
	{ID: "GZ25", Name: "Kent", TariffPoundsPerKW: -1.56, MinLat: 50.8, MaxLat: 51.5, MinLng: 0.2, MaxLng: 1.8},
	{ID: "GZ26", Name: "Southern England", TariffPoundsPerKW: -1.89, MinLat: 50.5, MaxLat: 51.2, MinLng: -2.5, MaxLng: 0.0},
	{ID: "GZ27", Name: "Solent", TariffPoundsPerKW: -2.34, MinLat: 50.6, MaxLat: 51.0, MinLng: -2.0, MaxLng: -1.0},
}

const (
	tariffFloor   = -3.0
	tariffCeiling = 16.0
)

// FindZone returns the first zone whose bounding box contains the
// coordinate, or false if none does.
func FindZone(latitude, longitude float64) (Zone, bool) {
	for _, z := range Zones {
		if z.MinLat <= latitude && latitude <= z.MaxLat && z.MinLng <= longitude && longitude <= z.MaxLng {
			return z, true
		}
	}
	return Zone{}, false
}

// ScoreFromTariff rescales a £/kW generation tariff onto a 0-100 scale,
// where a negative (demand-zone) tariff scores highest.
func ScoreFromTariff(tariffPoundsPerKW float64) float64 {
	if tariffPoundsPerKW <= tariffFloor {
		return 100.0
	}
	if tariffPoundsPerKW >= tariffCeiling {
		return 0.0
	}
	normalized := (tariffPoundsPerKW - tariffFloor) / (tariffCeiling - tariffFloor)
	return 100.0 * (1.0 - normalized)
}

// Score estimates a TNUoS investment score directly from latitude, without
// a zone lookup, using a linear proxy: tariffs rise going north and fall
// going south across Great Britain's 49.5-60.0 degree span. Used by
// price-sensitivity scoring, which needs a cheap estimate for every
// candidate rather than a full zone resolution.
func Score(latitude, longitude float64) float64 {
	latNormalized := (latitude - 49.5) / (60.0 - 49.5)
	estimatedTariff := -2.0 + (17.0 * latNormalized)
	return ScoreFromTariff(estimatedTariff)
}

const fallbackWeight = 0.1

// RescoredFeature is a scored site carrying enough of its prior scoring
// result to be re-weighted once a TNUoS zone is resolved. Pipelines
// populate it from a persona-weighted result, call EnrichTop25, and fold
// the outcome back into their own result type; this package has no
// dependency on the persona package's types to avoid an import cycle
// (persona already depends on tnuos for its price-sensitivity component).
type RescoredFeature struct {
	SiteName         string
	Latitude         float64
	Longitude        float64
	InvestmentRating float64            // 0-10 display rating, pre-enrichment
	ComponentScores  map[string]float64 // 0-100 component scores
	Weights          map[string]float64 // the weights that produced InvestmentRating

	Enriched              bool
	ZoneID                string
	ZoneName              string
	TariffPoundsPerKW     float64
	TNUoSScore            float64
	NewComponentScores    map[string]float64
	NewWeightedContribs   map[string]float64
	NewInvestmentRating   float64
	NewInternalTotalScore float64
	RatingChange          float64
}

// EnrichTop25 resolves a TNUoS zone for each of the top 25 features by
// InvestmentRating, folds a tnuos_transmission_costs component into their
// weighted score (injecting a 10% fallback weight and renormalizing if the
// original weighting didn't already carry one), and re-sorts that top 25 by
// their updated rating. Features beyond the top 25 are returned unchanged,
// flagged as not enriched, appended after the re-sorted head.
func EnrichTop25(features []*RescoredFeature) []*RescoredFeature {
	if len(features) == 0 {
		return features
	}

	sorted := make([]*RescoredFeature, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InvestmentRating > sorted[j].InvestmentRating
	})

	cut := 25
	if cut > len(sorted) {
		cut = len(sorted)
	}
	top25, remaining := sorted[:cut], sorted[cut:]

	for _, f := range top25 {
		zone, ok := FindZone(f.Latitude, f.Longitude)
		if !ok {
			f.Enriched = false
			continue
		}

		f.ZoneID = zone.ID
		f.ZoneName = zone.Name
		f.TariffPoundsPerKW = zone.TariffPoundsPerKW
		f.TNUoSScore = ScoreFromTariff(zone.TariffPoundsPerKW)

		componentScores := make(map[string]float64, len(f.ComponentScores)+1)
		for k, v := range f.ComponentScores {
			componentScores[k] = v
		}
		componentScores["tnuos_transmission_costs"] = f.TNUoSScore

		weights := make(map[string]float64, len(f.Weights)+1)
		for k, v := range f.Weights {
			weights[k] = v
		}
		if _, hasTNUoS := weights["tnuos_transmission_costs"]; !hasTNUoS {
			existingTotal := 0.0
			for _, w := range weights {
				existingTotal += w
			}
			if existingTotal == 0 {
				existingTotal = 1.0
			}
			for k, w := range weights {
				weights[k] = (w / existingTotal) * (1.0 - fallbackWeight)
			}
			weights["tnuos_transmission_costs"] = fallbackWeight
		}

		totalWeight := 0.0
		for _, w := range weights {
			totalWeight += w
		}
		if totalWeight == 0 {
			totalWeight = 1.0
		}
		if math.Abs(totalWeight-1.0) > 1e-6 {
			for k, w := range weights {
				weights[k] = w / totalWeight
			}
		}

		weightedScore := 0.0
		for key, weight := range weights {
			weightedScore += componentScores[key] * weight
		}
		weightedScore = clamp(weightedScore, 0, 100)

		oldRating := f.InvestmentRating
		newRating := math.Round(weightedScore/10.0*10) / 10

		roundedComponents := make(map[string]float64, len(componentScores))
		for k, v := range componentScores {
			roundedComponents[k] = math.Round(v*10) / 10
		}
		contributions := make(map[string]float64, len(componentScores))
		for k := range componentScores {
			contributions[k] = math.Round(componentScores[k]*weights[k]*10) / 10
		}

		f.NewComponentScores = roundedComponents
		f.NewWeightedContribs = contributions
		f.NewInvestmentRating = newRating
		f.NewInternalTotalScore = math.Round(weightedScore*10) / 10
		f.RatingChange = math.Round((newRating-oldRating)*10) / 10
		f.Enriched = true
	}

	for _, f := range remaining {
		f.Enriched = false
	}

	sort.SliceStable(top25, func(i, j int) bool {
		return effectiveRating(top25[i]) > effectiveRating(top25[j])
	})

	return append(top25, remaining...)
}

func effectiveRating(f *RescoredFeature) float64 {
	if f.Enriched {
		return f.NewInvestmentRating
	}
	return f.InvestmentRating
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
