// Package topsis ranks sites by their distance to an ideal and
// anti-ideal solution across a weighted set of component scores
// (Technique for Order of Preference by Similarity to Ideal Solution).
package topsis

import "math"

// Result is the outcome of ranking a set of component-score vectors.
type Result struct {
	// Scores holds one closeness coefficient per input vector, in [0, 1],
	// parallel to the input slice. Higher is closer to ideal.
	Scores            []float64
	IdealSolution     map[string]float64
	AntiIdealSolution map[string]float64
}

// Closeness computes the TOPSIS closeness coefficient for every vector in
// componentScores under the given weights. All vectors must share the same
// keys; a key missing from a particular vector is treated as 0.
func Closeness(componentScores []map[string]float64, weights map[string]float64) Result {
	if len(componentScores) == 0 {
		return Result{IdealSolution: map[string]float64{}, AntiIdealSolution: map[string]float64{}}
	}

	keys := make([]string, 0, len(componentScores[0]))
	for k := range componentScores[0] {
		keys = append(keys, k)
	}

	denominators := make(map[string]float64, len(keys))
	for _, key := range keys {
		var sumSquares float64
		for _, scores := range componentScores {
			v := scores[key]
			sumSquares += v * v
		}
		denom := math.Sqrt(sumSquares)
		if denom == 0 {
			denom = 1e-9
		}
		denominators[key] = denom
	}

	weightedVectors := make([]map[string]float64, len(componentScores))
	for i, scores := range componentScores {
		weighted := make(map[string]float64, len(keys))
		for _, key := range keys {
			normalized := scores[key] / denominators[key]
			weighted[key] = normalized * weights[key]
		}
		weightedVectors[i] = weighted
	}

	ideal := make(map[string]float64, len(keys))
	antiIdeal := make(map[string]float64, len(keys))
	for _, key := range keys {
		max := weightedVectors[0][key]
		min := weightedVectors[0][key]
		for _, vector := range weightedVectors[1:] {
			v := vector[key]
			if v > max {
				max = v
			}
			if v < min {
				min = v
			}
		}
		ideal[key] = max
		antiIdeal[key] = min
	}

	scores := make([]float64, len(weightedVectors))
	for i, vector := range weightedVectors {
		var distToIdeal, distToAntiIdeal float64
		for _, key := range keys {
			dIdeal := vector[key] - ideal[key]
			dAnti := vector[key] - antiIdeal[key]
			distToIdeal += dIdeal * dIdeal
			distToAntiIdeal += dAnti * dAnti
		}
		distToIdeal = math.Sqrt(distToIdeal)
		distToAntiIdeal = math.Sqrt(distToAntiIdeal)

		denom := distToIdeal + distToAntiIdeal
		if denom == 0 {
			scores[i] = 0
			continue
		}
		scores[i] = distToAntiIdeal / denom
	}

	return Result{Scores: scores, IdealSolution: ideal, AntiIdealSolution: antiIdeal}
}
