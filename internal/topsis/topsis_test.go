package topsis

import "testing"

func TestCloseness_EmptyInputReturnsEmptyResult(t *testing.T) {
	result := Closeness(nil, map[string]float64{"a": 1})
	if len(result.Scores) != 0 {
		t.Errorf("expected no scores, got %v", result.Scores)
	}
}

func TestCloseness_BestVectorScoresHighest(t *testing.T) {
	weights := map[string]float64{"a": 0.5, "b": 0.5}
	vectors := []map[string]float64{
		{"a": 90, "b": 90},
		{"a": 10, "b": 10},
		{"a": 50, "b": 50},
	}
	result := Closeness(vectors, weights)
	if result.Scores[0] <= result.Scores[1] {
		t.Errorf("expected the strictly dominant vector to score higher, got %v", result.Scores)
	}
	if result.Scores[0] <= result.Scores[2] {
		t.Errorf("expected the dominant vector to beat the middle one, got %v", result.Scores)
	}
}

func TestCloseness_IdenticalVectorsStayBounded(t *testing.T) {
	weights := map[string]float64{"a": 1}
	vectors := []map[string]float64{{"a": 5}, {"a": 5}}
	result := Closeness(vectors, weights)
	for _, s := range result.Scores {
		if s < 0 || s > 1 {
			t.Errorf("expected bounded closeness for degenerate input, got %v", s)
		}
	}
}
