package pipeline

import (
	"context"
	"sort"
	"strconv"

	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/proximity"
	"github.com/infranodal/site-scoring/internal/topsis"
	"github.com/infranodal/site-scoring/internal/transform"
	"github.com/infranodal/site-scoring/internal/types"
)

// ScoringComparison is one project's rating under two different aggregation
// methods: the persona-weighted linear sum every other endpoint uses, and
// a TOPSIS closeness coefficient computed over the same component vectors
// and weights. RankDelta is the weighted-sum rank minus the TOPSIS rank;
// a large delta flags a project the two systems disagree about.
type ScoringComparison struct {
	Project         transform.Project
	WeightedRating  float64
	WeightedRank    int
	TOPSISCloseness float64
	TOPSISRank      int
	RankDelta       int
}

// CompareScoringSystems fetches and scores up to limit sites from
// collection under persona (when nil, the hyperscaler weights with the
// default capacity centering, labeled "no_persona_fallback"), then
// ranks the same component vectors a second way with TOPSIS, returning
// both rankings side by side so callers can see where the two methods
// disagree.
func (r *Runner) CompareScoringSystems(ctx context.Context, collection string, limit int, requestedPersona *persona.Type) ([]ScoringComparison, int, error) {
	if limit <= 0 {
		limit = DefaultSiteLimit
	}

	cat, err := r.Cache.Get(ctx)
	if err != nil {
		return nil, 0, types.NewStoreFetchError("infrastructure catalog", err)
	}

	rows, err := r.Store.FetchSites(ctx, collection, limit)
	if err != nil {
		return nil, 0, types.NewStoreFetchError(collection, err)
	}

	projects := make([]transform.Project, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		p := rowToProject(collection, row)
		if !p.HasCoordinates {
			dropped++
			continue
		}
		projects = append(projects, p)
	}

	batchSites := make([]proximity.BatchSite, len(projects))
	for i, p := range projects {
		batchSites[i] = proximity.BatchSite{Key: strconv.Itoa(i), Lat: p.Latitude, Lon: p.Longitude}
	}
	proximityByKey := proximity.Batch(cat, batchSites, r.Metrics)

	weights := persona.DemandWeights[persona.Hyperscaler]
	label := "no_persona_fallback"
	if requestedPersona != nil {
		weights = persona.DemandWeights[*requestedPersona]
		label = string(*requestedPersona)
	}

	comparisons := make([]ScoringComparison, 0, len(projects))
	componentVectors := make([]map[string]float64, 0, len(projects))
	for i, p := range projects {
		scores, ok := proximityByKey[strconv.Itoa(i)]
		if !ok {
			dropped++
			continue
		}
		proj := p.ToPersonaProject()
		weighted := persona.WeightedScoreForWeights(proj, scores.NearestDistancesKM, weights, label, nil, nil)
		comparisons = append(comparisons, ScoringComparison{
			Project:        p,
			WeightedRating: weighted.InvestmentRating,
		})
		componentVectors = append(componentVectors, weighted.ComponentScores)
	}

	topsisResult := topsis.Closeness(componentVectors, weights)
	for i := range comparisons {
		if i < len(topsisResult.Scores) {
			comparisons[i].TOPSISCloseness = topsisResult.Scores[i]
		}
	}

	rankByWeighted := argsortDescending(len(comparisons), func(i int) float64 { return comparisons[i].WeightedRating })
	for rank, idx := range rankByWeighted {
		comparisons[idx].WeightedRank = rank + 1
	}
	rankByTOPSIS := argsortDescending(len(comparisons), func(i int) float64 { return comparisons[i].TOPSISCloseness })
	for rank, idx := range rankByTOPSIS {
		comparisons[idx].TOPSISRank = rank + 1
	}
	for i := range comparisons {
		comparisons[i].RankDelta = comparisons[i].WeightedRank - comparisons[i].TOPSISRank
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].WeightedRating > comparisons[j].WeightedRating
	})

	r.Logger.Info("scoring system comparison complete",
		"collection", collection,
		"persona", label,
		"sites_compared", len(comparisons),
		"sites_dropped", dropped,
	)

	return comparisons, dropped, nil
}

// argsortDescending returns the indices [0, n) ordered so that value(idx)
// is descending, ties broken by original index for determinism.
func argsortDescending(n int, value func(int) float64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return value(idx[a]) > value(idx[b])
	})
	return idx
}
