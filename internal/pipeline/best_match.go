package pipeline

import (
	"context"
	"time"

	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/proximity"
	"github.com/infranodal/site-scoring/internal/transform"
	"github.com/infranodal/site-scoring/internal/types"
)

// BestMatch is one project's best-fit demand persona and its score under
// every demand persona; personas whose capacity range the project falls
// outside carry the flat 2.0 penalty score.
type BestMatch struct {
	Project       transform.Project
	BestPersona   persona.Type
	BestScore     float64
	ScoresByPersona map[persona.Type]float64
	Suitable      []persona.Type
}

// BestCustomerMatch scores a single site against every demand persona it is
// capacity-eligible for and returns the strongest match.
func (r *Runner) BestCustomerMatch(ctx context.Context, p transform.Project) (*BestMatch, error) {
	cat, err := r.Cache.Get(ctx)
	if err != nil {
		return nil, types.NewStoreFetchError("infrastructure catalog", err)
	}

	scores := proximity.Score(cat, p.Latitude, p.Longitude)
	proj := p.ToPersonaProject()

	bestPersona, bestScore, allScores, suitable := persona.BestCustomerMatch(proj, scores.NearestDistancesKM)

	return &BestMatch{
		Project:         p,
		BestPersona:     bestPersona,
		BestScore:       bestScore,
		ScoresByPersona: allScores,
		Suitable:        suitable,
	}, nil
}

// BestCustomerMatchBatch runs BestCustomerMatch over every row in a source
// collection, dropping rows without usable coordinates.
func (r *Runner) BestCustomerMatchBatch(ctx context.Context, collection string, limit int) ([]BestMatch, int, error) {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultSiteLimit
	}

	rows, err := r.Store.FetchSites(ctx, collection, limit)
	if err != nil {
		return nil, 0, types.NewStoreFetchError(collection, err)
	}

	cat, err := r.Cache.Get(ctx)
	if err != nil {
		return nil, 0, types.NewStoreFetchError("infrastructure catalog", err)
	}

	dropped := 0
	matches := make([]BestMatch, 0, len(rows))
	for _, row := range rows {
		p := rowToProject(collection, row)
		if !p.HasCoordinates {
			dropped++
			continue
		}
		scores := proximity.Score(cat, p.Latitude, p.Longitude)
		proj := p.ToPersonaProject()
		bestPersona, bestScore, allScores, suitable := persona.BestCustomerMatch(proj, scores.NearestDistancesKM)
		matches = append(matches, BestMatch{
			Project:         p,
			BestPersona:     bestPersona,
			BestScore:       bestScore,
			ScoresByPersona: allScores,
			Suitable:        suitable,
		})
	}

	if dropped > 0 && r.Metrics != nil {
		r.Metrics.PipelineSitesDropped.WithLabelValues("missing_coordinates").Add(float64(dropped))
	}
	if r.Metrics != nil {
		r.Metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())
	}

	return matches, dropped, nil
}
