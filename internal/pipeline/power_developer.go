package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/proximity"
	"github.com/infranodal/site-scoring/internal/transform"
	"github.com/infranodal/site-scoring/internal/types"
)

// AlgorithmVersion is reported alongside power-developer analysis results,
// distinguishing the workflow from the plain demand-side scoring runs.
const AlgorithmVersion = "2.2 - Power Developer Workflow"

// PowerDeveloperRequest parameterizes a supply-side project analysis: a
// project already in hand (not fetched from a collection), scored against
// either a named power-developer persona or caller-supplied frontend
// criteria weights.
type PowerDeveloperRequest struct {
	Project transform.Project

	// RequestedPersona is matched against Greenfield/Repower/Stranded; blank
	// or unrecognized falls back to Greenfield (see
	// persona.ResolvePowerDeveloperPersona).
	RequestedPersona string

	// FrontendCriteria, when non-empty, overrides RequestedPersona: its keys
	// are translated via persona.FrontendCriteriaFieldMapping and
	// renormalized, then used as the component weights directly.
	FrontendCriteria map[string]float64
}

// PowerDeveloperResult is one project's supply-side analysis outcome.
type PowerDeveloperResult struct {
	Result             persona.WeightedScoreResult
	ResolvedPersona    persona.PowerDeveloperType
	PersonaResolution  persona.Resolution
	UsedCustomCriteria bool
	AlgorithmVersion   string
}

// AnalyzePowerDeveloperProject scores a single supply-side project,
// mirroring run_power_developer_workflow: resolve the persona (or translate
// custom frontend criteria into component weights), score the project's
// infrastructure proximity against the current catalog, then weight its
// component scores.
func (r *Runner) AnalyzePowerDeveloperProject(ctx context.Context, req PowerDeveloperRequest) (*PowerDeveloperResult, error) {
	runID := uuid.New().String()
	log := r.Logger.With("run_id", runID, "component", "power_developer_workflow")

	cat, err := r.Cache.Get(ctx)
	if err != nil {
		return nil, types.NewStoreFetchError("infrastructure catalog", err).WithRequestID(runID)
	}

	p := req.Project
	scores := proximity.Score(cat, p.Latitude, p.Longitude)
	distances := scores.NearestDistancesKM
	proj := p.ToPersonaProject()

	if len(req.FrontendCriteria) > 0 {
		weights := persona.TranslateFrontendCriteria(req.FrontendCriteria)
		result := persona.WeightedScoreForWeights(proj, distances, weights, "custom", nil, nil)
		log.Info("power developer analysis complete", "mode", "custom_criteria", "rating", result.InvestmentRating)
		return &PowerDeveloperResult{
			Result:             result,
			PersonaResolution:  persona.ResolutionValid,
			UsedCustomCriteria: true,
			AlgorithmVersion:   AlgorithmVersion,
		}, nil
	}

	resolved, requested, resolution := persona.ResolvePowerDeveloperPersona(req.RequestedPersona)
	weights := persona.PowerDeveloperWeights[resolved]
	result := persona.WeightedScoreForWeights(proj, distances, weights, string(resolved), nil, nil)

	if resolution == persona.ResolutionInvalid {
		log.Warn("unrecognized power developer persona, defaulted to greenfield", "requested", requested)
	}
	log.Info("power developer analysis complete", "mode", "persona", "persona", resolved, "rating", result.InvestmentRating)

	return &PowerDeveloperResult{
		Result:            result,
		ResolvedPersona:   resolved,
		PersonaResolution: resolution,
		AlgorithmVersion:  AlgorithmVersion,
	}, nil
}

// AnalyzePowerDeveloperBatch runs the power-developer workflow over every
// row in a source collection, dropping rows without usable coordinates.
func (r *Runner) AnalyzePowerDeveloperBatch(ctx context.Context, collection string, limit int, requestedPersona string) ([]PowerDeveloperResult, int, error) {
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
	results := make([]PowerDeveloperResult, 0, len(rows))
	resolved, requested, resolution := persona.ResolvePowerDeveloperPersona(requestedPersona)
	weights := persona.PowerDeveloperWeights[resolved]

	for _, row := range rows {
		p := rowToProject(collection, row)
		if !p.HasCoordinates {
			dropped++
			continue
		}
		scores := proximity.Score(cat, p.Latitude, p.Longitude)
		proj := p.ToPersonaProject()
		result := persona.WeightedScoreForWeights(proj, scores.NearestDistancesKM, weights, string(resolved), nil, nil)
		results = append(results, PowerDeveloperResult{
			Result:            result,
			ResolvedPersona:   resolved,
			PersonaResolution: resolution,
			AlgorithmVersion:  AlgorithmVersion,
		})
	}

	if dropped > 0 && r.Metrics != nil {
		r.Metrics.PipelineSitesDropped.WithLabelValues("missing_coordinates").Add(float64(dropped))
	}
	if r.Metrics != nil {
		r.Metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())
	}
	r.Logger.Info("power developer batch analysis complete",
		"collection", collection, "persona", resolved, "requested", requested,
		"scored", len(results), "dropped", dropped,
	)

	return results, dropped, nil
}
