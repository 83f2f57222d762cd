// Package pipeline wires the catalog, proximity engine, and persona scorers
// together into the end-to-end site-scoring runs the HTTP transport exposes:
// fetch candidate sites, normalize them, batch-score their infrastructure
// proximity, weight that against a persona or custom criteria, optionally
// enrich the leaderboard with TNUoS zone costs, and return a ranked,
// GeoJSON-shaped result.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/metrics"
	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/proximity"
	"github.com/infranodal/site-scoring/internal/tnuos"
	"github.com/infranodal/site-scoring/internal/transform"
	"github.com/infranodal/site-scoring/internal/types"
)

// DefaultSiteLimit bounds how many rows a ScoreSites run pulls from a
// source collection when the caller doesn't specify one.
const DefaultSiteLimit = 500

// Runner executes scoring pipeline runs against one catalog cache and
// feature store.
type Runner struct {
	Cache   *catalog.Cache
	Store   catalog.Store
	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(cache *catalog.Cache, store catalog.Store, reg *metrics.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Cache: cache, Store: store, Metrics: reg, Logger: logger}
}

// ScoreSitesRequest parameterizes one scoring run.
type ScoreSitesRequest struct {
	// Collection is the source table to score: catalog.CollectionTECConnections
	// or catalog.CollectionRenewableProjects.
	Collection string
	Limit      int

	// Persona selects the named demand persona path. Nil falls back to the
	// legacy renewable-only scoring unless CustomWeights is set.
	Persona *persona.Type

	// PersonaResolution and RequestedPersona record how Persona was
	// derived, for the response metadata's project_type_resolution field.
	PersonaResolution persona.Resolution
	RequestedPersona  string

	// CustomWeights, when set, drives the eight-key custom weighting
	// instead of a persona or the legacy fallback.
	CustomWeights map[string]float64

	UserMaxPriceMWh *float64
	EnrichTNUoS     bool
}

// ScoredSite is one site's full scoring result, including its source
// project fields and the persona/custom weighting outcome.
type ScoredSite struct {
	Project transform.Project
	Result  persona.WeightedScoreResult
	Zone    *tnuos.RescoredFeature
}

// ScoreSitesResult is the outcome of one pipeline run.
type ScoreSitesResult struct {
	Sites    []ScoredSite
	Dropped  int
	RunID    string
	Duration time.Duration

	Collection           string
	TotalProjectsFetched int
	PersonaLabel         string
	PersonaResolution    persona.Resolution
}

// ScoreSites runs the full fetch -> transform -> proximity -> weighted-score
// -> rank -> optional top-25 enrich pipeline for one request.
func (r *Runner) ScoreSites(ctx context.Context, req ScoreSitesRequest) (*ScoreSitesResult, error) {
	runID := uuid.New().String()
	start := time.Now()
	log := r.Logger.With("run_id", runID, "component", "pipeline", "collection", req.Collection)

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSiteLimit
	}

	cat, err := r.Cache.Get(ctx)
	if err != nil {
		return nil, types.NewStoreFetchError("infrastructure catalog", err).WithRequestID(runID)
	}

	rows, err := r.Store.FetchSites(ctx, req.Collection, limit)
	if err != nil {
		return nil, types.NewStoreFetchError(req.Collection, err).WithRequestID(runID)
	}

	projects := make([]transform.Project, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		p := rowToProject(req.Collection, row)
		if !p.HasCoordinates {
			dropped++
			continue
		}
		projects = append(projects, p)
	}
	if dropped > 0 && r.Metrics != nil {
		r.Metrics.PipelineSitesDropped.WithLabelValues("missing_coordinates").Add(float64(dropped))
	}

	batchSites := make([]proximity.BatchSite, len(projects))
	for i, p := range projects {
		batchSites[i] = proximity.BatchSite{Key: strconv.Itoa(i), Lat: p.Latitude, Lon: p.Longitude}
	}
	proximityByKey := proximity.Batch(cat, batchSites, r.Metrics)

	sites := make([]ScoredSite, 0, len(projects))
	for i, p := range projects {
		scores, ok := proximityByKey[strconv.Itoa(i)]
		if !ok {
			dropped++
			continue
		}
		result := r.scoreOne(p, scores, req)
		sites = append(sites, ScoredSite{Project: p, Result: result})
	}

	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Result.InvestmentRating > sites[j].Result.InvestmentRating
	})

	if req.EnrichTNUoS {
		enrichSites(sites)
	}

	duration := time.Since(start)
	if r.Metrics != nil {
		r.Metrics.PipelineRunDuration.Observe(duration.Seconds())
	}
	log.Info("pipeline run complete",
		"sites_scored", len(sites),
		"sites_dropped", dropped,
		"duration_seconds", duration.Seconds(),
	)

	personaLabel := "no_persona_fallback"
	switch {
	case req.CustomWeights != nil:
		personaLabel = "custom_weights"
	case req.Persona != nil:
		personaLabel = string(*req.Persona)
	}

	return &ScoreSitesResult{
		Sites:                sites,
		Dropped:              dropped,
		RunID:                runID,
		Duration:             duration,
		Collection:           req.Collection,
		TotalProjectsFetched: len(rows),
		PersonaLabel:         personaLabel,
		PersonaResolution:    req.PersonaResolution,
	}, nil
}

func rowToProject(collection string, row map[string]any) transform.Project {
	if collection == catalog.CollectionRenewableProjects {
		return transform.RenewableProjectToProject(row)
	}
	return transform.TECConnectionToProject(row)
}

func (r *Runner) scoreOne(p transform.Project, scores *proximity.ScoreSet, req ScoreSitesRequest) persona.WeightedScoreResult {
	proj := p.ToPersonaProject()
	distances := scores.NearestDistancesKM

	switch {
	case req.CustomWeights != nil:
		return persona.CustomWeightedScore(proj, distances, req.CustomWeights)
	default:
		return persona.EnhancedInvestmentRating(
			proj, distances, req.Persona,
			scores.SubstationScore, scores.TransmissionScore, scores.FiberScore, scores.IXPScore, scores.WaterScore,
		)
	}
}

// enrichSites converts the ranked sites into tnuos.RescoredFeature values,
// runs the top-25 re-scoring pass, and folds the result back onto each
// ScoredSite in place. Sites are re-sorted to reflect any rating change the
// enrichment introduced within the top 25.
func enrichSites(sites []ScoredSite) {
	features := make([]*tnuos.RescoredFeature, len(sites))
	indexByFeature := make(map[*tnuos.RescoredFeature]int, len(sites))
	for i, s := range sites {
		f := &tnuos.RescoredFeature{
			SiteName:         s.Project.SiteName,
			Latitude:         s.Project.Latitude,
			Longitude:        s.Project.Longitude,
			InvestmentRating: s.Result.InvestmentRating,
			ComponentScores:  s.Result.ComponentScores,
			Weights:          s.Result.PersonaWeights,
		}
		features[i] = f
		indexByFeature[f] = i
	}

	ranked := tnuos.EnrichTop25(features)

	reordered := make([]ScoredSite, 0, len(sites))
	for _, f := range ranked {
		idx := indexByFeature[f]
		site := sites[idx]
		site.Zone = f
		if f.Enriched {
			site.Result.InvestmentRating = f.NewInvestmentRating
			site.Result.ComponentScores = f.NewComponentScores
			site.Result.WeightedContributions = f.NewWeightedContribs
			site.Result.InternalTotalScore = f.NewInternalTotalScore
			site.Result.RatingDescription = persona.DescriptionForScore(f.NewInternalTotalScore)
			site.Result.ColorCode = persona.ColorForScore(f.NewInternalTotalScore)
		}
		reordered = append(reordered, site)
	}
	copy(sites, reordered)
}
