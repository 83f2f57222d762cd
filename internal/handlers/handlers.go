// Package handlers provides the HTTP transport for the site-scoring
// service: a thin layer that validates input, invokes the pipeline runner,
// and renders its result as JSON or GeoJSON. No scoring logic lives here.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/pipeline"
	"github.com/infranodal/site-scoring/internal/transform"
	"github.com/infranodal/site-scoring/internal/types"
)

// Config holds service-level metadata surfaced in responses and logs.
type Config struct {
	Version          string
	ServiceName      string
	AlgorithmVersion string
}

// Dependencies holds everything the handlers need, injected from main.
type Dependencies struct {
	Runner *pipeline.Runner
	Cache  *catalog.Cache
	Logger *slog.Logger
	Config *Config
}

// LogRequest logs an incoming request with its operation and parameters.
func LogRequest(logger *slog.Logger, c *gin.Context, operation string, params map[string]interface{}) {
	logger.Info("handling request",
		"operation", operation,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"params", params,
		"remote_addr", c.ClientIP(),
	)
}

// LogResponse logs a completed request's outcome.
func LogResponse(logger *slog.Logger, operation string, statusCode int, params map[string]interface{}) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "request completed",
		"operation", operation,
		"status_code", statusCode,
		"params", params,
	)
}

// respondWithScoringError renders a *types.ScoringError as its own
// HTTP status and JSON envelope.
func respondWithScoringError(c *gin.Context, err *types.ScoringError) {
	requestID := c.GetString("request_id")
	c.JSON(err.HTTPStatus, types.NewErrorResponse(err, requestID).WithPath(c.Request.URL.Path).WithMethod(c.Request.Method))
}

// validateCollection restricts the source collection to the two site
// tables the pipeline accepts.
func validateCollection(raw string) (string, *types.ScoringError) {
	switch raw {
	case "", catalog.CollectionTECConnections:
		return catalog.CollectionTECConnections, nil
	case catalog.CollectionRenewableProjects:
		return catalog.CollectionRenewableProjects, nil
	default:
		return "", types.NewValidationError("collection", "must be tec_connections or renewable_projects")
	}
}

func validateLimit(raw string) (int, *types.ScoringError) {
	if raw == "" {
		return pipeline.DefaultSiteLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, types.NewValidationError("limit", "must be a positive integer")
	}
	if limit > 5000 {
		limit = 5000
	}
	return limit, nil
}

// validatePersona resolves a raw persona query parameter per §7's error
// policy: blank means "no persona" (legacy fallback scoring), while an
// unrecognized value still resolves (to hyperscaler) but is flagged
// invalid in the response metadata rather than rejected outright.
func validatePersona(raw string) (*persona.Type, persona.Resolution, *types.ScoringError) {
	if strings.TrimSpace(raw) == "" {
		return nil, "", nil
	}
	resolved, _, resolution := persona.ResolveDemandPersona(raw)
	return &resolved, resolution, nil
}

// validateWeights rejects an empty or non-positive-sum weight vector; the
// aggregator would otherwise silently divide by zero or score everything 0.
func validateWeights(weights map[string]float64) *types.ScoringError {
	if len(weights) == 0 {
		return types.NewInvalidWeightsError("at least one weight must be supplied")
	}
	var total float64
	for _, v := range weights {
		if v < 0 {
			return types.NewInvalidWeightsError("weights must be non-negative")
		}
		total += v
	}
	if total <= 0 {
		return types.NewInvalidWeightsError("weights must sum to a positive total")
	}
	return nil
}

// ScoreSitesHandler handles GET /api/v1/score/sites.
type ScoreSitesHandler struct{ deps *Dependencies }

func NewScoreSitesHandler(deps *Dependencies) *ScoreSitesHandler { return &ScoreSitesHandler{deps: deps} }

func (h *ScoreSitesHandler) HandleScoreSites(c *gin.Context) {
	params := map[string]interface{}{
		"collection": c.Query("collection"),
		"persona":    c.Query("persona"),
		"limit":      c.Query("limit"),
	}
	LogRequest(h.deps.Logger, c, "score_sites", params)

	collection, scErr := validateCollection(c.Query("collection"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	limit, scErr := validateLimit(c.Query("limit"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	personaType, resolution, scErr := validatePersona(c.Query("persona"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	enrichTNUoS := c.Query("enrich_tnuos") == "true"

	result, err := h.deps.Runner.ScoreSites(c.Request.Context(), pipeline.ScoreSitesRequest{
		Collection:        collection,
		Limit:             limit,
		Persona:           personaType,
		PersonaResolution: resolution,
		RequestedPersona:  c.Query("persona"),
		EnrichTNUoS:       enrichTNUoS,
	})
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "scoring run failed").WithCause(err))
		}
		LogResponse(h.deps.Logger, "score_sites", http.StatusInternalServerError, params)
		return
	}

	c.JSON(http.StatusOK, result.ToFeatureCollection(h.deps.Config.AlgorithmVersion))
	LogResponse(h.deps.Logger, "score_sites", http.StatusOK, params)
}

// customWeightsRequestBody is the JSON body for POST /api/v1/score/custom.
type customWeightsRequestBody struct {
	Collection string             `json:"collection"`
	Limit      int                `json:"limit"`
	Weights    map[string]float64 `json:"weights"`
}

func (h *ScoreSitesHandler) HandleScoreSitesCustomWeights(c *gin.Context) {
	var body customWeightsRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithScoringError(c, types.NewValidationError("body", err.Error()))
		return
	}
	params := map[string]interface{}{"collection": body.Collection, "weight_keys": len(body.Weights)}
	LogRequest(h.deps.Logger, c, "score_sites_custom", params)

	collection, scErr := validateCollection(body.Collection)
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	if scErr := validateWeights(body.Weights); scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	limit := body.Limit
	if limit <= 0 {
		limit = pipeline.DefaultSiteLimit
	}

	result, err := h.deps.Runner.ScoreSites(c.Request.Context(), pipeline.ScoreSitesRequest{
		Collection:    collection,
		Limit:         limit,
		CustomWeights: body.Weights,
	})
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "scoring run failed").WithCause(err))
		}
		return
	}

	c.JSON(http.StatusOK, result.ToFeatureCollection(h.deps.Config.AlgorithmVersion))
	LogResponse(h.deps.Logger, "score_sites_custom", http.StatusOK, params)
}

// PowerDeveloperHandler handles the supply-side analysis endpoints.
type PowerDeveloperHandler struct{ deps *Dependencies }

func NewPowerDeveloperHandler(deps *Dependencies) *PowerDeveloperHandler {
	return &PowerDeveloperHandler{deps: deps}
}

type powerDeveloperRequestBody struct {
	Project          map[string]any     `json:"project"`
	Persona          string             `json:"persona"`
	FrontendCriteria map[string]float64 `json:"frontend_criteria"`
}

func (h *PowerDeveloperHandler) HandleAnalyzeProject(c *gin.Context) {
	var body powerDeveloperRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithScoringError(c, types.NewValidationError("body", err.Error()))
		return
	}
	params := map[string]interface{}{"persona": body.Persona}
	LogRequest(h.deps.Logger, c, "power_developer_analysis", params)

	project := transform.RenewableProjectToProject(body.Project)
	if !project.HasCoordinates {
		respondWithScoringError(c, types.NewValidationError("project", "latitude/longitude could not be resolved from the supplied project fields"))
		return
	}

	result, err := h.deps.Runner.AnalyzePowerDeveloperProject(c.Request.Context(), pipeline.PowerDeveloperRequest{
		Project:          project,
		RequestedPersona: body.Persona,
		FrontendCriteria: body.FrontendCriteria,
	})
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "power developer analysis failed").WithCause(err))
		}
		return
	}

	c.JSON(http.StatusOK, result)
	LogResponse(h.deps.Logger, "power_developer_analysis", http.StatusOK, params)
}

func (h *PowerDeveloperHandler) HandleAnalyzeBatch(c *gin.Context) {
	collection, scErr := validateCollection(c.Query("collection"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	limit, scErr := validateLimit(c.Query("limit"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	params := map[string]interface{}{"collection": collection, "persona": c.Query("persona")}
	LogRequest(h.deps.Logger, c, "power_developer_batch", params)

	results, dropped, err := h.deps.Runner.AnalyzePowerDeveloperBatch(c.Request.Context(), collection, limit, c.Query("persona"))
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "power developer batch analysis failed").WithCause(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "dropped": dropped})
	LogResponse(h.deps.Logger, "power_developer_batch", http.StatusOK, params)
}

// BestMatchHandler handles the demand-persona best-match endpoints.
type BestMatchHandler struct{ deps *Dependencies }

func NewBestMatchHandler(deps *Dependencies) *BestMatchHandler { return &BestMatchHandler{deps: deps} }

func (h *BestMatchHandler) HandleBestMatchProject(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithScoringError(c, types.NewValidationError("body", err.Error()))
		return
	}
	project := transform.RenewableProjectToProject(body)
	if !project.HasCoordinates {
		respondWithScoringError(c, types.NewValidationError("project", "latitude/longitude could not be resolved from the supplied project fields"))
		return
	}

	match, err := h.deps.Runner.BestCustomerMatch(c.Request.Context(), project)
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "best customer match failed").WithCause(err))
		}
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *BestMatchHandler) HandleBestMatchBatch(c *gin.Context) {
	collection, scErr := validateCollection(c.Query("collection"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	limit, scErr := validateLimit(c.Query("limit"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}

	matches, dropped, err := h.deps.Runner.BestCustomerMatchBatch(c.Request.Context(), collection, limit)
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "best customer match batch failed").WithCause(err))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches, "dropped": dropped})
}

// CompareHandler handles GET /api/v1/score/compare, comparing the
// persona-weighted linear-sum rating against a TOPSIS closeness ranking
// over the same sites.
type CompareHandler struct{ deps *Dependencies }

func NewCompareHandler(deps *Dependencies) *CompareHandler { return &CompareHandler{deps: deps} }

func (h *CompareHandler) HandleCompareScoringSystems(c *gin.Context) {
	collection, scErr := validateCollection(c.Query("collection"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	limit, scErr := validateLimit(c.Query("limit"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	personaType, _, scErr := validatePersona(c.Query("persona"))
	if scErr != nil {
		respondWithScoringError(c, scErr)
		return
	}
	params := map[string]interface{}{"collection": collection, "persona": c.Query("persona")}
	LogRequest(h.deps.Logger, c, "compare_scoring_systems", params)

	comparisons, dropped, err := h.deps.Runner.CompareScoringSystems(c.Request.Context(), collection, limit, personaType)
	if err != nil {
		if scoringErr, ok := err.(*types.ScoringError); ok {
			respondWithScoringError(c, scoringErr)
		} else {
			respondWithScoringError(c, types.NewScoringError(types.ErrorCodeInternalError, "scoring system comparison failed").WithCause(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparisons": comparisons, "dropped": dropped})
	LogResponse(h.deps.Logger, "compare_scoring_systems", http.StatusOK, params)
}

// HealthHandler reports catalog freshness alongside the usual liveness check.
type HealthHandler struct{ deps *Dependencies }

func NewHealthHandler(deps *Dependencies) *HealthHandler { return &HealthHandler{deps: deps} }

func (h *HealthHandler) HandleHealthCheck(c *gin.Context) {
	status := "ok"
	catalogStatus := "not_loaded"
	if h.deps.Cache != nil {
		if cat, err := h.deps.Cache.Get(c.Request.Context()); err == nil && cat != nil {
			catalogStatus = "loaded"
		} else {
			catalogStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"service":        h.deps.Config.ServiceName,
		"version":        h.deps.Config.Version,
		"catalog_status": catalogStatus,
	})
}

// RegisterHandlers wires every route onto the Gin engine.
func RegisterHandlers(r *gin.Engine, deps *Dependencies) {
	health := NewHealthHandler(deps)
	scoreSites := NewScoreSitesHandler(deps)
	powerDeveloper := NewPowerDeveloperHandler(deps)
	bestMatch := NewBestMatchHandler(deps)
	compare := NewCompareHandler(deps)

	r.GET("/health", health.HandleHealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/score/sites", scoreSites.HandleScoreSites)
		v1.POST("/score/custom", scoreSites.HandleScoreSitesCustomWeights)
		v1.GET("/score/compare", compare.HandleCompareScoringSystems)

		v1.POST("/power-developer/analyze", powerDeveloper.HandleAnalyzeProject)
		v1.GET("/power-developer/batch", powerDeveloper.HandleAnalyzeBatch)

		v1.POST("/best-match/project", bestMatch.HandleBestMatchProject)
		v1.GET("/best-match/batch", bestMatch.HandleBestMatchBatch)
	}
}
