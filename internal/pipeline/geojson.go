package pipeline

import "github.com/infranodal/site-scoring/internal/persona"

// ratingScale is the bit-exact 1.0-10.0 investment rating legend every
// scoring response carries in its metadata.
var ratingScale = map[string]string{
	"9.0-10.0": "Excellent",
	"8.0-8.9":  "Very Good",
	"7.0-7.9":  "Good",
	"6.0-6.9":  "Above Average",
	"5.0-5.9":  "Average",
	"4.0-4.9":  "Below Average",
	"3.0-3.9":  "Poor",
	"2.0-2.9":  "Very Poor",
	"1.0-1.9":  "Bad",
	"<1.0":     "Very Bad",
}

// FeatureCollection is the GeoJSON envelope a scoring run renders to
// clients: one Point feature per scored site, carrying its investment
// rating and component breakdown as properties.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Metadata Metadata  `json:"metadata"`
}

// Feature is one scored site rendered as a GeoJSON Point feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry is a GeoJSON Point geometry: [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Metadata describes the run that produced a FeatureCollection, matching
// the scoring pipeline contract's {scoring_system, persona,
// project_type_resolution, source_table, total_projects_processed,
// projects_scored, processing_time_seconds, algorithm_version,
// rating_scale} shape.
type Metadata struct {
	RunID                  string             `json:"run_id"`
	ScoringSystem          string             `json:"scoring_system"`
	Persona                string             `json:"persona"`
	ProjectTypeResolution  string             `json:"project_type_resolution"`
	SourceTable            string             `json:"source_table"`
	TotalProjectsProcessed int                `json:"total_projects_processed"`
	ProjectsScored         int                `json:"projects_scored"`
	SitesDropped           int                `json:"sites_dropped"`
	ProcessingTimeSeconds  float64            `json:"processing_time_seconds"`
	AlgorithmVersion       string             `json:"algorithm_version,omitempty"`
	RatingScale            map[string]string `json:"rating_scale"`
	RatingDistribution     map[string]int    `json:"rating_distribution"`
}

// ToFeatureCollection renders a ScoreSitesResult as GeoJSON.
func (res *ScoreSitesResult) ToFeatureCollection(algorithmVersion string) FeatureCollection {
	features := make([]Feature, 0, len(res.Sites))
	for _, s := range res.Sites {
		props := map[string]interface{}{
			"site_name":              s.Project.SiteName,
			"technology_type":        s.Project.TechnologyType,
			"capacity_mw":            s.Project.CapacityMW,
			"development_status":     s.Project.DevelopmentStatusShort,
			"source_table":           s.Project.SourceTable,
			"investment_rating":      s.Result.InvestmentRating,
			"rating_description":     s.Result.RatingDescription,
			"color_code":             s.Result.ColorCode,
			"component_scores":       s.Result.ComponentScores,
			"weighted_contributions": s.Result.WeightedContributions,
			"persona":                s.Result.Persona,
			"persona_weights":        s.Result.PersonaWeights,
			"internal_total_score":   s.Result.InternalTotalScore,
			"nearest_infrastructure": s.Result.NearestInfrastructure,
		}
		if s.Zone != nil {
			props["tnuos_enriched"] = s.Zone.Enriched
			if s.Zone.Enriched {
				props["tnuos_zone_id"] = s.Zone.ZoneID
				props["tnuos_zone_name"] = s.Zone.ZoneName
				props["tnuos_tariff_pounds_per_kw"] = s.Zone.TariffPoundsPerKW
				props["tnuos_score"] = s.Zone.TNUoSScore
				props["rating_change"] = s.Zone.RatingChange
			}
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{s.Project.Longitude, s.Project.Latitude},
			},
			Properties: props,
		})
	}

	ratings := make([]float64, len(res.Sites))
	for i, s := range res.Sites {
		ratings[i] = s.Result.InvestmentRating
	}

	resolution := string(res.PersonaResolution)
	if resolution == "" {
		resolution = string(persona.ResolutionValid)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: Metadata{
			RunID:                  res.RunID,
			ScoringSystem:          res.PersonaLabel + " - 1.0-10.0 Investment Rating Scale",
			Persona:                res.PersonaLabel,
			ProjectTypeResolution:  resolution,
			SourceTable:            res.Collection,
			TotalProjectsProcessed: res.TotalProjectsFetched,
			ProjectsScored:         len(res.Sites),
			SitesDropped:           res.Dropped,
			ProcessingTimeSeconds:  res.Duration.Seconds(),
			AlgorithmVersion:       algorithmVersion,
			RatingScale:            ratingScale,
			RatingDistribution:     persona.RatingDistribution(ratings),
		},
	}
}
