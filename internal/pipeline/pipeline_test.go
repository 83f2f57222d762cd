package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/persona"
	"github.com/infranodal/site-scoring/internal/transform"
)

type fakeStore struct {
	collections map[string][]map[string]any
	sites       map[string][]map[string]any
}

func (f *fakeStore) FetchCollection(ctx context.Context, collection string) ([]map[string]any, error) {
	return f.collections[collection], nil
}

func (f *fakeStore) FetchSites(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	rows := f.sites[collection]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func newTestRunner(store *fakeStore) *Runner {
	cache := catalog.NewCache(store, time.Hour, 0.5, nil, nil)
	return NewRunner(cache, store, nil, nil)
}

func londonSubstation() map[string]any {
	return map[string]any{"latitude": 51.5, "longitude": -0.1}
}

func TestScoreSites_DropsSitesMissingCoordinates(t *testing.T) {
	store := &fakeStore{
		collections: map[string][]map[string]any{
			catalog.CollectionSubstations: {londonSubstation()},
		},
		sites: map[string][]map[string]any{
			catalog.CollectionTECConnections: {
				{"id": "1", "project_name": "Good Site", "latitude": 51.5, "longitude": -0.12, "capacity_mw": 50.0, "technology_type": "solar"},
				{"id": "2", "project_name": "No Coords"},
			},
		},
	}

	runner := newTestRunner(store)
	result, err := runner.ScoreSites(context.Background(), ScoreSitesRequest{Collection: catalog.CollectionTECConnections})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sites) != 1 {
		t.Fatalf("expected 1 scored site, got %d", len(result.Sites))
	}
	if result.Dropped != 1 {
		t.Errorf("expected 1 dropped site, got %d", result.Dropped)
	}
}

func TestScoreSites_RanksDescendingByInvestmentRating(t *testing.T) {
	store := &fakeStore{
		sites: map[string][]map[string]any{
			catalog.CollectionTECConnections: {
				{"id": "low", "project_name": "Low", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 1.0, "technology_type": "wind", "development_status": "abandoned"},
				{"id": "high", "project_name": "High", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 75.0, "technology_type": "hybrid", "development_status": "operational"},
			},
		},
	}

	runner := newTestRunner(store)
	result, err := runner.ScoreSites(context.Background(), ScoreSitesRequest{Collection: catalog.CollectionTECConnections})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sites) != 2 {
		t.Fatalf("expected 2 scored sites, got %d", len(result.Sites))
	}
	if result.Sites[0].Result.InvestmentRating < result.Sites[1].Result.InvestmentRating {
		t.Errorf("expected descending rating order, got %v then %v",
			result.Sites[0].Result.InvestmentRating, result.Sites[1].Result.InvestmentRating)
	}
}

func TestScoreSites_PersonaRequestUsesPersonaWeighting(t *testing.T) {
	store := &fakeStore{
		sites: map[string][]map[string]any{
			catalog.CollectionTECConnections: {
				{"id": "1", "project_name": "Site", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 10.0, "technology_type": "solar"},
			},
		},
	}

	runner := newTestRunner(store)
	p := persona.Colocation
	result, err := runner.ScoreSites(context.Background(), ScoreSitesRequest{Collection: catalog.CollectionTECConnections, Persona: &p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sites[0].Result.Persona != string(persona.Colocation) {
		t.Errorf("expected colocation persona label, got %q", result.Sites[0].Result.Persona)
	}
}

func TestScoreSites_EnrichTNUoSFoldsInZoneComponent(t *testing.T) {
	store := &fakeStore{
		sites: map[string][]map[string]any{
			catalog.CollectionTECConnections: {
				{"id": "1", "project_name": "Site", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 10.0, "technology_type": "solar"},
			},
		},
	}

	runner := newTestRunner(store)
	result, err := runner.ScoreSites(context.Background(), ScoreSitesRequest{Collection: catalog.CollectionTECConnections, EnrichTNUoS: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sites[0].Zone == nil || !result.Sites[0].Zone.Enriched {
		t.Fatalf("expected the site to be TNUoS-enriched")
	}
	if _, ok := result.Sites[0].Result.ComponentScores["tnuos_transmission_costs"]; !ok {
		t.Errorf("expected tnuos_transmission_costs folded into component scores")
	}
}

func TestAnalyzePowerDeveloperProject_DefaultsToGreenfield(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(store)

	result, err := runner.AnalyzePowerDeveloperProject(context.Background(), PowerDeveloperRequest{
		Project: transformProjectFixture(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ResolvedPersona != persona.Greenfield {
		t.Errorf("expected greenfield default, got %v", result.ResolvedPersona)
	}
	if result.PersonaResolution != persona.ResolutionDefaulted {
		t.Errorf("expected defaulted resolution, got %v", result.PersonaResolution)
	}
}

func TestAnalyzePowerDeveloperProject_CustomCriteriaOverridesPersona(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(store)

	result, err := runner.AnalyzePowerDeveloperProject(context.Background(), PowerDeveloperRequest{
		Project:          transformProjectFixture(),
		RequestedPersona: "repower",
		FrontendCriteria: map[string]float64{"connection_headroom": 0.5, "demand_scale": 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.UsedCustomCriteria {
		t.Errorf("expected custom criteria to be used over the requested persona")
	}
	if result.Result.Persona != "custom" {
		t.Errorf("expected persona label 'custom', got %q", result.Result.Persona)
	}
}

func TestBestCustomerMatch_ReturnsSuitablePersonas(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(store)

	match, err := runner.BestCustomerMatch(context.Background(), transformProjectFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(match.ScoresByPersona) != 3 {
		t.Errorf("expected all 3 demand personas scored, got %d", len(match.ScoresByPersona))
	}
}

func TestCompareScoringSystems_RanksBothSystemsForEverySite(t *testing.T) {
	store := &fakeStore{
		sites: map[string][]map[string]any{
			catalog.CollectionTECConnections: {
				{"id": "low", "project_name": "Low", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 1.0, "technology_type": "wind", "development_status": "abandoned"},
				{"id": "high", "project_name": "High", "latitude": 51.5, "longitude": -0.1, "capacity_mw": 75.0, "technology_type": "hybrid", "development_status": "operational"},
			},
		},
	}

	runner := newTestRunner(store)
	comparisons, dropped, err := runner.CompareScoringSystems(context.Background(), catalog.CollectionTECConnections, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 0 {
		t.Errorf("expected no drops, got %d", dropped)
	}
	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}
	for _, c := range comparisons {
		if c.WeightedRank == 0 || c.TOPSISRank == 0 {
			t.Errorf("expected both ranks populated for %q, got weighted=%d topsis=%d", c.Project.SiteName, c.WeightedRank, c.TOPSISRank)
		}
	}
}

func transformProjectFixture() transform.Project {
	return transform.Project{
		SiteName:               "Fixture Site",
		CapacityMW:             60.0,
		TechnologyType:         "hybrid",
		DevelopmentStatusShort: "consented",
		Latitude:               51.5,
		Longitude:              -0.1,
		HasCoordinates:         true,
	}
}
