package transform

import "testing"

func TestTECConnectionToProject_DefaultsUntitledProject(t *testing.T) {
	row := map[string]any{
		"id":        42,
		"latitude":  51.5,
		"longitude": -0.1,
	}
	p := TECConnectionToProject(row)
	if p.SiteName != "Untitled Project" {
		t.Errorf("expected default site name, got %q", p.SiteName)
	}
	if p.DevelopmentStatusShort != "Scoping" {
		t.Errorf("expected default status 'Scoping', got %q", p.DevelopmentStatusShort)
	}
	if p.TechnologyType != "Unknown" {
		t.Errorf("expected default technology 'Unknown', got %q", p.TechnologyType)
	}
	if !p.HasCoordinates {
		t.Errorf("expected coordinates to be recognized")
	}
}

func TestTECConnectionToProject_OperatorFallsBackToCustomerName(t *testing.T) {
	row := map[string]any{"customer_name": "Acme Power"}
	p := TECConnectionToProject(row)
	if p.Operator != "Acme Power" {
		t.Errorf("expected operator to fall back to customer_name, got %q", p.Operator)
	}
}

func TestTECConnectionToProject_MissingCoordinatesFlagged(t *testing.T) {
	p := TECConnectionToProject(map[string]any{"id": 1})
	if p.HasCoordinates {
		t.Errorf("expected missing coordinates to be flagged")
	}
}

func TestRenewableProjectToProject_PrefersSiteNameOverProjectName(t *testing.T) {
	row := map[string]any{
		"site_name":    "Windy Hill",
		"project_name": "Project X",
		"latitude":     52.0,
		"longitude":    -1.0,
	}
	p := RenewableProjectToProject(row)
	if p.SiteName != "Windy Hill" {
		t.Errorf("expected site_name to win, got %q", p.SiteName)
	}
}

func TestProject_VoltageKVString(t *testing.T) {
	p := TECConnectionToProject(map[string]any{"voltage": 132})
	if p.VoltageKVString() != "132" {
		t.Errorf("expected '132', got %q", p.VoltageKVString())
	}
	p2 := TECConnectionToProject(map[string]any{})
	if p2.VoltageKVString() != "" {
		t.Errorf("expected empty string for missing voltage, got %q", p2.VoltageKVString())
	}
}
