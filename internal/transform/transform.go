// Package transform normalizes raw store rows from heterogeneous source
// tables (TEC grid connection applications, renewable project registers)
// into the single project shape the scoring pipeline operates on.
package transform

import (
	"strconv"

	"github.com/infranodal/site-scoring/internal/coords"
	"github.com/infranodal/site-scoring/internal/persona"
)

// SourceTable names the collection a project row originated from.
const (
	SourceTECConnections   = "tec_connections"
	SourceRenewableProjects = "renewable_projects"
)

// Project is the unified site shape every scorer downstream of the
// transform operates on.
type Project struct {
	ID                      string
	RefID                   string
	SiteName                string
	ProjectName             string
	CapacityMW              float64
	TechnologyType          string
	DevelopmentStatusShort  string
	DevelopmentStatus       string
	ConstraintStatus        string
	ConnectionSite          string
	SubstationName          string
	VoltageKV               *float64
	Latitude                float64
	Longitude               float64
	HasCoordinates          bool
	Country                 string
	Operator                string
	SourceTable             string
	CapacityFactor          *float64
}

func coerceFloat(v any) *float64 {
	f, ok := coords.CoerceFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func stringOr(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func stringField(row map[string]any, key string) string {
	if v, ok := row[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// TECConnectionToProject transforms a raw tec_connections row into the
// unified project schema, matching transform_tec_to_project_schema.
func TECConnectionToProject(row map[string]any) Project {
	lat, lon, hasCoords := coords.ExtractLatLon(row)

	id := stringField(row, "id")
	capacityMW := 0.0
	if f, ok := coords.CoerceFloat(row["capacity_mw"]); ok {
		capacityMW = f
	}

	projectName := stringField(row, "project_name")
	siteName := projectName
	if siteName == "" {
		siteName = "Untitled Project"
	}

	devStatus := stringField(row, "development_status")
	devStatusShort := devStatus
	if devStatusShort == "" {
		devStatusShort = "Scoping"
	}

	operator := stringField(row, "operator")
	if operator == "" {
		operator = stringField(row, "customer_name")
	}

	return Project{
		ID:                     id,
		RefID:                  id,
		SiteName:               siteName,
		ProjectName:            projectName,
		CapacityMW:             capacityMW,
		TechnologyType:         stringOr(row["technology_type"], "Unknown"),
		DevelopmentStatusShort: devStatusShort,
		DevelopmentStatus:      devStatus,
		ConstraintStatus:       stringField(row, "constraint_status"),
		ConnectionSite:         stringField(row, "connection_site"),
		SubstationName:         stringField(row, "substation_name"),
		VoltageKV:              coerceFloat(row["voltage"]),
		Latitude:               lat,
		Longitude:              lon,
		HasCoordinates:         hasCoords,
		Country:                "UK",
		Operator:               operator,
		SourceTable:            SourceTECConnections,
		CapacityFactor:         coerceFloat(row["capacity_factor"]),
	}
}

// RenewableProjectToProject passes a renewable_projects row through with
// minimal shape normalization: that collection is already close to the
// unified project schema, unlike the TEC feed.
func RenewableProjectToProject(row map[string]any) Project {
	lat, lon, hasCoords := coords.ExtractLatLon(row)

	id := stringField(row, "id")
	capacityMW := 0.0
	if f, ok := coords.CoerceFloat(row["capacity_mw"]); ok {
		capacityMW = f
	}

	siteName := stringField(row, "site_name")
	if siteName == "" {
		siteName = stringField(row, "project_name")
	}

	return Project{
		ID:                     id,
		RefID:                  id,
		SiteName:               siteName,
		ProjectName:            stringField(row, "project_name"),
		CapacityMW:             capacityMW,
		TechnologyType:         stringOr(row["technology_type"], "Unknown"),
		DevelopmentStatusShort: stringOr(row["development_status_short"], "Unknown"),
		DevelopmentStatus:      stringField(row, "development_status"),
		ConnectionSite:         stringField(row, "connection_site"),
		SubstationName:         stringField(row, "substation_name"),
		VoltageKV:              coerceFloat(row["voltage_kv"]),
		Latitude:               lat,
		Longitude:              lon,
		HasCoordinates:         hasCoords,
		Country:                stringOr(row["country"], "UK"),
		Operator:               stringField(row, "operator"),
		SourceTable:            SourceRenewableProjects,
		CapacityFactor:         coerceFloat(row["capacity_factor"]),
	}
}

// ToPersonaProject narrows a Project down to the fields the persona
// component scorers actually read.
func (p Project) ToPersonaProject() persona.Project {
	return persona.Project{
		CapacityMW:        p.CapacityMW,
		DevelopmentStatus: p.DevelopmentStatusShort,
		TechnologyType:    p.TechnologyType,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		CapacityFactor:    p.CapacityFactor,
	}
}

// VoltageKVString renders the voltage for display, or "" when unknown.
func (p Project) VoltageKVString() string {
	if p.VoltageKV == nil {
		return ""
	}
	return strconv.FormatFloat(*p.VoltageKV, 'f', -1, 64)
}
