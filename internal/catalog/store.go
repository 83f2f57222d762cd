package catalog

import "context"

// Collection names for the five infrastructure layers and two site tables
// the external store exposes. The store itself is an out-of-scope
// collaborator: this package only names the interface it is expected to
// satisfy.
const (
	CollectionSubstations      = "substations"
	CollectionTransmissionLines = "transmission_lines"
	CollectionFiberCables      = "fiber_cables"
	CollectionIXPs             = "internet_exchange_points"
	CollectionWaterResources   = "water_resources"
	CollectionRenewableProjects = "renewable_projects"
	CollectionTECConnections   = "tec_connections"
)

// Store is the read-only external feature/site store the catalog loader
// and pipeline orchestrator consume. Implementations are expected to page
// internally (see original_source/database.py's offset/limit pattern);
// this interface only sees the assembled record list.
type Store interface {
	// FetchCollection returns every record in the given logical collection
	// (the five infrastructure layers), as loosely-typed maps.
	FetchCollection(ctx context.Context, collection string) ([]map[string]any, error)

	// FetchSites returns up to limit records from a site collection
	// (renewable_projects or tec_connections).
	FetchSites(ctx context.Context, collection string, limit int) ([]map[string]any, error)
}
