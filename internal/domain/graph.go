package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Hub is a configuration table with its pre-computed usage counters.
// ConfiguredCount is how many codes the hub defines; InUseCount is how many
// of them at least one spoke row references.
type Hub struct {
	Table           string  `json:"table"`
	ConfiguredCount int     `json:"configured_count"`
	InUseCount      int     `json:"in_use_count"`
	CoveragePct     float64 `json:"coverage_pct"`
}

// Relationship is one hub→spoke edge: the transactional spoke table
// references the hub's codes through the named columns.
type Relationship struct {
	HubTable    string `json:"hub_table"`
	HubColumn   string `json:"hub_column"`
	SpokeTable  string `json:"spoke_table"`
	SpokeColumn string `json:"spoke_column"`
	Cardinality string `json:"cardinality"`
}

// RelationshipGraph is the pre-computed hub/spoke table graph for one
// project. Read-only; the engine never mutates it.
type RelationshipGraph struct {
	ProjectID     uuid.UUID      `json:"project_id"`
	Hubs          []Hub          `json:"hubs"`
	Relationships []Relationship `json:"relationships"`
}

// Hub returns the hub entry for a table.
func (g *RelationshipGraph) Hub(table string) (Hub, bool) {
	for _, h := range g.Hubs {
		if h.Table == table {
			return h, true
		}
	}
	return Hub{}, false
}

// HubsForSpoke returns every hub whose codes the given spoke table
// references, sorted ascending by coverage so the biggest gaps come first.
func (g *RelationshipGraph) HubsForSpoke(spokeTable string) []Hub {
	var hubs []Hub
	seen := make(map[string]bool)
	for _, rel := range g.Relationships {
		if rel.SpokeTable != spokeTable || seen[rel.HubTable] {
			continue
		}
		seen[rel.HubTable] = true
		if h, ok := g.Hub(rel.HubTable); ok {
			hubs = append(hubs, h)
		}
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].CoveragePct != hubs[j].CoveragePct {
			return hubs[i].CoveragePct < hubs[j].CoveragePct
		}
		return hubs[i].Table < hubs[j].Table
	})
	return hubs
}

// RelationshipFor returns the edge linking a hub to a spoke, if present.
func (g *RelationshipGraph) RelationshipFor(hubTable, spokeTable string) (Relationship, bool) {
	for _, rel := range g.Relationships {
		if rel.HubTable == hubTable && rel.SpokeTable == spokeTable {
			return rel, true
		}
	}
	return Relationship{}, false
}
