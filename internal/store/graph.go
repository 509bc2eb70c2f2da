package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GraphStore serves the pre-computed hub/spoke relationship graph. The
// graph is rebuilt by the ingestion pipeline; the engine treats it as
// read-only.
type GraphStore struct {
	db *pgxpool.Pool
}

func NewGraphStore(db *pgxpool.Pool) *GraphStore {
	return &GraphStore{db: db}
}

func (s *GraphStore) GetRelationshipGraph(ctx context.Context, projectID uuid.UUID) (*domain.RelationshipGraph, error) {
	g := &domain.RelationshipGraph{ProjectID: projectID}

	rows, err := s.db.Query(ctx,
		`SELECT hub_table, configured_count, in_use_count, coverage_pct
		 FROM relationship_hubs
		 WHERE project_id = $1
		 ORDER BY hub_table`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query hubs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.Hub
		if err := rows.Scan(&h.Table, &h.ConfiguredCount, &h.InUseCount, &h.CoveragePct); err != nil {
			return nil, fmt.Errorf("scan hub: %w", err)
		}
		g.Hubs = append(g.Hubs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hubs: %w", err)
	}

	edgeRows, err := s.db.Query(ctx,
		`SELECT hub_table, hub_column, spoke_table, spoke_column, cardinality
		 FROM relationship_edges
		 WHERE project_id = $1
		 ORDER BY hub_table, spoke_table`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var r domain.Relationship
		if err := edgeRows.Scan(&r.HubTable, &r.HubColumn, &r.SpokeTable, &r.SpokeColumn, &r.Cardinality); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		g.Relationships = append(g.Relationships, r)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	return g, nil
}
