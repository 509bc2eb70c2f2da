package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SQLExecutor runs a read-only SQL statement against the customer's row
// store and returns the materialized rows.
type SQLExecutor interface {
	ExecuteSQL(ctx context.Context, sql string) ([]Row, error)
}

// SearchHit is one semantic search result.
type SearchHit struct {
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float32        `json:"distance"`
}

// SemanticSearcher runs a vector similarity search over a named document
// collection. filter narrows by metadata equality (e.g. project scoping).
type SemanticSearcher interface {
	Search(ctx context.Context, collection, query string, k int, filter map[string]string) ([]SearchHit, error)
}

// Document collections the semantic gatherers query. Intent is the only
// project-scoped one.
const (
	CollectionIntent     = "intent_documents"
	CollectionReference  = "reference_documents"
	CollectionRegulatory = "regulatory_documents"
	CollectionCompliance = "compliance_documents"
)

// EmbeddingClient converts query text into a vector for semantic search.
// Document-side embedding happens in the ingestion pipeline, outside this
// engine.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is the opaque generative capability: one prompt in, one text
// out. Provider selection and failover live behind this interface.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GraphProvider serves the pre-computed relationship graph for a project.
type GraphProvider interface {
	GetRelationshipGraph(ctx context.Context, projectID uuid.UUID) (*RelationshipGraph, error)
}

// QueryPattern is a cached question→SQL mapping from prior successful
// resolutions.
type QueryPattern struct {
	Question   string  `json:"question"`
	SQL        string  `json:"sql"`
	Table      string  `json:"table"`
	QueryClass string  `json:"query_class"`
	HitCount   int     `json:"hit_count"`
}

// ResolutionRecord is the append-only record of one successful resolution.
type ResolutionRecord struct {
	ProjectID  uuid.UUID `json:"project_id"`
	Question   string    `json:"question"`
	SQL        string    `json:"sql"`
	Table      string    `json:"table"`
	QueryClass string    `json:"query_class"`
	Confidence float32   `json:"confidence"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// PatternCache looks up cached query patterns and records successful
// resolutions. Reads are shared across concurrent questions; recording is
// best-effort and never blocks resolution.
type PatternCache interface {
	Lookup(ctx context.Context, question string) (*QueryPattern, error)
	RecordResolution(ctx context.Context, rec *ResolutionRecord) error
}
