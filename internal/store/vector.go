package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// VectorStore is the pgvector-backed SemanticSearcher. Document chunks are
// written by the ingestion pipeline; this store only reads them.
type VectorStore struct {
	db    *pgxpool.Pool
	embed domain.EmbeddingClient
}

func NewVectorStore(db *pgxpool.Pool, embed domain.EmbeddingClient) *VectorStore {
	return &VectorStore{db: db, embed: embed}
}

func (s *VectorStore) Search(ctx context.Context, collection, query string, k int, filter map[string]string) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 5
	}

	embedding, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec := pgvector.NewVector(embedding)

	conditions := []string{"collection = $1", "embedding IS NOT NULL"}
	args := []any{collection}

	for key, value := range filter {
		conditions = append(conditions, fmt.Sprintf("metadata->>'%s' = $%d", key, len(args)+1))
		args = append(args, value)
	}

	embeddingParam := len(args) + 1
	args = append(args, vec)

	limitParam := len(args) + 1
	args = append(args, k)

	sql := fmt.Sprintf(
		`SELECT content, metadata, embedding <=> $%d AS distance
		 FROM document_chunks
		 WHERE %s
		 ORDER BY embedding <=> $%d
		 LIMIT $%d`,
		embeddingParam,
		strings.Join(conditions, " AND "),
		embeddingParam,
		limitParam,
	)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		if err := rows.Scan(&hit.Document, &hit.Metadata, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}
	return hits, nil
}
