package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PatternStore caches question→SQL mappings from prior successful
// resolutions and records new ones. Lookups are read-shared across
// concurrent questions; recording is append-only.
type PatternStore struct {
	db *pgxpool.Pool
}

func NewPatternStore(db *pgxpool.Pool) *PatternStore {
	return &PatternStore{db: db}
}

// NormalizeQuestion collapses a question to its cache key: lowercased,
// trimmed, single-spaced, no trailing punctuation.
func NormalizeQuestion(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	q = strings.TrimRight(q, "?!. ")
	return strings.Join(strings.Fields(q), " ")
}

func (s *PatternStore) Lookup(ctx context.Context, question string) (*domain.QueryPattern, error) {
	p := &domain.QueryPattern{}
	err := s.db.QueryRow(ctx,
		`UPDATE query_patterns
		 SET hit_count = hit_count + 1, last_used_at = NOW()
		 WHERE normalized_question = $1
		 RETURNING question, sql, table_name, query_class, hit_count`,
		NormalizeQuestion(question),
	).Scan(&p.Question, &p.SQL, &p.Table, &p.QueryClass, &p.HitCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pattern lookup: %w", err)
	}
	return p, nil
}

func (s *PatternStore) RecordResolution(ctx context.Context, rec *domain.ResolutionRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO resolution_log (project_id, question, normalized_question, sql, table_name, query_class, confidence, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ProjectID, rec.Question, NormalizeQuestion(rec.Question), rec.SQL, rec.Table, rec.QueryClass, rec.Confidence, rec.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("record resolution: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO query_patterns (normalized_question, question, sql, table_name, query_class, hit_count, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, 0, NOW())
		 ON CONFLICT (normalized_question) DO NOTHING`,
		NormalizeQuestion(rec.Question), rec.Question, rec.SQL, rec.Table, rec.QueryClass,
	)
	if err != nil {
		return fmt.Errorf("upsert pattern: %w", err)
	}
	return nil
}
