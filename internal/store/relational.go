package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationalStore executes read-only SQL against the customer row store.
// It is the concrete SQLExecutor; the engine only ever sees the interface.
type RelationalStore struct {
	db      *pgxpool.Pool
	maxRows int
}

const defaultMaxRows = 1000

func NewRelationalStore(db *pgxpool.Pool) *RelationalStore {
	return &RelationalStore{db: db, maxRows: defaultMaxRows}
}

func (s *RelationalStore) ExecuteSQL(ctx context.Context, sql string) ([]domain.Row, error) {
	if err := checkReadOnly(sql); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("execute sql: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []domain.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(domain.Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
		if len(out) >= s.maxRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// checkReadOnly rejects anything that is not a single SELECT (or WITH ...
// SELECT) statement. Generated SQL never gets write access.
func checkReadOnly(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("empty sql statement")
	}
	if strings.Contains(strings.TrimSuffix(trimmed, ";"), ";") {
		return fmt.Errorf("multiple sql statements are not allowed")
	}
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	return nil
}
