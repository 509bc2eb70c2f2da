package gather

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/Harshitk-cp/veritas/internal/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockExecutor struct {
	fn    func(sql string) ([]domain.Row, error)
	calls []string
}

func (m *mockExecutor) ExecuteSQL(ctx context.Context, sql string) ([]domain.Row, error) {
	m.calls = append(m.calls, sql)
	if m.fn != nil {
		return m.fn(sql)
	}
	return nil, nil
}

type mockPatterns struct {
	pattern   *domain.QueryPattern
	lookupErr error
	recorded  []*domain.ResolutionRecord
	recordErr error
}

func (m *mockPatterns) Lookup(ctx context.Context, question string) (*domain.QueryPattern, error) {
	return m.pattern, m.lookupErr
}

func (m *mockPatterns) RecordResolution(ctx context.Context, rec *domain.ResolutionRecord) error {
	m.recorded = append(m.recorded, rec)
	return m.recordErr
}

func TestRealityGatherer_PreResolvedSQL(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return []domain.Row{{"count": int64(1636)}}, nil
	}}
	gen := llm.NewMockClient()
	g := NewRealityGatherer(exec, nil, gen, zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:   uuid.New(),
		ResolvedSQL: "SELECT COUNT(*) AS count FROM payments",
		QueryClass:  domain.QueryClassCount,
	}

	truths, err := g.Gather(context.Background(), "how many payments", qctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(truths) != 1 {
		t.Fatalf("truths = %d, want 1", len(truths))
	}
	if truths[0].Confidence != confidencePreResolved {
		t.Errorf("confidence = %f, want %f", truths[0].Confidence, confidencePreResolved)
	}
	if len(gen.GenerateCalls) != 0 {
		t.Errorf("generator called %d times for pre-resolved sql, want 0", len(gen.GenerateCalls))
	}
	if truths[0].Metadata["origin"] != "pre-resolved" {
		t.Errorf("origin = %v, want pre-resolved", truths[0].Metadata["origin"])
	}
}

func TestRealityGatherer_PatternCacheHit(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return []domain.Row{{"code": "REG"}}, nil
	}}
	patterns := &mockPatterns{pattern: &domain.QueryPattern{
		Question:   "what earning codes are in use",
		SQL:        "SELECT DISTINCT code FROM payment_lines",
		QueryClass: domain.QueryClassListing,
		HitCount:   4,
	}}
	gen := llm.NewMockClient()
	g := NewRealityGatherer(exec, patterns, gen, zap.NewNop())

	truths, err := g.Gather(context.Background(), "what earning codes are in use", domain.QuestionContext{ProjectID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truths[0].Confidence != confidenceCached {
		t.Errorf("confidence = %f, want %f", truths[0].Confidence, confidenceCached)
	}
	if len(gen.GenerateCalls) != 0 {
		t.Errorf("generator called on cache hit")
	}
	if len(patterns.recorded) != 0 {
		t.Errorf("cache hit should not be re-recorded")
	}
}

func TestRealityGatherer_GeneratedSQLRecorded(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return []domain.Row{{"id": int64(1)}, {"id": int64(2)}}, nil
	}}
	patterns := &mockPatterns{}
	gen := &llm.MockClient{GenerateResponse: "SELECT id FROM workers"}
	g := NewRealityGatherer(exec, patterns, gen, zap.NewNop())

	truths, err := g.Gather(context.Background(), "list workers", domain.QuestionContext{ProjectID: uuid.New(), ResolvedTable: "workers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truths[0].Confidence != confidenceGenerated {
		t.Errorf("confidence = %f, want %f", truths[0].Confidence, confidenceGenerated)
	}
	if len(patterns.recorded) != 1 {
		t.Fatalf("recorded = %d, want 1", len(patterns.recorded))
	}
	if patterns.recorded[0].SQL != "SELECT id FROM workers" {
		t.Errorf("recorded sql = %q", patterns.recorded[0].SQL)
	}
}

func TestRealityGatherer_EmptyResultStillYieldsTruth(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return []domain.Row{}, nil
	}}
	patterns := &mockPatterns{}
	gen := &llm.MockClient{GenerateResponse: "SELECT * FROM payments WHERE state = 'HI'"}
	g := NewRealityGatherer(exec, patterns, gen, zap.NewNop())

	truths, err := g.Gather(context.Background(), "payments in Hawaii", domain.QuestionContext{
		ProjectID:    uuid.New(),
		ScopeFilters: map[string]string{"state": "HI"},
	})

	var emptyErr *domain.EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
	if emptyErr.Filters["state"] != "HI" {
		t.Errorf("filters not carried on empty result signal")
	}
	if len(truths) != 1 {
		t.Fatalf("empty result should still yield the truth, got %d", len(truths))
	}
	if truths[0].Metadata["row_count"] != 0 {
		t.Errorf("row_count = %v, want 0", truths[0].Metadata["row_count"])
	}
	if len(patterns.recorded) != 0 {
		t.Errorf("zero-row resolutions must not be cached")
	}
}

func TestRealityGatherer_RepairRetriesExecution(t *testing.T) {
	attempt := 0
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		attempt++
		if attempt == 1 {
			return nil, fmt.Errorf(`column "salry" does not exist`)
		}
		return []domain.Row{{"salary": int64(50000)}}, nil
	}}
	gen := &llm.MockClient{GenerateResponse: "SELECT salary FROM workers"}
	g := NewRealityGatherer(exec, nil, gen, zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:        uuid.New(),
		ResolvedSQL:      "SELECT salry FROM workers",
		AvailableColumns: []string{"salary", "id"},
	}
	truths, err := g.Gather(context.Background(), "worker salaries", qctx)
	if err != nil {
		t.Fatalf("unexpected error after repair: %v", err)
	}
	if len(exec.calls) != 2 {
		t.Fatalf("execute calls = %d, want 2 (original + repaired)", len(exec.calls))
	}
	ev, _ := truths[0].Relational()
	if ev.SQL != "SELECT salary FROM workers" {
		t.Errorf("truth carries sql %q, want repaired statement", ev.SQL)
	}
}

func TestRealityGatherer_UnknownColumnBecomesUnresolvable(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return nil, fmt.Errorf(`column "hourly_wage" does not exist`)
	}}
	// Generator keeps returning the same broken statement, so the repair
	// loop stops after the first unchanged repair.
	gen := &llm.MockClient{GenerateResponse: "SELECT hourly_wage FROM workers"}
	g := NewRealityGatherer(exec, nil, gen, zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:        uuid.New(),
		AvailableColumns: []string{"pay_rate", "pay_frequency", "id"},
	}
	_, err := g.Gather(context.Background(), "average hourly wage", qctx)

	var unresolvable *domain.UnresolvableError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("expected UnresolvableError, got %v", err)
	}
	if len(unresolvable.Terms) != 1 || unresolvable.Terms[0] != "hourly_wage" {
		t.Errorf("terms = %v, want [hourly_wage]", unresolvable.Terms)
	}
	if len(unresolvable.AvailableColumns) != 3 {
		t.Errorf("available columns not carried")
	}
}

func TestRealityGatherer_QuotedTermUnresolvable(t *testing.T) {
	g := NewRealityGatherer(&mockExecutor{}, nil, llm.NewMockClient(), zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:        uuid.New(),
		AvailableColumns: []string{"pay_rate", "department"},
	}
	_, err := g.Gather(context.Background(), `show me the "zorble" for each worker`, qctx)

	var unresolvable *domain.UnresolvableError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("expected UnresolvableError, got %v", err)
	}
}

func TestRealityGatherer_QuotedTermAmbiguous(t *testing.T) {
	g := NewRealityGatherer(&mockExecutor{}, nil, llm.NewMockClient(), zap.NewNop())

	// "pay" matches both columns with the same substring score.
	qctx := domain.QuestionContext{
		ProjectID:        uuid.New(),
		AvailableColumns: []string{"pay_rate", "pay_type"},
	}
	_, err := g.Gather(context.Background(), `what is the 'pay' here`, qctx)

	var ambiguous *domain.AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if ambiguous.Term != "pay" {
		t.Errorf("term = %q, want pay", ambiguous.Term)
	}
	if len(ambiguous.Options) < 2 {
		t.Errorf("ambiguity should carry its options, got %d", len(ambiguous.Options))
	}
}

func TestRealityGatherer_NoGeneratorIsBackendError(t *testing.T) {
	g := NewRealityGatherer(&mockExecutor{}, nil, nil, zap.NewNop())

	_, err := g.Gather(context.Background(), "how many workers", domain.QuestionContext{ProjectID: uuid.New()})

	var backendErr *domain.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func TestRealityGatherer_GeneratorGarbageRepaired(t *testing.T) {
	exec := &mockExecutor{fn: func(sql string) ([]domain.Row, error) {
		return []domain.Row{{"n": int64(5)}}, nil
	}}
	calls := 0
	gen := &llm.MockClient{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "Sure! Here is your data.", nil
		}
		return "SELECT COUNT(*) AS n FROM jobs", nil
	}}
	g := NewRealityGatherer(exec, nil, gen, zap.NewNop())

	truths, err := g.Gather(context.Background(), "how many jobs", domain.QuestionContext{ProjectID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("generator calls = %d, want 2 (garbage then repair)", calls)
	}
	ev, _ := truths[0].Relational()
	if ev.QueryClass != domain.QueryClassCount {
		t.Errorf("query class = %q, want count", ev.QueryClass)
	}
}

func TestInferQueryClass(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		rows []domain.Row
		want string
	}{
		{"plain count", "SELECT COUNT(*) FROM t", []domain.Row{{"count": int64(3)}}, domain.QueryClassCount},
		{"grouped count", "SELECT state, COUNT(*) FROM t GROUP BY state", nil, domain.QueryClassBreakdown},
		{"count-named column", "SELECT total_count FROM v", []domain.Row{{"total_count": int64(9)}}, domain.QueryClassCount},
		{"listing", "SELECT id, name FROM t", []domain.Row{{"id": 1, "name": "a"}}, domain.QueryClassListing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferQueryClass(tt.sql, tt.rows); got != tt.want {
				t.Errorf("inferQueryClass() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuotedTerms(t *testing.T) {
	terms := quotedTerms(`compare "pay_rate" and 'overtime hours' please`)
	if len(terms) != 2 {
		t.Fatalf("terms = %v, want 2 entries", terms)
	}
	if terms[0] != "pay_rate" || terms[1] != "overtime hours" {
		t.Errorf("terms = %v", terms)
	}
}
