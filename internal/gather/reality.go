package gather

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"go.uber.org/zap"
)

const maxRepairAttempts = 3

// Confidence tiers for relational truths. Caller-resolved SQL is trusted
// most, cached patterns next, freshly generated SQL least.
const (
	confidencePreResolved = 0.98
	confidenceCached      = 0.97
	confidenceGenerated   = 0.95
)

// RealityGatherer answers from the customer's actual operational data.
// Resolution order: pre-resolved SQL from the caller, then the pattern
// cache, then LLM-assisted generation with repair retries.
type RealityGatherer struct {
	exec      domain.SQLExecutor
	patterns  domain.PatternCache
	generator domain.Generator
	logger    *zap.Logger
}

func NewRealityGatherer(exec domain.SQLExecutor, patterns domain.PatternCache, generator domain.Generator, logger *zap.Logger) *RealityGatherer {
	return &RealityGatherer{
		exec:      exec,
		patterns:  patterns,
		generator: generator,
		logger:    logger,
	}
}

func (g *RealityGatherer) SourceType() domain.SourceType {
	return domain.SourceReality
}

// Gather resolves the question to SQL, executes it, and wraps the rows in
// a reality Truth. A zero-row execution still produces a Truth (the query
// is evidence that nothing matched) alongside an EmptyResultError signal.
func (g *RealityGatherer) Gather(ctx context.Context, question string, qctx domain.QuestionContext) ([]domain.Truth, error) {
	if err := g.checkQuotedTerms(question, qctx); err != nil {
		return nil, err
	}

	sql, queryClass, confidence, origin, err := g.resolveSQL(ctx, question, qctx)
	if err != nil {
		return nil, err
	}

	rows, err := g.execute(ctx, question, sql, qctx)
	if err != nil {
		return nil, err
	}

	if queryClass == "" {
		queryClass = inferQueryClass(sql, rows)
	}

	truth := domain.Truth{
		SourceType: domain.SourceReality,
		SourceName: "operational database",
		Content: domain.RelationalEvidence{
			SQL:        sql,
			QueryClass: queryClass,
			Rows:       rows,
		},
		Confidence: confidence,
		Location:   locationFor(qctx.ResolvedTable, sql),
		Metadata: map[string]any{
			"origin":    origin,
			"row_count": len(rows),
		},
	}

	g.record(ctx, question, sql, queryClass, confidence, qctx, origin, len(rows))

	if len(rows) == 0 {
		return []domain.Truth{truth}, &domain.EmptyResultError{SQL: sql, Filters: qctx.ScopeFilters}
	}
	return []domain.Truth{truth}, nil
}

// resolveSQL walks the resolution ladder.
func (g *RealityGatherer) resolveSQL(ctx context.Context, question string, qctx domain.QuestionContext) (sql, queryClass string, confidence float32, origin string, err error) {
	if qctx.ResolvedSQL != "" {
		return qctx.ResolvedSQL, qctx.QueryClass, confidencePreResolved, "pre-resolved", nil
	}

	if g.patterns != nil {
		p, lookupErr := g.patterns.Lookup(ctx, question)
		if lookupErr == nil && p != nil && p.SQL != "" {
			g.logger.Debug("pattern cache hit",
				zap.String("question", question),
				zap.Int("hit_count", p.HitCount))
			return p.SQL, p.QueryClass, confidenceCached, "pattern-cache", nil
		}
	}

	if g.generator == nil {
		return "", "", 0, "", &domain.BackendError{Op: "reality", Err: fmt.Errorf("no sql generator configured")}
	}

	sql, genErr := g.generateSQL(ctx, question, qctx)
	if genErr != nil {
		return "", "", 0, "", genErr
	}
	return sql, qctx.QueryClass, confidenceGenerated, "generated", nil
}

// generateSQL asks the generator for SQL; a first execution probe happens
// later, but generation-level garbage (non-SELECT output) is repaired here
// up to maxRepairAttempts times, each retry feeding the previous error
// back to the generator.
func (g *RealityGatherer) generateSQL(ctx context.Context, question string, qctx domain.QuestionContext) (string, error) {
	prompt := sqlPrompt(question, qctx)
	var lastErr error

	for attempt := 0; attempt <= maxRepairAttempts; attempt++ {
		if attempt > 0 {
			prompt = repairPrompt(question, qctx, lastErr)
		}

		sql, err := g.generator.Generate(ctx, prompt)
		if err != nil {
			return "", &domain.BackendError{Op: "sql generation", Err: err}
		}
		sql = strings.TrimSpace(sql)

		if err := validateGenerated(sql); err != nil {
			lastErr = err
			g.logger.Debug("generated sql rejected",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return sql, nil
	}

	return "", &domain.BackendError{Op: "sql generation", Err: fmt.Errorf("no valid sql after %d attempts: %w", maxRepairAttempts+1, lastErr)}
}

// execute runs the SQL, repairing execution errors through the generator
// when the SQL was generated in the first place. An unknown-column error
// that survives all retries becomes an UnresolvableError so the caller
// gets suggestions instead of a stack trace.
func (g *RealityGatherer) execute(ctx context.Context, question, sql string, qctx domain.QuestionContext) ([]domain.Row, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRepairAttempts; attempt++ {
		rows, err := g.exec.ExecuteSQL(ctx, sql)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if g.generator == nil {
			break
		}

		g.logger.Debug("sql execution failed, requesting repair",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		repaired, genErr := g.generator.Generate(ctx, repairPromptWithSQL(question, qctx, sql, err))
		if genErr != nil {
			break
		}
		repaired = strings.TrimSpace(repaired)
		if validateGenerated(repaired) != nil || repaired == sql {
			break
		}
		sql = repaired
	}

	if col := unknownColumnFrom(lastErr); col != "" {
		return nil, &domain.UnresolvableError{
			Terms:            []string{col},
			AvailableColumns: qctx.AvailableColumns,
		}
	}
	return nil, &domain.BackendError{Op: "sql execution", Err: lastErr}
}

// checkQuotedTerms resolves explicitly quoted terms against the known
// column vocabulary before any SQL is generated. Unknown terms abort
// early; a term matching several columns equally well is ambiguous and is
// never guessed.
func (g *RealityGatherer) checkQuotedTerms(question string, qctx domain.QuestionContext) error {
	if len(qctx.AvailableColumns) == 0 {
		return nil
	}

	const matchThreshold = 0.5
	const tieEpsilon = 0.05

	for _, term := range quotedTerms(question) {
		matches := domain.RankMatches(term, qctx.AvailableColumns, matchThreshold)
		switch {
		case len(matches) == 0:
			return &domain.UnresolvableError{
				Terms:            []string{term},
				AvailableColumns: qctx.AvailableColumns,
			}
		case len(matches) >= 2 &&
			domain.MatchScore(term, matches[0].Value)-domain.MatchScore(term, matches[1].Value) < tieEpsilon:
			return &domain.AmbiguousError{Term: term, Options: matches}
		}
	}
	return nil
}

// record appends the successful resolution to the side channel.
// Best-effort: a failure here never affects the answer.
func (g *RealityGatherer) record(ctx context.Context, question, sql, queryClass string, confidence float32, qctx domain.QuestionContext, origin string, rowCount int) {
	if g.patterns == nil || origin != "generated" || rowCount == 0 {
		return
	}
	err := g.patterns.RecordResolution(ctx, &domain.ResolutionRecord{
		ProjectID:  qctx.ProjectID,
		Question:   question,
		SQL:        sql,
		Table:      qctx.ResolvedTable,
		QueryClass: queryClass,
		Confidence: confidence,
		ResolvedAt: time.Now().UTC(),
	})
	if err != nil {
		g.logger.Warn("failed to record resolution", zap.Error(err))
	}
}

func validateGenerated(sql string) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if upper == "" {
		return fmt.Errorf("generator returned empty sql")
	}
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("generated statement is not a SELECT")
	}
	return nil
}

var quotedTermRe = regexp.MustCompile(`['"` + "`" + `]([a-zA-Z_][a-zA-Z0-9_ ]*)['"` + "`" + `]`)

func quotedTerms(question string) []string {
	var terms []string
	for _, m := range quotedTermRe.FindAllStringSubmatch(question, -1) {
		terms = append(terms, strings.TrimSpace(m[1]))
	}
	return terms
}

var unknownColumnRe = regexp.MustCompile(`column "([^"]+)" does not exist`)

func unknownColumnFrom(err error) string {
	if err == nil {
		return ""
	}
	if m := unknownColumnRe.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}

func inferQueryClass(sql string, rows []domain.Row) string {
	upper := strings.ToUpper(sql)
	if strings.Contains(upper, "COUNT(") {
		if strings.Contains(upper, "GROUP BY") {
			return domain.QueryClassBreakdown
		}
		return domain.QueryClassCount
	}
	if len(rows) == 1 && len(rows[0]) == 1 {
		for name := range rows[0] {
			if strings.Contains(strings.ToLower(name), "count") {
				return domain.QueryClassCount
			}
		}
	}
	return domain.QueryClassListing
}

func locationFor(table, sql string) string {
	if table != "" {
		return "table " + table
	}
	const maxLen = 120
	s := strings.Join(strings.Fields(sql), " ")
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return "query: " + s
}
