package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultOverlayTimeout = 20 * time.Second

	// minOverlayLength is the floor below which an overlay response is
	// considered degenerate and rejected.
	minOverlayLength = 80
)

// Synthesizer turns a gathered truth context into a final answer. The
// template path is deterministic and always runs; the LLM overlay is an
// optional rephrasing that is accepted whole or discarded whole. A missing
// or failing overlay never degrades the answer below the template.
type Synthesizer struct {
	generator      domain.Generator
	overlayTimeout time.Duration
	logger         *zap.Logger
}

func NewSynthesizer(generator domain.Generator, overlayTimeout time.Duration, logger *zap.Logger) *Synthesizer {
	if overlayTimeout <= 0 {
		overlayTimeout = DefaultOverlayTimeout
	}
	return &Synthesizer{
		generator:      generator,
		overlayTimeout: overlayTimeout,
		logger:         logger,
	}
}

// Synthesize builds the answer for a fully gathered context. Gaps are read
// from tc; insights are attached as given.
func (s *Synthesizer) Synthesize(ctx context.Context, tc *domain.TruthContext, primary PrimarySource, insights []domain.Insight) *domain.SynthesizedAnswer {
	reasoning := []string{primary.Reason, gatherTrace(tc)}

	answer := &domain.SynthesizedAnswer{
		Question:         tc.Question,
		Truths:           tc.Truths,
		Gaps:             tc.Gaps,
		Insights:         insights,
		StructuredOutput: structuredOutput(tc),
		ExecutedSQL:      tc.ExecutedSQL(),
	}

	template := s.buildTemplate(tc, primary)
	answer.Answer = template
	reasoning = append(reasoning, "template answer built")

	confidence, confTrace := AnswerConfidence(tc)
	answer.Confidence = confidence
	reasoning = append(reasoning, confTrace)

	if s.generator == nil {
		answer.Reasoning = append(reasoning, "overlay skipped: no generator configured")
		return answer
	}
	if !primaryHasData(tc, primary) {
		answer.Reasoning = append(reasoning, "overlay skipped: primary source is empty")
		return answer
	}

	reasoning = append(reasoning, "overlay requested")
	overlay, err := s.requestOverlay(ctx, tc, primary, template)
	switch {
	case err != nil:
		reasoning = append(reasoning, "overlay rejected: "+overlayFailure(err))
	case !s.validOverlay(overlay):
		reasoning = append(reasoning, "overlay rejected: response failed validation")
	default:
		answer.Answer = overlay
		reasoning = append(reasoning, "overlay accepted")
	}

	answer.Reasoning = reasoning
	return answer
}

// AnswerConfidence computes the additive confidence score: 0.5 base, +0.2
// when reality contributed, +0.1 for intent, +0.05 for each of
// configuration, reference, regulatory and compliance, capped at 0.95.
// Returns the score and a trace line describing the contributions.
func AnswerConfidence(tc *domain.TruthContext) (float32, string) {
	confidence := float32(0.5)
	parts := []string{"base 0.5"}

	add := func(st domain.SourceType, weight float32) {
		if len(tc.BySource(st)) > 0 {
			confidence += weight
			parts = append(parts, fmt.Sprintf("%s +%.2f", st, weight))
		}
	}

	add(domain.SourceReality, 0.2)
	add(domain.SourceIntent, 0.1)
	add(domain.SourceConfiguration, 0.05)
	add(domain.SourceReference, 0.05)
	add(domain.SourceRegulatory, 0.05)
	add(domain.SourceCompliance, 0.05)

	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence, "confidence: " + strings.Join(parts, ", ")
}

func (s *Synthesizer) buildTemplate(tc *domain.TruthContext, primary PrimarySource) string {
	var sb strings.Builder

	switch primary.SourceType {
	case domain.SourceConfiguration:
		sb.WriteString(configurationListing(tc))
	default:
		sb.WriteString(realityAnswer(tc))
	}

	if section := gapSection(tc.Gaps); section != "" {
		sb.WriteString("\n\n")
		sb.WriteString(section)
	}
	return sb.String()
}

// realityAnswer renders the relational evidence by query class.
func realityAnswer(tc *domain.TruthContext) string {
	truths := tc.BySource(domain.SourceReality)
	if len(truths) == 0 || tc.RealityRowCount() == 0 {
		return "No data found for this question."
	}

	ev, _ := truths[0].Relational()
	switch ev.QueryClass {
	case domain.QueryClassCount:
		if n, ok := singleCount(ev.Rows); ok {
			return fmt.Sprintf("There are %s matching records.", FormatCount(n))
		}
	case domain.QueryClassBreakdown:
		return breakdownListing(ev.Rows)
	case domain.QueryClassDetail:
		if len(ev.Rows) > 0 {
			return "Record details:\n" + rowLines(ev.Rows[:1])
		}
	}
	return fmt.Sprintf("Found %s matching records.\n%s",
		FormatCount(int64(ev.RowCount())), rowLines(firstN(ev.Rows, 10)))
}

// configurationListing renders coverage evidence grouped per hub table.
func configurationListing(tc *domain.TruthContext) string {
	truths := tc.BySource(domain.SourceConfiguration)
	var sb strings.Builder
	sb.WriteString("Based on configuration:\n")
	for _, t := range truths {
		cov, ok := t.Coverage()
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s defines %d %s codes (%d in use, %.0f%% coverage)\n",
			cov.HubTable, cov.ConfiguredCount, EntityForTable(cov.HubTable),
			cov.InUseCount, cov.CoveragePct)
	}
	sb.WriteString("\nNote: no matching activity was observed; this reflects setup, not usage.")
	return sb.String()
}

func gapSection(gaps []domain.Gap) string {
	if len(gaps) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Configuration Gaps:\n")
	for _, g := range gaps {
		fmt.Fprintf(&sb, "- [%s] %s\n", g.Severity, g.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// primaryHasData reports whether the selected primary source carries any
// evidence worth rephrasing. No data means the template stands on its own.
func primaryHasData(tc *domain.TruthContext, primary PrimarySource) bool {
	if primary.SourceType == domain.SourceConfiguration {
		return len(tc.BySource(domain.SourceConfiguration)) > 0
	}
	return tc.RealityRowCount() > 0
}

const overlayPromptTemplate = `Rewrite the answer below into clear prose for a payroll analyst.

Rules:
- Use ONLY the facts given. Do not introduce numbers or names not present.
- Bold the key figures with **markers**.
- Keep every number exactly as written.
- If configuration gaps are listed, keep them as a distinct section.

Question: %s

Verified answer:
%s
%s%s%s%s`

func (s *Synthesizer) requestOverlay(ctx context.Context, tc *domain.TruthContext, primary PrimarySource, template string) (string, error) {
	octx, cancel := context.WithTimeout(ctx, s.overlayTimeout)
	defer cancel()

	entityBlock := EntityContext(EntityMentions(tc.Question))
	if entityBlock != "" {
		entityBlock = "\n" + entityBlock + "\n"
	}
	prompt := fmt.Sprintf(overlayPromptTemplate,
		tc.Question, template, dimensionBlock(tc, primary), documentContext(tc), entityBlock, "\n"+DomainRules())
	out, err := s.generator.Generate(octx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// dimensionBlock renders the reality rows behind count and breakdown
// answers so the overlay can mention how the total splits up.
// Configuration-listing prompts never carry rows: the coverage summary in
// the template is already the whole story, and raw rows would tempt the
// model into usage claims a setup answer must not make.
func dimensionBlock(tc *domain.TruthContext, primary PrimarySource) string {
	if primary.SourceType == domain.SourceConfiguration {
		return ""
	}
	truths := tc.BySource(domain.SourceReality)
	if len(truths) == 0 {
		return ""
	}
	ev, ok := truths[0].Relational()
	if !ok || len(ev.Rows) == 0 {
		return ""
	}
	switch ev.QueryClass {
	case domain.QueryClassCount, domain.QueryClassBreakdown:
		return "\nDimensional data:\n" + rowLines(firstN(ev.Rows, 10))
	}
	return ""
}

// documentContext renders the best document excerpt per search source so the
// overlay can weave verified context in. Nothing outside the truth context
// reaches the prompt.
func documentContext(tc *domain.TruthContext) string {
	var sb strings.Builder
	for _, st := range []domain.SourceType{domain.SourceIntent, domain.SourceReference, domain.SourceRegulatory, domain.SourceCompliance} {
		truths := tc.BySource(st)
		if len(truths) == 0 {
			continue
		}
		if doc, ok := truths[0].Document(); ok {
			fmt.Fprintf(&sb, "\n%s context: %s\n", st, doc.Excerpt)
		}
	}
	return sb.String()
}

// validOverlay enforces the all-or-nothing acceptance rule: a usable overlay
// is substantial and carries the bold markers the prompt demands.
func (s *Synthesizer) validOverlay(overlay string) bool {
	if len(overlay) < minOverlayLength {
		return false
	}
	return strings.Contains(overlay, "**")
}

func overlayFailure(err error) string {
	if strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
		return "timeout"
	}
	return err.Error()
}

func gatherTrace(tc *domain.TruthContext) string {
	parts := make([]string, 0, len(domain.AllSourceTypes))
	for _, st := range domain.AllSourceTypes {
		parts = append(parts, fmt.Sprintf("%s=%d", st, len(tc.BySource(st))))
	}
	return "gathered: " + strings.Join(parts, " ")
}

func structuredOutput(tc *domain.TruthContext) map[string]any {
	out := map[string]any{
		"reality_rows": tc.RealityRowCount(),
		"total_truths": tc.TotalTruths(),
	}
	if truths := tc.BySource(domain.SourceReality); len(truths) > 0 {
		if ev, ok := truths[0].Relational(); ok {
			out["query_class"] = ev.QueryClass
			if len(ev.Rows) > 0 {
				out["rows"] = firstN(ev.Rows, 50)
			}
		}
	}
	if truths := tc.BySource(domain.SourceConfiguration); len(truths) > 0 {
		coverage := make([]domain.CoverageEvidence, 0, len(truths))
		for _, t := range truths {
			if cov, ok := t.Coverage(); ok {
				coverage = append(coverage, cov)
			}
		}
		out["coverage"] = coverage
	}
	return out
}

// singleCount extracts the count from a one-row aggregate result.
func singleCount(rows []domain.Row) (int64, bool) {
	if len(rows) != 1 {
		return 0, false
	}
	for _, v := range rows[0] {
		if n, ok := asInt64(v); ok {
			return n, true
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// FormatCount renders an integer with thousands separators, 1636 -> "1,636".
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

func breakdownListing(rows []domain.Row) string {
	var sb strings.Builder
	sb.WriteString("Breakdown:\n")
	sb.WriteString(rowLines(firstN(rows, 25)))
	return strings.TrimRight(sb.String(), "\n")
}

func rowLines(rows []domain.Row) string {
	var sb strings.Builder
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %v", k, row[k]))
		}
		sb.WriteString("- " + strings.Join(pairs, ", ") + "\n")
	}
	return sb.String()
}

func firstN(rows []domain.Row, n int) []domain.Row {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
