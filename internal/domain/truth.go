package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SourceType identifies which of the five knowledge domains a Truth was
// gathered from. Reality and configuration both come from relational data;
// the remaining types come from document search.
type SourceType string

const (
	SourceReality       SourceType = "reality"
	SourceIntent        SourceType = "intent"
	SourceConfiguration SourceType = "configuration"
	SourceReference     SourceType = "reference"
	SourceRegulatory    SourceType = "regulatory"
	SourceCompliance    SourceType = "compliance"
)

// AllSourceTypes lists every source type in gather order.
var AllSourceTypes = []SourceType{
	SourceReality,
	SourceIntent,
	SourceConfiguration,
	SourceReference,
	SourceRegulatory,
	SourceCompliance,
}

func ValidSourceType(s string) bool {
	switch SourceType(s) {
	case SourceReality, SourceIntent, SourceConfiguration, SourceReference, SourceRegulatory, SourceCompliance:
		return true
	}
	return false
}

// Row is a single relational result row, column name to value.
type Row map[string]any

// QueryClass describes the shape of a relational query's result.
const (
	QueryClassCount     = "count"
	QueryClassListing   = "listing"
	QueryClassBreakdown = "breakdown"
	QueryClassDetail    = "detail"
)

// RelationalEvidence is the content payload of a reality Truth: the SQL
// that was executed and the rows it returned.
type RelationalEvidence struct {
	SQL        string `json:"sql"`
	QueryClass string `json:"query_class"`
	Rows       []Row  `json:"rows"`
}

func (e RelationalEvidence) RowCount() int { return len(e.Rows) }

// DocumentEvidence is the content payload of a search-derived Truth.
type DocumentEvidence struct {
	Excerpt  string   `json:"excerpt"`
	Tags     []string `json:"tags,omitempty"`
	Distance float32  `json:"distance"`
}

// CoverageEvidence is the content payload of a configuration Truth: one hub
// table related to the question's spoke table, with its pre-computed usage
// counters.
type CoverageEvidence struct {
	HubTable        string  `json:"hub_table"`
	SpokeTable      string  `json:"spoke_table"`
	ConfiguredCount int     `json:"configured_count"`
	InUseCount      int     `json:"in_use_count"`
	CoveragePct     float64 `json:"coverage_pct"`
}

func (e CoverageEvidence) UnusedCount() int {
	unused := e.ConfiguredCount - e.InUseCount
	if unused < 0 {
		return 0
	}
	return unused
}

// Truth is a single evidentiary fact with provenance. Every Truth traces to
// exactly one adapter call; nothing is synthesized without an underlying
// query.
type Truth struct {
	SourceType SourceType     `json:"source_type"`
	SourceName string         `json:"source_name"`
	Content    any            `json:"content"`
	Confidence float32        `json:"confidence"`
	Location   string         `json:"location"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Relational returns the relational payload when this Truth carries one.
func (t Truth) Relational() (RelationalEvidence, bool) {
	e, ok := t.Content.(RelationalEvidence)
	return e, ok
}

// Document returns the document payload when this Truth carries one.
func (t Truth) Document() (DocumentEvidence, bool) {
	e, ok := t.Content.(DocumentEvidence)
	return e, ok
}

// Coverage returns the coverage payload when this Truth carries one.
func (t Truth) Coverage() (CoverageEvidence, bool) {
	e, ok := t.Content.(CoverageEvidence)
	return e, ok
}

// SearchConfidence converts a vector distance into a Truth confidence.
// Floored at 0.5: a search hit that made the cut is never reported as
// less likely than a coin flip.
func SearchConfidence(distance float32) float32 {
	c := 1 - distance/2
	if c < 0.5 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}

// QuestionContext carries the caller-supplied scope for one question:
// the project, any pre-resolved SQL or table from an upstream resolver,
// known filters, and the column vocabulary of the resolved table. The
// assembler attaches the relationship graph before fan-out.
type QuestionContext struct {
	ProjectID        uuid.UUID         `json:"project_id"`
	ResolvedSQL      string            `json:"resolved_sql,omitempty"`
	ResolvedTable    string            `json:"resolved_table,omitempty"`
	QueryClass       string            `json:"query_class,omitempty"`
	ScopeFilters     map[string]string `json:"scope_filters,omitempty"`
	AvailableColumns []string          `json:"available_columns,omitempty"`
	Graph            *RelationshipGraph `json:"-"`
}

// TruthContext is the per-question aggregate of everything the gatherers
// found. It is created for one question and discarded after synthesis;
// there is no cross-question memory.
type TruthContext struct {
	Question   string
	ProjectID  uuid.UUID
	Truths     map[SourceType][]Truth
	Gaps       []Gap
	Graph      *RelationshipGraph
	Vocabulary map[string][]string
}

func NewTruthContext(question string, projectID uuid.UUID) *TruthContext {
	return &TruthContext{
		Question:  question,
		ProjectID: projectID,
		Truths:    make(map[SourceType][]Truth),
	}
}

func (tc *TruthContext) Add(truths ...Truth) {
	for _, t := range truths {
		tc.Truths[t.SourceType] = append(tc.Truths[t.SourceType], t)
	}
}

// BySource returns the truths gathered for one source type. A nil slice is
// normal and valid; absence of one truth type never blocks the others.
func (tc *TruthContext) BySource(st SourceType) []Truth {
	return tc.Truths[st]
}

// RealityRowCount returns the total rows across all reality truths.
func (tc *TruthContext) RealityRowCount() int {
	var n int
	for _, t := range tc.Truths[SourceReality] {
		if e, ok := t.Relational(); ok {
			n += e.RowCount()
		}
	}
	return n
}

// TotalTruths counts truths across all source types.
func (tc *TruthContext) TotalTruths() int {
	var n int
	for _, ts := range tc.Truths {
		n += len(ts)
	}
	return n
}

// ExecutedSQL returns the SQL of the first reality truth, if any.
func (tc *TruthContext) ExecutedSQL() string {
	for _, t := range tc.Truths[SourceReality] {
		if e, ok := t.Relational(); ok && e.SQL != "" {
			return e.SQL
		}
	}
	return ""
}

// Validate checks the Truth invariants shared by every gatherer.
func (t Truth) Validate() error {
	if !ValidSourceType(string(t.SourceType)) {
		return fmt.Errorf("invalid source type %q", t.SourceType)
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("confidence %f out of range", t.Confidence)
	}
	if t.Location == "" {
		return fmt.Errorf("truth from %s has empty location", t.SourceName)
	}
	return nil
}
