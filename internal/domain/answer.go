package domain

// SynthesizedAnswer is the terminal success value for one question.
// Immutable once returned.
type SynthesizedAnswer struct {
	Question         string                 `json:"question"`
	Answer           string                 `json:"answer"`
	Confidence       float32                `json:"confidence"`
	Truths           map[SourceType][]Truth `json:"truths"`
	Gaps             []Gap                  `json:"gaps,omitempty"`
	Insights         []Insight              `json:"insights,omitempty"`
	StructuredOutput map[string]any         `json:"structured_output,omitempty"`
	Reasoning        []string               `json:"reasoning"`
	ExecutedSQL      string                 `json:"executed_sql,omitempty"`
}

// FailureStatus classifies why resolution could not produce an answer.
type FailureStatus string

const (
	StatusCannotResolve      FailureStatus = "CANNOT_RESOLVE"
	StatusNeedsClarification FailureStatus = "NEEDS_CLARIFICATION"
	StatusNoData             FailureStatus = "NO_DATA"
	StatusComplexQuery       FailureStatus = "COMPLEX_QUERY"
	StatusSystemError        FailureStatus = "SYSTEM_ERROR"
)

// Confidence is the forced confidence for each failure status. NO_DATA is
// 0.5: the question was understood, nothing was found.
func (s FailureStatus) Confidence() float32 {
	if s == StatusNoData {
		return 0.5
	}
	return 0.0
}

// Suggestion is one enumerated option offered back to the caller, either a
// near-miss column name or a clarification choice.
type Suggestion struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count,omitempty"`
}

// ResolutionFailure is the terminal failure value. It is never auto-retried.
type ResolutionFailure struct {
	Status           FailureStatus     `json:"status"`
	Reason           string            `json:"reason"`
	Suggestions      []Suggestion      `json:"suggestions,omitempty"`
	UnresolvedTerms  []string          `json:"unresolved_terms,omitempty"`
	AvailableColumns []string          `json:"available_columns,omitempty"`
	AppliedFilters   map[string]string `json:"applied_filters,omitempty"`
	Confidence       float32           `json:"confidence"`
}
