package service

import (
	"errors"
	"testing"

	"github.com/Harshitk-cp/veritas/internal/domain"
)

func TestBuildFailure_Unresolvable(t *testing.T) {
	err := &domain.UnresolvableError{
		Terms:            []string{"rate"},
		AvailableColumns: []string{"pay_rate", "pay_frequency", "department"},
	}

	f := BuildFailure(err, domain.QuestionContext{})

	if f.Status != domain.StatusCannotResolve {
		t.Errorf("status = %s, want CANNOT_RESOLVE", f.Status)
	}
	if f.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", f.Confidence)
	}
	if len(f.Suggestions) == 0 {
		t.Fatal("expected near-miss suggestions")
	}
	if f.Suggestions[0].Value != "pay_rate" {
		t.Errorf("best suggestion = %q, want pay_rate", f.Suggestions[0].Value)
	}
	if len(f.UnresolvedTerms) != 1 || f.UnresolvedTerms[0] != "rate" {
		t.Errorf("unresolved terms = %v", f.UnresolvedTerms)
	}
}

func TestBuildFailure_Ambiguous(t *testing.T) {
	err := &domain.AmbiguousError{
		Term: "pay",
		Options: []domain.Suggestion{
			{Value: "pay_rate", Label: "pay rate"},
			{Value: "pay_type", Label: "pay type"},
		},
	}

	f := BuildFailure(err, domain.QuestionContext{})

	if f.Status != domain.StatusNeedsClarification {
		t.Errorf("status = %s, want NEEDS_CLARIFICATION", f.Status)
	}
	if len(f.Suggestions) != 2 {
		t.Errorf("clarification must enumerate the options, got %d", len(f.Suggestions))
	}
	if f.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", f.Confidence)
	}
}

func TestBuildFailure_EmptyResult(t *testing.T) {
	err := &domain.EmptyResultError{
		SQL:     "SELECT * FROM payments WHERE state = 'HI'",
		Filters: map[string]string{"state": "HI"},
	}

	f := BuildFailure(err, domain.QuestionContext{})

	if f.Status != domain.StatusNoData {
		t.Errorf("status = %s, want NO_DATA", f.Status)
	}
	// The question was understood; confidence reflects that.
	if f.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", f.Confidence)
	}
	if f.AppliedFilters["state"] != "HI" {
		t.Errorf("applied filters = %v", f.AppliedFilters)
	}
}

func TestBuildFailure_ComplexQuery(t *testing.T) {
	f := BuildFailure(&domain.ComplexQueryError{Reason: "multi-step temporal join"}, domain.QuestionContext{})
	if f.Status != domain.StatusComplexQuery {
		t.Errorf("status = %s, want COMPLEX_QUERY", f.Status)
	}
}

func TestBuildFailure_UnknownErrorIsSystemError(t *testing.T) {
	f := BuildFailure(errors.New("disk on fire"), domain.QuestionContext{})
	if f.Status != domain.StatusSystemError {
		t.Errorf("status = %s, want SYSTEM_ERROR", f.Status)
	}
	if f.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", f.Confidence)
	}
}

func TestSuggestColumns_MergesAcrossTerms(t *testing.T) {
	columns := []string{"pay_rate", "pay_type", "hire_date"}
	got := SuggestColumns([]string{"pay rate", "rate"}, columns)

	seen := map[string]int{}
	for _, s := range got {
		seen[s.Value]++
	}
	for col, n := range seen {
		if n > 1 {
			t.Errorf("column %q suggested %d times, want deduplication", col, n)
		}
	}
	if seen["pay_rate"] != 1 {
		t.Errorf("pay_rate should be suggested, got %v", got)
	}
}
