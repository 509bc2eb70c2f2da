package service

import (
	"errors"

	"github.com/Harshitk-cp/veritas/internal/domain"
)

// suggestionThreshold is the minimum fuzzy score for a column to be offered
// back as a near-miss suggestion.
const suggestionThreshold = 0.3

// BuildFailure converts a reality resolution signal into a terminal
// ResolutionFailure. Only typed signals map to specific statuses; anything
// else is a system error.
func BuildFailure(err error, qctx domain.QuestionContext) *domain.ResolutionFailure {
	var (
		unresolvable *domain.UnresolvableError
		ambiguous    *domain.AmbiguousError
		empty        *domain.EmptyResultError
		complex      *domain.ComplexQueryError
	)

	switch {
	case errors.As(err, &unresolvable):
		return &domain.ResolutionFailure{
			Status:           domain.StatusCannotResolve,
			Reason:           unresolvable.Error(),
			Suggestions:      SuggestColumns(unresolvable.Terms, unresolvable.AvailableColumns),
			UnresolvedTerms:  unresolvable.Terms,
			AvailableColumns: unresolvable.AvailableColumns,
			Confidence:       domain.StatusCannotResolve.Confidence(),
		}

	case errors.As(err, &ambiguous):
		return &domain.ResolutionFailure{
			Status:          domain.StatusNeedsClarification,
			Reason:          ambiguous.Error(),
			Suggestions:     ambiguous.Options,
			UnresolvedTerms: []string{ambiguous.Term},
			Confidence:      domain.StatusNeedsClarification.Confidence(),
		}

	case errors.As(err, &empty):
		return &domain.ResolutionFailure{
			Status:         domain.StatusNoData,
			Reason:         "no matching records found",
			AppliedFilters: empty.Filters,
			Confidence:     domain.StatusNoData.Confidence(),
		}

	case errors.As(err, &complex):
		return &domain.ResolutionFailure{
			Status:     domain.StatusComplexQuery,
			Reason:     complex.Error(),
			Confidence: domain.StatusComplexQuery.Confidence(),
		}
	}

	return &domain.ResolutionFailure{
		Status:     domain.StatusSystemError,
		Reason:     err.Error(),
		Confidence: domain.StatusSystemError.Confidence(),
	}
}

// SuggestColumns ranks every available column against each unresolved term
// and merges the results, keeping each column's best showing.
func SuggestColumns(terms, columns []string) []domain.Suggestion {
	seen := make(map[string]bool)
	var merged []domain.Suggestion
	for _, term := range terms {
		for _, s := range domain.RankMatches(term, columns, suggestionThreshold) {
			if seen[s.Value] {
				continue
			}
			seen[s.Value] = true
			merged = append(merged, s)
		}
	}
	return merged
}
