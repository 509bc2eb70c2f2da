package domain

import (
	"fmt"
	"strings"
)

// Resolution signals. The reality gatherer returns these instead of truths
// when it can tell early that the question cannot be answered from data;
// the resolver converts them into ResolutionFailures. Other gatherer
// failures degrade to empty truth lists and never carry these types.

// UnresolvableError means question terms could not be mapped to any known
// column.
type UnresolvableError struct {
	Terms            []string
	AvailableColumns []string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("cannot resolve %s to available columns", quoteAll(e.Terms))
}

// AmbiguousError means a term matched several columns equally well and
// guessing is not allowed.
type AmbiguousError struct {
	Term    string
	Options []Suggestion
}

func (e *AmbiguousError) Error() string {
	vals := make([]string, len(e.Options))
	for i, o := range e.Options {
		vals[i] = o.Value
	}
	return fmt.Sprintf("term %q is ambiguous between %s", e.Term, strings.Join(vals, ", "))
}

// EmptyResultError means the query executed cleanly and returned zero rows.
// Distinct from UnresolvableError: the question was understood.
type EmptyResultError struct {
	SQL     string
	Filters map[string]string
}

func (e *EmptyResultError) Error() string {
	return "query executed but returned no rows"
}

// ComplexQueryError means the question needs a query shape the engine does
// not attempt (multi-step joins, temporal windows, ...).
type ComplexQueryError struct {
	Reason string
}

func (e *ComplexQueryError) Error() string {
	return "question too complex: " + e.Reason
}

// BackendError wraps an adapter failure.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func quoteAll(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}
