package gather

import (
	"context"

	"github.com/Harshitk-cp/veritas/internal/domain"
)

// Gatherer collects truths of one source type for a question. Backend
// failures are returned as errors; the assembler degrades them to an empty
// truth list so the absence of one truth type never blocks the others.
// Only the reality gatherer returns the typed resolution signals from
// domain/errors.go.
type Gatherer interface {
	SourceType() domain.SourceType
	Gather(ctx context.Context, question string, qctx domain.QuestionContext) ([]domain.Truth, error)
}

// Registry maps source types to their gatherer. One implementation per
// source type; no call-site branching on truth type.
type Registry map[domain.SourceType]Gatherer

func NewRegistry(gatherers ...Gatherer) Registry {
	r := make(Registry, len(gatherers))
	for _, g := range gatherers {
		r[g.SourceType()] = g
	}
	return r
}
