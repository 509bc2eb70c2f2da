package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/Harshitk-cp/veritas/internal/gather"
	"go.uber.org/zap"
)

// Resolution is the terminal outcome for one question: exactly one of
// Answer or Failure is set. Failures are never auto-retried.
type Resolution struct {
	Answer  *domain.SynthesizedAnswer `json:"answer,omitempty"`
	Failure *domain.ResolutionFailure `json:"failure,omitempty"`
}

// Resolver orchestrates one question end to end: gather, detect gaps, pick
// the primary source, synthesize or fail. It holds no per-question state;
// each call is independent and idempotent over the same backend state.
type Resolver struct {
	assembler *gather.Assembler
	detector  *GapDetector
	synth     *Synthesizer
	logger    *zap.Logger
}

func NewResolver(assembler *gather.Assembler, detector *GapDetector, synth *Synthesizer, logger *zap.Logger) *Resolver {
	return &Resolver{
		assembler: assembler,
		detector:  detector,
		synth:     synth,
		logger:    logger,
	}
}

// Resolve answers one question. The returned error is non-nil only for
// caller cancellation; every domain-level outcome, including system errors,
// is expressed as a Resolution.
func (r *Resolver) Resolve(ctx context.Context, question string, qctx domain.QuestionContext) (*Resolution, error) {
	result, err := r.assembler.Assemble(ctx, question, qctx)
	if err != nil {
		return nil, err
	}
	tc := result.Context

	if failure := r.checkRealitySignal(result, qctx); failure != nil {
		r.logger.Info("resolution failed",
			zap.String("question", question),
			zap.String("status", string(failure.Status)))
		return &Resolution{Failure: failure}, nil
	}

	tc.Gaps = filterNormalFindings(r.detector.Detect(tc))
	primary := SelectPrimary(tc)

	// Empty reality with nothing else gathered: the question was understood
	// but there is no evidence of any kind to answer from. When the record
	// store itself was down no query ran, and the reason must say so rather
	// than claim a verified empty result.
	if tc.RealityRowCount() == 0 && primary.SourceType == domain.SourceReality {
		if nonRealityTruths(tc) == 0 {
			reason := "no matching records found"
			if realityDegraded(result.RealityErr) {
				reason = "no evidence gathered: the record store was unavailable"
			}
			return &Resolution{Failure: &domain.ResolutionFailure{
				Status:         domain.StatusNoData,
				Reason:         reason,
				AppliedFilters: qctx.ScopeFilters,
				Confidence:     domain.StatusNoData.Confidence(),
			}}, nil
		}
	}

	insights := DeriveInsights(tc.Gaps, tc.Graph)
	answer := r.synth.Synthesize(ctx, tc, primary, insights)

	r.logger.Info("question resolved",
		zap.String("question", question),
		zap.String("primary", string(primary.SourceType)),
		zap.Float32("confidence", answer.Confidence),
		zap.Int("gaps", len(tc.Gaps)))
	return &Resolution{Answer: answer}, nil
}

// checkRealitySignal turns reality's typed resolution signals into terminal
// failures. Empty results and backend degradation fall through: empty
// reality may still be answerable from configuration, and a degraded
// gatherer is only fatal when every gatherer failed.
func (r *Resolver) checkRealitySignal(result *gather.Result, qctx domain.QuestionContext) *domain.ResolutionFailure {
	err := result.RealityErr
	if err == nil {
		return nil
	}

	var emptyErr *domain.EmptyResultError
	if errors.As(err, &emptyErr) {
		return nil
	}

	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) || errors.Is(err, context.DeadlineExceeded) {
		if result.Failures >= result.Gatherers {
			return &domain.ResolutionFailure{
				Status:     domain.StatusSystemError,
				Reason:     "all evidence sources failed: " + err.Error(),
				Confidence: domain.StatusSystemError.Confidence(),
			}
		}
		r.logger.Warn("reality degraded, continuing with remaining sources", zap.Error(err))
		return nil
	}

	return BuildFailure(err, qctx)
}

// realityDegraded reports whether the reality gatherer failed for
// infrastructure reasons rather than returning a verified empty result.
func realityDegraded(err error) bool {
	var backendErr *domain.BackendError
	return err != nil && (errors.As(err, &backendErr) || errors.Is(err, context.DeadlineExceeded))
}

func filterNormalFindings(gaps []domain.Gap) []domain.Gap {
	out := gaps[:0]
	for _, g := range gaps {
		if IsNormalFinding(g.Description) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func nonRealityTruths(tc *domain.TruthContext) int {
	return tc.TotalTruths() - len(tc.BySource(domain.SourceReality))
}
