package gather

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"go.uber.org/zap"
)

const DefaultGatherTimeout = 10 * time.Second

// Result is everything one assembly pass produced: the truth context plus
// the signal state the resolver needs for its failure policy.
type Result struct {
	Context *domain.TruthContext
	// RealityErr is the reality gatherer's typed resolution signal, nil
	// when reality gathered cleanly.
	RealityErr error
	// Failures counts gatherers that returned backend errors.
	Failures  int
	Gatherers int
}

// Assembler fans a question out to every registered gatherer concurrently.
// Gatherer calls are mutually independent; each gets its own timeout, and
// a slow or failed gatherer degrades its truth type to empty rather than
// blocking the others.
type Assembler struct {
	registry Registry
	graphs   domain.GraphProvider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewAssembler(registry Registry, graphs domain.GraphProvider, timeout time.Duration, logger *zap.Logger) *Assembler {
	if timeout <= 0 {
		timeout = DefaultGatherTimeout
	}
	return &Assembler{
		registry: registry,
		graphs:   graphs,
		timeout:  timeout,
		logger:   logger,
	}
}

func (a *Assembler) Assemble(ctx context.Context, question string, qctx domain.QuestionContext) (*Result, error) {
	if qctx.Graph == nil && a.graphs != nil {
		graph, err := a.graphs.GetRelationshipGraph(ctx, qctx.ProjectID)
		if err != nil {
			a.logger.Warn("relationship graph unavailable",
				zap.String("project_id", qctx.ProjectID.String()),
				zap.Error(err))
		} else {
			qctx.Graph = graph
		}
	}

	tc := domain.NewTruthContext(question, qctx.ProjectID)
	tc.Graph = qctx.Graph

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		realityErr error
		failures   int
	)

	for _, g := range a.registry {
		wg.Add(1)
		go func(g Gatherer) {
			defer wg.Done()

			gctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			start := time.Now()
			truths, err := g.Gather(gctx, question, qctx)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.handleError(g, err, &realityErr, &failures)
			}
			for _, t := range truths {
				if verr := t.Validate(); verr != nil {
					a.logger.Warn("dropping invalid truth",
						zap.String("source", string(g.SourceType())),
						zap.Error(verr))
					continue
				}
				tc.Add(t)
			}
			a.logger.Debug("gatherer finished",
				zap.String("source", string(g.SourceType())),
				zap.Int("truths", len(truths)),
				zap.Duration("took", time.Since(start)))
		}(g)
	}

	wg.Wait()

	// Cancellation: no partial context escapes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Context:    tc,
		RealityErr: realityErr,
		Failures:   failures,
		Gatherers:  len(a.registry),
	}, nil
}

// handleError routes a gatherer error. Reality's typed resolution signals
// are preserved for the resolver; everything else is logged and counted,
// degrading that truth type to empty.
func (a *Assembler) handleError(g Gatherer, err error, realityErr *error, failures *int) {
	if g.SourceType() == domain.SourceReality {
		*realityErr = err
	}

	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) || errors.Is(err, context.DeadlineExceeded) {
		*failures++
		a.logger.Warn("gatherer degraded to empty",
			zap.String("source", string(g.SourceType())),
			zap.Error(err))
		return
	}

	a.logger.Debug("gatherer signaled",
		zap.String("source", string(g.SourceType())),
		zap.Error(err))
}
