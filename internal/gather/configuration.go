package gather

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"go.uber.org/zap"
)

// ConfigurationGatherer is a pure relationship-graph lookup, not a search.
// Given the reality table resolved for this question, it returns one Truth
// per hub table whose codes that spoke references, carrying the hub's
// pre-computed usage counters. Hubs come back sorted ascending by coverage
// so the biggest gaps surface first.
type ConfigurationGatherer struct {
	logger *zap.Logger
}

func NewConfigurationGatherer(logger *zap.Logger) *ConfigurationGatherer {
	return &ConfigurationGatherer{logger: logger}
}

func (g *ConfigurationGatherer) SourceType() domain.SourceType {
	return domain.SourceConfiguration
}

func (g *ConfigurationGatherer) Gather(ctx context.Context, question string, qctx domain.QuestionContext) ([]domain.Truth, error) {
	if qctx.Graph == nil || qctx.ResolvedTable == "" {
		return nil, nil
	}

	hubs := qctx.Graph.HubsForSpoke(qctx.ResolvedTable)
	if len(hubs) == 0 {
		g.logger.Debug("no hubs for spoke", zap.String("table", qctx.ResolvedTable))
		return nil, nil
	}

	truths := make([]domain.Truth, 0, len(hubs))
	for _, hub := range hubs {
		truths = append(truths, domain.Truth{
			SourceType: domain.SourceConfiguration,
			SourceName: "relationship graph",
			Content: domain.CoverageEvidence{
				HubTable:        hub.Table,
				SpokeTable:      qctx.ResolvedTable,
				ConfiguredCount: hub.ConfiguredCount,
				InUseCount:      hub.InUseCount,
				CoveragePct:     hub.CoveragePct,
			},
			Confidence: 0.95,
			Location:   fmt.Sprintf("hub %s referenced by %s", hub.Table, qctx.ResolvedTable),
			Metadata: map[string]any{
				"configured": hub.ConfiguredCount,
				"in_use":     hub.InUseCount,
			},
		})
	}
	return truths, nil
}
