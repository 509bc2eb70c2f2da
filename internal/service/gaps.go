package service

import (
	"fmt"
	"sort"

	"github.com/Harshitk-cp/veritas/internal/domain"
)

// GapDetector is a pure function over a TruthContext; it holds no backend
// handles and never mutates its input.
type GapDetector struct {
	// KeepAllPerEntity disables the default de-duplication that keeps only
	// the highest-severity gap per entity.
	KeepAllPerEntity bool
}

func NewGapDetector() *GapDetector {
	return &GapDetector{}
}

// Detect finds mismatches between truth types. Coverage truths with unused
// codes emit setup gaps; document truths mentioning an entity absent from
// configuration emit the corresponding CONFIG_VS_* gap.
func (d *GapDetector) Detect(tc *domain.TruthContext) []domain.Gap {
	var gaps []domain.Gap

	configTruths := tc.BySource(domain.SourceConfiguration)
	for _, t := range configTruths {
		cov, ok := t.Coverage()
		if !ok || cov.UnusedCount() == 0 {
			continue
		}
		gaps = append(gaps, coverageGap(t, cov))
	}

	// Document-vs-configuration comparisons only make sense once we know
	// what configuration exists for this question's data.
	if len(configTruths) > 0 {
		configured := configuredEntities(configTruths)
		gaps = append(gaps, d.documentGaps(tc, domain.SourceIntent, domain.GapConfigVsIntent, domain.SeverityHigh, configured)...)
		gaps = append(gaps, d.documentGaps(tc, domain.SourceReference, domain.GapConfigVsReference, domain.SeverityMedium, configured)...)
		gaps = append(gaps, d.documentGaps(tc, domain.SourceRegulatory, domain.GapConfigVsRegulatory, domain.SeverityHigh, configured)...)
	}

	if !d.KeepAllPerEntity {
		gaps = dedupeBySeverity(gaps)
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Severity.Rank() > gaps[j].Severity.Rank()
	})
	return gaps
}

func coverageGap(t domain.Truth, cov domain.CoverageEvidence) domain.Gap {
	entity := EntityForTable(cov.HubTable)
	if cov.InUseCount == 0 {
		return domain.Gap{
			Type:        domain.GapMissingData,
			Entity:      entity,
			Description: fmt.Sprintf("%s defines %d %s codes but none appear in %s", cov.HubTable, cov.ConfiguredCount, entity, cov.SpokeTable),
			Severity:    domain.SeverityHigh,
			Truths:      []domain.Truth{t},
		}
	}
	return domain.Gap{
		Type:        domain.GapIncompleteSetup,
		Entity:      entity,
		Description: fmt.Sprintf("%d of %d %s codes in %s are unused by %s", cov.UnusedCount(), cov.ConfiguredCount, entity, cov.HubTable, cov.SpokeTable),
		Severity:    domain.SeverityMedium,
		Truths:      []domain.Truth{t},
	}
}

func (d *GapDetector) documentGaps(tc *domain.TruthContext, source domain.SourceType, gapType domain.GapType, severity domain.Severity, configured map[string]bool) []domain.Gap {
	var gaps []domain.Gap
	seen := make(map[string]bool)

	for _, t := range tc.BySource(source) {
		doc, ok := t.Document()
		if !ok {
			continue
		}
		for _, entity := range EntityMentions(doc.Excerpt) {
			if configured[entity] || seen[entity] {
				continue
			}
			seen[entity] = true
			gaps = append(gaps, domain.Gap{
				Type:        gapType,
				Entity:      entity,
				Description: fmt.Sprintf("%s documents mention %s but no %s configuration was found for this data", source, entity, entity),
				Severity:    severity,
				Truths:      []domain.Truth{t},
			})
		}
	}
	return gaps
}

func configuredEntities(truths []domain.Truth) map[string]bool {
	entities := make(map[string]bool)
	for _, t := range truths {
		if cov, ok := t.Coverage(); ok {
			entities[EntityForTable(cov.HubTable)] = true
		}
	}
	return entities
}

// dedupeBySeverity keeps only the highest-severity gap per entity.
// Gaps without an entity are always kept.
func dedupeBySeverity(gaps []domain.Gap) []domain.Gap {
	best := make(map[string]int)
	for i, g := range gaps {
		if g.Entity == "" {
			continue
		}
		if j, ok := best[g.Entity]; !ok || g.Severity.Rank() > gaps[j].Severity.Rank() {
			best[g.Entity] = i
		}
	}

	out := make([]domain.Gap, 0, len(gaps))
	for i, g := range gaps {
		if g.Entity != "" && best[g.Entity] != i {
			continue
		}
		out = append(out, g)
	}
	return out
}

// DeriveInsights turns gaps into actionable insights and injects usage
// observations from the relationship graph.
func DeriveInsights(gaps []domain.Gap, graph *domain.RelationshipGraph) []domain.Insight {
	var insights []domain.Insight

	for _, g := range gaps {
		insightType := InsightTypeForGap(g.Type)
		insights = append(insights, domain.Insight{
			Type:           insightType,
			Title:          fmt.Sprintf("%s: %s", titleForGap(g.Type), g.Entity),
			Description:    g.Description,
			Severity:       g.Severity,
			ActionRequired: g.Severity.Rank() >= domain.SeverityHigh.Rank(),
		})
	}

	if graph != nil {
		for _, hub := range graph.Hubs {
			if hub.ConfiguredCount > 0 && hub.CoveragePct < 50 {
				insights = append(insights, domain.Insight{
					Type:           domain.InsightLowCoverage,
					Title:          "Low coverage: " + hub.Table,
					Description:    fmt.Sprintf("only %.0f%% of %s entries are in use (%d of %d)", hub.CoveragePct, hub.Table, hub.InUseCount, hub.ConfiguredCount),
					Severity:       domain.SeverityInfo,
					ActionRequired: false,
				})
			}
		}
	}
	return insights
}

func InsightTypeForGap(g domain.GapType) string {
	switch g {
	case domain.GapConfigVsIntent:
		return domain.InsightIntentMismatch
	default:
		return domain.InsightConfigurationGap
	}
}

func titleForGap(g domain.GapType) string {
	switch g {
	case domain.GapConfigVsIntent:
		return "Intent mismatch"
	case domain.GapConfigVsReference:
		return "Reference mismatch"
	case domain.GapConfigVsRegulatory:
		return "Regulatory mismatch"
	case domain.GapMissingData:
		return "Missing data"
	default:
		return "Incomplete setup"
	}
}
