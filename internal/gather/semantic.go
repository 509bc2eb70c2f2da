package gather

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"go.uber.org/zap"
)

const defaultSearchK = 5

// SemanticGatherer retrieves document evidence for one source type via
// vector search. Intent is scoped to the question's project; reference,
// regulatory and compliance collections are global.
type SemanticGatherer struct {
	source        domain.SourceType
	collection    string
	projectScoped bool
	topK          int
	searcher      domain.SemanticSearcher
	logger        *zap.Logger
}

func NewIntentGatherer(searcher domain.SemanticSearcher, logger *zap.Logger) *SemanticGatherer {
	return &SemanticGatherer{
		source:        domain.SourceIntent,
		collection:    domain.CollectionIntent,
		projectScoped: true,
		topK:          defaultSearchK,
		searcher:      searcher,
		logger:        logger,
	}
}

func NewReferenceGatherer(searcher domain.SemanticSearcher, logger *zap.Logger) *SemanticGatherer {
	return &SemanticGatherer{
		source:     domain.SourceReference,
		collection: domain.CollectionReference,
		topK:       defaultSearchK,
		searcher:   searcher,
		logger:     logger,
	}
}

func NewRegulatoryGatherer(searcher domain.SemanticSearcher, logger *zap.Logger) *SemanticGatherer {
	return &SemanticGatherer{
		source:     domain.SourceRegulatory,
		collection: domain.CollectionRegulatory,
		topK:       defaultSearchK,
		searcher:   searcher,
		logger:     logger,
	}
}

func NewComplianceGatherer(searcher domain.SemanticSearcher, logger *zap.Logger) *SemanticGatherer {
	return &SemanticGatherer{
		source:     domain.SourceCompliance,
		collection: domain.CollectionCompliance,
		topK:       defaultSearchK,
		searcher:   searcher,
		logger:     logger,
	}
}

func (g *SemanticGatherer) SourceType() domain.SourceType {
	return g.source
}

func (g *SemanticGatherer) Gather(ctx context.Context, question string, qctx domain.QuestionContext) ([]domain.Truth, error) {
	var filter map[string]string
	if g.projectScoped {
		filter = map[string]string{"project_id": qctx.ProjectID.String()}
	}

	hits, err := g.searcher.Search(ctx, g.collection, question, g.topK, filter)
	if err != nil {
		return nil, &domain.BackendError{Op: string(g.source) + " search", Err: err}
	}

	truths := make([]domain.Truth, 0, len(hits))
	for i, hit := range hits {
		truths = append(truths, domain.Truth{
			SourceType: g.source,
			SourceName: g.collection,
			Content: domain.DocumentEvidence{
				Excerpt:  hit.Document,
				Tags:     tagsFrom(hit.Metadata),
				Distance: hit.Distance,
			},
			Confidence: domain.SearchConfidence(hit.Distance),
			Location:   hitLocation(g.collection, i, hit.Metadata),
			Metadata:   hit.Metadata,
		})
	}
	return truths, nil
}

func tagsFrom(metadata map[string]any) []string {
	raw, ok := metadata["tags"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

func hitLocation(collection string, index int, metadata map[string]any) string {
	if src, ok := metadata["source"].(string); ok && src != "" {
		return src
	}
	return fmt.Sprintf("%s hit %d", collection, index+1)
}
