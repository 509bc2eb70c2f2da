package gather

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockSearcher struct {
	hits []domain.SearchHit
	err  error

	lastCollection string
	lastFilter     map[string]string
	lastK          int
}

func (m *mockSearcher) Search(ctx context.Context, collection, query string, k int, filter map[string]string) ([]domain.SearchHit, error) {
	m.lastCollection = collection
	m.lastFilter = filter
	m.lastK = k
	return m.hits, m.err
}

func TestIntentGatherer_ProjectScoped(t *testing.T) {
	searcher := &mockSearcher{hits: []domain.SearchHit{
		{Document: "All hourly workers receive overtime after 40 hours.", Distance: 0.3},
	}}
	g := NewIntentGatherer(searcher, zap.NewNop())

	projectID := uuid.New()
	truths, err := g.Gather(context.Background(), "overtime rules", domain.QuestionContext{ProjectID: projectID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if searcher.lastCollection != domain.CollectionIntent {
		t.Errorf("collection = %s", searcher.lastCollection)
	}
	if searcher.lastFilter["project_id"] != projectID.String() {
		t.Errorf("intent search must be scoped to the project, filter = %v", searcher.lastFilter)
	}
	if len(truths) != 1 {
		t.Fatalf("truths = %d, want 1", len(truths))
	}
	if truths[0].SourceType != domain.SourceIntent {
		t.Errorf("source type = %s", truths[0].SourceType)
	}
}

func TestReferenceGatherer_Unscoped(t *testing.T) {
	searcher := &mockSearcher{}
	g := NewReferenceGatherer(searcher, zap.NewNop())

	_, err := g.Gather(context.Background(), "earning code definitions", domain.QuestionContext{ProjectID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.lastFilter != nil {
		t.Errorf("reference search must not be project-scoped, filter = %v", searcher.lastFilter)
	}
	if searcher.lastCollection != domain.CollectionReference {
		t.Errorf("collection = %s", searcher.lastCollection)
	}
	if searcher.lastK != defaultSearchK {
		t.Errorf("k = %d, want %d", searcher.lastK, defaultSearchK)
	}
}

func TestSemanticGatherer_ConfidenceFromDistance(t *testing.T) {
	searcher := &mockSearcher{hits: []domain.SearchHit{
		{Document: "close match", Distance: 0.2},
		{Document: "distant match", Distance: 1.8},
	}}
	g := NewRegulatoryGatherer(searcher, zap.NewNop())

	truths, err := g.Gather(context.Background(), "state filing rules", domain.QuestionContext{ProjectID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truths[0].Confidence != 0.9 {
		t.Errorf("confidence = %f, want 0.9 for distance 0.2", truths[0].Confidence)
	}
	// Floored: a hit never scores below 0.5.
	if truths[1].Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5 floor for distance 1.8", truths[1].Confidence)
	}
}

func TestSemanticGatherer_SearchFailureIsBackendError(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("connection refused")}
	g := NewComplianceGatherer(searcher, zap.NewNop())

	_, err := g.Gather(context.Background(), "audit requirements", domain.QuestionContext{ProjectID: uuid.New()})

	var backendErr *domain.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func TestSemanticGatherer_LocationFromMetadata(t *testing.T) {
	searcher := &mockSearcher{hits: []domain.SearchHit{
		{Document: "doc", Distance: 0.4, Metadata: map[string]any{"source": "handbook.pdf", "tags": []any{"overtime", "pay"}}},
		{Document: "doc2", Distance: 0.5},
	}}
	g := NewIntentGatherer(searcher, zap.NewNop())

	truths, err := g.Gather(context.Background(), "q", domain.QuestionContext{ProjectID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truths[0].Location != "handbook.pdf" {
		t.Errorf("location = %q, want handbook.pdf", truths[0].Location)
	}
	doc, _ := truths[0].Document()
	if len(doc.Tags) != 2 {
		t.Errorf("tags = %v", doc.Tags)
	}
	if truths[1].Location == "" {
		t.Errorf("fallback location must not be empty")
	}
}
