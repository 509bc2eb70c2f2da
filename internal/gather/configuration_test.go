package gather

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testGraph() *domain.RelationshipGraph {
	return &domain.RelationshipGraph{
		ProjectID: uuid.New(),
		Hubs: []domain.Hub{
			{Table: "earning_codes", ConfiguredCount: 45, InUseCount: 38, CoveragePct: 84.4},
			{Table: "deduction_codes", ConfiguredCount: 20, InUseCount: 5, CoveragePct: 25},
			{Table: "tax_codes", ConfiguredCount: 10, InUseCount: 10, CoveragePct: 100},
		},
		Relationships: []domain.Relationship{
			{HubTable: "earning_codes", HubColumn: "code", SpokeTable: "payment_lines", SpokeColumn: "earning_code", Cardinality: "one-to-many"},
			{HubTable: "deduction_codes", HubColumn: "code", SpokeTable: "payment_lines", SpokeColumn: "deduction_code", Cardinality: "one-to-many"},
			{HubTable: "tax_codes", HubColumn: "code", SpokeTable: "tax_lines", SpokeColumn: "tax_code", Cardinality: "one-to-many"},
		},
	}
}

func TestConfigurationGatherer_HubsSortedByCoverage(t *testing.T) {
	g := NewConfigurationGatherer(zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:     uuid.New(),
		ResolvedTable: "payment_lines",
		Graph:         testGraph(),
	}

	truths, err := g.Gather(context.Background(), "what deduction codes exist", qctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(truths) != 2 {
		t.Fatalf("truths = %d, want 2 hubs for payment_lines", len(truths))
	}

	// Lowest coverage first: the biggest gap leads.
	first, _ := truths[0].Coverage()
	if first.HubTable != "deduction_codes" {
		t.Errorf("first hub = %s, want deduction_codes (25%% coverage)", first.HubTable)
	}
	second, _ := truths[1].Coverage()
	if second.HubTable != "earning_codes" {
		t.Errorf("second hub = %s, want earning_codes", second.HubTable)
	}
}

func TestConfigurationGatherer_NoGraphReturnsNothing(t *testing.T) {
	g := NewConfigurationGatherer(zap.NewNop())

	truths, err := g.Gather(context.Background(), "anything", domain.QuestionContext{
		ProjectID:     uuid.New(),
		ResolvedTable: "payment_lines",
	})
	if err != nil {
		t.Fatalf("missing graph must degrade silently, got error: %v", err)
	}
	if len(truths) != 0 {
		t.Errorf("truths = %d, want 0", len(truths))
	}
}

func TestConfigurationGatherer_NoResolvedTableReturnsNothing(t *testing.T) {
	g := NewConfigurationGatherer(zap.NewNop())

	truths, err := g.Gather(context.Background(), "anything", domain.QuestionContext{
		ProjectID: uuid.New(),
		Graph:     testGraph(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(truths) != 0 {
		t.Errorf("truths = %d, want 0", len(truths))
	}
}

func TestConfigurationGatherer_TruthShape(t *testing.T) {
	g := NewConfigurationGatherer(zap.NewNop())

	qctx := domain.QuestionContext{
		ProjectID:     uuid.New(),
		ResolvedTable: "tax_lines",
		Graph:         testGraph(),
	}
	truths, err := g.Gather(context.Background(), "tax setup", qctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(truths) != 1 {
		t.Fatalf("truths = %d, want 1", len(truths))
	}

	truth := truths[0]
	if truth.Confidence != 0.95 {
		t.Errorf("confidence = %f, want 0.95", truth.Confidence)
	}
	if err := truth.Validate(); err != nil {
		t.Errorf("truth should validate: %v", err)
	}
	cov, ok := truth.Coverage()
	if !ok {
		t.Fatal("configuration truth must carry coverage evidence")
	}
	if cov.SpokeTable != "tax_lines" || cov.HubTable != "tax_codes" {
		t.Errorf("hub/spoke = %s/%s", cov.HubTable, cov.SpokeTable)
	}
	if cov.UnusedCount() != 0 {
		t.Errorf("unused = %d, want 0 at full coverage", cov.UnusedCount())
	}
}
