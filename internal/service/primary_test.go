package service

import (
	"strings"
	"testing"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/google/uuid"
)

func realityTruth(rows []domain.Row) domain.Truth {
	return domain.Truth{
		SourceType: domain.SourceReality,
		SourceName: "operational database",
		Content: domain.RelationalEvidence{
			SQL:        "SELECT * FROM payment_lines",
			QueryClass: domain.QueryClassListing,
			Rows:       rows,
		},
		Confidence: 0.95,
		Location:   "table payment_lines",
	}
}

func TestSelectPrimary_RealityWithRows(t *testing.T) {
	tc := domain.NewTruthContext("what earning codes are in use", uuid.New())
	tc.Add(realityTruth([]domain.Row{{"code": "REG"}}))
	tc.Add(coverageTruth("earning_codes", "payment_lines", 45, 38))

	p := SelectPrimary(tc)
	if p.SourceType != domain.SourceReality {
		t.Errorf("primary = %s, want reality when rows exist", p.SourceType)
	}
}

func TestSelectPrimary_ConfigurationFallback(t *testing.T) {
	tc := domain.NewTruthContext("what deduction codes are configured", uuid.New())
	tc.Add(realityTruth(nil))
	tc.Add(coverageTruth("deduction_codes", "payment_lines", 12, 0))

	p := SelectPrimary(tc)
	if p.SourceType != domain.SourceConfiguration {
		t.Errorf("primary = %s, want configuration for a setup question with empty reality", p.SourceType)
	}
}

func TestSelectPrimary_EmptyRealityNonListingQuestion(t *testing.T) {
	tc := domain.NewTruthContext("how much did we pay Alice last month", uuid.New())
	tc.Add(realityTruth(nil))
	tc.Add(coverageTruth("earning_codes", "payment_lines", 45, 38))

	p := SelectPrimary(tc)
	if p.SourceType != domain.SourceReality {
		t.Errorf("primary = %s, want reality to report observed absence", p.SourceType)
	}
}

func TestIsConfigurationListing(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"what earning codes are configured", true},
		{"which deduction types exist", true},
		{"show me the tax rates", true},
		{"list workers comp codes", true},
		{"what is the setup for locations", true},
		{"show our deductions", true},
		{"list the locations", true},
		{"how much did we pay in March", false},
		{"codes overview", false}, // no listing verb
		{"show me last week's payments", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if got := IsConfigurationListing(tt.question); got != tt.want {
				t.Errorf("IsConfigurationListing(%q) = %v, want %v", tt.question, got, tt.want)
			}
		})
	}
}

func TestEntityMentions(t *testing.T) {
	got := EntityMentions("Garnishment deductions run before tax withholding at each location.")
	want := map[string]bool{"deduction": true, "tax": true, "location": true}
	if len(got) != len(want) {
		t.Fatalf("entities = %v", got)
	}
	for _, e := range got {
		if !want[e] {
			t.Errorf("unexpected entity %q", e)
		}
	}
}

func TestEntityForTable(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"earning_codes", "earning"},
		{"deduction_codes", "deduction"},
		{"tax_codes", "tax"},
		{"workers_comp_codes", "workers_comp"},
		{"locations", "location"},
		{"job_titles", "job"},
		{"mystery_table", "mystery_table"},
	}
	for _, tt := range tests {
		if got := EntityForTable(tt.table); got != tt.want {
			t.Errorf("EntityForTable(%q) = %q, want %q", tt.table, got, tt.want)
		}
	}
}

func TestEntityContext(t *testing.T) {
	got := EntityContext([]string{"deduction", "mystery"})
	if !strings.Contains(got, "Entity context:") || !strings.Contains(got, "deduction codes") {
		t.Errorf("EntityContext = %q", got)
	}
	if EntityContext(nil) != "" {
		t.Error("no entities should render no block")
	}
}

func TestDomainRules(t *testing.T) {
	got := DomainRules()
	if !strings.Contains(got, "null regular_pay") || !strings.Contains(got, "end_date") {
		t.Errorf("DomainRules = %q", got)
	}
}

func TestIsNormalFinding(t *testing.T) {
	if !IsNormalFinding("row has a null regular_pay flag") {
		t.Error("null regular_pay is expected, not a finding")
	}
	if IsNormalFinding("12 deduction codes defined but none in use") {
		t.Error("unused deduction codes are a real finding")
	}
}
