package domain

import (
	"testing"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		column string
		want   float64 // lower bound when >0, exact for 0 and 1
	}{
		{"exact", "pay_rate", "pay_rate", 1},
		{"exact after normalize", "Pay Rate", "pay_rate", 1},
		{"substring", "rate", "pay_rate", 0.6},
		{"no relation", "zorble", "department", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchScore(tt.term, tt.column)
			switch tt.want {
			case 0, 1:
				if got != tt.want {
					t.Errorf("MatchScore(%q, %q) = %f, want %f", tt.term, tt.column, got, tt.want)
				}
			default:
				if got < tt.want {
					t.Errorf("MatchScore(%q, %q) = %f, want >= %f", tt.term, tt.column, got, tt.want)
				}
			}
		})
	}
}

func TestMatchScore_BetterMatchScoresHigher(t *testing.T) {
	columns := []string{"pay_rate", "pay_frequency", "hire_date"}
	if MatchScore("pay rate", "pay_rate") <= MatchScore("pay rate", "pay_frequency") {
		t.Error("full match should beat partial word overlap")
	}
	if MatchScore("pay rate", "pay_frequency") <= MatchScore("pay rate", "hire_date") {
		t.Error("shared word should beat no relation")
	}
	_ = columns
}

func TestRankMatches_OrderAndThreshold(t *testing.T) {
	columns := []string{"hire_date", "pay_rate", "pay_frequency", "department"}

	got := RankMatches("pay rate", columns, 0.3)
	if len(got) == 0 {
		t.Fatal("expected matches")
	}
	if got[0].Value != "pay_rate" {
		t.Errorf("best match = %q, want pay_rate", got[0].Value)
	}
	for _, s := range got {
		if s.Value == "department" {
			t.Error("department should fall below threshold")
		}
	}
	if got[0].Label != "pay rate" {
		t.Errorf("label = %q, want underscores replaced", got[0].Label)
	}
}

func TestRankMatches_DeterministicTies(t *testing.T) {
	columns := []string{"pay_type", "pay_rate"}
	first := RankMatches("pay", columns, 0.1)
	second := RankMatches("pay", columns, 0.1)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both columns to match, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Value != second[i].Value {
			t.Errorf("ranking not deterministic at %d: %q vs %q", i, first[i].Value, second[i].Value)
		}
	}
	// Tie broken by column name.
	if first[0].Value != "pay_rate" {
		t.Errorf("tie should break alphabetically, got %q first", first[0].Value)
	}
}
