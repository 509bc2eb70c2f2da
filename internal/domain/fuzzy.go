package domain

import (
	"sort"
	"strings"
)

// Fuzzy matching between question terms and column names, used both to
// resolve terms before query generation and to build suggestions on
// failure. Substring containment is weighted highest, shared-word overlap
// next, and a shared prefix adds a small bonus.

const (
	substringWeight = 0.6
	wordWeight      = 0.3
	prefixWeight    = 0.1
)

// MatchScore rates how well a question term matches a column name, in
// [0,1].
func MatchScore(term, column string) float64 {
	t := normalizeIdent(term)
	c := normalizeIdent(column)
	if t == "" || c == "" {
		return 0
	}
	if t == c {
		return 1
	}

	var score float64
	if strings.Contains(c, t) || strings.Contains(t, c) {
		score += substringWeight
	}

	tw := strings.Fields(t)
	cw := strings.Fields(c)
	if shared := sharedWords(tw, cw); shared > 0 {
		total := len(tw)
		if len(cw) > total {
			total = len(cw)
		}
		score += wordWeight * float64(shared) / float64(total)
	}

	if n := sharedPrefixLen(t, c); n >= 3 {
		longer := len(t)
		if len(c) > longer {
			longer = len(c)
		}
		score += prefixWeight * float64(n) / float64(longer)
	}

	if score > 1 {
		score = 1
	}
	return score
}

// RankMatches scores every column against the term and returns those above
// threshold, best first. Ties break on column name so identical inputs
// always rank identically.
func RankMatches(term string, columns []string, threshold float64) []Suggestion {
	type scored struct {
		column string
		score  float64
	}
	var matches []scored
	for _, col := range columns {
		if s := MatchScore(term, col); s >= threshold {
			matches = append(matches, scored{column: col, score: s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].column < matches[j].column
	})

	suggestions := make([]Suggestion, len(matches))
	for i, m := range matches {
		suggestions[i] = Suggestion{
			Value: m.column,
			Label: strings.ReplaceAll(m.column, "_", " "),
		}
	}
	return suggestions
}

func normalizeIdent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

func sharedWords(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	var n int
	for _, w := range b {
		if set[w] {
			n++
			set[w] = false
		}
	}
	return n
}

func sharedPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
