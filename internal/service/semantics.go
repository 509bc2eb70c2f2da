package service

import (
	"sort"
	"strings"
)

// domainEntities maps a payroll-domain entity to the keywords that signal
// it in question text and document excerpts. Keys double as the canonical
// entity names used in gaps and insights.
var domainEntities = map[string][]string{
	"earning":      {"earning", "earnings", "pay code", "pay codes", "regular pay", "overtime", "bonus"},
	"deduction":    {"deduction", "deductions", "garnishment", "401k", "pre-tax", "post-tax"},
	"tax":          {"tax", "taxes", "withholding", "futa", "suta", "fica"},
	"workers_comp": {"workers comp", "workers' comp", "workers compensation", "wc code", "wc codes"},
	"location":     {"location", "locations", "work site", "work sites", "branch", "branches"},
	"job":          {"job", "jobs", "position", "positions", "job title", "job titles"},
}

// normalFindings lists conditions that look like gaps but are expected in a
// healthy setup; the detector and synthesizer must not flag them.
var normalFindings = []string{
	"null regular_pay",  // base pay rows carry no override flag
	"empty end_date",    // open-ended assignments are the common case
	"zero garnishments", // most workers have none
}

// domainRules are the explicit negative constraints fed to the generative
// overlay to suppress known false-positive readings. Overlay-only input;
// the deterministic template never consumes these.
var domainRules = []string{
	"a null regular_pay flag is normal, not a finding",
	"an empty end_date means an open-ended assignment, not missing data",
	"zero garnishments for a worker is the common case, not a gap",
}

var entityDescriptions = map[string]string{
	"earning":      "earning codes classify gross pay line items such as regular, overtime and bonus pay",
	"deduction":    "deduction codes classify amounts withheld from pay, pre-tax or post-tax",
	"tax":          "tax codes classify employer and employee tax withholdings",
	"workers_comp": "workers comp codes classify work by injury-risk category for premium calculation",
	"location":     "locations are the work sites payroll activity is attributed to",
	"job":          "jobs are the positions workers are assigned to",
}

// EntityContext renders the semantics block for the given entities.
// Returns empty when nothing is known.
func EntityContext(entities []string) string {
	var lines []string
	for _, e := range entities {
		if desc, ok := entityDescriptions[e]; ok {
			lines = append(lines, "- "+desc)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Entity context:\n" + strings.Join(lines, "\n")
}

// DomainRules renders the negative-constraint block.
func DomainRules() string {
	var sb strings.Builder
	sb.WriteString("Domain rules:\n")
	for _, r := range domainRules {
		sb.WriteString("- " + r + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// EntityMentions returns the canonical entities whose keywords appear in
// the given text, sorted for deterministic output.
func EntityMentions(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for entity, keywords := range domainEntities {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = append(found, entity)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// EntityForTable maps a table name to its canonical domain entity, falling
// back to the table name itself for tables outside the known vocabulary.
func EntityForTable(table string) string {
	lower := strings.ToLower(table)
	switch {
	case strings.Contains(lower, "earning"):
		return "earning"
	case strings.Contains(lower, "deduction"):
		return "deduction"
	case strings.Contains(lower, "tax"):
		return "tax"
	case strings.Contains(lower, "workers_comp"), strings.Contains(lower, "wc_"):
		return "workers_comp"
	case strings.Contains(lower, "location"):
		return "location"
	case strings.Contains(lower, "job"):
		return "job"
	}
	return lower
}

// IsNormalFinding reports whether a described condition is on the known
// not-a-finding list.
func IsNormalFinding(description string) bool {
	lower := strings.ToLower(description)
	for _, n := range normalFindings {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// configurationNouns signal that a question asks about setup rather than
// observed activity.
var configurationNouns = []string{
	"code", "codes", "configured", "configuration", "setup",
	"type", "types", "rate", "rates", "rule", "rules",
}

var listingVerbs = []string{"what ", "which ", "show ", "list ", "show me"}

// IsConfigurationListing reports whether a question asks to enumerate
// configured values, the case where configuration evidence can answer even
// when reality is empty. A listing verb plus either a setup noun or a
// domain entity qualifies: "show our deductions" is a listing question
// even without the word "codes".
func IsConfigurationListing(question string) bool {
	lower := strings.ToLower(strings.TrimSpace(question))

	verb := false
	for _, v := range listingVerbs {
		if strings.HasPrefix(lower, v) {
			verb = true
			break
		}
	}
	if !verb {
		return false
	}
	for _, noun := range configurationNouns {
		if strings.Contains(lower, noun) {
			return true
		}
	}
	return len(EntityMentions(lower)) > 0
}
