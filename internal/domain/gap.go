package domain

// GapType names the category of mismatch detected between two truths, or
// within configuration coverage itself.
type GapType string

const (
	GapConfigVsIntent     GapType = "CONFIG_VS_INTENT"
	GapConfigVsReference  GapType = "CONFIG_VS_REFERENCE"
	GapConfigVsRegulatory GapType = "CONFIG_VS_REGULATORY"
	GapMissingData        GapType = "MISSING_DATA"
	GapIncompleteSetup    GapType = "INCOMPLETE_SETUP"
)

func ValidGapType(g string) bool {
	switch GapType(g) {
	case GapConfigVsIntent, GapConfigVsReference, GapConfigVsRegulatory, GapMissingData, GapIncompleteSetup:
		return true
	}
	return false
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for comparison and de-duplication.
// critical > high > medium > low > info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Gap is a detected mismatch. Produced only by the gap detector.
type Gap struct {
	Type        GapType  `json:"type"`
	Entity      string   `json:"entity"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Truths      []Truth  `json:"-"`
}

// Insight is an actionable observation derived from gaps or from the
// relationship graph's usage metrics.
type Insight struct {
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	ActionRequired bool     `json:"action_required"`
}

const (
	InsightConfigurationGap = "configuration_gap"
	InsightLowCoverage      = "low_coverage"
	InsightIntentMismatch   = "intent_mismatch"
)
