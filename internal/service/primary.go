package service

import (
	"github.com/Harshitk-cp/veritas/internal/domain"
)

// PrimarySource is the truth type the synthesizer leads with. Every other
// gathered type still contributes context and confidence.
type PrimarySource struct {
	SourceType domain.SourceType
	// Reason is a human-readable trace line explaining the selection.
	Reason string
}

// SelectPrimary picks the leading truth type for synthesis. Reality wins
// whenever it returned rows. When reality came back empty but the question
// asks to enumerate configured values, configuration evidence takes over.
// Otherwise reality leads even when empty, producing a "no data" answer.
func SelectPrimary(tc *domain.TruthContext) PrimarySource {
	if tc.RealityRowCount() > 0 {
		return PrimarySource{
			SourceType: domain.SourceReality,
			Reason:     "reality returned rows; leading with observed data",
		}
	}

	if IsConfigurationListing(tc.Question) && len(tc.BySource(domain.SourceConfiguration)) > 0 {
		return PrimarySource{
			SourceType: domain.SourceConfiguration,
			Reason:     "reality empty but question asks about configured values; leading with configuration",
		}
	}

	return PrimarySource{
		SourceType: domain.SourceReality,
		Reason:     "no rows and no configuration fallback; reporting observed absence",
	}
}
