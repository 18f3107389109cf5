package insurance

import (
	"github.com/mink555/covergate/tools"
)

// Compile-time interface checks for every consultation tool.
var (
	_ tools.Tool = ProductSearch{}
	_ tools.Tool = ProductGet{}
	_ tools.Tool = PremiumEstimate{}
	_ tools.Tool = PlanOptions{}
	_ tools.Tool = CoverageSummary{}
	_ tools.Tool = CoverageDetail{}
	_ tools.Tool = ClaimGuide{}
	_ tools.Tool = UnderwritingPrecheck{}
	_ tools.Tool = MisleadingCheck{}
	_ tools.Tool = PrivacyMasking{}
	_ tools.Tool = RiderBundleRecommend{}
	_ tools.Tool = TermsQuery{}
)

// All returns every built-in consultation tool, matching the built-in
// card set one to one.
func All() []tools.Tool {
	return []tools.Tool{
		ProductSearch{},
		ProductGet{},
		PremiumEstimate{},
		PlanOptions{},
		CoverageSummary{},
		CoverageDetail{},
		ClaimGuide{},
		UnderwritingPrecheck{},
		MisleadingCheck{},
		PrivacyMasking{},
		RiderBundleRecommend{},
		TermsQuery{},
	}
}

// RegisterAll registers every built-in tool with the registry.
func RegisterAll(registry *tools.Registry) error {
	for _, tool := range All() {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
