package guardrail

import "strings"

// Disclaimers are hardcoded so the LLM can neither alter nor omit them.
// The first group matching any used tool wins.
var disclaimers = []struct {
	tools map[string]bool
	text  string
}{
	{
		tools: toolSet("premium_estimate", "premium_compare", "plan_options",
			"renewal_premium_projection", "affordability_check"),
		text: "이 금액은 예시이며, 실제 보험료는 상품·보장내용·건강상태에 따라 달라집니다. " +
			"정확한 보험료는 설계사 상담 또는 공식 홈페이지를 통해 확인해 주세요.",
	},
	{
		tools: toolSet("product_compare", "product_search", "product_get"),
		text: "상품 상세 내용은 약관을 기준으로 하며, " +
			"가입 전 반드시 상품설명서와 약관을 확인하시기 바랍니다.",
	},
	{
		tools: toolSet("coverage_summary", "coverage_detail", "benefit_amount_lookup",
			"benefit_limit_rules", "event_eligibility_check"),
		text: "보장 내용은 약관을 기준으로 하며, 여기 표시된 내용은 참고용입니다. " +
			"실제 보장 범위와 지급 조건은 약관에서 정한 바에 따릅니다.",
	},
}

func toolSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// SelectDisclaimer picks the disclaimer for the tools used in a turn.
func SelectDisclaimer(toolsUsed []string) (string, bool) {
	for _, d := range disclaimers {
		for _, used := range toolsUsed {
			if d.tools[used] {
				return d.text, true
			}
		}
	}
	return "", false
}

// disclaimerMarker precedes every injected disclaimer. Its presence
// means a disclaimer already survived a retry round trip.
const disclaimerMarker = "\n※ "

// ApplyDisclaimer appends at most one disclaimer chosen by the tools
// used. Text that already carries the marker or the exact disclaimer is
// returned unchanged.
func ApplyDisclaimer(text string, toolsUsed []string) string {
	disclaimer, ok := SelectDisclaimer(toolsUsed)
	if !ok {
		return text
	}
	if strings.Contains(text, disclaimer) || strings.Contains(text, disclaimerMarker) {
		return text
	}
	return strings.TrimRight(text, " \t\n") + "\n\n※ " + disclaimer
}
