package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// PIIPattern labels one category of personal data.
type PIIPattern struct {
	Pattern *regexp.Regexp
	Label   string
}

// PIIPatterns detects Korean personal data: resident registration
// numbers, phone numbers, card numbers, emails, and account numbers.
// Shared with the privacy masking tool.
var PIIPatterns = []PIIPattern{
	{regexp.MustCompile(`\d{6}-?[1-4]\d{6}`), "주민등록번호"},
	{regexp.MustCompile(`01[016789]-?\d{3,4}-?\d{4}`), "전화번호"},
	{regexp.MustCompile(`\d{4}-\d{4}-\d{4}-\d{4}`), "카드번호"},
	{regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`), "이메일"},
	{regexp.MustCompile(`\d{3}-\d{2,6}-\d{2,7}`), "계좌번호"},
}

// ForbiddenPhrase is one banned or exaggerated sales expression, with
// the compliance reason and a suggested rewording. Consumed by both the
// output guardrail and the misleading-phrase check tool.
type ForbiddenPhrase struct {
	Phrase string
	Reason string
	Fix    string
}

// ForbiddenPhrases lists expressions prohibited in consultation output
// under misleading-sales rules.
var ForbiddenPhrases = []ForbiddenPhrase{
	{"무조건 보장", "보장 조건 없이 지급되는 것처럼 오인하게 하는 표현", "약관에서 정한 보장 조건에 따라 지급됩니다"},
	{"100% 보장", "전액 지급을 단정하는 과장 표현", "약관상 지급 기준에 따라 보장됩니다"},
	{"100% 지급", "전액 지급을 단정하는 과장 표현", "약관상 지급 기준에 따라 지급됩니다"},
	{"무조건 가입 가능", "인수 심사 없이 가입되는 것처럼 오인하게 하는 표현", "간편심사 기준을 충족하시면 가입 가능합니다"},
	{"절대 손해", "손실 가능성이 없는 것처럼 오인하게 하는 표현", "중도 해지 시 환급금이 납입액보다 적을 수 있습니다"},
	{"원금 보장", "보험을 저축성 원금보장 상품으로 오인하게 하는 표현", "해약환급금은 납입 보험료와 다를 수 있습니다"},
	{"최고의 상품", "객관적 근거 없는 최상급 표현", "고객 상황에 맞는 상품을 안내해 드립니다"},
	{"업계 1위", "객관적 근거 없는 비교 우위 표현", "구체적 수치는 공시 자료를 확인해 주세요"},
	{"세계 최초", "객관적 근거 없는 최상급 표현", "상품 특징을 구체적으로 안내해 드립니다"},
	{"수익률 보장", "투자 수익을 보장하는 것처럼 오인하게 하는 표현", "공시이율은 변동될 수 있습니다"},
}

// Whitespace inside a phrase matches any run of spaces in the output.
var forbiddenOutputPatterns = func() []struct {
	pattern *regexp.Regexp
	reason  string
} {
	out := make([]struct {
		pattern *regexp.Regexp
		reason  string
	}, len(ForbiddenPhrases))
	for i, fp := range ForbiddenPhrases {
		escaped := regexp.QuoteMeta(fp.Phrase)
		out[i].pattern = regexp.MustCompile(strings.ReplaceAll(escaped, " ", `\s*`))
		out[i].reason = fp.Reason
	}
	return out
}()

// SafeResponse replaces output that still fails checks after the retry
// budget is spent.
const SafeResponse = "죄송합니다. 응답을 생성하는 과정에서 문제가 발견되었습니다. " +
	"다시 질문해 주시면 정확한 정보로 답변드리겠습니다."

// RetryHint builds the system message injected before asking the LLM to
// regenerate a blocked response.
func RetryHint(reason string) string {
	return fmt.Sprintf(
		"[출력 검증 실패] 직전 응답이 다음 이유로 차단되었습니다: %s\n"+
			"위반 표현을 사용하지 않고 같은 내용을 다시 답변해 주세요.", reason)
}

// CheckPIILeak reports personal data appearing in a response.
func CheckPIILeak(text string) Result {
	for _, p := range PIIPatterns {
		if p.Pattern.MatchString(text) {
			return block(fmt.Sprintf("응답에 %s 포함", p.Label))
		}
	}
	return pass()
}

// CheckForbiddenOutput reports banned or exaggerated expressions.
func CheckForbiddenOutput(text string) Result {
	for _, fp := range forbiddenOutputPatterns {
		if match := fp.pattern.FindString(text); match != "" {
			return block(fmt.Sprintf("부적절한 표현 감지: '%s' → %s", match, fp.reason))
		}
	}
	return pass()
}

// CheckEmptyResponse reports empty or whitespace-only responses.
func CheckEmptyResponse(text string) Result {
	if strings.TrimSpace(text) == "" {
		return block("빈 응답")
	}
	return pass()
}

// OutputChecks is the ordered output pipeline. Append to extend.
var OutputChecks = []Check{CheckPIILeak, CheckForbiddenOutput, CheckEmptyResponse}

var productCodePattern = regexp.MustCompile(`\(?\s*B\d{5,}\s*\)?`)
var multiSpacePattern = regexp.MustCompile(`  +`)

// Sanitizer strips internal tool names and product codes from responses
// before they reach the user. Built from the live tool name set so it
// tracks registrations instead of a hardcoded list.
type Sanitizer struct {
	toolNamePattern *regexp.Regexp
}

// NewSanitizer compiles a sanitizer for the given tool names. With no
// names only product codes are stripped.
func NewSanitizer(toolNames []string) *Sanitizer {
	s := &Sanitizer{}
	if len(toolNames) > 0 {
		escaped := make([]string, len(toolNames))
		for i, name := range toolNames {
			escaped[i] = regexp.QuoteMeta(name)
		}
		s.toolNamePattern = regexp.MustCompile(`\b(` + strings.Join(escaped, "|") + `)\b`)
	}
	return s
}

// Sanitize removes tool names and product codes, then collapses the
// double spaces left behind.
func (s *Sanitizer) Sanitize(text string) string {
	if s.toolNamePattern != nil {
		text = s.toolNamePattern.ReplaceAllString(text, "")
	}
	text = productCodePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(text, " "))
}
