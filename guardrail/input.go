package guardrail

import "regexp"

// injectionPatterns covers English and Korean override, authority, and
// jailbreak phrasing.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+`),
	regexp.MustCompile(`(?i)(system\s*prompt|시스템\s*프롬프트|시스템\s*메시지)`),
	regexp.MustCompile(`(?i)(jailbreak|탈옥|DAN\s*mode)`),
	regexp.MustCompile(`(?i)(pretend|act\s+as\s+if)\s+you`),
	regexp.MustCompile(`(?i)역할을?\s*(바꿔|변경|무시)`),
	regexp.MustCompile(`(?i)(이전|위의?|앞의?)\s*(지시|명령|규칙|프롬프트)를?\s*(무시|잊어|버려)`),
	regexp.MustCompile(`(?i)(설정|지시|명령|규칙)을?\s*(무시|잊어|버려|바꿔|변경)`),
	regexp.MustCompile(`(?i)(권한|관리자\s*권한|모든\s*권한)을?\s*(줘|넘겨|부여|획득)`),
	regexp.MustCompile(`(?i)(모든\s*)?(제약|제한|규칙|필터)을?\s*(해제|무시|없애|풀어)`),
}

const injectionBlockReason = "죄송합니다. 해당 요청은 처리할 수 없습니다."

// CheckPromptInjection detects prompt injection attempts. Applied to
// every turn, including follow-ups.
func CheckPromptInjection(text string) Result {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(text) {
			return block(injectionBlockReason)
		}
	}
	return pass()
}
