package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mink555/covergate/guardrail"
)

// MisleadingCheck flags banned sales expressions in draft consultation
// text. It shares the phrase table with the output guardrail so the two
// never disagree about what is allowed.
type MisleadingCheck struct{}

func (MisleadingCheck) Name() string { return "compliance_misleading_check" }

func (MisleadingCheck) Description() string {
	return "상담 문구에 과장·오인 소지가 있는 금지 표현이 있는지 검사하고 대체 문구를 제안합니다."
}

func (MisleadingCheck) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "검사할 상담 문구",
			},
		},
		"required": []string{"text"},
	}
}

func (MisleadingCheck) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("compliance_misleading_check: invalid arguments: %w", err)
	}

	var issues []map[string]string
	for _, fp := range guardrail.ForbiddenPhrases {
		pattern := regexp.MustCompile(strings.ReplaceAll(regexp.QuoteMeta(fp.Phrase), " ", `\s*`))
		if found := pattern.FindString(in.Text); found != "" {
			issues = append(issues, map[string]string{
				"found":         found,
				"reason":        fp.Reason,
				"suggested_fix": fp.Fix,
			})
		}
	}

	return mustJSON(map[string]interface{}{
		"text":         in.Text,
		"is_ok":        len(issues) == 0,
		"issues":       issues,
		"total_issues": len(issues),
	}), nil
}

// PrivacyMasking replaces personal data in text with category labels.
type PrivacyMasking struct{}

func (PrivacyMasking) Name() string { return "privacy_masking" }

func (PrivacyMasking) Description() string {
	return "문서에 포함된 개인정보(주민등록번호, 전화번호, 카드번호, 이메일, 계좌번호)를 마스킹합니다."
}

func (PrivacyMasking) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "마스킹할 원문",
			},
		},
		"required": []string{"text"},
	}
}

func (PrivacyMasking) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("privacy_masking: invalid arguments: %w", err)
	}

	masked := in.Text
	var applied []string
	for _, p := range guardrail.PIIPatterns {
		if !p.Pattern.MatchString(masked) {
			continue
		}
		masked = p.Pattern.ReplaceAllString(masked, "["+p.Label+"]")
		applied = append(applied, p.Label)
	}

	return mustJSON(map[string]interface{}{
		"original_length": len([]rune(in.Text)),
		"masked_text":     masked,
		"applied_masks":   applied,
	}), nil
}
