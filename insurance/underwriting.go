package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// UnderwritingPrecheck screens age and medical history against a
// product's acceptance rules. It is a pre-check: anything beyond clear
// knock-outs is routed to expert review.
type UnderwritingPrecheck struct{}

func (UnderwritingPrecheck) Name() string { return "underwriting_precheck" }

func (UnderwritingPrecheck) Description() string {
	return "나이·병력 기반 인수 사전 적합성 검토. 특정 고객의 건강 이력으로 가입 가능 여부를 판단할 때 사용."
}

func (UnderwritingPrecheck) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00172014)",
			},
			"age": map[string]interface{}{
				"type":        "integer",
				"description": "피보험자 나이. 사용자가 언급하지 않았으면 생략",
			},
			"gender": map[string]interface{}{
				"type":        "string",
				"description": "성별 (M: 남성, F: 여성, 빈 값 허용)",
			},
			"history_summary": map[string]interface{}{
				"type":        "string",
				"description": "병력/건강 이력 요약 (예: 고혈압 5년, 당뇨 투약 중)",
			},
		},
		"required": []string{"product_code"},
	}
}

func (UnderwritingPrecheck) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode    string `json:"product_code"`
		Age            int    `json:"age"`
		Gender         string `json:"gender"`
		HistorySummary string `json:"history_summary"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("underwriting_precheck: invalid arguments: %w", err)
	}

	if guard := requireUserInfo(map[string]bool{"나이": in.Age > 0}); guard != "" {
		return guard, nil
	}
	p, ok := products[in.ProductCode]
	if !ok {
		return mustJSON(map[string]interface{}{
			"eligible": false,
			"reason":   fmt.Sprintf("상품 '%s' 없음", in.ProductCode),
		}), nil
	}

	var knockouts, caveats []string
	if in.Age < p.MinAge {
		knockouts = append(knockouts, fmt.Sprintf("최소 가입 나이(%d세) 미만", p.MinAge))
	}
	if in.Age > p.MaxAge {
		knockouts = append(knockouts, fmt.Sprintf("최대 가입 나이(%d세) 초과", p.MaxAge))
	}

	if in.HistorySummary != "" {
		history := strings.ToLower(in.HistorySummary)
		flags := append([]historyFlag{}, historyFlags["_common"]...)
		flags = append(flags, historyFlags[in.ProductCode]...)
		for _, flag := range flags {
			for _, kw := range flag.keywords {
				if !strings.Contains(history, kw) {
					continue
				}
				if flag.isKnockout {
					knockouts = append(knockouts, flag.note)
				} else {
					caveats = append(caveats, flag.note)
				}
				break
			}
		}
	}

	eligible := len(knockouts) == 0
	needsReview := len(caveats) > 0 ||
		(in.HistorySummary != "" && eligible && len(caveats) == 0)

	return mustJSON(map[string]interface{}{
		"product_code":            in.ProductCode,
		"product_name":            p.Name,
		"age":                     in.Age,
		"gender":                  in.Gender,
		"eligible":                eligible,
		"knockout_issues":         knockouts,
		"coverage_caveats":        caveats,
		"needs_expert_review":     needsReview,
		"simplified_underwriting": p.SimplifiedUnderwriting,
	}), nil
}
