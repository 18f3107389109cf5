package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ClaimGuide explains claim procedures per claim type. The common
// steps are always included alongside any type-specific guidance.
type ClaimGuide struct{}

func (ClaimGuide) Name() string { return "claim_guide" }

func (ClaimGuide) Description() string {
	return "보험금 청구 유형별 절차와 안내를 제공합니다. 예: 사망, 진단, 입원."
}

func (ClaimGuide) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"claim_type": map[string]interface{}{
				"type":        "string",
				"description": "청구 유형 (예: 사망, 암진단, 입원, 수술, 치과)",
			},
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (빈 값이면 공통 안내)",
			},
		},
		"required": []string{"claim_type"},
	}
}

func (ClaimGuide) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ClaimType   string `json:"claim_type"`
		ProductCode string `json:"product_code"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("claim_guide: invalid arguments: %w", err)
	}

	guide := map[string]interface{}{"공통": claimGuides["공통"]}
	needle := strings.ToLower(in.ClaimType)
	for claimType, steps := range claimGuides {
		if claimType == "공통" {
			continue
		}
		if strings.Contains(strings.ToLower(claimType), needle) {
			guide[claimType] = steps
		}
	}
	if len(guide) == 1 {
		guide["note"] = fmt.Sprintf(
			"'%s' 유형에 해당하는 세부 가이드를 찾지 못했습니다. 아래 공통 안내를 참고해 주세요.", in.ClaimType)
	}

	scope := in.ProductCode
	if scope == "" {
		scope = "전체"
	}
	return mustJSON(map[string]interface{}{
		"claim_type":   in.ClaimType,
		"product_code": scope,
		"guide":        guide,
	}), nil
}
