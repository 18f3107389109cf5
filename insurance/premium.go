package insurance

import (
	"context"
	"encoding/json"
	"fmt"
)

// PremiumEstimate computes an illustrative monthly premium. Age and
// gender are required; when missing the result asks the model to
// collect them from the user first.
type PremiumEstimate struct{}

func (PremiumEstimate) Name() string { return "premium_estimate" }

func (PremiumEstimate) Description() string {
	return "보험 상품의 예상 월 보험료를 산출합니다. 나이와 성별이 필요합니다."
}

func (PremiumEstimate) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00115023)",
			},
			"age": map[string]interface{}{
				"type":        "integer",
				"description": "피보험자 나이. 사용자가 언급하지 않았으면 생략",
			},
			"gender": map[string]interface{}{
				"type":        "string",
				"description": "성별 (M/F). 사용자가 언급하지 않았으면 생략",
			},
		},
		"required": []string{"product_code"},
	}
}

func (PremiumEstimate) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode string `json:"product_code"`
		Age         int    `json:"age"`
		Gender      string `json:"gender"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("premium_estimate: invalid arguments: %w", err)
	}

	if guard := requireUserInfo(map[string]bool{"나이": in.Age > 0, "성별": in.Gender != ""}); guard != "" {
		return guard, nil
	}
	p, ok := products[in.ProductCode]
	if !ok {
		return productNotFound(in.ProductCode), nil
	}
	monthly, ok := calcPremium(in.ProductCode, in.Age, in.Gender)
	if !ok {
		return mustJSON(map[string]string{"error": "보험료 테이블 없음"}), nil
	}

	return mustJSON(map[string]interface{}{
		"product_code":              in.ProductCode,
		"name":                      p.Name,
		"age":                       in.Age,
		"gender":                    in.Gender,
		"estimated_monthly_premium": formatWon(monthly),
		"note":                      "이 금액은 예시이며, 실제 보험료는 상품·보장내용·건강상태에 따라 달라집니다.",
	}), nil
}

// PlanOptions lists payment-term plan options for a product.
type PlanOptions struct{}

func (PlanOptions) Name() string { return "plan_options" }

func (PlanOptions) Description() string {
	return "상품의 납입 기간·납입 방식 플랜 옵션(10년납·20년납·전기납 등)을 조회합니다. 보험료 금액 산출은 premium_estimate 사용."
}

func (PlanOptions) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00312011)",
			},
			"age": map[string]interface{}{
				"type":        "integer",
				"description": "피보험자 나이. 사용자가 언급하지 않았으면 생략",
			},
			"gender": map[string]interface{}{
				"type":        "string",
				"description": "성별 (M/F). 사용자가 언급하지 않았으면 생략",
			},
		},
		"required": []string{"product_code"},
	}
}

func (PlanOptions) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode string `json:"product_code"`
		Age         int    `json:"age"`
		Gender      string `json:"gender"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("plan_options: invalid arguments: %w", err)
	}

	if guard := requireUserInfo(map[string]bool{"나이": in.Age > 0, "성별": in.Gender != ""}); guard != "" {
		return guard, nil
	}
	p, ok := products[in.ProductCode]
	if !ok {
		return productNotFound(in.ProductCode), nil
	}

	var options []map[string]interface{}
	if p.TermYears > 0 {
		options = append(options, map[string]interface{}{
			"payment_term": fmt.Sprintf("%d년납(전기납)", p.TermYears),
			"type":         "전기납",
		})
	}
	if p.RenewalType == "비갱신형(종신)" {
		for _, term := range []int{10, 15, 20} {
			if in.Age+term > 80 {
				continue
			}
			entry := map[string]interface{}{"payment_term": fmt.Sprintf("%d년납", term)}
			// Shorter terms compress the same total into fewer payments.
			if monthly, ok := calcPremium(in.ProductCode, in.Age, in.Gender); ok {
				entry["estimated_monthly"] = formatWon(monthly * 20 / term)
			}
			options = append(options, entry)
		}
	}

	return mustJSON(map[string]interface{}{
		"product_code": in.ProductCode,
		"name":         p.Name,
		"age":          in.Age,
		"gender":       in.Gender,
		"options":      options,
		"plan_types":   p.PlanTypes,
	}), nil
}
