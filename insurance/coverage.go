package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CoverageSummary returns the full benefit table for one product.
type CoverageSummary struct{}

func (CoverageSummary) Name() string { return "coverage_summary" }

func (CoverageSummary) Description() string {
	return "상품의 전체 보장 내용을 한번에 요약합니다. 특정 보장 유형 1개만 조회할 때는 coverage_detail 사용."
}

func (CoverageSummary) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00115023)",
			},
		},
		"required": []string{"product_code"},
	}
}

func (CoverageSummary) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode string `json:"product_code"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("coverage_summary: invalid arguments: %w", err)
	}

	cov, ok := coverages[in.ProductCode]
	if !ok {
		return mustJSON(map[string]string{
			"error": fmt.Sprintf("상품 '%s'의 보장 정보 없음", in.ProductCode),
		}), nil
	}
	name := ""
	if p, ok := products[in.ProductCode]; ok {
		name = p.Name
	}
	return mustJSON(map[string]interface{}{
		"product_code": in.ProductCode,
		"name":         name,
		"coverage":     cov,
	}), nil
}

// CoverageDetail looks up a single coverage type within a product.
type CoverageDetail struct{}

func (CoverageDetail) Name() string { return "coverage_detail" }

func (CoverageDetail) Description() string {
	return "상품의 특정 보장 유형(암·사망·치아·입원 등) 1개를 상세 조회합니다. 전체 보장 요약이 필요하면 coverage_summary 사용."
}

func (CoverageDetail) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00115023)",
			},
			"coverage_type": map[string]interface{}{
				"type":        "string",
				"description": "보장 유형 (예: 암, 사망, 치아, 입원)",
			},
		},
		"required": []string{"product_code", "coverage_type"},
	}
}

func (CoverageDetail) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode  string `json:"product_code"`
		CoverageType string `json:"coverage_type"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("coverage_detail: invalid arguments: %w", err)
	}

	cov, ok := coverages[in.ProductCode]
	if !ok {
		return mustJSON(map[string]string{
			"error": fmt.Sprintf("상품 '%s'의 보장 정보 없음", in.ProductCode),
		}), nil
	}

	needle := strings.ToLower(in.CoverageType)
	matched := make(map[string]string)
	for section, benefits := range cov {
		for benefit, amount := range benefits {
			if strings.Contains(strings.ToLower(benefit), needle) ||
				strings.Contains(strings.ToLower(section), needle) {
				matched[benefit] = amount
			}
		}
	}

	result := map[string]interface{}{
		"product_code":  in.ProductCode,
		"coverage_type": in.CoverageType,
	}
	if len(matched) > 0 {
		result["details"] = matched
	} else {
		result["details"] = cov
	}
	if wp, ok := waitingPeriods[in.ProductCode]; ok {
		result["waiting_periods"] = wp
	}
	return mustJSON(result), nil
}

// RiderBundleRecommend suggests rider combinations for a coverage goal.
type RiderBundleRecommend struct{}

func (RiderBundleRecommend) Name() string { return "rider_bundle_recommend" }

func (RiderBundleRecommend) Description() string {
	return "계약자 목표에 맞는 특약 조합을 추천합니다."
}

func (RiderBundleRecommend) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드 (예: B00172014)",
			},
			"goal": map[string]interface{}{
				"type":        "string",
				"description": "계약자 보장 목표 (예: 입원, 수술, 간병)",
			},
		},
		"required": []string{"product_code"},
	}
}

func (RiderBundleRecommend) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode string `json:"product_code"`
		Goal        string `json:"goal"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("rider_bundle_recommend: invalid arguments: %w", err)
	}

	available, ok := riders[in.ProductCode]
	if !ok {
		return mustJSON(map[string]string{
			"error": fmt.Sprintf("상품 '%s'의 특약 정보 없음", in.ProductCode),
		}), nil
	}

	goal := strings.ToLower(in.Goal)
	var recommendations []Rider
	for _, r := range available {
		searchable := strings.ToLower(r.Name + r.Desc)
		if goal == "" || containsAnyWord(searchable, goal) {
			recommendations = append(recommendations, r)
		}
	}
	if len(recommendations) == 0 {
		recommendations = available[:min(2, len(available))]
	}
	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}

	return mustJSON(map[string]interface{}{
		"product_code":    in.ProductCode,
		"goal":            in.Goal,
		"recommendations": recommendations,
		"note":            "계약자의 보장 니즈와 예산에 따라 최종 결정해 주세요.",
	}), nil
}

func containsAnyWord(haystack, words string) bool {
	for _, w := range strings.Fields(words) {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
