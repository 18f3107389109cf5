package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ProductSearch finds products by keyword or category.
type ProductSearch struct{}

func (ProductSearch) Name() string { return "product_search" }

func (ProductSearch) Description() string {
	return "판매 중인 보험 상품을 키워드 또는 카테고리로 검색합니다. 전체 상품 목록 조회에도 사용합니다."
}

func (ProductSearch) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"keyword": map[string]interface{}{
				"type":        "string",
				"description": "상품명·키워드 검색어 (예: 암, 치아, 종신)",
			},
			"category": map[string]interface{}{
				"type":        "string",
				"description": "카테고리 필터 (예: 암/건강, 사망/종신)",
			},
		},
	}
}

func (ProductSearch) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		Keyword  string `json:"keyword"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("product_search: invalid arguments: %w", err)
	}

	keyword := strings.ToLower(in.Keyword)
	var results []Product
	for _, p := range products {
		searchable := strings.ToLower(p.Name + p.Category + strings.Join(p.Highlights, " "))
		switch {
		case keyword != "" && strings.Contains(searchable, keyword):
			results = append(results, p)
		case in.Category != "" && strings.Contains(p.Category, in.Category):
			results = append(results, p)
		}
	}
	if len(results) == 0 {
		for _, p := range products {
			results = append(results, p)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Code < results[j].Code })

	return mustJSON(map[string]interface{}{
		"products": results,
		"total":    len(results),
		"query":    map[string]string{"keyword": in.Keyword, "category": in.Category},
	}), nil
}

// ProductGet looks up one product by its code, falling back to a name
// substring match so "치아보험" works without the code.
type ProductGet struct{}

func (ProductGet) Name() string { return "product_get" }

func (ProductGet) Description() string {
	return "상품 코드(B로 시작)로 상품 상세 정보를 조회합니다."
}

func (ProductGet) Schema() map[string]interface{} {
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

func (ProductGet) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		ProductCode string `json:"product_code"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("product_get: invalid arguments: %w", err)
	}

	p, ok := products[in.ProductCode]
	if !ok {
		needle := strings.ToLower(in.ProductCode)
		for _, cand := range products {
			if strings.Contains(strings.ToLower(cand.Name), needle) {
				p, ok = cand, true
				break
			}
		}
	}
	if !ok {
		return productNotFound(in.ProductCode), nil
	}
	return mustJSON(map[string]interface{}{"product": p}), nil
}
