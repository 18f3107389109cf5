package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TermsQuery searches policy clause text for exemptions, exclusions,
// definitions, and disclosure rules. The clause set here is a static
// excerpt; a document ingestion pipeline would feed it in production.
type TermsQuery struct{}

func (TermsQuery) Name() string { return "rag_terms_query_engine" }

func (TermsQuery) Description() string {
	return "약관·규정 문서 전용 검색. 면책·예외·정의·고지의무 등 약관 원문이 필요할 때 사용합니다."
}

func (TermsQuery) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "검색 질문 (예: 암 면책기간, 치아보험 보장개시일)",
			},
			"product_code": map[string]interface{}{
				"type":        "string",
				"description": "상품 코드로 범위 한정 (빈 값이면 전체 검색)",
			},
		},
		"required": []string{"query"},
	}
}

func (TermsQuery) Invoke(ctx context.Context, args []byte) (string, error) {
	var in struct {
		Query       string `json:"query"`
		ProductCode string `json:"product_code"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("rag_terms_query_engine: invalid arguments: %w", err)
	}

	type scored struct {
		clause termsClause
		score  int
	}
	terms := strings.Fields(strings.ToLower(in.Query))
	var hits []scored
	for _, clause := range termsClauses {
		if in.ProductCode != "" && clause.ProductCode != "" && clause.ProductCode != in.ProductCode {
			continue
		}
		haystack := strings.ToLower(clause.Source + " " + clause.Text)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{clause, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > 5 {
		hits = hits[:5]
	}

	documents := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		documents = append(documents, map[string]interface{}{
			"text":  h.clause.Text,
			"score": h.score,
			"metadata": map[string]string{
				"source":       h.clause.Source,
				"product_code": h.clause.ProductCode,
			},
		})
	}

	queryUsed := in.Query
	if in.ProductCode != "" {
		queryUsed = strings.TrimSpace(in.ProductCode + " " + in.Query)
	}
	return mustJSON(map[string]interface{}{
		"documents":  documents,
		"total":      len(documents),
		"query_used": queryUsed,
	}), nil
}
