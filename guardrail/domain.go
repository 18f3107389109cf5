package guardrail

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mink555/covergate/embedding"
)

// In-domain and out-of-domain exemplars for the relevance classifier.
// Keyword sets break down on paraphrase ("치매 케어 비용 걱정돼") and on
// every new product name; exemplar similarity judges meaning instead,
// and extending coverage is just another exemplar.
var inDomainExamples = []string{
	"암보험 뭐가 있어?",
	"치아보험 있어?",
	"우리 회사 판매 상품 알려줘",
	"라이나생명 어떤 보험 팔아?",
	"치매보험 상품 있어?",
	"실버치아보험 알려줘",
	"보험료 얼마야?",
	"45세 여성 치아보험 보험료 알려줘",
	"월 납입액이 얼마야?",
	"50세 남성 종신보험 보험료 계산해줘",
	"고혈압 있어도 가입 가능해?",
	"암 진단 받으면 보험금 얼마 받아?",
	"면책기간 뭐야?",
	"인수심사 기준 알려줘",
	"특약 어떤 거 있어?",
	"해약환급금 어떻게 계산해?",
	"청구 방법 알려줘",
	"보험 해지하면 어떻게 돼?",
	"갱신형이랑 비갱신형 차이가 뭐야?",
	"보험 약관 어디서 봐?",
	"계약 부활 신청 방법",
	"보험금 청구 서류 뭐 필요해?",
	"치매간병보험 가입 조건",
	"첫날부터 암보험 보장 범위",
	"골라담는 간편건강보험 심사 기준",
	"채우는335 해약환급금 구조",
}

var outDomainExamples = []string{
	"오늘 날씨 어때?",
	"주식 살 만한 종목 추천해줘",
	"맛있는 식당 어디야?",
	"비트코인 시세 알려줘",
	"내일 미세먼지 농도는?",
	"영어 번역해줘",
	"스마트폰 어떤 거 살까?",
	"영화 추천해줘",
	"운동 방법 알려줘",
	"아파트 매매 시세",
	"자동차 구매 비용",
	"부동산 투자 방법",
	"대학원 입학 조건",
	"비자 신청 방법",
	"음식 레시피 알려줘",
	"여행 코스 추천",
	"세금 신고 방법",
	"은행 예금 금리 비교",
	"코로나 증상 뭐야?",
	"코딩 강의 추천해줘",
}

const domainBlockReason = "보험 관련 질문에만 답변할 수 있습니다. " +
	"보험 상품, 가입, 보장, 청구 등에 대해 질문해 주세요."

// DomainClassifier judges whether input belongs to the insurance
// consultation domain by exemplar similarity. Exemplars are embedded
// with the passage convention and cached on the first successful load;
// queries use the query convention.
//
// Decision order:
//  1. fewer than 5 runes -> pass (short follow-ups like "네", "아니")
//  2. maxIn >= inThreshold -> pass (clearly in-domain)
//  3. maxOut - maxIn >= marginThreshold -> block (clearly out-of-domain)
//  4. otherwise -> pass (ambiguous; the system prompt handles it)
//
// Embedding failure passes: availability over strictness.
type DomainClassifier struct {
	embedder        embedding.Embedder
	inThreshold     float64
	marginThreshold float64
	logger          *zap.Logger

	mu      sync.Mutex
	loaded  bool
	inVecs  [][]float32
	outVecs [][]float32
}

// NewDomainClassifier creates a classifier with the given thresholds.
// The defaults 0.87 / 0.03 were measured against multilingual-e5-large
// with query/passage prefixes; recalibrate both when changing the
// embedding model.
func NewDomainClassifier(embedder embedding.Embedder, inThreshold, marginThreshold float64, logger *zap.Logger) *DomainClassifier {
	return &DomainClassifier{
		embedder:        embedder,
		inThreshold:     inThreshold,
		marginThreshold: marginThreshold,
		logger:          logger,
	}
}

// loadExemplars embeds both exemplar sets, caching only on success. A
// failed load is retried on the next check so a startup hiccup in the
// embedding backend does not leave the gate open for the process
// lifetime.
func (c *DomainClassifier) loadExemplars(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	inVecs, err := embedding.EmbedForTask(ctx, c.embedder, inDomainExamples, embedding.TaskPassage)
	if err != nil {
		return err
	}
	outVecs, err := embedding.EmbedForTask(ctx, c.embedder, outDomainExamples, embedding.TaskPassage)
	if err != nil {
		return err
	}
	c.inVecs = inVecs
	c.outVecs = outVecs
	c.loaded = true
	return nil
}

// Check classifies text. Skipping for follow-up turns is the caller's
// decision; injection checks still apply there.
func (c *DomainClassifier) Check(ctx context.Context, text string) Result {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 5 {
		return pass()
	}

	if err := c.loadExemplars(ctx); err != nil {
		c.logger.Warn("domain exemplar embedding failed, defaulting to pass", zap.Error(err))
		return pass()
	}

	queryVecs, err := embedding.EmbedForTask(ctx, c.embedder, []string{trimmed}, embedding.TaskQuery)
	if err != nil {
		c.logger.Warn("domain query embedding failed, defaulting to pass", zap.Error(err))
		return pass()
	}

	maxIn := maxSimilarity(queryVecs[0], c.inVecs)
	maxOut := maxSimilarity(queryVecs[0], c.outVecs)

	c.logger.Debug("domain check",
		zap.Float64("in", maxIn),
		zap.Float64("out", maxOut),
		zap.Float64("gap", maxOut-maxIn))

	if maxIn >= c.inThreshold {
		return pass()
	}
	if maxOut-maxIn >= c.marginThreshold {
		return block(domainBlockReason)
	}
	return pass()
}

func maxSimilarity(query []float32, corpus [][]float32) float64 {
	best := -1.0
	for _, vec := range corpus {
		sim, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		if sim > best {
			best = sim
		}
	}
	return best
}
