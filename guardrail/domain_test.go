package guardrail

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mink555/covergate/embedding"
)

// mapEmbedder returns a fixed vector per exact text; unknown text maps
// to a vector orthogonal to every fixture query.
type mapEmbedder struct {
	vecs map[string][]float32
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := m.vecs[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (m *mapEmbedder) Asymmetric() bool { return false }
func (m *mapEmbedder) Name() string     { return "map" }

type failingEmbedder struct{}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}
func (failingEmbedder) Asymmetric() bool { return false }
func (failingEmbedder) Name() string     { return "failing" }

func newTestClassifier(embedder embedding.Embedder) *DomainClassifier {
	return NewDomainClassifier(embedder, 0.87, 0.03, zap.NewNop())
}

func TestDomainClearlyInDomainPasses(t *testing.T) {
	// Similarity 0.90 to one in-domain exemplar clears the 0.87 gate.
	embedder := &mapEmbedder{vecs: map[string][]float32{
		"우리 회사 상품 뭐 있어?":  {1, 0, 0},
		"우리 회사 판매 상품 알려줘": {0.9, 0.436, 0},
	}}
	classifier := newTestClassifier(embedder)

	result := classifier.Check(context.Background(), "우리 회사 상품 뭐 있어?")
	if !result.Passed {
		t.Errorf("in-domain query blocked: %s", result.Reason)
	}
}

func TestDomainMarginBlocks(t *testing.T) {
	// in=0.853 misses the gate; out=0.898 beats it by 0.045 >= 0.03.
	embedder := &mapEmbedder{vecs: map[string][]float32{
		"주식 추천해줘":         {1, 0, 0},
		"보험료 얼마야?":        {0.853, 0.522, 0},
		"주식 살 만한 종목 추천해줘": {0.898, 0.44, 0},
	}}
	classifier := newTestClassifier(embedder)

	result := classifier.Check(context.Background(), "주식 추천해줘")
	if result.Passed {
		t.Fatal("out-of-domain query passed")
	}
	if result.Reason == "" {
		t.Error("blocked result must carry a reason")
	}
}

func TestDomainAmbiguousPasses(t *testing.T) {
	// in=0.82, out=0.83: under the gate but margin 0.01 < 0.03.
	embedder := &mapEmbedder{vecs: map[string][]float32{
		"라이나생명 상품 문의": {1, 0, 0},
		"보험료 얼마야?":    {0.82, 0.572, 0},
		"은행 예금 금리 비교": {0.83, 0.558, 0},
	}}
	classifier := newTestClassifier(embedder)

	result := classifier.Check(context.Background(), "라이나생명 상품 문의")
	if !result.Passed {
		t.Errorf("ambiguous query should pass to the LLM: %s", result.Reason)
	}
}

func TestDomainShortInputSkipsEmbedding(t *testing.T) {
	classifier := newTestClassifier(failingEmbedder{})

	for _, text := range []string{"네", "응", "  네  ", "아니"} {
		result := classifier.Check(context.Background(), text)
		if !result.Passed {
			t.Errorf("short input %q blocked", text)
		}
	}
}

func TestDomainEmbeddingFailurePasses(t *testing.T) {
	classifier := newTestClassifier(failingEmbedder{})

	result := classifier.Check(context.Background(), "이건 다섯 글자 넘는 질문이야")
	if !result.Passed {
		t.Error("embedding failure must default to pass")
	}
}

// flakyEmbedder fails its first few EmbedBatch calls and then delegates.
type flakyEmbedder struct {
	inner    embedding.Embedder
	failures int
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("embedding backend warming up")
	}
	return f.inner.EmbedBatch(ctx, texts)
}

func (f *flakyEmbedder) Asymmetric() bool { return false }
func (f *flakyEmbedder) Name() string     { return "flaky" }

func TestDomainExemplarLoadRetriesAfterFailure(t *testing.T) {
	// A startup failure while embedding the exemplar sets must not be
	// cached: once the backend recovers, out-of-domain queries are
	// blocked again.
	embedder := &flakyEmbedder{
		failures: 1,
		inner: &mapEmbedder{vecs: map[string][]float32{
			"주식 추천해줘":         {1, 0, 0},
			"주식 살 만한 종목 추천해줘": {1, 0, 0},
		}},
	}
	classifier := newTestClassifier(embedder)

	first := classifier.Check(context.Background(), "주식 추천해줘")
	if !first.Passed {
		t.Fatal("check during backend outage must default to pass")
	}

	second := classifier.Check(context.Background(), "주식 추천해줘")
	if second.Passed {
		t.Error("out-of-domain query passed after the backend recovered")
	}
}
