package embedding

import (
	"context"
	"math"
	"strings"
	"testing"
)

// stubEmbedder records the texts it was asked to embed.
type stubEmbedder struct {
	asymmetric bool
	seen       []string
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.seen = append(s.seen, texts...)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (s *stubEmbedder) Asymmetric() bool { return s.asymmetric }
func (s *stubEmbedder) Name() string     { return "stub" }

// taskStub additionally records the task it was given.
type taskStub struct {
	stubEmbedder
	tasks []Task
}

func (s *taskStub) EmbedBatchTask(ctx context.Context, texts []string, task Task) ([][]float32, error) {
	s.tasks = append(s.tasks, task)
	return s.EmbedBatch(ctx, texts)
}

func TestEmbedForTaskPrefixes(t *testing.T) {
	stub := &stubEmbedder{asymmetric: true}

	if _, err := EmbedForTask(context.Background(), stub, []string{"암보험 추천"}, TaskQuery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := EmbedForTask(context.Background(), stub, []string{"암 진단비를 보장하는 상품"}, TaskPassage); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.seen) != 2 {
		t.Fatalf("expected 2 embedded texts, got %d", len(stub.seen))
	}
	if !strings.HasPrefix(stub.seen[0], "query: ") {
		t.Errorf("query text missing prefix: %q", stub.seen[0])
	}
	if !strings.HasPrefix(stub.seen[1], "passage: ") {
		t.Errorf("passage text missing prefix: %q", stub.seen[1])
	}
}

func TestEmbedForTaskSymmetricNoPrefix(t *testing.T) {
	stub := &stubEmbedder{asymmetric: false}

	if _, err := EmbedForTask(context.Background(), stub, []string{"암보험 추천"}, TaskQuery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.seen[0] != "암보험 추천" {
		t.Errorf("symmetric embedder should see raw text, got %q", stub.seen[0])
	}
}

func TestEmbedForTaskPrefersTaskAware(t *testing.T) {
	stub := &taskStub{stubEmbedder: stubEmbedder{asymmetric: true}}

	if _, err := EmbedForTask(context.Background(), stub, []string{"claim process"}, TaskQuery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.tasks) != 1 || stub.tasks[0] != TaskQuery {
		t.Fatalf("expected one TaskQuery call, got %v", stub.tasks)
	}
	// Task-aware backends must never receive text prefixes.
	if strings.HasPrefix(stub.seen[0], "query: ") {
		t.Errorf("task-aware backend received prefixed text: %q", stub.seen[0])
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("expected unit length, got squared norm %f", sum)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("zero vector changed at %d: %f", i, x)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
