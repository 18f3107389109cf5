// Package embedding generates vector embeddings for retrieval.
// Supports OpenAI and Google GenAI backends.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/mink555/covergate/config"
)

// Task distinguishes queries from indexed passages for backends that
// embed the two sides differently.
type Task int

const (
	// TaskQuery embeds text used to search the index.
	TaskQuery Task = iota
	// TaskPassage embeds text stored in the index.
	TaskPassage
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Asymmetric reports whether the backend expects the query:/passage:
	// prefix convention on input text.
	Asymmetric() bool

	// Name returns the backend name.
	Name() string
}

// TaskAware is an optional interface for backends that encode the
// query/passage distinction natively instead of via text prefixes.
type TaskAware interface {
	EmbedBatchTask(ctx context.Context, texts []string, task Task) ([][]float32, error)
}

// NewEmbedder creates an embedding backend from configuration.
func NewEmbedder(cfg config.EmbeddingConfig, apiKey string) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(apiKey, cfg.Model, cfg.Asymmetric), nil
	case "genai":
		return NewGenAIEmbedder(apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'openai' or 'genai')", cfg.Provider)
	}
}

// EmbedForTask embeds texts for the given task, routing through the
// backend's native task support when available and falling back to the
// prefix convention for asymmetric prefix-style models.
func EmbedForTask(ctx context.Context, embedder Embedder, texts []string, task Task) ([][]float32, error) {
	if ta, ok := embedder.(TaskAware); ok {
		return ta.EmbedBatchTask(ctx, texts, task)
	}
	if embedder.Asymmetric() {
		prefixed := make([]string, len(texts))
		for i, t := range texts {
			prefixed[i] = applyPrefix(t, task)
		}
		return embedder.EmbedBatch(ctx, prefixed)
	}
	return embedder.EmbedBatch(ctx, texts)
}

func applyPrefix(text string, task Task) string {
	if task == TaskQuery {
		return "query: " + text
	}
	return "passage: " + text
}

// Normalize scales a vector to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dotProduct, aMagnitude, bMagnitude float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		aMagnitude += float64(a[i]) * float64(a[i])
		bMagnitude += float64(b[i]) * float64(b[i])
	}

	if aMagnitude == 0 || bMagnitude == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(aMagnitude) * math.Sqrt(bMagnitude)), nil
}
