// OpenAI embedding backend using go-openai.

package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder generates embeddings via the OpenAI Embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	asymmetric bool
}

// NewOpenAIEmbedder creates a new OpenAI embedding backend.
func NewOpenAIEmbedder(apiKey, model string, asymmetric bool) *OpenAIEmbedder {
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		asymmetric: asymmetric,
	}
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// Response order is not guaranteed to match input order; use Index.
	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("openai embed returned out-of-range index %d", item.Index)
		}
		embeddings[item.Index] = Normalize(item.Embedding)
	}

	return embeddings, nil
}

// Asymmetric reports whether the query:/passage: prefix convention applies.
func (e *OpenAIEmbedder) Asymmetric() bool {
	return e.asymmetric
}

// Name returns the backend name.
func (e *OpenAIEmbedder) Name() string {
	return fmt.Sprintf("openai:%s", e.model)
}

// Verify OpenAIEmbedder implements Embedder
var _ Embedder = (*OpenAIEmbedder)(nil)
