// Google GenAI embedding backend.

package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGenAIEmbeddingModel = "gemini-embedding-001"

// GenAIEmbedder generates embeddings using Google's Gemini API. The
// query/passage distinction maps to the API's native task types, so no
// text prefixes are needed.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates a new GenAI embedding backend.
func NewGenAIEmbedder(apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIEmbeddingModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEmbedder{
		client: client,
		model:  model,
	}, nil
}

// EmbedBatch generates embeddings with the semantic similarity task type.
// Retrieval callers should go through EmbedBatchTask instead.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, "SEMANTIC_SIMILARITY")
}

// EmbedBatchTask generates embeddings with the retrieval task type
// matching the given task.
func (e *GenAIEmbedder) EmbedBatchTask(ctx context.Context, texts []string, task Task) ([][]float32, error) {
	taskType := "RETRIEVAL_DOCUMENT"
	if task == TaskQuery {
		taskType = "RETRIEVAL_QUERY"
	}
	return e.embed(ctx, texts, taskType)
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: taskType,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("GenAI embed returned %d vectors for %d inputs", len(result.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = Normalize(emb.Values)
	}

	return embeddings, nil
}

// Asymmetric is false; the query/passage split is carried by task types.
func (e *GenAIEmbedder) Asymmetric() bool {
	return false
}

// Name returns the backend name.
func (e *GenAIEmbedder) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}

// Verify GenAIEmbedder implements both interfaces
var (
	_ Embedder  = (*GenAIEmbedder)(nil)
	_ TaskAware = (*GenAIEmbedder)(nil)
)
