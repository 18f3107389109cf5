package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mink555/covergate/embedding"
)

// MemoryStore is an in-memory VectorStore with exact cosine search.
// Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
	}
}

// Upsert inserts or replaces documents by ID.
func (s *MemoryStore) Upsert(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document with empty ID")
		}
		s.docs[doc.ID] = copyDocument(doc)
	}
	return nil
}

// Query returns up to n documents nearest to the vector, ordered by
// ascending cosine distance.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, n int, filter map[string]string) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(s.docs))
	for _, doc := range s.docs {
		if !matchesFilter(doc, filter) {
			continue
		}
		similarity, err := embedding.CosineSimilarity(vector, doc.Vector)
		if err != nil {
			return nil, fmt.Errorf("query against document %s: %w", doc.ID, err)
		}
		results = append(results, Result{
			Document: copyDocument(doc),
			Distance: 1 - similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Delete removes documents by ID. Missing IDs are ignored.
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// IDs returns the IDs of all documents matching the filter, sorted.
func (s *MemoryStore) IDs(ctx context.Context, filter map[string]string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id, doc := range s.docs {
		if matchesFilter(doc, filter) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Get returns the document with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false, nil
	}
	return copyDocument(doc), true, nil
}

// copyDocument deep-copies vector and metadata so callers cannot mutate
// stored state.
func copyDocument(doc Document) Document {
	out := Document{
		ID:   doc.ID,
		Text: doc.Text,
	}
	if doc.Vector != nil {
		out.Vector = make([]float32, len(doc.Vector))
		copy(out.Vector, doc.Vector)
	}
	if doc.Metadata != nil {
		out.Metadata = make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Verify MemoryStore implements VectorStore
var _ VectorStore = (*MemoryStore)(nil)
