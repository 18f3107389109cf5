// Package vectorstore provides document storage with vector similarity
// search over cosine distance.
package vectorstore

import "context"

// Document is a stored text with its embedding and metadata.
type Document struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// Result is a query hit with its cosine distance from the query vector.
// Distance is 1 - cosine similarity, so 0 means identical direction.
type Result struct {
	Document Document
	Distance float64
}

// VectorStore stores documents and answers nearest-neighbour queries.
type VectorStore interface {
	// Upsert inserts or replaces documents by ID.
	Upsert(ctx context.Context, docs []Document) error

	// Query returns up to n documents nearest to the vector, filtered by
	// metadata equality, ordered by ascending distance.
	Query(ctx context.Context, vector []float32, n int, filter map[string]string) ([]Result, error)

	// Delete removes documents by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// IDs returns the IDs of all documents matching the metadata filter.
	IDs(ctx context.Context, filter map[string]string) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Get returns the document with the given ID, or ok=false.
	Get(ctx context.Context, id string) (Document, bool, error)
}

// matchesFilter reports whether a document's metadata satisfies every
// key/value pair in the filter. A nil or empty filter matches everything.
func matchesFilter(doc Document, filter map[string]string) bool {
	for k, v := range filter {
		if doc.Metadata[k] != v {
			return false
		}
	}
	return true
}
