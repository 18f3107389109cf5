package toolindex

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mink555/covergate/embedding"
	"github.com/mink555/covergate/toolcard"
	"github.com/mink555/covergate/tools"
	"github.com/mink555/covergate/vectorstore"
)

// hashEmbedder maps each distinct text to a deterministic unit vector,
// so identical query and document text gives distance 0.
type hashEmbedder struct{}

func (hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New64a()
		h.Write([]byte(strings.TrimPrefix(strings.TrimPrefix(text, "query: "), "passage: ")))
		sum := h.Sum64()
		v := []float32{
			float32(sum%997) + 1,
			float32((sum>>16)%991) + 1,
			float32((sum>>32)%983) + 1,
		}
		out[i] = embedding.Normalize(v)
	}
	return out, nil
}

func (hashEmbedder) Asymmetric() bool { return false }
func (hashEmbedder) Name() string     { return "hash" }

type stubTool struct {
	name string
	desc string
}

func (s stubTool) Name() string                   { return s.name }
func (s stubTool) Description() string            { return s.desc }
func (s stubTool) Schema() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (s stubTool) Invoke(ctx context.Context, args []byte) (string, error) {
	return "", nil
}

var _ tools.Tool = stubTool{}

// countingStore wraps a VectorStore and counts write operations.
type countingStore struct {
	vectorstore.VectorStore
	upserts int
	deletes int
}

func (c *countingStore) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	c.upserts++
	return c.VectorStore.Upsert(ctx, docs)
}

func (c *countingStore) Delete(ctx context.Context, ids []string) error {
	c.deletes++
	return c.VectorStore.Delete(ctx, ids)
}

func catalogWith(cards ...toolcard.ToolCard) *toolcard.Catalog {
	catalog := toolcard.NewCatalog()
	for _, c := range cards {
		catalog.Set(c)
	}
	return catalog
}

func testTools() []tools.Tool {
	return []tools.Tool{
		stubTool{name: "product_search", desc: "search products"},
		stubTool{name: "claim_guide", desc: "claim procedures"},
	}
}

func TestReindexCreatesDocuments(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "tool_product_search"); !ok {
		t.Error("purpose document missing")
	}
	if _, ok, _ := store.Get(ctx, "tool_product_search__use_0"); !ok {
		t.Error("example document missing")
	}
	if _, ok, _ := store.Get(ctx, "tool_product_search__tags"); !ok {
		t.Error("tags document missing")
	}
	if _, ok, _ := store.Get(ctx, "__spec_version__"); !ok {
		t.Error("version marker missing")
	}
}

func TestReindexSkipsWhenUnchanged(t *testing.T) {
	inner := vectorstore.NewMemoryStore()
	store := &countingStore{VectorStore: inner}
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("first reindex failed: %v", err)
	}
	writesAfterFirst := store.upserts

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("second reindex failed: %v", err)
	}
	if store.upserts != writesAfterFirst {
		t.Errorf("second reindex wrote %d times, expected none", store.upserts-writesAfterFirst)
	}
}

func TestReindexCardChangeTriggersRewrite(t *testing.T) {
	inner := vectorstore.NewMemoryStore()
	store := &countingStore{VectorStore: inner}
	catalog := toolcard.NewCatalog()
	idx := New(store, hashEmbedder{}, catalog, 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	writesAfterFirst := store.upserts

	catalog.Set(toolcard.ToolCard{Name: "product_search", Purpose: "completely new purpose"})
	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex after card change failed: %v", err)
	}
	if store.upserts == writesAfterFirst {
		t.Error("card change should trigger re-index writes")
	}
}

func TestReindexDropsStaleDocuments(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	catalog := catalogWith(
		toolcard.ToolCard{Name: "t1", Purpose: "purpose one", WhenToUse: []string{"ex a", "ex b"}},
	)
	idx := New(store, hashEmbedder{}, catalog, 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, []tools.Tool{stubTool{name: "t1"}, stubTool{name: "t2", desc: "tool two"}}); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	// Shrink the example list and drop the second tool.
	catalog.Set(toolcard.ToolCard{Name: "t1", Purpose: "purpose one", WhenToUse: []string{"ex a"}})
	if err := idx.Reindex(ctx, []tools.Tool{stubTool{name: "t1"}}); err != nil {
		t.Fatalf("second reindex failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "tool_t1__use_1"); ok {
		t.Error("shrunk example document not removed")
	}
	if _, ok, _ := store.Get(ctx, "tool_t2"); ok {
		t.Error("removed tool's document not cleaned")
	}
	if _, ok, _ := store.Get(ctx, "tool_t1__use_0"); !ok {
		t.Error("surviving document was removed")
	}
}

// hookedStore runs a callback before delegating a Delete, to observe
// the index mid-reindex.
type hookedStore struct {
	vectorstore.VectorStore
	onDelete func()
}

func (s *hookedStore) Delete(ctx context.Context, ids []string) error {
	if s.onDelete != nil {
		s.onDelete()
	}
	return s.VectorStore.Delete(ctx, ids)
}

func TestSearchDuringReindexSeesEveryCurrentTool(t *testing.T) {
	// New documents are upserted before stale ones are deleted, so a
	// search landing between the two steps must still return every
	// tool in the current set.
	store := &hookedStore{VectorStore: vectorstore.NewMemoryStore()}
	catalog := catalogWith(
		toolcard.ToolCard{Name: "t1", Purpose: "premium estimation", WhenToUse: []string{"ex a", "ex b"}},
		toolcard.ToolCard{Name: "t2", Purpose: "claim procedures"},
	)
	idx := New(store, hashEmbedder{}, catalog, 5, zap.NewNop())
	ctx := context.Background()

	toolSet := []tools.Tool{stubTool{name: "t1"}, stubTool{name: "t2"}}
	if err := idx.Reindex(ctx, toolSet); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	// Shrinking the example list forces a rebuild with a stale
	// document, so the second reindex reaches the delete step.
	catalog.Set(toolcard.ToolCard{Name: "t1", Purpose: "premium estimation", WhenToUse: []string{"ex a"}})

	hookRan := false
	store.onDelete = func() {
		hookRan = true
		for _, query := range []string{"premium estimation", "claim procedures"} {
			candidates, err := idx.Search(ctx, query, 5)
			if err != nil {
				t.Fatalf("mid-reindex search %q: %v", query, err)
			}
			found := map[string]bool{}
			for _, c := range candidates {
				found[c.Name] = true
			}
			if !found["t1"] || !found["t2"] {
				t.Errorf("mid-reindex search %q missing tools: %+v", query, candidates)
			}
		}
	}

	if err := idx.Reindex(ctx, toolSet); err != nil {
		t.Fatalf("second reindex failed: %v", err)
	}
	if !hookRan {
		t.Fatal("reindex never reached the delete step")
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(vectorstore.NewMemoryStore(), hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())

	candidates, err := idx.Search(context.Background(), "아무 질문", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty result, got %d", len(candidates))
	}
}

func TestSearchExactExampleRanksToolFirst(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	catalog := toolcard.NewCatalog()
	idx := New(store, hashEmbedder{}, catalog, 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	candidates, err := idx.Search(ctx, "보험금 청구 어떻게 해?", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected candidates")
	}
	if candidates[0].Name != "claim_guide" {
		t.Errorf("expected claim_guide first, got %q", candidates[0].Name)
	}
	if candidates[0].Score < 0.999 {
		t.Errorf("exact example match should score ~1.0, got %f", candidates[0].Score)
	}
}

func TestSearchNeverReturnsVersionMarker(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	candidates, err := idx.Search(ctx, "version:", 50)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, c := range candidates {
		if c.Name == "" || strings.Contains(c.Name, "spec_version") {
			t.Errorf("version marker leaked into results: %+v", c)
		}
	}
}

func TestRemoveTool(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if err := idx.Remove(ctx, "claim_guide"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	ids, _ := store.IDs(ctx, nil)
	for _, id := range ids {
		if strings.HasPrefix(id, "tool_claim_guide") {
			t.Errorf("document %q survived removal", id)
		}
	}

	// Unrelated tool still searchable in the same call sequence.
	candidates, err := idx.Search(ctx, "우리 회사 상품 뭐 있어?", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, c := range candidates {
		if c.Name == "claim_guide" {
			t.Error("removed tool still in search results")
		}
	}
	if len(candidates) == 0 || candidates[0].Name != "product_search" {
		t.Errorf("unrelated tool ranking affected: %+v", candidates)
	}
}

func TestRemovePrefixIsExact(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	catalog := catalogWith(
		toolcard.ToolCard{Name: "claim", Purpose: "short name"},
		toolcard.ToolCard{Name: "claim_guide", Purpose: "long name"},
	)
	idx := New(store, hashEmbedder{}, catalog, 5, zap.NewNop())
	ctx := context.Background()

	toolSet := []tools.Tool{stubTool{name: "claim"}, stubTool{name: "claim_guide"}}
	if err := idx.Reindex(ctx, toolSet); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if err := idx.Remove(ctx, "claim"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "tool_claim_guide"); !ok {
		t.Error("removing 'claim' must not touch 'claim_guide'")
	}
	if _, ok, _ := store.Get(ctx, "tool_claim"); ok {
		t.Error("'claim' document survived removal")
	}
}

func TestReindexRebuildsAfterRemove(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())
	ctx := context.Background()

	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if err := idx.Remove(ctx, "product_search"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "__spec_version__"); ok {
		t.Fatal("version marker survived a removal")
	}

	// Re-registering the identical tool set must rebuild instead of
	// hash-matching against the pre-removal marker.
	if err := idx.Reindex(ctx, testTools()); err != nil {
		t.Fatalf("reindex after re-register failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "tool_product_search"); !ok {
		t.Error("re-registered tool's documents not restored")
	}
	candidates, err := idx.Search(ctx, "우리 회사 상품 뭐 있어?", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	found := false
	for _, c := range candidates {
		if c.Name == "product_search" {
			found = true
		}
	}
	if !found {
		t.Error("re-registered tool not routable")
	}
}

func TestMaxScoreAggregation(t *testing.T) {
	store := &fixedQueryStore{
		count: 3,
		results: []vectorstore.Result{
			{Document: vectorstore.Document{ID: "tool_x", Metadata: map[string]string{"tool_name": "x", "type": "tool"}}, Distance: 0.8},
			{Document: vectorstore.Document{ID: "tool_x__use_0", Text: "best doc", Metadata: map[string]string{"tool_name": "x", "type": "tool"}}, Distance: 0.1},
			{Document: vectorstore.Document{ID: "tool_x__use_1", Metadata: map[string]string{"tool_name": "x", "type": "tool"}}, Distance: 0.5},
		},
	}
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())

	candidates, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 aggregated candidate, got %d", len(candidates))
	}
	if candidates[0].Score != 0.9 {
		t.Errorf("expected max score 0.9, got %f", candidates[0].Score)
	}
	if candidates[0].Description != "best doc" {
		t.Errorf("description should come from the best document, got %q", candidates[0].Description)
	}
}

func TestSearchRetriesTransientErrors(t *testing.T) {
	store := &fixedQueryStore{
		count: 1,
		errs: []error{
			errors.New("connection refused"),
		},
		results: []vectorstore.Result{
			{Document: vectorstore.Document{ID: "tool_x", Metadata: map[string]string{"tool_name": "x"}}, Distance: 0.2},
		},
	}
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())

	candidates, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("expected recovery after transient failure, got %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if store.queries != 2 {
		t.Errorf("expected 2 query attempts, got %d", store.queries)
	}
}

func TestSearchFailsFastOnPermanentError(t *testing.T) {
	store := &fixedQueryStore{
		count: 1,
		errs: []error{
			errors.New("malformed query vector"),
		},
	}
	idx := New(store, hashEmbedder{}, toolcard.NewCatalog(), 5, zap.NewNop())

	if _, err := idx.Search(context.Background(), "anything", 5); err == nil {
		t.Fatal("expected error")
	}
	if store.queries != 1 {
		t.Errorf("permanent error should not retry, got %d attempts", store.queries)
	}
}

// fixedQueryStore serves canned query results, optionally failing first.
type fixedQueryStore struct {
	count   int
	results []vectorstore.Result
	errs    []error
	queries int
}

func (f *fixedQueryStore) Upsert(ctx context.Context, docs []vectorstore.Document) error { return nil }

func (f *fixedQueryStore) Query(ctx context.Context, vector []float32, n int, filter map[string]string) ([]vectorstore.Result, error) {
	f.queries++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.results, nil
}

func (f *fixedQueryStore) Delete(ctx context.Context, ids []string) error { return nil }

func (f *fixedQueryStore) IDs(ctx context.Context, filter map[string]string) ([]string, error) {
	return nil, nil
}

func (f *fixedQueryStore) Count(ctx context.Context) (int, error) { return f.count, nil }

func (f *fixedQueryStore) Get(ctx context.Context, id string) (vectorstore.Document, bool, error) {
	return vectorstore.Document{}, false, nil
}
