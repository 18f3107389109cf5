// Package toolindex maintains the multi-document tool retrieval index.
//
// Instead of one vector per tool, each card's purpose and every positive
// usage example is indexed as its own document, with tags as one more.
// Search aggregates per tool with max score, so a single example that
// matches the query well ranks the tool highly. This avoids the vector
// dilution of averaging many example sentences into one embedding.
package toolindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mink555/covergate/embedding"
	"github.com/mink555/covergate/llm"
	"github.com/mink555/covergate/toolcard"
	"github.com/mink555/covergate/tools"
	"github.com/mink555/covergate/vectorstore"
)

// indexSchemaVersion forces a full re-index when the indexing layout
// changes, even if card contents are unchanged.
const indexSchemaVersion = "mv1"

// versionMarkerID is the reserved document holding the corpus hash.
const versionMarkerID = "__spec_version__"

// Candidate is one scored tool from a search.
type Candidate struct {
	Name        string
	Score       float64
	Description string
}

// storeRetry bounds retries on transient vector store failures.
var storeRetry = llm.RetryConfig{
	MaxAttempts: 2,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
}

// Index is the tool retrieval index. Reindex runs under a single writer
// lock; Search never blocks on it.
type Index struct {
	store    vectorstore.VectorStore
	embedder embedding.Embedder
	catalog  *toolcard.Catalog
	topK     int
	logger   *zap.Logger

	indexMu sync.Mutex
}

// New creates a tool index over the given store and embedder.
func New(store vectorstore.VectorStore, embedder embedding.Embedder, catalog *toolcard.Catalog, topK int, logger *zap.Logger) *Index {
	return &Index{
		store:    store,
		embedder: embedder,
		catalog:  catalog,
		topK:     topK,
		logger:   logger,
	}
}

type document struct {
	id   string
	text string
}

// toolDocuments returns the (id, text) documents for one tool. With a
// card: one purpose doc, one per positive example, and a tags doc when
// tags exist. Without a card: a single doc from the tool description.
func (idx *Index) toolDocuments(t tools.Tool) []document {
	card, ok := idx.catalog.Get(t.Name())
	if !ok {
		return []document{{id: "tool_" + t.Name(), text: t.Description()}}
	}

	docs := []document{{id: "tool_" + t.Name(), text: card.Purpose}}
	for i, example := range card.WhenToUse {
		docs = append(docs, document{
			id:   fmt.Sprintf("tool_%s__use_%d", t.Name(), i),
			text: example,
		})
	}
	if len(card.Tags) > 0 {
		docs = append(docs, document{
			id:   "tool_" + t.Name() + "__tags",
			text: strings.Join(card.Tags, " "),
		})
	}
	return docs
}

// corpusHash detects changes to the tool set, card contents, or the
// indexing schema version.
func (idx *Index) corpusHash(toolList []tools.Tool) string {
	sorted := make([]tools.Tool, len(toolList))
	copy(sorted, toolList)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	parts := make([]string, 0, len(sorted))
	for _, t := range sorted {
		text := t.Description()
		if card, ok := idx.catalog.Get(t.Name()); ok {
			text = card.EmbedText()
		}
		parts = append(parts, t.Name()+":"+text)
	}

	sum := sha256.Sum256([]byte("schema:" + indexSchemaVersion + "|" + strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Reindex embeds the tools' documents into the store. Skips entirely
// when the corpus hash matches the stored marker. New documents are
// upserted before stale ones are deleted, so a search issued at any
// point during reindexing sees every current tool.
func (idx *Index) Reindex(ctx context.Context, toolList []tools.Tool) error {
	if len(toolList) == 0 {
		idx.logger.Warn("no tools to index, skipping")
		return nil
	}

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	newHash := idx.corpusHash(toolList)

	if marker, ok, err := idx.store.Get(ctx, versionMarkerID); err == nil && ok {
		if marker.Metadata["spec_version"] == newHash {
			idx.logger.Info("tool specs unchanged, skip re-index", zap.String("version", newHash))
			return nil
		}
	}

	names := make([]string, len(toolList))
	for i, t := range toolList {
		names[i] = t.Name()
	}
	if noCard := idx.catalog.Missing(names); len(noCard) > 0 {
		idx.logger.Warn("tools without cards fall back to description",
			zap.Int("count", len(noCard)),
			zap.Strings("tools", noCard))
	}

	var docsToEmbed []document
	var metas []map[string]string
	for _, t := range toolList {
		_, hasCard := idx.catalog.Get(t.Name())
		for _, doc := range idx.toolDocuments(t) {
			docsToEmbed = append(docsToEmbed, doc)
			metas = append(metas, map[string]string{
				"tool_name": t.Name(),
				"type":      "tool",
				"has_card":  fmt.Sprintf("%t", hasCard),
			})
		}
	}

	texts := make([]string, len(docsToEmbed))
	for i, doc := range docsToEmbed {
		texts[i] = doc.text
	}
	vectors, err := embedding.EmbedForTask(ctx, idx.embedder, texts, embedding.TaskPassage)
	if err != nil {
		return fmt.Errorf("embed tool documents: %w", err)
	}

	newDocs := make([]vectorstore.Document, len(docsToEmbed))
	newIDs := make(map[string]bool, len(docsToEmbed))
	for i, doc := range docsToEmbed {
		newDocs[i] = vectorstore.Document{
			ID:       doc.id,
			Text:     doc.text,
			Vector:   vectors[i],
			Metadata: metas[i],
		}
		newIDs[doc.id] = true
	}

	// 1) Upsert first, so there is never a window with missing tools.
	if err := idx.store.Upsert(ctx, newDocs); err != nil {
		return fmt.Errorf("upsert tool documents: %w", err)
	}

	// 2) Drop stale documents: removed tools or shrunk example lists.
	existing, err := idx.store.IDs(ctx, nil)
	if err != nil {
		return fmt.Errorf("list existing documents: %w", err)
	}
	var stale []string
	for _, id := range existing {
		if strings.HasPrefix(id, "tool_") && !newIDs[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := idx.store.Delete(ctx, stale); err != nil {
			return fmt.Errorf("delete stale documents: %w", err)
		}
		idx.logger.Info("cleaned stale tool documents", zap.Int("count", len(stale)))
	}

	// 3) Overwrite the version marker last.
	if err := idx.store.Upsert(ctx, []vectorstore.Document{{
		ID:   versionMarkerID,
		Text: "version:" + newHash,
		Metadata: map[string]string{
			"type":         "version",
			"spec_version": newHash,
		},
	}}); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}

	idx.logger.Info("indexed tools",
		zap.Int("tools", len(toolList)),
		zap.Int("documents", len(newDocs)),
		zap.String("version", newHash))
	return nil
}

// Remove deletes every document for a tool. Called when a tool is
// unregistered at runtime; the removal is visible to the next search.
// The version marker is dropped too: with documents gone the stored
// hash no longer describes the index, and keeping it would let a later
// Reindex of an identical tool set hash-match and skip the rebuild.
func (idx *Index) Remove(ctx context.Context, toolName string) error {
	existing, err := idx.store.IDs(ctx, nil)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var toDelete []string
	for _, id := range existing {
		if id == "tool_"+toolName || strings.HasPrefix(id, "tool_"+toolName+"__") {
			toDelete = append(toDelete, id)
		}
	}
	if len(toDelete) == 0 {
		return nil
	}
	docCount := len(toDelete)
	toDelete = append(toDelete, versionMarkerID)

	if err := idx.store.Delete(ctx, toDelete); err != nil {
		return fmt.Errorf("delete tool documents: %w", err)
	}
	idx.logger.Info("removed tool documents",
		zap.String("tool", toolName),
		zap.Int("count", docCount))
	return nil
}

// Search returns the topK tools most similar to the query, aggregating
// multiple documents per tool with max score. An empty index returns an
// empty result. Transient store failures are retried with backoff; on
// exhaustion the error is returned so the caller can bind all tools.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Candidate, error) {
	k := topK
	if k <= 0 {
		k = idx.topK
	}

	count, err := idx.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	queryVecs, err := embedding.EmbedForTask(ctx, idx.embedder, []string{query}, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Each tool has several documents, so over-fetch before aggregating.
	fetchN := k * 5
	if fetchN > count {
		fetchN = count
	}

	results, err := idx.queryWithRetry(ctx, queryVecs[0], fetchN)
	if err != nil {
		return nil, fmt.Errorf("query tool index: %w", err)
	}

	best := make(map[string]float64)
	bestDesc := make(map[string]string)
	for _, r := range results {
		toolName := r.Document.Metadata["tool_name"]
		if toolName == "" {
			toolName = strings.TrimPrefix(strings.SplitN(r.Document.ID, "__", 2)[0], "tool_")
		}
		score := roundScore(1.0 - r.Distance)
		if _, seen := best[toolName]; !seen {
			best[toolName] = 0
		}
		if score > best[toolName] {
			best[toolName] = score
			bestDesc[toolName] = r.Document.Text
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for name, score := range best {
		candidates = append(candidates, Candidate{
			Name:        name,
			Score:       score,
			Description: bestDesc[name],
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (idx *Index) queryWithRetry(ctx context.Context, vector []float32, n int) ([]vectorstore.Result, error) {
	var lastErr error
	for attempt := 0; attempt < storeRetry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := storeRetry.BaseDelay * time.Duration(1<<(attempt-1))
			if delay > storeRetry.MaxDelay {
				delay = storeRetry.MaxDelay
			}
			idx.logger.Warn("retrying tool index query",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		results, err := idx.store.Query(ctx, vector, n, map[string]string{"type": "tool"})
		if err == nil {
			return results, nil
		}
		if !llm.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// roundScore rounds 1-distance to four decimals.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
