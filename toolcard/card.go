// Package toolcard holds the retrieval metadata for callable tools.
// Cards are the single source of truth for what the search index embeds:
// purpose, positive usage examples, and tags. Negative examples exist to
// disambiguate similar tools in the LLM-facing description and are never
// embedded, since they contain the other tool's vocabulary.
package toolcard

import (
	"sort"
	"strings"
	"sync"
)

// ToolCard is the embedding metadata for a single tool. Name must match
// the registered tool name exactly.
type ToolCard struct {
	Name         string   `json:"name"`
	Purpose      string   `json:"purpose"`
	WhenToUse    []string `json:"when_to_use,omitempty"`
	WhenNotToUse []string `json:"when_not_to_use,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// EmbedText builds the text embedded into the search index: purpose,
// positive examples, then tags joined by spaces, one part per line.
// WhenNotToUse is excluded.
func (c ToolCard) EmbedText() string {
	parts := []string{c.Purpose}
	parts = append(parts, c.WhenToUse...)
	if len(c.Tags) > 0 {
		parts = append(parts, strings.Join(c.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

// Catalog is the live card set consulted by the index and the agent.
// It starts from the built-in cards; published overrides replace entries
// at runtime. Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	cards map[string]ToolCard
}

// NewCatalog creates a catalog seeded with the built-in cards.
func NewCatalog() *Catalog {
	cards := make(map[string]ToolCard, len(builtinCards))
	for _, c := range builtinCards {
		cards[c.Name] = c
	}
	return &Catalog{cards: cards}
}

// Get returns the card for a tool name.
func (c *Catalog) Get(name string) (ToolCard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	card, ok := c.cards[name]
	return card, ok
}

// All returns every card, sorted by name.
func (c *Catalog) All() []ToolCard {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ToolCard, 0, len(c.cards))
	for _, card := range c.cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Missing returns the given names that have no card. Used to warn when
// a tool is registered without retrieval metadata.
func (c *Catalog) Missing(names []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	for _, n := range names {
		if _, ok := c.cards[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Set installs or replaces a card. Called when an override is published.
func (c *Catalog) Set(card ToolCard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[card.Name] = card
}

// ResetToBuiltin restores the code-defined card for a name, removing any
// published override. Returns false if no built-in card exists.
func (c *Catalog) ResetToBuiltin(name string) (ToolCard, bool) {
	for _, builtin := range builtinCards {
		if builtin.Name == name {
			c.mu.Lock()
			c.cards[name] = builtin
			c.mu.Unlock()
			return builtin, true
		}
	}
	return ToolCard{}, false
}
