package toolcard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxHistory = 30

// Version is one publish or rollback event for a card override.
type Version struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Card      ToolCard  `json:"card"`
	Note      string    `json:"note"`
}

// overrideEntry holds the mutable override state for one tool.
type overrideEntry struct {
	Published *ToolCard `json:"published"`
	Draft     *ToolCard `json:"draft"`
	History   []Version `json:"history"`
}

type storeFile struct {
	UpdatedAt time.Time                 `json:"updated_at"`
	Cards     map[string]*overrideEntry `json:"cards"`
}

// Status summarizes a card's override state.
type Status struct {
	Name         string
	Source       string // "override", "code", or "none"
	HasDraft     bool
	Version      int
	HistoryCount int
}

// Store persists card overrides as JSON with a draft/publish/rollback
// lifecycle. Drafts are invisible to the agent until published; each
// publish appends to a bounded version history so it can be rolled back.
// Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	path      string
	entries   map[string]*overrideEntry
	catalog   *Catalog
	onPublish func(ToolCard)
	logger    *zap.Logger
}

// NewStore loads overrides from path (missing file starts fresh) and
// applies published cards to the catalog. onPublish fires after every
// publish, rollback, and reset so the caller can reindex; it may be nil.
func NewStore(path string, catalog *Catalog, onPublish func(ToolCard), logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:      path,
		entries:   make(map[string]*overrideEntry),
		catalog:   catalog,
		onPublish: onPublish,
		logger:    logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("tool card override file not found, starting fresh", zap.String("path", path))
			return s, nil
		}
		return nil, fmt.Errorf("read overrides: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	if file.Cards != nil {
		s.entries = file.Cards
	}

	for _, entry := range s.entries {
		if entry.Published != nil {
			catalog.Set(*entry.Published)
		}
	}

	logger.Info("loaded tool card overrides", zap.Int("count", len(s.entries)), zap.String("path", path))
	return s, nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	data, err := json.MarshalIndent(storeFile{
		UpdatedAt: time.Now().UTC(),
		Cards:     s.entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	return nil
}

// SaveDraft stores a draft card. The agent does not see drafts.
func (s *Store) SaveDraft(card ToolCard) error {
	if card.Name == "" {
		return fmt.Errorf("draft card has no name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[card.Name]
	if !ok {
		entry = &overrideEntry{}
		s.entries[card.Name] = entry
	}
	entry.Draft = &card
	if err := s.save(); err != nil {
		return err
	}

	s.logger.Info("tool card draft saved", zap.String("tool", card.Name))
	return nil
}

// Publish promotes the draft for name to the published override, applies
// it to the catalog, and records a history version.
func (s *Store) Publish(name, note string) (ToolCard, error) {
	s.mu.Lock()

	entry, ok := s.entries[name]
	if !ok || entry.Draft == nil {
		s.mu.Unlock()
		return ToolCard{}, fmt.Errorf("no draft to publish for %q", name)
	}

	card := *entry.Draft
	version := s.appendVersion(entry, card, note)
	entry.Published = &card
	entry.Draft = nil

	if err := s.save(); err != nil {
		s.mu.Unlock()
		return ToolCard{}, err
	}
	s.mu.Unlock()

	s.applyPublished(card)
	s.logger.Info("tool card published", zap.String("tool", name), zap.Int("version", version))
	return card, nil
}

// PublishDirect saves and publishes in one step.
func (s *Store) PublishDirect(card ToolCard, note string) (ToolCard, error) {
	if err := s.SaveDraft(card); err != nil {
		return ToolCard{}, err
	}
	return s.Publish(card.Name, note)
}

// Rollback republishes a prior history version as a new version.
func (s *Store) Rollback(name string, targetVersion int) (ToolCard, error) {
	s.mu.Lock()

	entry, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return ToolCard{}, fmt.Errorf("no override history for %q", name)
	}

	var target *Version
	for i := range entry.History {
		if entry.History[i].Version == targetVersion {
			target = &entry.History[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return ToolCard{}, fmt.Errorf("version %d not found for %q", targetVersion, name)
	}

	card := target.Card
	version := s.appendVersion(entry, card, fmt.Sprintf("rollback to v%d", targetVersion))
	entry.Published = &card
	entry.Draft = nil

	if err := s.save(); err != nil {
		s.mu.Unlock()
		return ToolCard{}, err
	}
	s.mu.Unlock()

	s.applyPublished(card)
	s.logger.Info("tool card rolled back",
		zap.String("tool", name),
		zap.Int("target", targetVersion),
		zap.Int("version", version))
	return card, nil
}

// DiscardDraft drops the draft for name, if any.
func (s *Store) DiscardDraft(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil
	}
	entry.Draft = nil
	return s.save()
}

// ResetToCode removes the override for name and restores the built-in
// card in the catalog.
func (s *Store) ResetToCode(name string) (ToolCard, error) {
	s.mu.Lock()
	if _, ok := s.entries[name]; ok {
		delete(s.entries, name)
		if err := s.save(); err != nil {
			s.mu.Unlock()
			return ToolCard{}, err
		}
	}
	s.mu.Unlock()

	card, ok := s.catalog.ResetToBuiltin(name)
	if !ok {
		return ToolCard{}, fmt.Errorf("no built-in card for %q", name)
	}
	if s.onPublish != nil {
		s.onPublish(card)
	}
	s.logger.Info("tool card reset to code definition", zap.String("tool", name))
	return card, nil
}

// GetDraft returns the draft for name, if any.
func (s *Store) GetDraft(name string) (ToolCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok || entry.Draft == nil {
		return ToolCard{}, false
	}
	return *entry.Draft, true
}

// History returns the version history for name, oldest first.
func (s *Store) History(name string) []Version {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil
	}
	out := make([]Version, len(entry.History))
	copy(out, entry.History)
	return out
}

// StatusOf reports the override state for name.
func (s *Store) StatusOf(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[name]

	st := Status{Name: name, Source: "none"}
	for _, builtin := range builtinCards {
		if builtin.Name == name {
			st.Source = "code"
			break
		}
	}
	if entry != nil {
		if entry.Published != nil {
			st.Source = "override"
		}
		st.HasDraft = entry.Draft != nil
		if n := len(entry.History); n > 0 {
			st.Version = entry.History[n-1].Version
			st.HistoryCount = n
		}
	}
	return st
}

// Overrides returns the tool names that have override entries.
func (s *Store) Overrides() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// appendVersion records a new history version and trims to maxHistory.
// Caller holds the lock.
func (s *Store) appendVersion(entry *overrideEntry, card ToolCard, note string) int {
	next := 1
	if n := len(entry.History); n > 0 {
		next = entry.History[n-1].Version + 1
	}
	if note == "" {
		note = fmt.Sprintf("v%d published", next)
	}
	entry.History = append(entry.History, Version{
		Version:   next,
		Timestamp: time.Now().UTC(),
		Card:      card,
		Note:      note,
	})
	if len(entry.History) > maxHistory {
		entry.History = entry.History[len(entry.History)-maxHistory:]
	}
	return next
}

func (s *Store) applyPublished(card ToolCard) {
	s.catalog.Set(card)
	if s.onPublish != nil {
		s.onPublish(card)
	}
}
