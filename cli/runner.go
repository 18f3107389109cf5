// Command execution for CLI commands.
//
// Information Hiding:
// - Service wiring (provider, embedder, stores) hidden
// - Output formatting hidden
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mink555/covergate/agent"
	"github.com/mink555/covergate/config"
	"github.com/mink555/covergate/embedding"
	"github.com/mink555/covergate/insurance"
	"github.com/mink555/covergate/llm"
	"github.com/mink555/covergate/storage"
	"github.com/mink555/covergate/toolcard"
	"github.com/mink555/covergate/vectorstore"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	CardPath string
	Verbose  bool
}

// runtime bundles everything a command needs after wiring.
type runtime struct {
	service *agent.Service
	store   *toolcard.Store
	catalog *toolcard.Catalog
	logger  *zap.Logger
	close   func()
}

// setup wires the full consultation stack: provider, embedder, vector
// store, checkpoints, card overrides, and the built-in insurance tools.
func setup(ctx context.Context, opts Options) (*runtime, error) {
	cfg, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if opts.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	provider, err := llm.FromEnv(
		cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	if err != nil {
		return nil, err
	}

	embedKey, err := embeddingAPIKey(cfg.Embedding.Provider)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.NewEmbedder(cfg.Embedding, embedKey)
	if err != nil {
		return nil, err
	}

	checkpoints, err := storage.OpenSqlite(cfg.Storage.CheckpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	catalog := toolcard.NewCatalog()
	service := agent.NewService(
		provider, embedder, vectorstore.NewMemoryStore(), checkpoints, catalog, cfg, logger)

	// Published card overrides take effect immediately: every publish,
	// rollback, and reset triggers a reindex.
	store, err := toolcard.NewStore(opts.CardPath, catalog, func(toolcard.ToolCard) {
		if err := service.ReindexTools(context.Background()); err != nil {
			logger.Warn("reindex after card publish failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		checkpoints.Close()
		return nil, fmt.Errorf("failed to load card overrides: %w", err)
	}

	if err := insurance.RegisterAll(service.Registry()); err != nil {
		checkpoints.Close()
		return nil, err
	}
	if err := service.ReindexTools(ctx); err != nil {
		checkpoints.Close()
		return nil, fmt.Errorf("failed to build tool index: %w", err)
	}

	return &runtime{
		service: service,
		store:   store,
		catalog: catalog,
		logger:  logger,
		close: func() {
			checkpoints.Close()
			_ = logger.Sync()
		},
	}, nil
}

// embeddingAPIKey resolves the key for the embedding backend. The genai
// backend uses a Google key; everything else shares the chat provider
// key resolution.
func embeddingAPIKey(provider string) (string, error) {
	if provider == "genai" {
		for _, env := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"} {
			if key := os.Getenv(env); key != "" {
				return key, nil
			}
		}
		return "", fmt.Errorf("GOOGLE_API_KEY environment variable not set")
	}
	return config.APIKeyFor(provider)
}

// Chat starts an interactive consultation session. An empty sessionID
// starts a fresh session with a generated ID.
func Chat(ctx context.Context, sessionID string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	session := sessionID
	if session == "" {
		session = agent.NewSessionID()
		fmt.Printf("Session: %s\n", session)
	} else {
		fmt.Printf("Resuming session '%s'\n", session)
	}
	fmt.Printf("보험 상담을 시작합니다. 종료하려면 'exit'를 입력하세요.\n\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result, err := rt.service.RunTurn(ctx, session, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", result.Answer)
		if opts.Verbose {
			printTrace(result)
		}
	}

	return scanner.Err()
}

// Ask runs a single consultation turn and prints the answer.
func Ask(ctx context.Context, sessionID, question string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	session := sessionID
	if session == "" {
		session = agent.NewSessionID()
	}

	result, err := rt.service.RunTurn(ctx, session, question)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", result.Answer)
	if opts.Verbose {
		printTrace(result)
	}
	return nil
}

// ToolsList prints every registered tool with its card status.
func ToolsList(ctx context.Context, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	names := rt.service.Registry().Names()
	fmt.Printf("%d tools registered:\n\n", len(names))
	for _, name := range names {
		status := rt.store.StatusOf(name)
		line := fmt.Sprintf("  %-28s card: %s", name, status.Source)
		if status.Source == "override" {
			line += fmt.Sprintf(" (v%d)", status.Version)
		}
		if status.HasDraft {
			line += " [draft pending]"
		}
		fmt.Println(line)
	}
	if missing := rt.catalog.Missing(names); len(missing) > 0 {
		fmt.Printf("\nWarning: no retrieval card for: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

// Reindex rebuilds the tool retrieval index from the current cards.
func Reindex(ctx context.Context, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	// setup already indexed once; force a second pass so stale vectors
	// from edited cards are replaced.
	if err := rt.service.ReindexTools(ctx); err != nil {
		return err
	}
	fmt.Println("Tool index rebuilt.")
	return nil
}

// CardShow prints the live card for a tool plus its override status.
func CardShow(ctx context.Context, name string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	card, ok := rt.catalog.Get(name)
	if !ok {
		return fmt.Errorf("no card for tool %q", name)
	}
	status := rt.store.StatusOf(name)

	fmt.Printf("Tool:    %s\n", card.Name)
	fmt.Printf("Source:  %s", status.Source)
	if status.Source == "override" {
		fmt.Printf(" (v%d, %d versions)", status.Version, status.HistoryCount)
	}
	fmt.Println()
	fmt.Printf("Purpose: %s\n", card.Purpose)
	printList("When to use", card.WhenToUse)
	printList("When NOT to use", card.WhenNotToUse)
	if len(card.Tags) > 0 {
		fmt.Printf("Tags:    %s\n", strings.Join(card.Tags, ", "))
	}
	if draft, ok := rt.store.GetDraft(name); ok {
		fmt.Printf("\nDraft pending:\n  Purpose: %s\n", draft.Purpose)
	}
	return nil
}

// CardDraft saves a draft purpose rewrite for a tool card. The draft is
// invisible to the agent until published.
func CardDraft(ctx context.Context, name, purpose string, tags []string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	card, ok := rt.catalog.Get(name)
	if !ok {
		return fmt.Errorf("no card for tool %q", name)
	}
	if purpose != "" {
		card.Purpose = purpose
	}
	if len(tags) > 0 {
		card.Tags = tags
	}
	if err := rt.store.SaveDraft(card); err != nil {
		return err
	}
	fmt.Printf("Draft saved for %q. Publish with 'cards publish %s'.\n", name, name)
	return nil
}

// CardPublish promotes a tool's draft to the live card and reindexes.
func CardPublish(ctx context.Context, name, note string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	card, err := rt.store.Publish(name, note)
	if err != nil {
		return err
	}
	fmt.Printf("Published card for %q: %s\n", card.Name, card.Purpose)
	return nil
}

// CardRollback restores a previous published version of a card.
func CardRollback(ctx context.Context, name string, version int, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	card, err := rt.store.Rollback(name, version)
	if err != nil {
		return err
	}
	fmt.Printf("Rolled back %q to version %d: %s\n", card.Name, version, card.Purpose)
	return nil
}

// CardHistory prints the publish history for a tool card.
func CardHistory(ctx context.Context, name string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	history := rt.store.History(name)
	if len(history) == 0 {
		fmt.Printf("No override history for %q.\n", name)
		return nil
	}
	for _, v := range history {
		note := v.Note
		if note == "" {
			note = "(no note)"
		}
		fmt.Printf("  v%-3d %s  %s\n", v.Version, v.Timestamp.Format("2006-01-02 15:04"), note)
	}
	return nil
}

// CardReset discards any override and restores the code-defined card.
func CardReset(ctx context.Context, name string, opts Options) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	card, err := rt.store.ResetToCode(name)
	if err != nil {
		return err
	}
	fmt.Printf("Reset %q to the code-defined card: %s\n", card.Name, card.Purpose)
	return nil
}

func printTrace(result agent.TurnResult) {
	if len(result.ToolsUsed) > 0 {
		fmt.Printf("tools used: %s\n", strings.Join(result.ToolsUsed, ", "))
	}
	for _, entry := range result.Trace {
		line := fmt.Sprintf("[%s] %dms", entry.Node, entry.DurationMS)
		if entry.Action != "" {
			line += " action=" + entry.Action
		}
		if entry.Reason != "" {
			line += " reason=" + entry.Reason
		}
		fmt.Println(line)
	}
	fmt.Println()
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
