// Package main provides the covergate CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mink555/covergate/cli"
)

var (
	// Global flags
	provider string
	cardPath string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "covergate",
		Short: "Guardrail-gated insurance consultation agent",
		Long: `An insurance consultation agent with semantic tool routing.

Every turn passes through input and output guardrails; tools are
selected by embedding similarity over editable tool cards.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openai", "LLM provider (openai, anthropic)")
	rootCmd.PersistentFlags().StringVar(&cardPath, "cards", ".covergate/cards.json", "Path to the tool card override file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show per-node trace output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(reindexCmd())
	rootCmd.AddCommand(cardsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		CardPath: cardPath,
		Verbose:  verbose,
	}
}

func chatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive consultation session",
		Long: `Start an interactive consultation session.

Conversation state persists per session in the checkpoint database, so
a session can be resumed later with --session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), sessionID, options())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to resume (empty starts a new session)")

	return cmd
}

func askCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run a single consultation turn",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(context.Background(), sessionID, strings.Join(args, " "), options())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to continue (empty starts a new session)")

	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools and their card status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ToolsList(context.Background(), options())
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the tool retrieval index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Reindex(context.Background(), options())
		},
	}
}

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Inspect and edit tool retrieval cards",
		Long: `Inspect and edit the retrieval cards that drive tool selection.

Edits go through a draft/publish lifecycle: a draft is invisible to the
agent until published, and every publish is versioned so it can be
rolled back.`,
	}

	cmd.AddCommand(cardShowCmd())
	cmd.AddCommand(cardDraftCmd())
	cmd.AddCommand(cardPublishCmd())
	cmd.AddCommand(cardRollbackCmd())
	cmd.AddCommand(cardHistoryCmd())
	cmd.AddCommand(cardResetCmd())

	return cmd
}

func cardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [tool]",
		Short: "Show the live card for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CardShow(context.Background(), args[0], options())
		},
	}
}

func cardDraftCmd() *cobra.Command {
	var purpose string
	var tags []string

	cmd := &cobra.Command{
		Use:   "draft [tool]",
		Short: "Save a draft card edit for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if purpose == "" && len(tags) == 0 {
				return fmt.Errorf("nothing to draft: set --purpose and/or --tag")
			}
			return cli.CardDraft(context.Background(), args[0], purpose, tags, options())
		},
	}

	cmd.Flags().StringVar(&purpose, "purpose", "", "New purpose text for the card")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Replacement tag (repeatable)")

	return cmd
}

func cardPublishCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "publish [tool]",
		Short: "Publish a tool's draft card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CardPublish(context.Background(), args[0], note, options())
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note recorded in the version history")

	return cmd
}

func cardRollbackCmd() *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "rollback [tool]",
		Short: "Restore a previous published card version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if version <= 0 {
				return fmt.Errorf("--version is required and must be positive")
			}
			return cli.CardRollback(context.Background(), args[0], version, options())
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Version number to restore")

	return cmd
}

func cardHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [tool]",
		Short: "Show the publish history for a tool card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CardHistory(context.Background(), args[0], options())
		},
	}
}

func cardResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [tool]",
		Short: "Discard overrides and restore the code-defined card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CardReset(context.Background(), args[0], options())
		},
	}
}
