package graph

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mink555/covergate/config"
	"github.com/mink555/covergate/guardrail"
	"github.com/mink555/covergate/llm"
	"github.com/mink555/covergate/toolindex"
	"github.com/mink555/covergate/tools"
)

// recursionLimit caps total node executions per turn. A turn that has
// not reached END within this many steps is aborted.
const recursionLimit = 30

// ErrRecursionLimit is returned when a turn exceeds its step or tool
// iteration budget. Callers convert it to a fixed apologetic answer.
var ErrRecursionLimit = errors.New("turn step limit exceeded")

// Graph wires the five turn nodes over shared collaborators.
//
//	inputGuard ─(block)→ END
//	    │(pass)
//	rewriter → agent ⇄ tools
//	              │
//	        outputGuard ─(retry)→ agent
//	              │(pass/block)
//	             END
type Graph struct {
	provider   llm.Provider
	index      *toolindex.Index
	registry   *tools.Registry
	classifier *guardrail.DomainClassifier
	cfg        config.Settings
	retry      llm.RetryConfig
	logger     *zap.Logger
}

// New creates a turn graph over the given collaborators.
func New(
	provider llm.Provider,
	index *toolindex.Index,
	registry *tools.Registry,
	classifier *guardrail.DomainClassifier,
	cfg config.Settings,
	logger *zap.Logger,
) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		provider:   provider,
		index:      index,
		registry:   registry,
		classifier: classifier,
		cfg:        cfg,
		retry:      llm.DefaultRetryConfig(),
		logger:     logger,
	}
}

// Run executes one full turn against the state. The caller is expected
// to have called state.BeginTurn(query) first. Policy violations flow
// in-band through GuardrailAction and the message list; only provider
// failures and budget exhaustion surface as errors.
func (g *Graph) Run(ctx context.Context, state *TurnState) error {
	steps := 0
	advance := func(u Update) error {
		state.Apply(u)
		steps++
		if steps > recursionLimit {
			return fmt.Errorf("%w after %d steps", ErrRecursionLimit, steps)
		}
		return nil
	}

	if err := advance(g.inputGuard(ctx, state)); err != nil {
		return err
	}
	if state.GuardrailAction == ActionBlock {
		return nil
	}

	if err := advance(g.rewriteQuery(ctx, state)); err != nil {
		return err
	}

	toolIterations := 0
	for {
		u, err := g.agentStep(ctx, state)
		if err != nil {
			return fmt.Errorf("agent: %w", err)
		}
		if err := advance(u); err != nil {
			return err
		}

		if last := lastMessage(state); last != nil &&
			last.Role == llm.RoleAssistant && len(last.ToolCalls) > 0 {
			if toolIterations >= g.cfg.Turn.MaxToolIterations {
				return fmt.Errorf("%w: %d tool iterations", ErrRecursionLimit, toolIterations)
			}
			if err := advance(g.runTools(ctx, state)); err != nil {
				return err
			}
			toolIterations++
			continue
		}

		if err := advance(g.outputGuard(state)); err != nil {
			return err
		}
		if state.GuardrailAction == ActionRetry {
			continue
		}
		return nil
	}
}

func lastMessage(state *TurnState) *llm.ChatMessage {
	if len(state.Messages) == 0 {
		return nil
	}
	return &state.Messages[len(state.Messages)-1]
}
