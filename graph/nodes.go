package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mink555/covergate/guardrail"
	"github.com/mink555/covergate/llm"
	"github.com/mink555/covergate/tools"
)

// inputGuard validates the user's query before any model call.
//
// Followup turns (a prior response already passed the output guard)
// skip the domain check: a contextual question like "그럼 얼마야?" cannot
// be classified on its own, so the rewriter handles it instead. The
// prompt injection check always applies.
func (g *Graph) inputGuard(ctx context.Context, state *TurnState) Update {
	start := time.Now()
	query := LastUserQuery(state.Messages)
	followup := state.ConversationStarted

	result := guardrail.CheckPromptInjection(query)
	if result.Passed && !followup {
		result = g.classifier.Check(ctx, query)
	}

	if !result.Passed {
		g.logger.Warn("input blocked",
			zap.String("reason", result.Reason),
			zap.Bool("followup", followup))
		return Update{
			Messages:        []llm.ChatMessage{llm.AssistantMessage(result.Reason)},
			GuardrailAction: stringPtr(ActionBlock),
			Trace: []TraceEntry{{
				Node:       "input_guard",
				Action:     ActionBlock,
				Reason:     result.Reason,
				IsFollowup: followup,
				DurationMS: time.Since(start).Milliseconds(),
			}},
		}
	}

	return Update{
		GuardrailAction: stringPtr(ActionPass),
		Trace: []TraceEntry{{
			Node:       "input_guard",
			Action:     ActionPass,
			IsFollowup: followup,
			DurationMS: time.Since(start).Milliseconds(),
		}},
	}
}

// agentStep calls the model with the tool subset selected by the
// retrieval index and appends its response to the history.
func (g *Graph) agentStep(ctx context.Context, state *TurnState) (Update, error) {
	start := time.Now()

	selected := g.selectRelevantTools(ctx, state)

	history := trimHistory(state.Messages, g.cfg.Turn.MaxConversationTurns)
	history = sanitizeHistory(history)
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.SystemMessage(answerSystemPrompt))
	messages = append(messages, history...)

	response, err := llm.ChatWithToolsRetry(ctx, g.provider, messages, tools.Definitions(selected), g.retry)
	if err != nil {
		return Update{}, err
	}

	reply := llm.ChatMessage{
		Role:      llm.RoleAssistant,
		Content:   response.Content,
		ToolCalls: dropNamelessCalls(response.ToolCalls),
	}

	return Update{
		Messages: []llm.ChatMessage{reply},
		Trace: []TraceEntry{{
			Node:       "agent",
			ToolsBound: len(selected),
			DurationMS: time.Since(start).Milliseconds(),
		}},
	}, nil
}

// selectRelevantTools narrows the registry's tool set via the retrieval
// index. The rewritten query takes precedence over the raw one. Any
// failure, and an empty result, fall back to binding all tools so the
// turn degrades rather than aborts.
func (g *Graph) selectRelevantTools(ctx context.Context, state *TurnState) []tools.Tool {
	all := g.registry.All()

	query := state.RewrittenQuery
	if query == "" {
		query = LastUserQuery(state.Messages)
	}
	if query == "" {
		return all
	}

	candidates, err := g.index.Search(ctx, query, g.cfg.Search.TopK)
	if err != nil {
		g.logger.Debug("tool search unavailable, binding all tools", zap.Error(err))
		return all
	}
	if len(candidates) == 0 {
		return all
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	if filtered := g.registry.Subset(names); len(filtered) > 0 {
		return filtered
	}
	return all
}

// runTools executes every call requested by the last assistant message
// against the live registry. Missing tools and execution failures
// become error-result messages; they never abort the turn.
func (g *Graph) runTools(ctx context.Context, state *TurnState) Update {
	start := time.Now()
	last := lastMessage(state)
	if last == nil || len(last.ToolCalls) == 0 {
		return Update{}
	}

	results := make([]llm.ChatMessage, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		tool, ok := g.registry.Get(call.Name)
		if !ok {
			results = append(results, llm.ToolResultMessage(call.ID, call.Name,
				fmt.Sprintf("Error: tool %q not found in registry", call.Name)))
			continue
		}
		output, err := tool.Invoke(ctx, call.Arguments)
		if err != nil {
			g.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
			results = append(results, llm.ToolResultMessage(call.ID, call.Name,
				fmt.Sprintf("Error executing tool %q: %v", call.Name, err)))
			continue
		}
		results = append(results, llm.ToolResultMessage(call.ID, call.Name, output))
	}

	return Update{
		Messages: results,
		Trace: []TraceEntry{{
			Node:       "tools",
			ToolCalls:  len(results),
			DurationMS: time.Since(start).Milliseconds(),
		}},
	}
}

// outputGuard validates the final answer, retries once with a policy
// hint, falls back to a fixed safe response, and on pass strips tool
// names and product codes and appends a disclaimer.
func (g *Graph) outputGuard(state *TurnState) Update {
	start := time.Now()
	last := lastMessage(state)
	var text string
	if last != nil {
		text = last.Content
	}
	retryCount := state.GuardrailRetryCount

	for _, check := range guardrail.OutputChecks {
		result := check(text)
		if result.Passed {
			continue
		}
		g.logger.Warn("output blocked",
			zap.String("reason", result.Reason),
			zap.Int("retry_count", retryCount))

		if retryCount < g.cfg.Guardrail.MaxOutputRetries {
			return Update{
				Messages:            []llm.ChatMessage{llm.SystemMessage(guardrail.RetryHint(result.Reason))},
				GuardrailAction:     stringPtr(ActionRetry),
				GuardrailRetryCount: intPtr(retryCount + 1),
				Trace: []TraceEntry{{
					Node:       "output_guard",
					Action:     ActionRetry,
					Reason:     result.Reason,
					RetryCount: retryCount + 1,
					DurationMS: time.Since(start).Milliseconds(),
				}},
			}
		}

		safe := llm.AssistantMessage(guardrail.SafeResponse)
		return Update{
			ReplaceLast:     &safe,
			GuardrailAction: stringPtr(ActionBlock),
			Trace: []TraceEntry{{
				Node:       "output_guard",
				Action:     ActionBlock,
				Reason:     result.Reason,
				RetryCount: retryCount,
				DurationMS: time.Since(start).Milliseconds(),
			}},
		}
	}

	sanitizer := guardrail.NewSanitizer(g.registry.Names())
	cleaned := sanitizer.Sanitize(text)
	amended := guardrail.ApplyDisclaimer(cleaned, ToolsUsed(state.Messages))

	update := Update{
		GuardrailAction:     stringPtr(ActionPass),
		ConversationStarted: boolPtr(true),
		Trace: []TraceEntry{{
			Node:               "output_guard",
			Action:             ActionPass,
			ToolNamesRemoved:   cleaned != text,
			DisclaimerAppended: amended != cleaned,
			DurationMS:         time.Since(start).Milliseconds(),
		}},
	}
	if amended != text {
		final := llm.AssistantMessage(amended)
		update.ReplaceLast = &final
	}
	return update
}

// dropNamelessCalls removes tool calls missing a function name. Some
// providers emit these on malformed streaming output.
func dropNamelessCalls(calls []llm.ToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	kept := calls[:0:0]
	for _, c := range calls {
		if c.Name != "" {
			kept = append(kept, c)
		}
	}
	return kept
}
