// Package graph implements the guardrail-gated turn state machine.
//
// A turn flows through five nodes: input guard, query rewriter, agent,
// tools, output guard. Nodes return Update diffs that a reducer merges
// into TurnState: list fields append, scalar fields overwrite.
//
// Information Hiding:
// - Node wiring and routing hidden behind Graph.Run
// - History trimming and sanitization hidden
package graph

import (
	"github.com/mink555/covergate/llm"
)

// Guardrail actions recorded in TurnState.GuardrailAction.
const (
	ActionPass  = "pass"
	ActionBlock = "block"
	ActionRetry = "retry"
)

// TraceEntry records one node execution within a turn.
type TraceEntry struct {
	Node               string `json:"node"`
	Action             string `json:"action,omitempty"`
	Reason             string `json:"reason,omitempty"`
	DurationMS         int64  `json:"duration_ms"`
	IsFollowup         bool   `json:"is_followup,omitempty"`
	RetryCount         int    `json:"retry_count,omitempty"`
	ToolsBound         int    `json:"tools_bound,omitempty"`
	ToolCalls          int    `json:"tool_calls,omitempty"`
	Original           string `json:"original,omitempty"`
	Rewritten          string `json:"rewritten,omitempty"`
	DisclaimerAppended bool   `json:"disclaimer_appended,omitempty"`
	ToolNamesRemoved   bool   `json:"tool_names_removed,omitempty"`
}

// TurnState is the full conversational state threaded through the graph.
// It persists across turns via a CheckpointStore; BeginTurn resets the
// per-turn fields while keeping Messages and ConversationStarted.
type TurnState struct {
	Messages []llm.ChatMessage `json:"messages"`
	Trace    []TraceEntry      `json:"trace"`

	GuardrailAction string `json:"guardrail_action"`

	// RewrittenQuery holds the rewriter's expansion of a short followup
	// question. Empty means the raw query is used for tool search.
	RewrittenQuery string `json:"rewritten_query"`

	// GuardrailRetryCount counts output-guard rejections over the whole
	// session. It is never reset per turn, so a model that keeps
	// producing violations exhausts its retry budget once and is then
	// blocked immediately.
	GuardrailRetryCount int `json:"guardrail_retry_count"`

	// ConversationStarted is true once at least one response has passed
	// the output guard. Guard-rejected responses do not count, so a
	// blocked first turn cannot unlock the followup domain-check skip.
	// BeginTurn deliberately does not reset it.
	ConversationStarted bool `json:"conversation_started"`
}

// Update is a node's diff against TurnState. Messages and Trace append;
// non-nil scalar pointers overwrite; ReplaceLast swaps the final message
// in place (used by the output guard to rewrite the model's answer).
type Update struct {
	Messages    []llm.ChatMessage
	ReplaceLast *llm.ChatMessage
	Trace       []TraceEntry

	GuardrailAction     *string
	RewrittenQuery      *string
	GuardrailRetryCount *int
	ConversationStarted *bool
}

// Apply merges an Update into the state.
func (s *TurnState) Apply(u Update) {
	if u.ReplaceLast != nil && len(s.Messages) > 0 {
		s.Messages[len(s.Messages)-1] = *u.ReplaceLast
	}
	s.Messages = append(s.Messages, u.Messages...)
	s.Trace = append(s.Trace, u.Trace...)

	if u.GuardrailAction != nil {
		s.GuardrailAction = *u.GuardrailAction
	}
	if u.RewrittenQuery != nil {
		s.RewrittenQuery = *u.RewrittenQuery
	}
	if u.GuardrailRetryCount != nil {
		s.GuardrailRetryCount = *u.GuardrailRetryCount
	}
	if u.ConversationStarted != nil {
		s.ConversationStarted = *u.ConversationStarted
	}
}

// BeginTurn appends the user's query and resets the per-turn fields.
// The previous turn's trace is discarded. ConversationStarted and
// GuardrailRetryCount survive: the former drives followup detection,
// the latter is a session-level retry budget.
func (s *TurnState) BeginTurn(query string) {
	s.Messages = append(s.Messages, llm.UserMessage(query))
	s.Trace = nil
	s.GuardrailAction = ActionPass
	s.RewrittenQuery = ""
}

// LastUserQuery returns the content of the most recent user message.
func LastUserQuery(messages []llm.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

// ToolsUsed returns the names of tools that produced results in the
// history, deduplicated with first-use order preserved.
func ToolsUsed(messages []llm.ChatMessage) []string {
	seen := make(map[string]bool)
	var names []string
	for _, msg := range messages {
		if msg.Role != llm.RoleTool || msg.ToolName == "" {
			continue
		}
		if !seen[msg.ToolName] {
			seen[msg.ToolName] = true
			names = append(names, msg.ToolName)
		}
	}
	return names
}

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }
func boolPtr(b bool) *bool       { return &b }
