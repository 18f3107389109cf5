package graph

import "github.com/mink555/covergate/llm"

// trimHistory keeps at most maxTurns conversation turns. Turns are
// counted by user messages, so a ReAct loop with many tool results
// still counts as one turn and always survives intact.
func trimHistory(messages []llm.ChatMessage, maxTurns int) []llm.ChatMessage {
	if maxTurns <= 0 {
		return messages
	}
	var userIndices []int
	for i, msg := range messages {
		if msg.Role == llm.RoleUser {
			userIndices = append(userIndices, i)
		}
	}
	if len(userIndices) <= maxTurns {
		return messages
	}
	cutoff := userIndices[len(userIndices)-maxTurns]
	return messages[cutoff:]
}

// sanitizeHistory cleans the history before a provider call: tool calls
// without a name are dropped from assistant messages, tool results whose
// call id no longer resolves are removed, and assistant messages left
// with neither content nor calls are discarded.
func sanitizeHistory(messages []llm.ChatMessage) []llm.ChatMessage {
	validIDs := make(map[string]bool)
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			if call.Name != "" {
				validIDs[call.ID] = true
			}
		}
	}

	cleaned := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleTool && !validIDs[msg.ToolCallID] {
			continue
		}
		if hasNamelessCall(msg.ToolCalls) {
			msg.ToolCalls = dropNamelessCalls(msg.ToolCalls)
			if len(msg.ToolCalls) == 0 && msg.Content == "" {
				continue
			}
		}
		cleaned = append(cleaned, msg)
	}
	return cleaned
}

func hasNamelessCall(calls []llm.ToolCall) bool {
	for _, c := range calls {
		if c.Name == "" {
			return true
		}
	}
	return false
}
