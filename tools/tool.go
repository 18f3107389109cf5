// Package tools provides the tool system for the agent.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Tool parameters and schemas hidden in implementations
// - Registry implementation details hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"

	"github.com/mink555/covergate/llm"
)

// Tool is a callable capability exposed to the LLM.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string

	// Description returns the LLM-facing description.
	Description() string

	// Schema returns the JSON schema for the tool's arguments.
	Schema() map[string]interface{}

	// Invoke executes the tool with raw JSON arguments.
	Invoke(ctx context.Context, args []byte) (string, error)
}

// Definition converts a tool to the LLM binding format.
func Definition(t Tool) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Schema(),
	}
}

// Definitions converts a tool slice to the LLM binding format.
func Definitions(tools []Tool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = Definition(t)
	}
	return defs
}
