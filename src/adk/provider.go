package adk

import (
	"context"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
)

// Message roles understood by every ChatProvider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// Message is a provider-agnostic chat message.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages
	ToolCallID string     // set when Role == RoleTool
}

// ChatProvider abstracts a hosted chat-completion backend.
type ChatProvider interface {
	// CreateCompletion sends one request and returns the assistant message.
	// systemMsg may be empty.
	CreateCompletion(ctx context.Context, model string, systemMsg string, messages []Message, defs []tools.Definition) (*Message, error)
}
