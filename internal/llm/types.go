package llm

import "context"

// Message is a single chat turn.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolDefinition describes a callable tool offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// TokenUsage reports token consumption for a single completion.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is a chat completion request.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Tools       []ToolDefinition
}

// Response is the aggregated completion result.
type Response struct {
	Content    string
	StopReason string
	ToolCalls  []ToolCall
	Usage      TokenUsage
}

// Client speaks a chat completion API for one configured model.
type Client interface {
	// Complete performs a blocking completion.
	Complete(ctx context.Context, req Request) (*Response, error)

	// StreamComplete streams content deltas through onDelta while building
	// the final aggregated response. onDelta may be nil.
	StreamComplete(ctx context.Context, req Request, onDelta func(delta string)) (*Response, error)

	// Model returns the configured model identifier.
	Model() string
}

// UsageFunc receives token usage after each completed call.
type UsageFunc func(usage TokenUsage, model, provider string)
