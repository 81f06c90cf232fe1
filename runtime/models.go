package runtime

import "encoding/json"

/*
	##### RUNTIME INPUT #####
*/

// ChatStreamPayload is the canonical chat request accepted by every runtime.
// Sampling parameters use pointers so that "absent" and "zero" remain
// distinguishable when building the vendor request.
type ChatStreamPayload struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`             // Nucleus sampling, (0, 1]. Values >= 1 are clamped at build time.
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`  // [-2..2]
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"` // [-2..2]
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	Tools            []Tool    `json:"tools,omitempty"`
	Stream           *bool     `json:"stream,omitempty"` // nil means streaming (the default)
}

// WantsStream reports the effective requested streaming mode: true unless
// the caller explicitly set Stream to false. Vendor constraints (such as
// tools forcing a blocking call) are applied later by each request builder.
func (p ChatStreamPayload) WantsStream() bool {
	return p.Stream == nil || *p.Stream
}

// Message is a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being answered
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that produced this message
}

// Tool declares a function the model may call. Parameter schemas are carried
// verbatim; runtimes forward them to the vendor without interpretation.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a complete function/tool call requested by the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

/*
	##### MODEL CATALOG #####
*/

// ModelCard describes one entry in a runtime's static model catalog.
type ModelCard struct {
	ID                  string `json:"id"`
	DisplayName         string `json:"display_name,omitempty"`
	ContextWindowTokens int    `json:"context_window_tokens,omitempty"`
	Vision              bool   `json:"vision,omitempty"`        // Accepts image input
	FunctionCall        bool   `json:"function_call,omitempty"` // Supports tool calling
}
