package qwen

import (
	"encoding/json"

	"github.com/relaykit/relay/internal/parse"
	"github.com/relaykit/relay/runtime"
)

/*
	VENDOR REQUEST
*/

// chatCompletionRequest is the DashScope (OpenAI-compatible) request shape.
type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      *float64      `json:"temperature,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
	ResultFormat     string        `json:"result_format,omitempty"` // Required marker for text models; rejected by vision models
	Stream           *bool         `json:"stream,omitempty"`
	Tools            []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string               `json:"id,omitempty"`
	Type     string               `json:"type"`
	Function chatToolCallFunction `json:"function"`
}

type chatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

/*
	VENDOR RESPONSE (blocking)
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"` // "chat.completion"
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

/*
	VENDOR RESPONSE (streaming)
*/

// streamChunk is a single SSE chunk from the streaming endpoint.
type streamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"` // "chat.completion.chunk"
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"` // Nullable; nil until the final chunk for this choice
}

type streamDelta struct {
	Role      string               `json:"role,omitempty"`
	Content   *string              `json:"content,omitempty"` // Nullable to distinguish empty string from absent
	ToolCalls []streamToolCallPart `json:"tool_calls,omitempty"`
}

type streamToolCallPart struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

// unmarshalStreamChunk parses a raw SSE data payload into a streamChunk.
func unmarshalStreamChunk(data string) (*streamChunk, error) {
	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

/*
	CONVERSION TO THE CANONICAL SHAPE
*/

// chunkToGeneric converts one vendor stream chunk into the canonical chunk.
func chunkToGeneric(chunk *streamChunk) runtime.ChatCompletionChunk {
	generic := runtime.ChatCompletionChunk{
		ID:      chunk.ID,
		Object:  runtime.ChunkObject,
		Created: chunk.Created,
		Model:   chunk.Model,
	}

	for _, choice := range chunk.Choices {
		delta := runtime.ChunkDelta{Role: choice.Delta.Role}
		if choice.Delta.Content != nil {
			delta.Content = *choice.Delta.Content
		}
		for _, part := range choice.Delta.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, runtime.ToolCallChunk{
				Index: part.Index,
				ID:    part.ID,
				Type:  part.Type,
				Function: runtime.ToolCallChunkFunction{
					Name:      part.Function.Name,
					Arguments: part.Function.Arguments,
				},
			})
		}

		generic.Choices = append(generic.Choices, runtime.ChunkChoice{
			Index:        choice.Index,
			Delta:        delta,
			FinishReason: choice.FinishReason,
		})
	}

	return generic
}

// completionToGeneric converts the vendor's blocking response into the
// canonical completion. Tool-call argument strings are normalized with the
// lenient parser because the vendor occasionally emits malformed JSON there.
func completionToGeneric(response chatCompletionResponse) runtime.ChatCompletion {
	generic := runtime.ChatCompletion{
		ID:      response.ID,
		Object:  "chat.completion",
		Created: response.Created,
		Model:   response.Model,
	}

	for _, choice := range response.Choices {
		message := runtime.ChoiceMessage{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		}
		for _, call := range choice.Message.ToolCalls {
			message.ToolCalls = append(message.ToolCalls, runtime.ToolCall{
				ID:   call.ID,
				Type: call.Type,
				Function: runtime.ToolCallFunction{
					Name:      call.Function.Name,
					Arguments: parse.NormalizeObjectString(call.Function.Arguments),
				},
			})
		}

		generic.Choices = append(generic.Choices, runtime.Choice{
			Index:        choice.Index,
			Message:      message,
			FinishReason: choice.FinishReason,
		})
	}

	return generic
}
