package openai

import (
	"encoding/json"

	"github.com/relaykit/relay/runtime"
)

/*
	VENDOR REQUEST
*/

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      *float64      `json:"temperature,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
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
	VENDOR RESPONSE
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
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

type streamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

type streamDelta struct {
	Role      string               `json:"role,omitempty"`
	Content   *string              `json:"content,omitempty"`
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
					Arguments: call.Function.Arguments,
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
