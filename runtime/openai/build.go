package openai

import (
	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

// maxTopP is substituted when the caller requests top_p >= 1: the canonical
// payload contract defines (0, 1] with the boundary clamped, and this
// vendor treats top_p=1 as disabling nucleus sampling rather than an error,
// so the clamp keeps behavior uniform across runtimes.
const maxTopP = 0.999

// buildRequest converts the canonical payload into the vendor request. All
// sampling parameters pass through; only top_p is clamped below 1. The
// requested streaming mode (default true) is honored regardless of tool
// declarations. Never fails.
func buildRequest(payload runtime.ChatStreamPayload) chatCompletionRequest {
	request := chatCompletionRequest{
		Model:            payload.Model,
		Messages:         buildMessages(payload.Messages),
		Temperature:      payload.Temperature,
		PresencePenalty:  payload.PresencePenalty,
		FrequencyPenalty: payload.FrequencyPenalty,
		MaxTokens:        payload.MaxTokens,
	}

	if payload.TopP != nil {
		topP := *payload.TopP
		if topP >= 1 {
			topP = maxTopP
		}
		request.TopP = &topP
	}

	for _, tool := range payload.Tools {
		request.Tools = append(request.Tools, chatTool{
			Type: tool.Type,
			Function: chatFunction{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	request.Stream = utils.Ptr(payload.WantsStream())

	return request
}

func buildMessages(messages []runtime.Message) []chatMessage {
	built := make([]chatMessage, 0, len(messages))
	for _, message := range messages {
		chatMsg := chatMessage{
			Role:       string(message.Role),
			Content:    message.Content,
			Name:       message.Name,
			ToolCallID: message.ToolCallID,
		}
		for _, call := range message.ToolCalls {
			toolCall := chatToolCall{ID: call.ID, Type: call.Type}
			toolCall.Function.Name = call.Function.Name
			toolCall.Function.Arguments = call.Function.Arguments
			chatMsg.ToolCalls = append(chatMsg.ToolCalls, toolCall)
		}
		built = append(built, chatMsg)
	}
	return built
}
