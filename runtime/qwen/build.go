package qwen

import (
	"strings"

	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

const (
	// visionModelPrefix identifies the vision-capable model family by its
	// naming convention.
	visionModelPrefix = "qwen-vl"

	// maxTopP is substituted when the caller requests top_p >= 1; the API
	// rejects the boundary value.
	maxTopP = 0.999

	// resultFormatMessage is the response-format marker required by the
	// vendor for text models.
	resultFormatMessage = "message"
)

// isVisionModel reports whether the model id belongs to the vision family.
func isVisionModel(model string) bool {
	return strings.HasPrefix(model, visionModelPrefix)
}

// buildRequest converts the canonical payload into the vendor request.
//
// Vision models reject presence_penalty, frequency_penalty, temperature,
// top_p and result_format, so those are omitted for the qwen-vl family.
// For text models top_p passes through unless >= 1, in which case 0.999 is
// substituted. Tool declarations force the blocking endpoint because the
// vendor cannot deliver tool calls incrementally; otherwise the caller's
// requested streaming mode (default true) is honored.
//
// buildRequest never fails; unsupported parameters are dropped rather than
// surfaced as errors.
func buildRequest(payload runtime.ChatStreamPayload) chatCompletionRequest {
	request := chatCompletionRequest{
		Model:     payload.Model,
		Messages:  buildMessages(payload.Messages),
		MaxTokens: payload.MaxTokens,
	}

	if !isVisionModel(payload.Model) {
		request.Temperature = payload.Temperature
		request.PresencePenalty = payload.PresencePenalty
		request.FrequencyPenalty = payload.FrequencyPenalty
		request.ResultFormat = resultFormatMessage

		if payload.TopP != nil {
			topP := *payload.TopP
			if topP >= 1 {
				topP = maxTopP
			}
			request.TopP = &topP
		}
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

	streamEnabled := payload.WantsStream() && len(payload.Tools) == 0
	request.Stream = utils.Ptr(streamEnabled)

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
