package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\n\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func writeSSEDone(writer http.ResponseWriter) {
	fmt.Fprintf(writer, "data: [DONE]\n\n")
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func newTestRuntime(serverURL string) *Runtime {
	rt := New()
	rt.WithBaseURL(serverURL)
	rt.WithAPIKey("test-key")
	return rt
}

// TestBuildRequest_ParameterPassthrough verifies that sampling parameters
// flow through unchanged except for the top_p boundary clamp.
func TestBuildRequest_ParameterPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		topP     *float64
		wantTopP *float64
	}{
		{name: "absent stays absent", topP: nil, wantTopP: nil},
		{name: "in-range passes through", topP: utils.Ptr(0.7), wantTopP: utils.Ptr(0.7)},
		{name: "boundary 1 is clamped", topP: utils.Ptr(1.0), wantTopP: utils.Ptr(maxTopP)},
		{name: "above 1 is clamped", topP: utils.Ptr(1.5), wantTopP: utils.Ptr(maxTopP)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := buildRequest(runtime.ChatStreamPayload{
				Model:       "gpt-4o",
				Temperature: utils.Ptr(0.5),
				TopP:        test.topP,
			})

			if request.Temperature == nil || *request.Temperature != 0.5 {
				t.Errorf("temperature = %v, want 0.5", request.Temperature)
			}
			switch {
			case test.wantTopP == nil && request.TopP != nil:
				t.Errorf("top_p = %v, want absent", *request.TopP)
			case test.wantTopP != nil && (request.TopP == nil || *request.TopP != *test.wantTopP):
				t.Errorf("top_p = %v, want %v", request.TopP, *test.wantTopP)
			}
		})
	}
}

// TestBuildRequest_ToolsKeepStreaming verifies that tool declarations do not
// force the blocking branch on this vendor.
func TestBuildRequest_ToolsKeepStreaming(t *testing.T) {
	request := buildRequest(runtime.ChatStreamPayload{
		Model: "gpt-4o",
		Tools: []runtime.Tool{{
			Type:     "function",
			Function: runtime.ToolFunction{Name: "get_weather"},
		}},
	})

	if request.Stream == nil || !*request.Stream {
		t.Error("expected stream=true with tools declared")
	}
	if len(request.Tools) != 1 || request.Tools[0].Function.Name != "get_weather" {
		t.Errorf("tools = %+v, want one get_weather declaration", request.Tools)
	}
}

// TestChat_StreamsToolCallDeltas verifies incremental tool-call fragments
// accumulate into a complete call on Collect.
func TestChat_StreamsToolCallDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)
		writeSSE(writer, `{"id":"chatcmpl-t","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"chatcmpl-t","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"chatcmpl-t","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"chatcmpl-t","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`)
		writeSSEDone(writer)
	}))
	defer server.Close()

	stream, err := newTestRuntime(server.URL).Chat(context.Background(), runtime.ChatStreamPayload{
		Model:    "gpt-4o",
		Messages: []runtime.Message{{Role: runtime.RoleUser, Content: "Weather in Paris?"}},
		Tools: []runtime.Tool{{
			Type:     "function",
			Function: runtime.ToolFunction{Name: "get_weather"},
		}},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	completion, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	calls := completion.Choices[0].Message.ToolCalls
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Function.Name != "get_weather" {
		t.Errorf("call = %+v, want call_1/get_weather", calls[0])
	}
	if calls[0].Function.Arguments != `{"city":"Paris"}` {
		t.Errorf("arguments = %q, want complete JSON object", calls[0].Function.Arguments)
	}
	if completion.Choices[0].FinishReason != "tool_calls" {
		t.Errorf("finish_reason = %q, want tool_calls", completion.Choices[0].FinishReason)
	}
}

// TestChat_BlockingWhenStreamingDisabled verifies the two-chunk synthesis
// when the caller opts out of streaming.
func TestChat_BlockingWhenStreamingDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var received chatCompletionRequest
		if err := json.NewDecoder(request.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if received.Stream == nil || *received.Stream {
			t.Error("expected stream=false when streaming is disabled")
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(chatCompletionResponse{
			ID:      "chatcmpl-b",
			Object:  "chat.completion",
			Created: 1700000000,
			Model:   "gpt-4o",
			Choices: []chatChoice{{
				Index:        0,
				Message:      chatResponseMessage{Role: "assistant", Content: "Blocking answer"},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	stream, err := newTestRuntime(server.URL).Chat(context.Background(), runtime.ChatStreamPayload{
		Model:    "gpt-4o",
		Messages: []runtime.Message{{Role: runtime.RoleUser, Content: "Hi"}},
		Stream:   utils.Ptr(false),
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	var chunks []runtime.ChatCompletionChunk
	for chunk, iterErr := range stream.Iter() {
		if iterErr != nil {
			t.Fatalf("unexpected error: %v", iterErr)
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 synthesized chunks, got %d", len(chunks))
	}
	if chunks[0].Choices[0].Delta.Content != "Blocking answer" {
		t.Errorf("content = %q, want Blocking answer", chunks[0].Choices[0].Delta.Content)
	}
	if chunks[0].Choices[0].FinishReason != nil {
		t.Error("first chunk must carry a nil finish_reason")
	}
	if chunks[1].Choices[0].FinishReason == nil || *chunks[1].Choices[0].FinishReason != "stop" {
		t.Errorf("second chunk finish_reason = %v, want stop", chunks[1].Choices[0].FinishReason)
	}
}

// TestChat_UnauthorizedClassification verifies 401 handling matches the
// shared classification contract.
func TestChat_UnauthorizedClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		writer.Write([]byte(`{"error":{"type":"invalid_api_key","message":"Incorrect API key provided."}}`))
	}))
	defer server.Close()

	_, err := newTestRuntime(server.URL).Chat(context.Background(), runtime.ChatStreamPayload{
		Model:    "gpt-4o",
		Messages: []runtime.Message{{Role: runtime.RoleUser, Content: "Hi"}},
	})
	if err == nil {
		t.Fatal("expected an error for a 401 response")
	}

	var classified *runtime.Error
	if !errors.As(err, &classified) {
		t.Fatalf("expected *runtime.Error, got %T", err)
	}
	if classified.Kind != runtime.ErrInvalidProviderAPIKey {
		t.Errorf("kind = %q, want %q", classified.Kind, runtime.ErrInvalidProviderAPIKey)
	}
	if classified.Provider != ProviderID {
		t.Errorf("provider = %q, want %q", classified.Provider, ProviderID)
	}
}

// TestChat_ContentStreaming verifies the plain streaming path end to end.
func TestChat_ContentStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)
		writeSSE(writer, `{"id":"chatcmpl-c","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hi"},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"chatcmpl-c","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":" there"},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"chatcmpl-c","object":"chat.completion.chunk","created":1700000000,"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
		writeSSEDone(writer)
	}))
	defer server.Close()

	stream, err := newTestRuntime(server.URL).Chat(context.Background(), runtime.ChatStreamPayload{
		Model:    "gpt-4o",
		Messages: []runtime.Message{{Role: runtime.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	completion, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if completion.Choices[0].Message.Content != "Hi there" {
		t.Errorf("content = %q, want %q", completion.Choices[0].Message.Content, "Hi there")
	}
}
