package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// TestSynthesizeChunks_TwoChunkInvariant verifies that a blocking completion
// with N choices is synthesized into exactly two chunks: the first carrying
// content/role with nil finish reasons, the second carrying only the finish
// reasons.
func TestSynthesizeChunks_TwoChunkInvariant(t *testing.T) {
	completion := ChatCompletion{
		ID:      "chatcmpl-42",
		Model:   "qwen-max",
		Created: 1700000000,
		Choices: []Choice{
			{Index: 0, Message: ChoiceMessage{Role: "assistant", Content: "first"}, FinishReason: "stop"},
			{Index: 1, Message: ChoiceMessage{Role: "assistant", Content: "second"}, FinishReason: "length"},
		},
	}

	chunks := SynthesizeChunks(completion)
	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(chunks))
	}

	content, terminal := chunks[0], chunks[1]

	if len(content.Choices) != 2 {
		t.Fatalf("expected 2 choices in content chunk, got %d", len(content.Choices))
	}
	for _, choice := range content.Choices {
		if choice.FinishReason != nil {
			t.Errorf("content chunk choice %d: finish_reason = %q, want nil", choice.Index, *choice.FinishReason)
		}
		if choice.Delta.Role != "assistant" {
			t.Errorf("content chunk choice %d: role = %q, want assistant", choice.Index, choice.Delta.Role)
		}
		if choice.Delta.Content == "" {
			t.Errorf("content chunk choice %d: content is empty", choice.Index)
		}
	}

	if len(terminal.Choices) != 2 {
		t.Fatalf("expected 2 choices in terminal chunk, got %d", len(terminal.Choices))
	}
	wantReasons := []string{"stop", "length"}
	for i, choice := range terminal.Choices {
		if choice.FinishReason == nil || *choice.FinishReason != wantReasons[i] {
			t.Errorf("terminal chunk choice %d: finish_reason = %v, want %q", i, choice.FinishReason, wantReasons[i])
		}
		if choice.Delta.Content != "" || choice.Delta.Role != "" {
			t.Errorf("terminal chunk choice %d carries delta content, want empty", i)
		}
	}

	if content.ID != "chatcmpl-42" || terminal.ID != "chatcmpl-42" {
		t.Errorf("chunks should share the completion id, got %q and %q", content.ID, terminal.ID)
	}
	if content.Object != ChunkObject {
		t.Errorf("object = %q, want %q", content.Object, ChunkObject)
	}
}

// TestSynthesizeChunks_ToolCallFragments verifies that tool calls are
// forwarded as fragments with reconstructed per-call indices.
func TestSynthesizeChunks_ToolCallFragments(t *testing.T) {
	completion := ChatCompletion{
		ID:    "chatcmpl-tools",
		Model: "qwen-max",
		Choices: []Choice{
			{
				Index: 0,
				Message: ChoiceMessage{
					Role: "assistant",
					ToolCalls: []ToolCall{
						{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: "get_weather", Arguments: `{"city":"Paris"}`}},
						{ID: "call_2", Type: "function", Function: ToolCallFunction{Name: "get_time", Arguments: `{}`}},
					},
				},
				FinishReason: "tool_calls",
			},
		},
	}

	chunks := SynthesizeChunks(completion)
	fragments := chunks[0].Choices[0].Delta.ToolCalls
	if len(fragments) != 2 {
		t.Fatalf("expected 2 tool call fragments, got %d", len(fragments))
	}
	for i, fragment := range fragments {
		if fragment.Index != i {
			t.Errorf("fragment %d: index = %d, want %d", i, fragment.Index, i)
		}
	}
	if fragments[0].Function.Name != "get_weather" || fragments[1].Function.Name != "get_time" {
		t.Errorf("fragment names = %q, %q", fragments[0].Function.Name, fragments[1].Function.Name)
	}
}

// TestSynthesizeChunks_GeneratedID verifies that a missing completion id is
// replaced with a generated one shared by both chunks.
func TestSynthesizeChunks_GeneratedID(t *testing.T) {
	chunks := SynthesizeChunks(ChatCompletion{
		Model:   "qwen-turbo",
		Choices: []Choice{{Message: ChoiceMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"}},
	})

	if chunks[0].ID == "" {
		t.Fatal("expected a generated id, got empty")
	}
	if !strings.HasPrefix(chunks[0].ID, "chatcmpl-") {
		t.Errorf("generated id %q should carry the chatcmpl- prefix", chunks[0].ID)
	}
	if chunks[0].ID != chunks[1].ID {
		t.Errorf("chunks carry different ids: %q vs %q", chunks[0].ID, chunks[1].ID)
	}
	if chunks[0].Created == 0 {
		t.Error("expected a non-zero created timestamp")
	}
}

// TestChunkStream_Collect verifies accumulation of content deltas and
// reassembly of split tool-call argument fragments per index.
func TestChunkStream_Collect(t *testing.T) {
	finish := "tool_calls"
	stream := NewChunkStream(func(yield func(ChatCompletionChunk, error) bool) {
		chunks := []ChatCompletionChunk{
			{ID: "c1", Model: "m", Created: 1, Choices: []ChunkChoice{{Delta: ChunkDelta{Role: "assistant", Content: "Hel"}}}},
			{ID: "c1", Choices: []ChunkChoice{{Delta: ChunkDelta{Content: "lo"}}}},
			{ID: "c1", Choices: []ChunkChoice{{Delta: ChunkDelta{ToolCalls: []ToolCallChunk{
				{Index: 0, ID: "call_a", Type: "function", Function: ToolCallChunkFunction{Name: "lookup", Arguments: `{"q":`}},
			}}}}},
			{ID: "c1", Choices: []ChunkChoice{{Delta: ChunkDelta{ToolCalls: []ToolCallChunk{
				{Index: 0, Function: ToolCallChunkFunction{Arguments: `"x"}`}},
			}}}}},
			{ID: "c1", Choices: []ChunkChoice{{FinishReason: &finish}}},
		}
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	})

	completion, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	if len(completion.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(completion.Choices))
	}
	choice := completion.Choices[0]
	if choice.Message.Content != "Hello" {
		t.Errorf("content = %q, want %q", choice.Message.Content, "Hello")
	}
	if choice.FinishReason != "tool_calls" {
		t.Errorf("finish_reason = %q, want tool_calls", choice.FinishReason)
	}
	if len(choice.Message.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(choice.Message.ToolCalls))
	}
	call := choice.Message.ToolCalls[0]
	if call.ID != "call_a" || call.Function.Name != "lookup" {
		t.Errorf("tool call = %+v", call)
	}
	if call.Function.Arguments != `{"q":"x"}` {
		t.Errorf("arguments = %q, want %q", call.Function.Arguments, `{"q":"x"}`)
	}
}

// TestChunkStream_CollectMidStreamError verifies that a mid-stream error
// terminates collection and returns the partial completion with the error.
func TestChunkStream_CollectMidStreamError(t *testing.T) {
	streamErr := errors.New("boom")
	stream := NewChunkStream(func(yield func(ChatCompletionChunk, error) bool) {
		if !yield(ChatCompletionChunk{ID: "c1", Choices: []ChunkChoice{{Delta: ChunkDelta{Content: "partial"}}}}, nil) {
			return
		}
		yield(ChatCompletionChunk{}, streamErr)
	})

	completion, err := stream.Collect()
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if len(completion.Choices) != 1 || completion.Choices[0].Message.Content != "partial" {
		t.Errorf("expected partial content to be accumulated, got %+v", completion.Choices)
	}
}

// TestNewSynthesizedStream_CallbackOrder verifies push delivery: the
// callback observes both chunks in order, matching what the iterator yields.
func TestNewSynthesizedStream_CallbackOrder(t *testing.T) {
	var delivered []ChatCompletionChunk
	options := NewChatOptions(WithCallback(func(chunk ChatCompletionChunk) {
		delivered = append(delivered, chunk)
	}))

	completion := ChatCompletion{
		ID:      "chatcmpl-cb",
		Choices: []Choice{{Message: ChoiceMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"}},
	}

	stream := NewSynthesizedStream(context.Background(), "qwen", "/chat/completions", completion, options)

	var yielded []ChatCompletionChunk
	for chunk, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		yielded = append(yielded, chunk)
	}

	if len(yielded) != 2 || len(delivered) != 2 {
		t.Fatalf("expected 2 chunks via iterator and callback, got %d and %d", len(yielded), len(delivered))
	}
	for i := range yielded {
		if yielded[i].ID != delivered[i].ID || len(yielded[i].Choices) != len(delivered[i].Choices) {
			t.Errorf("chunk %d differs between iterator and callback", i)
		}
	}
	if yielded[0].Choices[0].FinishReason != nil {
		t.Error("first chunk should carry a nil finish_reason")
	}
	if yielded[1].Choices[0].FinishReason == nil {
		t.Error("second chunk should carry the finish_reason")
	}
}

// TestNewSynthesizedStream_CancelledBeforeConsumption verifies that a
// cancelled context yields no chunks to the callback, only the classified
// error.
func TestNewSynthesizedStream_CancelledBeforeConsumption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callbackCount := 0
	options := NewChatOptions(WithCallback(func(ChatCompletionChunk) { callbackCount++ }))

	stream := NewSynthesizedStream(ctx, "qwen", "/chat/completions", ChatCompletion{
		Choices: []Choice{{Message: ChoiceMessage{Content: "never"}, FinishReason: "stop"}},
	}, options)

	var gotErr error
	for _, err := range stream.Iter() {
		if err != nil {
			gotErr = err
			break
		}
	}

	if gotErr == nil {
		t.Fatal("expected an error from the cancelled stream")
	}
	var classified *Error
	if !errors.As(gotErr, &classified) {
		t.Fatalf("expected a classified *Error, got %T: %v", gotErr, gotErr)
	}
	if callbackCount != 0 {
		t.Errorf("expected no callback deliveries, got %d", callbackCount)
	}
}

// TestChunkStream_Headers verifies that caller-specified response headers
// are attached to and retrievable from the stream.
func TestChunkStream_Headers(t *testing.T) {
	stream := NewChunkStream(func(yield func(ChatCompletionChunk, error) bool) {})
	if stream.Headers() != nil {
		t.Error("expected nil headers on a fresh stream")
	}

	options := NewChatOptions(WithHeaders(map[string][]string{"X-Request-Id": {"abc"}}))
	stream.SetHeaders(options.Headers)
	if got := stream.Headers().Get("X-Request-Id"); got != "abc" {
		t.Errorf("X-Request-Id = %q, want abc", got)
	}
}
