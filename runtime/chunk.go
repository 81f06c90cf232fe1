package runtime

import (
	"context"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

/*
	##### CANONICAL STREAM UNITS #####
*/

// ChunkObject is the object tag carried by every canonical chunk.
const ChunkObject = "chat.completion.chunk"

// ChatCompletionChunk is the canonical incremental response unit exposed to
// callers regardless of vendor. Each chunk is independently parseable; the
// final chunk for a choice carries a non-nil FinishReason.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"` // "chat.completion.chunk"
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice carries the delta for one parallel candidate completion.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"` // Nullable; nil until the final chunk for this choice
}

// ChunkDelta is the incremental payload of a chunk choice. All fields are
// optional; a chunk may carry only content, only a role, or only tool calls.
type ChunkDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallChunk `json:"tool_calls,omitempty"`
}

// ToolCallChunk is an incremental tool-call fragment. The first fragment for
// a given index carries the ID and function name; later fragments carry only
// argument pieces.
type ToolCallChunk struct {
	Index    int                   `json:"index"`
	ID       string                `json:"id,omitempty"`
	Type     string                `json:"type,omitempty"`
	Function ToolCallChunkFunction `json:"function"`
}

type ToolCallChunkFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

/*
	##### CANONICAL BLOCKING COMPLETION #####
*/

// ChatCompletion is the canonical non-streaming completion. Runtimes map a
// vendor's blocking response into this shape before synthesizing chunks, and
// [ChunkStream.Collect] reassembles one from a consumed stream.
type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// SynthesizeChunks converts a blocking completion into exactly two canonical
// chunks: the first carries role/content/tool-call fragments for every
// choice with a nil finish reason, the second carries only the finish
// reasons. This models "first content, then termination" even when the
// vendor returned a single blocking response.
//
// Tool calls are forwarded as fragments with reconstructed per-call indices.
// A missing completion id is replaced with a generated one so both chunks
// share a usable identifier.
func SynthesizeChunks(completion ChatCompletion) []ChatCompletionChunk {
	id := completion.ID
	if id == "" {
		id = "chatcmpl-" + uuid.NewString()
	}
	created := completion.Created
	if created == 0 {
		created = time.Now().Unix()
	}

	content := ChatCompletionChunk{
		ID:      id,
		Object:  ChunkObject,
		Created: created,
		Model:   completion.Model,
	}
	terminal := content

	for _, choice := range completion.Choices {
		delta := ChunkDelta{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		}
		for callIndex, call := range choice.Message.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, ToolCallChunk{
				Index: callIndex,
				ID:    call.ID,
				Type:  call.Type,
				Function: ToolCallChunkFunction{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}

		content.Choices = append(content.Choices, ChunkChoice{
			Index:        choice.Index,
			Delta:        delta,
			FinishReason: nil,
		})

		finishReason := choice.FinishReason
		terminal.Choices = append(terminal.Choices, ChunkChoice{
			Index:        choice.Index,
			FinishReason: &finishReason,
		})
	}

	return []ChatCompletionChunk{content, terminal}
}

// NewSynthesizedStream wraps a blocking completion as a canonical chunk
// stream using the two-chunk synthesis of [SynthesizeChunks]. The iterator
// checks ctx between yields, so an early cancellation may deliver the
// content chunk but not the terminal one (partial delivery then abort).
func NewSynthesizedStream(ctx context.Context, provider, endpoint string, completion ChatCompletion, options ChatOptions) *ChunkStream {
	chunks := SynthesizeChunks(completion)

	iterator := func(yield func(ChatCompletionChunk, error) bool) {
		for _, chunk := range chunks {
			if ctx.Err() != nil {
				yield(ChatCompletionChunk{}, NormalizeError(provider, endpoint, ctx.Err()))
				return
			}
			options.Deliver(chunk)
			if !yield(chunk, nil) {
				return
			}
		}
	}

	return NewChunkStream(iterator)
}

/*
	##### CHUNK STREAM #####
*/

// ChunkStream wraps a lazy chunk iterator and provides accumulation of
// chunks into a final ChatCompletion. It supports range-based iteration for
// incremental delivery and a convenience Collect() for callers who want the
// complete response.
//
// Callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// producing runtime may hold open resources (such as an HTTP response body)
// that are only released when the iterator completes or is abandoned via a
// loop break.
type ChunkStream struct {
	iterator iter.Seq2[ChatCompletionChunk, error]
	headers  http.Header
}

// NewChunkStream creates a ChunkStream from a raw chunk iterator. The
// iterator yields chunks with a nil error for normal deltas and may yield a
// non-nil error to signal a mid-stream failure.
func NewChunkStream(iterator iter.Seq2[ChatCompletionChunk, error]) *ChunkStream {
	return &ChunkStream{iterator: iterator}
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    render(chunk)
//	}
func (stream *ChunkStream) Iter() iter.Seq2[ChatCompletionChunk, error] {
	return stream.iterator
}

// SetHeaders attaches caller-specified response headers to the stream, for
// callers that serve the chunk sequence over HTTP.
func (stream *ChunkStream) SetHeaders(headers http.Header) {
	stream.headers = headers
}

// Headers returns the response headers attached to the stream, or nil.
func (stream *ChunkStream) Headers() http.Header {
	return stream.headers
}

// Collect consumes the entire stream and returns the accumulated
// ChatCompletion. Any mid-stream error terminates collection and returns
// the partial completion together with the error.
func (stream *ChunkStream) Collect() (*ChatCompletion, error) {
	accumulated := &ChatCompletion{Object: "chat.completion"}
	builders := map[int]*choiceBuilder{}
	var order []int

	for chunk, err := range stream.iterator {
		if err != nil {
			finalizeChoices(accumulated, builders, order)
			return accumulated, err
		}

		if accumulated.ID == "" {
			accumulated.ID = chunk.ID
		}
		if accumulated.Model == "" {
			accumulated.Model = chunk.Model
		}
		if accumulated.Created == 0 {
			accumulated.Created = chunk.Created
		}

		for _, choice := range chunk.Choices {
			builder, seen := builders[choice.Index]
			if !seen {
				builder = &choiceBuilder{}
				builders[choice.Index] = builder
				order = append(order, choice.Index)
			}

			if choice.Delta.Role != "" {
				builder.role = choice.Delta.Role
			}
			builder.content.WriteString(choice.Delta.Content)
			for _, fragment := range choice.Delta.ToolCalls {
				builder.toolCalls = accumulateToolCallFragment(builder.toolCalls, fragment)
			}
			if choice.FinishReason != nil {
				builder.finishReason = *choice.FinishReason
			}
		}
	}

	finalizeChoices(accumulated, builders, order)
	return accumulated, nil
}

// choiceBuilder accumulates per-choice deltas into a complete Choice.
type choiceBuilder struct {
	role         string
	content      strings.Builder
	toolCalls    []toolCallBuilder
	finishReason string
}

// toolCallBuilder accumulates incremental tool-call fragments into a
// complete ToolCall.
type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// accumulateToolCallFragment merges one fragment into the running list of
// tool-call builders, growing the slice when a new index appears.
func accumulateToolCallFragment(builders []toolCallBuilder, fragment ToolCallChunk) []toolCallBuilder {
	for len(builders) <= fragment.Index {
		builders = append(builders, toolCallBuilder{})
	}

	builder := &builders[fragment.Index]
	if fragment.ID != "" {
		builder.id = fragment.ID
	}
	if fragment.Function.Name != "" {
		builder.name = fragment.Function.Name
	}
	if fragment.Function.Arguments != "" {
		builder.arguments.WriteString(fragment.Function.Arguments)
	}

	return builders
}

func finalizeChoices(completion *ChatCompletion, builders map[int]*choiceBuilder, order []int) {
	for _, index := range order {
		builder := builders[index]
		choice := Choice{
			Index: index,
			Message: ChoiceMessage{
				Role:    builder.role,
				Content: builder.content.String(),
			},
			FinishReason: builder.finishReason,
		}
		for _, callBuilder := range builder.toolCalls {
			choice.Message.ToolCalls = append(choice.Message.ToolCalls, ToolCall{
				ID:   callBuilder.id,
				Type: "function",
				Function: ToolCallFunction{
					Name:      callBuilder.name,
					Arguments: callBuilder.arguments.String(),
				},
			})
		}
		completion.Choices = append(completion.Choices, choice)
	}
}
