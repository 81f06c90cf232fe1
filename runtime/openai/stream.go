package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

// transcodeStream converts the vendor's live SSE stream into the canonical
// chunk stream. Same contract as the qwen transcoder: lazy pull, push
// callback per chunk, arrival order preserved, debug capture off the main
// path, body released on completion or cancellation.
func (r *Runtime) transcodeStream(ctx context.Context, endpoint string, response *http.Response, opts runtime.ChatOptions) *runtime.ChunkStream {
	scanner := utils.NewSSEScanner(response.Body)
	sink := runtime.NewDebugSink(r.debug, ProviderID)

	iterator := func(yield func(runtime.ChatCompletionChunk, error) bool) {
		defer utils.CloseWithLog(response.Body)
		defer sink.Close()

		for {
			if ctx.Err() != nil {
				yield(runtime.ChatCompletionChunk{}, runtime.NormalizeError(ProviderID, endpoint, ctx.Err()))
				return
			}

			payload, sseErr := scanner.Next()
			if sseErr == io.EOF {
				return
			}
			if sseErr != nil {
				yield(runtime.ChatCompletionChunk{}, runtime.NormalizeError(ProviderID, endpoint, fmt.Errorf("SSE read error: %w", sseErr)))
				return
			}

			sink.Capture(payload)

			vendorChunk, parseErr := unmarshalStreamChunk(payload)
			if parseErr != nil {
				yield(runtime.ChatCompletionChunk{}, runtime.NormalizeError(ProviderID, endpoint, fmt.Errorf("failed to parse streaming chunk: %w", parseErr)))
				return
			}

			if len(vendorChunk.Choices) == 0 {
				continue
			}

			chunk := chunkToGeneric(vendorChunk)
			opts.Deliver(chunk)
			if !yield(chunk, nil) {
				return
			}
		}
	}

	return runtime.NewChunkStream(iterator)
}
