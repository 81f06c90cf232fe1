package qwen

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

// transcodeStream converts the vendor's live SSE stream into the canonical
// chunk stream. The source is consumed lazily, one event at a time, and
// each transcoded chunk is pushed to the caller's callback as it becomes
// available. Arrival order is preserved; nothing is reordered or buffered
// in full.
//
// When debug capture is enabled, every raw SSE payload is also forwarded to
// the sink, which consumes on its own goroutine and drops rather than
// delaying this path.
//
// On cancellation the iterator stops pulling, yields the classified context
// error, and releases the response body. The stream terminates when the
// vendor signals completion ([DONE] sentinel or EOF).
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

			// Keep-alive frames with no choices carry nothing canonical.
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
