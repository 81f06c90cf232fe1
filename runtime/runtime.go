package runtime

import (
	"context"
	"net/http"
)

// Runtime is the capability interface satisfied by every vendor
// implementation. One instance serves one configured vendor; the
// authenticated client handle it holds is read-only shared state, so
// concurrent Chat calls on the same instance are safe and each call owns
// its own request/response lifecycle.
type Runtime interface {
	// Models returns the runtime's static model catalog, unchanged.
	Models() []ModelCard

	// Chat sends the canonical payload to the vendor and returns the
	// canonical chunk stream. Cancellation travels through ctx: cancelling
	// it aborts the in-flight vendor call and stops the transcoder from
	// pulling further chunks. Pre-stream failures are returned as a
	// classified [*Error]; mid-stream failures are yielded through the
	// stream's iterator, also classified.
	Chat(ctx context.Context, payload ChatStreamPayload, options ...ChatOption) (*ChunkStream, error)
}

// ChatOptions carries the per-call options accepted by [Runtime.Chat].
type ChatOptions struct {
	// Callback, when set, observes every chunk the stream yields, in
	// arrival order, as it becomes available. Delivery is push-based; the
	// stream is not buffered in full before the callback runs.
	Callback func(ChatCompletionChunk)

	// Headers are attached to the returned stream for callers that serve
	// it over HTTP. The runtime does not interpret them.
	Headers http.Header
}

// ChatOption mutates ChatOptions. Options are applied in order.
type ChatOption func(*ChatOptions)

// WithCallback sets a per-chunk delivery callback.
func WithCallback(callback func(ChatCompletionChunk)) ChatOption {
	return func(options *ChatOptions) {
		options.Callback = callback
	}
}

// WithHeaders sets response headers to attach to the returned stream.
func WithHeaders(headers http.Header) ChatOption {
	return func(options *ChatOptions) {
		options.Headers = headers
	}
}

// NewChatOptions applies the given options to a zero ChatOptions.
func NewChatOptions(options ...ChatOption) ChatOptions {
	var applied ChatOptions
	for _, option := range options {
		option(&applied)
	}
	return applied
}

// Deliver invokes the callback with chunk when one is set.
func (options ChatOptions) Deliver(chunk ChatCompletionChunk) {
	if options.Callback != nil {
		options.Callback(chunk)
	}
}

// DebugOptions enables best-effort capture of the raw vendor stream to a
// local sink. It is injected at runtime construction, never read from
// ambient process state by the library, and must never affect the
// functional output: sink failures are logged and swallowed, and a slow or
// full sink drops payloads instead of delaying the caller's stream.
type DebugOptions struct {
	Enabled bool
	Dir     string // Capture directory; defaults to the OS temp dir when empty
}

// RefreshFunc signals an external provider-list owner that its list should
// be refreshed. The core only invokes it; it never owns list state.
type RefreshFunc func()
