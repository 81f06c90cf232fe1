// Package relay is the entry point for the provider-agnostic chat-streaming
// adapter layer. It holds the dispatch table that maps provider ids onto
// runtime factories: callers configure credentials once, then obtain a
// [runtime.Runtime] by id and stream chats through it without knowing which
// vendor API sits behind it.
//
//	rt, err := relay.New("qwen", relay.Options{APIKey: key})
//	if err != nil { ... }
//	stream, err := rt.Chat(ctx, payload)
package relay

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/relaykit/relay/runtime"
	"github.com/relaykit/relay/runtime/openai"
	"github.com/relaykit/relay/runtime/qwen"
)

// Options configures construction of a runtime through the dispatch table.
// Zero-value fields fall back to each runtime's own defaults (environment
// variables for credentials, the vendor's documented default base URL).
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Debug      runtime.DebugOptions
}

// Factory builds a configured runtime for one provider id. It must fail
// with a classified error when the configuration cannot produce a usable
// runtime (e.g. no API key from options or environment).
type Factory func(options Options) (runtime.Runtime, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		qwen.ProviderID:   newQwen,
		openai.ProviderID: newOpenAI,
	}
	refreshListeners []runtime.RefreshFunc
)

func newQwen(options Options) (runtime.Runtime, error) {
	rt := qwen.New().WithDebug(options.Debug)
	if options.APIKey != "" {
		rt.WithAPIKey(options.APIKey)
	}
	if options.BaseURL != "" {
		rt.WithBaseURL(options.BaseURL)
	}
	if options.HTTPClient != nil {
		rt.WithHttpClient(options.HTTPClient)
	}
	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

func newOpenAI(options Options) (runtime.Runtime, error) {
	rt := openai.New().WithDebug(options.Debug)
	if options.APIKey != "" {
		rt.WithAPIKey(options.APIKey)
	}
	if options.BaseURL != "" {
		rt.WithBaseURL(options.BaseURL)
	}
	if options.HTTPClient != nil {
		rt.WithHttpClient(options.HTTPClient)
	}
	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

// New constructs the runtime registered under providerID. Unknown ids
// return an error; configuration failures return the classified error from
// the factory.
func New(providerID string, options Options) (runtime.Runtime, error) {
	mu.RLock()
	factory, ok := factories[providerID]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	return factory(options)
}

// Register adds or replaces a provider factory and notifies refresh
// listeners so external provider-list owners can re-read [Providers].
func Register(providerID string, factory Factory) {
	mu.Lock()
	factories[providerID] = factory
	listeners := make([]runtime.RefreshFunc, len(refreshListeners))
	copy(listeners, refreshListeners)
	mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

// OnRefresh subscribes a callback invoked whenever the provider table
// changes. The core never owns provider-list state; it only signals.
func OnRefresh(listener runtime.RefreshFunc) {
	mu.Lock()
	defer mu.Unlock()
	refreshListeners = append(refreshListeners, listener)
}

// Providers returns the registered provider ids, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	ids := make([]string, 0, len(factories))
	for id := range factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
