package qwen

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/relaykit/relay/internal/utils"
	"github.com/relaykit/relay/runtime"
)

const (
	// ProviderID tags every error emitted by this runtime.
	ProviderID = "qwen"

	// defaultBaseURL is DashScope's OpenAI-compatible endpoint base.
	defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	chatCompletionsEndpoint = "/chat/completions"
)

// Runtime implements [runtime.Runtime] for the Qwen model family. The
// authenticated client handle is read-only after construction, so a single
// instance is safe for concurrent Chat calls.
type Runtime struct {
	apiKey  string
	baseURL string
	client  *http.Client
	debug   runtime.DebugOptions
}

// New returns a Runtime initialized from environment variables. It reads
// QWEN_API_KEY for authentication and QWEN_API_BASE_URL for the endpoint
// base, defaulting to DashScope's OpenAI-compatible endpoint when unset.
func New() *Runtime {
	apiKey := os.Getenv("QWEN_API_KEY")
	baseURL := os.Getenv("QWEN_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Runtime{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests.
func (r *Runtime) WithAPIKey(apiKey string) runtime.Runtime {
	r.apiKey = apiKey
	return r
}

// WithBaseURL overrides the default base URL for API requests.
func (r *Runtime) WithBaseURL(baseURL string) runtime.Runtime {
	r.baseURL = baseURL
	return r
}

// WithHttpClient sets the HTTP client used for outbound requests.
func (r *Runtime) WithHttpClient(httpClient *http.Client) runtime.Runtime {
	r.client = httpClient
	return r
}

// WithDebug enables best-effort capture of the raw vendor stream. It
// returns *Runtime (not runtime.Runtime) so it can be chained with the
// other builders before the value is used through the interface.
func (r *Runtime) WithDebug(debug runtime.DebugOptions) *Runtime {
	r.debug = debug
	return r
}

// Validate checks the construction contract: a runtime without an API key
// fails immediately, before any network call is attempted.
func (r *Runtime) Validate() error {
	if r.apiKey == "" {
		return runtime.NewError(ProviderID, r.baseURL+chatCompletionsEndpoint, runtime.ErrInvalidProviderAPIKey, errors.New("API key is not set"))
	}
	return nil
}

// Models returns the static Qwen model catalog, unchanged.
func (r *Runtime) Models() []runtime.ModelCard {
	return Catalog()
}

// Chat implements [runtime.Runtime]. It builds the vendor request, performs
// the network call, and returns the canonical chunk stream. Requests
// carrying tool declarations take the blocking branch and are synthesized
// into the two-chunk stream; everything else streams. Any failure is
// classified exactly once into a [*runtime.Error] carrying the provider id
// and endpoint.
func (r *Runtime) Chat(ctx context.Context, payload runtime.ChatStreamPayload, options ...runtime.ChatOption) (*runtime.ChunkStream, error) {
	opts := runtime.NewChatOptions(options...)
	endpoint := r.baseURL + chatCompletionsEndpoint

	if r.apiKey == "" {
		return nil, runtime.NewError(ProviderID, endpoint, runtime.ErrInvalidProviderAPIKey, errors.New("API key is not set"))
	}

	request := buildRequest(payload)

	if request.Stream != nil && *request.Stream {
		response, err := utils.DoPostStream(ctx, r.client, endpoint, r.apiKey, request)
		if err != nil {
			return nil, runtime.NormalizeError(ProviderID, endpoint, err)
		}

		stream := r.transcodeStream(ctx, endpoint, response, opts)
		stream.SetHeaders(opts.Headers)
		return stream, nil
	}

	// Blocking branch: tools present, or streaming explicitly disabled.
	_, vendorResponse, err := utils.DoPostSync[chatCompletionResponse](ctx, r.client, endpoint, r.apiKey, request)
	if err != nil {
		return nil, runtime.NormalizeError(ProviderID, endpoint, err)
	}
	if vendorResponse == nil || len(vendorResponse.Choices) == 0 {
		return nil, runtime.NewError(ProviderID, endpoint, runtime.ErrProviderBiz, errors.New("no choices in vendor response"))
	}

	stream := runtime.NewSynthesizedStream(ctx, ProviderID, endpoint, completionToGeneric(*vendorResponse), opts)
	stream.SetHeaders(opts.Headers)
	return stream, nil
}
