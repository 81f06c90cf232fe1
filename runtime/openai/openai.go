package openai

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
	ProviderID = "openai"

	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// Runtime implements [runtime.Runtime] for the OpenAI chat-completions API.
// A single instance is safe for concurrent Chat calls.
type Runtime struct {
	apiKey  string
	baseURL string
	client  *http.Client
	debug   runtime.DebugOptions
}

// New returns a Runtime initialized from environment variables
// (OPENAI_API_KEY, OPENAI_API_BASE_URL).
func New() *Runtime {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
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

// WithDebug enables best-effort capture of the raw vendor stream.
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

// Models returns the static OpenAI model catalog, unchanged.
func (r *Runtime) Models() []runtime.ModelCard {
	return Catalog()
}

// Chat implements [runtime.Runtime]. Tool declarations stream fine on this
// vendor, so the blocking branch is only taken when the caller explicitly
// disables streaming.
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
