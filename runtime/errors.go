package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/relaykit/relay/internal/utils"
)

// ErrorKind is the canonical classification of a runtime failure.
type ErrorKind string

const (
	// ErrInvalidProviderAPIKey marks a missing or rejected credential
	// (construction without a key, or a vendor 401).
	ErrInvalidProviderAPIKey ErrorKind = "InvalidProviderAPIKey"

	// ErrProviderBiz is the default bucket for vendor-side failures that
	// have no finer classification.
	ErrProviderBiz ErrorKind = "ProviderBizError"

	// ErrRateLimited marks vendor throttling / quota exhaustion.
	ErrRateLimited ErrorKind = "RateLimited"

	// ErrContentPolicy marks vendor content-safety rejections.
	ErrContentPolicy ErrorKind = "ContentPolicy"
)

// Error is the single error type surfaced by every runtime. It is
// constructed once at the failure site and propagated unchanged to the
// caller; runtimes never retry internally.
type Error struct {
	Kind     ErrorKind
	Provider string // Provider id tag, e.g. "qwen"
	Endpoint string // Vendor endpoint the failing call targeted
	Status   int    // HTTP status when the failure came from a response, else 0
	Body     any    // Structured vendor error payload when one could be extracted
	Err      error  // Underlying cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s %s]: %v", e.Kind, e.Provider, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s [%s %s]", e.Kind, e.Provider, e.Endpoint)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error for failures detected before any
// response is available (missing credential, marshal failures).
func NewError(provider, endpoint string, kind ErrorKind, err error) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NormalizeError maps an arbitrary failure from a vendor call into a
// classified [*Error]. It performs exactly one classification pass: an
// already-classified error is returned unchanged. A 401 response maps to
// [ErrInvalidProviderAPIKey]; any other response is handed to
// [InspectVendorError], defaulting to [ErrProviderBiz] when no finer
// classification is found.
func NormalizeError(provider, endpoint string, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	runtimeError := &Error{
		Kind:     ErrProviderBiz,
		Provider: provider,
		Endpoint: endpoint,
		Err:      err,
	}

	var httpError *utils.HTTPError
	if errors.As(err, &httpError) {
		runtimeError.Status = httpError.StatusCode

		kind, body := InspectVendorError(httpError.Body)
		if body != nil {
			runtimeError.Body = body
		}

		if httpError.StatusCode == http.StatusUnauthorized {
			runtimeError.Kind = ErrInvalidProviderAPIKey
		} else if kind != "" {
			runtimeError.Kind = kind
		}
	}

	return runtimeError
}

// VendorErrorBody is the structured error payload extracted from a vendor
// error response.
type VendorErrorBody struct {
	Code    string `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// vendorErrorEnvelope covers the two wire shapes seen across vendors:
// a top-level {code, message} object and an {error: {...}} wrapper.
type vendorErrorEnvelope struct {
	VendorErrorBody
	Error *VendorErrorBody `json:"error,omitempty"`
}

// InspectVendorError extracts a structured error body from a raw vendor
// error response and attempts a finer-grained classification from
// well-known vendor codes. It returns an empty kind when no finer
// classification applies; callers then keep the [ErrProviderBiz] default.
// The returned body may be nil when the payload is not JSON.
func InspectVendorError(raw []byte) (ErrorKind, *VendorErrorBody) {
	if len(raw) == 0 {
		return "", nil
	}

	var envelope vendorErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", nil
	}

	body := envelope.VendorErrorBody
	if envelope.Error != nil {
		body = *envelope.Error
	}
	if body == (VendorErrorBody{}) {
		return "", nil
	}

	return classifyVendorCode(body), &body
}

// classifyVendorCode maps well-known vendor error codes/types onto the
// canonical taxonomy.
func classifyVendorCode(body VendorErrorBody) ErrorKind {
	switch body.Code {
	case "InvalidApiKey", "InvalidApiKey.NotFound":
		return ErrInvalidProviderAPIKey
	case "Throttling", "Throttling.RateQuota", "Throttling.AllocationQuota", "LimitRequests":
		return ErrRateLimited
	case "DataInspectionFailed":
		return ErrContentPolicy
	}

	switch body.Type {
	case "insufficient_quota", "rate_limit_exceeded", "tokens":
		return ErrRateLimited
	case "invalid_api_key", "authentication_error":
		return ErrInvalidProviderAPIKey
	case "content_filter", "content_policy_violation":
		return ErrContentPolicy
	}

	return ""
}
