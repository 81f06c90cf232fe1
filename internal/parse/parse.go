// Package parse provides lenient JSON decoding for payloads that vendors
// occasionally emit malformed, such as tool-call argument strings with
// single quotes, trailing commas, or missing brackets. Decoding first tries
// strict encoding/json and falls back to jsonrepair before retrying.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// As decodes content into T. If strict decoding fails, the content is run
// through jsonrepair and decoded again; only if both attempts fail is an
// error returned.
func As[T any](content string) (T, error) {
	var result T

	content = strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to repair JSON: %w", repairErr)
	}

	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}

	return result, nil
}

// NormalizeObjectString returns a valid JSON object string for content.
// Empty input yields "{}". Invalid JSON is repaired when possible; content
// that cannot be turned into valid JSON is returned unchanged so the caller
// can still forward what the vendor sent.
func NormalizeObjectString(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "{}"
	}

	if json.Valid([]byte(content)) {
		return content
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return content
	}
	return repaired
}
