package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/relaykit/relay/internal/jsonschema"
)

// NewTool builds a function tool declaration whose parameter schema is
// derived from the argument struct Args. Field names follow json tags,
// descriptions come from `description` tags, and fields without omitempty
// are required.
//
//	type weatherArgs struct {
//	    City string `json:"city" description:"City name"`
//	    Days int    `json:"days,omitempty"`
//	}
//	tool, err := runtime.NewTool[weatherArgs]("get_weather", "Look up the forecast")
func NewTool[Args any](name, description string) (Tool, error) {
	schema := jsonschema.For[Args]()

	parameters, err := json.Marshal(schema)
	if err != nil {
		return Tool{}, fmt.Errorf("failed to marshal parameter schema for tool %q: %w", name, err)
	}

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}, nil
}
