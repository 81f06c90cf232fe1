package openai

import "github.com/relaykit/relay/runtime"

var catalog = []runtime.ModelCard{
	{
		ID:                  "gpt-4o",
		DisplayName:         "GPT-4o",
		ContextWindowTokens: 128000,
		Vision:              true,
		FunctionCall:        true,
	},
	{
		ID:                  "gpt-4o-mini",
		DisplayName:         "GPT-4o mini",
		ContextWindowTokens: 128000,
		Vision:              true,
		FunctionCall:        true,
	},
	{
		ID:                  "gpt-4-turbo",
		DisplayName:         "GPT-4 Turbo",
		ContextWindowTokens: 128000,
		Vision:              true,
		FunctionCall:        true,
	},
	{
		ID:                  "gpt-3.5-turbo",
		DisplayName:         "GPT-3.5 Turbo",
		ContextWindowTokens: 16385,
		FunctionCall:        true,
	},
}

// Catalog returns the static OpenAI model catalog.
func Catalog() []runtime.ModelCard {
	return catalog
}
