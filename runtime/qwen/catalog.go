package qwen

import "github.com/relaykit/relay/runtime"

// catalog is the static model catalog for the Qwen family. Token limits
// follow the vendor's published context windows.
var catalog = []runtime.ModelCard{
	{
		ID:                  "qwen-turbo",
		DisplayName:         "Qwen Turbo",
		ContextWindowTokens: 131072,
		FunctionCall:        true,
	},
	{
		ID:                  "qwen-plus",
		DisplayName:         "Qwen Plus",
		ContextWindowTokens: 131072,
		FunctionCall:        true,
	},
	{
		ID:                  "qwen-max",
		DisplayName:         "Qwen Max",
		ContextWindowTokens: 32768,
		FunctionCall:        true,
	},
	{
		ID:                  "qwen-long",
		DisplayName:         "Qwen Long",
		ContextWindowTokens: 10000000,
	},
	{
		ID:                  "qwen-vl-plus",
		DisplayName:         "Qwen VL Plus",
		ContextWindowTokens: 32768,
		Vision:              true,
	},
	{
		ID:                  "qwen-vl-max",
		DisplayName:         "Qwen VL Max",
		ContextWindowTokens: 32768,
		Vision:              true,
	},
}

// Catalog returns the static Qwen model catalog.
func Catalog() []runtime.ModelCard {
	return catalog
}
