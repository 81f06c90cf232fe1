// Package openai implements the [runtime.Runtime] contract for the OpenAI
// chat-completions API. Compared to the qwen runtime it has no
// vendor-specific parameter filtering beyond the shared top_p clamp, and it
// supports tool calling over the streaming endpoint, so the blocking branch
// is only taken when the caller explicitly disables streaming.
package openai
