// Package qwen implements the [runtime.Runtime] contract for Alibaba Cloud's
// DashScope chat-completion API (Qwen model family) through its
// OpenAI-compatible endpoint.
//
// Vendor constraints handled here:
//   - vision models (qwen-vl prefix) reject the sampling parameters and the
//     result_format marker, so the request builder strips them
//   - top_p must stay strictly below 1; values >= 1 are clamped to 0.999
//   - tool calls are not deliverable incrementally, so requests carrying
//     tool declarations are forced to the blocking endpoint and their
//     response is synthesized into the canonical two-chunk stream
package qwen
