// Package runtime defines the provider-agnostic chat-streaming contract:
// the canonical request payload, the canonical incremental chunk stream, the
// error taxonomy shared by all provider runtimes, and the [Runtime]
// capability interface that every vendor implementation satisfies.
//
// Vendor implementations live in subpackages (runtime/qwen, runtime/openai).
// Each one is free-standing: it converts the canonical payload into its
// vendor's native request shape, performs the network call, and transcodes
// the vendor's native response (streaming or blocking) back into the
// canonical chunk stream. Callers select a runtime through the dispatch
// table in the module root.
package runtime
