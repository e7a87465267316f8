// Package llm wraps an OpenRouter-compatible chat completion endpoint for
// the batched assessment and enhancement calls. Requests are JSON-only with
// temperature pinned to zero; transient HTTP failures are retried with
// exponential backoff and Retry-After awareness.
package llm
