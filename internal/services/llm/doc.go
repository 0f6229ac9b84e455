// Package llm generates episode summaries through an OpenAI-compatible chat
// completion endpoint.
//
// This package is used by:
//   - Summarization stage: turn a finished transcript into a structured
//     markdown summary
//
// # Endpoint
//
// The client speaks the /chat/completions request shape, so both hosted
// providers and a local Ollama server work through base_url. The API key is
// optional; local servers accept anonymous requests. base_url may name the
// API root or the full completions URL.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Configured: report whether an endpoint is set.
// Client.Summarize: send the transcript, receive a markdown summary.
// ExtractiveSummary: model-free fallback summarizer.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 3 attempts by default).
// Connection-refused errors fail fast so callers can fall back without
// burning their stage budget. Context cancellation aborts retries
// immediately.
//
// # Fallback
//
// When the endpoint is unconfigured or the model call fails, callers use
// ExtractiveSummary, which scores each sentence by TF-IDF similarity against
// the whole transcript and keeps the top few in transcript order. The result
// is rougher than a model summary but never blocks the pipeline.
package llm
