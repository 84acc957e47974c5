// Package llm provides a chat-completion client for OpenAI-compatible APIs
// (Groq, OpenRouter, OpenAI).
//
// It is used by:
//   - script: writing segment narration (JSON and plain-text prompts)
//   - collector: resolving free-text prompts into catalog categories
//
// # Entry Points
//
// NewClient: construct client from Config (ConfigFrom maps config.LLM).
// Client.CompleteJSON: JSON-mode completion, returns the raw payload.
// Client.Complete: plain-text completion.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant decoder for fenced or prose-wrapped JSON.
//
// # Retry Behaviour
//
// Requests go through retry.Policy: HTTP 408/429/5xx, network timeouts and
// empty completions are retried with exponential backoff (base 1s, max 10s).
// Context cancellation aborts retries immediately. Rejected credentials map
// to services.ErrConfiguration; exhausted retries match services.ErrTransient.
package llm
