// Package judge defines the Provider interface for structured-judgment
// completion backends.
//
// A judge provider wraps a chat-completion model and constrains its reply to
// a JSON document matching a caller-supplied schema. The game never consumes
// free text from the model: rule generation and wish adjudication both parse
// the raw JSON into typed structs and validate the result, so a reply that is
// not valid JSON is a provider failure (and triggers failover), not a game
// error.
//
// Implementations must be safe for concurrent use and must honour context
// cancellation.
package judge

import "context"

// Request carries everything the model needs to produce a structured reply.
type Request struct {
	// SystemPrompt is the persona and rule-following instruction set.
	SystemPrompt string

	// UserText is the player-derived input (the transcript of the wish, or
	// the rule-authoring directive).
	UserText string

	// SchemaName labels the response schema for backends that transmit it
	// (e.g. OpenAI json_schema response format).
	SchemaName string

	// Schema is the JSON schema the reply must satisfy. Backends that
	// support native structured output pass it to the API; others embed it
	// in the prompt and rely on the caller's validation.
	Schema any

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// Provider is the abstraction over any structured-completion backend.
type Provider interface {
	// Complete submits req and returns the model's reply as raw JSON.
	// Implementations must return an error (never malformed bytes) when the
	// reply cannot be coerced into a single valid JSON document.
	Complete(ctx context.Context, req Request) ([]byte, error)
}
