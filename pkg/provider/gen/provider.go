// Package gen defines the Provider interface for text generation backends.
//
// A provider wraps a remote or local language model (OpenAI, Anthropic,
// Gemini, a local Ollama instance, …) behind a single prompt-in, text-out
// call. The study-material generators build summarisation, quiz, and
// flashcard prompts on top of this interface; no streaming or partial
// results are exposed.
//
// Implementations must be safe for concurrent use.
package gen

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the generation backend cannot service the
// request (connection failure, 5xx, exhausted quota on every configured key).
var ErrUnavailable = errors.New("gen: generation service unavailable")

// Request carries one generation request.
type Request struct {
	// Prompt is the user-visible prompt text. Must not be empty.
	Prompt string

	// SystemPrompt is an optional high-priority instruction injected before
	// the prompt. Providers without native system-prompt support prepend it
	// as a system-role message.
	SystemPrompt string

	// MaxTokens caps the number of completion tokens. Zero means the
	// provider default.
	MaxTokens int

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// the provider default.
	Temperature float64
}

// Provider is the abstraction over any text generation backend.
type Provider interface {
	// Complete sends the request to the model and returns the full response
	// text. Returns ErrUnavailable (possibly wrapped) when the backend
	// cannot be reached; any other error indicates a malformed request or
	// an empty model response.
	Complete(ctx context.Context, req Request) (string, error)
}
