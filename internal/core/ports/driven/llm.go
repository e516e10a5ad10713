package driven

import "context"

// LLMService drafts text completions.
//
// Implementations classify failures by wrapping domain.ErrRateLimited,
// domain.ErrProviderUnreachable or domain.ErrProviderRejected so callers
// can decide with errors.Is. Any other error is treated as unclassified.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - OpenAI and OpenAI compatible servers (Ollama, LM Studio)
type LLMService interface {
	// Complete sends one system + user exchange and returns the assistant text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is a single-turn completion.
type CompletionRequest struct {
	// System is the system prompt.
	System string

	// User is the user message.
	User string

	// MaxTokens caps the response length. Zero lets the adapter choose.
	MaxTokens int

	// Model overrides the adapter's configured model when set.
	Model string
}
