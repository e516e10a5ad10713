package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value that makes the bot unable to start,
	// for example a chunk overlap that is not smaller than the chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector store is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector does not match its collection's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Provider Errors.

	// ErrRateLimited indicates the provider rejected the call because of a rate limit.
	// The call may be re-attempted on a later poll cycle.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnreachable indicates a transport failure talking to a provider.
	ErrProviderUnreachable = errors.New("provider unreachable")

	// ErrProviderRejected indicates the provider refused the request
	// (malformed request, exhausted quota, invalid model).
	ErrProviderRejected = errors.New("provider rejected request")

	// Platform Errors.

	// ErrAuthRequired indicates the platform session is missing or expired.
	ErrAuthRequired = errors.New("authentication required")

	// ErrPermissionDenied indicates the platform refused an action because the
	// bot account lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
)
