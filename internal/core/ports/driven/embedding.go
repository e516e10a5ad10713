package driven

import "context"

// EmbeddingService maps text to dense vectors for retrieval.
// The same model must embed both ingested chunks and live questions;
// its Dimensions fix the size of every collection it writes.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length produced by the model.
	Dimensions() int

	ModelName() string

	// Ping makes a minimal request to prove the provider answers.
	Ping(ctx context.Context) error

	Close() error
}
