package driven

import (
	"context"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// VectorStore owns the named collections of a persistent vector backend.
type VectorStore interface {
	// Collection returns the named collection, creating it with the given
	// dimension if absent. Existing collections with a different dimension
	// fail with domain.ErrDimensionMismatch.
	Collection(ctx context.Context, name string, dimension int) (VectorIndex, error)

	// OpenCollection returns an existing collection or domain.ErrNotFound.
	OpenCollection(ctx context.Context, name string) (VectorIndex, error)

	// Close releases resources.
	Close() error
}

// VectorIndex is one named collection using cosine distance.
type VectorIndex interface {
	// Name returns the collection name.
	Name() string

	// Upsert inserts or overwrites chunks by ID. Every chunk must carry an embedding.
	// Returns the number of chunks written; an empty slice is a no-op returning 0.
	Upsert(ctx context.Context, chunks []domain.Chunk) (int, error)

	// Query returns at most topK results ordered by ascending cosine distance.
	// An empty collection returns an empty slice.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}
