package driven

import (
	"context"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// MaterialLoader extracts plain text from a course material file.
type MaterialLoader interface {
	// Extensions returns the lower-case file extensions handled, without dots.
	Extensions() []string

	// Load reads the file at path and returns its text.
	Load(ctx context.Context, path string) (string, error)
}

// PostProcessor splits document content into chunks.
type PostProcessor interface {
	// Name returns the processor name for logging.
	Name() string

	// Process takes a document and returns its chunks in order.
	// Chunk IDs are derived from the document ID and the chunk position.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// LoaderRegistry selects the MaterialLoader for a file extension.
type LoaderRegistry interface {
	// ForExtension returns the loader for ext, which may carry a leading dot.
	ForExtension(ext string) (MaterialLoader, bool)
}
