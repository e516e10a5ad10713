// Package chunker provides a word-window text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of words shared by consecutive chunks.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Chunk splits text into overlapping windows of whitespace-separated words.
//
// Text of at most size words is returned unchanged as a single chunk.
// Longer text yields windows starting every size-overlap words, each
// re-joined with single spaces, until a window start reaches the end.
// Text with no words yields no chunks.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}
	if len(words) <= size {
		return []string{text}, nil
	}

	stride := size - overlap
	chunks := make([]string, 0, len(words)/stride+1)
	for start := 0; start < len(words); start += stride {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}

func validate(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidConfig, size)
	case overlap < 0:
		return fmt.Errorf("%w: chunk overlap %d must not be negative", domain.ErrInvalidConfig, overlap)
	case overlap >= size:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, overlap, size)
	}
	return nil
}

// Processor splits document content into word-window chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are rejected with domain.ErrInvalidConfig.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Chunk IDs are "<document id>_<position>", so re-processing the same
// document produces the same IDs and overwrites on upsert.
func (p *Processor) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	texts, err := Chunk(doc.Content, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		metadata := make(map[string]any, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		metadata[domain.MetaSource] = doc.Source
		metadata[domain.MetaChunkIndex] = i

		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s_%d", doc.ID, i),
			Text:     text,
			Position: i,
			Metadata: metadata,
		})
	}

	return chunks, nil
}
