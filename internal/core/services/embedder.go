package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// EmbeddingLoader opens the embedding provider. It is called at most once.
type EmbeddingLoader func(ctx context.Context) (driven.EmbeddingService, error)

// Embedder turns text into vectors through a lazily opened provider.
//
// The provider is opened on the first EnsureLoaded (or Embed) call and then
// shared. A failed load is sticky: every later call returns the same error.
type Embedder struct {
	load EmbeddingLoader

	once sync.Once
	svc  driven.EmbeddingService
	err  error
}

// NewEmbedder creates an embedder that opens its provider with load.
func NewEmbedder(load EmbeddingLoader) *Embedder {
	return &Embedder{load: load}
}

// NewEmbedderFrom wraps an already opened provider.
func NewEmbedderFrom(svc driven.EmbeddingService) *Embedder {
	return NewEmbedder(func(context.Context) (driven.EmbeddingService, error) {
		return svc, nil
	})
}

// EnsureLoaded opens the provider if it is not open yet.
func (e *Embedder) EnsureLoaded(ctx context.Context) error {
	e.once.Do(func() {
		if e.load == nil {
			e.err = domain.ErrEmbeddingUnavailable
			return
		}
		svc, err := e.load(ctx)
		switch {
		case err != nil:
			e.err = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		case svc == nil:
			e.err = domain.ErrEmbeddingUnavailable
		default:
			e.svc = svc
			logger.Debug("Embedding model loaded: %s (%d dims)", svc.ModelName(), svc.Dimensions())
		}
	})
	return e.err
}

// Embed returns one vector per text, in order. No texts means no vectors.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedOne returns the vector of a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the vector size of the loaded provider.
func (e *Embedder) Dimensions(ctx context.Context) (int, error) {
	if err := e.EnsureLoaded(ctx); err != nil {
		return 0, err
	}
	return e.svc.Dimensions(), nil
}

// Close releases the provider if it was opened.
func (e *Embedder) Close() error {
	if e.svc == nil {
		return nil
	}
	return e.svc.Close()
}
