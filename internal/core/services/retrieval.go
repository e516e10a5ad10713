package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// ContextRetriever builds the context block handed to the answer generator.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string, topK int) (string, error)
}

// Ensure RetrievalEngine implements the interface.
var _ ContextRetriever = (*RetrievalEngine)(nil)

// RetrievalEngine searches the materials and history collections and
// renders the hits as a single context block.
type RetrievalEngine struct {
	embedder  *Embedder
	store     driven.VectorStore
	materials string
	history   string
	metrics   driven.MetricsRecorder
}

// NewRetrievalEngine creates a retrieval engine over the two named collections.
func NewRetrievalEngine(embedder *Embedder, store driven.VectorStore, materials, history string) *RetrievalEngine {
	return &RetrievalEngine{
		embedder:  embedder,
		store:     store,
		materials: materials,
		history:   history,
	}
}

// SetMetrics sets the recorder for retrieval latency.
func (r *RetrievalEngine) SetMetrics(m driven.MetricsRecorder) {
	r.metrics = m
}

// Retrieve embeds the question once and queries materials, then history,
// each capped at topK. Materials always come first in the block.
// A collection that has not been ingested yet is skipped; when both are
// missing the block is empty and nothing is embedded.
func (r *RetrievalEngine) Retrieve(ctx context.Context, question string, topK int) (string, error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveRetrieval(time.Since(start))
		}
	}()

	if topK <= 0 || strings.TrimSpace(question) == "" {
		return "", nil
	}

	materials, err := r.open(ctx, r.materials)
	if err != nil {
		return "", err
	}
	history, err := r.open(ctx, r.history)
	if err != nil {
		return "", err
	}
	if materials == nil && history == nil {
		logger.Debug("No retrieval collections ingested yet")
		return "", nil
	}

	vector, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	var b strings.Builder
	if materials != nil {
		hits, err := materials.Query(ctx, vector, topK)
		if err != nil {
			return "", fmt.Errorf("query %s: %w", materials.Name(), err)
		}
		logger.Debug("Retrieved %d material chunks", len(hits))
		for _, hit := range hits {
			fmt.Fprintf(&b, "[From course materials - %s]\n%s\n\n", hit.MetaString(domain.MetaSource), hit.Text)
		}
	}
	if history != nil {
		hits, err := history.Query(ctx, vector, topK)
		if err != nil {
			return "", fmt.Errorf("query %s: %w", history.Name(), err)
		}
		logger.Debug("Retrieved %d past Q&A chunks", len(hits))
		for _, hit := range hits {
			fmt.Fprintf(&b, "[From past Q&A - @%s]\n%s\n\n", hit.MetaString(domain.MetaPostNumber), hit.Text)
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// open returns nil without error when the collection does not exist.
func (r *RetrievalEngine) open(ctx context.Context, name string) (driven.VectorIndex, error) {
	if r.store == nil || name == "" {
		return nil, nil
	}
	idx, err := r.store.OpenCollection(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	return idx, nil
}
