package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
	"github.com/custodia-labs/tutorbot/internal/logger"
	"github.com/custodia-labs/tutorbot/internal/normalisers/markup"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// historyBatchSize is the number of Q&A pairs embedded per provider call.
const historyBatchSize = 32

// historySource labels history chunks.
const historySource = "piazza"

// IngestService fills the materials and history collections.
type IngestService struct {
	embedder *Embedder
	store    driven.VectorStore
	loaders  driven.LoaderRegistry
	chunker  driven.PostProcessor
	forum    driven.ForumClient

	materials string
	history   string
	callDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewIngestService creates an ingestion service.
// forum may be nil when only materials are ingested.
func NewIngestService(
	embedder *Embedder,
	store driven.VectorStore,
	loaders driven.LoaderRegistry,
	chunker driven.PostProcessor,
	forum driven.ForumClient,
	settings *domain.Settings,
) *IngestService {
	return &IngestService{
		embedder:  embedder,
		store:     store,
		loaders:   loaders,
		chunker:   chunker,
		forum:     forum,
		materials: settings.RAG.MaterialsCollection,
		history:   settings.RAG.HistoryCollection,
		callDelay: settings.Poll.CallDelay,
		sleep:     sleepContext,
	}
}

// IngestMaterials ingests the files directly under dir whose extension is in exts.
// Subdirectories are not descended. Files are processed in name order and a
// file that fails to load is logged and skipped.
func (s *IngestService) IngestMaterials(ctx context.Context, dir string, exts []string) (*driving.IngestStats, error) {
	logger.Section("Material Ingestion")

	if len(exts) == 0 {
		return nil, fmt.Errorf("%w: no file extensions given", domain.ErrInvalidInput)
	}
	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		wanted[normaliseExt(ext)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read materials directory: %w", err)
	}

	stats := &driving.IngestStats{}
	var collection driven.VectorIndex

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if entry.IsDir() {
			continue
		}
		ext := normaliseExt(filepath.Ext(entry.Name()))
		if !wanted[ext] {
			continue
		}
		stats.Files++

		path := filepath.Join(dir, entry.Name())
		chunks, err := s.materialChunks(ctx, path, ext)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Warn("Skipping %s: %v", entry.Name(), err)
				stats.Skipped++
				continue
			}
			logger.Error("Failed to ingest %s: %v", entry.Name(), err)
			stats.Failed++
			continue
		}
		if len(chunks) == 0 {
			logger.Warn("No text extracted from %s", path)
			stats.Skipped++
			continue
		}

		if collection == nil {
			collection, err = s.collection(ctx, s.materials)
			if err != nil {
				return stats, err
			}
		}

		n, err := s.embedAndUpsert(ctx, collection, chunks)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrEmbeddingUnavailable) {
				return stats, err
			}
			logger.Error("Failed to ingest %s: %v", entry.Name(), err)
			stats.Failed++
			continue
		}
		stats.Chunks += n
		logger.Info("Ingested %s: %d chunks", entry.Name(), n)
	}

	logger.Info("Materials: %d files, %d chunks, %d skipped, %d failed",
		stats.Files, stats.Chunks, stats.Skipped, stats.Failed)
	return stats, nil
}

func (s *IngestService) materialChunks(ctx context.Context, path, ext string) ([]domain.Chunk, error) {
	loader, ok := s.loaders.ForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, ext)
	}

	text, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	name := filepath.Base(path)
	doc := &domain.Document{
		ID:       strings.TrimSuffix(name, filepath.Ext(name)),
		Source:   name,
		URI:      path,
		Content:  text,
		Metadata: map[string]any{domain.MetaFilename: name},
	}
	return s.chunker.Process(ctx, doc)
}

// IngestHistory walks the whole feed and stores each answered question as one chunk.
func (s *IngestService) IngestHistory(ctx context.Context) (*driving.IngestStats, error) {
	logger.Section("History Ingestion")

	if s.forum == nil {
		return nil, fmt.Errorf("%w: no forum client", domain.ErrInvalidConfig)
	}

	items, err := s.forum.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	logger.Info("Found %d posts in feed", len(items))

	stats := &driving.IngestStats{}
	var pairs []domain.Chunk

	for _, item := range items {
		stats.Files++
		if err := s.sleep(ctx, s.callDelay); err != nil {
			return stats, err
		}

		post, err := s.forum.FetchPost(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if errors.Is(err, domain.ErrNotFound) {
				stats.Skipped++
				continue
			}
			logger.Warn("Failed to fetch post %s: %v", item.ID, err)
			stats.Failed++
			continue
		}

		chunk, ok := historyChunk(post)
		if !ok {
			stats.Skipped++
			continue
		}
		pairs = append(pairs, chunk)
	}

	logger.Info("Extracted %d Q&A pairs", len(pairs))
	if len(pairs) == 0 {
		return stats, nil
	}

	collection, err := s.collection(ctx, s.history)
	if err != nil {
		return stats, err
	}
	for start := 0; start < len(pairs); start += historyBatchSize {
		end := min(start+historyBatchSize, len(pairs))
		n, err := s.embedAndUpsert(ctx, collection, pairs[start:end])
		if err != nil {
			return stats, err
		}
		stats.Chunks += n
	}

	logger.Info("History: %d posts, %d pairs stored, %d skipped, %d failed",
		stats.Files, stats.Chunks, stats.Skipped, stats.Failed)
	return stats, nil
}

// historyChunk builds the Q&A chunk of an answered question. The chunk ID is
// the post ID so re-ingesting overwrites.
func historyChunk(post *domain.Post) (domain.Chunk, bool) {
	if post == nil || post.Type != domain.PostTypeQuestion {
		return domain.Chunk{}, false
	}
	text, ok := markup.ExtractQAPair(post)
	if !ok {
		return domain.Chunk{}, false
	}
	return domain.Chunk{
		ID:   post.ID,
		Text: text,
		Metadata: map[string]any{
			domain.MetaSource:     historySource,
			domain.MetaPostNumber: post.Number,
			domain.MetaTags:       strings.Join(post.Tags, ","),
		},
	}, true
}

func (s *IngestService) collection(ctx context.Context, name string) (driven.VectorIndex, error) {
	if s.store == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	dims, err := s.embedder.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.store.Collection(ctx, name, dims)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	return idx, nil
}

func (s *IngestService) embedAndUpsert(ctx context.Context, idx driven.VectorIndex, chunks []domain.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return idx.Upsert(ctx, chunks)
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
