// Package app wires adapters into the core services.
//
// Adapters are opened lazily, on the first command that needs them, and
// released together by Close.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/tutorbot/internal/adapters/driven/ai"
	"github.com/custodia-labs/tutorbot/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tutorbot/internal/adapters/driven/forum/piazza"
	"github.com/custodia-labs/tutorbot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
	"github.com/custodia-labs/tutorbot/internal/core/services"
	"github.com/custodia-labs/tutorbot/internal/logger"
	"github.com/custodia-labs/tutorbot/internal/metrics"
	"github.com/custodia-labs/tutorbot/internal/normalisers"
	"github.com/custodia-labs/tutorbot/internal/postprocessors/chunker"
)

// App owns every adapter opened for one process.
type App struct {
	mu sync.Mutex

	metrics  *metrics.Metrics
	store    *sqlite.Store
	forum    driven.ForumClient
	llm      driven.LLMService
	vectors  driven.VectorStore
	embedder *services.Embedder

	// overridable in tests
	newForum func(cfg piazza.Config) (driven.ForumClient, error)
}

// New creates an App with nothing opened yet.
func New() *App {
	return &App{metrics: metrics.New()}
}

// Ledger returns the ledger service over the bot database.
func (a *App) Ledger(_ context.Context, settings *domain.Settings) (driving.LedgerService, error) {
	store, err := a.openStore(settings)
	if err != nil {
		return nil, err
	}
	return services.NewLedgerService(store.AnsweredStore()), nil
}

// Poller returns the poll loop, logged in and with retrieval attached when enabled.
func (a *App) Poller(ctx context.Context, settings *domain.Settings, dryRun bool) (driving.Poller, error) {
	store, err := a.openStore(settings)
	if err != nil {
		return nil, err
	}
	forum, err := a.openForum(ctx, settings)
	if err != nil {
		return nil, err
	}
	llm, err := a.openLLM(settings)
	if err != nil {
		return nil, err
	}
	prompts, err := file.NewPromptStore(filepath.Join(settings.DataDir, "prompts"))
	if err != nil {
		return nil, err
	}

	generator := services.NewAnswerGenerator(llm, prompts, settings.Answer.MaxTokens, settings.Poll.RateLimitCooldown)
	generator.SetMetrics(a.metrics)

	poller := services.NewPollService(forum, store.AnsweredStore(), generator, settings)
	poller.SetMetrics(a.metrics)
	poller.SetDryRun(dryRun)

	if settings.RAG.Enabled {
		vectors, err := a.openVectors(settings)
		if err != nil {
			return nil, err
		}
		retrieval := services.NewRetrievalEngine(a.openEmbedder(settings), vectors,
			settings.RAG.MaterialsCollection, settings.RAG.HistoryCollection)
		retrieval.SetMetrics(a.metrics)
		poller.SetRetriever(retrieval)
		logger.Debug("Retrieval enabled (%s backend, top %d)", settings.VectorStore.Backend, settings.RAG.TopK)
	}

	return poller, nil
}

// Ingestor returns the ingestion service. The forum is logged in only when
// withForum is set, so material ingestion works without credentials.
func (a *App) Ingestor(ctx context.Context, settings *domain.Settings, withForum bool) (driving.Ingestor, error) {
	vectors, err := a.openVectors(settings)
	if err != nil {
		return nil, err
	}
	proc, err := chunker.New(
		chunker.WithChunkSize(settings.RAG.ChunkSize),
		chunker.WithOverlap(settings.RAG.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	var forum driven.ForumClient
	if withForum {
		if forum, err = a.openForum(ctx, settings); err != nil {
			return nil, err
		}
	}

	return services.NewIngestService(a.openEmbedder(settings), vectors,
		normalisers.DefaultRegistry(), proc, forum, settings), nil
}

// Check verifies the providers answer. The forum login is tried only when
// credentials are configured.
func (a *App) Check(ctx context.Context, settings *domain.Settings) error {
	var errs []error
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: %s needs an API key", domain.ErrLLMUnavailable, settings.LLM.Provider))
	} else if err := ai.ValidateLLMConfig(ctx, &settings.LLM); err != nil {
		errs = append(errs, err)
	}
	if settings.RAG.Enabled {
		if !settings.Embedding.IsConfigured() {
			errs = append(errs, fmt.Errorf("%w: %s needs an API key",
				domain.ErrEmbeddingUnavailable, settings.Embedding.Provider))
		} else if err := ai.ValidateEmbeddingConfig(ctx, &settings.Embedding); err != nil {
			errs = append(errs, err)
		}
	}
	if settings.Forum.Email != "" {
		if _, err := a.openForum(ctx, settings); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServeMetrics exposes the process metrics until ctx is cancelled.
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	return a.metrics.Serve(ctx, addr)
}

// Close releases every opened adapter. The ledger database closes last.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.llm != nil {
		errs = append(errs, a.llm.Close())
	}
	if a.vectors != nil {
		errs = append(errs, a.vectors.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	a.embedder, a.llm, a.vectors, a.store, a.forum = nil, nil, nil, nil, nil
	return errors.Join(errs...)
}

func (a *App) openStore(settings *domain.Settings) (*sqlite.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	store, err := sqlite.NewStore(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("Database opened: %s", store.Path())
	a.store = store
	return store, nil
}

func (a *App) openForum(ctx context.Context, settings *domain.Settings) (driven.ForumClient, error) {
	a.mu.Lock()
	if a.forum != nil {
		defer a.mu.Unlock()
		return a.forum, nil
	}
	a.mu.Unlock()

	newForum := a.newForum
	if newForum == nil {
		newForum = newPiazza
	}
	client, err := newForum(piazza.Config{
		BaseURL:           settings.Forum.BaseURL,
		Email:             settings.Forum.Email,
		Password:          settings.Forum.Password,
		NetworkID:         settings.Forum.NetworkID,
		RequestsPerSecond: settings.Forum.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, fmt.Errorf("forum login: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.forum = client
	return client, nil
}

func (a *App) openLLM(settings *domain.Settings) (driven.LLMService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.llm != nil {
		return a.llm, nil
	}
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: %s needs an API key", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	logger.Debug("LLM: %s (%s)", llm.ModelName(), settings.LLM.Provider)
	a.llm = llm
	return llm, nil
}

func (a *App) openVectors(settings *domain.Settings) (driven.VectorStore, error) {
	var local driven.VectorStore
	if settings.VectorStore.Backend != domain.VectorBackendWeaviate {
		store, err := a.openStore(settings)
		if err != nil {
			return nil, err
		}
		local = store.VectorStore()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vectors != nil {
		return a.vectors, nil
	}
	vectors, err := ai.CreateVectorStore(&settings.VectorStore, local)
	if err != nil {
		return nil, err
	}
	a.vectors = vectors
	return vectors, nil
}

// openEmbedder defers opening the provider until a vector is first needed.
func (a *App) openEmbedder(settings *domain.Settings) *services.Embedder {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.embedder == nil {
		embedding := settings.Embedding
		a.embedder = services.NewEmbedder(func(context.Context) (driven.EmbeddingService, error) {
			return ai.CreateEmbeddingService(&embedding)
		})
	}
	return a.embedder
}

func newPiazza(cfg piazza.Config) (driven.ForumClient, error) {
	return piazza.NewClient(cfg)
}
