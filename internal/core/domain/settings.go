package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any OpenAI compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects where the retrieval collections live.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendSQLite keeps vectors next to the ledger in the bot database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendWeaviate stores vectors in a Weaviate instance.
	VectorBackendWeaviate VectorBackend = "weaviate"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendSQLite || b == VectorBackendWeaviate
}

// ForumSettings holds the credentials and endpoint of the forum platform.
type ForumSettings struct {
	// BaseURL is the JSON-RPC endpoint.
	BaseURL string

	// Email and Password authenticate the bot account.
	Email    string
	Password string

	// NetworkID identifies the course on the platform.
	NetworkID string

	// RequestsPerSecond caps outgoing platform calls.
	RequestsPerSecond float64
}

// PollSettings holds the timing of the poll loop.
type PollSettings struct {
	// Interval is the pause between cycles.
	Interval time.Duration

	// CallDelay is the pause before each platform call inside a cycle.
	CallDelay time.Duration

	// RateLimitCooldown is how long generation backs off after a rate limit.
	RateLimitCooldown time.Duration
}

// AnswerSettings shapes the drafted answer.
type AnswerSettings struct {
	// CourseName is injected into the persona prompt.
	CourseName string

	// MaxTokens caps the completion length.
	MaxTokens int

	// Disclaimer is appended to every posted answer.
	Disclaimer string

	// FollowupPrefix is prepended when falling back to a follow-up post.
	FollowupPrefix string
}

// RAGSettings holds chunking and retrieval configuration.
type RAGSettings struct {
	// Enabled turns context retrieval on.
	Enabled bool

	// ChunkSize and ChunkOverlap are measured in words.
	ChunkSize    int
	ChunkOverlap int

	// TopK is the per-collection result cap.
	TopK int

	// MaterialsCollection and HistoryCollection name the two vector collections.
	MaterialsCollection string
	HistoryCollection   string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the known dimension of Model when non-zero.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector backend configuration.
type VectorStoreSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// WeaviateHost, WeaviateScheme and WeaviateAPIKey configure the Weaviate backend.
	WeaviateHost   string
	WeaviateScheme string
	WeaviateAPIKey string
}

// Settings holds all bot settings.
type Settings struct {
	// DataDir holds the database and prompt overrides.
	DataDir string

	// DBPath is the ledger database file. Relative paths resolve against DataDir.
	DBPath string

	Forum       ForumSettings
	Poll        PollSettings
	Answer      AnswerSettings
	RAG         RAGSettings
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
}

// Defaults for a single course bot.
const (
	DefaultForumURL            = "https://piazza.com/logic/api"
	DefaultPollInterval        = 60 * time.Second
	DefaultCallDelay           = 2 * time.Second
	DefaultRateLimitCooldown   = 60 * time.Second
	DefaultMaxTokens           = 800
	DefaultLLMModel            = "claude-haiku-4-5-20251001"
	DefaultDBFile              = "tutorbot.db"
	DefaultChunkSize           = 512
	DefaultChunkOverlap        = 64
	DefaultTopK                = 5
	DefaultMaterialsCollection = "course_materials"
	DefaultHistoryCollection   = "piazza_history"
	DefaultDisclaimer          = "\n\n---\n*AI-generated draft — please verify with course staff.*"
	DefaultFollowupPrefix      = "(AI Bot - Generated Answer)\n\n"
)

// DefaultSettings returns settings with the stock poll timings and RAG sizes.
// Forum credentials and API keys are left empty and must come from the environment.
func DefaultSettings() Settings {
	return Settings{
		DBPath: DefaultDBFile,
		Forum: ForumSettings{
			BaseURL:           DefaultForumURL,
			RequestsPerSecond: 1,
		},
		Poll: PollSettings{
			Interval:          DefaultPollInterval,
			CallDelay:         DefaultCallDelay,
			RateLimitCooldown: DefaultRateLimitCooldown,
		},
		Answer: AnswerSettings{
			CourseName:     "this course",
			MaxTokens:      DefaultMaxTokens,
			Disclaimer:     DefaultDisclaimer,
			FollowupPrefix: DefaultFollowupPrefix,
		},
		RAG: RAGSettings{
			Enabled:             true,
			ChunkSize:           DefaultChunkSize,
			ChunkOverlap:        DefaultChunkOverlap,
			TopK:                DefaultTopK,
			MaterialsCollection: DefaultMaterialsCollection,
			HistoryCollection:   DefaultHistoryCollection,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderAnthropic,
			Model:    DefaultLLMModel,
		},
		VectorStore: VectorStoreSettings{
			Backend:        VectorBackendSQLite,
			WeaviateHost:   "localhost:8080",
			WeaviateScheme: "http",
		},
	}
}

// Validate checks the settings before anything is opened.
// Every problem is reported as ErrInvalidConfig.
func (s *Settings) Validate() error {
	switch {
	case s.Poll.Interval <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	case s.Poll.CallDelay < 0:
		return fmt.Errorf("%w: call delay must not be negative", ErrInvalidConfig)
	case s.Poll.RateLimitCooldown < 0:
		return fmt.Errorf("%w: rate limit cooldown must not be negative", ErrInvalidConfig)
	case s.Answer.MaxTokens <= 0:
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	case s.DBPath == "":
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	case !s.LLM.Provider.IsValid():
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, s.LLM.Provider)
	}

	if s.RAG.Enabled {
		if err := s.RAG.validate(); err != nil {
			return err
		}
		if !s.Embedding.Provider.IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Embedding.Provider)
		}
		if s.Embedding.Provider == AIProviderAnthropic {
			return fmt.Errorf("%w: anthropic does not provide embeddings", ErrInvalidConfig)
		}
		if !s.VectorStore.Backend.IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidConfig, s.VectorStore.Backend)
		}
	}
	return nil
}

func (r RAGSettings) validate() error {
	switch {
	case r.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	case r.ChunkOverlap < 0:
		return fmt.Errorf("%w: chunk overlap must not be negative", ErrInvalidConfig)
	case r.ChunkOverlap >= r.ChunkSize:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, r.ChunkOverlap, r.ChunkSize)
	case r.TopK <= 0:
		return fmt.Errorf("%w: top k must be positive", ErrInvalidConfig)
	case r.MaterialsCollection == "" || r.HistoryCollection == "":
		return fmt.Errorf("%w: collection names must be set", ErrInvalidConfig)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: DefaultLLMModel,
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
