package config

import (
	"fmt"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// fileSettings mirrors domain.Settings in its on-disk shape. Durations are Go
// duration strings and credentials are omitted.
type fileSettings struct {
	DataDir     string             `toml:"data_dir" mapstructure:"data_dir"`
	DBPath      string             `toml:"db_path" mapstructure:"db_path"`
	Forum       forumSection       `toml:"forum" mapstructure:"forum"`
	Poll        pollSection        `toml:"poll" mapstructure:"poll"`
	Answer      answerSection      `toml:"answer" mapstructure:"answer"`
	RAG         ragSection         `toml:"rag" mapstructure:"rag"`
	Embedding   embeddingSection   `toml:"embedding" mapstructure:"embedding"`
	LLM         llmSection         `toml:"llm" mapstructure:"llm"`
	VectorStore vectorStoreSection `toml:"vector_store" mapstructure:"vector_store"`
}

type forumSection struct {
	BaseURL           string  `toml:"base_url" mapstructure:"base_url"`
	NetworkID         string  `toml:"network_id" mapstructure:"network_id"`
	RequestsPerSecond float64 `toml:"requests_per_second" mapstructure:"requests_per_second"`
}

type pollSection struct {
	Interval          string `toml:"interval" mapstructure:"interval"`
	CallDelay         string `toml:"call_delay" mapstructure:"call_delay"`
	RateLimitCooldown string `toml:"rate_limit_cooldown" mapstructure:"rate_limit_cooldown"`
}

type answerSection struct {
	CourseName     string `toml:"course_name" mapstructure:"course_name"`
	MaxTokens      int    `toml:"max_tokens" mapstructure:"max_tokens"`
	Disclaimer     string `toml:"disclaimer" mapstructure:"disclaimer"`
	FollowupPrefix string `toml:"followup_prefix" mapstructure:"followup_prefix"`
}

type ragSection struct {
	Enabled             bool   `toml:"enabled" mapstructure:"enabled"`
	ChunkSize           int    `toml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap        int    `toml:"chunk_overlap" mapstructure:"chunk_overlap"`
	TopK                int    `toml:"top_k" mapstructure:"top_k"`
	MaterialsCollection string `toml:"materials_collection" mapstructure:"materials_collection"`
	HistoryCollection   string `toml:"history_collection" mapstructure:"history_collection"`
}

type embeddingSection struct {
	Provider   string `toml:"provider" mapstructure:"provider"`
	Model      string `toml:"model" mapstructure:"model"`
	BaseURL    string `toml:"base_url" mapstructure:"base_url"`
	Dimensions int    `toml:"dimensions" mapstructure:"dimensions"`
}

type llmSection struct {
	Provider string `toml:"provider" mapstructure:"provider"`
	Model    string `toml:"model" mapstructure:"model"`
	BaseURL  string `toml:"base_url" mapstructure:"base_url"`
}

type vectorStoreSection struct {
	Backend        string `toml:"backend" mapstructure:"backend"`
	WeaviateHost   string `toml:"weaviate_host" mapstructure:"weaviate_host"`
	WeaviateScheme string `toml:"weaviate_scheme" mapstructure:"weaviate_scheme"`
}

func fromDomain(s domain.Settings) fileSettings {
	return fileSettings{
		DataDir: s.DataDir,
		DBPath:  s.DBPath,
		Forum: forumSection{
			BaseURL:           s.Forum.BaseURL,
			NetworkID:         s.Forum.NetworkID,
			RequestsPerSecond: s.Forum.RequestsPerSecond,
		},
		Poll: pollSection{
			Interval:          s.Poll.Interval.String(),
			CallDelay:         s.Poll.CallDelay.String(),
			RateLimitCooldown: s.Poll.RateLimitCooldown.String(),
		},
		Answer: answerSection{
			CourseName:     s.Answer.CourseName,
			MaxTokens:      s.Answer.MaxTokens,
			Disclaimer:     s.Answer.Disclaimer,
			FollowupPrefix: s.Answer.FollowupPrefix,
		},
		RAG: ragSection{
			Enabled:             s.RAG.Enabled,
			ChunkSize:           s.RAG.ChunkSize,
			ChunkOverlap:        s.RAG.ChunkOverlap,
			TopK:                s.RAG.TopK,
			MaterialsCollection: s.RAG.MaterialsCollection,
			HistoryCollection:   s.RAG.HistoryCollection,
		},
		Embedding: embeddingSection{
			Provider:   string(s.Embedding.Provider),
			Model:      s.Embedding.Model,
			BaseURL:    s.Embedding.BaseURL,
			Dimensions: s.Embedding.Dimensions,
		},
		LLM: llmSection{
			Provider: string(s.LLM.Provider),
			Model:    s.LLM.Model,
			BaseURL:  s.LLM.BaseURL,
		},
		VectorStore: vectorStoreSection{
			Backend:        string(s.VectorStore.Backend),
			WeaviateHost:   s.VectorStore.WeaviateHost,
			WeaviateScheme: s.VectorStore.WeaviateScheme,
		},
	}
}

func (f fileSettings) toDomain() (domain.Settings, error) {
	interval, err := parseDuration("poll.interval", f.Poll.Interval)
	if err != nil {
		return domain.Settings{}, err
	}
	callDelay, err := parseDuration("poll.call_delay", f.Poll.CallDelay)
	if err != nil {
		return domain.Settings{}, err
	}
	cooldown, err := parseDuration("poll.rate_limit_cooldown", f.Poll.RateLimitCooldown)
	if err != nil {
		return domain.Settings{}, err
	}

	return domain.Settings{
		DataDir: f.DataDir,
		DBPath:  f.DBPath,
		Forum: domain.ForumSettings{
			BaseURL:           f.Forum.BaseURL,
			NetworkID:         f.Forum.NetworkID,
			RequestsPerSecond: f.Forum.RequestsPerSecond,
		},
		Poll: domain.PollSettings{
			Interval:          interval,
			CallDelay:         callDelay,
			RateLimitCooldown: cooldown,
		},
		Answer: domain.AnswerSettings{
			CourseName:     f.Answer.CourseName,
			MaxTokens:      f.Answer.MaxTokens,
			Disclaimer:     f.Answer.Disclaimer,
			FollowupPrefix: f.Answer.FollowupPrefix,
		},
		RAG: domain.RAGSettings{
			Enabled:             f.RAG.Enabled,
			ChunkSize:           f.RAG.ChunkSize,
			ChunkOverlap:        f.RAG.ChunkOverlap,
			TopK:                f.RAG.TopK,
			MaterialsCollection: f.RAG.MaterialsCollection,
			HistoryCollection:   f.RAG.HistoryCollection,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(f.Embedding.Provider),
			Model:      f.Embedding.Model,
			BaseURL:    f.Embedding.BaseURL,
			Dimensions: f.Embedding.Dimensions,
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(f.LLM.Provider),
			Model:    f.LLM.Model,
			BaseURL:  f.LLM.BaseURL,
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:        domain.VectorBackend(f.VectorStore.Backend),
			WeaviateHost:   f.VectorStore.WeaviateHost,
			WeaviateScheme: f.VectorStore.WeaviateScheme,
		},
	}, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
	}
	return d, nil
}
