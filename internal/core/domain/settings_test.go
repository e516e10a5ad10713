package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_RequiresAPIKey tests API key requirements
func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

// TestAIProvider_Description tests human-readable names
func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Anthropic (cloud)", AIProviderAnthropic.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
	assert.Equal(t, "openai", AIProviderOpenAI.String())
}

// TestLLMSettings_IsConfigured tests LLM configuration checks
func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

// TestEmbeddingSettings_IsConfigured tests embedding configuration checks
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
}

// TestDefaultSettings tests default values
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, DefaultPollInterval, s.Poll.Interval)
	assert.Equal(t, DefaultCallDelay, s.Poll.CallDelay)
	assert.Equal(t, DefaultRateLimitCooldown, s.Poll.RateLimitCooldown)
	assert.Equal(t, 800, s.Answer.MaxTokens)
	assert.Equal(t, 512, s.RAG.ChunkSize)
	assert.Equal(t, 64, s.RAG.ChunkOverlap)
	assert.Equal(t, 5, s.RAG.TopK)
	assert.Equal(t, "course_materials", s.RAG.MaterialsCollection)
	assert.Equal(t, "piazza_history", s.RAG.HistoryCollection)
	assert.Equal(t, AIProviderAnthropic, s.LLM.Provider)
	assert.Equal(t, DefaultLLMModel, s.LLM.Model)
	assert.Equal(t, VectorBackendSQLite, s.VectorStore.Backend)
	assert.Contains(t, s.Answer.Disclaimer, "AI-generated draft")
	assert.Equal(t, "(AI Bot - Generated Answer)\n\n", s.Answer.FollowupPrefix)

	require.NoError(t, s.Validate())
}

// TestSettings_Validate tests configuration errors
func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{name: "zero poll interval", mutate: func(s *Settings) { s.Poll.Interval = 0 }},
		{name: "negative call delay", mutate: func(s *Settings) { s.Poll.CallDelay = -1 }},
		{name: "negative cooldown", mutate: func(s *Settings) { s.Poll.RateLimitCooldown = -1 }},
		{name: "zero max tokens", mutate: func(s *Settings) { s.Answer.MaxTokens = 0 }},
		{name: "empty db path", mutate: func(s *Settings) { s.DBPath = "" }},
		{name: "unknown llm provider", mutate: func(s *Settings) { s.LLM.Provider = "cohere" }},
		{name: "overlap equals size", mutate: func(s *Settings) { s.RAG.ChunkOverlap = s.RAG.ChunkSize }},
		{name: "overlap larger than size", mutate: func(s *Settings) { s.RAG.ChunkOverlap = 600 }},
		{name: "zero chunk size", mutate: func(s *Settings) { s.RAG.ChunkSize = 0 }},
		{name: "negative overlap", mutate: func(s *Settings) { s.RAG.ChunkOverlap = -1 }},
		{name: "zero top k", mutate: func(s *Settings) { s.RAG.TopK = 0 }},
		{name: "missing collection", mutate: func(s *Settings) { s.RAG.HistoryCollection = "" }},
		{name: "anthropic embeddings", mutate: func(s *Settings) { s.Embedding.Provider = AIProviderAnthropic }},
		{name: "unknown backend", mutate: func(s *Settings) { s.VectorStore.Backend = "milvus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// TestSettings_Validate_RAGDisabled tests RAG checks are skipped when disabled
func TestSettings_Validate_RAGDisabled(t *testing.T) {
	s := DefaultSettings()
	s.RAG.Enabled = false
	s.RAG.ChunkOverlap = s.RAG.ChunkSize
	s.Embedding.Provider = ""

	assert.NoError(t, s.Validate())
}

// TestEmbeddingDimensions tests known model sizes
func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])
	assert.Equal(t, "nomic-embed-text", DefaultEmbeddingModels()[AIProviderOllama])
	assert.Equal(t, DefaultLLMModel, DefaultLLMModels()[AIProviderAnthropic])
}
