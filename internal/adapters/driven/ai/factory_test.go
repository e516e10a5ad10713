package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutorbot/internal/adapters/driven/storage/weaviate"
	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
		wantDims    int
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantDims: 768,
		},
		{
			name: "ollama dimension override",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderOllama,
				Model:      "custom-model",
				Dimensions: 256,
			},
			wantDims: 256,
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantDims: 1536,
		},
		{
			name: "openai without key is unconfigured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantNil: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantDims, svc.Dimensions())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured returns nil", settings: &domain.LLMSettings{}, wantNil: true},
		{
			name:      "ollama uses default model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: domain.DefaultLLMModel,
		},
		{
			name:     "anthropic without key is unconfigured",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateOllamaLLM_UsesOpenAICompatibleEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"local answer"}}]}`))
	}))
	defer server.Close()

	svc, err := CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
		Model:    "llama3.2",
	})
	require.NoError(t, err)

	text, err := svc.Complete(context.Background(), driven.CompletionRequest{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
}

type stubVectorStore struct {
	driven.VectorStore
}

func TestCreateVectorStore(t *testing.T) {
	local := &stubVectorStore{}

	got, err := CreateVectorStore(nil, local)
	require.NoError(t, err)
	assert.Same(t, local, got)

	got, err = CreateVectorStore(&domain.VectorStoreSettings{Backend: domain.VectorBackendSQLite}, local)
	require.NoError(t, err)
	assert.Same(t, local, got)

	_, err = CreateVectorStore(&domain.VectorStoreSettings{Backend: domain.VectorBackendSQLite}, nil)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)

	got, err = CreateVectorStore(&domain.VectorStoreSettings{
		Backend:      domain.VectorBackendWeaviate,
		WeaviateHost: "localhost:8080",
	}, local)
	require.NoError(t, err)
	assert.IsType(t, &weaviate.Store{}, got)

	_, err = CreateVectorStore(&domain.VectorStoreSettings{Backend: "milvus"}, local)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidateLLMConfig(t *testing.T) {
	assert.NoError(t, ValidateLLMConfig(context.Background(), nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`))
	}))
	defer server.Close()

	err := ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "bad",
		BaseURL:  server.URL,
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestValidateEmbeddingConfig(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{}))

	err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "k",
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
		Model:    "nomic-embed-text",
	}))
}
