package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()
	require.NotNil(t, validator)
	assert.Equal(t, DefaultPingTimeout, validator.timeout)
}

func TestConfigValidator_SkipsUnconfigured(t *testing.T) {
	validator := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, validator.ValidateEmbedding(ctx, nil))
	assert.NoError(t, validator.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Model: "x"}))
	assert.NoError(t, validator.ValidateLLM(ctx, nil))
	assert.NoError(t, validator.ValidateLLM(ctx, &domain.LLMSettings{Provider: domain.AIProviderOpenAI}))
}

func TestConfigValidator_LocalAndMemoryAlwaysPass(t *testing.T) {
	validator := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, validator.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderLocal}))
	assert.NoError(t, validator.ValidateVectorStore(ctx, &domain.VectorStoreSettings{Provider: domain.VectorStoreMemory}))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	validator := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, validator.ValidateLLM(ctx, &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL}))

	err := validator.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL})
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
}
