package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() AppSettings {
	s := DefaultAppSettings()
	s.Embedding.APIKey = "sk-embed"
	s.LLM.APIKey = "sk-llm"
	s.VectorStore.APIKey = "pc-key"
	s.VectorStore.IndexName = "tokens"
	return s
}

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{AIProviderAnthropic, true},
		{AIProviderLocal, true},
		{AIProvider(""), false},
		{AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, 1536, s.Embedding.ResolvedDimensions())
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, VectorStorePinecone, s.VectorStore.Provider)
	assert.Equal(t, 1000, s.RAG.ChunkSize)
	assert.Equal(t, 200, s.RAG.ChunkOverlap)
	assert.Equal(t, 5, s.RAG.TopK)
	assert.Equal(t, 4000, s.RAG.MaxContextLength)
	assert.Equal(t, 100, s.RAG.BatchSize)
	assert.Equal(t, ConversationStoreMemory, s.Conversation.Store)
	assert.Equal(t, ":8080", s.Server.Address)
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppSettings)
		wantKey string
	}{
		{"valid", func(*AppSettings) {}, ""},
		{"missing embedding key", func(s *AppSettings) { s.Embedding.APIKey = "" }, "embedding.api_key"},
		{"anthropic cannot embed", func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic }, "embedding.provider"},
		{"unknown model dimension", func(s *AppSettings) { s.Embedding.Model = "mystery" }, "embedding.dimensions"},
		{"explicit dimension", func(s *AppSettings) { s.Embedding.Model = "mystery"; s.Embedding.Dimensions = 64 }, ""},
		{"missing llm key", func(s *AppSettings) { s.LLM.APIKey = "" }, "llm.api_key"},
		{"local cannot chat", func(s *AppSettings) { s.LLM.Provider = AIProviderLocal }, "llm.provider"},
		{"missing pinecone key", func(s *AppSettings) { s.VectorStore.APIKey = "" }, "vector_store.api_key"},
		{"missing index name", func(s *AppSettings) { s.VectorStore.IndexName = "" }, "vector_store.index_name"},
		{"memory store needs no credentials", func(s *AppSettings) {
			s.VectorStore = VectorStoreSettings{Provider: VectorStoreMemory}
		}, ""},
		{"bad chunk size", func(s *AppSettings) { s.RAG.ChunkSize = 0 }, "rag.chunk_size"},
		{"bad top k", func(s *AppSettings) { s.RAG.TopK = 0 }, "rag.top_k"},
		{"bad conversation store", func(s *AppSettings) { s.Conversation.Store = "mongo" }, "conversation.store"},
		{"redis without addr", func(s *AppSettings) {
			s.Conversation.Store = ConversationStoreRedis
			s.Conversation.RedisAddr = ""
		}, "conversation.redis_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.wantKey, ce.Key)
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestDefaultModels(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		model, ok := DefaultEmbeddingModels()[p]
		require.True(t, ok, "no default embedding model for %s", p)
		assert.Positive(t, EmbeddingDimensions()[model])
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p])
	}
}
