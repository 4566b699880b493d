package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the in-process hashing embedder (offline use).
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
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
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// VectorStoreProvider identifies the vector store backend.
type VectorStoreProvider string

// Available vector store providers.
const (
	VectorStorePinecone VectorStoreProvider = "pinecone"
	VectorStoreMemory   VectorStoreProvider = "memory"
)

// IsValid returns true if the vector store provider is recognised.
func (p VectorStoreProvider) IsValid() bool {
	return p == VectorStorePinecone || p == VectorStoreMemory
}

// ConversationStoreKind selects where conversation history lives.
type ConversationStoreKind string

// Available conversation stores.
const (
	ConversationStoreMemory ConversationStoreKind = "memory"
	ConversationStoreSQLite ConversationStoreKind = "sqlite"
	ConversationStoreRedis  ConversationStoreKind = "redis"
)

// IsValid returns true if the conversation store kind is recognised.
func (k ConversationStoreKind) IsValid() bool {
	switch k {
	case ConversationStoreMemory, ConversationStoreSQLite, ConversationStoreRedis:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's known vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns the configured dimension or the model default.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	if d, ok := EmbeddingDimensions()[e.Model]; ok {
		return d
	}
	return 0
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds remote vector index configuration.
type VectorStoreSettings struct {
	Provider  VectorStoreProvider
	APIKey    string
	IndexName string

	// Cloud and Region describe the serverless spec used on create.
	Cloud  string
	Region string

	// Host is the data-plane host; resolved from the control plane when empty.
	Host string
}

// RAGSettings holds pipeline policy values.
type RAGSettings struct {
	ChunkSize        int
	ChunkOverlap     int
	TopK             int
	MaxContextLength int
	BatchSize        int
	BatchInterval    time.Duration
	MaxTokens        int
	Temperature      float64
	TopP             float64
}

// ConversationSettings selects the conversation history store.
type ConversationSettings struct {
	Store     ConversationStoreKind
	RedisAddr string
}

// ServerSettings holds gateway configuration.
type ServerSettings struct {
	Address string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding    EmbeddingSettings
	LLM          LLMSettings
	VectorStore  VectorStoreSettings
	RAG          RAGSettings
	Conversation ConversationSettings
	Server       ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Credentials and the index name are left empty.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		VectorStore: VectorStoreSettings{
			Provider: VectorStorePinecone,
			Cloud:    "aws",
			Region:   "us-east-1",
		},
		RAG: RAGSettings{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			TopK:             5,
			MaxContextLength: 4000,
			BatchSize:        100,
			BatchInterval:    time.Second,
			MaxTokens:        1000,
			Temperature:      0.7,
			TopP:             1.0,
		},
		Conversation: ConversationSettings{
			Store:     ConversationStoreMemory,
			RedisAddr: "localhost:6379",
		},
		Server: ServerSettings{
			Address: ":8080",
		},
	}
}

// Validate checks that everything needed to serve traffic is present.
// The first problem found is returned as a *ConfigurationError.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic {
		return &ConfigurationError{Key: "embedding.provider", Reason: "unsupported provider " + quote(string(s.Embedding.Provider))}
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return &ConfigurationError{Key: "embedding.api_key", Reason: "API key is required for " + s.Embedding.Provider.String()}
	}
	if s.Embedding.ResolvedDimensions() <= 0 {
		return &ConfigurationError{Key: "embedding.dimensions", Reason: "unknown dimension for model " + quote(s.Embedding.Model)}
	}
	if !s.LLM.Provider.IsValid() || s.LLM.Provider == AIProviderLocal {
		return &ConfigurationError{Key: "llm.provider", Reason: "unsupported provider " + quote(string(s.LLM.Provider))}
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		return &ConfigurationError{Key: "llm.api_key", Reason: "API key is required for " + s.LLM.Provider.String()}
	}
	if !s.VectorStore.Provider.IsValid() {
		return &ConfigurationError{Key: "vector_store.provider", Reason: "unsupported provider " + quote(string(s.VectorStore.Provider))}
	}
	if s.VectorStore.Provider == VectorStorePinecone {
		if s.VectorStore.APIKey == "" {
			return &ConfigurationError{Key: "vector_store.api_key", Reason: "API key is required"}
		}
		if s.VectorStore.IndexName == "" {
			return &ConfigurationError{Key: "vector_store.index_name", Reason: "index name is required"}
		}
	}
	if s.RAG.ChunkSize <= 0 {
		return &ConfigurationError{Key: "rag.chunk_size", Reason: "must be positive"}
	}
	if s.RAG.ChunkOverlap < 0 {
		return &ConfigurationError{Key: "rag.chunk_overlap", Reason: "must not be negative"}
	}
	if s.RAG.TopK <= 0 {
		return &ConfigurationError{Key: "rag.top_k", Reason: "must be positive"}
	}
	if s.RAG.MaxContextLength <= 0 {
		return &ConfigurationError{Key: "rag.max_context_length", Reason: "must be positive"}
	}
	if s.RAG.BatchSize <= 0 {
		return &ConfigurationError{Key: "rag.batch_size", Reason: "must be positive"}
	}
	if !s.Conversation.Store.IsValid() {
		return &ConfigurationError{Key: "conversation.store", Reason: "unsupported store " + quote(string(s.Conversation.Store))}
	}
	if s.Conversation.Store == ConversationStoreRedis && s.Conversation.RedisAddr == "" {
		return &ConfigurationError{Key: "conversation.redis_addr", Reason: "address is required for redis store"}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderLocal,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hash-384",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderOllama:    "llama3.2",
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
		// Local
		"hash-384": 384,
	}
}
