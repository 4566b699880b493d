package services

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedDimensions   = "embedding.dimensions"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
	KeyVectorProvider    = "vector_store.provider"
	KeyVectorAPIKey      = "vector_store.api_key"
	KeyVectorIndexName   = "vector_store.index_name"
	KeyVectorCloud       = "vector_store.cloud"
	KeyVectorRegion      = "vector_store.region"
	KeyVectorHost        = "vector_store.host"
	KeyChunkSize         = "rag.chunk_size"
	KeyChunkOverlap      = "rag.chunk_overlap"
	KeyTopK              = "rag.top_k"
	KeyMaxContextLength  = "rag.max_context_length"
	KeyBatchSize         = "rag.batch_size"
	KeyBatchInterval     = "rag.batch_interval"
	KeyMaxTokens         = "rag.max_tokens"
	KeyTemperature       = "rag.temperature"
	KeyTopP              = "rag.top_p"
	KeyConversationStore = "conversation.store"
	KeyConversationRedis = "conversation.redis_addr"
	KeyServerAddress     = "server.address"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

// settingKinds lists every settable key and how its value is parsed.
var settingKinds = map[string]valueKind{
	KeyEmbedProvider:     kindString,
	KeyEmbedModel:        kindString,
	KeyEmbedBaseURL:      kindString,
	KeyEmbedAPIKey:       kindString,
	KeyEmbedDimensions:   kindInt,
	KeyLLMProvider:       kindString,
	KeyLLMModel:          kindString,
	KeyLLMBaseURL:        kindString,
	KeyLLMAPIKey:         kindString,
	KeyVectorProvider:    kindString,
	KeyVectorAPIKey:      kindString,
	KeyVectorIndexName:   kindString,
	KeyVectorCloud:       kindString,
	KeyVectorRegion:      kindString,
	KeyVectorHost:        kindString,
	KeyChunkSize:         kindInt,
	KeyChunkOverlap:      kindInt,
	KeyTopK:              kindInt,
	KeyMaxContextLength:  kindInt,
	KeyBatchSize:         kindInt,
	KeyBatchInterval:     kindDuration,
	KeyMaxTokens:         kindInt,
	KeyTemperature:       kindFloat,
	KeyTopP:              kindFloat,
	KeyConversationStore: kindString,
	KeyConversationRedis: kindString,
	KeyServerAddress:     kindString,
}

// SettingKeys returns every recognised settings key.
func SettingKeys() []string {
	return slices.Sorted(maps.Keys(settingKinds))
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
// Unset keys fall back to defaults; model defaults follow the provider.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	embedProvider := domain.AIProvider(s.getString(KeyEmbedProvider, d.Embedding.Provider.String()))
	llmProvider := domain.AIProvider(s.getString(KeyLLMProvider, d.LLM.Provider.String()))

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      s.getString(KeyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:    s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:     s.configStore.GetString(KeyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(KeyEmbedDimensions),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(KeyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		VectorStore: domain.VectorStoreSettings{
			Provider:  domain.VectorStoreProvider(s.getString(KeyVectorProvider, string(d.VectorStore.Provider))),
			APIKey:    s.configStore.GetString(KeyVectorAPIKey),
			IndexName: s.configStore.GetString(KeyVectorIndexName),
			Cloud:     s.getString(KeyVectorCloud, d.VectorStore.Cloud),
			Region:    s.getString(KeyVectorRegion, d.VectorStore.Region),
			Host:      s.configStore.GetString(KeyVectorHost),
		},
		RAG: domain.RAGSettings{
			ChunkSize:        s.getInt(KeyChunkSize, d.RAG.ChunkSize),
			ChunkOverlap:     s.getIntAllowZero(KeyChunkOverlap, d.RAG.ChunkOverlap),
			TopK:             s.getInt(KeyTopK, d.RAG.TopK),
			MaxContextLength: s.getInt(KeyMaxContextLength, d.RAG.MaxContextLength),
			BatchSize:        s.getInt(KeyBatchSize, d.RAG.BatchSize),
			BatchInterval:    s.getDuration(KeyBatchInterval, d.RAG.BatchInterval),
			MaxTokens:        s.getInt(KeyMaxTokens, d.RAG.MaxTokens),
			Temperature:      s.getFloat(KeyTemperature, d.RAG.Temperature),
			TopP:             s.getFloat(KeyTopP, d.RAG.TopP),
		},
		Conversation: domain.ConversationSettings{
			Store:     domain.ConversationStoreKind(s.getString(KeyConversationStore, string(d.Conversation.Store))),
			RedisAddr: s.getString(KeyConversationRedis, d.Conversation.RedisAddr),
		},
		Server: domain.ServerSettings{
			Address: s.getString(KeyServerAddress, d.Server.Address),
		},
	}

	return settings, nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return &domain.ValidationError{Field: key, Reason: "unknown setting"}
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return &domain.ValidationError{Field: key, Reason: "expected an integer"}
		}
		parsed = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &domain.ValidationError{Field: key, Reason: "expected a number"}
		}
		parsed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return &domain.ValidationError{Field: key, Reason: "expected a duration such as 1s"}
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks that the effective settings can serve traffic.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}
