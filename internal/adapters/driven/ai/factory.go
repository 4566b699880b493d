// Package ai provides factory functions for creating AI and vector store adapters.
package ai

import (
	"errors"
	"fmt"

	localembed "github.com/custodia-labs/assetrag/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/assetrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/assetrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/assetrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/assetrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/assetrag/internal/adapters/driven/llm/openai"
	memoryvec "github.com/custodia-labs/assetrag/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/vectorstore/pinecone"
	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// InitResult holds the providers built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorStore      driven.VectorStore
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.VectorStore != nil {
		errs = append(errs, r.VectorStore.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Init builds every provider. Settings must already be validated; any
// construction failure closes what was built and is returned.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embed, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	result.EmbeddingService = embed

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		_ = result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	result.LLMService = llm

	store, err := CreateVectorStore(&settings.VectorStore)
	if err != nil {
		_ = result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	result.VectorStore = store

	return result, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		if settings != nil && settings.Provider == domain.AIProviderAnthropic {
			// Anthropic does not support embeddings.
			return nil, fmt.Errorf("anthropic does not support embeddings, use openai, ollama or local")
		}
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(settings.ResolvedDimensions()), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorStore creates the vector store backend named in settings.
func CreateVectorStore(settings *domain.VectorStoreSettings) (driven.VectorStore, error) {
	if settings == nil {
		return nil, fmt.Errorf("vector store settings are required")
	}

	switch settings.Provider {
	case domain.VectorStorePinecone:
		return pinecone.New(pinecone.Config{
			APIKey:    settings.APIKey,
			IndexName: settings.IndexName,
			Host:      settings.Host,
		})

	case domain.VectorStoreMemory:
		return memoryvec.New(), nil

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.ResolvedDimensions()
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.ResolvedDimensions(),
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
