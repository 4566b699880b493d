package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// DefaultPingTimeout is the maximum time to wait for a provider to answer.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator checks provider settings by building each provider and
// pinging it. Unconfigured providers are skipped.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator with DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateVectorStore validates a vector store configuration by fetching index stats.
func (v *ConfigValidator) ValidateVectorStore(ctx context.Context, config *domain.VectorStoreSettings) error {
	store, err := CreateVectorStore(config)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	_, err = store.DescribeStats(ctx)
	return err
}
