// Package app wires adapters into the core services.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/assetrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/entities"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/assetrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/assetrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/services"
	"github.com/custodia-labs/assetrag/internal/logger"
	"github.com/custodia-labs/assetrag/internal/postprocessors/chunker"
)

// DefaultIndexName names the index when none is configured.
const DefaultIndexName = "assetrag"

const storePingTimeout = 5 * time.Second

// Config locates on-disk state.
type Config struct {
	// Dir holds config.toml, prompts/ and data/. Defaults to ~/.assetrag.
	Dir string

	// EnvFiles are dotenv files loaded before settings are read.
	EnvFiles []string
}

// Settings loads dotenv files and returns the settings service backed by
// the TOML file with environment overrides.
func Settings(cfg Config) (*services.SettingsService, error) {
	env.LoadFiles(cfg.EnvFiles...)

	dir, err := resolveDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	fileStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(env.NewStore(fileStore)), nil
}

// Builder returns a cli.Builder that builds the pipeline from settings.
func Builder(cfg Config, settings *services.SettingsService) cli.Builder {
	return func(ctx context.Context) (*cli.Services, func() error, error) {
		s, err := settings.Get()
		if err != nil {
			return nil, nil, fmt.Errorf("read settings: %w", err)
		}
		dir, err := resolveDir(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return Build(ctx, s, dir)
	}
}

// Build validates settings, connects every provider and returns the
// services with a closer that releases them in reverse order.
func Build(ctx context.Context, s *domain.AppSettings, dir string) (*cli.Services, func() error, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, func() error, error) {
		if cerr := closeAll(); cerr != nil {
			logger.Warn("Failed to release resources: %v", cerr)
		}
		return nil, nil, err
	}

	providers, err := ai.Init(s)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, providers.Close)

	rag := s.RAG
	pacer := services.NewPacer(rag.BatchInterval)
	embeddings := services.NewEmbeddingGenerator(providers.EmbeddingService,
		services.WithEmbeddingBatchSize(rag.BatchSize),
		services.WithEmbeddingPacer(pacer),
	)

	indexName := s.VectorStore.IndexName
	if indexName == "" {
		indexName = DefaultIndexName
	}
	index := services.NewVectorIndexClient(providers.VectorStore, indexName,
		services.WithServerlessSpec(s.VectorStore.Cloud, s.VectorStore.Region),
		services.WithUpsertBatchSize(rag.BatchSize),
		services.WithUpsertPacer(pacer),
	)
	if err := index.EnsureIndex(ctx, embeddings.Dimensions()); err != nil {
		return fail(err)
	}

	conversations, runs, closeStores, err := openStores(ctx, s.Conversation, dir)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStores)

	query := services.NewQueryService(embeddings, index, providers.LLMService, services.QueryOptions{
		TopK:             rag.TopK,
		MaxContextLength: rag.MaxContextLength,
		HistoryTurns:     services.DefaultHistoryTurns,
		Chat: driven.ChatOptions{
			MaxTokens:   rag.MaxTokens,
			Temperature: rag.Temperature,
			TopP:        rag.TopP,
		},
	})
	if prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts")); err != nil {
		logger.Warn("Custom prompts disabled: %v", err)
	} else {
		query.SetPromptStore(prompts)
	}

	indexer := services.NewIndexService(
		chunker.New(chunker.WithChunkSize(rag.ChunkSize), chunker.WithOverlap(rag.ChunkOverlap)),
		embeddings,
		index,
	)
	indexer.SetRunStore(runs)

	sessions := services.NewSessionRegistry(query, conversations, domain.MaxConversationHistory)

	admin := services.NewAdminService(embeddings, index, providers.LLMService)
	admin.SetRunStore(runs)
	admin.SetSessionCounter(sessions)

	logger.Debug("Pipeline ready: embedding %s, llm %s, index %s, conversations %s",
		embeddings.ModelName(), providers.LLMService.ModelName(), indexName, s.Conversation.Store)

	return &cli.Services{
		Index:    indexer,
		Query:    query,
		Sessions: sessions,
		Admin:    admin,
		Entities: entities.NewLoader(),
		Address:  s.Server.Address,
	}, closeAll, nil
}

// openStores returns the conversation and index run stores. Index runs go
// to SQLite whenever SQLite is opened, otherwise they stay in memory.
func openStores(
	ctx context.Context, cfg domain.ConversationSettings, dir string,
) (driven.ConversationStore, driven.IndexRunStore, func() error, error) {
	switch cfg.Store {
	case domain.ConversationStoreSQLite:
		store, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store.ConversationStore(), store.IndexRunStore(), store.Close, nil

	case domain.ConversationStoreRedis:
		store := redis.NewConversationStore(redis.Options{Address: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return store, memory.NewIndexRunStore(), store.Close, nil

	default:
		return memory.NewConversationStore(), memory.NewIndexRunStore(), func() error { return nil }, nil
	}
}

func resolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	d, err := file.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return d, nil
}
