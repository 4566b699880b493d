// Package redis provides a Redis-backed driven.ConversationStore so several
// gateway processes can share session history.
//
// Each session is a list of JSON-encoded messages under
// "<prefix>session:<id>:messages", trimmed with LTRIM on every append and
// expired after the configured TTL of inactivity.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// Default configuration values.
const (
	DefaultAddress = "localhost:6379"
	DefaultPrefix  = "assetrag:"
	DefaultTTL     = 24 * time.Hour
)

// Options configures the Redis connection and key layout.
type Options struct {
	// Address is the Redis server address (default: localhost:6379).
	Address string
	// Password required when connecting to the Redis server.
	Password string
	// DB to connect to.
	DB int
	// Prefix namespaces every key (default: "assetrag:").
	Prefix string
	// TTL expires idle sessions (default: 24h). Negative disables expiry.
	TTL time.Duration
}

// ConversationStore keeps session history in Redis lists.
type ConversationStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewConversationStore connects to Redis.
func NewConversationStore(opts Options) *ConversationStore {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewConversationStoreWithClient(client, opts)
}

// NewConversationStoreWithClient wraps an existing client.
func NewConversationStoreWithClient(client redis.UniversalClient, opts Options) *ConversationStore {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	return &ConversationStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (s *ConversationStore) key(sessionID string) string {
	return s.prefix + "session:" + sessionID + ":messages"
}

// Ping checks the server is reachable.
func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load returns the session history oldest first.
func (s *ConversationStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	history := make([]domain.ConversationMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ConversationMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		history = append(history, msg)
	}
	return history, nil
}

// Append adds a message and keeps the newest maxLen entries.
func (s *ConversationStore) Append(
	ctx context.Context, sessionID string, msg domain.ConversationMessage, maxLen int,
) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, trimStart(maxLen), -1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// trimStart is the LTRIM start index keeping the newest maxLen entries.
// A non-positive maxLen falls back to domain.MaxConversationHistory.
func trimStart(maxLen int) int64 {
	if maxLen <= 0 {
		maxLen = domain.MaxConversationHistory
	}
	return int64(-maxLen)
}

// Delete discards the session history.
func (s *ConversationStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}
