package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// liveStore connects to REDIS_ADDR, skipping when it is unset or unreachable.
func liveStore(t *testing.T) *ConversationStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	store := NewConversationStore(Options{Address: addr, Prefix: "assetrag-test:" + uuid.NewString() + ":"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis unreachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKeyLayout(t *testing.T) {
	store := NewConversationStoreWithClient(nil, Options{})
	assert.Equal(t, "assetrag:session:abc:messages", store.key("abc"))
	assert.Equal(t, DefaultTTL, store.ttl)

	custom := NewConversationStoreWithClient(nil, Options{Prefix: "x:", TTL: -1})
	assert.Equal(t, "x:session:abc:messages", custom.key("abc"))
	assert.Equal(t, time.Duration(-1), custom.ttl)
}

func TestTrimStart(t *testing.T) {
	tests := []struct {
		maxLen int
		want   int64
	}{
		{maxLen: 3, want: -3},
		{maxLen: 1, want: -1},
		{maxLen: 0, want: -int64(domain.MaxConversationHistory)},
		{maxLen: -5, want: -int64(domain.MaxConversationHistory)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.maxLen), func(t *testing.T) {
			assert.Equal(t, tt.want, trimStart(tt.maxLen))
		})
	}
}

func TestConversationStore_LiveDefaultBound(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()

	for i := range domain.MaxConversationHistory + 5 {
		require.NoError(t, store.Append(ctx, "s2", domain.ConversationMessage{
			Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i),
		}, 0))
	}

	history, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, history, domain.MaxConversationHistory)
	assert.Equal(t, "m5", history[0].Content)
}

func TestConversationStore_Live(t *testing.T) {
	store := liveStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := range 5 {
		require.NoError(t, store.Append(ctx, "s1", domain.ConversationMessage{
			Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i), Timestamp: time.Now().UTC(),
		}, 3))
	}

	history, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "m2", history[0].Content)
	assert.Equal(t, "m4", history[2].Content)
	assert.Equal(t, domain.RoleUser, history[0].Role)

	require.NoError(t, store.Delete(ctx, "s1"))
	history, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
