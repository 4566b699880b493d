package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc, err := NewLLMService(Config{APIKey: "ak-test", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.True(t, domain.IsConfigurationError(err))
}

func TestChat_SplitsSystemPrompt(t *testing.T) {
	var got messagesRequest
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"content":[{"type":"text","text":"Ethereum "},{"type":"text","text":"runs smart contracts."}],
			"usage":{"input_tokens":80,"output_tokens":20}
		}`))
	})

	res, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: domain.RoleSystem, Content: "use the context"},
		{Role: domain.RoleUser, Content: "what is ETH?"},
		{Role: domain.RoleAssistant, Content: "a token"},
		{Role: domain.RoleUser, Content: "more"},
	}, driven.ChatOptions{Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "Ethereum runs smart contracts.", res.Content)
	assert.Equal(t, 100, res.TotalTokens)
	assert.Equal(t, "use the context", got.System)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
}

func TestChat_ClampsTemperature(t *testing.T) {
	var got messagesRequest
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	})
	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{Temperature: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Temperature, 1e-9)
}

func TestChat_ProviderError(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	})
	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "anthropic", pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Equal(t, "slow down", pe.Message)
}
