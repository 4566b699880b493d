package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// echoServer answers each prompt with a one-element vector holding its length.
func echoServer(t *testing.T, inFlight, peak *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model crashed"))
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{float64(len(req.Prompt))}})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultConcurrency, svc.concurrency)

	minilm := NewEmbeddingService(Config{Model: "all-minilm"})
	assert.Equal(t, 384, minilm.Dimensions())
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := echoServer(t, &inFlight, &peak)
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Concurrency: 2})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, []float32{float32(i + 1)}, v)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestEmbedBatch_FailureReturnsProviderError(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := echoServer(t, &inFlight, &peak)
	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.EmbedBatch(context.Background(), []string{"ok", "fail"})
	require.Error(t, err)
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.Equal(t, "model crashed", pe.Message)
}

func TestPing(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := echoServer(t, &inFlight, &peak)
	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))

	down := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.True(t, domain.IsProviderError(down.Ping(context.Background())))
}
