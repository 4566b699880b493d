package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	index    *mockIndexService
	query    *mockQueryService
	admin    *mockAdminService
	sessions *mockSessionService
	server   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:    &mockIndexService{},
		query:    &mockQueryService{},
		admin:    &mockAdminService{health: &domain.Health{Healthy: true}},
		sessions: newMockSessionService(),
	}
	server, err := NewServer(&Ports{
		Index:    f.index,
		Query:    f.query,
		Admin:    f.admin,
		Sessions: f.sessions,
	}, "127.0.0.1:0")
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer_RequiresQuery(t *testing.T) {
	_, err := NewServer(&Ports{}, "")
	assert.ErrorIs(t, err, ErrMissingQueryService)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[domain.Health](t, rec).Healthy)

	f.admin.health = &domain.Health{Healthy: false, Components: []domain.ComponentHealth{{Name: "llm", Error: "down"}}}
	rec = f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.admin.stats = &domain.Stats{Index: domain.IndexStats{Name: "assets", VectorCount: 7}}

	rec := f.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), decode[domain.Stats](t, rec).Index.VectorCount)
}

func TestIndex(t *testing.T) {
	t.Run("indexes entities", func(t *testing.T) {
		f := newFixture(t)
		f.index.result = &domain.IndexResult{Success: true, IndexedCount: 1, TotalFragments: 2, UpsertedFragments: 2}

		rec := f.do(http.MethodPost, "/api/index", map[string]any{
			"entities": []map[string]any{{"id": "btc", "name": "Bitcoin", "symbol": "BTC"}},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.index.got, 1)
		assert.Equal(t, "Bitcoin", f.index.got[0].Name)
		assert.Equal(t, 2, decode[domain.IndexResult](t, rec).UpsertedFragments)
	})

	t.Run("missing body is a bad request", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/index", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure is a bad request", func(t *testing.T) {
		f := newFixture(t)
		f.index.err = &domain.ValidationError{Field: "entities[0].id", Reason: "must not be empty"}

		rec := f.do(http.MethodPost, "/api/index", map[string]any{"entities": []map[string]any{{"name": "x"}}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Error, "entities[0].id")
	})

	t.Run("partial upsert reports progress", func(t *testing.T) {
		f := newFixture(t)
		f.index.result = &domain.IndexResult{TotalFragments: 250, UpsertedFragments: 100}
		f.index.err = fmt.Errorf("upsert fragments: %w", &domain.ProviderError{Provider: "pinecone", Op: "upsert", StatusCode: 500})

		rec := f.do(http.MethodPost, "/api/index", map[string]any{"entities": []map[string]any{{"id": "a"}}})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		body := decode[indexFailure](t, rec)
		require.NotNil(t, body.Result)
		assert.Equal(t, 100, body.Result.UpsertedFragments)
	})
}

func TestClearAndRemove(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodDelete, "/api/index", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.admin.cleared)

	rec = f.do(http.MethodDelete, "/api/entities/btc", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"btc"}, f.index.removed)
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	f.query.answer = &domain.AnswerResult{Response: "42", ProcessingTime: 1500 * time.Millisecond}

	rec := f.do(http.MethodPost, "/api/query", map[string]any{
		"query":   "meaning?",
		"history": []map[string]any{{"role": "user", "content": "hi"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "42", body["response"])
	assert.EqualValues(t, 1500, body["processingTimeMs"])
	require.Len(t, f.query.history, 1)
	assert.Equal(t, domain.RoleUser, f.query.history[0].Role)
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "query", Reason: "empty"}, http.StatusBadRequest},
		{"llm missing", domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{"provider", &domain.ProviderError{Provider: "openai", Op: "chat", StatusCode: 500}, http.StatusBadGateway},
		{"rate limited", &domain.ProviderError{Provider: "openai", Op: "chat", StatusCode: 429}, http.StatusTooManyRequests},
		{"upstream 404", &domain.ProviderError{Provider: "pinecone", Op: "query", StatusCode: 404}, http.StatusBadGateway},
		{"not ready", &domain.IndexNotReadyError{Index: "assets", Attempts: 3}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.query.err = tt.err
			rec := f.do(http.MethodPost, "/api/query", map[string]any{"query": "q"})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.query.results = []domain.SimilarityResult{{ID: "btc-chunk-0", Score: 1}}

	rec := f.do(http.MethodGet, "/api/search/btc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[searchResponse](t, rec)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "btc-chunk-0", body.Results[0].ID)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[domain.SessionInfo](t, rec).ID
	require.NotEmpty(t, id)

	rec = f.do(http.MethodPost, "/api/sessions/"+id+"/messages", map[string]any{"query": "What is BTC?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo: What is BTC?", decode[domain.AnswerResult](t, rec).Response)

	rec = f.do(http.MethodGet, "/api/sessions/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[historyResponse](t, rec).Messages, 2)

	rec = f.do(http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/sessions/"+id+"/messages", map[string]any{"query": "again"})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestSession_NamedAndUnknown(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/sessions", map[string]any{"id": "desk-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "desk-1", decode[domain.SessionInfo](t, rec).ID)

	rec = f.do(http.MethodGet, "/api/sessions/missing/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptionalPortsAnswerUnavailable(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}}, "")
	require.NoError(t, err)

	for _, path := range []string{"/health", "/api/stats"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.server.Start())
	assert.Error(t, f.server.Start())

	resp, err := http.Get("http://" + f.server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.server.Stop(ctx))
	require.NoError(t, f.server.Stop(ctx))
}
