package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
// Vectors come from vectorFor when set, otherwise embedding is returned.
type mockEmbedder struct {
	mu         sync.Mutex
	embedding  []float32
	vectorFor  func(text string) []float32
	embedErr   error
	batchErr   error
	shortBatch bool
	pingErr    error
	dims       int

	embedCalls []string
	batchCalls [][]string
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.vectorFor != nil {
		return m.vectorFor(text)
	}
	return m.embedding
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls = append(m.embedCalls, text)
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls = append(m.batchCalls, append([]string(nil), texts...))
	m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	n := len(texts)
	if m.shortBatch {
		n--
	}
	result := make([][]float32, n)
	for i := range result {
		result[i] = m.vector(texts[i])
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEmbedder) Close() error { return nil }

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu sync.Mutex

	// describe is consulted in order; the last entry repeats.
	describe    []*driven.IndexDescription
	describeErr error
	describes   int
	createErr   error
	created     []driven.IndexSpec

	upsertErrAtBatch int // 1-based; 0 never fails
	upsertErr        error
	upserts          [][]domain.EmbeddingRecord

	queryFn  func(q driven.VectorQuery) []domain.SimilarityResult
	queryErr error
	queries  []driven.VectorQuery

	deleteErr error
	deletes   []driven.DeleteRequest

	stats    *domain.IndexStats
	statsErr error
}

func (m *mockVectorStore) DescribeIndex(_ context.Context, _ string) (*driven.IndexDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describes++
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	if len(m.describe) == 0 {
		return nil, domain.ErrNotFound
	}
	d := m.describe[0]
	if len(m.describe) > 1 {
		m.describe = m.describe[1:]
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockVectorStore) CreateIndex(_ context.Context, spec driven.IndexSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, spec)
	return m.createErr
}

func (m *mockVectorStore) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErrAtBatch > 0 && len(m.upserts)+1 == m.upsertErrAtBatch {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, append([]domain.EmbeddingRecord(nil), records...))
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, q driven.VectorQuery) ([]domain.SimilarityResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryFn == nil {
		return nil, nil
	}
	return m.queryFn(q), nil
}

func (m *mockVectorStore) Delete(_ context.Context, req driven.DeleteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, req)
	return m.deleteErr
}

func (m *mockVectorStore) DescribeStats(_ context.Context) (*domain.IndexStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	if m.stats == nil {
		return &domain.IndexStats{}, nil
	}
	cp := *m.stats
	return &cp, nil
}

func (m *mockVectorStore) Name() string { return "mock-store" }

func (m *mockVectorStore) Close() error { return nil }

func (m *mockVectorStore) upsertedRecords() []domain.EmbeddingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.EmbeddingRecord
	for _, batch := range m.upserts {
		all = append(all, batch...)
	}
	return all
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	content  string
	tokens   int
	chatErr  error
	pingErr  error
	messages [][]driven.ChatMessage
	options  []driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, append([]driven.ChatMessage(nil), msgs...))
	m.options = append(m.options, opts)
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return &driven.ChatResult{Content: m.content, TotalTokens: m.tokens}, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return m.pingErr }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) lastMessages() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// mockConversationStore implements driven.ConversationStore for testing.
type mockConversationStore struct {
	mu        sync.Mutex
	history   map[string][]domain.ConversationMessage
	loadErr   error
	appendErr error
	deleteErr error
}

func newMockConversationStore() *mockConversationStore {
	return &mockConversationStore{history: make(map[string][]domain.ConversationMessage)}
}

func (m *mockConversationStore) Load(_ context.Context, id string) ([]domain.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.ConversationMessage(nil), m.history[id]...), nil
}

func (m *mockConversationStore) Append(_ context.Context, id string, msg domain.ConversationMessage, maxLen int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.history[id] = domain.AppendMessage(m.history[id], msg, maxLen)
	return nil
}

func (m *mockConversationStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.history, id)
	return nil
}

// mockRunStore implements driven.IndexRunStore for testing.
type mockRunStore struct {
	mu        sync.Mutex
	runs      []domain.IndexRun
	recordErr error
	recentErr error
}

func (m *mockRunStore) Record(_ context.Context, run domain.IndexRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunStore) Recent(_ context.Context, limit int) ([]domain.IndexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	out := make([]domain.IndexRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// --- Fixtures ---

// readyStore returns a store whose index exists with the given dimension.
func readyStore(dim int) *mockVectorStore {
	return &mockVectorStore{
		describe: []*driven.IndexDescription{{Name: "assets", Dimension: dim, Metric: driven.MetricCosine, Ready: true}},
	}
}

// unpacedIndex returns a client with pacing disabled.
func unpacedIndex(store driven.VectorStore, opts ...VectorIndexOption) *VectorIndexClient {
	opts = append([]VectorIndexOption{WithUpsertPacer(NewPacer(0))}, opts...)
	return NewVectorIndexClient(store, "assets", opts...)
}

// unpacedGenerator returns a generator with pacing disabled.
func unpacedGenerator(embedder driven.EmbeddingService, opts ...GeneratorOption) *EmbeddingGenerator {
	opts = append([]GeneratorOption{WithEmbeddingPacer(NewPacer(0))}, opts...)
	return NewEmbeddingGenerator(embedder, opts...)
}

func result(parentID, name, symbol string, index int, score float64, content string) domain.SimilarityResult {
	return domain.SimilarityResult{
		ID:    domain.FragmentID(parentID, index),
		Score: score,
		Metadata: domain.FragmentMetadata{
			ParentID:   parentID,
			ParentName: name,
			Symbol:     symbol,
			Index:      index,
		},
		Content: content,
	}
}

func ptr[T any](v T) *T { return &v }
