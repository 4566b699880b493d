package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

type mockIndexService struct {
	result  *domain.IndexResult
	err     error
	indexed [][]domain.EntityRecord
	removed []string
}

func (m *mockIndexService) IndexEntities(_ context.Context, entities []domain.EntityRecord) (*domain.IndexResult, error) {
	m.indexed = append(m.indexed, entities)
	if m.result == nil {
		return &domain.IndexResult{Success: true, IndexedCount: len(entities)}, m.err
	}
	return m.result, m.err
}

func (m *mockIndexService) RemoveEntity(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return m.err
}

func (m *mockIndexService) EntityFragments(_ context.Context, _ string) ([]domain.SimilarityResult, error) {
	return nil, m.err
}

type mockQueryService struct {
	answer     *domain.AnswerResult
	results    []domain.SimilarityResult
	err        error
	lastQuery  string
	identifier string
}

func (m *mockQueryService) AnswerQuery(
	_ context.Context, query string, _ []domain.ConversationMessage,
) (*domain.AnswerResult, error) {
	m.lastQuery = query
	return m.answer, m.err
}

func (m *mockQueryService) SearchByIdentifier(_ context.Context, identifier string) ([]domain.SimilarityResult, error) {
	m.identifier = identifier
	return m.results, m.err
}

type mockAdminService struct {
	health  *domain.Health
	stats   *domain.Stats
	err     error
	cleared bool
}

func (m *mockAdminService) Health(_ context.Context) *domain.Health { return m.health }

func (m *mockAdminService) Stats(_ context.Context) (*domain.Stats, error) { return m.stats, m.err }

func (m *mockAdminService) ClearIndex(_ context.Context) error {
	m.cleared = true
	return m.err
}

type mockSessionService struct {
	opened  []string
	closed  []string
	asked   []string
	askErr  error
	history []domain.ConversationMessage
}

func (m *mockSessionService) Open(_ context.Context, id string) (*domain.SessionInfo, error) {
	if id == "" {
		id = "generated"
	}
	m.opened = append(m.opened, id)
	return &domain.SessionInfo{ID: id, State: domain.SessionActive}, nil
}

func (m *mockSessionService) Ask(_ context.Context, _, query string) (*domain.AnswerResult, error) {
	m.asked = append(m.asked, query)
	if m.askErr != nil {
		return nil, m.askErr
	}
	return &domain.AnswerResult{Response: "re: " + query, Confidence: 0.8}, nil
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.ConversationMessage, error) {
	return m.history, nil
}

func (m *mockSessionService) Close(_ context.Context, id string) error {
	m.closed = append(m.closed, id)
	return nil
}

func (m *mockSessionService) ActiveCount() int { return len(m.opened) - len(m.closed) }

type mockEntitySource struct {
	entities []domain.EntityRecord
	err      error
	loaded   []string
}

func (m *mockEntitySource) Load(_ context.Context, location string) ([]domain.EntityRecord, error) {
	m.loaded = append(m.loaded, location)
	return m.entities, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	validateErr error
	setErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) Path() string { return "/tmp/assetrag/config.toml" }

// withServices installs svc for one test and resets command flags.
func withServices(t *testing.T, svc *Services) {
	t.Helper()
	SetServices(svc)
	indexJSON, indexWatch = false, false
	askJSON, askSources = false, false
	searchJSON, statsJSON, healthJSON, clearYes = false, false, false, false
	chatSessionID, serveAddr = "", ""
	t.Cleanup(func() { SetServices(nil) })
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func entities(n int) []domain.EntityRecord {
	out := make([]domain.EntityRecord, n)
	for i := range out {
		out[i] = domain.EntityRecord{ID: fmt.Sprintf("e%d", i), Name: fmt.Sprintf("Entity %d", i), Symbol: "E"}
	}
	return out
}
