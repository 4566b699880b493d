package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultControlURL = "https://api.pinecone.io"
	DefaultTimeout    = 30 * time.Second
	APIVersion        = "2024-07"
)

const providerName = "pinecone"

// Config holds configuration for the Pinecone store.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// IndexName is the index data-plane calls target (required).
	IndexName string

	// Host is the data-plane host. Resolved through DescribeIndex when empty.
	Host string

	// ControlURL is the control-plane base URL (default: https://api.pinecone.io).
	ControlURL string

	// Namespace scopes data-plane calls; empty means the default namespace.
	Namespace string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient is used for requests (default: a new client).
	HTTPClient *http.Client
}

// Store talks to one Pinecone index.
type Store struct {
	client     *http.Client
	apiKey     string
	indexName  string
	controlURL string
	namespace  string

	mu   sync.RWMutex
	host string
}

// New creates a Pinecone store.
func New(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Key: "vector_store.api_key", Reason: "Pinecone API key is required"}
	}
	if cfg.IndexName == "" {
		return nil, &domain.ConfigurationError{Key: "vector_store.index_name", Reason: "index name is required"}
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = DefaultControlURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Store{
		client:     cfg.HTTPClient,
		apiKey:     cfg.APIKey,
		indexName:  cfg.IndexName,
		controlURL: strings.TrimRight(cfg.ControlURL, "/"),
		namespace:  cfg.Namespace,
		host:       normaliseHost(cfg.Host),
	}, nil
}

// normaliseHost adds https:// to bare hostnames as returned by the API.
func normaliseHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// Name returns the provider name.
func (s *Store) Name() string {
	return providerName
}

// --- control plane ---

type indexModel struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

// DescribeIndex returns the named index or domain.ErrNotFound.
// Describing the configured index also caches its data-plane host.
func (s *Store) DescribeIndex(ctx context.Context, name string) (*driven.IndexDescription, error) {
	var model indexModel
	err := s.do(ctx, "describe index", http.MethodGet, s.controlURL+"/indexes/"+url.PathEscape(name), nil, &model)
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("pinecone index %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if name == s.indexName && model.Host != "" {
		s.mu.Lock()
		if s.host == "" {
			s.host = normaliseHost(model.Host)
		}
		s.mu.Unlock()
	}

	return &driven.IndexDescription{
		Name:      model.Name,
		Dimension: model.Dimension,
		Metric:    model.Metric,
		Host:      model.Host,
		Ready:     model.Status.Ready,
	}, nil
}

// CreateIndex requests a serverless index. It returns before the index is ready.
// A 409 (already exists) is not an error.
func (s *Store) CreateIndex(ctx context.Context, spec driven.IndexSpec) error {
	req := createIndexRequest{Name: spec.Name, Dimension: spec.Dimension, Metric: spec.Metric}
	req.Spec.Serverless.Cloud = spec.Cloud
	req.Spec.Serverless.Region = spec.Region

	logger.Debug("pinecone: creating index %q (dimension=%d, %s/%s)", spec.Name, spec.Dimension, spec.Cloud, spec.Region)
	err := s.do(ctx, "create index", http.MethodPost, s.controlURL+"/indexes", req, nil)
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode == http.StatusConflict {
		logger.Debug("pinecone: index %q already exists", spec.Name)
		return nil
	}
	return err
}

// --- data plane ---

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
	IncludeValues   bool           `json:"includeValues"`
	Namespace       string         `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	DeleteAll bool           `json:"deleteAll,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

type statsResponse struct {
	Dimension        int     `json:"dimension"`
	IndexFullness    float64 `json:"indexFullness"`
	TotalVectorCount int64   `json:"totalVectorCount"`
}

// Upsert writes one batch of records.
func (s *Store) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	host, err := s.dataHost(ctx)
	if err != nil {
		return err
	}

	req := upsertRequest{Vectors: make([]vector, len(records)), Namespace: s.namespace}
	for i, rec := range records {
		req.Vectors[i] = vector{ID: rec.ID, Values: rec.Vector, Metadata: encodeMetadata(rec)}
	}

	var resp upsertResponse
	if err := s.do(ctx, "upsert", http.MethodPost, host+"/vectors/upsert", req, &resp); err != nil {
		return err
	}
	logger.Debug("pinecone: upserted %d vectors", resp.UpsertedCount)
	return nil
}

// Query returns up to TopK matches ordered by descending score.
func (s *Store) Query(ctx context.Context, q driven.VectorQuery) ([]domain.SimilarityResult, error) {
	host, err := s.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		Filter:          encodeFilter(q.Filter),
		IncludeMetadata: q.IncludeMetadata,
		Namespace:       s.namespace,
	}
	var resp queryResponse
	if err := s.do(ctx, "query", http.MethodPost, host+"/query", req, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SimilarityResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		meta, content := decodeMetadata(m.Metadata)
		results = append(results, domain.SimilarityResult{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: meta,
			Content:  content,
		})
	}
	return results, nil
}

// Delete removes records matching the filter, or everything when All is set.
func (s *Store) Delete(ctx context.Context, req driven.DeleteRequest) error {
	if !req.All && len(req.Filter) == 0 {
		return &domain.ValidationError{Field: "filter", Reason: "delete needs a filter or All"}
	}
	host, err := s.dataHost(ctx)
	if err != nil {
		return err
	}

	body := deleteRequest{DeleteAll: req.All, Namespace: s.namespace}
	if !req.All {
		body.Filter = encodeFilter(req.Filter)
	}
	return s.do(ctx, "delete", http.MethodPost, host+"/vectors/delete", body, nil)
}

// DescribeStats reports index statistics.
func (s *Store) DescribeStats(ctx context.Context) (*domain.IndexStats, error) {
	host, err := s.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	var resp statsResponse
	if err := s.do(ctx, "describe stats", http.MethodPost, host+"/describe_index_stats", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &domain.IndexStats{
		Name:        s.indexName,
		Dimension:   resp.Dimension,
		VectorCount: resp.TotalVectorCount,
		Fullness:    resp.IndexFullness,
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// dataHost returns the data-plane base URL, describing the index on first use.
func (s *Store) dataHost(ctx context.Context) (string, error) {
	s.mu.RLock()
	host := s.host
	s.mu.RUnlock()
	if host != "" {
		return host, nil
	}

	desc, err := s.DescribeIndex(ctx, s.indexName)
	if errors.Is(err, domain.ErrNotFound) {
		// A missing backing index is a backend failure for data-plane callers.
		return "", &domain.ProviderError{
			Provider:   providerName,
			Op:         "describe index",
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("index %q does not exist", s.indexName),
		}
	}
	if err != nil {
		return "", fmt.Errorf("resolve host for %q: %w", s.indexName, err)
	}
	if desc.Host == "" {
		return "", &domain.ProviderError{Provider: providerName, Op: "describe index", Message: "index has no host yet"}
	}
	return normaliseHost(desc.Host), nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx statuses, 404 included, map to *domain.ProviderError.
func (s *Store) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: providerName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProviderError{Provider: providerName, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ProviderError{
			Provider:   providerName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ProviderError{Provider: providerName, Op: op, Message: "malformed response", Err: err}
	}
	return nil
}

// errorMessage extracts the message from a Pinecone error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error.Message != "" {
			return e.Error.Message
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(body))
}
