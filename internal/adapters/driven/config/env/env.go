// Package env overlays environment variables on another ConfigStore.
//
// Credentials and deployment knobs usually arrive through the environment
// (or a .env file next to the binary) rather than config.toml. Reads consult
// the mapped variables first; writes go to the underlying store.
package env

import (
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/assetrag/internal/adapters/driven/config/values"
	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// Prefix is prepended to the generic variable name of every settings key.
// "rag.chunk_size" reads ASSETRAG_RAG_CHUNK_SIZE.
const Prefix = "ASSETRAG_"

// Bindings maps settings keys to the well-known variables that also set
// them, in priority order. The generic ASSETRAG_* name always wins.
// API keys are bound per provider, see APIKeyVars.
var Bindings = map[string][]string{
	"embedding.provider":      {"ASSETRAG_EMBEDDING_PROVIDER"},
	"llm.provider":            {"ASSETRAG_LLM_PROVIDER"},
	"vector_store.provider":   {"ASSETRAG_VECTOR_STORE"},
	"vector_store.api_key":    {"PINECONE_API_KEY"},
	"vector_store.index_name": {"PINECONE_INDEX_NAME"},
	"vector_store.host":       {"PINECONE_HOST"},
	"conversation.store":      {"ASSETRAG_CONVERSATION_STORE"},
	"conversation.redis_addr": {"REDIS_ADDR"},
	"server.address":          {"ASSETRAG_ADDR"},
}

// APIKeyVars maps a provider to the variable holding its API key.
var APIKeyVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

var defaultProviders = map[string]string{
	"embedding": domain.DefaultAppSettings().Embedding.Provider.String(),
	"llm":       domain.DefaultAppSettings().LLM.Provider.String(),
}

// DefaultFiles are the dotenv files LoadFiles reads.
var DefaultFiles = []string{".env", ".env.local"}

// LoadFiles loads dotenv files into the process environment. Variables that
// are already set are never overwritten. Missing files are skipped.
func LoadFiles(files ...string) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Store reads environment variables before falling back to base.
type Store struct {
	base   driven.ConfigStore
	lookup func(string) (string, bool)
}

// NewStore creates an environment overlay on base.
func NewStore(base driven.ConfigStore) *Store {
	return &Store{base: base, lookup: os.LookupEnv}
}

// VarName returns the generic variable for a settings key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

// lookupKey returns the environment value for key, if any.
func (s *Store) lookupKey(key string) (string, bool) {
	if v, ok := s.lookup(VarName(key)); ok && v != "" {
		return v, true
	}
	names := Bindings[key]
	if section, ok := strings.CutSuffix(key, ".api_key"); ok {
		provider := s.GetString(section + ".provider")
		if provider == "" {
			provider = defaultProviders[section]
		}
		if name, ok := APIKeyVars[provider]; ok {
			names = []string{name}
		}
	}
	for _, name := range names {
		if v, ok := s.lookup(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Get retrieves a configuration value by key.
func (s *Store) Get(key string) (any, bool) {
	if v, ok := s.lookupKey(key); ok {
		return v, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	val, _ := s.Get(key)
	return values.String(val)
}

// GetInt retrieves an integer configuration value.
func (s *Store) GetInt(key string) int {
	val, _ := s.Get(key)
	return values.Int(val)
}

// GetFloat retrieves a floating point configuration value.
func (s *Store) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	return values.Float(val)
}

// GetBool retrieves a boolean configuration value.
func (s *Store) GetBool(key string) bool {
	val, _ := s.Get(key)
	return values.Bool(val)
}

// GetDuration retrieves a duration configuration value.
func (s *Store) GetDuration(key string) time.Duration {
	val, _ := s.Get(key)
	return values.Duration(val)
}

// GetStringSlice retrieves a string slice configuration value.
func (s *Store) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	return values.StringSlice(val)
}

// Keys returns the base keys plus every bound key set in the environment.
func (s *Store) Keys() []string {
	keys := make(map[string]struct{})
	for _, k := range s.base.Keys() {
		keys[k] = struct{}{}
	}
	candidates := slices.Collect(maps.Keys(Bindings))
	candidates = append(candidates, "embedding.api_key", "llm.api_key")
	for _, k := range candidates {
		if _, ok := s.lookupKey(k); ok {
			keys[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(keys))
}

// Set writes to the underlying store. An environment variable for the same
// key still takes precedence on read.
func (s *Store) Set(key string, value any) error {
	return s.base.Set(key, value)
}

// Save persists the underlying store.
func (s *Store) Save() error {
	return s.base.Save()
}

// Load reloads the underlying store.
func (s *Store) Load() error {
	return s.base.Load()
}

// Path returns the underlying store's path.
func (s *Store) Path() string {
	return s.base.Path()
}

// Overridden reports whether key is currently set by the environment.
func (s *Store) Overridden(key string) bool {
	_, ok := s.lookupKey(key)
	return ok
}
