package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/assetrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Store is a SQLite database that backs the conversation and index-run
// stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.assetrag/data/assetrag.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".assetrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "assetrag.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ConversationStore returns a ConversationStore backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// IndexRunStore returns an IndexRunStore backed by this store.
func (s *Store) IndexRunStore() driven.IndexRunStore {
	return &indexRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_init.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// Load returns the session history oldest first.
func (c *conversationStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var history []domain.ConversationMessage
	for rows.Next() {
		var (
			msg  domain.ConversationMessage
			role string
		)
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		history = append(history, msg)
	}
	return history, rows.Err()
}

// Append adds a message and trims the history to the newest maxLen entries.
func (c *conversationStore) Append(
	ctx context.Context, sessionID string, msg domain.ConversationMessage, maxLen int,
) error {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, now, now)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)
	`, sessionID, string(msg.Role), msg.Content, msg.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if maxLen > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM messages WHERE session_id = ? AND id NOT IN (
				SELECT id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
			)
		`, sessionID, sessionID, maxLen)
		if err != nil {
			return fmt.Errorf("trimming messages: %w", err)
		}
	}

	return tx.Commit()
}

// Delete discards the session and its messages.
func (c *conversationStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// ==================== Index Run Store ====================

// indexRunStore implements driven.IndexRunStore.
type indexRunStore struct {
	store *Store
}

var _ driven.IndexRunStore = (*indexRunStore)(nil)

// Record stores a completed run.
func (r *indexRunStore) Record(ctx context.Context, run domain.IndexRun) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO index_runs
			(id, started_at, finished_at, entity_count, indexed_count, total_fragments, upserted, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			indexed_count = excluded.indexed_count,
			total_fragments = excluded.total_fragments,
			upserted = excluded.upserted,
			success = excluded.success,
			error = excluded.error
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.EntityCount, run.IndexedCount,
		run.TotalFragments, run.Upserted, boolToInt(run.Success), run.Error)
	if err != nil {
		return fmt.Errorf("inserting index run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *indexRunStore) Recent(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, entity_count, indexed_count, total_fragments, upserted, success, error
		FROM index_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IndexRun
	for rows.Next() {
		var (
			run     domain.IndexRun
			success int
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.EntityCount, &run.IndexedCount,
			&run.TotalFragments, &run.Upserted, &success, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning index run: %w", err)
		}
		run.Success = success != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
