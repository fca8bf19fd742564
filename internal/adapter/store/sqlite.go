package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"scout/internal/domain"
)

// timeLayout is fixed-width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements domain.ThreadStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath
// and runs the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create thread db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open thread db: %w", err)
	}
	// The PRAGMAs below are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate thread db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			thread_id  TEXT PRIMARY KEY,
			id         TEXT NOT NULL,
			messages   TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS threads_updated_at ON threads (updated_at);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*domain.ThreadSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT thread_id, id, messages, created_at, updated_at FROM threads WHERE thread_id = ?", threadID,
	)

	var snap domain.ThreadSnapshot
	var msgs, createdStr, updatedStr string
	if err := row.Scan(&snap.ThreadID, &snap.ID, &msgs, &createdStr, &updatedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewDomainError("SQLiteStore.Load", domain.ErrThreadNotFound, threadID)
		}
		return nil, storeError("SQLiteStore.Load", err)
	}
	if err := json.Unmarshal([]byte(msgs), &snap.Messages); err != nil {
		return nil, storeError("SQLiteStore.Load", fmt.Errorf("unmarshal messages: %w", err))
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return &snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *domain.ThreadSnapshot) error {
	if snap == nil || snap.ThreadID == "" {
		return domain.NewDomainError("SQLiteStore.Save", domain.ErrInvalidInput, "thread id is empty")
	}

	msgs := snap.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return storeError("SQLiteStore.Save", fmt.Errorf("marshal messages: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO threads (thread_id, id, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			id = excluded.id,
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		snap.ThreadID, snap.ID, string(data),
		snap.CreatedAt.UTC().Format(timeLayout),
		snap.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return storeError("SQLiteStore.Save", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE thread_id = ?", threadID)
	if err != nil {
		return storeError("SQLiteStore.Delete", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("SQLiteStore.Delete", domain.ErrThreadNotFound, threadID)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT thread_id FROM threads ORDER BY thread_id")
	if err != nil {
		return nil, storeError("SQLiteStore.List", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("SQLiteStore.List", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE updated_at < ?",
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, storeError("SQLiteStore.DeleteStale", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func storeError(op string, err error) error {
	return domain.WrapOp(op, fmt.Errorf("%w: %w", domain.ErrThreadStore, err))
}

var _ domain.ThreadStore = (*SQLiteStore)(nil)
