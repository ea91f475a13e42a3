package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
	_ "modernc.org/sqlite"
)

// SessionStorage persists the MTProto session artifact in a sqlite file so
// re-runs skip the interactive login. Single-row table; the blob is whatever
// gotd hands us.
type SessionStorage struct {
	db *sql.DB
}

var _ session.Storage = (*SessionStorage)(nil)

func NewSessionStorage(path string) (*SessionStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		data BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("could not migrate session table: %w", err)
	}

	return &SessionStorage{db: db}, nil
}

func (s *SessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM session WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

func (s *SessionStorage) StoreSession(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO session (id, data) VALUES (1, ?)", data)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStorage) Close() error {
	return s.db.Close()
}
