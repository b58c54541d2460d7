package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sync_payloads (
	token      TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore is the default backend: a single self-contained database
// file next to the service.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLite opens (and if needed initializes) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; keep the pool at a single connection.
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) SavePayload(ctx context.Context, token string, payload []byte) error {
	query := `
		INSERT INTO sync_payloads (token, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	_, err := s.conn.ExecContext(ctx, query, token, payload, now, now)
	return err
}

func (s *SQLiteStore) GetPayload(ctx context.Context, token string) (*Record, error) {
	query := `
		SELECT token, payload, created_at, updated_at
		FROM sync_payloads
		WHERE token = ?
	`
	var rec Record
	err := s.conn.QueryRowContext(ctx, query, token).Scan(&rec.Token, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
