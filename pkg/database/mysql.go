package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS sync_payloads (
	token      VARCHAR(64) PRIMARY KEY,
	payload    MEDIUMBLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// MySQLStore is the shared-database backend for multi-instance
// deployments.
type MySQLStore struct {
	conn *sql.DB
}

// NewMySQL connects to the given DSN and ensures the schema exists.
func NewMySQL(dsn string) (*MySQLStore, error) {
	conn, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, mysqlSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &MySQLStore{conn: conn}, nil
}

func (s *MySQLStore) SavePayload(ctx context.Context, token string, payload []byte) error {
	query := `
		INSERT INTO sync_payloads (token, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			created_at = VALUES(created_at),
			updated_at = VALUES(updated_at)
	`
	now := time.Now().UTC()
	_, err := s.conn.ExecContext(ctx, query, token, payload, now, now)
	return err
}

func (s *MySQLStore) GetPayload(ctx context.Context, token string) (*Record, error) {
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

func (s *MySQLStore) Close() error {
	return s.conn.Close()
}
