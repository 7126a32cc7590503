package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a pooled Postgres handle, pings it and creates the schema.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS code_analyses (
  id           TEXT        PRIMARY KEY,
  tenant_id    TEXT        NOT NULL,
  language     TEXT        NOT NULL DEFAULT '',
  code_sha256  TEXT        NOT NULL,
  status       TEXT        NOT NULL,
  failed_stage TEXT        NOT NULL DEFAULT '',
  error_text   TEXT        NOT NULL DEFAULT '',
  report       TEXT        NOT NULL DEFAULT '',
  report_url   TEXT        NOT NULL DEFAULT '',
  duration_ms  BIGINT      NOT NULL DEFAULT 0,
  created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_code_analyses_tenant_created ON code_analyses (tenant_id, created_at DESC);
`

// EnsureSchema creates the analyses table when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
