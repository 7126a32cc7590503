package mysql

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS code_analyses (
  id           VARCHAR(36)  NOT NULL PRIMARY KEY,
  tenant_id    VARCHAR(64)  NOT NULL,
  language     VARCHAR(32)  NOT NULL DEFAULT '',
  code_sha256  CHAR(64)     NOT NULL,
  status       VARCHAR(16)  NOT NULL,
  failed_stage VARCHAR(32)  NOT NULL DEFAULT '',
  error_text   TEXT         NOT NULL,
  report       MEDIUMTEXT   NOT NULL,
  report_url   VARCHAR(512) NOT NULL DEFAULT '',
  duration_ms  BIGINT       NOT NULL DEFAULT 0,
  created_at   DATETIME(3)  NOT NULL,
  KEY idx_code_analyses_tenant_created (tenant_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// EnsureSchema creates the analyses table when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
