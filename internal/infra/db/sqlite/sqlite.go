// Package sqlite stores analyses in an embedded SQLite database
// (modernc.org/sqlite, no cgo). Used for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
)

// created_at is stored as fixed width UTC text so it sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS code_analyses (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT '',
	code_sha256  TEXT NOT NULL,
	status       TEXT NOT NULL,
	failed_stage TEXT NOT NULL DEFAULT '',
	error_text   TEXT NOT NULL DEFAULT '',
	report       TEXT NOT NULL DEFAULT '',
	report_url   TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_code_analyses_tenant_created ON code_analyses (tenant_id, created_at DESC);
`

// Open opens (or creates) the database at path. ":memory:" keeps it in memory.
// Parent directories are created if needed.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// AnalysisRepository implements analysis.Repository on SQLite.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO code_analyses
	(id, tenant_id, language, code_sha256, status, failed_stage, error_text,
	 report, report_url, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
	status=excluded.status,
	failed_stage=excluded.failed_stage,
	error_text=excluded.error_text,
	report=excluded.report,
	report_url=excluded.report_url,
	duration_ms=excluded.duration_ms`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(a.ID), a.TenantID, a.Language, a.CodeSHA256, string(a.Status), string(a.FailedStage), a.Error,
		a.Report, a.ReportURL, a.DurationMS, createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

const selectAnalysis = `
SELECT id, tenant_id, language, code_sha256, status, failed_stage, error_text,
	report, report_url, duration_ms, created_at
FROM code_analyses
`

func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalysis+`WHERE tenant_id = ? AND id = ?`, tenant, string(id))
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return a, nil
}

// whereClause builds the tenant + filter condition shared by the page and
// count queries.
func whereClause(tenant string, f domain.Filter) (string, []any) {
	where := "WHERE tenant_id = ?"
	args := []any{tenant}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Language != "" {
		where += " AND language = ?"
		args = append(args, f.Language)
	}
	return where, args
}

// Paginate returns one page ordered newest first.
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filter domain.Filter) (domain.PaginatedResult, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	where, args := whereClause(tenant, filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_analyses `+where, args...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting analyses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		selectAnalysis+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating analyses: %w", err)
	}
	return domain.NewPaginatedResult(out, page, pageSize, total), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var id, status, stage, ts string
	if err := row.Scan(&id, &a.TenantID, &a.Language, &a.CodeSHA256, &status, &stage, &a.Error,
		&a.Report, &a.ReportURL, &a.DurationMS, &ts); err != nil {
		return nil, err
	}
	created, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", ts, err)
	}
	a.ID = domain.AnalysisID(id)
	a.Status = domain.Status(status)
	a.FailedStage = domain.Stage(stage)
	a.CreatedAt = created
	return &a, nil
}
