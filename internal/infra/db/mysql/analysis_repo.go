package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const selectAnalysis = `
SELECT id, tenant_id, language, code_sha256, status, failed_stage, error_text,
	   report, report_url, duration_ms, created_at
FROM code_analyses
`

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO code_analyses
  (id, tenant_id, language, code_sha256, status, failed_stage, error_text,
   report, report_url, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), failed_stage=VALUES(failed_stage), error_text=VALUES(error_text),
  report=VALUES(report), report_url=VALUES(report_url), duration_ms=VALUES(duration_ms);
`
	// Ensure non-nullable fields have safe defaults
	tenant := stringOrDash(a.TenantID)
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, tenant, a.Language, a.CodeSHA256, a.Status, a.FailedStage, a.Error,
		a.Report, a.ReportURL, a.DurationMS, createdAt,
	)
	return err
}

// Get returns one analysis or domain.ErrNotFound
func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalysis+`WHERE tenant_id=? AND id=? LIMIT 1;`, tenant, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func whereClause(tenant string, filter domain.Filter) (string, []any) {
	where := "WHERE tenant_id=?"
	args := []any{tenant}
	if filter.Status != "" {
		where += " AND status=?"
		args = append(args, filter.Status)
	}
	if filter.Language != "" {
		where += " AND language=?"
		args = append(args, filter.Language)
	}
	return where, args
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filter domain.Filter) (domain.PaginatedResult, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	where, args := whereClause(tenant, filter)

	// Get total count for pagination
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM code_analyses "+where, args...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting analyses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		selectAnalysis+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(slices.Clip(args), pageSize, (page-1)*pageSize)...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}
	return domain.NewPaginatedResult(out, page, pageSize, total), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var created time.Time
	if err := row.Scan(&a.ID, &a.TenantID, &a.Language, &a.CodeSHA256, &a.Status, &a.FailedStage, &a.Error,
		&a.Report, &a.ReportURL, &a.DurationMS, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = created.UTC()
	return &a, nil
}
