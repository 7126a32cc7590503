package postgres

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

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO code_analyses
  (id, tenant_id, language, code_sha256, status, failed_stage, error_text,
   report, report_url, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  failed_stage=EXCLUDED.failed_stage,
  error_text=EXCLUDED.error_text,
  report=EXCLUDED.report,
  report_url=EXCLUDED.report_url,
  duration_ms=EXCLUDED.duration_ms;
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.TenantID), a.Language, a.CodeSHA256, a.Status, a.FailedStage, a.Error,
		a.Report, a.ReportURL, a.DurationMS, createdAt,
	)
	return err
}

// Get returns one analysis or domain.ErrNotFound
func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalysis+`WHERE tenant_id=$1 AND id=$2 LIMIT 1;`, tenant, id)
	var a domain.Analysis
	var created time.Time
	err := row.Scan(&a.ID, &a.TenantID, &a.Language, &a.CodeSHA256, &a.Status, &a.FailedStage, &a.Error,
		&a.Report, &a.ReportURL, &a.DurationMS, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = created.UTC()
	return &a, nil
}

// listQuery is the count and page statement pair of one Paginate call.
type listQuery struct {
	countSQL  string
	countArgs []any
	pageSQL   string
	pageArgs  []any
}

// buildListQuery numbers the placeholders in argument order: tenant first,
// then the optional filters, then LIMIT and OFFSET.
func buildListQuery(tenant string, filter domain.Filter, limit, offset int) listQuery {
	where := "WHERE tenant_id=$1"
	args := []any{tenant}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.Language != "" {
		args = append(args, filter.Language)
		where += fmt.Sprintf(" AND language=$%d", len(args))
	}
	limitAt := len(args) + 1
	return listQuery{
		countSQL:  "SELECT COUNT(*) FROM code_analyses " + where,
		countArgs: args,
		pageSQL:   selectAnalysis + where + fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", limitAt, limitAt+1),
		pageArgs:  append(slices.Clip(args), limit, offset),
	}
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filter domain.Filter) (domain.PaginatedResult, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	q := buildListQuery(tenant, filter, pageSize, (page-1)*pageSize)

	var total int64
	if err := r.db.QueryRowContext(ctx, q.countSQL, q.countArgs...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting analyses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, q.pageSQL, q.pageArgs...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		var created time.Time
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Language, &a.CodeSHA256, &a.Status, &a.FailedStage, &a.Error,
			&a.Report, &a.ReportURL, &a.DurationMS, &created); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		a.CreatedAt = created.UTC()
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}
	return domain.NewPaginatedResult(out, page, pageSize, total), nil
}
