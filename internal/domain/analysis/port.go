package analysis

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("analysis not found")

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, tenant string, id AnalysisID) (*Analysis, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int, filter Filter) (PaginatedResult, error)
}

// ReportStore archives rendered reports and returns their URL.
type ReportStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
