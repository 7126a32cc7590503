package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
)

func newRepo(t *testing.T) *AnalysisRepository {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db)
}

func sample(id string, tenant string, at time.Time) *domain.Analysis {
	return &domain.Analysis{
		ID:         domain.AnalysisID(id),
		TenantID:   tenant,
		Language:   "python",
		CodeSHA256: "abc123",
		Status:     domain.StatusCompleted,
		Report:     "**Code-Struktur:**\nClasses: none",
		DurationMS: 42,
		CreatedAt:  at,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 4, 24, 12, 30, 0, 123000000, time.UTC)

	a := sample("a-1", "acme", at)
	a.Status = domain.StatusFailed
	a.FailedStage = domain.StageTechReview
	a.Error = "model call failed: boom"
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.Get(ctx, "acme", "a-1")
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestGetNotFound(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sample("a-1", "acme", time.Now())))

	_, err := repo.Get(ctx, "other-tenant", "a-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Get(ctx, "acme", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveUpserts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	a := sample("a-1", "acme", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, a))

	a.ReportURL = "http://minio/acme/a-1.md"
	a.DurationMS = 99
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.Get(ctx, "acme", "a-1")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/acme/a-1.md", got.ReportURL)
	assert.Equal(t, int64(99), got.DurationMS)
}

func TestPaginate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, sample(fmt.Sprintf("a-%d", i), "acme", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Save(ctx, sample("b-1", "other", base)))

	first, err := repo.Paginate(ctx, "acme", 1, 2, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, first.Data, 2)
	assert.Equal(t, domain.AnalysisID("a-4"), first.Data[0].ID)
	assert.Equal(t, domain.AnalysisID("a-3"), first.Data[1].ID)
	assert.Equal(t, int64(5), first.Total)
	assert.Equal(t, 3, first.TotalPages)

	last, err := repo.Paginate(ctx, "acme", 3, 2, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	assert.Equal(t, domain.AnalysisID("a-0"), last.Data[0].ID)

	all, err := repo.Paginate(ctx, "acme", 0, 0, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all.Data, 5)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 20, all.PageSize)

	none, err := repo.Paginate(ctx, "nobody", 1, 10, domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, none.Data)
	assert.Equal(t, int64(0), none.Total)
}

func TestPaginateFilter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ok := sample("ok", "acme", base)
	bad := sample("bad", "acme", base.Add(time.Minute))
	bad.Status = domain.StatusFailed
	bad.FailedStage = domain.StageExplain
	goCode := sample("go", "acme", base.Add(2*time.Minute))
	goCode.Language = "go"
	for _, a := range []*domain.Analysis{ok, bad, goCode} {
		require.NoError(t, repo.Save(ctx, a))
	}

	failed, err := repo.Paginate(ctx, "acme", 1, 10, domain.Filter{Status: domain.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed.Data, 1)
	assert.Equal(t, domain.AnalysisID("bad"), failed.Data[0].ID)
	assert.Equal(t, int64(1), failed.Total)

	goOnly, err := repo.Paginate(ctx, "acme", 1, 10, domain.Filter{Language: "go"})
	require.NoError(t, err)
	require.Len(t, goOnly.Data, 1)
	assert.Equal(t, domain.AnalysisID("go"), goOnly.Data[0].ID)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "codelens.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisRepository(db)
	require.NoError(t, repo.Save(context.Background(), sample("a-1", "acme", time.Now())))
	_, err = repo.Get(context.Background(), "acme", "a-1")
	assert.NoError(t, err)
}
