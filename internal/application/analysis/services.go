package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bryanwahyu/codelens/internal/application"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
)

// Redactor masks sensitive literals in code before it is sent to the model.
type Redactor func(code string) (string, []string)

// Service runs analyses and keeps a record of each run.
// Service is safe for concurrent use; every run owns its own pipeline state.
type Service struct {
	Pipeline *Pipeline
	Repo     domain.Repository
	Reports  domain.ReportStore // optional
	Clock    application.Clock
	Redact   Redactor // optional
	Logger   *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// NewID returns a fresh analysis id.
func NewID() domain.AnalysisID {
	return domain.AnalysisID(uuid.New().String())
}

// AnalyzeAndStore runs the pipeline, hands every chunk to emit as soon as it
// is produced and stores the finished run. If emit returns an error the run
// stops and nothing is stored.
func (s *Service) AnalyzeAndStore(ctx context.Context, tenant string, req domain.Request, emit func(domain.Chunk) error) (*domain.Analysis, error) {
	return s.AnalyzeWithID(ctx, tenant, NewID(), req, emit)
}

// AnalyzeWithID is AnalyzeAndStore for callers that must publish the id
// before the first chunk, such as streaming HTTP responses.
func (s *Service) AnalyzeWithID(ctx context.Context, tenant string, id domain.AnalysisID, req domain.Request, emit func(domain.Chunk) error) (*domain.Analysis, error) {
	start := s.Clock.Now()
	sum := sha256.Sum256([]byte(req.Code))
	log := s.logger().With("analysis_id", id, "tenant", tenant)

	runReq := req
	if s.Redact != nil {
		var hits []string
		runReq.Code, hits = s.Redact(req.Code)
		if len(hits) > 0 {
			log.Info("redacted secrets before analysis", "detectors", hits)
		}
	}

	var chunks []domain.Chunk
	for c := range s.Pipeline.Stream(ctx, runReq) {
		chunks = append(chunks, c)
		if emit == nil {
			continue
		}
		if err := emit(c); err != nil {
			log.Warn("analysis aborted by consumer", "stage", c.Stage, "error", err)
			return nil, fmt.Errorf("emit %s chunk: %w", c.Stage, err)
		}
	}

	a := &domain.Analysis{
		ID:         id,
		TenantID:   tenant,
		Language:   req.FenceLanguage(),
		CodeSHA256: hex.EncodeToString(sum[:]),
		Status:     domain.StatusCompleted,
		Report:     domain.Join(chunks),
		CreatedAt:  start,
	}
	if n := len(chunks); n > 0 && chunks[n-1].Failed() {
		a.Status = domain.StatusFailed
		a.FailedStage = chunks[n-1].Stage
		a.Error = chunks[n-1].Err.Error()
	}

	if s.Reports != nil {
		key := fmt.Sprintf("%s/%s.md", tenant, id)
		url, err := s.Reports.Put(ctx, key, []byte(a.Report), "text/markdown; charset=utf-8")
		if err != nil {
			log.Warn("report archive failed", "key", key, "error", err)
		} else {
			a.ReportURL = url
		}
	}

	a.DurationMS = s.Clock.Now().Sub(start).Milliseconds()
	if err := s.Repo.Save(ctx, a); err != nil {
		return a, fmt.Errorf("save analysis: %w", err)
	}
	log.Info("analysis stored", "status", a.Status, "failed_stage", a.FailedStage, "duration_ms", a.DurationMS)
	return a, nil
}

// ListAnalyses returns one page of the tenant's analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, tenant string, page, pageSize int, filter domain.Filter) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize, filter)
}

// Get returns one analysis.
func (s *Service) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, tenant, id)
}
