package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/codelens/internal/application/analysis"
	domai "github.com/bryanwahyu/codelens/internal/domain/ai"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
	"github.com/bryanwahyu/codelens/internal/middleware"
	"github.com/bryanwahyu/codelens/internal/report"
)

// maxBodyBytes leaves room for JSON escaping around MaxCodeBytes of code.
const maxBodyBytes = 4 * middleware.MaxCodeBytes

// Options configures the cross-cutting parts of the router.
type Options struct {
	AllowedOrigins []string
	APIKeys        map[string]string // tenant -> key; empty disables auth
	Limiter        *middleware.RateLimiter
	Checkers       map[string]middleware.HealthChecker
	Logger         *slog.Logger
}

type Router struct {
	svc    *appanalysis.Service
	logger *slog.Logger
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{svc: svc, logger: logger.With("component", "router")}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Analysis-ID"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/html", r.wrap(r.handleHTML))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks errors caused by the client's input.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br):
			http.Error(w, br.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// analyzeRequest is the body of POST /v1/{tenant}/analyze. model_id,
// messages and body are accepted for chat-pipeline clients and ignored.
type analyzeRequest struct {
	Code        string          `json:"code"`
	UserMessage string          `json:"user_message"`
	Language    string          `json:"language"`
	ModelID     string          `json:"model_id"`
	Messages    json.RawMessage `json:"messages"`
	Body        json.RawMessage `json:"body"`
}

type analyzeResponse struct {
	ID          domain.AnalysisID `json:"id"`
	Status      domain.Status     `json:"status"`
	FailedStage domain.Stage      `json:"failed_stage,omitempty"`
	Report      string            `json:"report"`
}

func decodeAnalyze(w http.ResponseWriter, req *http.Request) (domain.Request, bool, error) {
	var body analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&body); err != nil {
		return domain.Request{}, false, badRequest{fmt.Errorf("decode body: %w", err)}
	}
	code := body.Code
	if code == "" {
		code = body.UserMessage
	}
	if err := middleware.ValidateCode(code); err != nil {
		return domain.Request{}, false, badRequest{err}
	}
	lang := middleware.SanitizeString(body.Language)
	if err := middleware.ValidateLanguage(lang); err != nil {
		return domain.Request{}, false, badRequest{err}
	}

	stream := true
	if v := req.URL.Query().Get("stream"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Request{}, false, badRequest{fmt.Errorf("invalid stream parameter %q", v)}
		}
		stream = b
	}
	return domain.Request{Code: code, Language: lang}, stream, nil
}

// POST /v1/{tenant}/analyze?stream=true|false
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	areq, stream, err := decodeAnalyze(w, req)
	if err != nil {
		return err
	}
	if stream {
		r.streamAnalysis(w, req, tenant, areq)
		return nil
	}

	var last domain.Chunk
	keepLast := func(c domain.Chunk) error {
		last = c
		return nil
	}

	middleware.AnalysisStarted()
	a, err := r.svc.AnalyzeWithID(req.Context(), tenant, appanalysis.NewID(), areq, keepLast)
	failed := ""
	if a != nil {
		failed = string(a.FailedStage)
	}
	middleware.AnalysisFinished(failed)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if last.Failed() && errors.Is(last.Err, domai.ErrQuotaExceeded) {
		status = http.StatusTooManyRequests
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(analyzeResponse{
		ID:          a.ID,
		Status:      a.Status,
		FailedStage: a.FailedStage,
		Report:      a.Report,
	})
}

// streamAnalysis writes each chunk as soon as its stage finishes. Once the
// first byte is out the status is fixed, so later errors are only logged.
func (r *Router) streamAnalysis(w http.ResponseWriter, req *http.Request, tenant string, areq domain.Request) {
	id := appanalysis.NewID()
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("X-Analysis-ID", string(id))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	first := true
	emit := func(c domain.Chunk) error {
		text := c.Render()
		if !first {
			text = domain.ChunkSeparator + text
		}
		first = false
		if _, err := w.Write([]byte(text)); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}

	middleware.AnalysisStarted()
	a, err := r.svc.AnalyzeWithID(req.Context(), tenant, id, areq, emit)
	failed := ""
	if a != nil {
		failed = string(a.FailedStage)
	}
	middleware.AnalysisFinished(failed)
	if err != nil {
		r.logger.Warn("streamed analysis not stored", "analysis_id", id, "tenant", tenant, "error", err)
	}
}

// GET /v1/{tenant}/analyses?page=&page_size=&status=&language=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	filter := domain.Filter{
		Status:   domain.Status(q.Get("status")),
		Language: middleware.SanitizeString(q.Get("language")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return badRequest{fmt.Errorf("invalid status %q", filter.Status)}
	}
	if err := middleware.ValidateLanguage(filter.Language); err != nil {
		return badRequest{err}
	}

	result, err := r.svc.ListAnalyses(req.Context(), tenant, middleware.ValidatePage(page), middleware.ValidateLimit(size), filter)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

func (r *Router) lookup(req *http.Request) (*domain.Analysis, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return nil, badRequest{err}
	}
	return r.svc.Get(req.Context(), chi.URLParam(req, "tenant"), domain.AnalysisID(id))
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	a, err := r.lookup(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// GET /v1/{tenant}/analyses/{id}/html
func (r *Router) handleHTML(w http.ResponseWriter, req *http.Request) error {
	a, err := r.lookup(req)
	if err != nil {
		return err
	}
	page, err := report.Page("Analysis "+string(a.ID), a.Report)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(page)
	return err
}
