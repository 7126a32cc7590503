package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/codelens/internal/application"
	appanalysis "github.com/bryanwahyu/codelens/internal/application/analysis"
	"github.com/bryanwahyu/codelens/internal/domain/ai"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
	"github.com/bryanwahyu/codelens/internal/infra/ai/prompt"
	"github.com/bryanwahyu/codelens/internal/infra/db/sqlite"
	"github.com/bryanwahyu/codelens/internal/middleware"
)

// stubGateway answers "r<n>" for call n and fails from failAt on.
type stubGateway struct {
	mu     sync.Mutex
	calls  int
	failAt int
	err    error
}

func (g *stubGateway) Invoke(context.Context, string, string) ai.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failAt > 0 && g.calls >= g.failAt {
		return ai.Failure(g.err)
	}
	return ai.Success(fmt.Sprintf("r%d", g.calls))
}

func newTestServer(t *testing.T, gw ai.Gateway, opts Options) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	catalog, err := prompt.ForLocale("de")
	require.NoError(t, err)
	svc := &appanalysis.Service{
		Pipeline: appanalysis.NewPipeline(gw, catalog, nil),
		Repo:     sqlite.NewAnalysisRepository(db),
		Clock:    application.SystemClock{},
	}
	if opts.Checkers == nil {
		opts.Checkers = map[string]middleware.HealthChecker{"database": &middleware.DatabaseHealthChecker{DB: db}}
	}
	srv := httptest.NewServer(NewRouter(svc, opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

const fullReport = "**Code-Struktur:**\nr1\n\n" +
	"**Erklärungen zu Variablen/Funktionen:**\nr2\n\n" +
	"**Technische Analyse:**\nr3\n\n" +
	"**Professionelle Analyse:**\nr4"

func TestAnalyzeStreams(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{})

	resp := post(t, srv.URL+"/v1/acme/analyze", `{"code":"def f(): pass","model_id":"m","messages":[],"body":{}}`, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	id := resp.Header.Get("X-Analysis-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, fullReport, readBody(t, resp))

	stored := get(t, srv.URL+"/v1/acme/analyses/"+id)
	require.Equal(t, http.StatusOK, stored.StatusCode)
	var a domain.Analysis
	require.NoError(t, json.NewDecoder(stored.Body).Decode(&a))
	assert.Equal(t, domain.StatusCompleted, a.Status)
	assert.Equal(t, fullReport, a.Report)
	assert.Equal(t, "python", a.Language)
}

// gatedGateway holds every call after the first until release is closed.
type gatedGateway struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (g *gatedGateway) Invoke(ctx context.Context, _, _ string) ai.Result {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if n > 1 {
		select {
		case <-g.release:
		case <-ctx.Done():
			return ai.Failure(ctx.Err())
		}
	}
	return ai.Success(fmt.Sprintf("r%d", n))
}

func TestAnalyzeStreamFlushesEachStage(t *testing.T) {
	gw := &gatedGateway{release: make(chan struct{})}
	srv := newTestServer(t, gw, Options{})

	resp := post(t, srv.URL+"/v1/acme/analyze", `{"code":"x = 1"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	first := "**Code-Struktur:**\nr1"
	buf := make([]byte, len(first))
	_, err := io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	assert.Equal(t, first, string(buf))

	close(gw.release)
	rest := readBody(t, resp)
	assert.Equal(t, fullReport, first+rest)
}

func TestAnalyzeStreamStopsAtFailure(t *testing.T) {
	srv := newTestServer(t, &stubGateway{failAt: 3, err: errors.New("boom")}, Options{})

	resp := post(t, srv.URL+"/v1/acme/analyze?stream=true", `{"user_message":"x = 1"}`, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"**Code-Struktur:**\nr1\n\n**Erklärungen zu Variablen/Funktionen:**\nr2\n\nTechnische Analyse fehlgeschlagen: boom",
		readBody(t, resp))
}

func TestAnalyzeBatch(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{})

	resp := post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"package main","language":"go"}`, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out analyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, domain.StatusCompleted, out.Status)
	assert.Empty(t, out.FailedStage)
	assert.Equal(t, fullReport, out.Report)
}

func TestAnalyzeBatchFailure(t *testing.T) {
	quota := &ai.GatewayError{StatusCode: http.StatusTooManyRequests, Err: errors.New("rate limited")}
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"plain failure", errors.New("boom"), http.StatusOK},
		{"quota", quota, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubGateway{failAt: 2, err: tt.err}, Options{})

			resp := post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"x"}`, nil)

			require.Equal(t, tt.status, resp.StatusCode)
			var out analyzeResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, domain.StatusFailed, out.Status)
			assert.Equal(t, domain.StageExplain, out.FailedStage)
			assert.Equal(t, "**Code-Struktur:**\nr1\n\nErklärung fehlgeschlagen: "+tt.err.Error(), out.Report)
		})
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{})
	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/v1/acme/analyze", `{"code":`},
		{"empty code", "/v1/acme/analyze", `{"code":"   "}`},
		{"bad language", "/v1/acme/analyze", `{"code":"x","language":"py thon"}`},
		{"bad stream flag", "/v1/acme/analyze?stream=maybe", `{"code":"x"}`},
		{"bad tenant", "/v1/acme.corp/analyze", `{"code":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAnalysesLookup(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{})
	resp := post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"x"}`, nil)
	var out analyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	t.Run("list", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/acme/analyses?page=1&page_size=10")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list domain.PaginatedResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.Len(t, list.Data, 1)
		assert.Equal(t, out.ID, list.Data[0].ID)
		assert.Equal(t, int64(1), list.Total)
		assert.Equal(t, 10, list.PageSize)
	})

	t.Run("status filter", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/acme/analyses?status=failed")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list domain.PaginatedResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Empty(t, list.Data)
		assert.Equal(t, int64(0), list.Total)

		resp = get(t, srv.URL+"/v1/acme/analyses?status=running")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/globex/analyses")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list domain.PaginatedResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Empty(t, list.Data)

		resp = get(t, srv.URL+"/v1/globex/analyses/"+string(out.ID))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("html", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/acme/analyses/"+string(out.ID)+"/html")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Contains(t, readBody(t, resp), "<strong>Professionelle Analyse:</strong>")
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/acme/analyses/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := get(t, srv.URL+"/v1/acme/analyses/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{APIKeys: map[string]string{"acme": "k-acme"}})

	resp := post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"x"}`, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv.URL+"/v1/globex/analyze?stream=false", `{"code":"x"}`, http.Header{"Authorization": {"Bearer k-acme"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = post(t, srv.URL+"/v1/acme/analyze?stream=false", `{"code":"x"}`, http.Header{"Authorization": {"Bearer k-acme"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/health").StatusCode)
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 0)
	t.Cleanup(limiter.Close)
	srv := newTestServer(t, &stubGateway{}, Options{Limiter: limiter})

	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/v1/acme/analyses").StatusCode)
	resp := get(t, srv.URL+"/v1/acme/analyses")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/livez").StatusCode)
}

func TestProbes(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, Options{})
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/readyz").StatusCode)

	down := newTestServer(t, &stubGateway{}, Options{Checkers: map[string]middleware.HealthChecker{
		"database": middleware.CheckFunc(func(context.Context) error { return errors.New("down") }),
	}})
	resp := get(t, down.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"message":"down"`)

	metrics := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, metrics.StatusCode)
	var m map[string]any
	require.NoError(t, json.NewDecoder(metrics.Body).Decode(&m))
	assert.Contains(t, m, "analyses_total")
	assert.Contains(t, m, "stage_failures")
}
