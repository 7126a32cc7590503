package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/codelens/internal/application"
	appanalysis "github.com/bryanwahyu/codelens/internal/application/analysis"
	"github.com/bryanwahyu/codelens/internal/config"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
	"github.com/bryanwahyu/codelens/internal/infra/ai/openai"
	"github.com/bryanwahyu/codelens/internal/infra/ai/prompt"
	mysqlp "github.com/bryanwahyu/codelens/internal/infra/db/mysql"
	"github.com/bryanwahyu/codelens/internal/infra/db/postgres"
	"github.com/bryanwahyu/codelens/internal/infra/db/sqlite"
	"github.com/bryanwahyu/codelens/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/codelens/internal/infra/storage"
	"github.com/bryanwahyu/codelens/internal/logger"
	"github.com/bryanwahyu/codelens/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.LoadOptional(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database ready", "driver", cfg.Database.Driver)

	svc := &appanalysis.Service{
		Repo:   repo,
		Clock:  application.SystemClock{},
		Logger: log.With("component", "analysis"),
	}

	// minio is optional; without it reports live only in the database
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Reports = store
		log.Info("report archive enabled", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.BucketName)
	}

	catalog, err := prompt.ForLocale(cfg.LLM.Locale)
	if err != nil {
		return err
	}
	gateway := openai.NewClient(openai.Config{
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Endpoint:  cfg.LLM.Endpoint,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	}, log)
	svc.Pipeline = appanalysis.NewPipeline(gateway, catalog, log)
	if cfg.LLM.RedactSecrets {
		svc.Redact = prompt.RedactSecrets
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Close()

	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIKeys:        cfg.Server.APIKeys,
		Limiter:        limiter,
		Checkers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
		Logger: log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // streamed analyses run four model calls
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "model", cfg.LLM.Model, "locale", catalog.Locale())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, mysqlp.NewAnalysisRepository(db), nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, postgres.NewAnalysisRepository(db), nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		return db, sqlite.NewAnalysisRepository(db), nil
	}
}
