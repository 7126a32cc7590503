package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appanalysis "github.com/bryanwahyu/codelens/internal/application/analysis"
	"github.com/bryanwahyu/codelens/internal/config"
	"github.com/bryanwahyu/codelens/internal/domain/ai"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
	"github.com/bryanwahyu/codelens/internal/infra/ai/openai"
	"github.com/bryanwahyu/codelens/internal/infra/ai/prompt"
	"github.com/bryanwahyu/codelens/internal/logger"
)

type analyzeFlags struct {
	lang        string
	locale      string
	configPath  string
	concurrency int
	redact      bool
	noColor     bool
}

// source is one unit of code to analyze.
type source struct {
	name string
	req  domain.Request
}

var (
	labelColor   = color.New(color.FgCyan, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgGreen)
)

func (a *App) analyzeCmd(exitCode *int) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze source files (use - for stdin)",
		Long: `Analyze runs the four analysis stages over each file.

A single file is streamed stage by stage as results arrive. Several files are
analyzed concurrently and their reports are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if f.noColor {
				color.NoColor = true
			}
			cfg, err := loadConfig(f.configPath)
			if err != nil {
				return err
			}
			if f.locale != "" {
				cfg.LLM.Locale = f.locale
			}
			if cmd.Flags().Changed("redact") {
				cfg.LLM.RedactSecrets = f.redact
			}
			catalog, err := prompt.ForLocale(cfg.LLM.Locale)
			if err != nil {
				return err
			}

			sources, err := a.readSources(args, f.lang)
			if err != nil {
				return err
			}
			if cfg.LLM.RedactSecrets {
				for i := range sources {
					var hits []string
					sources[i].req.Code, hits = prompt.RedactSecrets(sources[i].req.Code)
					if len(hits) > 0 {
						fmt.Fprintf(a.Stderr, "%s: redacted %s\n", sources[i].name, strings.Join(hits, ", "))
					}
				}
			}

			log := logger.SetupWriter(a.Stderr, cfg.Log.Level, cfg.Log.Format)
			pipeline := appanalysis.NewPipeline(a.gateway(cfg, log), catalog, log)

			var failed bool
			if len(sources) == 1 {
				failed, err = a.streamOne(cmd.Context(), pipeline, sources[0])
			} else {
				failed, err = a.analyzeMany(cmd.Context(), pipeline, sources, f.concurrency)
			}
			if err != nil {
				return err
			}
			if failed {
				*exitCode = ExitStageFailure
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.lang, "lang", "", "Language tag for the code fence (default: from file extension, else python)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "Prompt and label language (de, en)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default: $CONFIG_PATH or config.yaml when present)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 4, "Files analyzed at the same time")
	cmd.Flags().BoolVar(&f.redact, "redact", false, "Mask secrets before sending code to the model")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	return cmd
}

// loadConfig reads an explicit config path strictly; the implicit one is
// optional.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path = os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return config.LoadOptional(path)
}

func (a *App) gateway(cfg *config.Config, log *slog.Logger) ai.Gateway {
	if a.NewGateway != nil {
		return a.NewGateway(cfg, log)
	}
	return openai.NewClient(openai.Config{
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Endpoint:  cfg.LLM.Endpoint,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	}, log)
}

func (a *App) readSources(args []string, lang string) ([]source, error) {
	sources := make([]source, 0, len(args))
	stdinUsed := false
	for _, arg := range args {
		var (
			data []byte
			err  error
		)
		if arg == "-" {
			if stdinUsed {
				return nil, errors.New("stdin (-) can only be given once")
			}
			stdinUsed = true
			data, err = io.ReadAll(a.Stdin)
		} else {
			data, err = os.ReadFile(arg)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%s: no code to analyze", arg)
		}
		l := lang
		if l == "" {
			l = languageFor(arg)
		}
		sources = append(sources, source{name: arg, req: domain.Request{Code: string(data), Language: l}})
	}
	return sources, nil
}

var extLanguages = map[string]string{
	".py":    "python",
	".go":    "go",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "tsx",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".php":   "php",
	".sh":    "bash",
	".swift": "swift",
	".sql":   "sql",
}

// languageFor maps a file name to a fence tag; unknown extensions get the
// request default.
func languageFor(name string) string {
	return extLanguages[strings.ToLower(filepath.Ext(name))]
}

// writeChunk prints one chunk with a colored label.
func writeChunk(w io.Writer, c domain.Chunk) error {
	var err error
	if c.Failed() {
		_, err = failureColor.Fprint(w, c.Render())
	} else {
		_, err = fmt.Fprintf(w, "%s\n%s", labelColor.Sprintf("**%s:**", c.Label), c.Text)
	}
	return err
}

func writeChunks(w io.Writer, chunks []domain.Chunk) (failed bool, err error) {
	for i, c := range chunks {
		if i > 0 {
			if _, err := io.WriteString(w, domain.ChunkSeparator); err != nil {
				return false, err
			}
		}
		if err := writeChunk(w, c); err != nil {
			return false, err
		}
		failed = c.Failed()
	}
	_, err = io.WriteString(w, "\n")
	return failed, err
}

// streamOne prints each stage as soon as it completes.
func (a *App) streamOne(ctx context.Context, p *appanalysis.Pipeline, src source) (failed bool, err error) {
	first := true
	for c := range p.Stream(ctx, src.req) {
		if !first {
			if _, err := io.WriteString(a.Stdout, domain.ChunkSeparator); err != nil {
				return false, err
			}
		}
		first = false
		if err := writeChunk(a.Stdout, c); err != nil {
			return false, err
		}
		failed = c.Failed()
	}
	_, err = io.WriteString(a.Stdout, "\n")
	return failed, err
}

// analyzeMany runs up to limit pipelines at once and prints the reports in
// input order once all are done.
func (a *App) analyzeMany(ctx context.Context, p *appanalysis.Pipeline, sources []source, limit int) (bool, error) {
	results := make([][]domain.Chunk, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = p.Collect(gCtx, src.req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	anyFailed := false
	for i, src := range sources {
		if i > 0 {
			if _, err := io.WriteString(a.Stdout, "\n"); err != nil {
				return false, err
			}
		}
		if _, err := headerColor.Fprintf(a.Stdout, "==> %s <==\n", src.name); err != nil {
			return false, err
		}
		failed, err := writeChunks(a.Stdout, results[i])
		if err != nil {
			return false, err
		}
		anyFailed = anyFailed || failed
	}
	return anyFailed, nil
}
