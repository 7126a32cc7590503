// Package cli implements the codelens command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/codelens/internal/config"
	"github.com/bryanwahyu/codelens/internal/domain/ai"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitStageFailure = 1
	ExitUsageError   = 2
)

// App carries the process streams so commands can run against buffers.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewGateway overrides the model client; nil uses the configured
	// chat-completions endpoint.
	NewGateway func(cfg *config.Config, logger *slog.Logger) ai.Gateway
}

// Run executes the command line against the process streams and returns an
// exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app := &App{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	return app.Run(ctx, args)
}

// Run executes one command line.
func (a *App) Run(ctx context.Context, args []string) int {
	exitCode := ExitSuccess
	root := &cobra.Command{
		Use:           "codelens",
		Short:         "Staged LLM code analysis",
		Long:          "codelens explains and reviews source code in four stages: structure, explanations, technical review and professional review.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(args)
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	root.AddCommand(a.analyzeCmd(&exitCode))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print codelens version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codelens version %s\n", version)
		},
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsageError
	}
	return exitCode
}
