package analysis

import (
	"context"
	"iter"
	"log/slog"

	"github.com/bryanwahyu/codelens/internal/domain/ai"
	domain "github.com/bryanwahyu/codelens/internal/domain/analysis"
)

// Prompts supplies the wording of every stage.
type Prompts interface {
	SystemPrompt() string
	Label(stage domain.Stage) string
	FailureLabel(stage domain.Stage) string
	FailureText(err error) string
	UserPrompt(stage domain.Stage, state *domain.State, req domain.Request) string
}

// Pipeline runs the four analysis stages in order. Each stage prompt quotes
// the output of every earlier stage, so stages never run concurrently.
type Pipeline struct {
	gateway ai.Gateway
	prompts Prompts
	logger  *slog.Logger
}

func NewPipeline(gateway ai.Gateway, prompts Prompts, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gateway: gateway, prompts: prompts, logger: logger.With("component", "pipeline")}
}

// Stream returns the chunks of one run. A stage is only executed when the
// consumer asks for the next chunk, and breaking out of the loop ends the
// run. A failed stage yields one failure chunk and ends the sequence.
// Every iteration over the returned sequence starts a new run.
func (p *Pipeline) Stream(ctx context.Context, req domain.Request) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		var state domain.State
		for stage, ok := state.Next(); ok; stage, ok = state.Next() {
			userPrompt := p.prompts.UserPrompt(stage, &state, req)
			res := p.gateway.Invoke(ctx, p.prompts.SystemPrompt(), userPrompt)
			if res.Failed() {
				p.logger.Warn("stage failed", "stage", stage, "error", res.Err)
				yield(domain.Chunk{
					Stage: stage,
					Label: p.prompts.FailureLabel(stage),
					Text:  p.prompts.FailureText(res.Err),
					Err:   res.Err,
				})
				return
			}
			// stage is state.Next(), Append cannot reject it
			_ = state.Append(stage, res.Text)
			p.logger.Debug("stage done", "stage", stage, "completed", state.Len(), "bytes", len(res.Text))
			if !yield(domain.Chunk{Stage: stage, Label: p.prompts.Label(stage), Text: res.Text}) {
				return
			}
		}
	}
}

// Collect drains one run into a slice.
func (p *Pipeline) Collect(ctx context.Context, req domain.Request) []domain.Chunk {
	var chunks []domain.Chunk
	for c := range p.Stream(ctx, req) {
		chunks = append(chunks, c)
	}
	return chunks
}

// Report runs the pipeline and returns the whole report as one string.
func (p *Pipeline) Report(ctx context.Context, req domain.Request) string {
	return domain.Join(p.Collect(ctx, req))
}
