package ai

import "context"

// Gateway sends one system instruction and one user prompt to a chat model.
// Failures come back inside the Result, never as a panic.
type Gateway interface {
	Invoke(ctx context.Context, systemInstruction, userPrompt string) Result
}
