package ai

// Result is the outcome of one gateway call: either generated text or an error.
type Result struct {
	Text string
	Err  error
}

// Success wraps generated text.
func Success(text string) Result { return Result{Text: text} }

// Failure wraps a gateway error.
func Failure(err error) Result { return Result{Err: err} }

// Failed reports whether the call failed.
func (r Result) Failed() bool { return r.Err != nil }
