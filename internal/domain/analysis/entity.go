package analysis

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the fence tag used when a request does not name one.
const DefaultLanguage = "python"

// Request is the code submitted for one pipeline run.
type Request struct {
	Code     string
	Language string
}

// FenceLanguage returns the language tag for the code block in prompts.
func (r Request) FenceLanguage() string {
	if l := strings.TrimSpace(r.Language); l != "" {
		return l
	}
	return DefaultLanguage
}

// StageResult is the accepted output of one stage.
type StageResult struct {
	Stage Stage
	Text  string
}

// State accumulates stage results of a single run. Results are kept in
// stage order and only the next stage in sequence may be appended.
type State struct {
	results []StageResult
}

// Append records the output of the next stage.
func (s *State) Append(stage Stage, text string) error {
	next, ok := s.Next()
	if !ok {
		return fmt.Errorf("pipeline already complete, cannot append %s", stage)
	}
	if stage != next {
		return fmt.Errorf("out of order stage %s, expected %s", stage, next)
	}
	s.results = append(s.results, StageResult{Stage: stage, Text: text})
	return nil
}

// Next returns the stage that has to run next.
func (s *State) Next() (Stage, bool) {
	if len(s.results) >= len(stageOrder) {
		return "", false
	}
	return stageOrder[len(s.results)], true
}

// Output returns the text recorded for stage.
func (s *State) Output(stage Stage) (string, bool) {
	for _, r := range s.results {
		if r.Stage == stage {
			return r.Text, true
		}
	}
	return "", false
}

// Results returns a copy of the recorded results in order.
func (s *State) Results() []StageResult {
	out := make([]StageResult, len(s.results))
	copy(out, s.results)
	return out
}

// Len returns the number of completed stages.
func (s *State) Len() int { return len(s.results) }
