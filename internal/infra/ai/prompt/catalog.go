package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bryanwahyu/codelens/internal/domain/ai"
	"github.com/bryanwahyu/codelens/internal/domain/analysis"
)

const DefaultLocale = "de"

// stageText holds the locale specific wording of one stage.
type stageText struct {
	label        string // heading of the success chunk
	failureLabel string // prefix of the failure chunk
	priorHeading string // heading used when later stages quote this stage
	task         string
}

// Catalog carries the prompt wording for one locale.
type Catalog struct {
	locale      string
	system      string
	codeHeading string
	modelError  string
	stages      map[analysis.Stage]stageText
}

var catalogs = map[string]Catalog{
	"de": german,
	"en": english,
}

// Locales lists the supported catalog locales.
func Locales() []string {
	out := make([]string, 0, len(catalogs))
	for l := range catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// ForLocale returns the catalog for locale; empty means DefaultLocale.
func ForLocale(locale string) (Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	c, ok := catalogs[strings.ToLower(locale)]
	if !ok {
		return Catalog{}, fmt.Errorf("unsupported locale %q (supported: %s)", locale, strings.Join(Locales(), ", "))
	}
	return c, nil
}

func (c Catalog) Locale() string { return c.locale }

// SystemPrompt is the fixed expert persona sent with every stage.
func (c Catalog) SystemPrompt() string { return c.system }

// Label is the heading of a successful stage chunk.
func (c Catalog) Label(stage analysis.Stage) string { return c.stages[stage].label }

// FailureLabel prefixes the failure chunk of a stage.
func (c Catalog) FailureLabel(stage analysis.Stage) string { return c.stages[stage].failureLabel }

// FailureText describes a failed stage in the catalog language. Model call
// failures get the localized prefix, anything else is passed through.
func (c Catalog) FailureText(err error) string {
	var gerr *ai.GatewayError
	if !errors.As(err, &gerr) {
		return err.Error()
	}
	if gerr.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %v", c.modelError, gerr.StatusCode, gerr.Err)
	}
	return fmt.Sprintf("%s: %v", c.modelError, gerr.Err)
}

// UserPrompt builds the user message for stage: the outputs of all earlier
// stages, the stage task and the code as a fenced block.
func (c Catalog) UserPrompt(stage analysis.Stage, state *analysis.State, req analysis.Request) string {
	var b strings.Builder
	if state != nil && state.Len() > 0 {
		for _, prior := range analysis.Stages() {
			if prior.Index() >= stage.Index() {
				break
			}
			text, ok := state.Output(prior)
			if !ok {
				continue
			}
			b.WriteString(c.stages[prior].priorHeading)
			b.WriteString(":\n")
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	b.WriteString(c.stages[stage].task)
	b.WriteString("\n\n")
	b.WriteString(c.codeHeading)
	b.WriteString("\n```")
	b.WriteString(req.FenceLanguage())
	b.WriteString("\n")
	b.WriteString(req.Code)
	b.WriteString("\n```")
	return b.String()
}
