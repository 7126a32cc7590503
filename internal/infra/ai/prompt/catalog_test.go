package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/codelens/internal/domain/ai"
	"github.com/bryanwahyu/codelens/internal/domain/analysis"
)

func TestForLocale(t *testing.T) {
	c, err := ForLocale("")
	require.NoError(t, err)
	assert.Equal(t, "de", c.Locale())

	c, err = ForLocale("EN")
	require.NoError(t, err)
	assert.Equal(t, "en", c.Locale())

	_, err = ForLocale("fr")
	assert.ErrorContains(t, err, "unsupported locale")
	assert.Equal(t, []string{"de", "en"}, Locales())
}

func TestCatalogsCoverEveryStage(t *testing.T) {
	for _, locale := range Locales() {
		c, err := ForLocale(locale)
		require.NoError(t, err)
		assert.NotEmpty(t, c.SystemPrompt(), locale)
		for _, st := range analysis.Stages() {
			assert.NotEmpty(t, c.Label(st), "%s %s", locale, st)
			assert.NotEmpty(t, c.FailureLabel(st), "%s %s", locale, st)
		}
	}
}

func TestGermanLabels(t *testing.T) {
	c, _ := ForLocale("de")
	assert.Equal(t, "Code-Struktur", c.Label(analysis.StageStructure))
	assert.Equal(t, "Strukturanalyse fehlgeschlagen", c.FailureLabel(analysis.StageStructure))
	assert.Equal(t, "Professionelle Analyse", c.Label(analysis.StageProfReview))
}

func TestFailureTextIsLocalized(t *testing.T) {
	de, _ := ForLocale("de")
	en, _ := ForLocale("en")
	refused := &ai.GatewayError{Err: errors.New("connection refused")}
	upstream := &ai.GatewayError{StatusCode: 502, Err: errors.New("bad gateway")}

	assert.Equal(t, "Fehler beim Aufruf des Modells: connection refused", de.FailureText(refused))
	assert.Equal(t, "Fehler beim Aufruf des Modells (HTTP 502): bad gateway", de.FailureText(upstream))
	assert.Equal(t, "model call failed (HTTP 502): bad gateway", en.FailureText(upstream))
	assert.Equal(t, "boom", de.FailureText(errors.New("boom")))
}

func TestUserPromptEmbedsCode(t *testing.T) {
	c, _ := ForLocale("en")
	req := analysis.Request{Code: "def f(): pass"}

	p := c.UserPrompt(analysis.StageStructure, &analysis.State{}, req)
	assert.True(t, strings.HasSuffix(p, "**Code:**\n```python\ndef f(): pass\n```"), p)
	assert.Contains(t, p, "classes, functions, global variables and significant imports")

	p = c.UserPrompt(analysis.StageStructure, nil, analysis.Request{Code: "x := 1", Language: "go"})
	assert.Contains(t, p, "```go\nx := 1\n```")
}

func TestUserPromptContainsEarlierStagesOnly(t *testing.T) {
	c, _ := ForLocale("de")
	req := analysis.Request{Code: "print(1)"}
	var st analysis.State
	require.NoError(t, st.Append(analysis.StageStructure, "STRUCT-OUT"))
	require.NoError(t, st.Append(analysis.StageExplain, "EXPLAIN-OUT"))

	explain := c.UserPrompt(analysis.StageExplain, &st, req)
	assert.Contains(t, explain, "Basiere auf der folgenden Code-Struktur:\nSTRUCT-OUT\n")
	assert.NotContains(t, explain, "EXPLAIN-OUT", "a stage never sees its own or later output")

	tech := c.UserPrompt(analysis.StageTechReview, &st, req)
	assert.Contains(t, tech, "STRUCT-OUT")
	assert.Contains(t, tech, "Erklärungen:\nEXPLAIN-OUT\n")
	assert.Less(t, strings.Index(tech, "STRUCT-OUT"), strings.Index(tech, "EXPLAIN-OUT"))
	assert.Contains(t, tech, "Sicherheitsaspekte")
}
