package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	out, err := HTML("**Code-Struktur:**\n- Klassen: keine\n- Funktionen: f\n\n| Name | Typ |\n|---|---|\n| x | int |\n")
	require.NoError(t, err)

	assert.Contains(t, out, "<strong>Code-Struktur:</strong>")
	assert.Contains(t, out, "<li>Funktionen: f</li>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>int</td>")
}

func TestHTMLEscapesRawHTML(t *testing.T) {
	out, err := HTML("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestPage(t *testing.T) {
	out, err := Page("Analysis <a-1>", "**Technische Analyse:**\nok")
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<!DOCTYPE html>")
	assert.Contains(t, s, "<title>Analysis &lt;a-1&gt;</title>")
	assert.Contains(t, s, "<strong>Technische Analyse:</strong>")
}
