package analysis

import "strings"

// ChunkSeparator is placed between rendered chunks.
const ChunkSeparator = "\n\n"

// Chunk is one unit of pipeline output. A failed chunk carries Err and is
// always the last chunk of its run. Its Text, when set, is the reader facing
// description of Err.
type Chunk struct {
	Stage Stage
	Label string
	Text  string
	Err   error
}

// Failed reports whether the chunk reports a stage failure.
func (c Chunk) Failed() bool { return c.Err != nil }

// Render formats the chunk as markdown.
func (c Chunk) Render() string {
	if c.Failed() {
		msg := c.Text
		if msg == "" {
			msg = c.Err.Error()
		}
		return c.Label + ": " + msg
	}
	return "**" + c.Label + ":**\n" + c.Text
}

// Join renders chunks into one report.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString(ChunkSeparator)
		}
		b.WriteString(c.Render())
	}
	return b.String()
}
