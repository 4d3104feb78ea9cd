package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/chunk"
	"github.com/gaurav-prasanna/vocabpipe/core/normalize"
)

// MarkdownRenderer writes one section per sheet and one entry per card,
// with the image inlined as a data URI. Cards are assembled as HTML and
// converted by the normalizer.
type MarkdownRenderer struct {
	normalizer *normalize.MarkdownNormalizer
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{normalizer: normalize.New()}
}

// Render converts cards into Markdown.
func (r *MarkdownRenderer) Render(cards []core.VisualFlashcard, layout core.Layout) ([]byte, error) {
	layout = withDefaults(layout)
	var b strings.Builder
	b.WriteString("<h1>Flashcards</h1>")
	for n, sheet := range chunk.Chunk(chunk.New(layout.Rows, layout.Columns), cards) {
		fmt.Fprintf(&b, "<h2>Sheet %d</h2>", n+1)
		for _, c := range sheet {
			word := html.EscapeString(c.Word)
			fmt.Fprintf(&b, "<h3>%s</h3>", word)
			fmt.Fprintf(&b, `<p><img src="data:%s;base64,%s" alt="%s"></p>`,
				mimeType(c.Image), base64.StdEncoding.EncodeToString(c.Image), word)
			fmt.Fprintf(&b, "<p><strong>%s</strong></p>", html.EscapeString(c.Definition))
			fmt.Fprintf(&b, "<blockquote><p>%s</p></blockquote>", html.EscapeString(c.Example))
		}
	}

	md, err := r.normalizer.Normalize(b.String())
	if err != nil {
		return nil, err
	}
	return []byte(md + "\n"), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
