// Package render provides output renderers for enriched flashcards.
// Every renderer takes the usable cards of a run plus the sheet layout and
// returns the bytes of one output document.
package render

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// Default sheet layout.
const (
	DefaultRows     = 6
	DefaultColumns  = 3
	DefaultFontSize = 14
)

// Format names accepted by New.
const (
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// New returns the renderer for format.
func New(format string) (core.Renderer, error) {
	switch strings.ToLower(format) {
	case FormatPDF, "":
		return NewPDFRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatYAML, "yml":
		return NewYAMLRenderer(), nil
	case FormatMarkdown, "md":
		return NewMarkdownRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (pdf, json, yaml, markdown)", format)
	}
}

// withDefaults fills unset layout fields.
func withDefaults(l core.Layout) core.Layout {
	if l.Rows <= 0 {
		l.Rows = DefaultRows
	}
	if l.Columns <= 0 {
		l.Columns = DefaultColumns
	}
	if l.FontSize <= 0 {
		l.FontSize = DefaultFontSize
	}
	return l
}

// mimeType sniffs the media type of image bytes, without parameters.
func mimeType(image []byte) string {
	t, _, _ := strings.Cut(http.DetectContentType(image), ";")
	return t
}
