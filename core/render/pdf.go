package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/chunk"
)

const (
	pageMargin  = 10.0 // mm
	cellPadding = 2.0
	ptToMM      = 0.3528
)

// gofpdf image types by sniffed media type.
var pdfImageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

// PDFRenderer lays cards out on printable sheets: a front page of images
// and words, then a back page of definitions and examples. Back pages are
// mirrored left to right so both sides line up when printed duplex.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts cards into PDF bytes.
func (r *PDFRenderer) Render(cards []core.VisualFlashcard, layout core.Layout) ([]byte, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("no cards to render")
	}
	layout = withDefaults(layout)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	g := grid{
		rows:    layout.Rows,
		columns: layout.Columns,
		cellW:   (pageW - 2*pageMargin) / float64(layout.Columns),
		cellH:   (pageH - 2*pageMargin) / float64(layout.Rows),
	}

	c := chunk.New(layout.Rows, layout.Columns)
	for _, sheet := range c.Sheets(len(cards)) {
		pdf.AddPage()
		for i := sheet[0]; i < sheet[1]; i++ {
			x, y := g.origin(i-sheet[0], false)
			g.frame(pdf, x, y)
			r.front(pdf, tr, g, x, y, i, cards[i], layout.FontSize)
		}

		pdf.AddPage()
		for i := sheet[0]; i < sheet[1]; i++ {
			x, y := g.origin(i-sheet[0], true)
			g.frame(pdf, x, y)
			r.back(pdf, tr, g, x, y, cards[i], layout.FontSize)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

type grid struct {
	rows, columns int
	cellW, cellH  float64
}

// origin returns the top-left corner of slot n.
func (g grid) origin(n int, mirrored bool) (float64, float64) {
	row, col := n/g.columns, n%g.columns
	if mirrored {
		col = g.columns - 1 - col
	}
	return pageMargin + float64(col)*g.cellW, pageMargin + float64(row)*g.cellH
}

// frame draws the cutting outline of a card.
func (g grid) frame(pdf *gofpdf.Fpdf, x, y float64) {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x, y, g.cellW, g.cellH, "D")
}

func (r *PDFRenderer) front(pdf *gofpdf.Fpdf, tr func(string) string, g grid, x, y float64, n int, card core.VisualFlashcard, fontSize float64) {
	lineH := fontSize * ptToMM * 1.2
	textTop := y + g.cellH - cellPadding - lineH
	r.image(pdf, fmt.Sprintf("card-%d", n), card.Image,
		x+cellPadding, y+cellPadding, g.cellW-2*cellPadding, textTop-y-2*cellPadding)

	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x+cellPadding, textTop)
	pdf.CellFormat(g.cellW-2*cellPadding, lineH, tr(fit(pdf, card.Word, g.cellW-2*cellPadding)), "", 0, "C", false, 0, "")
}

func (r *PDFRenderer) back(pdf *gofpdf.Fpdf, tr func(string) string, g grid, x, y float64, card core.VisualFlashcard, fontSize float64) {
	width := g.cellW - 2*cellPadding
	lineH := fontSize * ptToMM * 1.2
	maxLines := int((g.cellH - 2*cellPadding) / lineH)
	if maxLines < 2 {
		maxLines = 2
	}

	pdf.SetXY(x+cellPadding, y+cellPadding)
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetTextColor(0, 0, 0)
	used := r.lines(pdf, tr, x+cellPadding, width, lineH, card.Definition, maxLines/2)

	pdf.SetFont("Helvetica", "I", fontSize*0.8)
	pdf.SetTextColor(90, 90, 90)
	r.lines(pdf, tr, x+cellPadding, width, lineH*0.8, card.Example, maxLines-used)
	pdf.SetTextColor(0, 0, 0)
}

// lines writes text wrapped to width, at most max lines, and returns the
// number of lines written.
func (r *PDFRenderer) lines(pdf *gofpdf.Fpdf, tr func(string) string, x, width, lineH float64, text string, max int) int {
	if max <= 0 || text == "" {
		return 0
	}
	split := pdf.SplitLines([]byte(tr(text)), width)
	if len(split) > max {
		split = split[:max]
	}
	for _, l := range split {
		pdf.SetX(x)
		pdf.CellFormat(width, lineH, string(l), "", 2, "C", false, 0, "")
	}
	return len(split)
}

// image draws data centered in the box, keeping its aspect ratio. Formats
// gofpdf cannot decode are skipped.
func (r *PDFRenderer) image(pdf *gofpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	mime := mimeType(data)
	typ, ok := pdfImageTypes[mime]
	if !ok {
		log.Warn().Str("target", "render").Str("image", name).Str("mime", mime).Msg("unsupported image type, leaving blank")
		return
	}
	opts := gofpdf.ImageOptions{ImageType: typ}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() || info == nil {
		log.Warn().Str("target", "render").Str("image", name).Err(pdf.Error()).Msg("image not decodable, leaving blank")
		pdf.ClearError()
		return
	}

	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 || w <= 0 || h <= 0 {
		return
	}
	scale := w / iw
	if ih*scale > h {
		scale = h / ih
	}
	dw, dh := iw*scale, ih*scale
	pdf.ImageOptions(name, x+(w-dw)/2, y+(h-dh)/2, dw, dh, false, opts, 0, "")
}

// fit shortens s with an ellipsis until it fits width at the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		cand := strings.TrimSpace(string(runes)) + "..."
		if pdf.GetStringWidth(cand) <= width {
			return cand
		}
	}
	return s
}
