package load

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// ReadDOCX loads flashcards from the tables of a Word document. Only rows
// with exactly two cells are read; see Clean for the per-row rules.
func ReadDOCX(path string) ([]core.Flashcard, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()

	tables, err := docxTables(r.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("reading tables of %s: %w", path, err)
	}

	var cards []core.Flashcard
	for _, rows := range tables {
		if len(rows) == 0 {
			log.Warn().Str("target", "load").Msg("skipping empty table")
			continue
		}
		for _, cells := range rows {
			if len(cells) != 2 {
				log.Warn().Str("target", "load").Str("row", rowString(cells)).Int("columns", len(cells)).Msg("skipping row")
				continue
			}
			if c, ok := Clean(cells[0], cells[1]); ok {
				cards = append(cards, c)
			}
		}
	}
	return cards, nil
}

// docxTables walks document XML and returns the text of every top-level
// table as rows of cells. Runs are concatenated per cell.
func docxTables(content string) ([][][]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		tables [][][]string
		depth  int // w:tbl nesting
		row    []string
		cell   strings.Builder
		inCell bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					tables = append(tables, nil)
				}
			case "tr":
				if depth == 1 {
					row = nil
				}
			case "tc":
				if depth == 1 {
					cell.Reset()
					inCell = true
				}
			case "t":
				inText = inCell
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				depth--
			case "tr":
				if depth == 1 {
					last := len(tables) - 1
					tables[last] = append(tables[last], row)
				}
			case "tc":
				if depth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cell.Write(t)
			}
		}
	}
	return tables, nil
}
