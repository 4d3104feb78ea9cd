package load

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// ReadXLSX loads flashcards from the first two columns of every sheet.
// Rows with fewer than two cells are skipped; see Clean for the rest.
func ReadXLSX(path string) ([]core.Flashcard, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var cards []core.Flashcard
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			log.Warn().Str("target", "load").Str("sheet", sheet).Err(err).Msg("skipping sheet")
			continue
		}
		for _, cells := range rows {
			if len(cells) < 2 {
				continue
			}
			if c, ok := Clean(cells[0], cells[1]); ok {
				cards = append(cards, c)
			}
		}
	}
	return cards, nil
}
