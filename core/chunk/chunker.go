// Package chunk splits card lists into fixed-size sheets for layout.
// A sheet holds rows × columns cards; the last sheet may be short.
package chunk

// DefaultSheetSize is the card count of a 6 × 3 sheet.
const DefaultSheetSize = 18

// Chunker splits items into sheets.
type Chunker struct {
	SheetSize int // cards per sheet
}

// New creates a Chunker for a rows × columns grid.
// Defaults to DefaultSheetSize if either dimension is <= 0.
func New(rows, columns int) *Chunker {
	size := rows * columns
	if rows <= 0 || columns <= 0 {
		size = DefaultSheetSize
	}
	return &Chunker{SheetSize: size}
}

// Sheets returns the index ranges [start, end) of each sheet over n items.
func (c *Chunker) Sheets(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	var sheets [][2]int
	for i := 0; i < n; i += c.SheetSize {
		end := i + c.SheetSize
		if end > n {
			end = n
		}
		sheets = append(sheets, [2]int{i, end})
	}
	return sheets
}

// Chunk splits items into consecutive sheets of at most size items.
func Chunk[T any](c *Chunker, items []T) [][]T {
	var out [][]T
	for _, s := range c.Sheets(len(items)) {
		out = append(out, items[s[0]:s[1]])
	}
	return out
}
