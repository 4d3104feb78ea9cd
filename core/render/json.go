package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// cardDoc is the serialized form of one card. Images are base64 encoded.
type cardDoc struct {
	Word       string `json:"word" yaml:"word"`
	Definition string `json:"definition" yaml:"definition"`
	Example    string `json:"example" yaml:"example"`
	ImageType  string `json:"image_type" yaml:"image_type"`
	Image      []byte `json:"image" yaml:"-"`
	// ImageBase64 carries Image for YAML, which has no []byte encoding.
	ImageBase64 string `json:"-" yaml:"image"`
}

// deckDoc is a rendered deck: the layout and the cards split into sheets.
type deckDoc struct {
	Rows    int         `json:"rows" yaml:"rows"`
	Columns int         `json:"columns" yaml:"columns"`
	Count   int         `json:"count" yaml:"count"`
	Sheets  [][]cardDoc `json:"sheets" yaml:"sheets"`
}

func buildDeck(cards []core.VisualFlashcard, layout core.Layout) deckDoc {
	layout = withDefaults(layout)
	deck := deckDoc{Rows: layout.Rows, Columns: layout.Columns, Count: len(cards), Sheets: [][]cardDoc{}}
	perSheet := layout.Rows * layout.Columns
	for i, c := range cards {
		if i%perSheet == 0 {
			deck.Sheets = append(deck.Sheets, nil)
		}
		last := len(deck.Sheets) - 1
		deck.Sheets[last] = append(deck.Sheets[last], cardDoc{
			Word:       c.Word,
			Definition: c.Definition,
			Example:    c.Example,
			ImageType:  mimeType(c.Image),
			Image:      c.Image,
		})
	}
	return deck
}

// JSONRenderer produces a JSON deck document.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the deck with indentation.
func (r *JSONRenderer) Render(cards []core.VisualFlashcard, layout core.Layout) ([]byte, error) {
	data, err := json.MarshalIndent(buildDeck(cards, layout), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
