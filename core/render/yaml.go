package render

import (
	"encoding/base64"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// YAMLRenderer produces a YAML deck document.
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAMLRenderer.
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render marshals the deck, with images as base64 strings.
func (r *YAMLRenderer) Render(cards []core.VisualFlashcard, layout core.Layout) ([]byte, error) {
	deck := buildDeck(cards, layout)
	for _, sheet := range deck.Sheets {
		for i := range sheet {
			sheet[i].ImageBase64 = base64.StdEncoding.EncodeToString(sheet[i].Image)
		}
	}
	data, err := yaml.Marshal(deck)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for YAML output.
func (r *YAMLRenderer) Extension() string {
	return ".yml"
}
