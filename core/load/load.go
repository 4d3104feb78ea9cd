// Package load reads flashcard lists from YAML, JSON, DOCX and XLSX files.
package load

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// FileType is a supported input format.
type FileType string

const (
	YAML FileType = "yaml"
	JSON FileType = "json"
	DOCX FileType = "docx"
	XLSX FileType = "xlsx"
)

// ParseFileType validates a user-supplied type name.
func ParseFileType(s string) (FileType, error) {
	switch t := FileType(strings.ToLower(s)); t {
	case YAML, JSON, DOCX, XLSX:
		return t, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported file type %q (yaml, json, docx, xlsx)", s)
	}
}

// DetectType infers the file type from the extension of path.
func DetectType(path string) (FileType, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot determine file type of %s: no extension", path)
	}
	return ParseFileType(ext)
}

// File loads flashcards from path. An empty t detects the type from the
// extension.
func File(path string, t FileType) ([]core.Flashcard, error) {
	if t == "" {
		var err error
		if t, err = DetectType(path); err != nil {
			return nil, err
		}
	}
	log.Info().Str("target", "load").Str("path", path).Str("type", string(t)).Msg("loading file")

	switch t {
	case YAML, JSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if t == YAML {
			return ParseYAML(data)
		}
		return ParseJSON(data)
	case DOCX:
		return ReadDOCX(path)
	case XLSX:
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", t)
	}
}

// ParseYAML decodes a YAML list of flashcards.
func ParseYAML(data []byte) ([]core.Flashcard, error) {
	var cards []core.Flashcard
	if err := yaml.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parsing YAML flashcards: %w", err)
	}
	return cards, nil
}

// ParseJSON decodes a JSON array of flashcards.
func ParseJSON(data []byte) ([]core.Flashcard, error) {
	var cards []core.Flashcard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parsing JSON flashcards: %w", err)
	}
	return cards, nil
}

var cleaner = strings.NewReplacer(
	"->", "→",
	"“", `"`,
	"”", `"`,
	"¨", "",
)

// Clean applies the table cleanup rules to one row: both cells must be
// non-empty and differ ignoring case; arrows and curly quotes are
// normalized and diaeresis marks dropped.
func Clean(word, definition string) (core.Flashcard, bool) {
	word, definition = strings.TrimSpace(word), strings.TrimSpace(definition)
	if word == "" || definition == "" || strings.EqualFold(word, definition) {
		return core.Flashcard{}, false
	}
	return core.Flashcard{
		Word:       cleaner.Replace(word),
		Definition: cleaner.Replace(definition),
	}, true
}

// rowString renders cells as a table row for log messages.
func rowString(cells []string) string {
	return "| " + strings.TrimSpace(strings.Join(cells, " | ")) + " |"
}
