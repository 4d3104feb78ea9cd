// Package output writes pipeline results under ./out/<name>/ and copies
// text to the system clipboard.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// DefaultDir is the root of all run directories.
const DefaultDir = "out"

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting <root>/<name>. An empty root selects
// DefaultDir, an empty name "default".
func New(root, name string) (*Writer, error) {
	if root == "" {
		root = DefaultDir
	}
	if name = sanitize(name); name == "" {
		name = "default"
	}
	dir := filepath.Join(root, name)

	// Ensure the output directory exists.
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{OutputDir: dir}, nil
}

// Write stores data as filename inside the run directory.
func (w *Writer) Write(filename string, data []byte) (string, error) {
	path := filepath.Join(w.OutputDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	log.Info().Str("target", "output").Str("path", path).Int("bytes", len(data)).Msg("written")
	return path, nil
}

// Clipboard copies text to the system clipboard, recording it as
// clipboard.txt too so headless runs keep the result.
func (w *Writer) Clipboard(text string) error {
	if _, err := w.Write("clipboard.txt", []byte(text)); err != nil {
		return err
	}
	if clipboard.Unsupported {
		log.Warn().Str("target", "output").Msg("no clipboard available, kept clipboard.txt only")
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	log.Info().Str("target", "output").Str("preview", preview(text, 20)).Msg("clipboard copied")
	return nil
}

// preview returns the first n runes of s, with an ellipsis if cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// sanitize keeps letters, digits, '-' and '_' and replaces anything else
// with '_'.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
