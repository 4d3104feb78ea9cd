// Package pipeline chains stages: each stage consumes the value produced by
// the previous one. The first stage receives nil.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/output"
)

// IO is the value passed between stages: Flashcards, Results, Document or
// Clipboard.
type IO interface {
	isIO()
}

// Flashcards is a loaded word list.
type Flashcards []core.Flashcard

// Results are the per-card outcomes of enrichment, placeholders included.
type Results []core.Result

// Document is a rendered file.
type Document struct {
	Name    string
	Content []byte
}

// Clipboard is text meant for the system clipboard.
type Clipboard string

func (Flashcards) isIO() {}
func (Results) isIO()    {}
func (Document) isIO()   {}
func (Clipboard) isIO()  {}

// Stage is one step of a pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, in IO) (IO, error)
}

// Run executes stages in order and returns the last stage's output.
func Run(ctx context.Context, stages ...Stage) (IO, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages to run")
	}
	var cur IO
	for _, s := range stages {
		start := time.Now()
		log.Info().Str("target", "pipeline").Str("stage", s.Name()).Msg("stage starting")
		out, err := s.Run(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		log.Info().Str("target", "pipeline").Str("stage", s.Name()).Dur("took", time.Since(start)).Msg("stage finished")
		cur = out
	}
	return cur, nil
}

// resultRow is the report line of one enrichment result.
type resultRow struct {
	Word     string `yaml:"word"`
	State    string `yaml:"state"`
	FailedAt string `yaml:"failed_at,omitempty"`
	Code     string `yaml:"code,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Dump persists the final value of a run through w:
//   - Flashcards as flashcard.yml
//   - Results as a report, results.yml
//   - Document under its own name
//   - Clipboard to the system clipboard
func Dump(w *output.Writer, v IO) error {
	switch v := v.(type) {
	case Flashcards:
		data, err := yaml.Marshal([]core.Flashcard(v))
		if err != nil {
			return fmt.Errorf("marshaling flashcards: %w", err)
		}
		_, err = w.Write("flashcard.yml", data)
		return err
	case Results:
		rows := make([]resultRow, len(v))
		for i, r := range v {
			rows[i] = resultRow{Word: r.Card.Word, State: r.State.String()}
			if r.Err != nil {
				rows[i].FailedAt = r.FailedAt.String()
				rows[i].Code = string(core.Classify(r.Err))
				rows[i].Error = r.Err.Error()
			}
		}
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
		_, err = w.Write("results.yml", data)
		return err
	case Document:
		_, err := w.Write(v.Name, v.Content)
		return err
	case Clipboard:
		return w.Clipboard(string(v))
	case nil:
		return fmt.Errorf("nothing to dump")
	default:
		return fmt.Errorf("cannot dump %T", v)
	}
}

// tsv joins rows of two columns with tabs and newlines, replacing any tab
// or newline inside a field by a space.
func tsv(rows [][2]string) string {
	clean := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(clean.Replace(r[0]))
		b.WriteByte('\t')
		b.WriteString(clean.Replace(r[1]))
		b.WriteByte('\n')
	}
	return b.String()
}
