package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/load"
)

// LoadStage reads a flashcard file. It must be the first stage.
type LoadStage struct {
	Path string
	Type load.FileType // empty: detect from extension
}

func (s LoadStage) Name() string { return "load" }

func (s LoadStage) Run(ctx context.Context, in IO) (IO, error) {
	if in != nil {
		return nil, fmt.Errorf("load does not accept input, got %T", in)
	}
	cards, err := load.File(s.Path, s.Type)
	if err != nil {
		return nil, err
	}
	log.Info().Str("target", "load").Int("cards", len(cards)).Msg("flashcards loaded")
	return Flashcards(cards), nil
}

// Enricher is the part of enrich.Enricher a stage needs.
type Enricher interface {
	Enrich(ctx context.Context, cards []core.Flashcard) ([]core.Result, error)
}

// EnrichStage turns Flashcards into Results.
type EnrichStage struct {
	Enricher Enricher
}

func (s EnrichStage) Name() string { return "visual_vocab" }

func (s EnrichStage) Run(ctx context.Context, in IO) (IO, error) {
	cards, ok := in.(Flashcards)
	if !ok {
		return nil, fmt.Errorf("visual_vocab needs flashcards, got %T", in)
	}
	results, err := s.Enricher.Enrich(ctx, cards)
	if err != nil {
		return nil, err
	}
	return Results(results), nil
}

// RenderStage renders the usable cards of Results into a Document.
type RenderStage struct {
	Renderer core.Renderer
	Layout   core.Layout
	// Filename defaults to "flashcard" plus the renderer's extension.
	Filename string
}

func (s RenderStage) Name() string { return "transform" }

func (s RenderStage) Run(ctx context.Context, in IO) (IO, error) {
	results, ok := in.(Results)
	if !ok {
		return nil, fmt.Errorf("transform needs enrichment results, got %T", in)
	}
	cards := core.Usable(results)
	if skipped := len(results) - len(cards); skipped > 0 {
		log.Warn().Str("target", "transform").Int("skipped", skipped).Int("cards", len(cards)).Msg("placeholders left out of the document")
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("no usable cards: %w", core.ErrNoCandidates)
	}
	data, err := s.Renderer.Render(cards, s.Layout)
	if err != nil {
		return nil, err
	}
	name := s.Filename
	if name == "" {
		name = "flashcard" + s.Renderer.Extension()
	}
	return Document{Name: name, Content: data}, nil
}

// ClipboardStage formats cards as tab-separated "term<TAB>definition"
// lines, the import format of most flashcard apps. For Results the usable
// cards are used, with the example appended to the definition.
type ClipboardStage struct{}

func (ClipboardStage) Name() string { return "clipboard" }

func (ClipboardStage) Run(ctx context.Context, in IO) (IO, error) {
	var rows [][2]string
	switch v := in.(type) {
	case Flashcards:
		for _, c := range v {
			rows = append(rows, [2]string{c.Word, c.Definition})
		}
	case Results:
		for _, c := range core.Usable(v) {
			rows = append(rows, [2]string{c.Word, c.Definition + " (" + c.Example + ")"})
		}
	default:
		return nil, fmt.Errorf("clipboard needs flashcards or results, got %T", in)
	}
	return Clipboard(tsv(rows)), nil
}
