// Package enrich turns flashcards into visual flashcards. Each card runs as
// an independent task:
//  1. search images and look the word up, concurrently
//  2. rank the dictionary definitions that carry examples against the word
//  3. download one image, trying candidates in random order
//
// A failed task yields a placeholder result; it never stops its siblings.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/rank"
)

// DefaultImagePoolSize is how many image candidates are gathered per word.
const DefaultImagePoolSize = 10

// Options tunes an Enricher. Zero values select the defaults.
type Options struct {
	ImagePoolSize int
	// TaskTimeout bounds one card's enrichment. 0 means no bound.
	TaskTimeout time.Duration
	// Concurrency caps running tasks. 0 runs every card at once.
	Concurrency int
	// Shuffle orders image candidates before download.
	Shuffle func([]core.ImageCandidate)
}

// Enricher implements the per-card enrichment fan-out.
type Enricher struct {
	images  core.ImageSearcher
	dict    core.Dictionary
	ranker  core.Ranker
	fetcher core.Fetcher
	opts    Options
}

// New creates an Enricher. dict is expected to apply its own retry and
// keyword fallback policy (see FallbackDictionary).
func New(images core.ImageSearcher, dict core.Dictionary, ranker core.Ranker, fetcher core.Fetcher, opts Options) *Enricher {
	if opts.ImagePoolSize <= 0 {
		opts.ImagePoolSize = DefaultImagePoolSize
	}
	if opts.Shuffle == nil {
		opts.Shuffle = func(c []core.ImageCandidate) {
			rand.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
		}
	}
	return &Enricher{images: images, dict: dict, ranker: ranker, fetcher: fetcher, opts: opts}
}

// Enrich runs one task per card and returns one Result per card, in input
// order. The error is non-nil only when the embedding model could not be
// built, which makes every result of the run meaningless.
func (e *Enricher) Enrich(ctx context.Context, cards []core.Flashcard) ([]core.Result, error) {
	results := make([]core.Result, len(cards))

	var g errgroup.Group
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}
	for i, card := range cards {
		g.Go(func() error {
			results[i] = e.enrichOne(ctx, i, card)
			return nil
		})
	}
	_ = g.Wait()

	done := 0
	for _, r := range results {
		if errors.Is(r.Err, rank.ErrModelUnavailable) {
			return results, r.Err
		}
		if !r.Placeholder() {
			done++
		}
	}
	log.Info().Str("target", "enrich").Int("cards", len(cards)).Int("done", done).Int("failed", len(cards)-done).Msg("batch finished")
	return results, nil
}

// task tracks one card through its states.
type task struct {
	index int
	card  core.Flashcard
	state core.State
}

func (t *task) enter(s core.State) {
	t.state = s
	log.Debug().Str("target", "enrich").Str("word", t.card.Word).Str("state", s.String()).Msg("state")
}

func (t *task) fail(err error) core.Result {
	log.Warn().Str("target", "enrich").
		Str("word", t.card.Word).
		Str("stage", t.state.String()).
		Str("code", string(core.Classify(err))).
		Err(err).
		Msg("enrichment failed")
	return core.Result{Index: t.index, Card: t.card, State: core.StateFailed, FailedAt: t.state, Err: err}
}

func (e *Enricher) enrichOne(ctx context.Context, index int, card core.Flashcard) core.Result {
	t := &task{index: index, card: card, state: core.StatePending}
	if e.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.TaskTimeout)
		defer cancel()
	}

	t.enter(core.StateFetchingImages)
	images, entry, imgErr, dictErr := e.gather(ctx, card.Word)
	if len(images) == 0 {
		if imgErr == nil {
			imgErr = fmt.Errorf("no images for %q: %w", card.Word, core.ErrNoCandidates)
		}
		return t.fail(imgErr)
	}
	if imgErr != nil {
		log.Debug().Str("target", "enrich").Str("word", card.Word).Int("images", len(images)).Err(imgErr).Msg("keeping partial image results")
	}

	t.enter(core.StateFetchingDictionary)
	if dictErr != nil {
		return t.fail(dictErr)
	}

	t.enter(core.StateRanking)
	example, err := e.pickExample(ctx, card.Word, entry)
	if err != nil {
		return t.fail(err)
	}

	t.enter(core.StatePickingImage)
	image, err := e.pickImage(ctx, card.Word, images)
	if err != nil {
		return t.fail(err)
	}

	visual, err := core.NewVisualFlashcard(card, image, example)
	if err != nil {
		return t.fail(err)
	}
	t.enter(core.StateDone)
	return core.Result{Index: index, Card: card, Visual: visual, State: core.StateDone}
}

// gather runs the image search and the dictionary lookup concurrently.
func (e *Enricher) gather(ctx context.Context, word string) (images []core.ImageCandidate, entry core.DictionaryEntry, imgErr, dictErr error) {
	var g errgroup.Group
	g.Go(func() error {
		images, imgErr = e.images.SearchUpTo(ctx, word, e.opts.ImagePoolSize)
		return nil
	})
	g.Go(func() error {
		entry, dictErr = e.dict.Lookup(ctx, word)
		return nil
	})
	_ = g.Wait()
	return images, entry, imgErr, dictErr
}

type pair struct {
	label   string
	example string
}

// pairs lists (definition label, example) for every non-empty example.
func pairs(entry core.DictionaryEntry) []pair {
	var out []pair
	for _, d := range entry.Definitions {
		def, ok := d.(core.GroupedDefinitionWithExamples)
		if !ok {
			continue
		}
		label := def.Text
		if def.Group != "" {
			label = def.Text + " (" + def.Group + ")"
		}
		for _, ex := range def.Examples {
			if s := ex.Sentence(); s != "" {
				out = append(out, pair{label: label, example: s})
			}
		}
	}
	return out
}

// pickExample returns the example paired with the definition closest to word.
func (e *Enricher) pickExample(ctx context.Context, word string, entry core.DictionaryEntry) (string, error) {
	ps := pairs(entry)
	if len(ps) == 0 {
		return "", fmt.Errorf("no examples for %q: %w", word, core.ErrNoCandidates)
	}
	labels := make([]string, len(ps))
	for i, p := range ps {
		labels[i] = p.label
	}
	ranked, err := e.ranker.Rank(ctx, word, labels, 1, 0.0)
	if err != nil {
		return "", fmt.Errorf("ranking definitions of %q: %w", word, err)
	}
	if len(ranked) == 0 {
		return "", fmt.Errorf("no definition of %q scored above 0: %w", word, core.ErrNoCandidates)
	}
	best := ps[ranked[0].Index]
	log.Debug().Str("target", "enrich").Str("word", word).Str("definition", best.label).Float64("score", ranked[0].Score).Msg("definition picked")
	return best.example, nil
}

// pickImage downloads the first candidate that succeeds, in shuffled order.
func (e *Enricher) pickImage(ctx context.Context, word string, images []core.ImageCandidate) ([]byte, error) {
	order := make([]core.ImageCandidate, len(images))
	copy(order, images)
	e.opts.Shuffle(order)

	var lastErr error
	for _, img := range order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("picking image for %q: %w", word, err)
		}
		data, err := e.fetcher.FetchBytes(ctx, img.FullURL)
		if err != nil {
			log.Debug().Str("target", "enrich").Str("word", word).Str("url", img.FullURL).Err(err).Msg("image download failed")
			lastErr = err
			continue
		}
		if len(data) > 0 {
			return data, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all %d images failed for %q: %w: %w", len(order), word, core.ErrNoCandidates, lastErr)
	}
	return nil, fmt.Errorf("all %d images empty for %q: %w", len(order), word, core.ErrNoCandidates)
}
