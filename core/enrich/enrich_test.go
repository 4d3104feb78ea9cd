package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/rank"
)

type fakeImages struct {
	byWord map[string][]core.ImageCandidate
	err    error
}

func (f *fakeImages) Search(ctx context.Context, query string, offset int) ([]core.ImageCandidate, error) {
	return f.SearchUpTo(ctx, query, 100)
}

func (f *fakeImages) SearchUpTo(ctx context.Context, query string, max int) ([]core.ImageCandidate, error) {
	imgs := f.byWord[query]
	if len(imgs) > max {
		imgs = imgs[:max]
	}
	return imgs, f.err
}

type fakeDict struct {
	mu      sync.Mutex
	entries map[string][]core.Definition
	errs    map[string][]error // consumed one per call
	calls   []string
}

func (f *fakeDict) Lookup(ctx context.Context, word string) (core.DictionaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, word)
	if errs := f.errs[word]; len(errs) > 0 {
		f.errs[word] = errs[1:]
		return core.DictionaryEntry{}, errs[0]
	}
	return core.DictionaryEntry{Word: word, Definitions: f.entries[word]}, nil
}

type fakeKeywords struct{ out []string }

func (f fakeKeywords) Extract(ctx context.Context, phrase string, max int) ([]string, error) {
	if len(f.out) > max {
		return f.out[:max], nil
	}
	return f.out, nil
}

type fakeFetcher struct {
	bytes map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	return nil, fmt.Errorf("unexpected page fetch: %w", core.ErrTransport)
}

func (f *fakeFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	if b, ok := f.bytes[url]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("GET %s: %w", url, core.ErrTransport)
}

// constEmbedder maps every text to the same vector, so every definition
// scores 1 against the word.
type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 1}
	}
	return out, nil
}

func testRanker() *rank.Reranker {
	return rank.NewReranker(func(context.Context) (rank.Embedder, error) {
		return constEmbedder{}, nil
	})
}

func noShuffle([]core.ImageCandidate) {}

var luzDefinition = core.GroupedDefinitionWithExamples{
	Group: "noun",
	Text:  "light",
	Examples: []core.Example{core.TranslatedExample{
		Text:        "la luz es bonita",
		Translation: "the light is pretty",
	}},
}

func TestEnrichLuz(t *testing.T) {
	images := &fakeImages{byWord: map[string][]core.ImageCandidate{
		"luz": {{FullURL: "https://img/broken.jpg"}, {FullURL: "https://img/luz.jpg"}},
	}}
	dict := &fakeDict{entries: map[string][]core.Definition{"luz": {luzDefinition}}}
	fetcher := &fakeFetcher{bytes: map[string][]byte{"https://img/luz.jpg": []byte("JPEGDATA")}}

	e := New(images, dict, testRanker(), fetcher, Options{Shuffle: noShuffle})
	card := core.Flashcard{Word: "luz", Definition: "light; lamp"}
	results, err := e.Enrich(context.Background(), []core.Flashcard{card})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.Err != nil || r.State != core.StateDone || r.Visual == nil {
		t.Fatalf("unexpected result %+v", r)
	}
	want := core.VisualFlashcard{Word: "luz", Definition: "light; lamp", Image: []byte("JPEGDATA"), Example: "la luz es bonita"}
	if r.Visual.Word != want.Word || r.Visual.Definition != want.Definition ||
		string(r.Visual.Image) != string(want.Image) || r.Visual.Example != want.Example {
		t.Fatalf("got %+v, want %+v", *r.Visual, want)
	}
}

func TestFallbackDictionaryUsesKeyword(t *testing.T) {
	calls := 0
	f := NewFallbackDictionary(lookupFunc(func(ctx context.Context, word string) (core.DictionaryEntry, error) {
		calls++
		if calls == 1 {
			return core.DictionaryEntry{Word: word}, nil
		}
		return core.DictionaryEntry{Word: word, Definitions: []core.Definition{luzDefinition}}, nil
	}), fakeKeywords{out: []string{"luz"}}, 2, 0, 0)

	entry, err := f.Lookup(context.Background(), "luz")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.Word != "luz" || len(entry.Definitions) != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if calls != 2 {
		t.Fatalf("expected direct lookup plus one keyword lookup, got %d", calls)
	}
}

type lookupFunc func(ctx context.Context, word string) (core.DictionaryEntry, error)

func (f lookupFunc) Lookup(ctx context.Context, word string) (core.DictionaryEntry, error) {
	return f(ctx, word)
}

func TestFallbackDictionaryExhausted(t *testing.T) {
	dict := &fakeDict{entries: map[string][]core.Definition{"sol": {luzDefinition}}}
	f := NewFallbackDictionary(dict, fakeKeywords{out: []string{"rayo", "brillo", "sol"}}, 2, 0, 0)
	_, err := f.Lookup(context.Background(), "rayo de luz")
	if !errors.Is(err, core.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if got := strings.Join(dict.calls, ","); got != "rayo de luz,rayo,brillo" {
		t.Fatalf("unexpected lookups %s", got)
	}
}

func TestFallbackDictionaryRetriesTransport(t *testing.T) {
	dict := &fakeDict{
		entries: map[string][]core.Definition{"luz": {luzDefinition}},
		errs:    map[string][]error{"luz": {fmt.Errorf("GET: %w", core.ErrTransport)}},
	}
	f := NewFallbackDictionary(dict, nil, 0, 1, time.Millisecond)
	entry, err := f.Lookup(context.Background(), "luz")
	if err != nil || len(entry.Definitions) != 1 {
		t.Fatalf("got %+v, %v", entry, err)
	}
	if len(dict.calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", len(dict.calls))
	}
}

func TestEnrichBatchIsolation(t *testing.T) {
	images := &fakeImages{byWord: map[string][]core.ImageCandidate{
		"luz": {{FullURL: "https://img/luz.jpg"}},
		"sol": {{FullURL: "https://img/sol-1.jpg"}, {FullURL: "https://img/sol-2.jpg"}},
		"mar": {{FullURL: "https://img/mar.jpg"}},
	}}
	solDef := core.GroupedDefinitionWithExamples{Group: "noun", Text: "sun", Examples: []core.Example{core.PlainExample{Text: "el sol brilla"}}}
	marDef := core.GroupedDefinitionWithExamples{Group: "noun", Text: "sea", Examples: []core.Example{core.TranslatedExample{Text: "el mar azul", Translation: "the blue sea"}}}
	dict := &fakeDict{entries: map[string][]core.Definition{
		"luz": {luzDefinition}, "sol": {solDef}, "mar": {marDef},
	}}
	fetcher := &fakeFetcher{bytes: map[string][]byte{
		"https://img/luz.jpg": []byte("L"),
		"https://img/mar.jpg": []byte("M"),
	}}

	e := New(images, dict, testRanker(), fetcher, Options{Shuffle: noShuffle})
	cards := []core.Flashcard{{Word: "luz", Definition: "light"}, {Word: "sol", Definition: "sun"}, {Word: "mar", Definition: "sea"}}
	results, err := e.Enrich(context.Background(), cards)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Card != cards[i] {
			t.Fatalf("result %d out of order: %+v", i, r)
		}
	}
	if results[0].Placeholder() || results[2].Placeholder() {
		t.Fatalf("siblings must succeed: %+v / %+v", results[0], results[2])
	}
	failed := results[1]
	if !failed.Placeholder() || failed.State != core.StateFailed || failed.FailedAt != core.StatePickingImage {
		t.Fatalf("unexpected failed result %+v", failed)
	}
	if !errors.Is(failed.Err, core.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", failed.Err)
	}
	if got := core.Usable(results); len(got) != 2 {
		t.Fatalf("expected 2 usable cards, got %d", len(got))
	}
}

func TestEnrichFailureStages(t *testing.T) {
	plain := core.GroupedDefinition{Group: "noun", Text: "light"}
	tests := []struct {
		name   string
		images []core.ImageCandidate
		imgErr error
		defs   []core.Definition
		want   core.State
		code   core.Code
	}{
		{"no images", nil, nil, []core.Definition{luzDefinition}, core.StateFetchingImages, core.CodeNoCandidates},
		{"image search failed", nil, fmt.Errorf("x: %w", core.ErrPayloadNotFound), []core.Definition{luzDefinition}, core.StateFetchingImages, core.CodePayloadNotFound},
		{"no definitions", []core.ImageCandidate{{FullURL: "https://img/ok"}}, nil, nil, core.StateFetchingDictionary, core.CodeNoCandidates},
		{"no examples", []core.ImageCandidate{{FullURL: "https://img/ok"}}, nil, []core.Definition{plain}, core.StateRanking, core.CodeNoCandidates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{byWord: map[string][]core.ImageCandidate{"luz": tt.images}, err: tt.imgErr}
			dict := NewFallbackDictionary(&fakeDict{entries: map[string][]core.Definition{"luz": tt.defs}}, nil, 0, 0, 0)
			fetcher := &fakeFetcher{bytes: map[string][]byte{"https://img/ok": []byte("x")}}
			e := New(images, dict, testRanker(), fetcher, Options{Shuffle: noShuffle})
			results, err := e.Enrich(context.Background(), []core.Flashcard{{Word: "luz", Definition: "light"}})
			if err != nil {
				t.Fatalf("Enrich: %v", err)
			}
			r := results[0]
			if r.FailedAt != tt.want || core.Classify(r.Err) != tt.code {
				t.Fatalf("failed at %s with %s (%v), want %s / %s", r.FailedAt, core.Classify(r.Err), r.Err, tt.want, tt.code)
			}
		})
	}
}

func TestEnrichAbortsWhenModelUnavailable(t *testing.T) {
	images := &fakeImages{byWord: map[string][]core.ImageCandidate{
		"luz": {{FullURL: "https://img/luz.jpg"}},
		"sol": {{FullURL: "https://img/luz.jpg"}},
	}}
	dict := &fakeDict{entries: map[string][]core.Definition{"luz": {luzDefinition}, "sol": {luzDefinition}}}
	fetcher := &fakeFetcher{bytes: map[string][]byte{"https://img/luz.jpg": []byte("L")}}
	ranker := rank.NewReranker(func(context.Context) (rank.Embedder, error) {
		return nil, errors.New("no ollama here")
	})

	e := New(images, dict, ranker, fetcher, Options{})
	results, err := e.Enrich(context.Background(), []core.Flashcard{{Word: "luz", Definition: "light"}, {Word: "sol", Definition: "sun"}})
	if !errors.Is(err, rank.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if len(results) != 2 || !results[0].Placeholder() || !results[1].Placeholder() {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestEnrichTaskTimeout(t *testing.T) {
	slow := lookupFunc(func(ctx context.Context, word string) (core.DictionaryEntry, error) {
		<-ctx.Done()
		return core.DictionaryEntry{}, ctx.Err()
	})
	images := &fakeImages{byWord: map[string][]core.ImageCandidate{"luz": {{FullURL: "https://img/luz.jpg"}}}}
	e := New(images, slow, testRanker(), &fakeFetcher{}, Options{TaskTimeout: 20 * time.Millisecond})
	results, err := e.Enrich(context.Background(), []core.Flashcard{{Word: "luz", Definition: "light"}})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if results[0].FailedAt != core.StateFetchingDictionary || core.Classify(results[0].Err) != core.CodeCancel {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestPairsLabelsAndSkipsEmptyExamples(t *testing.T) {
	entry := core.DictionaryEntry{Definitions: []core.Definition{
		core.PlainDefinition{Text: "ignored"},
		core.GroupedDefinitionWithExamples{Group: "noun", Text: "light", Examples: []core.Example{
			core.TranslatedExample{Text: ""},
			core.PlainExample{Text: "hay luz"},
		}},
		core.GroupedDefinitionWithExamples{Text: "lamp", Examples: []core.Example{core.PlainExample{Text: "una luz"}}},
	}}
	got := pairs(entry)
	want := []pair{{"light (noun)", "hay luz"}, {"lamp", "una luz"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}
