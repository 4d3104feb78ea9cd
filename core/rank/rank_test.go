package rank

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// fakeEmbedder maps known texts to fixed vectors and records how it is used.
type fakeEmbedder struct {
	vectors  map[string][]float32
	calls    atomic.Int32
	inflight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.inflight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inflight.Add(-1)
	time.Sleep(f.delay)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func staticFactory(e Embedder) ModelFactory {
	return func(context.Context) (Embedder, error) { return e, nil }
}

func TestCosine(t *testing.T) {
	vecs := [][]float32{
		{1, 2, 3},
		{0.1, -0.7, 0.3},
		{3e-3, 4e-3, 1},
		{-5, 0, 0},
	}
	for _, a := range vecs {
		if got := Cosine(a, a); got != 1.0 {
			t.Fatalf("Cosine(a, a) = %v for %v", got, a)
		}
		for _, b := range vecs {
			if Cosine(a, b) != Cosine(b, a) {
				t.Fatalf("Cosine not symmetric for %v, %v", a, b)
			}
		}
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero vector must score 0, got %v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{-1, 0}); got != -1 {
		t.Fatalf("opposite vectors = %v", got)
	}
}

func TestRankOrdersAndFilters(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"luz":      {1, 0, 0},
		"light":    {0.9, 0.1, 0},
		"lamp":     {0.6, 0.8, 0},
		"shadow":   {-1, 0, 0},
		"light 2":  {0.9, 0.1, 0},
		"sideways": {0, 1, 0},
	}}
	r := NewReranker(staticFactory(emb))
	cands := []string{"lamp", "shadow", "light", "sideways", "light 2"}

	tests := []struct {
		name      string
		limit     int
		threshold float64
		want      []int
	}{
		{"all", 0, -1, []int{2, 4, 0, 3, 1}},
		{"limit", 2, -1, []int{2, 4}},
		{"limit above count", 10, -1, []int{2, 4, 0, 3, 1}},
		{"threshold is exclusive", 0, 0, []int{2, 4, 0}},
		{"top one", 1, 0, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Rank(context.Background(), "luz", cands, tt.limit, tt.threshold)
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want indices %v", got, tt.want)
			}
			for i, idx := range tt.want {
				if got[i].Index != idx {
					t.Fatalf("position %d: index %d, want %d (%v)", i, got[i].Index, idx, got)
				}
				if got[i].Score < -1 || got[i].Score > 1 {
					t.Fatalf("score out of range: %v", got[i].Score)
				}
			}
		})
	}
}

func TestRankIsDeterministic(t *testing.T) {
	r := NewReranker(staticFactory(NewHashingEmbedder(0)))
	cands := []string{"light", "lamp", "the light is pretty", "daylight", "shadow", "luz"}
	first, err := r.Rank(context.Background(), "luz", cands, 0, -1)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(first) != len(cands) {
		t.Fatalf("threshold -1 must keep every candidate, got %d", len(first))
	}
	seen := map[int]bool{}
	for i, c := range first {
		seen[c.Index] = true
		if i > 0 && c.Score > first[i-1].Score {
			t.Fatalf("not sorted descending: %v", first)
		}
	}
	if len(seen) != len(cands) {
		t.Fatalf("not a permutation: %v", first)
	}
	second, _ := r.Rank(context.Background(), "luz", cands, 0, -1)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("run 2 differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestRankEmptyCandidatesSkipsModel(t *testing.T) {
	var built atomic.Int32
	r := NewReranker(func(context.Context) (Embedder, error) {
		built.Add(1)
		return &fakeEmbedder{}, nil
	})
	got, err := r.Rank(context.Background(), "luz", nil, 1, 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	if built.Load() != 0 {
		t.Fatalf("model built for empty candidates")
	}
}

func TestModelBuiltOnceAndEncodesSerialized(t *testing.T) {
	var built atomic.Int32
	emb := &fakeEmbedder{delay: 5 * time.Millisecond, vectors: map[string][]float32{"a": {1, 0}, "b": {0, 1}}}
	r := NewReranker(func(context.Context) (Embedder, error) {
		built.Add(1)
		time.Sleep(10 * time.Millisecond)
		return emb, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Rank(context.Background(), "a", []string{"a", "b"}, 1, -1); err != nil {
				t.Errorf("Rank: %v", err)
			}
		}()
	}
	wg.Wait()
	if built.Load() != 1 {
		t.Fatalf("model built %d times", built.Load())
	}
	if emb.overlap.Load() {
		t.Fatalf("encodes overlapped")
	}
	if emb.calls.Load() != 16 {
		t.Fatalf("expected one batched encode per Rank, got %d", emb.calls.Load())
	}
}

func TestModelUnavailableIsSticky(t *testing.T) {
	var built atomic.Int32
	r := NewReranker(func(context.Context) (Embedder, error) {
		built.Add(1)
		return nil, errors.New("connection refused")
	})
	for i := 0; i < 3; i++ {
		_, err := r.Rank(context.Background(), "luz", []string{"light"}, 1, 0)
		if !errors.Is(err, ErrModelUnavailable) || !errors.Is(err, core.ErrModel) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}
	if built.Load() != 1 {
		t.Fatalf("factory called %d times", built.Load())
	}
}

func TestScoreLessPutsNaNLast(t *testing.T) {
	nan := math.NaN()
	if !scoreLess(nan, -1) || scoreLess(-1, nan) || scoreLess(nan, nan) {
		t.Fatalf("NaN must order below every number")
	}
}

func TestNewFactoryRejectsUnknownBackend(t *testing.T) {
	if _, err := NewFactory(Options{Backend: "word2vec"}); err == nil {
		t.Fatalf("expected error")
	}
	f, err := NewFactory(Options{Backend: BackendHashing, Dimension: 32})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	m, err := f(context.Background())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	vecs, err := m.Embed(context.Background(), []string{"luz", ""})
	if err != nil || len(vecs) != 2 || len(vecs[0]) != 32 {
		t.Fatalf("unexpected embedding %v, %v", vecs, err)
	}
}

func TestKeywordExtractor(t *testing.T) {
	k := NewKeywordExtractor(NewReranker(staticFactory(NewHashingEmbedder(0))))
	got, err := k.Extract(context.Background(), "la luz del sol", 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	for _, kw := range got {
		if kw == "la" || kw == "del" {
			t.Fatalf("stopword returned as keyword: %v", got)
		}
	}

	got, err = k.Extract(context.Background(), "luz", 2)
	if err != nil || len(got) != 1 || got[0] != "luz" {
		t.Fatalf("single word: %v, %v", got, err)
	}
	got, err = k.Extract(context.Background(), "de la", 2)
	if err != nil || len(got) != 0 {
		t.Fatalf("stopwords only: %v, %v", got, err)
	}
}

func TestKeywordCandidates(t *testing.T) {
	got := keywordCandidates("La luz, la LUZ del sol")
	want := []string{"luz", "sol", "luz luz", "luz sol"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRankFloorKeepsAntipodalCandidates(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"día":   {1, 0},
		"noche": {-1, 0},
		"sol":   {0.8, 0.6},
	}}
	r := NewReranker(staticFactory(emb))
	got, err := r.Rank(context.Background(), "día", []string{"noche", "sol"}, 0, -1)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 0 {
		t.Fatalf("got %v, want both candidates best first", got)
	}
	if got[1].Score != -1 {
		t.Fatalf("antipodal score = %v", got[1].Score)
	}

	got, err = r.Rank(context.Background(), "día", []string{"noche", "sol"}, 0, -0.5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].Index != 1 {
		t.Fatalf("threshold above the floor must still filter: %v", got)
	}
}

type ragged struct{}

func (ragged) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, 3+i)
		out[i][0] = 1
	}
	return out, nil
}

func TestRankRejectsMismatchedDimensions(t *testing.T) {
	r := NewReranker(staticFactory(ragged{}))
	_, err := r.Rank(context.Background(), "luz", []string{"light", "lamp"}, 0, -1)
	if !errors.Is(err, core.ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
	if errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("a bad batch must not mark the model unavailable: %v", err)
	}
}
