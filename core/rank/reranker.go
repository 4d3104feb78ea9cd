// Package rank scores candidate texts against a query by embedding
// similarity. The embedding model is built lazily, once per Reranker, and
// every encode call is serialized through it.
package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// ErrModelUnavailable means the embedding model could not be constructed.
// It is sticky: every later Rank call on the same Reranker fails with it.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Reranker implements core.Ranker.
type Reranker struct {
	factory ModelFactory

	once    sync.Once
	model   Embedder
	initErr error

	// mu serializes inference; the model is not safe for concurrent encodes.
	mu sync.Mutex
}

// NewReranker creates a Reranker. The factory runs on the first Rank call.
func NewReranker(factory ModelFactory) *Reranker {
	return &Reranker{factory: factory}
}

func (r *Reranker) load(ctx context.Context) (Embedder, error) {
	r.once.Do(func() {
		log.Info().Str("target", "reranker").Msg("loading embedding model")
		// Construction outlives the first caller's deadline.
		m, err := r.factory(context.WithoutCancel(ctx))
		if err == nil && m == nil {
			err = errors.New("factory returned no model")
		}
		if err != nil {
			r.initErr = fmt.Errorf("%w: %w: %w", core.ErrModel, ErrModelUnavailable, err)
			log.Error().Str("target", "reranker").Err(err).Msg("embedding model unavailable")
			return
		}
		r.model = m
	})
	return r.model, r.initErr
}

// encode runs one batched inference under the model lock.
func (r *Reranker) encode(ctx context.Context, texts []string) ([][]float32, error) {
	m, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vecs, err := m.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %d texts: %w", core.ErrModel, len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", core.ErrModel, len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) == 0 || len(v) != len(vecs[0]) {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", core.ErrModel, i, len(v), len(vecs[0]))
		}
	}
	return vecs, nil
}

// Rank scores candidates against query by cosine similarity, keeps those
// scoring above threshold and returns them best first. A threshold of -1 or
// below keeps every candidate, antipodal ones included. Equal scores keep
// input order. A limit of 0 or less returns every kept candidate.
func (r *Reranker) Rank(ctx context.Context, query string, candidates []string, limit int, threshold float64) ([]core.RankedCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	texts = append(texts, candidates...)
	vecs, err := r.encode(ctx, texts)
	if err != nil {
		return nil, err
	}

	q := vecs[0]
	keepAll := threshold <= -1
	ranked := make([]core.RankedCandidate, 0, len(candidates))
	for i, v := range vecs[1:] {
		score := Cosine(q, v)
		if keepAll || score > threshold {
			ranked = append(ranked, core.RankedCandidate{Index: i, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scoreLess(ranked[j].Score, ranked[i].Score)
	})
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	log.Debug().Str("target", "reranker").Str("query", query).Int("candidates", len(candidates)).Int("kept", len(ranked)).Msg("ranked")
	return ranked, nil
}

// scoreLess orders NaN below every number.
func scoreLess(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return !math.IsNaN(b)
	case math.IsNaN(b):
		return false
	default:
		return a < b
	}
}

// Cosine returns dot(a, b) / (|a| |b|), computed in float64. A zero vector
// scores 0 against anything. Callers pass vectors of equal length; encode
// rejects mismatched batches.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / math.Sqrt(na*nb)
	return math.Max(-1, math.Min(1, c))
}
