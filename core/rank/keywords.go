package rank

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// KeywordExtractor implements core.KeywordExtractor. Candidate keywords are
// the content words of the phrase and their adjacent pairs; they are ranked
// by embedding similarity to the whole phrase.
type KeywordExtractor struct {
	ranker core.Ranker
}

// NewKeywordExtractor creates a KeywordExtractor scoring through ranker.
func NewKeywordExtractor(ranker core.Ranker) *KeywordExtractor {
	return &KeywordExtractor{ranker: ranker}
}

// Extract returns up to max keywords, most salient first. A phrase made only
// of stopwords yields none.
func (k *KeywordExtractor) Extract(ctx context.Context, phrase string, max int) ([]string, error) {
	cands := keywordCandidates(phrase)
	if len(cands) == 0 {
		return nil, nil
	}
	ranked, err := k.ranker.Rank(ctx, phrase, cands, max, -1)
	if err != nil {
		return nil, fmt.Errorf("ranking keywords of %q: %w", phrase, err)
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = cands[r.Index]
	}
	log.Debug().Str("target", "keywords").Str("phrase", phrase).Strs("keywords", out).Msg("extracted")
	return out, nil
}

// keywordCandidates lists unique unigrams then bigrams, in phrase order.
func keywordCandidates(phrase string) []string {
	tokens := contentTokens(phrase)
	seen := make(map[string]struct{}, 2*len(tokens))
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, t := range tokens {
		add(t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(strings.Join(tokens[i:i+2], " "))
	}
	return out
}
