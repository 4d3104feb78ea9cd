package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// DefaultFallbackAttempts bounds the keyword lookups tried after an empty
// direct lookup.
const DefaultFallbackAttempts = 2

// FallbackDictionary wraps a Dictionary with transport retries and a keyword
// fallback: when a word yields no definitions, its most salient keywords are
// looked up instead and the first non-empty entry wins.
type FallbackDictionary struct {
	dict     core.Dictionary
	keywords core.KeywordExtractor
	attempts int
	retries  int
	backoff  time.Duration
}

// NewFallbackDictionary creates a FallbackDictionary. attempts <= 0 selects
// DefaultFallbackAttempts. retries is the number of extra tries for a lookup
// failing with a retryable error, spaced by a linear backoff.
func NewFallbackDictionary(dict core.Dictionary, keywords core.KeywordExtractor, attempts, retries int, backoff time.Duration) *FallbackDictionary {
	if attempts <= 0 {
		attempts = DefaultFallbackAttempts
	}
	if retries < 0 {
		retries = 0
	}
	return &FallbackDictionary{dict: dict, keywords: keywords, attempts: attempts, retries: retries, backoff: backoff}
}

// Lookup implements core.Dictionary. An entry is returned under the original
// word even when a keyword supplied its definitions. ErrNoCandidates means
// both the word and every keyword came back empty.
func (f *FallbackDictionary) Lookup(ctx context.Context, word string) (core.DictionaryEntry, error) {
	entry, err := f.lookup(ctx, word)
	if err != nil {
		return core.DictionaryEntry{}, err
	}
	if len(entry.Definitions) > 0 {
		return entry, nil
	}
	if f.keywords == nil {
		return core.DictionaryEntry{}, fmt.Errorf("no definitions for %q: %w", word, core.ErrNoCandidates)
	}

	kws, err := f.keywords.Extract(ctx, word, f.attempts)
	if err != nil {
		return core.DictionaryEntry{}, fmt.Errorf("keyword fallback for %q: %w", word, err)
	}
	log.Debug().Str("target", "spanish_dict").Str("word", word).Strs("keywords", kws).Msg("no definitions, trying keywords")

	var lastErr error
	for i, kw := range kws {
		if i >= f.attempts {
			break
		}
		e, err := f.lookup(ctx, kw)
		if err != nil {
			if ctx.Err() != nil {
				return core.DictionaryEntry{}, err
			}
			lastErr = err
			continue
		}
		if len(e.Definitions) > 0 {
			log.Debug().Str("target", "spanish_dict").Str("word", word).Str("keyword", kw).Msg("keyword lookup succeeded")
			return core.DictionaryEntry{Word: word, Definitions: e.Definitions}, nil
		}
	}
	if lastErr != nil {
		return core.DictionaryEntry{}, fmt.Errorf("no definitions for %q after %d keywords: %w: %w", word, len(kws), core.ErrNoCandidates, lastErr)
	}
	return core.DictionaryEntry{}, fmt.Errorf("no definitions for %q after %d keywords: %w", word, len(kws), core.ErrNoCandidates)
}

// lookup retries retryable failures.
func (f *FallbackDictionary) lookup(ctx context.Context, word string) (core.DictionaryEntry, error) {
	for attempt := 0; ; attempt++ {
		entry, err := f.dict.Lookup(ctx, word)
		if err == nil || !core.Retryable(err) || attempt >= f.retries {
			return entry, err
		}
		log.Debug().Str("target", "spanish_dict").Str("word", word).Int("attempt", attempt+1).Err(err).Msg("retrying lookup")
		select {
		case <-ctx.Done():
			return core.DictionaryEntry{}, ctx.Err()
		case <-time.After(f.backoff * time.Duration(attempt+1)):
		}
	}
}
