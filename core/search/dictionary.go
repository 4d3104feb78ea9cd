package search

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/extract"
)

// DefaultDictionaryURL is prefixed to the escaped word.
const DefaultDictionaryURL = "https://www.spanishdict.com/translate/"

// Dictionary implements core.Dictionary on top of the translation pages.
type Dictionary struct {
	fetcher core.Fetcher
	baseURL string
	parser  *extract.DictionaryParser
}

// NewDictionary creates a Dictionary. An empty baseURL selects
// DefaultDictionaryURL.
func NewDictionary(fetcher core.Fetcher, baseURL string) *Dictionary {
	if baseURL == "" {
		baseURL = DefaultDictionaryURL
	}
	return &Dictionary{
		fetcher: fetcher,
		baseURL: baseURL,
		parser:  extract.NewDictionaryParser(nil),
	}
}

// URL returns the translation page URL for word.
func (d *Dictionary) URL(word string) string {
	return d.baseURL + url.PathEscape(word)
}

// Lookup fetches and parses the translation page of word. Only transport and
// HTML parse failures are errors; a page without known sections yields an
// entry with no definitions.
func (d *Dictionary) Lookup(ctx context.Context, word string) (core.DictionaryEntry, error) {
	u := d.URL(word)
	log.Debug().Str("target", "spanish_dict").Str("url", u).Msg("looking up")
	res, err := d.fetcher.Fetch(ctx, u)
	if err != nil {
		return core.DictionaryEntry{}, fmt.Errorf("dictionary lookup %q: %w", word, err)
	}
	entry, err := d.parser.Parse(word, res.HTML)
	if err != nil {
		return core.DictionaryEntry{}, fmt.Errorf("dictionary lookup %q: %w", word, err)
	}
	return entry, nil
}
