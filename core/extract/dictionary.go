// Package extract recovers structured records from remote result pages.
// It handles two page kinds:
//  1. Image search results, whose records live in an inline script payload
//  2. Dictionary pages, whose records are spread over per-section markup
//
// Extraction is lenient: a record that does not match the expected layout is
// skipped, and only a page without any usable payload is an error.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// Section ids of the dictionary page blocks we know how to read.
const (
	SectionNeodict   = "dictionary-neodict-es"
	SectionNeoharrap = "dictionary-neoharrap-es"
)

var sectionSelector = cascadia.MustCompile(`#main-container-video div[id^="dictionary-"]`)

// SectionHandler extracts definitions from one dictionary section. A handler
// owns every layout assumption about its section, so a markup change only
// touches one handler.
type SectionHandler interface {
	Extract(section *goquery.Selection) []core.Definition
}

// DefaultHandlers maps section ids to their handlers.
func DefaultHandlers() map[string]SectionHandler {
	return map[string]SectionHandler{
		SectionNeodict:   NeodictHandler{},
		SectionNeoharrap: NeoharrapHandler{},
	}
}

// DictionaryParser turns a dictionary page into a DictionaryEntry.
type DictionaryParser struct {
	handlers map[string]SectionHandler
}

// NewDictionaryParser creates a parser using handlers, or DefaultHandlers
// when handlers is nil.
func NewDictionaryParser(handlers map[string]SectionHandler) *DictionaryParser {
	if handlers == nil {
		handlers = DefaultHandlers()
	}
	return &DictionaryParser{handlers: handlers}
}

// ParseDictionaryPage parses html with the default handlers.
func ParseDictionaryPage(word, html string) (core.DictionaryEntry, error) {
	return NewDictionaryParser(nil).Parse(word, html)
}

// Parse collects the definitions of every known section, in page order.
// Unknown sections are logged and ignored. A page without sections yields an
// entry with no definitions.
func (p *DictionaryParser) Parse(word, html string) (core.DictionaryEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return core.DictionaryEntry{}, fmt.Errorf("parsing HTML: %w", err)
	}

	entry := core.DictionaryEntry{Word: word}
	doc.FindMatcher(sectionSelector).Each(func(_ int, section *goquery.Selection) {
		id, _ := section.Attr("id")
		h, ok := p.handlers[id]
		if !ok {
			log.Info().Str("target", "spanish_dict").Str("section", id).Msg("unknown dictionary section")
			return
		}
		entry.Definitions = append(entry.Definitions, h.Extract(section)...)
	})
	log.Debug().Str("target", "spanish_dict").Str("word", word).Int("definitions", len(entry.Definitions)).Msg("page parsed")
	return entry, nil
}

// textify returns the concatenated text of s, trimmed, with a trailing ')'
// and a leading '(' removed.
func textify(s *goquery.Selection) string {
	t := strings.TrimSpace(s.Text())
	t = strings.TrimRight(t, ")")
	t = strings.TrimLeft(t, "(")
	return t
}
