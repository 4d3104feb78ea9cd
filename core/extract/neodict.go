package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// The neodict section tags blocks by language: each English group header is
// followed by a sibling whose children are the definition blocks.
var (
	neodictGroup       = cascadia.MustCompile(`div[lang] div[lang^="en"]`)
	neodictGroupLabel  = cascadia.MustCompile(`span:last-child`)
	neodictDefinition  = cascadia.MustCompile(`a[lang="en"]`)
	neodictExample     = cascadia.MustCompile(`span[lang="es"]`)
	neodictTranslation = cascadia.MustCompile(`span[lang="en"]`)
)

// NeodictHandler reads the language-tagged neodict section. Every definition
// it emits carries exactly one example; example and translation are empty
// when the markup has none.
type NeodictHandler struct{}

// Extract implements SectionHandler.
func (NeodictHandler) Extract(section *goquery.Selection) []core.Definition {
	var defs []core.Definition
	section.FindMatcher(neodictGroup).Each(func(_ int, group *goquery.Selection) {
		label := textify(group.FindMatcher(neodictGroupLabel).First())
		group.Next().Children().Each(func(_ int, block *goquery.Selection) {
			link := block.FindMatcher(neodictDefinition).First()
			if link.Length() == 0 {
				return
			}
			defs = append(defs, core.GroupedDefinitionWithExamples{
				Group: label,
				Text:  textify(link),
				Examples: []core.Example{core.TranslatedExample{
					Text:        textify(block.FindMatcher(neodictExample).First()),
					Translation: textify(block.FindMatcher(neodictTranslation).First()),
				}},
			})
		})
	})
	return defs
}
