package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// Positions inside a neoharrap group. The section exposes no attributes on
// these blocks, only their order.
const (
	harrapBodyChild        = 1 // group > body (2nd child)
	harrapHeaderLabelChild = 2 // group > header (1st child) > label (3rd child)
	harrapRowLen           = 3 // body > first child > [?, definition, examples]
	harrapRowDefinition    = 1
	harrapExampleLen       = 3 // example > [text, separator, translation]
	harrapExampleText      = 0
	harrapExampleTrans     = 2
)

// NeoharrapHandler reads the positional neoharrap section.
type NeoharrapHandler struct{}

// groups walks section > div > div > div:nth-child(2) > div.
func (NeoharrapHandler) groups(section *goquery.Selection) *goquery.Selection {
	return section.
		ChildrenFiltered("div").
		ChildrenFiltered("div").
		ChildrenFiltered("div:nth-child(2)").
		ChildrenFiltered("div")
}

// Extract implements SectionHandler.
func (h NeoharrapHandler) Extract(section *goquery.Selection) []core.Definition {
	var defs []core.Definition
	h.groups(section).Each(func(_ int, group *goquery.Selection) {
		if d, ok := h.group(group); ok {
			defs = append(defs, d)
		}
	})
	return defs
}

func (NeoharrapHandler) group(group *goquery.Selection) (core.Definition, bool) {
	row := group.Children().Eq(harrapBodyChild).Children().First().Children()
	if row.Length() == 0 {
		return nil, false
	}

	var text string
	if row.Length() == harrapRowLen {
		text = textify(row.Eq(harrapRowDefinition))
	}
	label := textify(group.Children().First().Children().Eq(harrapHeaderLabelChild))

	last := row.Last()
	if last.Contents().Length() == 0 {
		return nil, false
	}

	var examples []core.Example
	last.Children().Each(func(_ int, ex *goquery.Selection) {
		parts := ex.Children()
		if parts.Length() != harrapExampleLen {
			return
		}
		examples = append(examples, core.TranslatedExample{
			Text:        textify(parts.Eq(harrapExampleText)),
			Translation: textify(parts.Eq(harrapExampleTrans)),
		})
	})

	if len(examples) == 0 {
		return core.GroupedDefinition{Group: label, Text: text}, true
	}
	return core.GroupedDefinitionWithExamples{Group: label, Text: text, Examples: examples}, true
}
