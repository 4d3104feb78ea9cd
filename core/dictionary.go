package core

// DictionaryEntry is everything recovered for one word from a dictionary page.
type DictionaryEntry struct {
	Word        string
	Definitions []Definition
}

// Definition is one of PlainDefinition, GroupedDefinition or
// GroupedDefinitionWithExamples, depending on how much structure the page
// exposed for the entry.
type Definition interface {
	DefinitionText() string
	isDefinition()
}

// PlainDefinition carries only the definition text.
type PlainDefinition struct {
	Text string
}

// GroupedDefinition carries the definition and its group label (e.g. "noun").
type GroupedDefinition struct {
	Group string
	Text  string
}

// GroupedDefinitionWithExamples is a grouped definition with example sentences.
type GroupedDefinitionWithExamples struct {
	Group    string
	Text     string
	Examples []Example
}

func (d PlainDefinition) DefinitionText() string               { return d.Text }
func (d GroupedDefinition) DefinitionText() string             { return d.Text }
func (d GroupedDefinitionWithExamples) DefinitionText() string { return d.Text }

func (PlainDefinition) isDefinition()               {}
func (GroupedDefinition) isDefinition()             {}
func (GroupedDefinitionWithExamples) isDefinition() {}

// Example is either a PlainExample or a TranslatedExample.
type Example interface {
	Sentence() string
	isExample()
}

// PlainExample is an example sentence without translation.
type PlainExample struct {
	Text string
}

// TranslatedExample is an example sentence and its translation.
type TranslatedExample struct {
	Text        string
	Translation string
}

func (e PlainExample) Sentence() string      { return e.Text }
func (e TranslatedExample) Sentence() string { return e.Text }

func (PlainExample) isExample()      {}
func (TranslatedExample) isExample() {}
