// Package core defines the pipeline types and interfaces for vocabpipe.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Flashcard is the input unit: a word and its definition.
type Flashcard struct {
	Word       string `json:"word" yaml:"word"`
	Definition string `json:"definition" yaml:"definition"`
}

func (f Flashcard) String() string { return f.Word + ": " + f.Definition }

// ImageCandidate is one result recovered from an image search page.
type ImageCandidate struct {
	ThumbURL      string
	ThumbWidth    int
	ThumbHeight   int
	FullURL       string
	FullWidth     int
	FullHeight    int
	Title         string
	SourcePageURL string
}

// RankedCandidate is a reranker hit: the candidate's input index and its score.
type RankedCandidate struct {
	Index int
	Score float64
}

// Fetcher retrieves pages and raw bytes over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageSearcher returns image candidates for a query.
type ImageSearcher interface {
	Search(ctx context.Context, query string, offset int) ([]ImageCandidate, error)
	SearchUpTo(ctx context.Context, query string, max int) ([]ImageCandidate, error)
}

// Dictionary looks a word up in an online dictionary.
type Dictionary interface {
	Lookup(ctx context.Context, word string) (DictionaryEntry, error)
}

// Ranker scores candidate strings against a query.
// A limit of 0 returns every candidate scoring above threshold.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []string, limit int, threshold float64) ([]RankedCandidate, error)
}

// KeywordExtractor picks the most salient keywords of a word or phrase.
type KeywordExtractor interface {
	Extract(ctx context.Context, phrase string, max int) ([]string, error)
}

// Layout is the grid a renderer places cards on.
type Layout struct {
	Rows     int
	Columns  int
	FontSize float64
}

// Renderer converts enriched cards into a final document format.
type Renderer interface {
	Render(cards []VisualFlashcard, layout Layout) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".pdf").
	Extension() string
}
