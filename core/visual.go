package core

import "fmt"

// VisualFlashcard is the enriched card handed to a renderer.
type VisualFlashcard struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Image      []byte `json:"image"`
	Example    string `json:"example"`
}

// NewVisualFlashcard builds a card. Image and example must be non-empty.
func NewVisualFlashcard(card Flashcard, image []byte, example string) (*VisualFlashcard, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("visual flashcard %q: empty image: %w", card.Word, ErrNoCandidates)
	}
	if example == "" {
		return nil, fmt.Errorf("visual flashcard %q: empty example: %w", card.Word, ErrNoCandidates)
	}
	return &VisualFlashcard{
		Word:       card.Word,
		Definition: card.Definition,
		Image:      image,
		Example:    example,
	}, nil
}

// State is the position of one enrichment task in its lifecycle.
type State int

const (
	StatePending State = iota
	StateFetchingImages
	StateFetchingDictionary
	StateRanking
	StatePickingImage
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StatePending:            "pending",
	StateFetchingImages:     "fetching_images",
	StateFetchingDictionary: "fetching_dictionary",
	StateRanking:            "ranking",
	StatePickingImage:       "picking_image",
	StateDone:               "done",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Result is the outcome of enriching one flashcard. Exactly one of Visual
// and Err is set; a Result with Err is a placeholder.
type Result struct {
	Index  int
	Card   Flashcard
	Visual *VisualFlashcard
	// State is StateDone or StateFailed.
	State State
	// FailedAt is the stage that was running when the task failed.
	FailedAt State
	Err      error
}

// Placeholder reports whether the enrichment for this card failed.
func (r Result) Placeholder() bool { return r.Visual == nil }

// Usable returns the successful cards of results, in order.
func Usable(results []Result) []VisualFlashcard {
	out := make([]VisualFlashcard, 0, len(results))
	for _, r := range results {
		if !r.Placeholder() {
			out = append(out, *r.Visual)
		}
	}
	return out
}
