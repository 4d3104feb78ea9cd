package core

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flashcards serialize as a two-element sequence [word, definition].
// Decoding also accepts the {word, definition} mapping form.

// MarshalJSON encodes the card as ["word", "definition"].
func (f Flashcard) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Word, f.Definition})
}

// UnmarshalJSON decodes either form.
func (f *Flashcard) UnmarshalJSON(data []byte) error {
	var seq []string
	if err := json.Unmarshal(data, &seq); err == nil {
		return f.fromSeq(seq)
	}
	type plain Flashcard
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("flashcard: expected [word, definition] or mapping: %w", err)
	}
	*f = Flashcard(p)
	return nil
}

// MarshalYAML encodes the card as a flow sequence.
func (f Flashcard) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	node.Content = []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Word},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Definition},
	}
	return node, nil
}

// UnmarshalYAML decodes either form.
func (f *Flashcard) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var seq []string
		if err := value.Decode(&seq); err != nil {
			return err
		}
		return f.fromSeq(seq)
	case yaml.MappingNode:
		type plain Flashcard
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*f = Flashcard(p)
		return nil
	default:
		return fmt.Errorf("flashcard: line %d: expected a sequence with two elements", value.Line)
	}
}

func (f *Flashcard) fromSeq(seq []string) error {
	if len(seq) != 2 {
		return fmt.Errorf("flashcard: expected a sequence with two elements, got %d", len(seq))
	}
	f.Word, f.Definition = seq[0], seq[1]
	return nil
}
