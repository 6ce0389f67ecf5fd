// Package moderation masks censored words in outbound chat content before
// it reaches the store, so the masked form is the only form that is ever
// persisted or broadcast.
package moderation

import (
	_ "embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"orai-chat/errors"
)

//go:embed words.txt
var defaultWords string

// Censor masks occurrences of forbidden words using an Aho-Corasick
// automaton built once at construction. Matching is case-insensitive on
// the original rune positions, so spacing and casing of the surrounding
// text are preserved.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(strings.ToLower(word))
		if word == "" {
			continue
		}
		patterns = append(patterns, []rune(word))
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, mask: mask}, nil
}

// NewDefaultCensor builds a censor from the embedded word list.
func NewDefaultCensor(mask rune) (*Censor, error) {
	return NewCensor(strings.Split(defaultWords, "\n"), mask)
}

// Apply returns text with every forbidden span replaced by the mask rune.
func (c *Censor) Apply(text string) string {
	original := []rune(text)
	lowered := make([]rune, len(original))
	for i, r := range original {
		lowered[i] = unicode.ToLower(r)
	}

	spans := c.machine.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return text
	}
	for _, span := range spans {
		end := span.Pos + len(span.Word)
		if span.Pos < 0 || end > len(original) {
			continue
		}
		for i := span.Pos; i < end; i++ {
			original[i] = c.mask
		}
	}
	return string(original)
}
