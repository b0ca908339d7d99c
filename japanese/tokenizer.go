package japanese

import (
	"github.com/JonesHong/phonofix"
)

// Tokenizer emits one token per morpheme as segmented by the backend's
// analyzer. Punctuation, whitespace, and symbol tokens produce no token,
// and candidate windows never bridge the resulting gaps.
type Tokenizer struct {
	backend *Backend
}

var _ phonofix.Tokenizer = (*Tokenizer)(nil)

// NewTokenizer returns a tokenizer over the given backend, or the shared
// one when backend is nil.
func NewTokenizer(backend *Backend) *Tokenizer {
	if backend == nil {
		backend = Shared()
	}
	return &Tokenizer{backend: backend}
}

// Tokenize returns the matchable morphemes of text with their byte offsets.
func (t *Tokenizer) Tokenize(text string) []phonofix.Token {
	morphs := t.backend.segment(text)
	tokens := make([]phonofix.Token, len(morphs))
	for i, m := range morphs {
		tokens[i] = phonofix.Token{Surface: m.surface, Start: m.start, End: m.end}
	}
	return tokens
}
