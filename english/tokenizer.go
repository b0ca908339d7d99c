package english

import (
	"unicode"

	"github.com/JonesHong/phonofix"
)

// Tokenizer emits one token per word. Whitespace and punctuation produce no
// token; fuzzy windows join adjacent tokens and recover their spans from
// the token offsets.
type Tokenizer struct{}

var _ phonofix.Tokenizer = Tokenizer{}

// Tokenize returns the words of text with their byte offsets. A word is a
// maximal run of letters and digits; interior apostrophes are kept so
// contractions stay one token, trailing ones are trimmed.
func (Tokenizer) Tokenize(text string) []phonofix.Token {
	tokens := make([]phonofix.Token, 0, len(text)/5)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		for end > start && text[end-1] == '\'' {
			end--
		}
		if end > start {
			tokens = append(tokens, phonofix.Token{
				Surface: text[start:end],
				Start:   start,
				End:     end,
			})
		}
		start = -1
	}
	for i, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start < 0 {
				start = i
			}
		case r == '\'' && start >= 0:
			// Interior apostrophe: part of the running word.
		default:
			flush(i)
		}
	}
	flush(len(text))
	return tokens
}
