package chinese

import (
	"unicode/utf8"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// Tokenizer emits one token per matchable rune: Han characters and ASCII
// alphanumerics. Punctuation, whitespace, and other scripts produce no
// token, and candidate windows never bridge the resulting gaps.
type Tokenizer struct{}

var _ phonofix.Tokenizer = Tokenizer{}

// Tokenize returns the matchable runes of text with their byte offsets.
func (Tokenizer) Tokenize(text string) []phonofix.Token {
	tokens := make([]phonofix.Token, 0, len(text)/3)
	for i, r := range text {
		if !textutil.IsHan(r) && !textutil.IsASCIIAlnum(r) {
			continue
		}
		tokens = append(tokens, phonofix.Token{
			Surface: string(r),
			Start:   i,
			End:     i + utf8.RuneLen(r),
		})
	}
	return tokens
}
