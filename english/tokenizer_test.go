package english

import (
	"testing"

	"github.com/JonesHong/phonofix"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want []phonofix.Token
	}{
		{
			name: "plain words",
			text: "I use Pyton to write code",
			want: []phonofix.Token{
				{Surface: "I", Start: 0, End: 1},
				{Surface: "use", Start: 2, End: 5},
				{Surface: "Pyton", Start: 6, End: 11},
				{Surface: "to", Start: 12, End: 14},
				{Surface: "write", Start: 15, End: 20},
				{Surface: "code", Start: 21, End: 25},
			},
		},
		{
			name: "punctuation splits",
			text: "hello, world!",
			want: []phonofix.Token{
				{Surface: "hello", Start: 0, End: 5},
				{Surface: "world", Start: 7, End: 12},
			},
		},
		{
			name: "interior apostrophe kept",
			text: "don't stop",
			want: []phonofix.Token{
				{Surface: "don't", Start: 0, End: 5},
				{Surface: "stop", Start: 6, End: 10},
			},
		},
		{
			name: "trailing apostrophe trimmed",
			text: "rockin' beat",
			want: []phonofix.Token{
				{Surface: "rockin", Start: 0, End: 6},
				{Surface: "beat", Start: 8, End: 12},
			},
		},
		{
			name: "leading apostrophe skipped",
			text: "'ello",
			want: []phonofix.Token{
				{Surface: "ello", Start: 1, End: 5},
			},
		},
		{
			name: "digit runs are tokens",
			text: "room 42",
			want: []phonofix.Token{
				{Surface: "room", Start: 0, End: 4},
				{Surface: "42", Start: 5, End: 7},
			},
		},
		{
			name: "multibyte letters keep byte offsets",
			text: "café au lait",
			want: []phonofix.Token{
				{Surface: "café", Start: 0, End: 5},
				{Surface: "au", Start: 6, End: 8},
				{Surface: "lait", Start: 9, End: 13},
			},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "punctuation only",
			text: "... !?",
			want: nil,
		},
	}

	var tok Tokenizer
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tok.Tokenize(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d tokens %v, want %d", len(got), got, len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("token %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestTokenizeSpansSliceOriginal(t *testing.T) {
	t.Parallel()
	text := "naïve re-entry"
	for _, tok := range (Tokenizer{}).Tokenize(text) {
		if text[tok.Start:tok.End] != tok.Surface {
			t.Fatalf("span [%d,%d) = %q, surface %q",
				tok.Start, tok.End, text[tok.Start:tok.End], tok.Surface)
		}
	}
}
