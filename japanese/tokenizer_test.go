package japanese

import "testing"

func TestTokenizeSkipsPunctuation(t *testing.T) {
	tok := NewTokenizer(testBackend(t))
	text := "先生、konnichiwa"
	tokens := tok.Tokenize(text)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens %+v, want 2", len(tokens), tokens)
	}
	if tokens[0].Surface != "先生" || tokens[0].Start != 0 || tokens[0].End != 6 {
		t.Fatalf("first token = %+v", tokens[0])
	}
	if tokens[1].Surface != "konnichiwa" || tokens[1].Start != 9 || tokens[1].End != 19 {
		t.Fatalf("second token = %+v", tokens[1])
	}
	for _, tk := range tokens {
		if text[tk.Start:tk.End] != tk.Surface {
			t.Fatalf("token %+v does not slice back to its surface", tk)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer(nil)
	if got := tok.Tokenize(""); len(got) != 0 {
		t.Fatalf("Tokenize(\"\") = %+v, want none", got)
	}
}
