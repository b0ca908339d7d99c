// Package textutil holds the script classification and normalisation
// helpers shared by the language engines and the router.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IsHan reports whether r is a CJK unified ideograph.
func IsHan(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// IsHiragana reports whether r is in the hiragana block.
func IsHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}

// IsKatakana reports whether r is in the katakana block.
func IsKatakana(r rune) bool {
	return r >= 0x30A0 && r <= 0x30FF
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return IsHiragana(r) || IsKatakana(r)
}

// IsASCII reports whether r is a 7-bit ASCII code point.
func IsASCII(r rune) bool {
	return r < 0x80
}

// IsASCIIAlnum reports whether r is an ASCII letter or digit.
func IsASCIIAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// ContainsHan reports whether s contains at least one CJK ideograph.
func ContainsHan(s string) bool {
	return strings.ContainsFunc(s, IsHan)
}

// ContainsASCIILetter reports whether s contains at least one ASCII letter.
func ContainsASCIILetter(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	})
}

// IsNumeric reports whether s is non-empty and consists of ASCII digits,
// separators, and spaces only. The router uses it to keep bare figures
// attached to the surrounding CJK sentence.
func IsNumeric(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == ' ' || r == '%':
		default:
			return false
		}
	}
	return true
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes combining diacritical marks: "café" becomes "cafe".
// English graphemes only; phonetic symbols pass through untouched because
// they carry no combining marks after NFD.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
