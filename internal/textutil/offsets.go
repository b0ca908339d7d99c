package textutil

import "unicode/utf8"

// RuneByteOffsets returns the byte offset of each rune boundary in s. The
// result has rune-count+1 entries; the last is len(s). Matchers working in
// rune space use it to translate spans back to byte offsets.
func RuneByteOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return offsets
}

// ByteToRuneIndex maps each byte position of s to the index of the rune
// containing it. The result has len(s)+1 entries; the last maps len(s) to
// the rune count. Occurrence byte offsets translate to rune offsets in O(1).
func ByteToRuneIndex(s string) []int {
	index := make([]int, len(s)+1)
	runeIdx := -1
	for b := 0; b < len(s); b++ {
		if utf8.RuneStart(s[b]) {
			runeIdx++
		}
		index[b] = runeIdx
	}
	index[len(s)] = runeIdx + 1
	return index
}
