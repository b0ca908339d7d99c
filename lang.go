package phonofix

// Lang identifies a supported correction language. Values follow BCP 47
// primary subtags so they can flow into logs and config files unmodified.
type Lang string

const (
	// LangChinese matches Han text in the Pinyin phonetic domain.
	LangChinese Lang = "zh"

	// LangEnglish matches Latin text in the IPA phonetic domain.
	LangEnglish Lang = "en"

	// LangJapanese matches kana and kanji text in the Romaji phonetic
	// domain.
	LangJapanese Lang = "ja"
)

// IsValid reports whether l names a supported language.
func (l Lang) IsValid() bool {
	switch l {
	case LangChinese, LangEnglish, LangJapanese:
		return true
	}
	return false
}

func (l Lang) String() string { return string(l) }
