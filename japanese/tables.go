package japanese

// Kana and Romaji confusion tables. These are immutable package-level data;
// engines overlay config-file additions at construction without mutating
// them. The Romaji rule tables are ordered slices because each rule is a
// replace-all over the key and later rules see the output of earlier ones.

// kanaRomaji maps a hiragana mora to its lowercase Hepburn rendering.
// Two-rune digraphs (きゃ, しゅ, ふぁ, ...) are listed alongside single
// kana; the converter tries the digraph first.
var kanaRomaji = map[string]string{
	// Base vowels and consonant rows.
	"あ": "a", "い": "i", "う": "u", "え": "e", "お": "o",
	"か": "ka", "き": "ki", "く": "ku", "け": "ke", "こ": "ko",
	"さ": "sa", "し": "shi", "す": "su", "せ": "se", "そ": "so",
	"た": "ta", "ち": "chi", "つ": "tsu", "て": "te", "と": "to",
	"な": "na", "に": "ni", "ぬ": "nu", "ね": "ne", "の": "no",
	"は": "ha", "ひ": "hi", "ふ": "fu", "へ": "he", "ほ": "ho",
	"ま": "ma", "み": "mi", "む": "mu", "め": "me", "も": "mo",
	"や": "ya", "ゆ": "yu", "よ": "yo",
	"ら": "ra", "り": "ri", "る": "ru", "れ": "re", "ろ": "ro",
	"わ": "wa", "ゐ": "wi", "ゑ": "we", "を": "o", "ん": "n",

	// Voiced and semi-voiced rows.
	"が": "ga", "ぎ": "gi", "ぐ": "gu", "げ": "ge", "ご": "go",
	"ざ": "za", "じ": "ji", "ず": "zu", "ぜ": "ze", "ぞ": "zo",
	"だ": "da", "ぢ": "ji", "づ": "zu", "で": "de", "ど": "do",
	"ば": "ba", "び": "bi", "ぶ": "bu", "べ": "be", "ぼ": "bo",
	"ぱ": "pa", "ぴ": "pi", "ぷ": "pu", "ぺ": "pe", "ぽ": "po",
	"ゔ": "vu",

	// Small kana standing alone (degenerate input).
	"ぁ": "a", "ぃ": "i", "ぅ": "u", "ぇ": "e", "ぉ": "o",
	"ゃ": "ya", "ゅ": "yu", "ょ": "yo", "ゎ": "wa",

	// Yōon digraphs.
	"きゃ": "kya", "きゅ": "kyu", "きょ": "kyo",
	"しゃ": "sha", "しゅ": "shu", "しょ": "sho",
	"ちゃ": "cha", "ちゅ": "chu", "ちょ": "cho",
	"にゃ": "nya", "にゅ": "nyu", "にょ": "nyo",
	"ひゃ": "hya", "ひゅ": "hyu", "ひょ": "hyo",
	"みゃ": "mya", "みゅ": "myu", "みょ": "myo",
	"りゃ": "rya", "りゅ": "ryu", "りょ": "ryo",
	"ぎゃ": "gya", "ぎゅ": "gyu", "ぎょ": "gyo",
	"じゃ": "ja", "じゅ": "ju", "じょ": "jo",
	"ぢゃ": "ja", "ぢゅ": "ju", "ぢょ": "jo",
	"びゃ": "bya", "びゅ": "byu", "びょ": "byo",
	"ぴゃ": "pya", "ぴゅ": "pyu", "ぴょ": "pyo",

	// Extended digraphs for loanword readings.
	"ふぁ": "fa", "ふぃ": "fi", "ふぇ": "fe", "ふぉ": "fo", "ふゅ": "fyu",
	"てぃ": "ti", "でぃ": "di", "とぅ": "tu", "どぅ": "du",
	"うぃ": "wi", "うぇ": "we", "うぉ": "wo",
	"ゔぁ": "va", "ゔぃ": "vi", "ゔぇ": "ve", "ゔぉ": "vo",
	"しぇ": "she", "じぇ": "je", "ちぇ": "che",
	"つぁ": "tsa", "つぃ": "tsi", "つぇ": "tse", "つぉ": "tso",
	"いぇ": "ye",
}

// romajiVariantPairs rewrites non-Hepburn romanisations (Kunrei, Nihon-shiki,
// keyboard habits) to the Hepburn forms the backend emits. Ordered: each pair
// is applied as a replace-all in sequence.
var romajiVariantPairs = [][2]string{
	{"si", "shi"},
	{"ti", "chi"},
	{"tu", "tsu"},
	{"hu", "fu"},
	{"zi", "ji"},
	{"di", "ji"},
	{"du", "zu"},
	{"sya", "sha"},
	{"syu", "shu"},
	{"syo", "sho"},
	{"tya", "cha"},
	{"tyu", "chu"},
	{"tyo", "cho"},
	{"zya", "ja"},
	{"zyu", "ju"},
	{"zyo", "jo"},
	{"cya", "cha"},
	{"cyu", "chu"},
	{"cyo", "cho"},
	{"jya", "ja"},
	{"jyu", "ju"},
	{"jyo", "jo"},
	{"la", "ra"},
	{"li", "ri"},
	{"lu", "ru"},
	{"le", "re"},
	{"lo", "ro"},
}

// longVowelPairs collapses long vowels to short ones so 東京 keys equal
// whether heard as toukyou, tookyoo or tokyo.
var longVowelPairs = [][2]string{
	{"aa", "a"},
	{"ii", "i"},
	{"uu", "u"},
	{"ee", "e"},
	{"ei", "e"},
	{"oo", "o"},
	{"ou", "o"},
}

// geminationPairs collapses doubled consonants (sokuon) to single ones.
var geminationPairs = [][2]string{
	{"kk", "k"},
	{"tt", "t"},
	{"pp", "p"},
	{"ss", "s"},
	{"shsh", "sh"},
	{"tch", "ch"},
	{"dd", "d"},
	{"gg", "g"},
	{"bb", "b"},
}

// nasalPairs folds the m-coloured nasal before labials back to n, matching
// how ASR output spells しんぶん as either shinbun or shimbun.
var nasalPairs = [][2]string{
	{"mb", "nb"},
	{"mp", "np"},
	{"mm", "nm"},
}

// particleKana rewrites a particle kana to the kana actually pronounced:
// は read wa, を read o, へ read e. One-way, pronounced form is canonical.
var particleKana = map[rune]rune{
	'は': 'わ',
	'を': 'お',
	'へ': 'え',
}

// voicedKana maps each plain kana to its dakuten form. The generator walks
// both directions since ASR drops and invents voicing marks equally often.
var voicedKana = map[rune]rune{
	'か': 'が', 'き': 'ぎ', 'く': 'ぐ', 'け': 'げ', 'こ': 'ご',
	'さ': 'ざ', 'し': 'じ', 'す': 'ず', 'せ': 'ぜ', 'そ': 'ぞ',
	'た': 'だ', 'ち': 'ぢ', 'つ': 'づ', 'て': 'で', 'と': 'ど',
	'は': 'ば', 'ひ': 'び', 'ふ': 'ぶ', 'へ': 'べ', 'ほ': 'ぼ',
}

// unvoicedKana is the reverse of voicedKana.
var unvoicedKana = reverseKanaMap(voicedKana)

// semiVoicedKana maps the h-row to its handakuten form, walked both ways.
var semiVoicedKana = map[rune]rune{
	'は': 'ぱ', 'ひ': 'ぴ', 'ふ': 'ぷ', 'へ': 'ぺ', 'ほ': 'ぽ',
}

// unsemiVoicedKana is the reverse of semiVoicedKana.
var unsemiVoicedKana = reverseKanaMap(semiVoicedKana)

func reverseKanaMap(m map[rune]rune) map[rune]rune {
	out := make(map[rune]rune, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// similarKana lists kana pairs that share a pronunciation in modern
// Japanese (yotsugana and the ひ/し merger of Tokyo speech).
var similarKana = map[rune][]rune{
	'じ': {'ぢ'},
	'ぢ': {'じ'},
	'ず': {'づ'},
	'づ': {'ず'},
	'ひ': {'し'},
	'し': {'ひ'},
}

// kanjiHomophones maps a term surface to same-reading kanji spellings an
// ASR or IME plausibly substitutes: kyūjitai forms, different words that
// share a reading, and common conversion mistakes. Entries carry the
// canonical term's reading, so the generator keys them by the canonical's
// phonetic key rather than re-deriving one from the wrong spelling.
var kanjiHomophones = map[string][]string{
	"東京": {"凍京", "東經"},
	"大阪": {"大坂"},
	"京都": {"今日と"},
	"会社": {"會社"},
	"社会": {"社會"},
	"学校": {"學校"},
	"先生": {"専制"},
	"時間": {"次官"},
	"場所": {"場処"},
	"仕事": {"し事"},
	"電話": {"伝話"},
	"日本": {"二本"},
	"今日": {"京"},
	"橋":  {"箸", "端"},
	"雨":  {"飴"},
	"神":  {"紙", "髪"},
	"記者": {"汽車", "貴社", "帰社"},
	"機械": {"機会", "奇怪"},
	"意思": {"意志", "医師"},
	"衛星": {"衛生", "永世"},
	"保証": {"保障", "補償"},
}
