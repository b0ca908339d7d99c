package english

import (
	"cmp"
	"slices"
)

// IPA confusion tables and surface rule data. Immutable package-level data;
// engines overlay config additions at construction without mutating them.

// fuzzyPhonemeGroups clusters confusable phonemes. A phoneme's group index
// drives the fuzzy bucket key and the group-signature distance; lookup takes
// the first group containing the rune, so order is part of the contract.
var fuzzyPhonemeGroups = [][]rune{
	{'p', 'b'},
	{'t', 'd'},
	{'k', 'g'},
	{'f', 'v'},
	{'s', 'z'},
	{'θ', 'ð'},
	{'ʃ', 'ʒ'},
	{'ʧ', 'ʤ', 't', 'd'},
	{'m', 'n', 'ŋ'},
	{'l', 'r', 'ɹ'},
	{'w', 'ʍ'},
	{'i', 'ɪ', 'e', 'ɛ'},
	{'u', 'ʊ', 'o', 'ɔ'},
	{'a', 'ɑ', 'æ', 'ʌ'},
}

// phonemeGroupOf resolves a phoneme rune to its first group index.
var phonemeGroupOf = buildPhonemeGroupOf()

func buildPhonemeGroupOf() map[rune]int {
	m := make(map[rune]int)
	for idx, group := range fuzzyPhonemeGroups {
		for _, r := range group {
			if _, taken := m[r]; !taken {
				m[r] = idx
			}
		}
	}
	return m
}

// voicingConfusions pairs voiceless phonemes with their voiced counterparts
// (pit/bit, seal/zeal, cheap/jeep). Applied in both directions.
var voicingConfusions = [][2]string{
	{"p", "b"},
	{"t", "d"},
	{"k", "ɡ"},
	{"f", "v"},
	{"s", "z"},
	{"θ", "ð"},
	{"ʃ", "ʒ"},
	{"tʃ", "dʒ"},
}

// vowelLengthConfusions pairs long vowels with the short or lax vowels they
// collapse into in fast speech (sheep/ship, pool/pull). Both directions.
var vowelLengthConfusions = [][2]string{
	{"iː", "ɪ"},
	{"uː", "ʊ"},
	{"ɔː", "ɒ"},
	{"ɑː", "æ"},
	{"ɑː", "ʌ"},
	{"ɜː", "ə"},
	{"eɪ", "e"},
	{"oʊ", "ɔ"},
	{"aɪ", "a"},
	{"aʊ", "a"},
}

// similarPhoneConfusions pairs phonemes with close place or manner of
// articulation (think/fink, rice/lice, wine/vine). Both directions.
var similarPhoneConfusions = [][2]string{
	{"θ", "f"},
	{"ð", "v"},
	{"θ", "s"},
	{"ð", "z"},
	{"r", "l"},
	{"n", "m"},
	{"ŋ", "n"},
	{"w", "v"},
	{"b", "v"},
	{"p", "f"},
	{"ʃ", "s"},
	{"ʒ", "z"},
	{"tʃ", "ʃ"},
	{"dʒ", "ʒ"},
	{"j", "dʒ"},
}

// reductionRules are one-way fast-speech simplifications (singing→singin,
// want→wan, h-dropping). Applied source to target only.
var reductionRules = [][2]string{
	{"ɪŋ", "ɪn"},
	{"ər", "ə"},
	{"ŋɡ", "ŋ"},
	{"kw", "k"},
	{"nt", "n"},
	{"nd", "n"},
	{"ld", "l"},
	{"h", ""},
}

// ipaToGrapheme maps a phoneme to its English spellings, most common first.
// Back-projection takes the head; variant expansion may take the next two
// for the phonemes in specialPhonemes.
var ipaToGrapheme = map[string][]string{
	"p": {"p"},
	"b": {"b"},
	"t": {"t", "tt"},
	"d": {"d", "dd"},
	"k": {"k", "c", "ck"},
	"ɡ": {"g", "gg"},
	"f": {"f", "ff", "ph"},
	"v": {"v"},
	"s": {"s", "ss", "c"},
	"z": {"z", "zz", "s"},
	"m": {"m", "mm"},
	"n": {"n", "nn"},
	"l": {"l", "ll"},
	"r": {"r", "rr"},
	"ɹ": {"r", "rr"},
	"h": {"h"},

	"θ":  {"th"},
	"ð":  {"th"},
	"ʃ":  {"sh", "ti", "ci", "ch"},
	"ʒ":  {"s", "si", "zi", "g"},
	"tʃ": {"ch", "tch", "t"},
	"dʒ": {"j", "g", "dge", "dg"},
	"ŋ":  {"ng", "n"},
	"j":  {"y", "i"},
	"w":  {"w", "u", "o"},

	"iː": {"ee", "ea", "e", "ie", "ei", "i"},
	"ɪ":  {"i", "y", "e"},
	"e":  {"e", "ea"},
	"ɛ":  {"e", "ea"},
	"æ":  {"a"},
	"ɑ":  {"a", "o"},
	"ɑː": {"a", "ar", "ah"},
	"ɒ":  {"o", "a"},
	"ɔ":  {"o", "aw", "au"},
	"ɔː": {"or", "aw", "au", "al"},
	"ʊ":  {"oo", "u", "ou"},
	"uː": {"oo", "u", "ue", "ew", "o"},
	"ʌ":  {"u", "o", "ou"},
	"ɜː": {"er", "ir", "ur", "or"},
	"ə":  {"a", "e", "o", "u", "i"},

	"eɪ": {"a", "ay", "ai", "ey", "ea"},
	"aɪ": {"y", "i", "igh", "ie"},
	"ɔɪ": {"oy", "oi"},
	"oʊ": {"o", "ow", "oa"},
	"aʊ": {"ou", "ow"},
	"ɪə": {"ear", "eer", "ere"},
	"eə": {"are", "air", "ear"},
	"ʊə": {"ure", "our"},
}

// specialPhonemes marks the phonemes whose spelling choice changes a word's
// look enough to be worth alternate back-projections.
var specialPhonemes = map[string]bool{
	"θ": true, "ð": true, "ʃ": true, "ʒ": true, "tʃ": true, "dʒ": true,
	"ŋ": true, "iː": true, "eɪ": true, "aɪ": true, "oʊ": true, "aʊ": true,
	"ɔː": true, "uː": true, "ɜː": true,
}

// sortedPhonemes lists ipaToGrapheme keys longest first, so greedy
// segmentation matches tʃ before t.
var sortedPhonemes = buildSortedPhonemes()

func buildSortedPhonemes() []string {
	out := make([]string, 0, len(ipaToGrapheme))
	for p := range ipaToGrapheme {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out
}

// asrSplits maps a lowercased word root to syllable splits and mishearings
// speech recognisers commonly emit for it.
var asrSplits = map[string][]string{
	"tensor": {"ten so", "ten sor", "tense or", "ten sir"},
	"flow":   {"flo", "floor", "flew"},
	"script": {"scrip", "scrypt", "scrip t"},
	"python": {"pie thon", "pi thon", "pyton", "pie ton"},
	"java":   {"jav a", "jawa"},
	"react":  {"re act", "reac", "ree act"},
	"torch":  {"tor ch", "tourch", "torque"},

	"docker":     {"dock er", "doc ker", "dauker", "docket"},
	"kube":       {"cube", "coop", "koop", "cue be"},
	"kubernetes": {"cooper net ease", "cooper net is", "cube er net ease", "kube er net ease", "cooper nettys", "cube net ease"},
	"container":  {"con tainer", "contain er"},

	"azure": {"a sure", "ash er", "as your", "asher", "ashore"},
	"aws":   {"a w s", "A W S"},
	"gcp":   {"g c p", "G C P", "gee see pee"},

	"numpy":  {"num pie", "num py", "numb pie", "numb pi"},
	"pandas": {"pan das", "pan does", "panda s", "panda as"},
	"scipy":  {"sigh pie", "sci pie", "sy py"},

	"openai":  {"open a i", "open ai", "open eye"},
	"chatgpt": {"chat g p t", "chat gee pee tee", "chad gpt", "chat gbt"},
	"gpt":     {"g p t", "gee pee tee", "g p tea"},

	"postgres":   {"post gress", "post gres", "post grace"},
	"postgresql": {"post gress q l", "post gres q l", "post gray sql"},
	"mongo":      {"mango", "mon go"},
	"mongodb":    {"mango d b", "mongo d b", "mango db"},
	"graphql":    {"graph q l", "graph ql", "graf q l", "graph cue el"},
	"sql":        {"sequel", "s q l", "es q l"},

	"django":  {"jango", "d jango", "jan go", "gene go"},
	"fastapi": {"fast a p i", "fast api", "fast a pie"},
	"flask":   {"flas k"},
	"express": {"ex press"},
	"angular": {"ang you lar", "ang u lar", "angle ar", "angle lar"},
	"vue":     {"view", "v u e", "vee you", "vew"},

	"oauth": {"o auth", "oh auth", "o off"},
	"https": {"h t t p s", "http s", "h t t p es"},
	"http":  {"h t t p", "h t tp"},
	"api":   {"a p i", "a pie", "ay p i"},

	"json": {"jay son", "jason", "j son", "jaysawn"},
	"xml":  {"x m l", "ex em el"},
	"yaml": {"yam l", "yam el", "y a m l"},
	"csv":  {"c s v", "see s v"},

	"cpu": {"c p u", "see pee you", "see p u"},
	"gpu": {"g p u", "gee pee you", "g p you"},
	"ram": {"r a m", "random"},
	"ssd": {"s s d", "es s d", "es es dee"},

	"typescript": {"type script", "type scrip", "type scrypt"},
	"javascript": {"java script", "java scrip", "jav a script"},
	"github":     {"git hub", "git up", "get hub"},
	"gitlab":     {"git lab", "git lap", "get lab"},
	"node":       {"no d", "nod"},
	"npm":        {"n p m", "en pee em"},
}

// letterNumberConfusions maps a character to spellings it is heard as when
// read aloud: letter names, homophones, and lookalike digits.
var letterNumberConfusions = map[rune][]string{
	'E': {"1", "e"},
	'B': {"b", "be"},
	'C': {"c", "see", "sea"},
	'G': {"g", "gee"},
	'I': {"i", "eye", "ai"},
	'J': {"j", "jay"},
	'K': {"k", "kay"},
	'O': {"o", "oh", "0"},
	'P': {"p", "pee"},
	'Q': {"q", "queue", "cue"},
	'R': {"r", "are"},
	'T': {"t", "tee", "tea"},
	'U': {"u", "you"},
	'Y': {"y", "why"},
	'2': {"two", "to", "too"},
	'4': {"four", "for"},
	'8': {"eight", "ate"},
}

// spellingPatterns are single-step typo rewrites of a lowercased term. The
// anchors ^ and $ bind to the whole term; the rest replace their first
// occurrence only.
var spellingPatterns = []struct {
	from, to string
	prefix   bool
	suffix   bool
}{
	{from: "ph", to: "f"},
	{from: "th", to: "t"},
	{from: "ow", to: "o"},
	{from: "ck", to: "k"},
	{from: "tion", to: "shun"},
	{from: "y", to: "i", suffix: true},
	{from: "ph", to: "f", prefix: true},
	{from: "er", to: "a", suffix: true},
	{from: "or", to: "er", suffix: true},
	{from: "le", to: "el", suffix: true},
	{from: "que", to: "k", suffix: true},
}

// commonAbbreviations are lowercase initialisms read letter by letter even
// though they fail the all-caps heuristic.
var commonAbbreviations = map[string]bool{
	"js": true, "ts": true, "py": true, "rb": true, "go": true, "rs": true,
	"cs": true, "db": true, "ml": true, "ai": true, "ui": true, "ux": true,
	"api": true, "sql": true, "css": true, "xml": true, "sdk": true,
}

// digitWords spells digits the way they are read aloud.
var digitWords = map[rune]string{
	'0': "zero", '1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "nine",
}

// letterRules drive the builtin converter: leading grapheme clusters mapped
// to pseudo-IPA sounds, ordered longest first so tch wins over t. The rules
// approximate en-us pronunciation; the metaphone code appended by
// builtinWordKey compensates where they misfire.
var letterRules = []struct {
	graphemes string
	sound     string
}{
	{"tion", "ʃən"},
	{"sion", "ʒən"},
	{"eigh", "eɪ"},
	{"augh", "ɔ"},
	{"tch", "tʃ"},
	{"dge", "dʒ"},
	{"igh", "aɪ"},
	{"ch", "tʃ"},
	{"ck", "k"},
	{"ee", "i"},
	{"ea", "i"},
	{"oo", "u"},
	{"ou", "aʊ"},
	{"ow", "oʊ"},
	{"ai", "eɪ"},
	{"ay", "eɪ"},
	{"oi", "ɔɪ"},
	{"oy", "ɔɪ"},
	{"au", "ɔ"},
	{"aw", "ɔ"},
	{"ew", "u"},
	{"gh", "g"},
	{"kn", "n"},
	{"ng", "ŋ"},
	{"ph", "f"},
	{"qu", "kw"},
	{"sh", "ʃ"},
	{"th", "θ"},
	{"wh", "w"},
	{"wr", "r"},
	{"a", "æ"},
	{"b", "b"},
	{"c", "k"},
	{"d", "d"},
	{"e", "ɛ"},
	{"f", "f"},
	{"g", "g"},
	{"h", "h"},
	{"i", "ɪ"},
	{"j", "dʒ"},
	{"k", "k"},
	{"l", "l"},
	{"m", "m"},
	{"n", "n"},
	{"o", "ɑ"},
	{"p", "p"},
	{"q", "k"},
	{"r", "r"},
	{"s", "s"},
	{"t", "t"},
	{"u", "ʌ"},
	{"v", "v"},
	{"w", "w"},
	{"x", "ks"},
	{"y", "ɪ"},
	{"z", "z"},
}
