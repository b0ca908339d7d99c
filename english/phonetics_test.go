package english

import "testing"

func TestNormalizeIPA(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"ˈtɛn ˌsoʊ", "tɛnsoʊ"},
		{"fɔːr", "fɔr"},
		{"wɚd", "wəd"},
		{"ɡoʊ", "goʊ"},
		{"pɪθɑn", "pɪθɑn"},
	}
	for _, tc := range cases {
		if got := normalizeIPA(tc.in); got != tc.want {
			t.Fatalf("normalizeIPA(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGroupSignatureCollapsesConfusablePhonemes(t *testing.T) {
	t.Parallel()
	// p/b, æ/ɑ, and t/d sit in the same confusion groups, so the voiced
	// and voiceless renderings share a signature.
	if a, b := groupSignature("pæt"), groupSignature("bɑd"); a != b {
		t.Fatalf("signatures differ: %q vs %q", a, b)
	}
	// s and k are in different groups and keep distinct signatures.
	if a, b := groupSignature("sɪt"), groupSignature("kɪt"); a == b {
		t.Fatalf("signatures should differ, both %q", a)
	}
}

func TestConsonantSkeleton(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"pɪθɑn", "pθn"},
		{"tɛnsoʊflɔr", "tnsflr"},
		{"jʊwə", ""},
	}
	for _, tc := range cases {
		if got := consonantSkeleton(tc.in); got != tc.want {
			t.Fatalf("consonantSkeleton(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSkeletonRatioIgnoresShortSkeletons(t *testing.T) {
	t.Parallel()
	// Skeletons "pt" and "bd" are below the minimum length, so the ratio
	// reports no signal rather than a perfect-looking distance.
	if got := skeletonRatio("pæt", "bæd"); got != 1 {
		t.Fatalf("skeletonRatio = %v, want 1", got)
	}
	// Long identical skeletons compare at zero.
	if got := skeletonRatio("tɛnsoʊflɔr", "tɪnsuflər"); got != 0 {
		t.Fatalf("skeletonRatio = %v, want 0", got)
	}
}

func TestTolerance(t *testing.T) {
	t.Parallel()
	if got := tolerance(8); got != shortKeyTolerance {
		t.Fatalf("tolerance(8) = %v", got)
	}
	if got := tolerance(9); got != longKeyTolerance {
		t.Fatalf("tolerance(9) = %v", got)
	}
}

func TestFirstPhonemeGroup(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want int
	}{
		{"pɪt", 0},
		{"bɪt", 0},
		{"ˈpɪt", 0},
		{"θɪŋ", 5},
		{"əbaʊt", unknownGroup},
		{"", unknownGroup},
	}
	for _, tc := range cases {
		if got := firstPhonemeGroup(tc.in); got != tc.want {
			t.Fatalf("firstPhonemeGroup(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSimilarityScore(t *testing.T) {
	t.Parallel()

	t.Run("identical keys", func(t *testing.T) {
		t.Parallel()
		ratio, bound, ok := similarityScore("pɪθɑn", "pɪθɑn")
		if !ok || ratio != 0 {
			t.Fatalf("got ratio=%v ok=%v", ratio, ok)
		}
		if bound != shortKeyTolerance {
			t.Fatalf("bound = %v, want %v", bound, shortKeyTolerance)
		}
	})

	t.Run("stress and length marks are free", func(t *testing.T) {
		t.Parallel()
		ratio, _, ok := similarityScore("ˈpɪθɑːn", "pɪθɑn")
		if !ok || ratio != 0 {
			t.Fatalf("got ratio=%v ok=%v", ratio, ok)
		}
	})

	t.Run("length gate rejects before distance", func(t *testing.T) {
		t.Parallel()
		ratio, _, ok := similarityScore("pæt", "pætpætpæt")
		if ok || ratio != 1 {
			t.Fatalf("got ratio=%v ok=%v, want gate rejection", ratio, ok)
		}
	})

	t.Run("onset mismatch tightens the bound", func(t *testing.T) {
		t.Parallel()
		// s and k share no confusion group; one substitution in four
		// runes is 0.25, past the tightened 0.15 bound.
		ratio, bound, ok := similarityScore("sɪti", "kɪti")
		if ok {
			t.Fatalf("ratio %v accepted under bound %v", ratio, bound)
		}
		if bound != strictFirstPhonemeTolerance {
			t.Fatalf("bound = %v, want %v", bound, strictFirstPhonemeTolerance)
		}
	})

	t.Run("same group onset keeps the normal bound", func(t *testing.T) {
		t.Parallel()
		// d and t are one confusion group, so the group signature view
		// scores the pair at zero.
		ratio, bound, ok := similarityScore("dɪti", "tɪti")
		if !ok || ratio != 0 {
			t.Fatalf("got ratio=%v ok=%v", ratio, ok)
		}
		if bound != shortKeyTolerance {
			t.Fatalf("bound = %v, want %v", bound, shortKeyTolerance)
		}
	})

	t.Run("empty keys pass trivially", func(t *testing.T) {
		t.Parallel()
		if _, _, ok := similarityScore("", ""); !ok {
			t.Fatal("empty keys should pass")
		}
	})
}

func TestWithOverrides(t *testing.T) {
	t.Parallel()
	base := defaultRules()

	if got := base.withOverrides(nil, nil); got != base {
		t.Fatal("no additions should return the same rules")
	}

	merged := base.withOverrides(
		[][2]string{{"x", "y"}},
		map[string][]string{
			"tensor": {"tenser"},
			"gizmo":  {"giz mo"},
		},
	)
	if merged == base {
		t.Fatal("additions must build a copy")
	}
	if len(merged.pairs) != len(base.pairs)+1 {
		t.Fatalf("pairs = %d, want %d", len(merged.pairs), len(base.pairs)+1)
	}
	if !containsString(merged.splits["tensor"], "tenser") {
		t.Fatal("extra split not merged into existing entry")
	}
	if !containsString(merged.splits["tensor"], "ten so") {
		t.Fatal("existing splits lost in merge")
	}
	if !containsString(merged.splits["gizmo"], "giz mo") {
		t.Fatal("new split entry missing")
	}
	if containsString(base.splits["gizmo"], "giz mo") {
		t.Fatal("base rules mutated")
	}
}
