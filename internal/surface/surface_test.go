package surface

import (
	"reflect"
	"testing"
)

func TestIndexOccurrences(t *testing.T) {
	ix := NewIndex([]string{"北車", "台北車站", "北車", ""})

	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after dedupe", ix.Len())
	}

	occs := ix.Occurrences("我在台北車站等你")
	if len(occs) != 2 {
		t.Fatalf("Occurrences = %v, want nested 北車 and 台北車站", occs)
	}
	surfaces := map[string]bool{}
	for _, occ := range occs {
		surfaces[ix.Patterns()[occ.Pattern]] = true
		if got := "我在台北車站等你"[occ.Start:occ.End]; got != ix.Patterns()[occ.Pattern] {
			t.Errorf("span %q does not recover pattern %q", got, ix.Patterns()[occ.Pattern])
		}
	}
	if !surfaces["北車"] || !surfaces["台北車站"] {
		t.Fatalf("expected overlapping matches for both patterns, got %v", surfaces)
	}
}

func TestIndexEmpty(t *testing.T) {
	ix := NewIndex(nil)
	if ix.Occurrences("anything") != nil {
		t.Fatal("empty index must not match")
	}
	if ix.Contains("anything") {
		t.Fatal("empty index must not contain")
	}
	if NewIndex([]string{"a"}).Occurrences("") != nil {
		t.Fatal("empty text must not match")
	}
}

func TestProtectorMergesOverlaps(t *testing.T) {
	p := NewProtector([]string{"北側", "側等"})
	text := "我在北側等你"

	got := p.Intervals(text)
	want := []Interval{{Start: len("我在"), End: len("我在北側等")}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Intervals = %v, want merged %v", got, want)
	}
}

func TestAnyOverlap(t *testing.T) {
	intervals := []Interval{{2, 5}, {9, 12}}

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"inside first", 3, 4, true},
		{"straddles first end", 4, 7, true},
		{"between", 5, 9, false},
		{"touches second start", 8, 10, true},
		{"before all", 0, 2, false},
		{"after all", 12, 20, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnyOverlap(intervals, tc.start, tc.end); got != tc.want {
				t.Fatalf("AnyOverlap(%d, %d) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestMergeIntervals(t *testing.T) {
	got := MergeIntervals([]Interval{{5, 8}, {1, 3}, {2, 4}, {8, 9}})
	want := []Interval{{1, 4}, {5, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MergeIntervals = %v, want %v", got, want)
	}
}

func TestProximityFoldsASCII(t *testing.T) {
	p := NewProximity([]string{"設備", "Medical"})

	if !p.Contains("這個 MEDICAL 設備") {
		t.Fatal("expected case-insensitive ASCII match")
	}
	occs := p.Occurrences("medical 設備")
	if len(occs) != 2 {
		t.Fatalf("Occurrences = %v, want both words", occs)
	}
	for _, occ := range occs {
		if occ.End <= occ.Start {
			t.Fatalf("invalid span %+v", occ)
		}
	}
}

func TestProximityEmpty(t *testing.T) {
	p := NewProximity(nil)
	if p.Contains("text") {
		t.Fatal("empty proximity must not contain")
	}
	if p.Occurrences("text") != nil {
		t.Fatal("empty proximity must not match")
	}
}
