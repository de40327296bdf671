package triples

import (
	"testing"

	"github.com/KonradHoeffner/hdt/bitseq"
	"github.com/KonradHoeffner/hdt/packedarray"
	"github.com/stretchr/testify/assert"
)

// buildToyTriples encodes the three triples {(1,1,2), (2,1,1), (2,2,2)}
// (already sorted by S,P,O) as Bitmap-Triples: subject 1 owns predicate 1
// with object 2; subject 2 owns predicates 1 and 2, with objects 1 and 2
// respectively.
func buildToyTriples(t *testing.T) *BitmapTriples {
	t.Helper()
	by := bitseq.New([]uint64{0b101}, 3) // By = [1,0,1]
	bz := bitseq.New([]uint64{0b111}, 3) // Bz = [1,1,1]
	y := packedarray.NewFromValues([]uint64{1, 1, 2})
	z := packedarray.NewFromValues([]uint64{2, 1, 2})
	bt, err := New(by, bz, y, z)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return bt
}

func drain(it Iterator) [][3]uint64 {
	var out [][3]uint64
	for {
		s, p, o, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, [3]uint64{s, p, o})
	}
}

func wantTriples(tb testing.TB, got [][3]uint64, want [][3]uint64) {
	tb.Helper()
	assert.Equal(tb, want, got)
}

func TestBitmapTriplesInvariants(t *testing.T) {
	bt := buildToyTriples(t)
	assert.EqualValues(t, 2, bt.NumSubjects())
	assert.EqualValues(t, 3, bt.NumTriples())
}

func TestBitmapTriplesRejectsMismatchedLengths(t *testing.T) {
	by := bitseq.New([]uint64{0b101}, 3)
	bz := bitseq.New([]uint64{0b11}, 2) // wrong: should have 3 bits
	y := packedarray.NewFromValues([]uint64{1, 1, 2})
	z := packedarray.NewFromValues([]uint64{2, 1})
	if _, err := New(by, bz, y, z); err == nil {
		t.Errorf("New() should reject len(Z) != len(B_z)")
	}
}

func TestNewSPO(t *testing.T) {
	bt := buildToyTriples(t)
	if got := drain(NewSPO(bt, 2, 1, 1)); len(got) != 1 || got[0] != [3]uint64{2, 1, 1} {
		t.Errorf("SPO(2,1,1) = %v, want [[2 1 1]]", got)
	}
	if got := drain(NewSPO(bt, 2, 1, 2)); len(got) != 0 {
		t.Errorf("SPO(2,1,2) = %v, want []", got)
	}
	if got := drain(NewSPO(bt, 5, 1, 1)); len(got) != 0 {
		t.Errorf("SPO with out-of-range subject should be empty, got %v", got)
	}
}

func TestNewSP(t *testing.T) {
	bt := buildToyTriples(t)
	got := drain(NewSP(bt, 2, 1))
	wantTriples(t, got, [][3]uint64{{2, 1, 1}})

	if got := drain(NewSP(bt, 2, 3)); len(got) != 0 {
		t.Errorf("SP(2,3) = %v, want []", got)
	}
}

func TestNewS(t *testing.T) {
	bt := buildToyTriples(t)
	got := drain(NewS(bt, 2))
	wantTriples(t, got, [][3]uint64{{2, 1, 1}, {2, 2, 2}})

	got = drain(NewS(bt, 1))
	wantTriples(t, got, [][3]uint64{{1, 1, 2}})
}

func TestNewSO(t *testing.T) {
	bt := buildToyTriples(t)
	got := drain(NewSO(bt, 2, 2))
	wantTriples(t, got, [][3]uint64{{2, 2, 2}})

	if got := drain(NewSO(bt, 2, 5)); len(got) != 0 {
		t.Errorf("SO(2,5) = %v, want []", got)
	}
}

func TestNewAll(t *testing.T) {
	bt := buildToyTriples(t)
	got := drain(NewAll(bt))
	wantTriples(t, got, [][3]uint64{{1, 1, 2}, {2, 1, 1}, {2, 2, 2}})
}

func TestFoQPatterns(t *testing.T) {
	bt := buildToyTriples(t)
	foq, err := BuildFoQ(bt, 2)
	if err != nil {
		t.Fatalf("BuildFoQ() error: %v", err)
	}

	got := drain(NewP(bt, foq, 1))
	wantTriples(t, got, [][3]uint64{{1, 1, 2}, {2, 1, 1}})

	got = drain(NewPO(bt, foq, 1, 2))
	wantTriples(t, got, [][3]uint64{{1, 1, 2}})

	got = drain(NewPO(bt, foq, 1, 1))
	wantTriples(t, got, [][3]uint64{{2, 1, 1}})

	got = drain(NewO(bt, foq, 2))
	wantTriples(t, got, [][3]uint64{{1, 1, 2}, {2, 2, 2}})

	if got := drain(NewO(bt, foq, 99)); len(got) != 0 {
		t.Errorf("O(99) = %v, want []", got)
	}
	if got := drain(NewP(bt, foq, 99)); len(got) != 0 {
		t.Errorf("P(99) = %v, want []", got)
	}
}

func TestAllPatternsAgreeWithFullScan(t *testing.T) {
	bt := buildToyTriples(t)
	foq, err := BuildFoQ(bt, 2)
	if err != nil {
		t.Fatalf("BuildFoQ() error: %v", err)
	}
	all := drain(NewAll(bt))

	matches := func(t [3]uint64, s, p, o uint64) bool {
		return (s == 0 || t[0] == s) && (p == 0 || t[1] == p) && (o == 0 || t[2] == o)
	}

	for _, pat := range [][3]uint64{
		{1, 0, 0}, {2, 0, 0}, {0, 1, 0}, {0, 2, 0}, {0, 0, 1}, {0, 0, 2},
		{1, 1, 2}, {2, 1, 1}, {2, 2, 2}, {1, 1, 1}, {1, 2, 0},
	} {
		var want [][3]uint64
		for _, tr := range all {
			if matches(tr, pat[0], pat[1], pat[2]) {
				want = append(want, tr)
			}
		}

		var it Iterator
		switch {
		case pat[0] != 0 && pat[1] != 0 && pat[2] != 0:
			it = NewSPO(bt, pat[0], pat[1], pat[2])
		case pat[0] != 0 && pat[1] != 0:
			it = NewSP(bt, pat[0], pat[1])
		case pat[0] != 0 && pat[2] != 0:
			it = NewSO(bt, pat[0], pat[2])
		case pat[0] != 0:
			it = NewS(bt, pat[0])
		case pat[1] != 0 && pat[2] != 0:
			it = NewPO(bt, foq, pat[1], pat[2])
		case pat[1] != 0:
			it = NewP(bt, foq, pat[1])
		case pat[2] != 0:
			it = NewO(bt, foq, pat[2])
		default:
			it = NewAll(bt)
		}
		got := drain(it)
		if len(got) != len(want) {
			t.Errorf("pattern %v: got %v, want %v", pat, got, want)
			continue
		}
		seen := make(map[[3]uint64]bool)
		for _, tr := range got {
			seen[tr] = true
		}
		for _, tr := range want {
			if !seen[tr] {
				t.Errorf("pattern %v: missing %v in %v", pat, tr, got)
			}
		}
	}
}
