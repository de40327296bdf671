package hdt

import (
	"testing"

	"github.com/KonradHoeffner/hdt/bitseq"
	"github.com/KonradHoeffner/hdt/dict"
	"github.com/KonradHoeffner/hdt/packedarray"
	"github.com/KonradHoeffner/hdt/triples"
)

// toyStore builds the {(a,p,b),(a,q,c),(b,p,c)} fixture directly (bypassing
// the container byte format): b is shared between the subject and object
// roles, a is subject-only, c is object-only. Subject IDs are therefore
// b=1, a=2; object IDs are b=1, c=2; predicate IDs are p=1, q=2.
func toyStore(t *testing.T) *Store {
	t.Helper()
	d := dict.NewDictionary(
		dict.NewFrontCoded([]string{"b"}, 8),
		dict.NewFrontCoded([]string{"a"}, 8),
		dict.NewFrontCoded([]string{"c"}, 8),
		dict.NewFrontCoded([]string{"p", "q"}, 8),
	)

	by := bitseq.New([]uint64{0b101}, 3)
	bz := bitseq.New([]uint64{0b111}, 3)
	y := packedarray.NewFromValues([]uint64{1, 1, 2})
	z := packedarray.NewFromValues([]uint64{2, 1, 2})
	bt, err := triples.New(by, bz, y, z)
	if err != nil {
		t.Fatalf("triples.New() error: %v", err)
	}

	foq, err := triples.BuildFoQ(bt, d.NumPredicates())
	if err != nil {
		t.Fatalf("BuildFoQ() error: %v", err)
	}

	return &Store{dict: d, bt: bt, foq: foq, header: []byte("<a> <p> <b> .\n")}
}

func str(s string) *string { return &s }

func drainTerms(t *testing.T, it *TripleIterator) []Triple {
	t.Helper()
	var out []Triple
	for {
		tr, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, tr)
	}
}

func TestStoreSize(t *testing.T) {
	s := toyStore(t)
	size := s.Size()
	if size.NumSubjects != 2 || size.NumObjects != 2 || size.NumPredicates != 2 || size.NumTriples != 3 || size.NumShared != 1 {
		t.Errorf("Size() = %+v, unexpected", size)
	}
}

func TestStoreHeaderBytes(t *testing.T) {
	s := toyStore(t)
	if string(s.HeaderBytes()) != "<a> <p> <b> .\n" {
		t.Errorf("HeaderBytes() = %q, unexpected", s.HeaderBytes())
	}
}

func TestStoreHeaderLines(t *testing.T) {
	s := toyStore(t)
	got := s.HeaderLines()
	want := []string{"<a> <p> <b> ."}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("HeaderLines() = %v, want %v", got, want)
	}
}

func TestStoreHeaderLinesEmpty(t *testing.T) {
	s := toyStore(t)
	s.header = nil
	if got := s.HeaderLines(); got != nil {
		t.Errorf("HeaderLines() on empty header = %v, want nil", got)
	}
}

func TestStorePredicates(t *testing.T) {
	s := toyStore(t)
	got, err := s.Predicates()
	if err != nil {
		t.Fatalf("Predicates() error: %v", err)
	}
	want := []string{"p", "q"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Predicates() = %v, want %v", got, want)
	}
}

func TestStoreIDOfTermOfRoundTrip(t *testing.T) {
	s := toyStore(t)
	for _, c := range []struct {
		term string
		role Role
	}{
		{"a", Subject}, {"b", Subject}, {"b", Object}, {"c", Object}, {"p", Predicate}, {"q", Predicate},
	} {
		id := s.IDOf(c.term, c.role)
		if id == 0 {
			t.Fatalf("IDOf(%q, %v) = 0, want nonzero", c.term, c.role)
		}
		got, err := s.TermOf(id, c.role)
		if err != nil {
			t.Fatalf("TermOf(%d, %v) error: %v", id, c.role, err)
		}
		if got != c.term {
			t.Errorf("TermOf(IDOf(%q)) = %q, want %q", c.term, got, c.term)
		}
	}
}

func TestStoreSharedIDUnification(t *testing.T) {
	s := toyStore(t)
	if s.IDOf("b", Subject) != s.IDOf("b", Object) {
		t.Errorf("shared term b should resolve to the same ID as subject and object")
	}
}

func TestTriplesAllWildcards(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{})
	if err != nil {
		t.Fatalf("Triples() error: %v", err)
	}
	got := drainTerms(t, it)
	want := []Triple{
		{"b", "p", "c"},
		{"a", "p", "b"},
		{"a", "q", "c"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("triple %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTriplesSubjectConstant(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{Subject: str("a")})
	if err != nil {
		t.Fatalf("Triples() error: %v", err)
	}
	got := drainTerms(t, it)
	want := []Triple{{"a", "p", "b"}, {"a", "q", "c"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTriplesPredicateConstant(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{Predicate: str("p")})
	if err != nil {
		t.Fatalf("Triples() error: %v", err)
	}
	got := drainTerms(t, it)
	want := []Triple{{"b", "p", "c"}, {"a", "p", "b"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTriplesObjectConstant(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{Object: str("c")})
	if err != nil {
		t.Fatalf("Triples() error: %v", err)
	}
	got := drainTerms(t, it)
	want := []Triple{{"a", "q", "c"}, {"b", "p", "c"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := map[Triple]bool{got[0]: true, got[1]: true}
	for _, w := range want {
		if !seen[w] {
			t.Errorf("missing %+v in %v", w, got)
		}
	}
}

func TestTriplesFullyConstant(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{Subject: str("a"), Predicate: str("p"), Object: str("b")})
	if err != nil {
		t.Fatalf("Triples() error: %v", err)
	}
	got := drainTerms(t, it)
	if len(got) != 1 || got[0] != (Triple{"a", "p", "b"}) {
		t.Errorf("got %v, want [{a p b}]", got)
	}
}

func TestTriplesUnknownTermYieldsEmptyWithoutError(t *testing.T) {
	s := toyStore(t)
	it, err := s.Triples(Pattern{Subject: str("x")})
	if err != nil {
		t.Fatalf("Triples() with unresolvable term should not error, got %v", err)
	}
	if got := drainTerms(t, it); len(got) != 0 {
		t.Errorf("got %v, want []", got)
	}
}

func TestTriplesInvalidTerm(t *testing.T) {
	s := toyStore(t)
	bad := "a\x00b"
	if _, err := s.Triples(Pattern{Subject: &bad}); err == nil {
		t.Errorf("Triples() with embedded NUL should error")
	}
}
