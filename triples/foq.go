package triples

import (
	"sort"

	"github.com/KonradHoeffner/hdt/bitseq"
	"github.com/KonradHoeffner/hdt/hdterrors"
	"github.com/KonradHoeffner/hdt/packedarray"
)

// FoQ ("Focused on Querying") holds the two auxiliary indices built from a
// BitmapTriples after load: a predicate-to-subjects index used by the ?P?
// and ?PO patterns, and an object permutation used by the ??O pattern.
type FoQ struct {
	// PS lists, for each predicate in ascending order, the subjects owning
	// that predicate (ascending); Bps marks the last subject of each
	// predicate's run.
	PS  *packedarray.PackedArray
	Bps *bitseq.BitSequence

	// Perm holds, for each position in the (object, predicate, subject)
	// sort order, the corresponding 0-based Z position; Bop marks the last
	// entry of each (object, predicate) run.
	Perm *packedarray.PackedArray
	Bop  *bitseq.BitSequence
}

// BuildFoQ derives the predicate and object indices from bt. numPredicates
// bounds the predicate ID space and is used to size the per-predicate
// subject buckets.
func BuildFoQ(bt *BitmapTriples, numPredicates uint64) (*FoQ, error) {
	ps, bps, err := buildPredicateIndex(bt, numPredicates)
	if err != nil {
		return nil, err
	}
	perm, bop := buildObjectIndex(bt)
	return &FoQ{PS: ps, Bps: bps, Perm: perm, Bop: bop}, nil
}

func buildPredicateIndex(bt *BitmapTriples, numPredicates uint64) (*packedarray.PackedArray, *bitseq.BitSequence, error) {
	buckets := make([][]uint64, numPredicates+1) // 1-indexed by predicate ID
	for yIdx := uint64(1); yIdx <= bt.Y.Len(); yIdx++ {
		p := bt.predicateOfYIndex(yIdx)
		if p < 1 || p > numPredicates {
			return nil, nil, hdterrors.Corruptf("triples.foq", "predicate id %d out of range [1,%d]", p, numPredicates)
		}
		buckets[p] = append(buckets[p], bt.subjectOfYIndex(yIdx))
	}

	for p := uint64(1); p <= numPredicates; p++ {
		if len(buckets[p]) == 0 {
			return nil, nil, hdterrors.Corruptf("triples.foq", "predicate id %d has no subjects", p)
		}
	}

	values := make([]uint64, 0, bt.Y.Len())
	bits := make([]bool, 0, bt.Y.Len())
	for p := uint64(1); p <= numPredicates; p++ {
		bucket := buckets[p]
		for i, s := range bucket {
			values = append(values, s)
			bits = append(bits, i == len(bucket)-1)
		}
	}
	ps := packedarray.NewFromValues(values)
	bps := buildBitSequence(bits)
	return ps, bps, nil
}

func buildObjectIndex(bt *BitmapTriples) (*packedarray.PackedArray, *bitseq.BitSequence) {
	n := bt.Z.Len()
	type entry struct{ o, p, s, k uint64 }
	entries := make([]entry, n)
	for k := uint64(0); k < n; k++ {
		yIdx := bt.yIndexOfZPos(k)
		entries[k] = entry{
			o: bt.Z.Get(k),
			p: bt.predicateOfYIndex(yIdx),
			s: bt.subjectOfYIndex(yIdx),
			k: k,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.o != b.o {
			return a.o < b.o
		}
		if a.p != b.p {
			return a.p < b.p
		}
		return a.s < b.s
	})

	permValues := make([]uint64, n)
	bopBits := make([]bool, n)
	for j, e := range entries {
		permValues[j] = e.k
		last := j == len(entries)-1 || entries[j+1].o != e.o || entries[j+1].p != e.p
		bopBits[j] = last
	}
	return packedarray.NewFromValues(permValues), buildBitSequence(bopBits)
}

func buildBitSequence(bits []bool) *bitseq.BitSequence {
	words := make([]uint64, (len(bits)+63)/64)
	for i, set := range bits {
		if set {
			words[i/64] |= uint64(1) << (i % 64)
		}
	}
	return bitseq.New(words, uint64(len(bits)))
}

// psRange returns the inclusive [lo, hi] 0-based positions in PS holding
// the subjects of predicate p (1-based). ok is false if p has no subjects.
func (f *FoQ) psRange(p uint64) (lo, hi uint64, ok bool) {
	if p < 1 {
		return 0, 0, false
	}
	if p > 1 {
		pos, sok := f.Bps.Select1(p - 1)
		if !sok {
			return 0, 0, false
		}
		lo = pos + 1
	}
	h, sok := f.Bps.Select1(p)
	if !sok {
		return 0, 0, false
	}
	return lo, h, true
}

// objectRange returns the half-open [lo, hi) positions in Perm whose Z
// object equals o, using binary search over the (object, predicate,
// subject) sort order Perm was built in.
func (f *FoQ) objectRange(bt *BitmapTriples, o uint64) (lo, hi uint64) {
	n := f.Perm.Len()
	objectAt := func(j uint64) uint64 { return bt.Z.Get(f.Perm.Get(j)) }

	lo = lowerBound(n, func(j uint64) bool { return objectAt(j) >= o })
	hi = lowerBound(n, func(j uint64) bool { return objectAt(j) > o })
	return lo, hi
}

// lowerBound returns the smallest i in [0, n] for which pred(i) holds,
// assuming pred is monotonic (false*, then true*).
func lowerBound(n uint64, pred func(uint64) bool) uint64 {
	lo, hi := uint64(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if pred(mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
