// Package triples implements the Bitmap-Triples encoding of a sorted RDF
// triple set (§4.6), the FoQ auxiliary indices derived from it (§4.7) and
// the eight pattern-iterator algorithms that walk both (§4.8).
package triples

import (
	"bufio"

	"github.com/KonradHoeffner/hdt/bitseq"
	"github.com/KonradHoeffner/hdt/hdterrors"
	"github.com/KonradHoeffner/hdt/internal/ctrlinfo"
	"github.com/KonradHoeffner/hdt/packedarray"
)

// bitmapFormat is the only triples section format this module reads;
// triplesList and non-SPO orders are out of scope.
const bitmapFormat = "<http://purl.org/HDT/hdt#triplesBitmap>"

// spoOrder is the only triple sort order this module accepts.
const spoOrder = "1"

// BitmapTriples is the succinct adjacency-matrix encoding of a sorted
// triple set: two packed arrays (Y holds predicates, Z holds objects) and
// two bit sequences marking, respectively, the last predicate of each
// subject and the last object of each (subject, predicate) pair.
type BitmapTriples struct {
	By *bitseq.BitSequence
	Bz *bitseq.BitSequence
	Y  *packedarray.PackedArray
	Z  *packedarray.PackedArray

	numSubjects uint64
}

// Read parses the triples control information and Bitmap-Triples body.
func Read(r *bufio.Reader) (*BitmapTriples, error) {
	ci, err := ctrlinfo.Read(r)
	if err != nil {
		return nil, err
	}
	if ci.Kind != ctrlinfo.Triples {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "expected triples control information")
	}
	if ci.Format != bitmapFormat {
		return nil, hdterrors.Newf(hdterrors.FormatUnsupported, "unsupported triples format %q", ci.Format)
	}
	if order, _ := ci.Get("order"); order != spoOrder {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "only SPO triple order is supported")
	}

	by, err := bitseq.Read(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "triples.bitmap_y")
	}
	bz, err := bitseq.Read(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "triples.bitmap_z")
	}
	y, err := packedarray.Read(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "triples.y")
	}
	z, err := packedarray.Read(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "triples.z")
	}

	bt, err := New(by, bz, y, z)
	if err != nil {
		return nil, err
	}
	if numOccStr, ok := ci.Get("numOcc"); ok {
		var numOcc uint64
		for _, c := range numOccStr {
			if c < '0' || c > '9' {
				return nil, hdterrors.Corrupt("triples.bitmaptriples", "numOcc is not a decimal integer")
			}
			numOcc = numOcc*10 + uint64(c-'0')
		}
		if numOcc != bt.Z.Len() {
			return nil, hdterrors.Corruptf("triples.bitmaptriples", "numOcc=%d != len(Z)=%d", numOcc, bt.Z.Len())
		}
	}
	return bt, nil
}

// New assembles a BitmapTriples from its four already-built structures,
// validating the structural invariants of §4.6. It is used both by Read
// and by callers (such as tests) that build the encoding directly.
func New(by, bz *bitseq.BitSequence, y, z *packedarray.PackedArray) (*BitmapTriples, error) {
	bt := &BitmapTriples{By: by, Bz: bz, Y: y, Z: z, numSubjects: by.Ones()}

	const section = "triples.bitmaptriples"
	if bt.Y.Len() != bt.By.Len() {
		return nil, hdterrors.Corruptf(section, "len(Y)=%d != len(B_y)=%d", bt.Y.Len(), bt.By.Len())
	}
	if bt.Z.Len() != bt.Bz.Len() {
		return nil, hdterrors.Corruptf(section, "len(Z)=%d != len(B_z)=%d", bt.Z.Len(), bt.Bz.Len())
	}
	if bt.Bz.Ones() != bt.Y.Len() {
		return nil, hdterrors.Corruptf(section, "popcount(B_z)=%d != len(Y)=%d", bt.Bz.Ones(), bt.Y.Len())
	}
	// Every distinct subject must own at least one predicate: a predicate
	// with zero subjects can't occur by construction of Y/B_y, but a
	// crafted file could still claim more subjects than Y supports.
	if bt.numSubjects > bt.Y.Len() && bt.Y.Len() > 0 {
		return nil, hdterrors.Corrupt(section, "more subjects than Y entries")
	}
	return bt, nil
}

// NumSubjects returns the number of distinct subjects encoded in B_y.
func (bt *BitmapTriples) NumSubjects() uint64 { return bt.numSubjects }

// NumTriples returns the number of triples, i.e. len(Z).
func (bt *BitmapTriples) NumTriples() uint64 { return bt.Z.Len() }

// yRange returns the inclusive [lo, hi] 0-based positions in Y holding the
// predicates of subject s (1-based). ok is false if s is out of range.
func (bt *BitmapTriples) yRange(s uint64) (lo, hi uint64, ok bool) {
	if s < 1 || s > bt.numSubjects {
		return 0, 0, false
	}
	if s > 1 {
		p, sok := bt.By.Select1(s - 1)
		if !sok {
			return 0, 0, false
		}
		lo = p + 1
	}
	h, sok := bt.By.Select1(s)
	if !sok {
		return 0, 0, false
	}
	return lo, h, true
}

// zRange returns the inclusive [lo, hi] 0-based positions in Z holding the
// objects of the yIdx-th (1-based) entry of Y. ok is false if yIdx is out
// of range.
func (bt *BitmapTriples) zRange(yIdx uint64) (lo, hi uint64, ok bool) {
	if yIdx < 1 || yIdx > bt.Y.Len() {
		return 0, 0, false
	}
	if yIdx > 1 {
		p, sok := bt.Bz.Select1(yIdx - 1)
		if !sok {
			return 0, 0, false
		}
		lo = p + 1
	}
	h, sok := bt.Bz.Select1(yIdx)
	if !sok {
		return 0, 0, false
	}
	return lo, h, true
}

// findPredicateInBlock binary searches the ascending Y entries in [lo, hi]
// for predicate p, returning its 0-based Y position.
func (bt *BitmapTriples) findPredicateInBlock(lo, hi, p uint64) (pos uint64, found bool) {
	for lo <= hi {
		mid := lo + (hi-lo)/2
		v := bt.Y.Get(mid)
		switch {
		case v == p:
			return mid, true
		case v < p:
			lo = mid + 1
		default:
			if mid == 0 {
				return 0, false
			}
			hi = mid - 1
		}
	}
	return 0, false
}

// findObjectInBlock binary searches the ascending Z entries in [lo, hi]
// for object o, returning its 0-based Z position.
func (bt *BitmapTriples) findObjectInBlock(lo, hi, o uint64) (pos uint64, found bool) {
	for lo <= hi {
		mid := lo + (hi-lo)/2
		v := bt.Z.Get(mid)
		switch {
		case v == o:
			return mid, true
		case v < o:
			lo = mid + 1
		default:
			if mid == 0 {
				return 0, false
			}
			hi = mid - 1
		}
	}
	return 0, false
}

// yIndexOfZPos returns the 1-based Y index of the (subject, predicate)
// group containing the 0-based Z position k.
func (bt *BitmapTriples) yIndexOfZPos(k uint64) uint64 {
	return bt.Bz.Rank1(k) + 1
}

// subjectOfYIndex returns the 1-based subject ID owning the 1-based Y
// index yIdx.
func (bt *BitmapTriples) subjectOfYIndex(yIdx uint64) uint64 {
	return bt.By.Rank1(yIdx-1) + 1
}

// predicateOfYIndex returns the predicate ID stored at the 1-based Y index
// yIdx.
func (bt *BitmapTriples) predicateOfYIndex(yIdx uint64) uint64 {
	return bt.Y.Get(yIdx - 1)
}
