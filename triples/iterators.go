package triples

// Iterator is a lazy, non-restartable, single-pass cursor over ID triples
// matching a pattern. Results are produced in ascending (subject,
// predicate, object) order except where noted on the constructor.
type Iterator interface {
	// Next advances the cursor and returns the next matching triple. ok is
	// false once the iterator is exhausted; the iterator must not be
	// reused afterward.
	Next() (s, p, o uint64, ok bool)
}

// exhausted is a shared empty Iterator returned whenever a pattern can be
// proven to match nothing without touching the bitmap.
type exhausted struct{}

func (exhausted) Next() (uint64, uint64, uint64, bool) { return 0, 0, 0, false }

// Empty returns an iterator that yields no triples, used by callers whose
// translation layer resolves a constant pattern position to id 0.
func Empty() Iterator { return exhausted{} }

// NewSPO returns an iterator that yields the single triple (s, p, o) if it
// is present in bt, or nothing otherwise.
func NewSPO(bt *BitmapTriples, s, p, o uint64) Iterator {
	ylo, yhi, ok := bt.yRange(s)
	if !ok {
		return exhausted{}
	}
	ypos, found := bt.findPredicateInBlock(ylo, yhi, p)
	if !found {
		return exhausted{}
	}
	zlo, zhi, ok := bt.zRange(ypos + 1)
	if !ok {
		return exhausted{}
	}
	if _, found := bt.findObjectInBlock(zlo, zhi, o); !found {
		return exhausted{}
	}
	return &onceIterator{s: s, p: p, o: o}
}

type onceIterator struct {
	s, p, o uint64
	done    bool
}

func (it *onceIterator) Next() (uint64, uint64, uint64, bool) {
	if it.done {
		return 0, 0, 0, false
	}
	it.done = true
	return it.s, it.p, it.o, true
}

// NewSP returns an iterator over all objects o such that (s, p, o) is a
// triple in bt, ascending by o.
func NewSP(bt *BitmapTriples, s, p uint64) Iterator {
	ylo, yhi, ok := bt.yRange(s)
	if !ok {
		return exhausted{}
	}
	ypos, found := bt.findPredicateInBlock(ylo, yhi, p)
	if !found {
		return exhausted{}
	}
	zlo, zhi, ok := bt.zRange(ypos + 1)
	if !ok {
		return exhausted{}
	}
	return &spIterator{bt: bt, s: s, p: p, pos: zlo, hi: zhi}
}

type spIterator struct {
	bt      *BitmapTriples
	s, p    uint64
	pos, hi uint64
	done    bool
}

func (it *spIterator) Next() (uint64, uint64, uint64, bool) {
	if it.done || it.pos > it.hi {
		return 0, 0, 0, false
	}
	o := it.bt.Z.Get(it.pos)
	if it.pos == it.hi {
		it.done = true
	} else {
		it.pos++
	}
	return it.s, it.p, o, true
}

// NewS returns an iterator over all (p, o) pairs for subject s, ascending
// by predicate then object.
func NewS(bt *BitmapTriples, s uint64) Iterator {
	ylo, yhi, ok := bt.yRange(s)
	if !ok {
		return exhausted{}
	}
	return &sIterator{bt: bt, s: s, ypos: ylo, yhi: yhi}
}

type sIterator struct {
	bt         *BitmapTriples
	s          uint64
	ypos, yhi  uint64
	curP       uint64
	zpos, zhi  uint64
	haveZBlock bool
}

func (it *sIterator) Next() (uint64, uint64, uint64, bool) {
	for {
		if it.haveZBlock {
			if it.zpos <= it.zhi {
				o := it.bt.Z.Get(it.zpos)
				it.zpos++
				return it.s, it.curP, o, true
			}
			it.haveZBlock = false
		}
		if it.ypos > it.yhi {
			return 0, 0, 0, false
		}
		it.curP = it.bt.Y.Get(it.ypos)
		zlo, zhi, ok := it.bt.zRange(it.ypos + 1)
		it.ypos++
		if !ok {
			continue
		}
		it.zpos, it.zhi, it.haveZBlock = zlo, zhi, true
	}
}

// NewSO returns an iterator over all predicates p such that (s, p, o) is a
// triple in bt, ascending by p.
func NewSO(bt *BitmapTriples, s, o uint64) Iterator {
	ylo, yhi, ok := bt.yRange(s)
	if !ok {
		return exhausted{}
	}
	return &soIterator{bt: bt, s: s, o: o, ypos: ylo, yhi: yhi}
}

type soIterator struct {
	bt        *BitmapTriples
	s, o      uint64
	ypos, yhi uint64
}

func (it *soIterator) Next() (uint64, uint64, uint64, bool) {
	for it.ypos <= it.yhi {
		p := it.bt.Y.Get(it.ypos)
		zlo, zhi, ok := it.bt.zRange(it.ypos + 1)
		it.ypos++
		if !ok {
			continue
		}
		if _, found := it.bt.findObjectInBlock(zlo, zhi, it.o); found {
			return it.s, p, it.o, true
		}
	}
	return 0, 0, 0, false
}

// NewP returns an iterator over all (s, o) pairs for predicate p, ascending
// by subject then object. foq must have been built with numPredicates
// covering p.
func NewP(bt *BitmapTriples, foq *FoQ, p uint64) Iterator {
	pslo, pshi, ok := foq.psRange(p)
	if !ok {
		return exhausted{}
	}
	return &pIterator{bt: bt, foq: foq, p: p, psPos: pslo, psHi: pshi}
}

type pIterator struct {
	bt           *BitmapTriples
	foq          *FoQ
	p            uint64
	psPos, psHi  uint64
	curS         uint64
	zpos, zhi    uint64
	haveZBlock   bool
}

func (it *pIterator) Next() (uint64, uint64, uint64, bool) {
	for {
		if it.haveZBlock {
			if it.zpos <= it.zhi {
				o := it.bt.Z.Get(it.zpos)
				it.zpos++
				return it.curS, it.p, o, true
			}
			it.haveZBlock = false
		}
		if it.psPos > it.psHi {
			return 0, 0, 0, false
		}
		it.curS = it.foq.PS.Get(it.psPos)
		it.psPos++

		ylo, yhi, ok := it.bt.yRange(it.curS)
		if !ok {
			continue
		}
		ypos, found := it.bt.findPredicateInBlock(ylo, yhi, it.p)
		if !found {
			continue
		}
		zlo, zhi, ok := it.bt.zRange(ypos + 1)
		if !ok {
			continue
		}
		it.zpos, it.zhi, it.haveZBlock = zlo, zhi, true
	}
}

// NewPO returns an iterator over all subjects s such that (s, p, o) is a
// triple in bt, ascending by s. It walks the predicate index and, for each
// candidate subject, binary searches its Z block for o.
func NewPO(bt *BitmapTriples, foq *FoQ, p, o uint64) Iterator {
	pslo, pshi, ok := foq.psRange(p)
	if !ok {
		return exhausted{}
	}
	return &poIterator{bt: bt, foq: foq, p: p, o: o, psPos: pslo, psHi: pshi}
}

type poIterator struct {
	bt          *BitmapTriples
	foq         *FoQ
	p, o        uint64
	psPos, psHi uint64
}

func (it *poIterator) Next() (uint64, uint64, uint64, bool) {
	for it.psPos <= it.psHi {
		s := it.foq.PS.Get(it.psPos)
		it.psPos++

		ylo, yhi, ok := it.bt.yRange(s)
		if !ok {
			continue
		}
		ypos, found := it.bt.findPredicateInBlock(ylo, yhi, it.p)
		if !found {
			continue
		}
		zlo, zhi, ok := it.bt.zRange(ypos + 1)
		if !ok {
			continue
		}
		if _, found := it.bt.findObjectInBlock(zlo, zhi, it.o); found {
			return s, it.p, it.o, true
		}
	}
	return 0, 0, 0, false
}

// NewO returns an iterator over all (s, p) pairs for object o, ascending by
// predicate then subject, using the object permutation index.
func NewO(bt *BitmapTriples, foq *FoQ, o uint64) Iterator {
	lo, hi := foq.objectRange(bt, o)
	if lo >= hi {
		return exhausted{}
	}
	return &oIterator{bt: bt, foq: foq, o: o, pos: lo, hi: hi}
}

type oIterator struct {
	bt       *BitmapTriples
	foq      *FoQ
	o        uint64
	pos, hi  uint64
}

func (it *oIterator) Next() (uint64, uint64, uint64, bool) {
	if it.pos >= it.hi {
		return 0, 0, 0, false
	}
	k := it.foq.Perm.Get(it.pos)
	it.pos++
	yIdx := it.bt.yIndexOfZPos(k)
	s := it.bt.subjectOfYIndex(yIdx)
	p := it.bt.predicateOfYIndex(yIdx)
	return s, p, it.o, true
}

// NewAll returns an iterator over every triple in bt, in SPO order.
func NewAll(bt *BitmapTriples) Iterator {
	if bt.Y.Len() == 0 {
		return exhausted{}
	}
	return &allIterator{bt: bt}
}

type allIterator struct {
	bt         *BitmapTriples
	ypos       uint64
	curS, curP uint64
	zpos, zhi  uint64
	haveZBlock bool
}

func (it *allIterator) Next() (uint64, uint64, uint64, bool) {
	for {
		if it.haveZBlock {
			if it.zpos <= it.zhi {
				o := it.bt.Z.Get(it.zpos)
				it.zpos++
				return it.curS, it.curP, o, true
			}
			it.haveZBlock = false
		}
		if it.ypos >= it.bt.Y.Len() {
			return 0, 0, 0, false
		}
		yIdx := it.ypos + 1
		it.curP = it.bt.Y.Get(it.ypos)
		it.curS = it.bt.subjectOfYIndex(yIdx)
		zlo, zhi, ok := it.bt.zRange(yIdx)
		it.ypos++
		if !ok {
			continue
		}
		it.zpos, it.zhi, it.haveZBlock = zlo, zhi, true
	}
}
