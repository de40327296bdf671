// Package hdt loads an HDT (Header-Dictionary-Triples) container whole into
// memory and answers triple-pattern queries directly against its compressed
// representation, without decompressing the graph.
package hdt

import (
	"bufio"
	"io"
	"math/bits"
	"strings"

	"github.com/KonradHoeffner/hdt/dict"
	"github.com/KonradHoeffner/hdt/hdterrors"
	"github.com/KonradHoeffner/hdt/internal/ctrlinfo"
	"github.com/KonradHoeffner/hdt/internal/vbyte"
	"github.com/KonradHoeffner/hdt/triples"
)

// Role identifies which of the three triple positions a term occupies.
type Role = dict.Role

const (
	Subject   = dict.Subject
	Predicate = dict.Predicate
	Object    = dict.Object
)

const globalFormat = "<http://purl.org/HDT/hdt#HDTv1>"
const headerFormat = "ntriples"

// Store is an immutable, fully-resident HDT container. It permits unlimited
// concurrent readers; there is no mutation API.
type Store struct {
	dict   *dict.Dictionary
	bt     *triples.BitmapTriples
	foq    *triples.FoQ
	header []byte
}

// Size reports the cardinality of each ID space and the triple count.
type Size struct {
	NumSubjects   uint64
	NumPredicates uint64
	NumObjects    uint64
	NumTriples    uint64
	NumShared     uint64
}

// Load parses an HDT container from r in one pass and builds every derived
// structure (rank/select side tables, the FoQ indices) before returning.
// The returned Store owns no reference to r.
func Load(r io.Reader) (*Store, error) {
	br := bufio.NewReader(r)

	gci, err := ctrlinfo.Read(br)
	if err != nil {
		return nil, err
	}
	if gci.Kind != ctrlinfo.Global {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "expected global control information")
	}
	if gci.Format != globalFormat {
		return nil, hdterrors.Newf(hdterrors.FormatUnsupported, "unsupported HDT format %q", gci.Format)
	}

	header, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	d, err := dict.Read(br)
	if err != nil {
		return nil, hdterrors.Wrap(err, "dictionary")
	}

	bt, err := triples.Read(br)
	if err != nil {
		return nil, hdterrors.Wrap(err, "triples")
	}
	if err := validateWidths(d, bt); err != nil {
		return nil, err
	}

	foq, err := triples.BuildFoQ(bt, d.NumPredicates())
	if err != nil {
		return nil, hdterrors.Wrap(err, "foq")
	}

	return &Store{dict: d, bt: bt, foq: foq, header: header}, nil
}

// readHeader reads the header control information and its length-prefixed
// N-Triples payload. The payload is stored verbatim and never parsed.
func readHeader(br *bufio.Reader) ([]byte, error) {
	hci, err := ctrlinfo.Read(br)
	if err != nil {
		return nil, err
	}
	if hci.Kind != ctrlinfo.Header {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "expected header control information")
	}
	if hci.Format != headerFormat {
		return nil, hdterrors.Newf(hdterrors.FormatUnsupported, "unsupported header format %q", hci.Format)
	}
	length, _, err := vbyte.Read(br)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, hdterrors.IoErr(err)
	}
	return payload, nil
}

// validateWidths checks that Y and Z are wide enough to represent every ID
// the dictionary can produce, per the Bitmap-Triples invariant that widths
// accommodate the maximum predicate ID and the maximum object ID
// respectively; Z holds object IDs only, never subject IDs, so a graph with
// far more subjects than objects legitimately packs Z narrower than
// bits.Len64(NumSubjects) would require.
func validateWidths(d *dict.Dictionary, bt *triples.BitmapTriples) error {
	needY := uint(bits.Len64(d.NumPredicates()))
	if bt.Y.Width() < needY {
		return hdterrors.Corruptf("triples.y", "width %d cannot represent predicate ids up to %d", bt.Y.Width(), d.NumPredicates())
	}
	needZ := uint(bits.Len64(d.NumObjects()))
	if bt.Z.Width() < needZ {
		return hdterrors.Corruptf("triples.z", "width %d cannot represent object ids up to %d", bt.Z.Width(), d.NumObjects())
	}
	return nil
}

// Size reports the cardinality of every ID space and the triple count.
func (s *Store) Size() Size {
	return Size{
		NumSubjects:   s.dict.NumSubjects(),
		NumPredicates: s.dict.NumPredicates(),
		NumObjects:    s.dict.NumObjects(),
		NumTriples:    s.bt.NumTriples(),
		NumShared:     s.dict.NumShared(),
	}
}

// HeaderBytes returns the verbatim N-Triples header payload.
func (s *Store) HeaderBytes() []byte { return s.header }

// HeaderLines splits the header payload into its N-Triples statement lines
// without parsing them into terms; trailing blank lines are omitted. Each
// call copies the header payload into a new string and splits it; the
// returned strings do not alias the store's header bytes.
func (s *Store) HeaderLines() []string {
	text := strings.TrimRight(string(s.header), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Predicates returns every distinct predicate term, in ascending order.
func (s *Store) Predicates() ([]string, error) {
	n := s.dict.NumPredicates()
	out := make([]string, 0, n)
	for id := uint64(1); id <= n; id++ {
		term, err := s.dict.TermOf(id, Predicate)
		if err != nil {
			return nil, err
		}
		out = append(out, term)
	}
	return out, nil
}

// TermOf resolves a global ID in the given role back to its term.
func (s *Store) TermOf(id uint64, role Role) (string, error) {
	return s.dict.TermOf(id, role)
}

// IDOf resolves term to its global ID in the given role, or 0 if absent.
func (s *Store) IDOf(term string, role Role) uint64 {
	return s.dict.IDOf(term, role)
}

// IDPattern is a triple pattern over IDs; 0 marks a wildcard position.
type IDPattern struct {
	Subject, Predicate, Object uint64
}

// Pattern is a triple pattern over terms; a nil position is a wildcard.
type Pattern struct {
	Subject, Predicate, Object *string
}

// Triple is a fully-resolved term triple.
type Triple struct {
	Subject, Predicate, Object string
}

// TripleIDs returns the lazy cursor over ID triples matching p, dispatching
// to one of the eight pattern-iterator algorithms by which positions are
// constant.
func (s *Store) TripleIDs(p IDPattern) triples.Iterator {
	switch {
	case p.Subject != 0 && p.Predicate != 0 && p.Object != 0:
		return triples.NewSPO(s.bt, p.Subject, p.Predicate, p.Object)
	case p.Subject != 0 && p.Predicate != 0:
		return triples.NewSP(s.bt, p.Subject, p.Predicate)
	case p.Subject != 0 && p.Object != 0:
		return triples.NewSO(s.bt, p.Subject, p.Object)
	case p.Subject != 0:
		return triples.NewS(s.bt, p.Subject)
	case p.Predicate != 0 && p.Object != 0:
		return triples.NewPO(s.bt, s.foq, p.Predicate, p.Object)
	case p.Predicate != 0:
		return triples.NewP(s.bt, s.foq, p.Predicate)
	case p.Object != 0:
		return triples.NewO(s.bt, s.foq, p.Object)
	default:
		return triples.NewAll(s.bt)
	}
}

// TripleIterator yields term triples by translating the output of an
// underlying ID iterator through the dictionary, one result at a time.
type TripleIterator struct {
	store *Store
	inner triples.Iterator
}

// Next returns the next matching triple, or ok=false once exhausted.
func (it *TripleIterator) Next() (Triple, bool) {
	s, p, o, ok := it.inner.Next()
	if !ok {
		return Triple{}, false
	}
	subj, _ := it.store.dict.TermOf(s, Subject)
	pred, _ := it.store.dict.TermOf(p, Predicate)
	obj, _ := it.store.dict.TermOf(o, Object)
	return Triple{Subject: subj, Predicate: pred, Object: obj}, true
}

// Triples translates p to an ID pattern and returns the matching term
// iterator. If any constant position is a term with an embedded NUL byte,
// it returns InvalidTerm. If any constant position fails to resolve to a
// known term, it returns an iterator that yields nothing, without error.
func (s *Store) Triples(p Pattern) (*TripleIterator, error) {
	idp, matched, err := s.resolvePattern(p)
	if err != nil {
		return nil, err
	}
	if !matched {
		return &TripleIterator{store: s, inner: triples.Empty()}, nil
	}
	return &TripleIterator{store: s, inner: s.TripleIDs(idp)}, nil
}

func (s *Store) resolvePattern(p Pattern) (IDPattern, bool, error) {
	var idp IDPattern

	id, matched, err := s.resolveTerm(p.Subject, Subject)
	if err != nil || !matched {
		return idp, matched, err
	}
	idp.Subject = id

	id, matched, err = s.resolveTerm(p.Predicate, Predicate)
	if err != nil || !matched {
		return idp, matched, err
	}
	idp.Predicate = id

	id, matched, err = s.resolveTerm(p.Object, Object)
	if err != nil || !matched {
		return idp, matched, err
	}
	idp.Object = id

	return idp, true, nil
}

func (s *Store) resolveTerm(term *string, role Role) (id uint64, matched bool, err error) {
	if term == nil {
		return 0, true, nil
	}
	if strings.IndexByte(*term, 0) >= 0 {
		return 0, false, hdterrors.New(hdterrors.InvalidTerm, "term contains an interior NUL byte")
	}
	id = s.dict.IDOf(*term, role)
	return id, id != 0, nil
}
