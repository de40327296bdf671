package dict

import (
	"bufio"

	"github.com/KonradHoeffner/hdt/hdterrors"
	"github.com/KonradHoeffner/hdt/internal/ctrlinfo"
)

// fourSectionFormat is the only dictionary format URI this module reads;
// non-default HDT dictionary variants are out of scope.
const fourSectionFormat = "<http://purl.org/HDT/hdt#dictionaryFour>"

// Role identifies which of the three triple positions a term ID belongs to.
type Role int

const (
	Subject Role = iota
	Predicate
	Object
)

// Dictionary composes the four front-coded sections (SHARED, SUBJECT-ONLY,
// OBJECT-ONLY, PREDICATE) into the global subject/predicate/object ID
// spaces described in the data model: subject and object IDs share the
// SHARED range, predicate IDs are independent.
type Dictionary struct {
	shared, subjectsOnly, objectsOnly, predicates *FrontCodedSection
}

// NewDictionary composes four already-built front-coded sections into a
// Dictionary, in the fixed role order SHARED, SUBJECT-ONLY, OBJECT-ONLY,
// PREDICATE. Used by Read and by callers that assemble a dictionary
// directly rather than parsing it from a container.
func NewDictionary(shared, subjectsOnly, objectsOnly, predicates *FrontCodedSection) *Dictionary {
	return &Dictionary{
		shared:       shared,
		subjectsOnly: subjectsOnly,
		objectsOnly:  objectsOnly,
		predicates:   predicates,
	}
}

// Read parses the dictionary control information and its four front-coded
// sections, in the fixed order SHARED, SUBJECTS, OBJECTS, PREDICATES.
func Read(r *bufio.Reader) (*Dictionary, error) {
	ci, err := ctrlinfo.Read(r)
	if err != nil {
		return nil, err
	}
	if ci.Kind != ctrlinfo.Dictionary {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "expected dictionary control information")
	}
	if ci.Format != fourSectionFormat {
		return nil, hdterrors.Newf(hdterrors.FormatUnsupported, "unsupported dictionary format %q", ci.Format)
	}
	// The "mapping" property distinguishes dictionary ID layouts in some
	// reference implementations; since the format URI already pins this
	// reader to the four-section layout, both mapping=1 and mapping=2 are
	// accepted without further branching (see DESIGN.md).

	shared, err := readFrontCodedSection(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "dictionary.shared")
	}
	subjectsOnly, err := readFrontCodedSection(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "dictionary.subjects")
	}
	objectsOnly, err := readFrontCodedSection(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "dictionary.objects")
	}
	predicates, err := readFrontCodedSection(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, "dictionary.predicates")
	}

	return &Dictionary{
		shared:       shared,
		subjectsOnly: subjectsOnly,
		objectsOnly:  objectsOnly,
		predicates:   predicates,
	}, nil
}

// NumShared returns the number of terms used as both subject and object.
func (d *Dictionary) NumShared() uint64 { return d.shared.Len() }

// NumSubjects returns the number of distinct subjects, including shared terms.
func (d *Dictionary) NumSubjects() uint64 { return d.shared.Len() + d.subjectsOnly.Len() }

// NumObjects returns the number of distinct objects, including shared terms.
func (d *Dictionary) NumObjects() uint64 { return d.shared.Len() + d.objectsOnly.Len() }

// NumPredicates returns the number of distinct predicates.
func (d *Dictionary) NumPredicates() uint64 { return d.predicates.Len() }

// IDOf resolves term to its global ID in the given role, or 0 if term isn't
// present in that role.
func (d *Dictionary) IDOf(term string, role Role) uint64 {
	switch role {
	case Predicate:
		return d.predicates.Locate(term)
	case Subject:
		if id := d.shared.Locate(term); id != 0 {
			return id
		}
		if id := d.subjectsOnly.Locate(term); id != 0 {
			return d.shared.Len() + id
		}
		return 0
	case Object:
		if id := d.shared.Locate(term); id != 0 {
			return id
		}
		if id := d.objectsOnly.Locate(term); id != 0 {
			return d.shared.Len() + id
		}
		return 0
	default:
		return 0
	}
}

// TermOf resolves a global ID in the given role back to its term bytes.
func (d *Dictionary) TermOf(id uint64, role Role) (string, error) {
	switch role {
	case Predicate:
		return d.predicates.Extract(id)
	case Subject:
		if id == 0 || id > d.NumSubjects() {
			return "", hdterrors.New(hdterrors.IdOutOfRange, "subject id out of range")
		}
		if id <= d.shared.Len() {
			return d.shared.Extract(id)
		}
		return d.subjectsOnly.Extract(id - d.shared.Len())
	case Object:
		if id == 0 || id > d.NumObjects() {
			return "", hdterrors.New(hdterrors.IdOutOfRange, "object id out of range")
		}
		if id <= d.shared.Len() {
			return d.shared.Extract(id)
		}
		return d.objectsOnly.Extract(id - d.shared.Len())
	default:
		return "", hdterrors.New(hdterrors.IdOutOfRange, "unknown role")
	}
}
