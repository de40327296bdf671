// Package hdterrors wraps github.com/pkg/errors and adds the coded error
// kinds surfaced by this module's public interface: Io, FormatUnsupported,
// Corrupt, IdOutOfRange and InvalidTerm. It lives apart from the packages
// that produce these errors (bitseq, packedarray, dict, triples) so that
// none of them need to import the root package and create a cycle.
package hdterrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is an error code that callers can check against with Is.
type Kind string

const (
	// Io indicates the input stream failed or ended prematurely.
	Io Kind = "Io"
	// FormatUnsupported indicates a magic, format URI or section type byte
	// that isn't the recognized default HDT variant.
	FormatUnsupported Kind = "FormatUnsupported"
	// CorruptKind indicates a CRC mismatch, popcount mismatch, width
	// overflow or other internal invariant violation discovered during
	// build.
	CorruptKind Kind = "Corrupt"
	// IdOutOfRange indicates a query supplied an ID below 1 or above a
	// role's maximum.
	IdOutOfRange Kind = "IdOutOfRange"
	// InvalidTerm indicates a term contains an interior NUL byte, which the
	// front-coded dictionary can't represent since NUL terminates entries.
	InvalidTerm Kind = "InvalidTerm"
)

// codedError carries a Kind alongside the wrapped message so that Is can
// match against the kind regardless of the specific message text.
type codedError struct {
	kind    Kind
	message string
}

func (e *codedError) Error() string { return e.message }

func (e *codedError) Is(target error) bool {
	other, ok := target.(*codedError)
	return ok && other.kind == e.kind
}

// New returns an error of the given kind carrying message, with a stack
// trace attached.
func New(kind Kind, message string) error {
	return errors.WithStack(&codedError{kind: kind, message: message})
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Corrupt builds a Corrupt(section, reason) error as described by the
// propagation policy: section names the container part being parsed
// (e.g. "dictionary.shared", "triples.bitmap_y"), reason is a short
// human-readable explanation.
func Corrupt(section, reason string) error {
	return New(CorruptKind, fmt.Sprintf("%s: %s", section, reason))
}

// Corruptf is Corrupt with a formatted reason.
func Corruptf(section, format string, args ...interface{}) error {
	return Corrupt(section, fmt.Sprintf(format, args...))
}

// Is reports whether err (or any error it wraps) is of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &codedError{kind: kind})
}

// Wrap annotates err with message, preserving the original error (and its
// Kind, if any) for Is / As / Unwrap.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// IoErr wraps an I/O failure encountered while reading the container as an
// Io error. Only the failure's message text is kept; the original error
// value is not reachable through Unwrap.
func IoErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(New(Io, err.Error()), "reading HDT container")
}
