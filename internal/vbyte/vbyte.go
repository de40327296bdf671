// Package vbyte implements the variable-byte integer encoding used for
// lengths and counts throughout the HDT container format: 7 bits of payload
// per byte, least-significant group first, with the continuation bit set in
// the MSB of every byte except the last.
package vbyte

import (
	"bufio"
	"io"

	"github.com/KonradHoeffner/hdt/hdterrors"
)

// maxBytes bounds how many bytes a single vbyte value may span before it is
// considered corrupt; 10 bytes cover a full 64-bit value with room to spare.
const maxBytes = 10

// Read decodes a single variable-byte integer from r and returns the value
// together with the raw bytes consumed, so callers can fold them into a
// running CRC history without re-encoding.
func Read(r *bufio.Reader) (uint64, []byte, error) {
	var n uint64
	var shift uint
	raw := make([]byte, 0, 4)
	for i := 0; i < maxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, nil, hdterrors.IoErr(err)
		}
		raw = append(raw, b)
		n |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, raw, nil
		}
		shift += 7
	}
	return 0, nil, hdterrors.New(hdterrors.Io, "variable-byte integer exceeds maximum length")
}

// Encode returns the variable-byte encoding of n.
func Encode(n uint64) []byte {
	var buf []byte
	for n > 0x7f {
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
	buf = append(buf, byte(n))
	return buf
}
