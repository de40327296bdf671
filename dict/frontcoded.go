// Package dict implements the front-coded dictionary section and the
// four-partition dictionary that composes four of them (SHARED,
// SUBJECT-ONLY, OBJECT-ONLY, PREDICATE) into the term<->ID mapping used by
// the rest of the store.
package dict

import (
	"bufio"
	"bytes"
	"io"

	"github.com/KonradHoeffner/hdt/hdterrors"
	"github.com/KonradHoeffner/hdt/internal/checksum"
	"github.com/KonradHoeffner/hdt/internal/vbyte"
	"github.com/KonradHoeffner/hdt/packedarray"
)

// frontCodedType is the only dictionary section type this module reads.
const frontCodedType = 2

// FrontCodedSection is a sorted block of byte strings, 1-indexed, where each
// block's first entry is stored verbatim and subsequent entries in the
// block are stored as (shared-prefix-length, suffix).
type FrontCodedSection struct {
	numStrings   uint64
	blockSize    uint64
	blockOffsets *packedarray.PackedArray // byte offset of each block's literal within packedData
	packedData   []byte
}

// Len returns the number of strings stored in the section.
func (s *FrontCodedSection) Len() uint64 { return s.numStrings }

func (s *FrontCodedSection) numBlocks() uint64 {
	if s.numStrings == 0 {
		return 0
	}
	return (s.numStrings + s.blockSize - 1) / s.blockSize
}

// strlen returns the length of the NUL-terminated string starting at
// offset, not including the terminator.
func (s *FrontCodedSection) strlen(offset uint64) uint64 {
	i := offset
	for i < uint64(len(s.packedData)) && s.packedData[i] != 0 {
		i++
	}
	return i - offset
}

// blockLiteral reconstructs the first (verbatim) string of the given block.
func (s *FrontCodedSection) blockLiteral(block uint64) (string, uint64) {
	pos := s.blockOffsets.Get(block)
	n := s.strlen(pos)
	return string(s.packedData[pos : pos+n]), pos + n + 1
}

// Extract reconstructs the string with the given 1-based ID.
func (s *FrontCodedSection) Extract(id uint64) (string, error) {
	if id < 1 || id > s.numStrings {
		return "", hdterrors.New(hdterrors.IdOutOfRange, "front-coded section: id out of range")
	}
	block := (id - 1) / s.blockSize
	target := (id - 1) % s.blockSize

	current, pos := s.blockLiteral(block)
	str := []byte(current)
	for i := uint64(0); i < target; i++ {
		delta, n := decodeVbyte(s.packedData, pos)
		pos += uint64(n)
		suffixLen := s.strlen(pos)
		str = append(str[:delta:delta], s.packedData[pos:pos+suffixLen]...)
		pos += suffixLen + 1
	}
	return string(str), nil
}

// Locate returns the 1-based ID of key within the section, or 0 if absent.
func (s *FrontCodedSection) Locate(key string) uint64 {
	if s.numStrings == 0 {
		return 0
	}
	nb := s.numBlocks()
	// Binary search over block literals: find the last block whose literal
	// is <= key.
	lo, hi := uint64(0), nb-1
	block := uint64(0)
	for lo <= hi {
		mid := lo + (hi-lo)/2
		literal, _ := s.blockLiteral(mid)
		switch {
		case key == literal:
			return mid*s.blockSize + 1
		case key < literal:
			if mid == 0 {
				return 0
			}
			hi = mid - 1
		default:
			block = mid
			lo = mid + 1
		}
	}

	offset := s.locateInBlock(block, key)
	if offset == 0 {
		return 0
	}
	return block*s.blockSize + offset + 1
}

// locateInBlock scans the entries of block sequentially looking for key,
// returning its 0-based offset within the block, or 0 if not found.
func (s *FrontCodedSection) locateInBlock(block uint64, key string) uint64 {
	if block >= s.numBlocks() {
		return 0
	}
	current, pos := s.blockLiteral(block)
	str := []byte(current)
	shared := longestCommonPrefix(str, []byte(key))

	limit := s.blockSize
	if remaining := s.numStrings - block*s.blockSize; remaining < limit {
		limit = remaining
	}
	for idx := uint64(1); idx < limit && pos < uint64(len(s.packedData)); idx++ {
		delta, n := decodeVbyte(s.packedData, pos)
		pos += uint64(n)
		suffixLen := s.strlen(pos)
		str = append(str[:delta:delta], s.packedData[pos:pos+suffixLen]...)
		pos += suffixLen + 1

		if int(delta) < shared {
			// This and all following entries in the block sort after key.
			return 0
		}
		// When delta > shared the entry still agrees with key on exactly
		// shared bytes, so shared only grows when delta == shared.
		if int(delta) == shared {
			shared = int(delta) + longestCommonPrefix(str[delta:], []byte(key)[min(uint64(delta), uint64(len(key))):])
		}
		if shared == len(str) && len(str) == len(key) {
			return idx
		}
	}
	return 0
}

func longestCommonPrefix(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// decodeVbyte decodes a vbyte at offset within data, returning the value
// and the number of bytes consumed.
func decodeVbyte(data []byte, offset uint64) (uint64, int) {
	var n uint64
	var shift uint
	i := 0
	for {
		b := data[offset+uint64(i)]
		n |= uint64(b&0x7f) << shift
		i++
		if b&0x80 == 0 {
			return n, i
		}
		shift += 7
	}
}

// readFrontCodedSection parses one front-coded section from r.
func readFrontCodedSection(r *bufio.Reader) (*FrontCodedSection, error) {
	const section = "dict.frontcoded"

	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, hdterrors.IoErr(err)
	}
	if typeByte != frontCodedType {
		return nil, hdterrors.New(hdterrors.FormatUnsupported, "unsupported dictionary section type")
	}
	history := []byte{typeByte}

	numStrings, raw, err := vbyte.Read(r)
	if err != nil {
		return nil, err
	}
	history = append(history, raw...)

	packedLength, raw, err := vbyte.Read(r)
	if err != nil {
		return nil, err
	}
	history = append(history, raw...)

	blockSizeByte, err := r.ReadByte()
	if err != nil {
		return nil, hdterrors.IoErr(err)
	}
	history = append(history, blockSizeByte)
	blockSize := uint64(blockSizeByte)
	if blockSize == 0 {
		blockSize = 1
	}

	crc8, err := r.ReadByte()
	if err != nil {
		return nil, hdterrors.IoErr(err)
	}
	if got := checksum.CRC8(history); got != crc8 {
		return nil, hdterrors.Corruptf(section, "CRC8 header mismatch: got %#02x want %#02x", got, crc8)
	}

	blockOffsets, err := packedarray.Read(r)
	if err != nil {
		return nil, hdterrors.Wrap(err, section+": block offsets")
	}

	packedData := make([]byte, packedLength)
	if _, err := io.ReadFull(r, packedData); err != nil {
		return nil, hdterrors.IoErr(err)
	}

	crc32Buf := make([]byte, 4)
	if _, err := io.ReadFull(r, crc32Buf); err != nil {
		return nil, hdterrors.IoErr(err)
	}
	want := uint32(crc32Buf[0]) | uint32(crc32Buf[1])<<8 | uint32(crc32Buf[2])<<16 | uint32(crc32Buf[3])<<24
	if got := checksum.CRC32C(packedData); got != want {
		return nil, hdterrors.Corruptf(section, "CRC32C payload mismatch: got %#08x want %#08x", got, want)
	}

	sect := &FrontCodedSection{
		numStrings:   numStrings,
		blockSize:    blockSize,
		blockOffsets: blockOffsets,
		packedData:   packedData,
	}
	if err := sect.validateAscending(); err != nil {
		return nil, err
	}
	return sect, nil
}

// validateAscending checks that every string in the section sorts strictly
// after the previous one, as required by the locate() binary search.
func (s *FrontCodedSection) validateAscending() error {
	var prev []byte
	for block := uint64(0); block < s.numBlocks(); block++ {
		current, pos := s.blockLiteral(block)
		cur := []byte(current)
		if prev != nil && bytes.Compare(prev, cur) >= 0 {
			return hdterrors.Corrupt("dict.frontcoded", "strings are not strictly ascending")
		}
		prev = cur

		limit := s.blockSize
		if remaining := s.numStrings - block*s.blockSize; remaining < limit {
			limit = remaining
		}
		for idx := uint64(1); idx < limit; idx++ {
			delta, n := decodeVbyte(s.packedData, pos)
			pos += uint64(n)
			suffixLen := s.strlen(pos)
			next := append(append([]byte{}, cur[:delta]...), s.packedData[pos:pos+suffixLen]...)
			pos += suffixLen + 1
			if bytes.Compare(cur, next) >= 0 {
				return hdterrors.Corrupt("dict.frontcoded", "strings are not strictly ascending")
			}
			cur = next
		}
		prev = cur
	}
	return nil
}

// NewFrontCoded builds a FrontCodedSection directly from a strictly
// ascending list of strings, front-coding it in memory. Used by tests that
// need a dictionary section without round-tripping through the container
// byte format.
func NewFrontCoded(strings []string, blockSize uint64) *FrontCodedSection {
	if blockSize == 0 {
		blockSize = 8
	}
	var packed []byte
	offsets := make([]uint64, 0, (len(strings)+int(blockSize)-1)/int(blockSize))
	var prev []byte
	for i, str := range strings {
		cur := []byte(str)
		if i%int(blockSize) == 0 {
			offsets = append(offsets, uint64(len(packed)))
			packed = append(packed, cur...)
			packed = append(packed, 0)
		} else {
			shared := longestCommonPrefix(prev, cur)
			packed = append(packed, encodeVbyte(uint64(shared))...)
			packed = append(packed, cur[shared:]...)
			packed = append(packed, 0)
		}
		prev = cur
	}
	return &FrontCodedSection{
		numStrings:   uint64(len(strings)),
		blockSize:    blockSize,
		blockOffsets: packedarray.NewFromValues(offsets),
		packedData:   packed,
	}
}

// encodeVbyte encodes n as a little-endian-first, MSB-continuation
// variable-byte integer, matching the decoding in decodeVbyte.
func encodeVbyte(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			return out
		}
	}
}

// AllStrings decodes every string in the section in ascending order, for
// callers that need a full materialized listing.
func (s *FrontCodedSection) AllStrings() []string {
	out := make([]string, 0, s.numStrings)
	for id := uint64(1); id <= s.numStrings; id++ {
		str, _ := s.Extract(id)
		out = append(out, str)
	}
	return out
}
