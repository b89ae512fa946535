// Package descriptor decodes/encodes the DiskDescriptor file's header and
// bit table, and validates the loaded state against the rest of the volume.
//
// DiskDescriptor is an ordinary Alto file (found by name, read/written
// through the File Chain Engine like any other file); this package only
// knows how to interpret its bytes: read the fixed header, then
// cross-check it against the rest of the volume.
package descriptor

import (
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/codec"
)

// HeaderBytes is the on-disk size of DescriptorHeader.
const HeaderBytes = avmtypes.DescriptorHeaderWords * 2

// DecodeHeader parses the 32-byte DiskDescriptor header.
func DecodeHeader(buf []byte) avmtypes.DescriptorHeader {
	var h avmtypes.DescriptorHeader
	h.NDisks = codec.GetWord(buf, 0)
	h.NTracks = codec.GetWord(buf, 2)
	h.NHeads = codec.GetWord(buf, 4)
	h.NSectors = codec.GetWord(buf, 6)
	h.LastSN[0] = codec.GetWord(buf, 8)
	h.LastSN[1] = codec.GetWord(buf, 10)
	h.Blank = codec.GetWord(buf, 12)
	h.DiskBTSize = codec.GetWord(buf, 14)
	h.DefVersionsKept = codec.GetWord(buf, 16)
	h.FreePages = codec.GetWord(buf, 18)
	for i := 0; i < 6; i++ {
		h.Blank1[i] = codec.GetWord(buf, 20+i*2)
	}
	return h
}

// EncodeHeader serializes h into buf, which must be at least HeaderBytes
// long.
func EncodeHeader(h avmtypes.DescriptorHeader, buf []byte) {
	codec.PutWord(buf, 0, h.NDisks)
	codec.PutWord(buf, 2, h.NTracks)
	codec.PutWord(buf, 4, h.NHeads)
	codec.PutWord(buf, 6, h.NSectors)
	codec.PutWord(buf, 8, h.LastSN[0])
	codec.PutWord(buf, 10, h.LastSN[1])
	codec.PutWord(buf, 12, h.Blank)
	codec.PutWord(buf, 14, h.DiskBTSize)
	codec.PutWord(buf, 16, h.DefVersionsKept)
	codec.PutWord(buf, 18, h.FreePages)
	for i := 0; i < 6; i++ {
		codec.PutWord(buf, 20+i*2, h.Blank1[i])
	}
}

// Decode parses a full DiskDescriptor file body (header followed
// immediately by the bit table) into a header and a bitmap.Table.
func Decode(buf []byte) (avmtypes.DescriptorHeader, *bitmap.Table) {
	h := DecodeHeader(buf)
	bt := bitmap.Decode(buf[HeaderBytes:], int(h.DiskBTSize))
	return h, bt
}

// Encode serializes h and bt back into the DiskDescriptor file body
// format Decode expects.
func Encode(h avmtypes.DescriptorHeader, bt *bitmap.Table) []byte {
	buf := make([]byte, HeaderBytes+len(bt.Words)*2)
	EncodeHeader(h, buf)
	bt.Encode(buf[HeaderBytes:])
	return buf
}

// ValidationResult carries the outcome of Validate along with enough
// detail for the caller to decide whether a fix pass is warranted.
type ValidationResult struct {
	OK                bool
	GeometryOK        bool
	VersionsOK        bool
	FreePagesMatchBits bool
	FreePagesMatchFids bool
}

// Validate checks a loaded header and bit table against the volume's
// consistency assertions. bitFreeCount and labelFreeCount are supplied by the caller
// (the Facade), which has already counted 0-bits in bt and all-fids-free
// labels across the image.
func Validate(h avmtypes.DescriptorHeader, nDisks int, bitFreeCount, labelFreeCount int) ValidationResult {
	r := ValidationResult{
		GeometryOK: int(h.NDisks) == nDisks &&
			h.NTracks == avmtypes.NCyls &&
			h.NHeads == avmtypes.NHeads &&
			h.NSectors == avmtypes.NSecs,
		VersionsOK:         h.DefVersionsKept == 0,
		FreePagesMatchBits: int(h.FreePages) == bitFreeCount,
		FreePagesMatchFids: int(h.FreePages) == labelFreeCount,
	}
	r.OK = r.GeometryOK && r.VersionsOK && r.FreePagesMatchBits && r.FreePagesMatchFids
	return r
}
