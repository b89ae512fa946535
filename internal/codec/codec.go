// Package codec implements big-endian word access into a page's raw byte
// storage, an in-place byte-pair swap utility, and Pascal-string filename
// packing.
//
// The AVM keeps its whole in-memory image as a single []byte in exactly
// the on-disk (big-endian) byte order (internal/image). Every word access
// therefore goes through encoding/binary.BigEndian, which performs the
// conversion to/from host order implicitly; the manual little-endian
// detection and conditional byte swap the original C implementation
// needed collapses entirely (see DESIGN.md). Swab is kept as a standalone
// utility for API fidelity with the original's testable byte-swap
// behavior; nothing in this package's own Read/Write path needs to call
// it because the byte slice is already in the wire order callers expect.
package codec

import (
	"encoding/binary"

	"github.com/io-core/altofs/internal/avmtypes"
)

// GetWord reads a big-endian 16-bit word at byte offset off in buf.
func GetWord(buf []byte, off int) uint16 {
	return binary.BigEndian.Uint16(buf[off : off+2])
}

// PutWord writes a big-endian 16-bit word at byte offset off in buf.
func PutWord(buf []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(buf[off:off+2], v)
}

// ReadPage copies n bytes from a page's data region (src, exactly
// avmtypes.PageSz bytes, in on-disk big-endian order) into out, such that
// out[0] is the high byte of word 0.
func ReadPage(src []byte, out []byte, n int) {
	copy(out[:n], src[:n])
}

// WritePage is ReadPage's inverse: copies n bytes from in into a page's
// data region.
func WritePage(dst []byte, in []byte, n int) {
	copy(dst[:n], in[:n])
}

// ZeroPage clears a page's data region.
func ZeroPage(dst []byte) {
	for i := range dst {
		dst[i] = 0
	}
}

// Swab swaps each adjacent byte pair of an aligned buffer in place. n must
// be even; see the package doc comment for why the AVM's own read/write
// path never needs to call it.
func Swab(buf []byte, n int) {
	for i := 0; i+1 < n; i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
}

// FilenameToString decodes a Pascal-style length-prefixed filename (length
// byte, characters, mandatory trailing dot) and returns it without the
// dot. Non-printable bytes are replaced with '#'. A zero length byte
// yields the empty string. A missing trailing dot is accepted but
// reported via ok=false rather than failing the decode.
func FilenameToString(src []byte) (name string, ok bool) {
	if len(src) == 0 {
		return "", true
	}
	n := int(src[0])
	if n == 0 {
		return "", true
	}
	if n > len(src)-1 {
		n = len(src) - 1
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		c := src[1+i]
		if c < 0x20 || c > 0x7e {
			c = '#'
		}
		buf[i] = c
	}
	if n == 0 || buf[n-1] != '.' {
		return string(buf), false
	}
	return string(buf[:n-1]), true
}

// StringToFilename encodes name as a Pascal-style length-prefixed string
// with a trailing dot into dst, which must be at least
// len(name)+2 bytes. It returns avmtypes.ErrInvalid if name is longer
// than avmtypes.FNLen-2 characters (its encoding would exceed FNLen bytes).
func StringToFilename(dst []byte, name string) error {
	if len(name) > avmtypes.FNLen-2 {
		return avmtypes.ErrInvalid
	}
	dst[0] = byte(len(name) + 1)
	copy(dst[1:], name)
	dst[1+len(name)] = '.'
	for i := 2 + len(name); i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
