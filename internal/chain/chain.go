// Package chain implements the File Chain Engine: walking doubly-linked
// page chains, computing length, reading/writing/truncating
// a file at arbitrary byte offsets, and page allocation/free with the
// locality search policy.
package chain

import (
	"github.com/io-core/altofs/internal/addr"
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/image"
	"github.com/io-core/altofs/internal/pagestore"
)

// Engine operates on a loaded image, its free-page bit table and the
// descriptor header's mutable free_pages / last_sn counters. It holds no
// state of its own; the Facade (internal/avm) owns the image, table and
// header and is the synchronization boundary.
type Engine struct {
	Img  *image.Image
	BT   *bitmap.Table
	Desc *avmtypes.DescriptorHeader
}

func (e *Engine) view(vda int) pagestore.View {
	return pagestore.View{Raw: e.Img.Page(vda)}
}

// ViewOf exposes the page view at vda for callers (internal/fileinfo,
// internal/avm) that need leader decoding or raw data access beyond the
// label-level helpers below.
func (e *Engine) ViewOf(vda int) pagestore.View {
	return e.view(vda)
}

// Label returns the label of the page at vda.
func (e *Engine) Label(vda int) avmtypes.Label {
	return e.view(vda).Label()
}

// SetLabel overwrites the label of the page at vda.
func (e *Engine) SetLabel(vda int, l avmtypes.Label) {
	e.view(vda).SetLabel(l)
}

// next/prev resolve a label's chain pointer to a VDA, returning -1 for the
// rda==0 end-of-chain/unallocated sentinel.
func next(l avmtypes.Label) int {
	if l.NextRDA == 0 {
		return -1
	}
	return int(addr.RDAToVDA(addr.RDA(l.NextRDA)))
}

func prev(l avmtypes.Label) int {
	if l.PrevRDA == 0 {
		return -1
	}
	return int(addr.RDAToVDA(addr.RDA(l.PrevRDA)))
}

// Next and Prev expose the chain-pointer resolution above for callers
// outside this package (internal/fsck's reconciliation walk).
func Next(l avmtypes.Label) int { return next(l) }
func Prev(l avmtypes.Label) int { return prev(l) }

// FileLength walks the chain from leaderVDA's first data page and sums
// nbytes across every page (the leader itself does not contribute bytes).
func (e *Engine) FileLength(leaderVDA int) int64 {
	var total int64
	vda := next(e.Label(leaderVDA))
	for vda >= 0 {
		l := e.Label(vda)
		total += int64(l.NBytes)
		vda = next(l)
	}
	return total
}

// ReadFile copies bytes from a file chain into buf. It returns the number of
// bytes actually copied into buf.
func (e *Engine) ReadFile(leaderVDA int, buf []byte, size int, offset int64) int {
	vda := next(e.Label(leaderVDA))
	var pos int64
	read := 0
	for vda >= 0 && size > 0 {
		l := e.Label(vda)
		pageStart := pos
		pageEnd := pos + int64(l.NBytes)

		switch {
		case offset >= pageEnd:
			// entirely before the window we want; skip.
		case offset >= pageStart:
			// partial first page.
			intraOff := offset - pageStart
			n := int64(l.NBytes) - intraOff
			if n > int64(size) {
				n = int64(size)
			}
			copy(buf[read:read+int(n)], e.view(vda).Data()[intraOff:intraOff+n])
			read += int(n)
			size -= int(n)
			offset += n
		default:
			// aligned page, offset already consumed.
			n := int64(size)
			if n > int64(l.NBytes) {
				n = int64(l.NBytes)
			}
			copy(buf[read:read+int(n)], e.view(vda).Data()[:n])
			read += int(n)
			size -= int(n)
			offset += n
		}

		if l.NBytes < avmtypes.PageSz {
			break
		}
		pos = pageEnd
		vda = next(l)
	}
	return read
}

// WriteFile copies bytes from buf into a file chain. hint is the caller's
// last_page_hint (avmtypes.LastPageHint zero value means
// "start from the leader"). It returns the number of bytes written and the
// updated last-page hint; ok is false iff allocation failed partway
// through (a partial write, not a hard error).
func (e *Engine) WriteFile(leaderVDA int, buf []byte, size int, offset int64, hint avmtypes.LastPageHint) (written int, newHint avmtypes.LastPageHint, ok bool) {
	vda := next(e.Label(leaderVDA))
	var pos int64
	if hint.VDA != 0 {
		// Reconstruct pos for the hinted page from filepage*PageSz is not
		// exact for a short page, but the hint always refers to the
		// current last (possibly partial) page, so pos is simply
		// (filepage-1)*PageSz assuming all prior pages are full, which
		// holds by invariant 3.
		hintedPos := int64(hint.FilePage-1) * avmtypes.PageSz
		if offset >= hintedPos {
			vda = int(hint.VDA)
			pos = hintedPos
		}
	}

	var prevVDA int
	if vda < 0 {
		prevVDA = leaderVDA
	}

	for size > 0 {
		if vda < 0 {
			newVDA, err := e.AllocPage(prevVDA)
			if err != nil {
				ok = false
				return
			}
			vda = newVDA
		}
		l := e.Label(vda)
		pageStart := pos
		full := l.NBytes == avmtypes.PageSz

		var intraOff int64
		if offset > pageStart {
			intraOff = offset - pageStart
		}
		if intraOff > avmtypes.PageSz {
			intraOff = avmtypes.PageSz
		}

		n := int64(avmtypes.PageSz) - intraOff
		if n > int64(size) {
			n = int64(size)
		}
		if n < 0 {
			n = 0
		}

		data := e.view(vda).Data()
		copy(data[intraOff:intraOff+n], buf[written:written+int(n)])
		written += int(n)
		size -= int(n)
		offset += n

		newNBytes := intraOff + n
		if newNBytes > int64(l.NBytes) || !full {
			l.NBytes = uint16(newNBytes)
			if l.NBytes > avmtypes.PageSz {
				l.NBytes = avmtypes.PageSz
			}
			e.SetLabel(vda, l)
		}

		newHint = avmtypes.LastPageHint{VDA: uint16(vda), FilePage: l.FilePage, CharPos: l.NBytes}

		if l.NBytes < avmtypes.PageSz {
			// file's new logical tail; stop even if more bytes remain
			// only when there is nothing left to write.
			if size == 0 {
				break
			}
		}

		pos = pageStart + int64(l.NBytes)
		prevVDA = vda
		vda = next(l)
	}
	ok = true
	return
}

// TruncateFile resizes a file chain to newSize. id is the file's
// fid_id (used by FreePage to assert chain consistency).
func (e *Engine) TruncateFile(leaderVDA int, newSize int64, id uint16) (newHint avmtypes.LastPageHint, err error) {
	vda := next(e.Label(leaderVDA))
	var pos int64
	prevVDA := leaderVDA
	for vda >= 0 {
		l := e.Label(vda)
		pageEnd := pos + int64(l.NBytes)
		switch {
		case pos >= newSize:
			nextVDA := next(l)
			if ferr := e.FreePage(vda, id); ferr != nil {
				return newHint, ferr
			}
			l2 := e.Label(prevVDA)
			l2.NextRDA = 0
			e.SetLabel(prevVDA, l2)
			vda = nextVDA
			continue
		case pageEnd > newSize:
			rest := next(l)
			l.NBytes = uint16(newSize - pos)
			l.NextRDA = 0
			e.SetLabel(vda, l)
			newHint = avmtypes.LastPageHint{VDA: uint16(vda), FilePage: l.FilePage, CharPos: l.NBytes}
			for rest >= 0 {
				nextRest := next(e.Label(rest))
				if ferr := e.FreePage(rest, id); ferr != nil {
					return newHint, ferr
				}
				rest = nextRest
			}
			return newHint, nil
		default:
			pos = pageEnd
			prevVDA = vda
			vda = next(l)
		}
	}
	// Reached end of chain at or before newSize: extend with fresh
	// pages, which AllocPage hands out zero-filled.
	for pos < newSize {
		nv, aerr := e.AllocPage(prevVDA)
		if aerr != nil {
			return newHint, aerr
		}
		l := e.Label(nv)
		chunk := newSize - pos
		if chunk > avmtypes.PageSz {
			chunk = avmtypes.PageSz
		}
		l.NBytes = uint16(chunk)
		e.SetLabel(nv, l)
		newHint = avmtypes.LastPageHint{VDA: uint16(nv), FilePage: l.FilePage, CharPos: l.NBytes}
		pos += chunk
		prevVDA = nv
	}
	return newHint, nil
}

// AllocPage performs locality-searching
// allocation starting from prevVDA, linking the new page into the chain.
// prevVDA == 0 allocates a fresh leader (a new file identifier is minted).
func (e *Engine) AllocPage(prevVDA int) (int, error) {
	if e.Desc.FreePages == 0 {
		return 0, avmtypes.ErrNoSpace
	}

	bitCount := e.BT.BitCount()
	found := -1
	for dist := 1; dist < bitCount; dist++ {
		upper := prevVDA + dist
		if upper < bitCount && e.BT.Get(upper) == 0 {
			found = upper
			break
		}
		lower := prevVDA - dist
		if lower > 1 && e.BT.Get(lower) == 0 {
			found = lower
			break
		}
	}
	if found < 0 {
		return 0, avmtypes.ErrNoSpace
	}

	e.BT.Set(found, 1)
	e.Desc.FreePages--

	v := e.view(found)
	v.ZeroData()
	v.ZeroLabel()

	var l avmtypes.Label
	if prevVDA != 0 {
		pl := e.Label(prevVDA)
		l.FidFile = pl.FidFile
		l.FidDir = pl.FidDir
		l.FidID = pl.FidID
		l.FilePage = pl.FilePage + 1
		l.NBytes = 0
		l.PrevRDA = uint16(addr.VDAToRDA(addr.VDA(prevVDA)))
		pl.NextRDA = uint16(addr.VDAToRDA(addr.VDA(found)))
		e.SetLabel(prevVDA, pl)
	} else {
		l.FidID = uint16(e.Desc.LastSerialNo())
		e.Desc.SetLastSerialNo(e.Desc.LastSerialNo() + 1)
		l.FidFile = avmtypes.FidFile
		l.FidDir = 0
		l.FilePage = 0
		l.NBytes = avmtypes.PageSz
	}
	e.SetLabel(found, l)
	return found, nil
}

// FreePage releases a page back to the bit table. It returns avmtypes.ErrCorrupt
// if the page holds bytes (nbytes != 0) and its fid_id is not id; a page
// with nbytes == 0 is freed whatever its fid_id.
func (e *Engine) FreePage(vda int, id uint16) error {
	l := e.Label(vda)
	if l.NBytes != 0 && l.FidID != id {
		return avmtypes.ErrCorrupt
	}
	l.FidFile = avmtypes.FidFree
	l.FidDir = avmtypes.FidFree
	l.FidID = avmtypes.FidFree
	l.NextRDA = 0
	l.PrevRDA = 0
	l.NBytes = 0
	l.FilePage = 0
	e.SetLabel(vda, l)
	e.Desc.FreePages++
	e.BT.Set(vda, 0)
	return nil
}
