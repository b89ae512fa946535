// Package pagestore provides typed views into the page records of the
// in-memory image (avmtypes.RecordBytes = 534 bytes each): header,
// label, data. All accessors decode/encode through package codec, so the
// page's backing bytes are always exactly the on-disk big-endian layout.
package pagestore

import (
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/codec"
)

// View wraps one page's raw record bytes (avmtypes.RecordBytes long).
type View struct {
	Raw []byte
}

// Header returns the page's two header words.
func (v View) Header() [2]uint16 {
	return [2]uint16{
		codec.GetWord(v.Raw, avmtypes.HeaderOffset),
		codec.GetWord(v.Raw, avmtypes.HeaderOffset+2),
	}
}

// Data returns the page's 512-byte data region.
func (v View) Data() []byte {
	return v.Raw[avmtypes.DataOffset : avmtypes.DataOffset+avmtypes.PageSz]
}

// Label decodes the page's label region.
func (v View) Label() avmtypes.Label {
	b := v.Raw[avmtypes.LabelOffset:]
	return avmtypes.Label{
		NextRDA:  codec.GetWord(b, 0),
		PrevRDA:  codec.GetWord(b, 2),
		Unused1:  codec.GetWord(b, 4),
		NBytes:   codec.GetWord(b, 6),
		FilePage: codec.GetWord(b, 8),
		FidFile:  codec.GetWord(b, 10),
		FidDir:   codec.GetWord(b, 12),
		FidID:    codec.GetWord(b, 14),
	}
}

// SetLabel encodes lbl into the page's label region.
func (v View) SetLabel(lbl avmtypes.Label) {
	b := v.Raw[avmtypes.LabelOffset:]
	codec.PutWord(b, 0, lbl.NextRDA)
	codec.PutWord(b, 2, lbl.PrevRDA)
	codec.PutWord(b, 4, lbl.Unused1)
	codec.PutWord(b, 6, lbl.NBytes)
	codec.PutWord(b, 8, lbl.FilePage)
	codec.PutWord(b, 10, lbl.FidFile)
	codec.PutWord(b, 12, lbl.FidDir)
	codec.PutWord(b, 14, lbl.FidID)
}

// ZeroData clears the page's data region (used when allocating a fresh
// page on allocation).
func (v View) ZeroData() {
	codec.ZeroPage(v.Data())
}

// ZeroLabel resets the page's label region to all zero words.
func (v View) ZeroLabel() {
	v.SetLabel(avmtypes.Label{})
}

// Leader decodes the page's data region as a leader page
// It is only meaningful when Label().IsLeader().
func (v View) Leader() avmtypes.Leader {
	d := v.Data()
	var l avmtypes.Leader
	l.Created = avmtypes.AltoTime{Hi: codec.GetWord(d, 0), Lo: codec.GetWord(d, 2)}
	l.Written = avmtypes.AltoTime{Hi: codec.GetWord(d, 4), Lo: codec.GetWord(d, 6)}
	l.Read = avmtypes.AltoTime{Hi: codec.GetWord(d, 8), Lo: codec.GetWord(d, 10)}

	name, _ := codec.FilenameToString(d[12 : 12+avmtypes.FNLen])
	l.Filename = name

	off := 12 + avmtypes.FNLen
	for i := 0; i < len(l.LeaderProps); i++ {
		l.LeaderProps[i] = codec.GetWord(d, off+i*2)
	}
	off += len(l.LeaderProps) * 2
	for i := 0; i < len(l.Spare); i++ {
		l.Spare[i] = codec.GetWord(d, off+i*2)
	}
	off += len(l.Spare) * 2

	// proplength/propbegin/change_SN/consecutive pack two bytes per word.
	propWord := codec.GetWord(d, off)
	l.PropLength = byte(propWord >> 8)
	l.PropBegin = byte(propWord)
	off += 2
	flagWord := codec.GetWord(d, off)
	l.ChangeSN = byte(flagWord >> 8)
	l.Consecutive = byte(flagWord)
	off += 2

	l.DirFPHint = readFilePtr(d, off)
	off += avmtypes.FilePtrWords * 2
	l.LastPage = avmtypes.LastPageHint{
		VDA:      codec.GetWord(d, off),
		FilePage: codec.GetWord(d, off+2),
		CharPos:  codec.GetWord(d, off+4),
	}
	return l
}

// SetLeader encodes l into the page's data region.
func (v View) SetLeader(l avmtypes.Leader) error {
	d := v.Data()
	codec.PutWord(d, 0, l.Created.Hi)
	codec.PutWord(d, 2, l.Created.Lo)
	codec.PutWord(d, 4, l.Written.Hi)
	codec.PutWord(d, 6, l.Written.Lo)
	codec.PutWord(d, 8, l.Read.Hi)
	codec.PutWord(d, 10, l.Read.Lo)

	if err := codec.StringToFilename(d[12:12+avmtypes.FNLen], l.Filename); err != nil {
		return err
	}

	off := 12 + avmtypes.FNLen
	for i := 0; i < len(l.LeaderProps); i++ {
		codec.PutWord(d, off+i*2, l.LeaderProps[i])
	}
	off += len(l.LeaderProps) * 2
	for i := 0; i < len(l.Spare); i++ {
		codec.PutWord(d, off+i*2, l.Spare[i])
	}
	off += len(l.Spare) * 2

	codec.PutWord(d, off, uint16(l.PropLength)<<8|uint16(l.PropBegin))
	off += 2
	codec.PutWord(d, off, uint16(l.ChangeSN)<<8|uint16(l.Consecutive))
	off += 2

	writeFilePtr(d, off, l.DirFPHint)
	off += avmtypes.FilePtrWords * 2
	codec.PutWord(d, off, l.LastPage.VDA)
	codec.PutWord(d, off+2, l.LastPage.FilePage)
	codec.PutWord(d, off+4, l.LastPage.CharPos)
	return nil
}

func readFilePtr(buf []byte, off int) avmtypes.FilePtr {
	return avmtypes.FilePtr{
		FidDir:    codec.GetWord(buf, off),
		SerialNo:  codec.GetWord(buf, off+2),
		Version:   codec.GetWord(buf, off+4),
		Blank:     codec.GetWord(buf, off+6),
		LeaderVDA: codec.GetWord(buf, off+8),
	}
}

func writeFilePtr(buf []byte, off int, fp avmtypes.FilePtr) {
	codec.PutWord(buf, off, fp.FidDir)
	codec.PutWord(buf, off+2, fp.SerialNo)
	codec.PutWord(buf, off+4, fp.Version)
	codec.PutWord(buf, off+6, fp.Blank)
	codec.PutWord(buf, off+8, fp.LeaderVDA)
}
