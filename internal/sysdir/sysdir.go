// Package sysdir parses the SysDir file's packed variable-length directory records,
// looking entries up by name, tombstoning, renaming and inserting new
// ones in sorted order, and re-serializing.
//
// SysDir is itself an ordinary Alto file; this package only knows its
// record format. Loading/saving the raw bytes through the File Chain
// Engine is the Facade's job (internal/avm), mirroring how
// internal/descriptor treats DiskDescriptor as pure bytes.
package sysdir

import (
	"sort"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/codec"
)

const filePtrBytes = avmtypes.FilePtrWords * 2

// fixedPrefixBytes is the typelength word plus the embedded FilePtr.
const fixedPrefixBytes = 2 + filePtrBytes

func decodeFilePtr(buf []byte) avmtypes.FilePtr {
	return avmtypes.FilePtr{
		FidDir:    codec.GetWord(buf, 0),
		SerialNo:  codec.GetWord(buf, 2),
		Version:   codec.GetWord(buf, 4),
		Blank:     codec.GetWord(buf, 6),
		LeaderVDA: codec.GetWord(buf, 8),
	}
}

func encodeFilePtr(buf []byte, fp avmtypes.FilePtr) {
	codec.PutWord(buf, 0, fp.FidDir)
	codec.PutWord(buf, 2, fp.SerialNo)
	codec.PutWord(buf, 4, fp.Version)
	codec.PutWord(buf, 6, fp.Blank)
	codec.PutWord(buf, 8, fp.LeaderVDA)
}

// Decode parses a SysDir file body into its sequence of directory records,
// stopping at the first record whose filename length byte is zero or
// exceeds avmtypes.FNLen.
func Decode(buf []byte) []avmtypes.DirRecord {
	var recs []avmtypes.DirRecord
	pos := 0
	for pos+fixedPrefixBytes+1 <= len(buf) {
		typ := buf[pos]
		length := buf[pos+1]
		fp := decodeFilePtr(buf[pos+2 : pos+fixedPrefixBytes])

		fnameStart := pos + fixedPrefixBytes
		n := int(buf[fnameStart])
		if n == 0 || n > avmtypes.FNLen {
			break
		}
		end := fnameStart + 1 + n
		if end > len(buf) {
			break
		}
		name, _ := codec.FilenameToString(buf[fnameStart:end])

		rec := avmtypes.DirRecord{Type: typ, Length: length, FilePtr: fp, Filename: name}
		words := rec.WordSize()
		if pos+words*2 > len(buf) {
			break
		}
		recs = append(recs, rec)
		pos += words * 2
	}
	return recs
}

// Encode re-serializes records back into SysDir file-body bytes, in the
// order given.
func Encode(recs []avmtypes.DirRecord) []byte {
	total := 0
	for _, r := range recs {
		total += r.WordSize() * 2
	}
	buf := make([]byte, total)
	pos := 0
	for _, r := range recs {
		words := r.WordSize()
		recBytes := words * 2
		buf[pos] = r.Type
		buf[pos+1] = r.Length
		encodeFilePtr(buf[pos+2:pos+fixedPrefixBytes], r.FilePtr)
		// StringToFilename pads the remainder of the field with zero bytes,
		// which is what makes a short last word well-defined.
		_ = codec.StringToFilename(buf[pos+fixedPrefixBytes:pos+recBytes], r.Filename)
		pos += recBytes
	}
	return buf
}

// Dir is the in-memory, mutable System Directory.
type Dir struct {
	Records []avmtypes.DirRecord
	Dirty   bool
}

// New wraps an already-decoded record slice.
func New(recs []avmtypes.DirRecord) *Dir {
	return &Dir{Records: recs}
}

func protected(name string) bool {
	return name == avmtypes.SysDirName || name == avmtypes.DiskDescriptorName
}

// Find returns the index of the non-deleted record named name, or -1.
func (d *Dir) Find(name string) int {
	for i, r := range d.Records {
		if !r.Deleted() && r.Filename == name {
			return i
		}
	}
	return -1
}

// Remove tombstones the record named name in place, preserving on-disk
// offsets of every other record. Deleting SysDir or DiskDescriptor
// themselves is forbidden.
func (d *Dir) Remove(name string) error {
	if protected(name) {
		return avmtypes.ErrPermission
	}
	i := d.Find(name)
	if i < 0 {
		return avmtypes.ErrNotExist
	}
	d.Records[i].Type = avmtypes.DirEntryDeleted
	d.Dirty = true
	return nil
}

// Rename changes a record's filename and re-sorts the directory by name.
// The original leaves the directory unsorted after rename; this
// implementation re-sorts instead.
func (d *Dir) Rename(oldName, newName string) error {
	if protected(oldName) || protected(newName) {
		return avmtypes.ErrPermission
	}
	i := d.Find(oldName)
	if i < 0 {
		return avmtypes.ErrNotExist
	}
	if d.Find(newName) >= 0 {
		return avmtypes.ErrExist
	}
	d.Records[i].Filename = newName
	d.sort()
	d.Dirty = true
	return nil
}

// Insert adds a new record in filename-sorted position.
func (d *Dir) Insert(rec avmtypes.DirRecord) error {
	if !rec.Deleted() && d.Find(rec.Filename) >= 0 {
		return avmtypes.ErrExist
	}
	d.Records = append(d.Records, rec)
	d.sort()
	d.Dirty = true
	return nil
}

func (d *Dir) sort() {
	sort.SliceStable(d.Records, func(i, j int) bool {
		return d.Records[i].Filename < d.Records[j].Filename
	})
}
