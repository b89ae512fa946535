package avmtypes

// DirRecord is one variable-length record of the SysDir file
// (afs_dv_t in original_source/afs_types.h).
type DirRecord struct {
	Type     byte // DirEntryInUse (4) or DirEntryDeleted (0)
	Length   byte // on-disk "length" byte, not authoritative for record size
	FilePtr  FilePtr
	Filename string // decoded, without the trailing dot
}

// Deleted reports whether the record is a tombstone.
func (r DirRecord) Deleted() bool {
	return r.Type == DirEntryDeleted
}

// WordSize returns the record's total size in 16-bit words on disk,
// the fixed prefix (typelength + fileptr, 6 words) plus the padded
// filename field.
func (r DirRecord) WordSize() int {
	fnlen := EncodedFilenameLen(r.Filename)
	return ((fnlen | 1) + 1) / 2 + 1 + FilePtrWords
}

// EncodedFilenameLen returns the length, in bytes, of name's Pascal
// encoding on disk: one length byte, the characters, and the mandatory
// trailing dot.
func EncodedFilenameLen(name string) int {
	return len(name) + 2
}
