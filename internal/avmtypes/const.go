// Package avmtypes defines the on-disk and in-memory data structures of the
// Alto Volume Manager: words, pages, labels, leaders, directory records and
// the disk descriptor header. All multi-byte values described here are
// big-endian on disk regardless of host byte order; the avmtypes package
// itself only defines shapes, it does not perform the byte-swapping (see
// package codec).
package avmtypes

// Geometry of a Diablo disk image, fixed by the Alto hardware.
const (
	NCyls  = 203
	NHeads = 2
	NSecs  = 12
	NPages = NCyls * NHeads * NSecs // 4872
	PageSz = 512                    // bytes of data per page
	FNLen  = 40                     // max encoded filename length, incl. length byte and trailing dot
)

// Label field sentinels.
const (
	FidFree = 0xFFFF // fid_file / fid_dir / fid_id value for an unallocated page
	FidFile = 1      // fid_file value for a page in use
	FidDir  = 0x8000 // fid_dir value for a directory file's pages
)

// Directory record type byte.
const (
	DirEntryInUse  = 4
	DirEntryDeleted = 0
)

// Well-known file names. Both live in the flat root and can never be
// deleted or renamed.
const (
	SysDirName         = "SysDir"
	DiskDescriptorName = "DiskDescriptor"
)

// File modes assigned by the File Info Tree (§4.8).
const (
	ModeProtectedFile = 0400
	ModeRegularFile   = 0666
	ModeRootDir       = 0755
)
