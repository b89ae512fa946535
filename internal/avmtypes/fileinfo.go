package avmtypes

import "time"

// FileInfo is one node of the File Info Tree. The tree is root-only (Alto
// has a flat directory): every non-root node's parent is the root. Nodes
// are held in a contiguous slice by the fileinfo package and referenced
// by index rather than pointer (see DESIGN.md's "pointer graphs -> index
// ownership" note).
type FileInfo struct {
	ParentIdx int   // index of parent node, -1 for the root
	Children  []int // ordered child indices; only ever populated on the root

	Name string // without the trailing dot; empty for the root

	Ino     uint32 // leader page VDA
	Mode    uint32
	NLink   uint32
	Size    uint64
	Blocks  uint32
	BlkSize uint32 // always PageSz

	Ctime time.Time
	Mtime time.Time
	Atime time.Time

	LeaderPageVDA uint16
	Deleted       bool
}

// IsDir reports whether the node is the root directory.
func (fi FileInfo) IsDir() bool {
	return fi.ParentIdx < 0
}
