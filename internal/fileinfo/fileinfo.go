// Package fileinfo implements a root-only, in-memory directory of
// FileInfo nodes built by scanning every page's label for leaders, kept in
// a contiguous slice and referenced by index rather than pointer (see
// DESIGN.md's "pointer graphs to index ownership" note).
package fileinfo

import (
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/chain"
)

// Tree is the File Info Tree. Nodes[0] is always the root directory.
type Tree struct {
	Nodes []avmtypes.FileInfo
}

// rootIdx is the fixed slot of the synthetic root directory node.
const rootIdx = 0

func newTree() *Tree {
	root := avmtypes.FileInfo{
		ParentIdx: -1,
		Name:      "",
		Mode:      avmtypes.ModeRootDir,
		NLink:     2,
	}
	return &Tree{Nodes: []avmtypes.FileInfo{root}}
}

// Build scans every page of the engine's image for leaders and attaches
// one FileInfo per leader as a child of the root.
func Build(e *chain.Engine) *Tree {
	t := newTree()
	n := e.Img.NPages()
	for vda := 0; vda < n; vda++ {
		l := e.Label(vda)
		if !l.IsLeader() || l.FidFile != avmtypes.FidFile {
			continue
		}
		t.addLeader(e, vda)
	}
	return t
}

func (t *Tree) addLeader(e *chain.Engine, leaderVDA int) {
	view := e.ViewOf(leaderVDA)
	ld := view.Leader()

	mode := uint32(avmtypes.ModeRegularFile)
	if ld.Filename == avmtypes.SysDirName || ld.Filename == avmtypes.DiskDescriptorName {
		mode = avmtypes.ModeProtectedFile
	}

	size := e.FileLength(leaderVDA)
	blocks := uint32(0)
	if size > 0 {
		blocks = uint32((size + avmtypes.PageSz - 1) / avmtypes.PageSz)
	}

	fi := avmtypes.FileInfo{
		ParentIdx:     rootIdx,
		Name:          ld.Filename,
		Ino:           uint32(leaderVDA),
		Mode:          mode,
		NLink:         1,
		Size:          uint64(size),
		Blocks:        blocks,
		BlkSize:       avmtypes.PageSz,
		Ctime:         ld.Created.ToUnix(),
		Mtime:         ld.Written.ToUnix(),
		Atime:         ld.Read.ToUnix(),
		LeaderPageVDA: uint16(leaderVDA),
	}
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, fi)
	t.Nodes[rootIdx].Children = append(t.Nodes[rootIdx].Children, idx)
}

// Find returns the index of the non-deleted node named name among the
// root's children, or -1.
func (t *Tree) Find(name string) int {
	for _, idx := range t.Nodes[rootIdx].Children {
		n := t.Nodes[idx]
		if !n.Deleted && n.Name == name {
			return idx
		}
	}
	return -1
}

// Root returns the root node's index (always 0).
func (t *Tree) Root() int { return rootIdx }

// Get returns the node at idx.
func (t *Tree) Get(idx int) avmtypes.FileInfo { return t.Nodes[idx] }

// Add inserts a freshly created file's node as a child of the root.
func (t *Tree) Add(fi avmtypes.FileInfo) int {
	fi.ParentIdx = rootIdx
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, fi)
	t.Nodes[rootIdx].Children = append(t.Nodes[rootIdx].Children, idx)
	return idx
}

// Unlink marks the node named name deleted; the underlying page chain is
// freed by the Facade, which owns the chain.Engine.
func (t *Tree) Unlink(name string) bool {
	idx := t.Find(name)
	if idx < 0 {
		return false
	}
	t.Nodes[idx].Deleted = true
	return true
}

// Rename changes a node's recorded name in place.
func (t *Tree) Rename(oldName, newName string) bool {
	idx := t.Find(oldName)
	if idx < 0 {
		return false
	}
	t.Nodes[idx].Name = newName
	return true
}

// Refresh recomputes size/blocks/mtime for the node at idx after a
// write or truncate.
func (t *Tree) Refresh(e *chain.Engine, idx int) {
	fi := &t.Nodes[idx]
	size := e.FileLength(int(fi.LeaderPageVDA))
	fi.Size = uint64(size)
	if size > 0 {
		fi.Blocks = uint32((size + avmtypes.PageSz - 1) / avmtypes.PageSz)
	} else {
		fi.Blocks = 0
	}
	ld := e.ViewOf(int(fi.LeaderPageVDA)).Leader()
	fi.Mtime = ld.Written.ToUnix()
	fi.Atime = ld.Read.ToUnix()
}
