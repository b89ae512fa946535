// Package avm implements the File System Facade: the single
// synchronization boundary that owns the loaded image, its free page bit
// table, descriptor header, File Info Tree and System Directory, and
// exposes the public operations a mount collaborator drives.
//
// Every public method here takes the Facade's one mutex at entry, standing
// in for a recursive mutual-exclusion region; Go has no native recursive
// mutex, so internal helpers (locateLeader, etc.) never re-lock, only the
// exported entry points do (see DESIGN.md).
package avm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/chain"
	"github.com/io-core/altofs/internal/descriptor"
	"github.com/io-core/altofs/internal/fileinfo"
	"github.com/io-core/altofs/internal/fsck"
	"github.com/io-core/altofs/internal/image"
	"github.com/io-core/altofs/internal/logging"
	"github.com/io-core/altofs/internal/sysdir"
)

// StatVFS mirrors the POSIX statvfs fields the mount collaborator needs.
type StatVFS struct {
	Bsize   uint32
	Blocks  uint64
	Bfree   uint64
	Files   uint64
	Ffree   uint64
	NameMax uint32
	Fsid    uint32
}

// AVM is the loaded, mutable volume. The zero value is not usable; build
// one with Load.
type AVM struct {
	mu sync.Mutex

	Img   *image.Image
	Chain *chain.Engine
	Tree  *fileinfo.Tree
	Dir   *sysdir.Dir
	log   *logging.Logger

	descLeaderVDA   int
	sysdirLeaderVDA int
	descDirty       bool
}

// Load carries the volume through its Unloaded->Loaded->Validated/Repaired
// transition: it reads the image, locates DiskDescriptor and SysDir by
// label scan, validates them, runs a Reconciliation pass if validation
// fails, and builds the File Info Tree.
func Load(spec string, log *logging.Logger) (*AVM, error) {
	if log == nil {
		log = logging.Default()
	}
	img, err := image.Load(spec)
	if err != nil {
		return nil, err
	}

	// BT/Desc are filled in below; ReadFile needs neither.
	e := &chain.Engine{Img: img}

	descLeaderVDA, ok := locateLeader(e, avmtypes.DiskDescriptorName)
	if !ok {
		return nil, fmt.Errorf("avm: %w: no DiskDescriptor leader found", avmtypes.ErrCorrupt)
	}
	sysdirLeaderVDA, ok := locateLeader(e, avmtypes.SysDirName)
	if !ok {
		return nil, fmt.Errorf("avm: %w: no SysDir leader found", avmtypes.ErrCorrupt)
	}

	descBody := make([]byte, e.FileLength(descLeaderVDA))
	e.ReadFile(descLeaderVDA, descBody, len(descBody), 0)
	h, bt := descriptor.Decode(descBody)
	e.Desc = &h
	e.BT = bt

	sysBody := make([]byte, e.FileLength(sysdirLeaderVDA))
	e.ReadFile(sysdirLeaderVDA, sysBody, len(sysBody), 0)
	dir := sysdir.New(sysdir.Decode(sysBody))

	nDisks := 1
	if img.DoubleDisk {
		nDisks = 2
	}
	labelFree := countFreeLabels(e)
	result := descriptor.Validate(h, nDisks, bt.CountFree(), labelFree)
	if !result.OK {
		log.Warnf("avm: DiskDescriptor failed validation, running reconciliation pass")
		fsck.Run(e, dir, log)
	}

	tree := fileinfo.Build(e)

	return &AVM{
		Img:             img,
		Chain:           e,
		Tree:            tree,
		Dir:             dir,
		log:             log,
		descLeaderVDA:   descLeaderVDA,
		sysdirLeaderVDA: sysdirLeaderVDA,
	}, nil
}

func locateLeader(e *chain.Engine, name string) (int, bool) {
	n := e.Img.NPages()
	for vda := 0; vda < n; vda++ {
		l := e.Label(vda)
		if !l.IsLeader() || l.FidFile != avmtypes.FidFile {
			continue
		}
		if e.ViewOf(vda).Leader().Filename == name {
			return vda, true
		}
	}
	return 0, false
}

func countFreeLabels(e *chain.Engine) int {
	n := e.Img.NPages()
	count := 0
	for vda := 0; vda < n; vda++ {
		if e.Label(vda).IsFree() {
			count++
		}
	}
	return count
}

func normalize(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Find returns the FileInfo for path.
func (a *AVM) Find(path string) (avmtypes.FileInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.Tree.Find(normalize(path))
	if idx < 0 {
		return avmtypes.FileInfo{}, false
	}
	return a.Tree.Get(idx), true
}

// List returns every non-deleted FileInfo directly under the root
// directory, for a mount collaborator's readdir.
func (a *AVM) List() []avmtypes.FileInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	root := a.Tree.Get(a.Tree.Root())
	out := make([]avmtypes.FileInfo, 0, len(root.Children))
	for _, idx := range root.Children {
		fi := a.Tree.Get(idx)
		if !fi.Deleted {
			out = append(out, fi)
		}
	}
	return out
}

// StatVFS fills a statvfs-like struct.
func (a *AVM) StatVFS() StatVFS {
	a.mu.Lock()
	defer a.mu.Unlock()
	files := uint64(len(a.Tree.Nodes[a.Tree.Root()].Children))
	return StatVFS{
		Bsize:   avmtypes.PageSz,
		Blocks:  uint64(a.Chain.Img.NPages()),
		Bfree:   uint64(a.Chain.Desc.FreePages),
		Files:   files,
		Ffree:   uint64(a.Chain.Desc.FreePages) / 2,
		NameMax: avmtypes.FNLen - 2,
		Fsid:    a.Chain.Desc.LastSerialNo(),
	}
}

// Read copies up to size bytes from path at offset into buf.
func (a *AVM) Read(path string, buf []byte, size int, offset int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.Tree.Find(normalize(path))
	if idx < 0 {
		return 0, avmtypes.ErrNotExist
	}
	fi := a.Tree.Get(idx)
	n := a.Chain.ReadFile(int(fi.LeaderPageVDA), buf, size, offset)
	a.touchAtime(idx)
	return n, nil
}

// Write copies up to size bytes from buf into path at offset. A partial
// write (ok==false from the chain engine) returns the bytes written so
// far together with avmtypes.ErrNoSpace.
func (a *AVM) Write(path string, buf []byte, size int, offset int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.Tree.Find(normalize(path))
	if idx < 0 {
		return 0, avmtypes.ErrNotExist
	}
	fi := a.Tree.Get(idx)
	hint := a.lastPageHint(int(fi.LeaderPageVDA))
	n, newHint, ok := a.Chain.WriteFile(int(fi.LeaderPageVDA), buf, size, offset, hint)
	a.setLastPageHint(int(fi.LeaderPageVDA), newHint)
	a.touchMtime(idx)
	a.Tree.Refresh(a.Chain, idx)
	a.markDescDirty()
	if !ok {
		return n, avmtypes.ErrNoSpace
	}
	return n, nil
}

// Truncate resizes the file at path to size bytes.
func (a *AVM) Truncate(path string, size int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.Tree.Find(normalize(path))
	if idx < 0 {
		return avmtypes.ErrNotExist
	}
	fi := a.Tree.Get(idx)
	id := a.Chain.Label(int(fi.LeaderPageVDA)).FidID
	newHint, err := a.Chain.TruncateFile(int(fi.LeaderPageVDA), size, id)
	if err != nil {
		return err
	}
	a.setLastPageHint(int(fi.LeaderPageVDA), newHint)
	a.Tree.Refresh(a.Chain, idx)
	a.markDescDirty()
	return nil
}

// Create makes a new, empty file at path.
func (a *AVM) Create(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := normalize(path)
	if a.Tree.Find(name) >= 0 {
		return avmtypes.ErrExist
	}

	leader, err := a.Chain.AllocPage(0)
	if err != nil {
		return err
	}
	firstPage, err := a.Chain.AllocPage(leader)
	if err != nil {
		return err
	}

	now := avmtypes.AltoTimeFromUnix(time.Now())
	ld := a.Chain.ViewOf(leader).Leader()
	ld.Filename = name
	ld.Created = now
	ld.Written = now
	ld.Read = now
	ld.DirFPHint = avmtypes.FilePtr{Version: 1, LeaderVDA: uint16(leader)}
	firstLabel := a.Chain.Label(firstPage)
	ld.LastPage = avmtypes.LastPageHint{VDA: uint16(firstPage), FilePage: firstLabel.FilePage, CharPos: firstLabel.NBytes}
	if err := a.Chain.ViewOf(leader).SetLeader(ld); err != nil {
		return err
	}

	serialNo := a.Chain.Label(leader).FidID
	rec := avmtypes.DirRecord{
		Type:    avmtypes.DirEntryInUse,
		FilePtr: avmtypes.FilePtr{FidDir: 0, SerialNo: serialNo, Version: 1, LeaderVDA: uint16(leader)},
		Filename: name,
	}
	if err := a.Dir.Insert(rec); err != nil {
		return err
	}

	a.Tree.Add(avmtypes.FileInfo{
		Name:          name,
		Ino:           uint32(leader),
		Mode:          avmtypes.ModeRegularFile,
		NLink:         1,
		BlkSize:       avmtypes.PageSz,
		Ctime:         now.ToUnix(),
		Mtime:         now.ToUnix(),
		Atime:         now.ToUnix(),
		LeaderPageVDA: uint16(leader),
	})
	return nil
}

// Unlink removes the file at path.
func (a *AVM) Unlink(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := normalize(path)
	if protected(name) {
		return avmtypes.ErrPermission
	}
	idx := a.Tree.Find(name)
	if idx < 0 {
		return avmtypes.ErrNotExist
	}
	fi := a.Tree.Get(idx)
	id := a.Chain.Label(int(fi.LeaderPageVDA)).FidID

	if _, err := a.Chain.TruncateFile(int(fi.LeaderPageVDA), 0, id); err != nil {
		return err
	}
	if err := a.Chain.FreePage(int(fi.LeaderPageVDA), id); err != nil {
		return err
	}
	if err := a.Dir.Remove(name); err != nil {
		return err
	}
	a.Tree.Unlink(name)
	return nil
}

// Rename moves the file at oldPath to newPath.
func (a *AVM) Rename(oldPath, newPath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	oldName, newName := normalize(oldPath), normalize(newPath)

	idx := a.Tree.Find(oldName)
	if idx < 0 {
		return avmtypes.ErrNotExist
	}
	if err := a.Dir.Rename(oldName, newName); err != nil {
		return err
	}
	a.Tree.Rename(oldName, newName)

	fi := a.Tree.Get(idx)
	ld := a.Chain.ViewOf(int(fi.LeaderPageVDA)).Leader()
	ld.Filename = newName
	return a.Chain.ViewOf(int(fi.LeaderPageVDA)).SetLeader(ld)
}

// SetTimes updates the access and modification times of the file at path.
func (a *AVM) SetTimes(path string, atime, mtime time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.Tree.Find(normalize(path))
	if idx < 0 {
		return avmtypes.ErrNotExist
	}
	fi := a.Tree.Get(idx)
	view := a.Chain.ViewOf(int(fi.LeaderPageVDA))
	ld := view.Leader()
	ld.Read = avmtypes.AltoTimeFromUnix(atime)
	ld.Written = avmtypes.AltoTimeFromUnix(mtime)
	if err := view.SetLeader(ld); err != nil {
		return err
	}
	a.Tree.Refresh(a.Chain, idx)
	return nil
}

// Flush carries the volume from Dirty to Saved without closing: it writes
// DiskDescriptor and SysDir back into the image if either is dirty.
func (a *AVM) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

func (a *AVM) flushLocked() error {
	if a.descDirty || a.Chain.BT.Dirty {
		body := descriptor.Encode(*a.Chain.Desc, a.Chain.BT)
		hint := a.lastPageHint(a.descLeaderVDA)
		if _, _, ok := a.Chain.WriteFile(a.descLeaderVDA, body, len(body), 0, hint); !ok {
			return avmtypes.ErrNoSpace
		}
		a.descDirty = false
		a.Chain.BT.Dirty = false
	}
	if a.Dir.Dirty {
		body := sysdir.Encode(a.Dir.Records)
		hint := a.lastPageHint(a.sysdirLeaderVDA)
		if _, _, ok := a.Chain.WriteFile(a.sysdirLeaderVDA, body, len(body), 0, hint); !ok {
			return avmtypes.ErrNoSpace
		}
		a.Dir.Dirty = false
	}
	return nil
}

// Close carries the volume from Saved to Closed: flush, then write the
// image back to its backing file(s).
func (a *AVM) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.flushLocked(); err != nil {
		return err
	}
	return a.Img.Save()
}

func protected(name string) bool {
	return name == avmtypes.SysDirName || name == avmtypes.DiskDescriptorName
}

func (a *AVM) markDescDirty() {
	a.descDirty = true
}

func (a *AVM) touchAtime(idx int) {
	fi := a.Tree.Get(idx)
	view := a.Chain.ViewOf(int(fi.LeaderPageVDA))
	ld := view.Leader()
	ld.Read = avmtypes.AltoTimeFromUnix(time.Now())
	_ = view.SetLeader(ld)
}

func (a *AVM) touchMtime(idx int) {
	fi := a.Tree.Get(idx)
	view := a.Chain.ViewOf(int(fi.LeaderPageVDA))
	ld := view.Leader()
	ld.Written = avmtypes.AltoTimeFromUnix(time.Now())
	_ = view.SetLeader(ld)
}

func (a *AVM) lastPageHint(leaderVDA int) avmtypes.LastPageHint {
	return a.Chain.ViewOf(leaderVDA).Leader().LastPage
}

func (a *AVM) setLastPageHint(leaderVDA int, hint avmtypes.LastPageHint) {
	view := a.Chain.ViewOf(leaderVDA)
	ld := view.Leader()
	ld.LastPage = hint
	_ = view.SetLeader(ld)
}

