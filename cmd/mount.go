package cmd

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/io-core/altofs/internal/avm"
	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/config"
	"github.com/io-core/altofs/internal/logging"
)

// mountAndServe loads the volume through the Facade, mounts the FUSE
// kernel collaborator at cfg.MountPoint, and blocks serving requests
// until unmount, saving the volume on the way out. This file is the
// mount collaborator kept external to the AVM itself: it only calls
// avm.AVM's public, mutex-guarded operations.
//
// Built on the bazil.org/fuse fs.FS/fs.Node/fs.Handle pattern.
func mountAndServe(cfg *config.Config, log *logging.Logger) error {
	a, err := avm.Load(cfg.ImageSpec, log)
	if err != nil {
		return err
	}

	opts := []fuse.MountOption{
		fuse.FSName("altofs"),
		fuse.Subtype("altofs"),
		fuse.LocalVolume(),
		fuse.VolumeName("Alto"),
	}
	if cfg.ReadOnly {
		opts = append(opts, fuse.ReadOnly())
	}
	c, err := fuse.Mount(cfg.MountPoint, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := fusefs.New(c, &fusefs.Config{})
	filesys := &altoFS{avm: a}

	serveErr := srv.Serve(filesys)
	<-c.Ready
	if err := c.MountError; err != nil {
		return err
	}
	if serveErr != nil {
		return serveErr
	}
	return a.Close()
}

type altoFS struct {
	avm *avm.AVM
}

func (f *altoFS) Root() (fusefs.Node, error) {
	return &rootDir{avm: f.avm}, nil
}

type rootDir struct {
	avm *avm.AVM
}

func (d *rootDir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | os.FileMode(avmtypes.ModeRootDir)
	a.Nlink = 2
	return nil
}

func (d *rootDir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	fi, ok := d.avm.Find(name)
	if !ok {
		return nil, fuse.ENOENT
	}
	return &fileNode{avm: d.avm, name: fi.Name}, nil
}

func (d *rootDir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries := d.avm.List()
	out := make([]fuse.Dirent, 0, len(entries))
	for _, fi := range entries {
		out = append(out, fuse.Dirent{Inode: uint64(fi.Ino), Type: fuse.DT_File, Name: fi.Name})
	}
	return out, nil
}

func (d *rootDir) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	if err := d.avm.Create(req.Name); err != nil {
		return nil, nil, toFuseErr(err)
	}
	n := &fileNode{avm: d.avm, name: req.Name}
	return n, n, nil
}

func (d *rootDir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	if req.Dir {
		return fuse.Errno(syscall.ENOSYS)
	}
	return toFuseErr(d.avm.Unlink(req.Name))
}

func (d *rootDir) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	if newDir != fusefs.Node(d) {
		return fuse.Errno(syscall.ENOSYS)
	}
	return toFuseErr(d.avm.Rename(req.OldName, req.NewName))
}

type fileNode struct {
	avm  *avm.AVM
	name string
}

func (n *fileNode) Attr(ctx context.Context, a *fuse.Attr) error {
	fi, ok := n.avm.Find(n.name)
	if !ok {
		return fuse.ENOENT
	}
	a.Inode = uint64(fi.Ino)
	a.Mode = os.FileMode(fi.Mode)
	a.Nlink = 1
	a.Size = fi.Size
	a.Blocks = uint64(fi.Blocks)
	a.BlockSize = fi.BlkSize
	a.Mtime = fi.Mtime
	a.Ctime = fi.Ctime
	a.Atime = fi.Atime
	return nil
}

func (n *fileNode) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Size() {
		if err := n.avm.Truncate(n.name, int64(req.Size)); err != nil {
			return toFuseErr(err)
		}
	}
	if req.Valid.Mtime() || req.Valid.Atime() {
		atime, mtime := req.Atime, req.Mtime
		if !req.Valid.Atime() {
			atime = time.Now()
		}
		if !req.Valid.Mtime() {
			mtime = time.Now()
		}
		if err := n.avm.SetTimes(n.name, atime, mtime); err != nil {
			return toFuseErr(err)
		}
	}
	return n.Attr(ctx, &resp.Attr)
}

func (n *fileNode) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	return n, nil
}

func (n *fileNode) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	read, err := n.avm.Read(n.name, buf, req.Size, req.Offset)
	if err != nil {
		return toFuseErr(err)
	}
	resp.Data = buf[:read]
	return nil
}

func (n *fileNode) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	written, err := n.avm.Write(n.name, req.Data, len(req.Data), req.Offset)
	resp.Size = written
	if err != nil && !errors.Is(err, avmtypes.ErrNoSpace) {
		return toFuseErr(err)
	}
	return nil
}

func toFuseErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, avmtypes.ErrNotExist):
		return fuse.ENOENT
	case errors.Is(err, avmtypes.ErrExist):
		return fuse.EEXIST
	case errors.Is(err, avmtypes.ErrPermission):
		return fuse.EPERM
	case errors.Is(err, avmtypes.ErrNoSpace):
		return fuse.Errno(syscall.ENOSPC)
	case errors.Is(err, avmtypes.ErrInvalid):
		return fuse.Errno(syscall.EINVAL)
	default:
		return err
	}
}
