package avm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/chain"
	"github.com/io-core/altofs/internal/descriptor"
	"github.com/io-core/altofs/internal/image"
	"github.com/io-core/altofs/internal/logging"
	"github.com/io-core/altofs/internal/sysdir"
)

const btWords = (avmtypes.NPages + 15) / 16

func setLeaderName(e *chain.Engine, vda int, name string) {
	view := e.ViewOf(vda)
	ld := view.Leader()
	ld.Filename = name
	ld.DirFPHint = avmtypes.FilePtr{Version: 1, LeaderVDA: uint16(vda)}
	_ = view.SetLeader(ld)
}

// buildFixtureImage assembles a minimal but internally consistent volume
// (DiskDescriptor + SysDir, both listing each other) and writes it to a
// temp file, returning the path Load expects as its image spec.
func buildFixtureImage(t *testing.T) string {
	t.Helper()

	img := &image.Image{Raw: make([]byte, avmtypes.NPages*avmtypes.RecordBytes)}
	bt := bitmap.New(btWords)
	desc := &avmtypes.DescriptorHeader{FreePages: uint16(avmtypes.NPages)}
	e := &chain.Engine{Img: img, BT: bt, Desc: desc}

	// Every page starts free (all three fids 0xFFFF); the table's bits past
	// the last page address no page, so they are marked allocated.
	for vda := 0; vda < avmtypes.NPages; vda++ {
		e.SetLabel(vda, avmtypes.Label{FidFile: avmtypes.FidFree, FidDir: avmtypes.FidFree, FidID: avmtypes.FidFree})
	}
	for p := avmtypes.NPages; p < bt.BitCount(); p++ {
		bt.Set(p, 1)
	}

	ddLeader, err := e.AllocPage(0)
	require.NoError(t, err)
	ddData1, err := e.AllocPage(ddLeader)
	require.NoError(t, err)
	_, err = e.AllocPage(ddData1)
	require.NoError(t, err)

	sdLeader, err := e.AllocPage(0)
	require.NoError(t, err)
	_, err = e.AllocPage(sdLeader)
	require.NoError(t, err)

	setLeaderName(e, ddLeader, avmtypes.DiskDescriptorName)
	setLeaderName(e, sdLeader, avmtypes.SysDirName)

	desc.NDisks = 1
	desc.NTracks = avmtypes.NCyls
	desc.NHeads = avmtypes.NHeads
	desc.NSectors = avmtypes.NSecs
	desc.DiskBTSize = uint16(btWords)
	desc.DefVersionsKept = 0

	records := []avmtypes.DirRecord{
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: uint16(ddLeader)}, Filename: avmtypes.DiskDescriptorName},
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: uint16(sdLeader)}, Filename: avmtypes.SysDirName},
	}
	sysBody := sysdir.Encode(records)
	n, _, ok := e.WriteFile(sdLeader, sysBody, len(sysBody), 0, avmtypes.LastPageHint{})
	require.True(t, ok)
	require.Equal(t, len(sysBody), n)

	// DiskDescriptor's own body must reflect the final free_pages count, so
	// it is written last, after every allocation above.
	ddBody := descriptor.Encode(*desc, bt)
	n, _, ok = e.WriteFile(ddLeader, ddBody, len(ddBody), 0, avmtypes.LastPageHint{})
	require.True(t, ok)
	require.Equal(t, len(ddBody), n)

	path := filepath.Join(t.TempDir(), "fixture.img")
	require.NoError(t, os.WriteFile(path, img.Raw, 0644))
	return path
}

func TestLoadCleanImage(t *testing.T) {
	path := buildFixtureImage(t)
	log := logging.New(discardWriter{}, logging.LevelDebug)

	a, err := Load(path, log)
	require.NoError(t, err)

	_, ok := a.Find("DiskDescriptor")
	require.True(t, ok)
	_, ok = a.Find("SysDir")
	require.True(t, ok)
	_, ok = a.Find("Missing")
	require.False(t, ok)
}

func TestCreateWriteReadUnlink(t *testing.T) {
	path := buildFixtureImage(t)
	a, err := Load(path, logging.New(discardWriter{}, logging.LevelDebug))
	require.NoError(t, err)

	require.NoError(t, a.Create("Hello"))
	_, ok := a.Find("Hello")
	require.True(t, ok)

	payload := []byte("hello, alto")
	n, err := a.Write("Hello", payload, len(payload), 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	out := make([]byte, len(payload))
	n, err = a.Read("Hello", out, len(out), 0)
	require.NoError(t, err)
	require.Equal(t, payload, out[:n])

	fi, _ := a.Find("Hello")
	require.EqualValues(t, len(payload), fi.Size)

	require.NoError(t, a.Unlink("Hello"))
	_, ok = a.Find("Hello")
	require.False(t, ok)

	require.ErrorIs(t, a.Unlink("SysDir"), avmtypes.ErrPermission)
}

func TestRenameAndSetTimesAndCloseSave(t *testing.T) {
	path := buildFixtureImage(t)
	a, err := Load(path, logging.New(discardWriter{}, logging.LevelDebug))
	require.NoError(t, err)

	require.NoError(t, a.Create("Old"))
	require.NoError(t, a.Rename("Old", "New"))
	_, ok := a.Find("Old")
	require.False(t, ok)
	_, ok = a.Find("New")
	require.True(t, ok)

	require.ErrorIs(t, a.Rename("SysDir", "Other"), avmtypes.ErrPermission)

	vfs := a.StatVFS()
	require.EqualValues(t, avmtypes.PageSz, vfs.Bsize)

	require.NoError(t, a.Close())
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
