package fileinfo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/chain"
	"github.com/io-core/altofs/internal/image"
)

func newTestEngine(t *testing.T) *chain.Engine {
	t.Helper()
	im := &image.Image{Raw: make([]byte, avmtypes.NPages*avmtypes.RecordBytes)}
	bt := bitmap.New((avmtypes.NPages + 15) / 16)
	desc := &avmtypes.DescriptorHeader{FreePages: uint16(avmtypes.NPages - 2)}
	bt.Set(0, 1)
	bt.Set(1, 1)
	return &chain.Engine{Img: im, BT: bt, Desc: desc}
}

func createFile(t *testing.T, e *chain.Engine, name string, body []byte) int {
	t.Helper()
	leader, err := e.AllocPage(0)
	require.NoError(t, err)
	_, err = e.AllocPage(leader)
	require.NoError(t, err)

	ld := e.ViewOf(leader).Leader()
	ld.Filename = name
	require.NoError(t, e.ViewOf(leader).SetLeader(ld))

	if len(body) > 0 {
		_, _, ok := e.WriteFile(leader, body, len(body), 0, avmtypes.LastPageHint{})
		require.True(t, ok)
	}
	return leader
}

func TestBuildFindsLeaders(t *testing.T) {
	e := newTestEngine(t)
	createFile(t, e, "SysDir", nil)
	createFile(t, e, "DiskDescriptor", nil)
	createFile(t, e, "Hello", []byte("hello world"))

	tree := Build(e)

	require.True(t, tree.Get(tree.Root()).IsDir())
	require.GreaterOrEqual(t, tree.Find("Hello"), 0)

	helloIdx := tree.Find("Hello")
	fi := tree.Get(helloIdx)
	require.EqualValues(t, len("hello world"), fi.Size)
	require.EqualValues(t, avmtypes.ModeRegularFile, fi.Mode)

	sysIdx := tree.Find("SysDir")
	require.EqualValues(t, avmtypes.ModeProtectedFile, tree.Get(sysIdx).Mode)
}

func TestUnlinkAndRename(t *testing.T) {
	e := newTestEngine(t)
	createFile(t, e, "Hello", nil)
	tree := Build(e)

	require.True(t, tree.Rename("Hello", "World"))
	require.Equal(t, -1, tree.Find("Hello"))
	require.GreaterOrEqual(t, tree.Find("World"), 0)

	require.True(t, tree.Unlink("World"))
	require.Equal(t, -1, tree.Find("World"))
}

func TestRefreshAfterWrite(t *testing.T) {
	e := newTestEngine(t)
	leader := createFile(t, e, "Hello", []byte("abc"))
	tree := Build(e)
	idx := tree.Find("Hello")

	more := []byte("defgh")
	_, _, ok := e.WriteFile(leader, more, len(more), 3, avmtypes.LastPageHint{})
	require.True(t, ok)

	tree.Refresh(e, idx)
	require.EqualValues(t, 8, tree.Get(idx).Size)
}
