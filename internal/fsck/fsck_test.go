package fsck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
	"github.com/io-core/altofs/internal/chain"
	"github.com/io-core/altofs/internal/image"
	"github.com/io-core/altofs/internal/logging"
	"github.com/io-core/altofs/internal/sysdir"
)

func newTestEngine(t *testing.T) *chain.Engine {
	t.Helper()
	im := &image.Image{Raw: make([]byte, avmtypes.NPages*avmtypes.RecordBytes)}
	bt := bitmap.New((avmtypes.NPages + 15) / 16)
	desc := &avmtypes.DescriptorHeader{FreePages: uint16(avmtypes.NPages)}
	return &chain.Engine{Img: im, BT: bt, Desc: desc}
}

func TestRunFixesStaleBitAndLabel(t *testing.T) {
	e := newTestEngine(t)
	leader, err := e.AllocPage(0)
	require.NoError(t, err)
	data, err := e.AllocPage(leader)
	require.NoError(t, err)

	// Corrupt the bit table entry for the data page and its filepage field,
	// simulating the drift fsck is meant to repair.
	e.BT.Set(data, 0)
	l := e.Label(data)
	l.FilePage = 99
	e.SetLabel(data, l)
	e.Desc.FreePages = uint16(avmtypes.NPages) // stale count too

	dir := sysdir.New([]avmtypes.DirRecord{
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: uint16(leader)}, Filename: "Hello"},
	})

	log := logging.New(new(discard), logging.LevelDebug)
	fixes := Run(e, dir, log)

	require.Greater(t, fixes, 0)
	require.Equal(t, 1, e.BT.Get(leader))
	require.Equal(t, 1, e.BT.Get(data))
	require.EqualValues(t, 1, e.Label(data).FilePage)
	require.EqualValues(t, avmtypes.NPages-2, e.Desc.FreePages)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
