package sysdir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
)

func sampleRecords() []avmtypes.DirRecord {
	return []avmtypes.DirRecord{
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: 10}, Filename: "SysDir"},
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: 20}, Filename: "DiskDescriptor"},
		{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: 30}, Filename: "Hello"},
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	recs := sampleRecords()
	buf := Encode(recs)
	back := Decode(buf)
	require.Equal(t, recs, back)
}

func TestDecodeStopsAtTerminator(t *testing.T) {
	recs := sampleRecords()
	buf := Encode(recs)
	buf = append(buf, make([]byte, 20)...) // trailing zero region
	back := Decode(buf)
	require.Len(t, back, len(recs))
}

func TestFindAndRemove(t *testing.T) {
	d := New(sampleRecords())
	require.GreaterOrEqual(t, d.Find("Hello"), 0)
	require.Equal(t, -1, d.Find("Nonexistent"))

	require.ErrorIs(t, d.Remove(avmtypes.SysDirName), avmtypes.ErrPermission)

	require.NoError(t, d.Remove("Hello"))
	require.Equal(t, -1, d.Find("Hello"))
	require.True(t, d.Records[d.indexOf("Hello")].Deleted())
}

func (d *Dir) indexOf(name string) int {
	for i, r := range d.Records {
		if r.Filename == name {
			return i
		}
	}
	return -1
}

func TestRenameResortsAndRejectsProtected(t *testing.T) {
	d := New(sampleRecords())
	require.ErrorIs(t, d.Rename(avmtypes.DiskDescriptorName, "Other"), avmtypes.ErrPermission)

	require.NoError(t, d.Rename("Hello", "Aardvark"))
	require.Equal(t, "Aardvark", d.Records[0].Filename)
	require.True(t, d.Dirty)
}

func TestInsertSortedAndRejectsDuplicate(t *testing.T) {
	d := New(sampleRecords())
	err := d.Insert(avmtypes.DirRecord{Type: avmtypes.DirEntryInUse, FilePtr: avmtypes.FilePtr{Version: 1, LeaderVDA: 40}, Filename: "Amber"})
	require.NoError(t, err)
	require.Equal(t, "Amber", d.Records[0].Filename)

	err = d.Insert(avmtypes.DirRecord{Type: avmtypes.DirEntryInUse, Filename: "Hello"})
	require.ErrorIs(t, err, avmtypes.ErrExist)
}
