package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
)

func TestWordRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutWord(buf, 0, 0x1234)
	PutWord(buf, 2, 0xbeef)
	require.Equal(t, uint16(0x1234), GetWord(buf, 0))
	require.Equal(t, uint16(0xbeef), GetWord(buf, 2))
	require.Equal(t, []byte{0x12, 0x34, 0xbe, 0xef}, buf)
}

func TestSwabRoundTrip(t *testing.T) {
	buf := []byte{0x12, 0x34, 0xbe, 0xef}
	Swab(buf, len(buf))
	require.Equal(t, []byte{0x34, 0x12, 0xef, 0xbe}, buf)
	Swab(buf, len(buf))
	require.Equal(t, []byte{0x12, 0x34, 0xbe, 0xef}, buf)
}

func TestFilenameRoundTrip(t *testing.T) {
	for _, name := range []string{"Hello", "SysDir", "DiskDescriptor", ""} {
		dst := make([]byte, avmtypes.FNLen)
		err := StringToFilename(dst, name)
		require.NoError(t, err)
		got, ok := FilenameToString(dst)
		require.True(t, ok)
		require.Equal(t, name, got)
	}
}

func TestFilenameMissingDotReported(t *testing.T) {
	src := []byte{3, 'a', 'b', 'c'}
	_, ok := FilenameToString(src)
	require.False(t, ok)
}

func TestFilenameTooLong(t *testing.T) {
	dst := make([]byte, avmtypes.FNLen)
	long := make([]byte, avmtypes.FNLen)
	for i := range long {
		long[i] = 'a'
	}
	err := StringToFilename(dst, string(long))
	require.Error(t, err)
}
