package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-core/altofs/internal/avmtypes"
	"github.com/io-core/altofs/internal/bitmap"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := avmtypes.DescriptorHeader{
		NDisks:          1,
		NTracks:         avmtypes.NCyls,
		NHeads:          avmtypes.NHeads,
		NSectors:        avmtypes.NSecs,
		DiskBTSize:      305,
		DefVersionsKept: 0,
		FreePages:       4870,
	}
	h.SetLastSerialNo(12345)

	buf := make([]byte, HeaderBytes)
	EncodeHeader(h, buf)
	got := DecodeHeader(buf)

	require.Equal(t, h, got)
	require.EqualValues(t, 12345, got.LastSerialNo())
}

func TestDecodeEncodeFullBody(t *testing.T) {
	h := avmtypes.DescriptorHeader{
		NDisks:     1,
		NTracks:    avmtypes.NCyls,
		NHeads:     avmtypes.NHeads,
		NSectors:   avmtypes.NSecs,
		DiskBTSize: 4,
		FreePages:  60,
	}
	bt := bitmap.New(4)
	bt.Set(0, 1)
	bt.Set(1, 1)

	body := Encode(h, bt)
	gotH, gotBT := Decode(body)

	require.Equal(t, h, gotH)
	require.Equal(t, bt.Words, gotBT.Words)
}

func TestValidateDetectsMismatch(t *testing.T) {
	h := avmtypes.DescriptorHeader{
		NDisks:          1,
		NTracks:         avmtypes.NCyls,
		NHeads:          avmtypes.NHeads,
		NSectors:        avmtypes.NSecs,
		DefVersionsKept: 0,
		FreePages:       10,
	}

	ok := Validate(h, 1, 10, 10)
	require.True(t, ok.OK)

	bad := Validate(h, 1, 9, 10)
	require.False(t, bad.OK)
	require.False(t, bad.FreePagesMatchBits)
	require.True(t, bad.GeometryOK)

	h.NHeads = 99
	badGeo := Validate(h, 1, 10, 10)
	require.False(t, badGeo.GeometryOK)
}
