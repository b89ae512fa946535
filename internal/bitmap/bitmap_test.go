package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	tb := New(4) // 64 bits
	require.Equal(t, 0, tb.Get(0))
	tb.Set(0, 1)
	require.Equal(t, 1, tb.Get(0))
	require.True(t, tb.Dirty)

	tb.Dirty = false
	tb.Set(0, 1) // no change
	require.False(t, tb.Dirty)

	tb.Set(63, 1)
	require.Equal(t, 1, tb.Get(63))
}

func TestOutOfRange(t *testing.T) {
	tb := New(1)
	require.Equal(t, 1, tb.Get(100))
	tb.Set(100, 1) // no-op, must not panic
	require.False(t, tb.Dirty)
}

func TestCountFree(t *testing.T) {
	tb := New(1) // 16 bits, all clear == all free
	require.Equal(t, 16, tb.CountFree())
	tb.Set(0, 1)
	tb.Set(1, 1)
	require.Equal(t, 14, tb.CountFree())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tb := New(3)
	tb.Words[0] = 0xABCD
	tb.Words[1] = 0x0001
	tb.Words[2] = 0xFFFF
	buf := make([]byte, 6)
	tb.Encode(buf)
	back := Decode(buf, 3)
	require.Equal(t, tb.Words, back.Words)
}
