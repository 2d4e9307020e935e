package rpcframe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagePushPopRoundTrip(t *testing.T) {
	w := NewWriteMessage()
	require.NoError(t, Push(w, uint32(0x6640000c)))
	require.NoError(t, Push(w, uint32(1)))

	r := NewReadMessage(w.Frame())
	addr, err := PopAs[uint32](r)
	require.NoError(t, err)
	require.Equal(t, uint32(0x6640000c), addr)

	count, err := PopAs[uint32](r)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)
}

func TestMessageKeyOrderInvariant(t *testing.T) {
	w := NewWriteMessage()
	require.NoError(t, Push(w, uint32(1)))
	require.NoError(t, Push(w, []uint32{1, 2, 3}))
	require.NoError(t, Push(w, "hello"))

	require.True(t, w.Frame().HasKey("0"))
	require.True(t, w.Frame().HasKey("1"))
	require.True(t, w.Frame().HasKey("2"))
	require.False(t, w.Frame().HasKey("3"))
	require.Equal(t, uint32(3), w.NextKey())
}

func TestMessagePopAsTypeMismatch(t *testing.T) {
	w := NewWriteMessage()
	require.NoError(t, Push(w, "not a number"))

	r := NewReadMessage(w.Frame())
	_, err := PopAs[uint32](r)
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrType, frameErr.Kind)
}

func TestMessagePopDynamicUnitReadsNothing(t *testing.T) {
	w := NewWriteMessage()
	r := NewReadMessage(w.Frame())
	v, err := PopDynamic(r, Unit)
	require.NoError(t, err)
	require.Nil(t, v)
	require.Equal(t, uint32(0), r.NextKey())
}

func TestPushDynamicRejectsTypeMismatch(t *testing.T) {
	w := NewWriteMessage()
	err := PushDynamic(w, U32, "not a u32")
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrType, frameErr.Kind)
}

func TestMessageEncodeIdempotence(t *testing.T) {
	build := func() *Frame {
		w := NewWriteMessage()
		_ = Push(w, uint32(0x1000))
		_ = Push(w, []uint32{0xa, 0xb, 0xc})
		return w.Frame()
	}

	a, err := build().MarshalBinary()
	require.NoError(t, err)
	b, err := build().MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, a, b)
}
