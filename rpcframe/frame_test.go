package rpcframe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameSetGetRoundTrip(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetU32("0", 0x6640000c))
	require.NoError(t, f.SetVecU32("1", []uint32{0xdeadbeef}))
	require.NoError(t, f.SetStr("error", "read memsvc error: EIO"))
	require.NoError(t, f.SetVecStr("backtrace", []string{"frame#1", "frame#2"}))

	u, err := f.GetU32("0")
	require.NoError(t, err)
	require.Equal(t, uint32(0x6640000c), u)

	vec, err := f.GetVecU32("1")
	require.NoError(t, err)
	require.Equal(t, []uint32{0xdeadbeef}, vec)

	s, err := f.GetStr("error")
	require.NoError(t, err)
	require.Equal(t, "read memsvc error: EIO", s)

	bt, err := f.GetVecStr("backtrace")
	require.NoError(t, err)
	require.Equal(t, []string{"frame#1", "frame#2"}, bt)
}

func TestFrameDuplicateKeyIsCodecError(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetU32("0", 1))
	err := f.SetU32("0", 2)
	require.Error(t, err)
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrCodec, frameErr.Kind)
}

func TestFrameBadKey(t *testing.T) {
	f := NewFrame()
	_, err := f.GetU32("0")
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrBadKey, frameErr.Kind)
}

func TestFrameTypeMismatch(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetStr("0", "hello"))
	_, err := f.GetU32("0")
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrType, frameErr.Kind)
}

func TestFrameHasKey(t *testing.T) {
	f := NewFrame()
	require.False(t, f.HasKey("error"))
	require.NoError(t, f.SetStr("error", "boom"))
	require.True(t, f.HasKey("error"))
}

func TestFrameMarshalUnmarshalBinaryRoundTrip(t *testing.T) {
	f := NewFrame()
	f.RoutingKey = "memory.Read"
	require.NoError(t, f.SetU32("0", 0x1000))
	require.NoError(t, f.SetVecU32("1", []uint32{1, 2, 3}))
	require.NoError(t, f.SetStr("2", "diagnostic"))
	require.NoError(t, f.SetVecStr("3", []string{"a", "b", "c"}))

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalBinaryFrame(data)
	require.NoError(t, err)
	require.Equal(t, "memory.Read", decoded.RoutingKey)

	u, err := decoded.GetU32("0")
	require.NoError(t, err)
	require.Equal(t, uint32(0x1000), u)

	vec, err := decoded.GetVecU32("1")
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, vec)

	s, err := decoded.GetStr("2")
	require.NoError(t, err)
	require.Equal(t, "diagnostic", s)

	vs, err := decoded.GetVecStr("3")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, vs)
}

func TestFrameMarshalIdempotent(t *testing.T) {
	f := NewFrame()
	f.RoutingKey = "memory.Write"
	require.NoError(t, f.SetU32("0", 42))

	a, err := f.MarshalBinary()
	require.NoError(t, err)
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestUnmarshalBinaryFrameCorruptTruncated(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetU32("0", 1))
	data, err := f.MarshalBinary()
	require.NoError(t, err)

	_, err = UnmarshalBinaryFrame(data[:len(data)-2])
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrCorrupt, frameErr.Kind)
}

func TestUnmarshalBinaryFrameUnknownTag(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetU32("0", 1))
	data, err := f.MarshalBinary()
	require.NoError(t, err)

	// The type tag byte follows the 2-byte routing key length prefix,
	// the 4-byte entry count, and the key ("0" -> 2-byte len + 1 byte).
	tagOffset := 2 + 4 + 2 + 1
	corrupted := append([]byte(nil), data...)
	corrupted[tagOffset] = 0xff

	_, err = UnmarshalBinaryFrame(corrupted)
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrCorrupt, frameErr.Kind)
}

func TestFrameBufferTooSmall(t *testing.T) {
	f := NewFrame()
	huge := make([]byte, MaxFrameSize)
	require.NoError(t, f.SetStr("0", string(huge)))

	_, err := f.MarshalBinary()
	var frameErr *Error
	require.ErrorAs(t, err, &frameErr)
	require.Equal(t, ErrBufferTooSmall, frameErr.Kind)
}
