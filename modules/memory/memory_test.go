package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
)

func TestSimulatedStoreWriteThenRead(t *testing.T) {
	store := NewSimulatedStore()
	require.NoError(t, store.Write(0x1000, []uint32{0xa, 0xb, 0xc}))

	data, err := store.Read(0x1000, 3)
	require.NoError(t, err)
	require.Equal(t, []uint32{0xa, 0xb, 0xc}, data)
}

func TestSimulatedStoreReadUnwrittenIsZero(t *testing.T) {
	store := NewSimulatedStore()
	data, err := store.Read(0x2000, 4)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 0, 0, 0}, data)
}

func TestModuleRegistersBothMethods(t *testing.T) {
	mod := New(NewSimulatedStore())
	reg := rpcmodule.NewRegistry()
	require.NoError(t, reg.LoadModule("memory", mod))

	_, ok := reg.Lookup("memory", "Read")
	require.True(t, ok)
	_, ok = reg.Lookup("memory", "Write")
	require.True(t, ok)

	version, ok := reg.VersionOf("memory")
	require.True(t, ok)
	require.Equal(t, VersionKey, version)
}

type failingStore struct{}

func (failingStore) Read(address, count uint32) ([]uint32, error) {
	return nil, errors.New("EIO")
}
func (failingStore) Write(address uint32, data []uint32) error {
	return errors.New("EIO")
}

func TestReadErrorIsWrappedWithMemsvcPrefix(t *testing.T) {
	mod := New(failingStore{})
	reg := rpcmodule.NewRegistry()
	require.NoError(t, reg.LoadModule("memory", mod))
	reg.Freeze()

	handler, _ := reg.Lookup("memory", "Read")
	req := rpcframe.NewWriteMessage()
	require.NoError(t, rpcframe.Push(req, uint32(0)))
	require.NoError(t, rpcframe.Push(req, uint32(1)))

	resp := handler(req.Frame())
	require.True(t, resp.HasKey("error"))
	msg, _ := resp.GetStr("error")
	require.Equal(t, "read memsvc error: EIO", msg)
}

func TestWriteErrorIsWrappedWithMemsvcPrefix(t *testing.T) {
	mod := New(failingStore{})
	reg := rpcmodule.NewRegistry()
	require.NoError(t, reg.LoadModule("memory", mod))
	reg.Freeze()

	handler, _ := reg.Lookup("memory", "Write")
	req := rpcframe.NewWriteMessage()
	require.NoError(t, rpcframe.Push(req, uint32(0)))
	require.NoError(t, rpcframe.Push(req, []uint32{1}))

	resp := handler(req.Frame())
	require.True(t, resp.HasKey("error"))
	msg, _ := resp.GetStr("error")
	require.Equal(t, "write memsvc error: EIO", msg)
}
