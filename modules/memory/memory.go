// Package memory implements the "memory" module: raw word-addressed
// register access, the load-bearing primitive every higher-level module
// (amc included) is ultimately built from in the system this was adapted
// from. Read and Write are a thin RPC skin over a Store — in production
// that Store talks to the memory-mapped register space over a hub/driver;
// here it is an interface precisely so that dependency can be swapped for
// a test double without touching the RPC plumbing.
package memory

import (
	"fmt"

	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
	"hwrpc/rpcserver"
	"hwrpc/rpcsig"
)

// VersionKey is the tag LoadModule records and Connection.LoadModule
// matches against, mirroring module_version_key in the module this
// package replaces.
const VersionKey = "memory v1.0.1"

// Store is the register-level read/write seam. A production binding
// implements it against real hardware; SimulatedStore implements it
// in memory for tests and examples.
type Store interface {
	Read(address, count uint32) ([]uint32, error)
	Write(address uint32, data []uint32) error
}

// Module wires a Store into the RPC registry as "memory.Read" and
// "memory.Write".
type Module struct {
	Store Store
}

// New returns a Module backed by store.
func New(store Store) *Module {
	return &Module{Store: store}
}

func (m *Module) VersionKey() string { return VersionKey }

var (
	ReadSignature = rpcsig.Signature{
		Module: "memory", Name: "Read", Revision: 1,
		Args:   []rpcframe.ValueType{rpcframe.U32, rpcframe.U32},
		Return: rpcframe.VecU32,
	}
	WriteSignature = rpcsig.Signature{
		Module: "memory", Name: "Write", Revision: 1,
		Args:   []rpcframe.ValueType{rpcframe.U32, rpcframe.VecU32},
		Return: rpcframe.Unit,
	}
)

func (m *Module) Init(r *rpcmodule.Registry) error {
	readHandler, err := rpcserver.MakeStub(ReadSignature, m.read)
	if err != nil {
		return err
	}
	if err := r.Register("memory", "Read", readHandler); err != nil {
		return err
	}

	writeHandler, err := rpcserver.MakeStub(WriteSignature, m.write)
	if err != nil {
		return err
	}
	return r.Register("memory", "Write", writeHandler)
}

func (m *Module) read(address, count uint32) ([]uint32, error) {
	data, err := m.Store.Read(address, count)
	if err != nil {
		return nil, fmt.Errorf("read memsvc error: %v", err)
	}
	return data, nil
}

func (m *Module) write(address uint32, data []uint32) error {
	if err := m.Store.Write(address, data); err != nil {
		return fmt.Errorf("write memsvc error: %v", err)
	}
	return nil
}
