// Package amc implements a deliberately trimmed slice of the "amc" module:
// VFAT sync-error masking (GetVFATMask), the one operation from the AMC
// hardware-control surface simple enough to express faithfully without
// pulling in the SCA/TTC/DAQ subsystems the rest of that module depends
// on. Everything else the original amc module exposes (firmware
// programming, trigger configuration, DAQ link control) is out of scope.
package amc

import (
	"fmt"

	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
	"hwrpc/rpcserver"
	"hwrpc/rpcsig"
)

// VersionKey is the tag this module records at load time.
const VersionKey = "amc v1.0.1"

// VFATsPerOH is the number of VFAT front-end chips behind one optohybrid.
const VFATsPerOH = 24

// RegisterReader is the register-space read seam GetVFATMask is built on.
// A production binding resolves a dotted register name through an address
// table and reads it over the memory module; SimulatedRegisterFile stands
// in for tests and examples.
type RegisterReader interface {
	ReadRegister(name string) (uint32, error)
}

// Module wires GetVFATMask into the RPC registry as "amc.GetVFATMask".
type Module struct {
	Registers RegisterReader
}

// New returns a Module reading through registers.
func New(registers RegisterReader) *Module {
	return &Module{Registers: registers}
}

func (m *Module) VersionKey() string { return VersionKey }

// GetVFATMaskSignature is the wire signature for GetVFATMask: one OH index
// in, one 24-bit mask out (one bit per VFAT, set means masked).
var GetVFATMaskSignature = rpcsig.Signature{
	Module: "amc", Name: "GetVFATMask", Revision: 1,
	Args:   []rpcframe.ValueType{rpcframe.U32},
	Return: rpcframe.U32,
}

func (m *Module) Init(r *rpcmodule.Registry) error {
	handler, err := rpcserver.MakeStub(GetVFATMaskSignature, m.getVFATMask)
	if err != nil {
		return err
	}
	return r.Register("amc", "GetVFATMask", handler)
}

// getVFATMask starts with every VFAT masked and clears the bit for each
// VFAT reporting zero synchronization errors, exactly mirroring
// getOHVFATMaskLocal's start-all-masked, unmask-on-clean-sync-count logic.
func (m *Module) getVFATMask(ohN uint32) (uint32, error) {
	mask := uint32(0xffffff)
	for vfatN := uint32(0); vfatN < VFATsPerOH; vfatN++ {
		name := fmt.Sprintf("GEM_AMC.OH_LINKS.OH%d.VFAT%d.SYNC_ERR_CNT", ohN, vfatN)
		syncErrCnt, err := m.Registers.ReadRegister(name)
		if err != nil {
			return 0, fmt.Errorf("read %s: %v", name, err)
		}
		if syncErrCnt == 0 {
			mask &^= 1 << vfatN
		}
	}
	return mask, nil
}
