package amc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"hwrpc/rpcmodule"
)

func TestGetVFATMaskAllClean(t *testing.T) {
	regs := NewSimulatedRegisterFile()
	mod := New(regs)

	mask, err := mod.getVFATMask(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0), mask, "every VFAT reports zero sync errors, so none should be masked")
}

func TestGetVFATMaskMasksOnlyErroredVFATs(t *testing.T) {
	regs := NewSimulatedRegisterFile()
	regs.SetRegister(fmt.Sprintf("GEM_AMC.OH_LINKS.OH%d.VFAT%d.SYNC_ERR_CNT", 3, 5), 1)
	regs.SetRegister(fmt.Sprintf("GEM_AMC.OH_LINKS.OH%d.VFAT%d.SYNC_ERR_CNT", 3, 17), 42)
	mod := New(regs)

	mask, err := mod.getVFATMask(3)
	require.NoError(t, err)
	require.Equal(t, uint32(1<<5|1<<17), mask)
}

func TestModuleRegistersGetVFATMask(t *testing.T) {
	mod := New(NewSimulatedRegisterFile())
	reg := rpcmodule.NewRegistry()
	require.NoError(t, reg.LoadModule("amc", mod))

	_, ok := reg.Lookup("amc", "GetVFATMask")
	require.True(t, ok)

	version, ok := reg.VersionOf("amc")
	require.True(t, ok)
	require.Equal(t, VersionKey, version)
}
