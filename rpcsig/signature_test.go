package rpcsig

import (
	"testing"

	"github.com/stretchr/testify/require"
	"hwrpc/rpcframe"
)

func TestSignatureRoutingKey(t *testing.T) {
	sig := Signature{Module: "memory", Name: "Read"}
	require.Equal(t, "memory.Read", sig.RoutingKey())
}

func TestSignatureValidateRejectsDotInName(t *testing.T) {
	sig := Signature{Module: "memory", Name: "Read.Extra", Return: rpcframe.VecU32}
	require.Error(t, sig.Validate())
}

func TestSignatureValidateRejectsUnitArgument(t *testing.T) {
	sig := Signature{
		Module: "memory",
		Name:   "Read",
		Args:   []rpcframe.ValueType{rpcframe.Unit},
		Return: rpcframe.VecU32,
	}
	require.Error(t, sig.Validate())
}

func TestSignatureValidateAcceptsUnitReturn(t *testing.T) {
	sig := Signature{
		Module: "memory",
		Name:   "Write",
		Args:   []rpcframe.ValueType{rpcframe.U32, rpcframe.VecU32},
		Return: rpcframe.Unit,
	}
	require.NoError(t, sig.Validate())
}

func TestSignatureValidateRejectsEmptyModule(t *testing.T) {
	sig := Signature{Name: "Read", Return: rpcframe.VecU32}
	require.Error(t, sig.Validate())
}
