// Package rpcframe implements the keyed, positional wire container described
// by the framework: a self-describing frame whose values are drawn from a
// closed set of four primitive/array types, addressed by decimal-string
// positional keys or by arbitrary reserved names (e.g. "error", "backtrace").
//
// Frame is the self-describing byte-level container (the "wire envelope"
// contract of the framework). Message layers a mode (read or write) and a
// monotonically increasing cursor on top of a Frame, and is the only type
// the type-directed (de)serialization layer and the invocation harness
// touch directly.
package rpcframe

// ValueType is the closed tag of the wire type set. Avoid open extension:
// the four payload kinds plus Unit are part of the wire contract, not a
// registration-time extensible enum.
type ValueType int

const (
	U32 ValueType = iota
	Str
	VecU32
	VecStr
	// Unit denotes "no value". It is only legal as a return type; a
	// Unit-returning method emits no positional key at all.
	Unit
)

func (t ValueType) String() string {
	switch t {
	case U32:
		return "U32"
	case Str:
		return "STR"
	case VecU32:
		return "VEC_U32"
	case VecStr:
		return "VEC_STR"
	case Unit:
		return "UNIT"
	default:
		return "UNKNOWN"
	}
}

// WireValue constrains the Go types that can ride the wire. Combined with
// ValueType this is the same closed set expressed twice: once as a runtime
// tag (for reflection-driven stub code), once as a compile-time constraint
// (for the generic Push/PopAs cursor helpers).
type WireValue interface {
	uint32 | string | []uint32 | []string
}

// valueTypeOf maps a WireValue's concrete Go type to its ValueType tag.
func valueTypeOf(v any) (ValueType, bool) {
	switch v.(type) {
	case uint32:
		return U32, true
	case string:
		return Str, true
	case []uint32:
		return VecU32, true
	case []string:
		return VecStr, true
	default:
		return Unit, false
	}
}

// value is the tagged-union payload actually stored under a key.
type value struct {
	typ    ValueType
	u32    uint32
	str    string
	vecU32 []uint32
	vecStr []string
}
