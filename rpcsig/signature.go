// Package rpcsig is the type registry / signature model: it associates a
// method identity (module, name, revision) with an argument-type vector and
// a return-type vector, fixed once at registration time.
package rpcsig

import (
	"fmt"
	"strings"

	"hwrpc/rpcframe"
)

// Signature is a value object identifying one remotely callable method.
// All fields are fixed at registration time; none mutate afterward.
type Signature struct {
	Module   string
	Name     string
	Revision uint32
	Args     []rpcframe.ValueType
	Return   rpcframe.ValueType
}

// RoutingKey returns the "module.method-name" string stamped on request
// frames for server-side demultiplexing.
func (s Signature) RoutingKey() string {
	return s.Module + "." + s.Name
}

// Validate rejects a signature that references an unsupported type or an
// otherwise malformed identity. Registering such a signature is a
// registration-time rejection per the framework's data model.
func (s Signature) Validate() error {
	if s.Module == "" {
		return fmt.Errorf("rpcsig: module must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("rpcsig: name must not be empty")
	}
	if strings.Contains(s.Name, ".") {
		return fmt.Errorf("rpcsig: method name %q must not contain '.'", s.Name)
	}
	for i, t := range s.Args {
		if t == rpcframe.Unit {
			return fmt.Errorf("rpcsig: argument %d of %s may not be UNIT", i, s.RoutingKey())
		}
		if !validType(t) {
			return fmt.Errorf("rpcsig: argument %d of %s has unsupported type %v", i, s.RoutingKey(), t)
		}
	}
	if !validType(s.Return) {
		return fmt.Errorf("rpcsig: return type of %s is unsupported", s.RoutingKey())
	}
	return nil
}

func validType(t rpcframe.ValueType) bool {
	switch t {
	case rpcframe.U32, rpcframe.Str, rpcframe.VecU32, rpcframe.VecStr, rpcframe.Unit:
		return true
	default:
		return false
	}
}
