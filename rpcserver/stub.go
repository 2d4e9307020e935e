package rpcserver

import (
	"fmt"
	"log"
	"reflect"

	"hwrpc/rpcerror"
	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
	"hwrpc/rpcsig"
)

var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

func goTypeOf(t rpcframe.ValueType) reflect.Type {
	switch t {
	case rpcframe.U32:
		return reflect.TypeOf(uint32(0))
	case rpcframe.Str:
		return reflect.TypeOf("")
	case rpcframe.VecU32:
		return reflect.TypeOf([]uint32(nil))
	case rpcframe.VecStr:
		return reflect.TypeOf([]string(nil))
	default:
		return nil
	}
}

// MakeStub generates the per-method invocation stub described in section
// 4.4: given a Signature and the Go function implementing the method, it
// builds a rpcmodule.Handler that decodes the argument tuple in
// declaration order, invokes fn, encodes the result, and traps every
// failure path into an error frame.
//
// fn must have the shape func(arg1, arg2, ...) (ReturnType, error) when
// sig.Return is not Unit, or func(arg1, arg2, ...) error when it is. This
// is the data-driven equivalent of the source's compile-time template
// stub: the Signature supplies, at registration time, exactly the
// argument-type and return-type vector a generated stub would have baked
// in at compile time.
func MakeStub(sig rpcsig.Signature, fn any) (rpcmodule.Handler, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("rpcserver: handler for %s is not a function", sig.RoutingKey())
	}
	if fnType.NumIn() != len(sig.Args) {
		return nil, fmt.Errorf("rpcserver: handler for %s takes %d args, signature declares %d",
			sig.RoutingKey(), fnType.NumIn(), len(sig.Args))
	}
	for i, t := range sig.Args {
		if want := goTypeOf(t); fnType.In(i) != want {
			return nil, fmt.Errorf("rpcserver: handler for %s arg %d is %s, signature declares %v",
				sig.RoutingKey(), i, fnType.In(i), t)
		}
	}

	wantOut := 1
	if sig.Return != rpcframe.Unit {
		wantOut = 2
	}
	if fnType.NumOut() != wantOut {
		return nil, fmt.Errorf("rpcserver: handler for %s returns %d values, want %d",
			sig.RoutingKey(), fnType.NumOut(), wantOut)
	}
	if sig.Return != rpcframe.Unit {
		if want := goTypeOf(sig.Return); fnType.Out(0) != want {
			return nil, fmt.Errorf("rpcserver: handler for %s return value is %s, signature declares %v",
				sig.RoutingKey(), fnType.Out(0), sig.Return)
		}
	}
	if fnType.Out(wantOut-1) != errorInterfaceType {
		return nil, fmt.Errorf("rpcserver: handler for %s must return error as its last value", sig.RoutingKey())
	}

	return func(request *rpcframe.Frame) (response *rpcframe.Frame) {
		defer func() {
			if rec := recover(); rec != nil {
				response = errorFrame("caught unknown exception", rpcerror.CaptureBacktrace(1))
			}
		}()

		reqMsg := rpcframe.NewReadMessage(request)
		args := make([]reflect.Value, len(sig.Args))
		for i, t := range sig.Args {
			v, err := rpcframe.PopDynamic(reqMsg, t)
			if err != nil {
				return errorFrame(err.Error(), rpcerror.CaptureBacktrace(1))
			}
			args[i] = reflect.ValueOf(v)
		}

		results := fnVal.Call(args)

		var callErr error
		var retVal reflect.Value
		if sig.Return != rpcframe.Unit {
			retVal = results[0]
			if errv := results[1]; !errv.IsNil() {
				callErr = errv.Interface().(error)
			}
		} else if errv := results[0]; !errv.IsNil() {
			callErr = errv.Interface().(error)
		}
		if callErr != nil {
			return errorFrame(callErr.Error(), rpcerror.CaptureBacktrace(1))
		}

		respFrame := rpcframe.NewFrame()
		if sig.Return != rpcframe.Unit {
			respMsg := rpcframe.NewWriteMessageOnFrame(respFrame)
			if err := rpcframe.PushDynamic(respMsg, sig.Return, retVal.Interface()); err != nil {
				return errorFrame(err.Error(), rpcerror.CaptureBacktrace(1))
			}
		}
		return respFrame
	}, nil
}

// errorFrame builds a response frame carrying only the reserved "error"
// key (and "backtrace" if capture succeeded), never leftover positional
// keys from a partially executed call. It always starts from a brand new
// Frame, so SetStr/SetVecStr can never hit a duplicate-key CODEC error —
// the one failure mode that would otherwise force the dispatcher to abort
// the process rather than answer the transport at all. Should a write fail
// anyway, the process is terminated with log.Fatalf.
func errorFrame(message string, backtrace []string) *rpcframe.Frame {
	f := rpcframe.NewFrame()
	if err := f.SetStr("error", message); err != nil {
		log.Fatalf("rpcserver: cannot write error frame: %v", err)
	}
	if len(backtrace) > 0 {
		if err := f.SetVecStr("backtrace", backtrace); err != nil {
			log.Fatalf("rpcserver: cannot write error frame: %v", err)
		}
	}
	return f
}
