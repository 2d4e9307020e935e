// Package rpcclient implements the client invoker: encode a call's
// arguments per a Signature's argument-type vector, stamp the routing key,
// hand the frame to a transport, and decode the reply or raise the
// response's trapped error back as a Go error.
package rpcclient

import (
	"hwrpc/internal/loadbalance"
	"hwrpc/internal/registry"
	"hwrpc/rpcerror"
	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
	"hwrpc/rpcsig"
)

// Transport is everything Connection needs from the wire: one blocking
// request/response round trip. Section 5's concurrency model rules out
// concurrent in-flight calls on one connection, so Transport need not be
// safe for concurrent use. Connection adds no locking of its own: it is
// not safe for concurrent calls (see Connection).
type Transport interface {
	CallMethod(request *rpcframe.Frame) (*rpcframe.Frame, error)
	Close() error
}

// Dialer opens a Transport to host. internal/nettransport provides the TCP
// implementation; tests substitute an in-process fake.
type Dialer interface {
	Dial(host string) (Transport, error)
}

// Connection is the client-visible session: dial a host, probe the modules
// it intends to use, then issue calls against signatures those modules
// exposed. A Connection is not safe for concurrent Call invocations — it
// holds exactly one transport round trip in flight at a time, matching the
// framework's no-concurrent-calls-per-connection rule.
type Connection struct {
	dialer    Dialer
	transport Transport

	loadedVersions map[string]string
}

// NewConnection returns an unconnected Connection that will use dialer to
// establish its transport.
func NewConnection(dialer Dialer) *Connection {
	return &Connection{dialer: dialer, loadedVersions: make(map[string]string)}
}

// Connect dials host directly and stores the resulting transport. Call
// before any LoadModule or Call. Use this when the server address is
// already known — a pinned deployment, or a test double — and
// ConnectDiscover when it must be resolved through service discovery.
func (c *Connection) Connect(host string) error {
	t, err := c.dialer.Dial(host)
	if err != nil {
		return rpcerror.New(rpcerror.KindTransport, "dial %s: %v", host, err)
	}
	c.transport = t
	return nil
}

// ConnectDiscover resolves module to a live server instance through
// discovery, picks one of them with balancer, and dials it — the
// discovery-backed counterpart to Connect, for deployments where a
// module's server set is dynamic rather than a pinned host:port. balancer
// is consulted exactly once per call, matching loadbalance.Balancer's
// once-per-connect contract.
func (c *Connection) ConnectDiscover(discovery registry.Registry, balancer loadbalance.Balancer, module string) error {
	instances, err := discovery.Discover(module)
	if err != nil {
		return rpcerror.New(rpcerror.KindTransport, "discover %q: %v", module, err)
	}

	instance, err := balancer.Pick(instances)
	if err != nil {
		return rpcerror.New(rpcerror.KindTransport, "pick instance for %q: %v", module, err)
	}

	return c.Connect(instance.Addr)
}

// Close releases the underlying transport.
func (c *Connection) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

// LoadModule probes the server-recorded version tag for module and compares
// it against expectedVersion. A mismatch is reported as a registration
// error rather than silently proceeding — the wire-level signatures behind
// that module name are not guaranteed compatible once the tag diverges.
func (c *Connection) LoadModule(module, expectedVersion string) error {
	if c.transport == nil {
		return rpcerror.New(rpcerror.KindTransport, "connection not established")
	}

	req := rpcframe.NewFrame()
	req.RoutingKey = module + "." + rpcmodule.VersionMethodName

	resp, err := c.transport.CallMethod(req)
	if err != nil {
		return rpcerror.New(rpcerror.KindTransport, "%v", err)
	}
	if resp.HasKey("error") {
		return remoteErrorFromFrame(resp)
	}

	actual, err := resp.GetStr("0")
	if err != nil {
		return rpcerror.New(rpcerror.KindCodecType, "module %q returned a malformed version probe", module)
	}
	if actual != expectedVersion {
		return rpcerror.New(rpcerror.KindRegistration,
			"module %q version mismatch: client expects %q, server reports %q", module, expectedVersion, actual)
	}

	c.loadedVersions[module] = actual
	return nil
}

// Call invokes the method identified by sig with args, positionally matched
// against sig.Args, and decodes the reply as T. Use struct{} for T when
// sig.Return is rpcframe.Unit.
func Call[T any](c *Connection, sig rpcsig.Signature, args ...any) (T, error) {
	var zero T

	if c.transport == nil {
		return zero, rpcerror.New(rpcerror.KindTransport, "connection not established")
	}
	if err := sig.Validate(); err != nil {
		return zero, rpcerror.New(rpcerror.KindRegistration, "%v", err)
	}
	if len(args) != len(sig.Args) {
		return zero, rpcerror.New(rpcerror.KindCodecType,
			"%s expects %d arguments, got %d", sig.RoutingKey(), len(sig.Args), len(args))
	}

	reqMsg := rpcframe.NewWriteMessage()
	for i, argType := range sig.Args {
		if err := rpcframe.PushDynamic(reqMsg, argType, args[i]); err != nil {
			return zero, mapCodecErr(err)
		}
	}
	reqMsg.Frame().RoutingKey = sig.RoutingKey()

	resp, err := c.transport.CallMethod(reqMsg.Frame())
	if err != nil {
		return zero, rpcerror.New(rpcerror.KindTransport, "%v", err)
	}
	if resp.HasKey("error") {
		return zero, remoteErrorFromFrame(resp)
	}

	if sig.Return == rpcframe.Unit {
		return zero, nil
	}

	respMsg := rpcframe.NewReadMessage(resp)
	value, err := rpcframe.PopDynamic(respMsg, sig.Return)
	if err != nil {
		return zero, mapCodecErr(err)
	}

	result, ok := value.(T)
	if !ok {
		return zero, rpcerror.New(rpcerror.KindCodecType,
			"%s: decoded %T, caller expected %T", sig.RoutingKey(), value, zero)
	}
	return result, nil
}

func remoteErrorFromFrame(resp *rpcframe.Frame) error {
	message, err := resp.GetStr("error")
	if err != nil {
		message = "unreadable remote error"
	}
	backtrace, hasBacktrace := []string(nil), false
	if resp.HasKey("backtrace") {
		if bt, err := resp.GetVecStr("backtrace"); err == nil {
			backtrace, hasBacktrace = bt, true
		}
	}
	return rpcerror.NewRemote(message, backtrace, hasBacktrace)
}

// mapCodecErr translates a rpcframe codec error into the client-facing
// rpcerror taxonomy. rpcframe errors never reach a caller unwrapped — every
// public Connection/Call entry point speaks rpcerror.Error exclusively.
func mapCodecErr(err error) error {
	frameErr, ok := err.(*rpcframe.Error)
	if !ok {
		return rpcerror.New(rpcerror.KindCodecType, "%v", err)
	}
	switch frameErr.Kind {
	case rpcframe.ErrBadKey:
		return rpcerror.New(rpcerror.KindCodecBadKey, "%s", frameErr.Error())
	case rpcframe.ErrType:
		return rpcerror.New(rpcerror.KindCodecType, "%s", frameErr.Error())
	case rpcframe.ErrBufferTooSmall:
		return rpcerror.New(rpcerror.KindCodecBuffer, "%s", frameErr.Error())
	case rpcframe.ErrCorrupt:
		return rpcerror.New(rpcerror.KindCodecCorrupt, "%s", frameErr.Error())
	default:
		return rpcerror.New(rpcerror.KindCodecType, "%s", frameErr.Error())
	}
}
