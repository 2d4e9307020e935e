// Package rpcserver implements the server-side dispatcher: per-method
// decode -> execute -> encode (stub.go), and the routing layer that
// demultiplexes an incoming frame to a registered handler by
// "module.method-name" (dispatcher.go).
package rpcserver

import (
	"context"
	"strings"
	"sync"

	"hwrpc/rpcframe"
	"hwrpc/rpcmodule"
)

// Dispatcher demultiplexes request frames to registered handlers. One
// Dispatcher is built around one Registry; middlewares are assembled into
// a single handler chain, rebuilt under mu whenever Use changes it, so
// concurrent Dispatch calls (one per connection goroutine) never race
// against a concurrent Use or against each other's read of the chain.
type Dispatcher struct {
	registry    *rpcmodule.Registry
	mu          sync.Mutex
	middlewares []Middleware
	handler     HandlerFunc
}

// NewDispatcher returns a Dispatcher over reg. reg should already be
// populated (and ideally frozen) via module load before the first
// request is served.
func NewDispatcher(reg *rpcmodule.Registry) *Dispatcher {
	d := &Dispatcher{registry: reg}
	d.handler = Chain()(d.route)
	return d
}

// Use registers a middleware and rebuilds the handler chain immediately.
// Call Use before serving any request on a connection goroutine; Use
// itself is safe to call concurrently with Dispatch, but middleware order
// depends on the order Use calls complete in, so callers should still
// finish registering middleware before traffic starts.
func (d *Dispatcher) Use(mw Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, mw)
	d.handler = Chain(d.middlewares...)(d.route)
}

// Dispatch routes request to its registered handler and returns the
// response frame. It is safe for concurrent use: the registry is
// read-only by this point, and reading the current handler chain is
// guarded by mu rather than left as a racy field read.
func (d *Dispatcher) Dispatch(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame {
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()
	return handler(ctx, request)
}

// route looks up request.RoutingKey and invokes the registered handler.
// An unregistered routing key produces an error frame rather than a Go
// error: from the dispatcher's perspective "no handler" is exactly the
// same kind of response-carried failure as a trapped domain exception.
func (d *Dispatcher) route(ctx context.Context, request *rpcframe.Frame) *rpcframe.Frame {
	module, name, ok := splitRoutingKey(request.RoutingKey)
	if !ok {
		return errorFrame("malformed routing key "+request.RoutingKey, nil)
	}

	handler, ok := d.registry.Lookup(module, name)
	if !ok {
		return errorFrame("no handler registered for "+request.RoutingKey, nil)
	}
	return handler(request)
}

func splitRoutingKey(routingKey string) (module, name string, ok bool) {
	module, name, found := strings.Cut(routingKey, ".")
	if !found || module == "" || name == "" {
		return "", "", false
	}
	return module, name, true
}
