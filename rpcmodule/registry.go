// Package rpcmodule implements the registration and module-bootstrap
// contract: a process-wide mapping (module, method-name) -> Handler, built
// once during module load and immutable thereafter.
package rpcmodule

import (
	"fmt"
	"strings"
	"sync"

	"hwrpc/rpcframe"
)

// Handler is the server-side invocation stub: it decodes arguments from
// request, executes the method, and returns either a frame carrying the
// encoded result or one carrying a trapped error under the reserved
// "error"/"backtrace" keys. It never returns a Go error itself — by the
// time a Handler returns, every failure path has already been rewritten
// into the response frame.
type Handler func(request *rpcframe.Frame) *rpcframe.Frame

// Module is what a plug-in exposes at load time: a version tag the client
// may match on connect, and an Init hook that registers every
// (module, method-name, handler) triple it provides.
type Module interface {
	// VersionKey returns a string tag such as "memory v1.0.1".
	VersionKey() string
	// Init registers this module's methods into r.
	Init(r *Registry) error
}

// Registry is the process-wide (module, method-name) -> Handler map. It is
// written once, serially, during module load, and is safe for concurrent
// read-only lookups thereafter — callers are not required to synchronize
// around Lookup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	versions map[string]string // module -> version tag, set by LoadModule
	frozen   bool
}

// NewRegistry returns an empty, mutable Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		versions: make(map[string]string),
	}
}

func routingKey(module, name string) string { return module + "." + name }

// VersionMethodName is the reserved method name LoadModule registers
// automatically so a client can probe a module's version tag over the same
// wire protocol used for every other call, rather than needing a side
// channel. Connection.LoadModule calls it under the hood.
const VersionMethodName = "__version__"

// Register associates (module, name) with handler. It fails if the method
// name contains '.', if the pair is already registered, or if the registry
// has been frozen.
func (r *Registry) Register(module, name string, handler Handler) error {
	if module == "" {
		return fmt.Errorf("rpcmodule: module must not be empty")
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("rpcmodule: method name %q must not contain '.'", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("rpcmodule: registry is frozen, cannot register %s.%s", module, name)
	}

	key := routingKey(module, name)
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("rpcmodule: duplicate registration for %s", key)
	}
	r.handlers[key] = handler
	return nil
}

// LoadModule runs mod.Init against the registry and records its version
// tag. It mirrors the client-visible load_module contract: the same tag
// the client probes via Connection.LoadModule is recorded here at
// server-side load time.
func (r *Registry) LoadModule(name string, mod Module) error {
	if err := mod.Init(r); err != nil {
		return fmt.Errorf("rpcmodule: init module %q: %w", name, err)
	}

	version := mod.VersionKey()
	versionHandler := func(request *rpcframe.Frame) *rpcframe.Frame {
		resp := rpcframe.NewFrame()
		_ = resp.SetStr("0", version)
		return resp
	}
	if err := r.Register(name, VersionMethodName, versionHandler); err != nil {
		return fmt.Errorf("rpcmodule: register version probe for %q: %w", name, err)
	}

	r.mu.Lock()
	r.versions[name] = version
	r.mu.Unlock()
	return nil
}

// VersionOf returns the version tag recorded for module, and whether one
// was recorded at all.
func (r *Registry) VersionOf(module string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[module]
	return v, ok
}

// Modules returns a copy of the module -> version-tag map recorded by
// LoadModule, for a server to advertise its loaded module set to a
// discovery registry.
func (r *Registry) Modules() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.versions))
	for module, version := range r.versions {
		out[module] = version
	}
	return out
}

// Lookup returns the handler registered for (module, name), if any.
func (r *Registry) Lookup(module, name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[routingKey(module, name)]
	return h, ok
}

// Freeze marks the registry immutable. Call once module load has
// completed and before the first request is served; Register calls made
// afterward fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}
