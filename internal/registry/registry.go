// Package registry is service discovery for module servers: where a given
// module ("memory", "amc") is currently reachable, as opposed to
// rpcmodule.Registry, which is the in-process (module, method) -> Handler
// dispatch table a single server keeps once connected.
package registry

// Instance is one reachable server advertising a module.
type Instance struct {
	Addr    string // host:port a Connection can Dial
	Weight  int    // relative capacity, consumed by loadbalance.WeightedRandom
	Version string // the module's VersionKey, so a balancer can route around a stale server
}

// Registry is the discovery contract: advertise an instance, withdraw it,
// and look up or watch the currently live set for a module.
type Registry interface {
	Register(module string, instance Instance, ttlSeconds int64) error
	Deregister(module string, addr string) error
	Discover(module string) ([]Instance, error)
	Watch(module string) <-chan []Instance
}
