// Package loadbalance picks one server instance out of the set
// internal/registry discovers for a module. Three strategies are
// provided, matching three different deployment shapes for a module
// server fleet: identical stateless instances, instances with different
// capacity, and instances a client wants cache/session affinity with.
package loadbalance

import "hwrpc/internal/registry"

// Balancer selects one instance from a discovered set. Pick is called once
// per rpcclient.Connection.ConnectDiscover (or per reconnect), so it must
// be safe for concurrent use across however many Connections share one
// Balancer.
type Balancer interface {
	Pick(instances []registry.Instance) (*registry.Instance, error)
	Name() string
}
