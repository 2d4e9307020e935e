package loadbalance

import (
	"fmt"
	"sync/atomic"

	"hwrpc/internal/registry"
)

// RoundRobin cycles through instances in order using a lock-free atomic
// counter. Fits a module server fleet where every instance has equal
// capacity.
type RoundRobin struct {
	counter int64
}

func (b *RoundRobin) Pick(instances []registry.Instance) (*registry.Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("loadbalance: no instances available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobin) Name() string { return "RoundRobin" }
