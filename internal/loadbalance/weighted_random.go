package loadbalance

import (
	"fmt"
	"math/rand"

	"hwrpc/internal/registry"
)

// WeightedRandom picks an instance with probability proportional to its
// advertised Weight. Fits a fleet mixing instances of different capacity —
// a DAQ crate proxy on modest hardware next to one with headroom to spare.
type WeightedRandom struct{}

func (b *WeightedRandom) Pick(instances []registry.Instance) (*registry.Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("loadbalance: no instances available")
	}

	total := 0
	for _, inst := range instances {
		total += inst.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("loadbalance: total weight must be positive")
	}

	r := rand.Intn(total)
	for i := range instances {
		r -= instances[i].Weight
		if r < 0 {
			return &instances[i], nil
		}
	}
	return nil, fmt.Errorf("loadbalance: weighted selection fell through")
}

func (b *WeightedRandom) Name() string { return "WeightedRandom" }
