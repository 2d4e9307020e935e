package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"hwrpc/internal/registry"
)

// ConsistentHash maps an affinity key (e.g. a specific AMC crate's ID) onto
// a hash ring built over the discovered instances, so the same key keeps
// landing on the same server instance across reconnects as long as the
// fleet doesn't change. It does not implement Balancer — key-based
// selection is a different contract from "pick any instance".
type ConsistentHash struct {
	replicas int
	ring     []uint32
	nodes    map[uint32]*registry.Instance
}

// NewConsistentHash builds an empty ring with 100 virtual nodes per real
// instance, enough to keep the distribution close to uniform.
func NewConsistentHash() *ConsistentHash {
	return &ConsistentHash{
		replicas: 100,
		nodes:    make(map[uint32]*registry.Instance),
	}
}

// Add places instance onto the ring.
func (b *ConsistentHash) Add(instance *registry.Instance) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", instance.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	sort.Slice(b.ring, func(i, j int) bool { return b.ring[i] < b.ring[j] })
}

// Pick returns the instance owning key: the first ring node clockwise from
// key's hash, wrapping around to the first node if key hashes past the
// last one.
func (b *ConsistentHash) Pick(key string) (*registry.Instance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("loadbalance: hash ring is empty")
	}
	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool { return b.ring[i] >= hash })
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHash) Name() string { return "ConsistentHash" }
