package loadbalance

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"hwrpc/internal/registry"
)

func threeInstances() []registry.Instance {
	return []registry.Instance{
		{Addr: "10.0.0.1:9000", Weight: 1},
		{Addr: "10.0.0.2:9000", Weight: 5},
		{Addr: "10.0.0.3:9000", Weight: 10},
	}
}

func TestRoundRobinCyclesThroughAllInstances(t *testing.T) {
	b := &RoundRobin{}
	instances := threeInstances()
	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		pick, err := b.Pick(instances)
		require.NoError(t, err)
		seen[pick.Addr] = true
	}
	require.Len(t, seen, 3)
}

func TestRoundRobinRejectsEmptySet(t *testing.T) {
	b := &RoundRobin{}
	_, err := b.Pick(nil)
	require.Error(t, err)
}

func TestWeightedRandomOnlyEverReturnsKnownInstances(t *testing.T) {
	b := &WeightedRandom{}
	instances := threeInstances()
	valid := map[string]bool{}
	for _, inst := range instances {
		valid[inst.Addr] = true
	}
	for i := 0; i < 50; i++ {
		pick, err := b.Pick(instances)
		require.NoError(t, err)
		require.True(t, valid[pick.Addr])
	}
}

func TestWeightedRandomRejectsZeroTotalWeight(t *testing.T) {
	b := &WeightedRandom{}
	_, err := b.Pick([]registry.Instance{{Addr: "a", Weight: 0}})
	require.Error(t, err)
}

func TestConsistentHashIsStableForSameKey(t *testing.T) {
	ring := NewConsistentHash()
	for _, inst := range threeInstances() {
		inst := inst
		ring.Add(&inst)
	}

	first, err := ring.Pick("amc-crate-7")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ring.Pick("amc-crate-7")
		require.NoError(t, err)
		require.Equal(t, first.Addr, again.Addr)
	}
}

func TestConsistentHashDistributesAcrossInstances(t *testing.T) {
	ring := NewConsistentHash()
	for _, inst := range threeInstances() {
		inst := inst
		ring.Add(&inst)
	}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pick, err := ring.Pick(strconv.Itoa(i))
		require.NoError(t, err)
		seen[pick.Addr] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestConsistentHashRejectsEmptyRing(t *testing.T) {
	ring := NewConsistentHash()
	_, err := ring.Pick("anything")
	require.Error(t, err)
}
