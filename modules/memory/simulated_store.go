package memory

import (
	"fmt"
	"sync"
)

// SimulatedStore is an in-memory Store: a sparse word array standing in
// for the real register space. It is the Store cmd/rpc-server always
// runs against, and what the package's own tests exercise directly.
type SimulatedStore struct {
	mu    sync.Mutex
	words map[uint32]uint32
}

// NewSimulatedStore returns an empty simulated register file.
func NewSimulatedStore() *SimulatedStore {
	return &SimulatedStore{words: make(map[uint32]uint32)}
}

func (s *SimulatedStore) Read(address, count uint32) ([]uint32, error) {
	if count == 0 {
		return nil, fmt.Errorf("count must be nonzero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		result[i] = s.words[address+i]
	}
	return result, nil
}

func (s *SimulatedStore) Write(address uint32, data []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range data {
		s.words[address+uint32(i)] = w
	}
	return nil
}
