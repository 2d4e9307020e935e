package amc

import "sync"

// SimulatedRegisterFile is an in-memory RegisterReader keyed by dotted
// register name, standing in for the real address-table-backed register
// space. Unset registers read as zero, matching a freshly reset crate
// where every VFAT link starts synchronized.
type SimulatedRegisterFile struct {
	mu        sync.Mutex
	registers map[string]uint32
}

// NewSimulatedRegisterFile returns an empty simulated register space.
func NewSimulatedRegisterFile() *SimulatedRegisterFile {
	return &SimulatedRegisterFile{registers: make(map[string]uint32)}
}

func (f *SimulatedRegisterFile) ReadRegister(name string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registers[name], nil
}

// SetRegister lets a test or example drive a specific register's value,
// e.g. to simulate a VFAT reporting sync errors.
func (f *SimulatedRegisterFile) SetRegister(name string, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers[name] = value
}
