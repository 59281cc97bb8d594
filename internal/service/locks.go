package service

import "sync"

// deviceLocks serializes the read-decide-write sequence per device. Two
// concurrent requests for the same device would otherwise both read
// bubbles=true, both decide to shut down, and double-delete the timer.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for deviceID and returns its unlock function.
// Mutexes are never evicted; the device fleet is small and stable.
func (d *deviceLocks) Lock(deviceID string) func() {
	d.mu.Lock()
	m, ok := d.locks[deviceID]
	if !ok {
		m = &sync.Mutex{}
		d.locks[deviceID] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}
