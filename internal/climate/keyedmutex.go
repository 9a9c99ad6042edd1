package climate

import (
	"fmt"
	"sync"

	"facility-monitor-backend/internal/model"
)

// keyedMutex serializes warning evaluation per (device, sensor type) pair so
// that concurrent uploads and action links cannot race the one-active-warning
// invariant. Entries are never removed; the key space is bounded by the
// device fleet.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(deviceID int64, sensorType model.SensorType) func() {
	key := fmt.Sprintf("%d/%s", deviceID, sensorType)

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
