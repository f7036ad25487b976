package driver

import (
	"sync"

	"github.com/libratbag/ratbag-go/ratbag"
)

// Record describes one built-in driver: a stable id, a
// human-readable name, and a constructor for a fresh ratbag.Driver
// instance — one per probed device, since a Driver implementation
// typically holds per-device private state.
type Record struct {
	ID   string
	Name string
	New  func() ratbag.Driver
}

var (
	mu       sync.RWMutex
	registry = map[string]Record{}
)

// Register adds r to the global driver table. Built-in drivers call this
// from an init function; the table is read-only once program start-up
// finishes populating it.
func Register(r Record) {
	mu.Lock()
	defer mu.Unlock()
	registry[r.ID] = r
}

// Lookup resolves a driver id to its Record.
func Lookup(id string) (Record, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := registry[id]
	return r, ok
}

// Registered returns the ids of every driver currently registered, for
// diagnostics and tests. The order is unspecified.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
