// Package backend provides named backend presets for dbpool: ready-made
// adapters for PostgreSQL, MySQL and SQLite, and a registry resolving a
// backend kind name to an adapter.
package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/guileen/dbpool/pool"
)

// Factory builds a backend adapter for a registered kind.
type Factory func() pool.Backend

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend kind available to New and Open. It is meant to
// be called from a driver package's init.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// New resolves a registered backend kind.
func New(kind string) (pool.Backend, error) {
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend kind %q (registered: %v)", kind, Kinds())
	}
	return factory(), nil
}

// Kinds returns the registered backend kind names, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Open creates a pool, resolving cfg.Kind through the registry when no
// explicit Backend adapter is set.
func Open(cfg pool.Config) (*pool.Pool, error) {
	if cfg.Backend == nil {
		b, err := New(cfg.Kind)
		if err != nil {
			return nil, err
		}
		cfg.Backend = b
	}
	return pool.New(cfg)
}
