package config

import (
	"sync"

	"github.com/tablekit/gridcore/internal/model"
)

// SpecFactory builds a GridSpec on demand. Factories are looked up by name
// during factory-mode resolution.
type SpecFactory func() (*model.GridSpec, error)

//nolint:gochecknoglobals // Process-global registry mirrors the host-facing factory lookup surface.
var (
	factoryMu sync.RWMutex
	factories = make(map[string]SpecFactory)
)

// RegisterFactory adds or replaces a named spec factory.
func RegisterFactory(name string, factory SpecFactory) {
	if name == "" || factory == nil {
		return
	}
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = factory
}

// LookupFactory returns the factory registered under name.
func LookupFactory(name string) (SpecFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// ResetFactories removes every registered factory. Intended for tests.
func ResetFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories = make(map[string]SpecFactory)
}
