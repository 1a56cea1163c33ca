package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/model"
)

// Disposer tears down a plugin's registrations. Returned by factories,
// invoked on grid teardown and reinitialization.
type Disposer func()

// Factory initializes a plugin against the capability API. The returned
// disposer may be nil.
type Factory func(api API, options map[string]any) (Disposer, error)

// Meta is the default metadata a factory registers with. A PluginRef can
// override any of it.
type Meta struct {
	ID       string
	Nature   model.Nature
	Priority int
}

// Registration is one (name, version) factory entry.
type Registration struct {
	Name    string
	Version *semver.Version
	Meta    Meta
	Factory Factory
}

//nolint:gochecknoglobals // Compiled-in factory registry replaces dynamic module loading.
var (
	registryMu sync.RWMutex
	registry   = make(map[string][]Registration)
)

// Register adds a plugin factory under name and a semantic version.
// Invalid versions are rejected.
func Register(name, version string, meta Meta, factory Factory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("plugin registration requires a name and factory")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("plugin %q version %q: %w", name, version, err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = append(registry[name], Registration{
		Name:    name,
		Version: v,
		Meta:    meta,
		Factory: factory,
	})
	return nil
}

// MustRegister registers a factory and panics on failure. Intended for
// package init of built-in plugins.
func MustRegister(name, version string, meta Meta, factory Factory) {
	if err := Register(name, version, meta, factory); err != nil {
		panic(err)
	}
}

// ResolveRef resolves a module reference of the form "name" or
// "name@<range>" to the highest registered version satisfying the range.
func ResolveRef(moduleRef string) (Registration, error) {
	name := moduleRef
	rng := ""
	if at := strings.LastIndex(moduleRef, "@"); at > 0 {
		name, rng = moduleRef[:at], moduleRef[at+1:]
	}

	registryMu.RLock()
	candidates := registry[name]
	registryMu.RUnlock()
	if len(candidates) == 0 {
		return Registration{}, fmt.Errorf("%w: %q", griderr.ErrUnknownFactory, name)
	}

	var constraint *semver.Constraints
	if rng != "" {
		c, err := semver.NewConstraint(rng)
		if err != nil {
			return Registration{}, fmt.Errorf("module ref %q: invalid version range: %w", moduleRef, err)
		}
		constraint = c
	}

	sorted := make([]Registration, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version.GreaterThan(sorted[j].Version)
	})

	for _, reg := range sorted {
		if constraint == nil || constraint.Check(reg.Version) {
			return reg, nil
		}
	}
	return Registration{}, fmt.Errorf("%w: %q has no version matching %q", griderr.ErrUnknownFactory, name, rng)
}

// ResetRegistry removes every registered factory. Intended for tests;
// built-in plugins re-register via RegisterBuiltins.
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string][]Registration)
}
