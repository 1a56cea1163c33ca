// Package provider implements the data acquisition strategies behind a
// grid: a static snapshot, HTTP polling, and a streaming subscription,
// plus the registry through which plugins contribute custom kinds.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/model"
)

// Sink is the bounded surface a provider uses to push results into the
// grid core. Implementations are generation-checked: calls from a stale
// initialization cycle are discarded.
type Sink interface {
	// SetSnapshot replaces columns/rows/sort/filters, marks the model
	// ready, publishes the data event, and schedules a render.
	SetSnapshot(s model.Snapshot)

	// SetRows replaces the row set, marks the model ready, publishes the
	// data event, and schedules a render.
	SetRows(rows []model.Row)

	// UpsertRows merges rows by id (last write wins), marks the model
	// ready, publishes the data event, and schedules a render.
	UpsertRows(rows []model.Row)

	// SetError moves the model to the error state with a banner message.
	SetError(msg string)
}

// Provider acquires row data for a grid. Exactly one provider is active per
// grid; Start is called once per initialization cycle and Stop must be safe
// to call multiple times.
type Provider interface {
	Kind() string
	Start(ctx context.Context) error
	Stop()
}

// Factory builds a provider instance for a data source.
type Factory func(src model.DataSource, sink Sink) Provider

// Registry maps data source kinds to provider factories. The built-in
// static, poll, and stream kinds are always present; plugins may register
// further kinds. Registration while a provider is running only affects the
// next initialization cycle, because the active provider was already
// constructed.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in providers registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("static", newStatic)
	r.Register("poll", newPoll)
	r.Register("stream", newStream)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	if kind == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// New constructs a provider for the data source's kind.
func (r *Registry) New(src model.DataSource, sink Sink) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[src.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", griderr.ErrUnknownProvider, src.Kind)
	}
	return factory(src, sink), nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
