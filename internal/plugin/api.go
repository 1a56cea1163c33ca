// Package plugin resolves, orders, and initializes grid extension modules
// against the capability API. Plugins are compiled-in factories looked up
// through a registry; there is no dynamic code loading.
package plugin

import (
	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/provider"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
)

// API is the bounded capability surface handed to plugin factories and
// custom providers. It is the only way plugins reach grid state; every
// mutating call re-validates the generation token it was issued with, so
// results applied after a reinitialization are discarded.
type API interface {
	// GetConfig returns the resolved, immutable grid spec.
	GetConfig() *model.GridSpec

	// GetModel returns the live grid model for synchronous inspection
	// during factory initialization. Event handlers run on whichever
	// goroutine publishes, so they must use the locked accessors below and
	// mutate only through the API.
	GetModel() *model.GridModel

	// Status returns the current lifecycle state.
	Status() model.Status

	// Rows returns a copy of the displayed row set.
	Rows() []model.Row

	// Sort returns a copy of the active sort list.
	Sort() []model.SortSpec

	// SetSort replaces the sort list.
	SetSort(specs []model.SortSpec)

	// Filters returns a copy of the declarative filter list.
	Filters() []model.FilterSpec

	// SetFilters replaces the declarative filter list.
	SetFilters(filters []model.FilterSpec)

	// RequestRender schedules a render. Calls coalesce: any number of
	// synchronous requests produce a single render pass.
	RequestRender()

	// SetCellRenderer installs a per-column cell override. Last
	// registration wins; a render is scheduled.
	SetCellRenderer(key string, fn render.CellRenderer)

	// SetHeaderRenderer installs a per-column header override. Last
	// registration wins; a render is scheduled.
	SetHeaderRenderer(key string, fn render.HeaderRenderer)

	// AddToolbarItem appends an item to the toolbar, in call order.
	AddToolbarItem(item render.Item)

	// AddFooterItem appends an item to the footer, in call order.
	AddFooterItem(item render.Item)

	// On subscribes to a bus event and returns an unsubscribe function.
	On(event string, handler func(detail any)) func()

	// Emit publishes a bus event.
	Emit(event string, detail any)

	// AddStyles registers a style fragment and returns its disposer.
	AddStyles(fragment style.Fragment) func()

	// RegisterDataProvider adds a provider kind for the next start.
	RegisterDataProvider(kind string, factory provider.Factory)

	// SetStatus transitions the model lifecycle state.
	SetStatus(s model.Status)

	// SetError moves the model to the error state with a banner message.
	SetError(msg string)

	// SetSnapshot replaces columns/rows/sort/filters; missing columns fall
	// back to the existing ones, missing sort/filters default to empty.
	SetSnapshot(s model.Snapshot)

	// SetRows replaces the row set wholesale.
	SetRows(rows []model.Row)

	// UpsertRows merges rows by id, last write wins.
	UpsertRows(rows []model.Row)

	// UpdateTreeExpansion mutates the hierarchical expansion set in place.
	UpdateTreeExpansion(update func(expanded map[string]struct{}))

	// SetTreeExpansion replaces the expansion set.
	SetTreeExpansion(ids []string)

	// GetTreeExpansion returns the expansion set as a sorted id slice.
	GetTreeExpansion() []string
}
