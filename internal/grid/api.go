package grid

import (
	"context"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/plugin"
	"github.com/tablekit/gridcore/internal/provider"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
)

// capabilityAPI is the per-cycle implementation of plugin.API and
// provider.Sink. Every instance is bound to the generation token of the
// cycle that issued it; mutations from a stale cycle are discarded.
type capabilityAPI struct {
	grid *Grid
	gen  uint64
	ctx  context.Context
}

// current reports whether this API still belongs to the live cycle.
// Callers must hold g.mu.
func (a *capabilityAPI) currentLocked() bool {
	return a.gen == a.grid.generation
}

func (a *capabilityAPI) stale() bool {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	if !a.currentLocked() {
		logger := logging.FromContext(a.ctx)
		logger.Debug().Err(griderr.ErrStaleGeneration).Uint64("token", a.gen).Msg("discarding stale capability call")
		return true
	}
	return false
}

func (a *capabilityAPI) GetConfig() *model.GridSpec {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return a.grid.spec
}

func (a *capabilityAPI) GetModel() *model.GridModel {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return a.grid.gridModel
}

func (a *capabilityAPI) Status() model.Status {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return a.grid.gridModel.Status()
}

func (a *capabilityAPI) Rows() []model.Row {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return append([]model.Row(nil), a.grid.gridModel.Rows...)
}

func (a *capabilityAPI) Sort() []model.SortSpec {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return append([]model.SortSpec(nil), a.grid.gridModel.Sort...)
}

func (a *capabilityAPI) SetSort(specs []model.SortSpec) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.gridModel.Sort = append([]model.SortSpec(nil), specs...)
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) Filters() []model.FilterSpec {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return append([]model.FilterSpec(nil), a.grid.gridModel.Filters...)
}

func (a *capabilityAPI) SetFilters(filters []model.FilterSpec) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.gridModel.Filters = append([]model.FilterSpec(nil), filters...)
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) RequestRender() {
	if a.stale() {
		return
	}
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetCellRenderer(key string, fn render.CellRenderer) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.cellRenderers[key] = fn
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetHeaderRenderer(key string, fn render.HeaderRenderer) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.headerRenderers[key] = fn
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) AddToolbarItem(item render.Item) {
	if item == nil {
		return
	}
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.toolbar = append(a.grid.toolbar, item)
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) AddFooterItem(item render.Item) {
	if item == nil {
		return
	}
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.footer = append(a.grid.footer, item)
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) On(event string, handler func(detail any)) func() {
	if a.stale() {
		return func() {}
	}
	return a.grid.events.Subscribe(event, handler)
}

func (a *capabilityAPI) Emit(event string, detail any) {
	if a.stale() {
		return
	}
	a.grid.events.Publish(event, detail)
}

func (a *capabilityAPI) AddStyles(fragment style.Fragment) func() {
	if a.stale() {
		return func() {}
	}
	return a.grid.stylePipe.AddFragment(fragment)
}

func (a *capabilityAPI) RegisterDataProvider(kind string, factory provider.Factory) {
	if a.stale() {
		return
	}
	// Registration lands in the registry immediately but only affects
	// provider selection on the next initialization cycle.
	a.grid.providers.Register(kind, factory)
}

func (a *capabilityAPI) SetStatus(s model.Status) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	if err := a.grid.gridModel.SetStatus(s); err != nil {
		a.grid.mu.Unlock()
		logger := logging.FromContext(a.ctx)
		logger.Warn().Err(err).Msg("rejected status transition")
		return
	}
	a.grid.mu.Unlock()
	a.grid.publishStatus()
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetError(msg string) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	if err := a.grid.gridModel.SetError(msg); err != nil {
		a.grid.mu.Unlock()
		logger := logging.FromContext(a.ctx)
		logger.Warn().Err(err).Msg("rejected error transition")
		return
	}
	a.grid.mu.Unlock()
	a.grid.publishStatus()
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetSnapshot(s model.Snapshot) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	a.grid.gridModel.ApplySnapshot(s)
	a.grid.baseRows = append([]model.Row(nil), a.grid.gridModel.Rows...)
	a.grid.statusToReadyLocked()
	a.grid.mu.Unlock()

	a.grid.dispatchData()
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetRows(rows []model.Row) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	inDispatch := a.grid.inDataDispatch
	a.grid.gridModel.SetRows(rows)
	if !inDispatch {
		// A wholesale replace outside the data dispatch is a fresh
		// provider payload: it becomes the new source row set.
		a.grid.baseRows = append([]model.Row(nil), rows...)
	}
	a.grid.statusToReadyLocked()
	a.grid.mu.Unlock()

	if !inDispatch {
		a.grid.dispatchData()
	}
	a.grid.RequestRender()
}

func (a *capabilityAPI) UpsertRows(rows []model.Row) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	// Merge into the source set, then republish the whole set so the
	// functionality plugins re-derive the displayed rows.
	base := &model.GridModel{Rows: a.grid.baseRows}
	base.UpsertRows(rows)
	a.grid.baseRows = base.Rows
	a.grid.gridModel.SetRows(append([]model.Row(nil), base.Rows...))
	a.grid.statusToReadyLocked()
	a.grid.mu.Unlock()

	a.grid.dispatchData()
	a.grid.RequestRender()
}

func (a *capabilityAPI) UpdateTreeExpansion(update func(expanded map[string]struct{})) {
	if update == nil {
		return
	}
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	update(a.grid.expanded)
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) SetTreeExpansion(ids []string) {
	a.grid.mu.Lock()
	if !a.currentLocked() {
		a.grid.mu.Unlock()
		return
	}
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	a.grid.expanded = next
	a.grid.mu.Unlock()
	a.grid.RequestRender()
}

func (a *capabilityAPI) GetTreeExpansion() []string {
	a.grid.mu.Lock()
	defer a.grid.mu.Unlock()
	return sortedIDs(a.grid.expanded)
}

var (
	_ plugin.API    = (*capabilityAPI)(nil)
	_ provider.Sink = (*capabilityAPI)(nil)
)
