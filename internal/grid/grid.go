// Package grid wires the resolver, plugin pipeline, data providers, style
// pipeline, and renderer into one grid instance. The GridModel and the
// single active provider are exclusively owned here; plugins and providers
// reach them only through the capability API, which enforces single-writer
// discipline and generation checking.
package grid

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/tablekit/gridcore/internal/bus"
	"github.com/tablekit/gridcore/internal/config"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/plugin"
	"github.com/tablekit/gridcore/internal/provider"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
)

// Options configures a grid instance.
type Options struct {
	Resolve config.Options
	Sources config.Sources

	// Theme is the host theme hint for the style pipeline.
	Theme string

	// DisableStyles skips all but caller-supplied style rules.
	DisableStyles bool

	// StyleOverrides is the caller override layer, applied last.
	StyleOverrides style.Sheet

	// HostToolbarItems are embedding-surface items (inputs, buttons)
	// placed at the front of the toolbar every cycle, ahead of
	// plugin-contributed items.
	HostToolbarItems []render.Item
}

// Grid is one grid instance. Create with New, drive with Init/Reinit, and
// consume render trees via BuildTree whenever RenderNotify fires.
type Grid struct {
	// lifecycle serializes Init/Reinit/Close against each other.
	lifecycle sync.Mutex

	// mu is the single-writer lock over all mutable grid state.
	mu sync.Mutex

	baseCtx   context.Context
	opts      Options
	logger    zerolog.Logger
	stylePipe *style.Pipeline
	providers *provider.Registry
	events    *bus.Bus
	gridModel *model.GridModel
	renderer  *render.Renderer

	spec       *model.GridSpec
	generation uint64
	cycleID    string

	cellRenderers   map[string]render.CellRenderer
	headerRenderers map[string]render.HeaderRenderer
	toolbar         []render.Item
	footer          []render.Item
	expanded        map[string]struct{}
	disposers       []plugin.Disposer

	active       provider.Provider
	providerStop context.CancelFunc

	// baseRows is the last provider-published row set, before plugin
	// transformations. Refresh republishes it so filter/sort/paginate can
	// re-derive the displayed rows.
	baseRows []model.Row

	inDataDispatch bool
	renderDirty    bool
	renderNotify   chan struct{}

	viewportW, viewportH int
}

// New creates a grid. Init must be called before the first render.
func New(ctx context.Context, opts Options) *Grid {
	plugin.RegisterBuiltins()

	if ctx == nil {
		ctx = context.Background()
	}
	g := &Grid{
		baseCtx:         ctx,
		opts:            opts,
		logger:          logging.ComponentLogger(logging.FromContext(ctx), "grid"),
		stylePipe:       style.NewPipeline(opts.Theme, opts.DisableStyles),
		providers:       provider.NewRegistry(),
		events:          bus.New(ctx),
		gridModel:       model.NewGridModel(),
		renderer:        render.New(render.Config{}),
		cellRenderers:   make(map[string]render.CellRenderer),
		headerRenderers: make(map[string]render.HeaderRenderer),
		expanded:        make(map[string]struct{}),
		renderNotify:    make(chan struct{}, 1),
		viewportW:       render.DefaultColWidthPx * 6,
		viewportH:       render.DefaultRowHeightPx * 20,
	}
	if opts.StyleOverrides != nil {
		g.stylePipe.SetOverrides(opts.StyleOverrides)
	}
	return g
}

// Init resolves the spec, runs the plugin pipeline, and starts the data
// provider for a fresh initialization cycle. Calling Init on a running
// grid reinitializes it: the outgoing provider is stopped, plugin
// registrations are torn down, and the generation token advances so stale
// asynchronous results are discarded.
func (g *Grid) Init(ctx context.Context) error {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	if ctx == nil {
		ctx = g.baseCtx
	}

	gen, cycleCtx := g.beginCycle(ctx)
	logger := logging.FromContext(cycleCtx)

	spec, err := config.Resolve(cycleCtx, g.opts.Resolve, g.opts.Sources)
	if err != nil {
		g.mu.Lock()
		if gen == g.generation {
			_ = g.gridModel.SetStatus(model.StatusLoading)
			_ = g.gridModel.SetError(err.Error())
		}
		g.mu.Unlock()
		g.publishStatus()
		g.RequestRender()
		return err
	}

	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		return nil
	}
	g.spec = spec
	// Declared columns take effect immediately; a snapshot carrying its own
	// columns replaces them later via ApplySnapshot.
	g.gridModel.Columns = append([]model.Column(nil), spec.Columns...)
	_ = g.gridModel.SetStatus(model.StatusLoading)
	g.renderer = render.New(render.ConfigFromSpec(spec.UI))
	g.renderer.SetViewport(g.viewportW, g.viewportH)
	g.mu.Unlock()
	g.publishStatus()

	// The core republishes the provider-fresh row set whenever a
	// functionality plugin asks for a re-derivation.
	g.events.Subscribe(plugin.EventRefresh, func(any) {
		g.republishBase(gen)
	})

	loaded, refErrs := plugin.ResolveRefs(cycleCtx, spec.Plugins)
	for range refErrs {
		// Already logged by the resolver; unresolvable refs never abort
		// the cycle.
	}
	api := &capabilityAPI{grid: g, gen: gen, ctx: cycleCtx}
	disposers := plugin.Run(cycleCtx, api, loaded)

	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		for i := len(disposers) - 1; i >= 0; i-- {
			disposers[i]()
		}
		return nil
	}
	g.disposers = disposers
	g.mu.Unlock()

	if err := g.startProvider(cycleCtx, gen, spec.Data); err != nil {
		g.mu.Lock()
		if gen == g.generation {
			_ = g.gridModel.SetError(err.Error())
		}
		g.mu.Unlock()
		g.publishStatus()
		g.RequestRender()
		return err
	}

	logger.Debug().Str("grid_id", spec.ID).Msg("grid initialized")
	return nil
}

// beginCycle advances the generation, tears down the previous cycle's
// registrations, and returns the new token plus a context carrying the
// cycle logger.
func (g *Grid) beginCycle(ctx context.Context) (uint64, context.Context) {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.cycleID = ulid.Make().String()

	disposers := g.disposers
	g.disposers = nil
	active := g.active
	g.active = nil
	stop := g.providerStop
	g.providerStop = nil

	g.cellRenderers = make(map[string]render.CellRenderer)
	g.headerRenderers = make(map[string]render.HeaderRenderer)
	g.toolbar = append([]render.Item(nil), g.opts.HostToolbarItems...)
	g.footer = nil
	g.expanded = make(map[string]struct{})
	g.baseRows = nil
	g.spec = nil
	g.gridModel.Reset()

	cycleLogger := g.logger.With().Str("cycle", g.cycleID).Uint64("generation", gen).Logger()
	g.mu.Unlock()

	// Outgoing provider first: no stale result may land after this point
	// (the generation bump already guarantees discard, stopping is about
	// releasing sockets and timers promptly).
	if stop != nil {
		stop()
	}
	if active != nil {
		active.Stop()
	}
	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
	g.events.Reset()
	g.stylePipe.Reset()
	g.renderer.ResetState()

	return gen, logging.WithContext(ctx, cycleLogger)
}

// startProvider constructs and starts the provider for the data source.
// Exactly one provider is active at a time.
func (g *Grid) startProvider(ctx context.Context, gen uint64, src model.DataSource) error {
	sink := &capabilityAPI{grid: g, gen: gen, ctx: ctx}
	p, err := g.providers.New(src, sink)
	if err != nil {
		return err
	}

	provCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		cancel()
		return nil
	}
	g.active = p
	g.providerStop = cancel
	g.mu.Unlock()

	if err := p.Start(provCtx); err != nil {
		return err
	}
	return nil
}

// Close stops the provider and tears down the current cycle.
func (g *Grid) Close() {
	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()

	g.mu.Lock()
	g.generation++
	disposers := g.disposers
	g.disposers = nil
	active := g.active
	g.active = nil
	stop := g.providerStop
	g.providerStop = nil
	g.mu.Unlock()

	if stop != nil {
		stop()
	}
	if active != nil {
		active.Stop()
	}
	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
	g.events.Reset()
}

// Spec returns the resolved spec for the current cycle, nil before Init.
func (g *Grid) Spec() *model.GridSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spec
}

// Model returns the grid model. Read-only for callers; mutation goes
// through the capability API.
func (g *Grid) Model() *model.GridModel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gridModel
}

// Styles returns the composed style sheet.
func (g *Grid) Styles() style.Sheet {
	return g.stylePipe.Sheet()
}

// Events exposes the bus for the embedding surface (emitting filter/page
// events from input widgets).
func (g *Grid) Events() *bus.Bus {
	return g.events
}

// RequestRender marks the grid dirty and signals the render channel. Calls
// coalesce: any number of requests before the next BuildTree produce one
// notification and one render pass.
func (g *Grid) RequestRender() {
	g.mu.Lock()
	g.renderDirty = true
	g.mu.Unlock()

	select {
	case g.renderNotify <- struct{}{}:
	default:
	}
}

// RenderNotify signals pending renders. Receives coalesce with
// RequestRender calls.
func (g *Grid) RenderNotify() <-chan struct{} {
	return g.renderNotify
}

// RenderPending reports whether a render request is outstanding.
func (g *Grid) RenderPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renderDirty
}

// SetViewport updates the embedding surface dimensions in pixels.
func (g *Grid) SetViewport(widthPx, heightPx int) {
	g.mu.Lock()
	g.viewportW = widthPx
	g.viewportH = heightPx
	renderer := g.renderer
	g.mu.Unlock()
	renderer.SetViewport(widthPx, heightPx)
	g.RequestRender()
}

// HandleScroll feeds a scroll offset to the renderer and schedules a
// render only when the visible window actually moved.
func (g *Grid) HandleScroll(scrollTopPx, scrollLeftPx int) {
	g.mu.Lock()
	renderer := g.renderer
	spec := g.spec
	rows := g.gridModel.Rows
	treeMode := spec != nil && spec.UI.Tree.Enabled
	flatCount := len(render.Flatten(rows, treeMode, g.expanded))
	var cols []model.Column
	if g.gridModel.Columns != nil {
		cols = g.gridModel.Columns
	}
	g.mu.Unlock()

	if renderer.HandleScroll(scrollTopPx, scrollLeftPx, flatCount, cols) {
		g.RequestRender()
	}
}

// ScrollTo assigns the scroll position programmatically, guarded so the
// surface's scroll handler cannot recurse, then schedules a render.
func (g *Grid) ScrollTo(scrollTopPx, scrollLeftPx int, notify func(topPx, leftPx int)) {
	g.mu.Lock()
	renderer := g.renderer
	spec := g.spec
	treeMode := spec != nil && spec.UI.Tree.Enabled
	flatCount := len(render.Flatten(g.gridModel.Rows, treeMode, g.expanded))
	cols := g.gridModel.Columns
	g.mu.Unlock()

	renderer.SetScrollPosition(scrollTopPx, scrollLeftPx, flatCount, cols, notify)
	g.RequestRender()
}

// BuildTree produces the render tree for the current state and clears the
// pending-render flag. The returned tree reflects the final model state
// after all coalesced requests.
func (g *Grid) BuildTree() *render.Tree {
	g.mu.Lock()
	g.renderDirty = false
	in := render.Input{
		Spec:            g.spec,
		Status:          g.gridModel.Status(),
		ErrMsg:          g.gridModel.ErrMsg(),
		Columns:         g.gridModel.Columns,
		Rows:            g.gridModel.Rows,
		Expanded:        copySet(g.expanded),
		CellRenderers:   copyMap(g.cellRenderers),
		HeaderRenderers: copyMap(g.headerRenderers),
		Toolbar:         append([]render.Item(nil), g.toolbar...),
		Footer:          append([]render.Item(nil), g.footer...),
	}
	renderer := g.renderer
	g.mu.Unlock()

	tree := renderer.Build(in)
	g.events.Publish(bus.EventRender, tree)
	return tree
}

// SetExpansion replaces the hierarchical expansion set from the host
// side, mirroring the capability API's setTreeExpansion.
func (g *Grid) SetExpansion(ids []string) {
	g.mu.Lock()
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	g.expanded = next
	g.mu.Unlock()
	g.RequestRender()
}

// ToggleExpansion flips one row id in the expansion set.
func (g *Grid) ToggleExpansion(id string) {
	g.mu.Lock()
	if _, ok := g.expanded[id]; ok {
		delete(g.expanded, id)
	} else {
		g.expanded[id] = struct{}{}
	}
	g.mu.Unlock()
	g.RequestRender()
}

// Expansion returns the expansion set as a sorted id slice.
func (g *Grid) Expansion() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedIDs(g.expanded)
}

// publishStatus publishes the current lifecycle status on the bus.
func (g *Grid) publishStatus() {
	g.mu.Lock()
	status := g.gridModel.Status()
	g.mu.Unlock()
	g.events.Publish(bus.EventStatus, status)
}

// republishBase resets the model rows to the provider-fresh set and
// re-runs the data dispatch so functionality plugins re-derive the
// displayed rows.
func (g *Grid) republishBase(gen uint64) {
	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		return
	}
	g.gridModel.Rows = append([]model.Row(nil), g.baseRows...)
	g.mu.Unlock()
	g.dispatchData()
	g.RequestRender()
}

// dispatchData publishes the data event exactly once per provider payload.
// Mutations performed by plugins reacting to the event (filter, sort,
// paginate) do not republish it.
func (g *Grid) dispatchData() {
	g.mu.Lock()
	if g.inDataDispatch {
		g.mu.Unlock()
		return
	}
	g.inDataDispatch = true
	g.mu.Unlock()

	g.events.Publish(bus.EventData, nil)

	g.mu.Lock()
	g.inDataDispatch = false
	g.mu.Unlock()
}

// statusToReadyLocked routes the model to ready. An error state hops
// through loading so no transition is skipped.
func (g *Grid) statusToReadyLocked() {
	if g.gridModel.Status() == model.StatusError {
		_ = g.gridModel.SetStatus(model.StatusLoading)
	}
	_ = g.gridModel.SetStatus(model.StatusReady)
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
