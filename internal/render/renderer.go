package render

import (
	"sync"

	"github.com/tablekit/gridcore/internal/model"
)

// CellRenderer overrides how one column's cells are rendered. It receives
// the full row and the raw cell value and returns display text.
type CellRenderer func(row model.Row, value any) string

// HeaderRenderer overrides how one column's header is rendered.
type HeaderRenderer func(col model.Column) string

// HeaderCell is one rendered header cell.
type HeaderCell struct {
	Key     string
	Text    string
	Align   model.Align
	WidthPx int
}

// BodyCell is one rendered body cell.
type BodyCell struct {
	Key     string
	Text    string
	Align   model.Align
	WidthPx int
}

// BodyRow is one rendered row of the visible window.
type BodyRow struct {
	ID          string
	Index       int // absolute index in the flattened row set
	Depth       int
	HasChildren bool
	Expanded    bool
	Alt         bool // zebra stripe row
	Cells       []BodyCell
}

// Tree is the render output handed to the embedding surface. When Banner
// is non-empty the table is absent: error status renders the banner alone.
type Tree struct {
	GridID string
	Title  string
	Status model.Status
	Banner string

	Header  []HeaderCell
	Rows    []BodyRow
	Window  Window
	Toolbar []Item
	Footer  []Item

	// Focus is the captured focus state to restore on the next paint
	// opportunity, nil when nothing held focus before the rebuild.
	Focus *FocusState
}

// Input carries everything a build pass reads. The grid core assembles it
// under its lock so the renderer sees a consistent model.
type Input struct {
	Spec     *model.GridSpec
	Status   model.Status
	ErrMsg   string
	Columns  []model.Column
	Rows     []model.Row
	Expanded map[string]struct{}

	CellRenderers   map[string]CellRenderer
	HeaderRenderers map[string]HeaderRenderer
	Toolbar         []Item
	Footer          []Item
}

// Renderer computes visible windows and builds render trees. It owns the
// transient virtualization state (window starts) and the scroll guard.
type Renderer struct {
	mu       sync.Mutex
	cfg      Config
	viewport Viewport
	state    State

	// syncing guards programmatic scroll assignment so it cannot
	// recursively re-trigger the scroll handler.
	syncing bool
}

// New creates a renderer with the given windowing config.
func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Config returns the effective windowing configuration.
func (r *Renderer) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// SetViewport updates the viewport dimensions, clamping non-positive
// values to 1.
func (r *Renderer) SetViewport(widthPx, heightPx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport.WidthPx = clampMin1(widthPx)
	r.viewport.HeightPx = clampMin1(heightPx)
}

// State returns the current window starts.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// HandleScroll recomputes the window starts from a scroll offset and
// reports whether the window actually moved; callers re-render only on
// true. Events raised while a programmatic scroll assignment is in
// progress are ignored.
func (r *Renderer) HandleScroll(scrollTopPx, scrollLeftPx, rowCount int, cols []model.Column) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.syncing {
		return false
	}

	r.viewport.ScrollTopPx = scrollTopPx
	r.viewport.ScrollLeftPx = scrollLeftPx

	next := State{
		RowStart: r.cfg.RowStartForScroll(scrollTopPx, rowCount),
		ColStart: ColStartForScroll(scrollLeftPx, cols),
	}
	if next == r.state {
		return false
	}
	r.state = next
	return true
}

// SetScrollPosition assigns the scroll position programmatically. The
// guard stays up for the duration of the assignment so a scroll handler
// fired by the surface cannot recurse into another assignment.
func (r *Renderer) SetScrollPosition(scrollTopPx, scrollLeftPx, rowCount int, cols []model.Column, notify func(topPx, leftPx int)) {
	r.mu.Lock()
	r.syncing = true
	r.viewport.ScrollTopPx = scrollTopPx
	r.viewport.ScrollLeftPx = scrollLeftPx
	r.state = State{
		RowStart: r.cfg.RowStartForScroll(scrollTopPx, rowCount),
		ColStart: ColStartForScroll(scrollLeftPx, cols),
	}
	r.mu.Unlock()

	if notify != nil {
		notify(scrollTopPx, scrollLeftPx)
	}

	r.mu.Lock()
	r.syncing = false
	r.mu.Unlock()
}

// ResetState clears the window starts and scroll offsets. Used on
// reinitialization.
func (r *Renderer) ResetState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{}
	r.viewport.ScrollTopPx = 0
	r.viewport.ScrollLeftPx = 0
}

// Build produces the render tree for the current model state. Focus is
// captured from the toolbar/footer items before the tree is assembled so
// the surface can restore it after painting.
func (r *Renderer) Build(in Input) *Tree {
	r.mu.Lock()
	cfg := r.cfg
	vp := r.viewport
	state := r.state
	r.mu.Unlock()

	tree := &Tree{
		Status: in.Status,
		Focus:  CaptureFocus(in.Toolbar, in.Footer),
	}
	if in.Spec != nil {
		tree.GridID = in.Spec.ID
		tree.Title = in.Spec.Title
	}

	// Error status halts table rendering: only the banner is emitted.
	if in.Status == model.StatusError {
		tree.Banner = in.ErrMsg
		return tree
	}

	tree.Toolbar = in.Toolbar
	tree.Footer = in.Footer

	treeMode := in.Spec != nil && in.Spec.UI.Tree.Enabled
	flat := Flatten(in.Rows, treeMode, in.Expanded)

	window := cfg.Compute(vp, state, len(flat), in.Columns)
	tree.Window = window

	zebra := in.Spec != nil && in.Spec.UI.Zebra

	visibleCols := in.Columns[window.ColStart:window.ColEnd]
	tree.Header = make([]HeaderCell, len(visibleCols))
	for i, col := range visibleCols {
		text := col.Title
		if hr, ok := in.HeaderRenderers[col.Key]; ok && hr != nil {
			text = hr(col)
		}
		tree.Header[i] = HeaderCell{
			Key:     col.Key,
			Text:    text,
			Align:   col.Align,
			WidthPx: colWidth(col),
		}
	}

	tree.Rows = make([]BodyRow, 0, window.RowEnd-window.RowStart)
	for idx := window.RowStart; idx < window.RowEnd; idx++ {
		fr := flat[idx]
		row := BodyRow{
			ID:          fr.Row.ID,
			Index:       idx,
			Depth:       fr.Depth,
			HasChildren: fr.HasChildren,
			Expanded:    fr.Expanded,
			Alt:         zebra && idx%2 == 1,
			Cells:       make([]BodyCell, len(visibleCols)),
		}
		for i, col := range visibleCols {
			value := fr.Row.Cells[col.Key]
			text := model.FormatCell(value)
			if cr, ok := in.CellRenderers[col.Key]; ok && cr != nil {
				text = cr(fr.Row, value)
			}
			row.Cells[i] = BodyCell{
				Key:     col.Key,
				Text:    text,
				Align:   col.Align,
				WidthPx: colWidth(col),
			}
		}
		tree.Rows = append(tree.Rows, row)
	}

	return tree
}
