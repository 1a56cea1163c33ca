package render

import "github.com/tablekit/gridcore/internal/model"

// Windowing defaults. The row/column thresholds gate automatic
// virtualization; the buffers add slack rows/columns around the viewport
// for smooth scrolling.
const (
	DefaultRowHeightPx  = 24
	DefaultRowThreshold = 200
	DefaultColThreshold = 16
	DefaultBufferRows   = 5
	DefaultBufferCols   = 2
	DefaultColWidthPx   = 120
)

// Config holds the effective virtualization settings for one grid.
type Config struct {
	Enabled      *bool // explicit override; nil means auto
	RowHeightPx  int
	RowThreshold int
	ColThreshold int
	BufferRows   int
	BufferCols   int
}

// ConfigFromSpec derives a windowing config from the spec's UI options,
// filling defaults and clamping degenerate values.
func ConfigFromSpec(ui model.UIOptions) Config {
	cfg := Config{
		RowHeightPx:  DefaultRowHeightPx,
		RowThreshold: DefaultRowThreshold,
		ColThreshold: DefaultColThreshold,
		BufferRows:   DefaultBufferRows,
		BufferCols:   DefaultBufferCols,
	}
	v := ui.Virtualization
	if v == nil {
		return cfg
	}
	cfg.Enabled = v.Enabled
	if v.RowHeightPx > 0 {
		cfg.RowHeightPx = v.RowHeightPx
	}
	if v.RowThreshold > 0 {
		cfg.RowThreshold = v.RowThreshold
	}
	if v.ColThreshold > 0 {
		cfg.ColThreshold = v.ColThreshold
	}
	if v.BufferRows > 0 {
		cfg.BufferRows = v.BufferRows
	}
	if v.BufferCols > 0 {
		cfg.BufferCols = v.BufferCols
	}
	return cfg
}

// Active reports whether virtualization applies for the given flattened
// row count and column count. An explicit Enabled wins; otherwise it
// auto-activates past either threshold.
func (c Config) Active(rowCount, colCount int) bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return rowCount > c.RowThreshold || colCount > c.ColThreshold
}

// Viewport is the visible area and scroll position of the embedding
// surface, in pixels.
type Viewport struct {
	WidthPx      int
	HeightPx     int
	ScrollTopPx  int
	ScrollLeftPx int
}

// State is the transient virtualization state: the first row and column of
// the current window. Always clamped to a valid range.
type State struct {
	RowStart int
	ColStart int
}

// Window is the computed visible slice plus the spacer extents that stand
// in for skipped content.
type Window struct {
	Active bool

	RowStart, RowEnd int // slice bounds, end exclusive
	ColStart, ColEnd int

	TopSpacerPx    int
	BottomSpacerPx int
	LeadSpacerPx   int
	TrailSpacerPx  int
}

// clampMin1 clamps non-positive dimensions to 1 so degenerate configs
// cannot divide by zero or produce empty windows.
func clampMin1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Compute derives the window for the current state. With virtualization
// inactive the window spans everything and carries no spacers. Zero rows
// or columns yield an empty window with no spacers.
func (c Config) Compute(vp Viewport, state State, rowCount int, cols []model.Column) Window {
	w := Window{Active: c.Active(rowCount, len(cols))}

	if !w.Active {
		w.RowEnd = rowCount
		w.ColEnd = len(cols)
		return w
	}
	if rowCount == 0 && len(cols) == 0 {
		return w
	}

	c.computeRowWindow(&w, vp, state, rowCount)
	c.computeColWindow(&w, vp, state, cols)
	return w
}

func (c Config) computeRowWindow(w *Window, vp Viewport, state State, rowCount int) {
	if rowCount == 0 {
		return
	}

	rowHeight := clampMin1(c.RowHeightPx)
	viewportH := clampMin1(vp.HeightPx)

	// ceil division plus buffer rows on both sides.
	visible := (viewportH+rowHeight-1)/rowHeight + 2*c.BufferRows

	start := state.RowStart
	if start > rowCount-1 {
		start = rowCount - 1
	}
	if start < 0 {
		start = 0
	}

	end := start + visible
	if end > rowCount {
		end = rowCount
	}

	w.RowStart = start
	w.RowEnd = end
	w.TopSpacerPx = start * rowHeight
	w.BottomSpacerPx = (rowCount - end) * rowHeight
}

func (c Config) computeColWindow(w *Window, vp Viewport, state State, cols []model.Column) {
	if len(cols) == 0 {
		return
	}

	viewportW := clampMin1(vp.WidthPx)
	budget := viewportW + c.BufferCols*DefaultColWidthPx

	start := state.ColStart
	if start > len(cols)-1 {
		start = len(cols) - 1
	}
	if start < 0 {
		start = 0
	}

	end := start
	accumulated := 0
	for end < len(cols) && accumulated < budget {
		accumulated += colWidth(cols[end])
		end++
	}
	// Degenerate widths must still yield at least one visible column.
	if end == start {
		end = start + 1
	}

	w.ColStart = start
	w.ColEnd = end
	for i := 0; i < start; i++ {
		w.LeadSpacerPx += colWidth(cols[i])
	}
	for i := end; i < len(cols); i++ {
		w.TrailSpacerPx += colWidth(cols[i])
	}
}

func colWidth(c model.Column) int {
	if c.WidthPx > 0 {
		return c.WidthPx
	}
	return DefaultColWidthPx
}

// RowStartForScroll maps a vertical scroll offset to a window start row.
func (c Config) RowStartForScroll(scrollTopPx, rowCount int) int {
	if rowCount == 0 {
		return 0
	}
	rowHeight := clampMin1(c.RowHeightPx)
	start := scrollTopPx / rowHeight
	if start < 0 {
		start = 0
	}
	if start > rowCount-1 {
		start = rowCount - 1
	}
	return start
}

// ColStartForScroll maps a horizontal scroll offset to a window start
// column by searching the cumulative column offsets.
func ColStartForScroll(scrollLeftPx int, cols []model.Column) int {
	if len(cols) == 0 {
		return 0
	}
	if scrollLeftPx <= 0 {
		return 0
	}
	offset := 0
	for i, c := range cols {
		next := offset + colWidth(c)
		if scrollLeftPx < next {
			return i
		}
		offset = next
	}
	return len(cols) - 1
}
