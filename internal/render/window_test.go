package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/gridcore/internal/model"
)

func makeCols(n int) []model.Column {
	cols := make([]model.Column, n)
	for i := range cols {
		cols[i] = model.Column{Key: fmt.Sprintf("c%d", i), WidthPx: 100}
	}
	return cols
}

func boolPtr(b bool) *bool { return &b }

func TestConfigFromSpec(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := ConfigFromSpec(model.UIOptions{})
		assert.Equal(t, DefaultRowHeightPx, cfg.RowHeightPx)
		assert.Equal(t, DefaultRowThreshold, cfg.RowThreshold)
		assert.Equal(t, DefaultColThreshold, cfg.ColThreshold)
		assert.Nil(t, cfg.Enabled)
	})

	t.Run("spec values win", func(t *testing.T) {
		cfg := ConfigFromSpec(model.UIOptions{Virtualization: &model.VirtualizationOptions{
			Enabled:     boolPtr(true),
			RowHeightPx: 32,
			BufferRows:  10,
		}})
		require.NotNil(t, cfg.Enabled)
		assert.True(t, *cfg.Enabled)
		assert.Equal(t, 32, cfg.RowHeightPx)
		assert.Equal(t, 10, cfg.BufferRows)
		// Unset values keep defaults.
		assert.Equal(t, DefaultRowThreshold, cfg.RowThreshold)
	})
}

func TestActive(t *testing.T) {
	cfg := ConfigFromSpec(model.UIOptions{})

	tests := []struct {
		name string
		rows int
		cols int
		want bool
	}{
		{"small grid", 10, 5, false},
		{"exactly at row threshold", DefaultRowThreshold, 5, false},
		{"past row threshold", DefaultRowThreshold + 1, 5, true},
		{"exactly at col threshold", 10, DefaultColThreshold, false},
		{"past col threshold", 10, DefaultColThreshold + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Active(tt.rows, tt.cols))
		})
	}

	t.Run("explicit enable overrides small counts", func(t *testing.T) {
		on := cfg
		on.Enabled = boolPtr(true)
		assert.True(t, on.Active(3, 2))
	})

	t.Run("explicit disable overrides large counts", func(t *testing.T) {
		off := cfg
		off.Enabled = boolPtr(false)
		assert.False(t, off.Active(10000, 50))
	})
}

func TestComputeInactive(t *testing.T) {
	cfg := ConfigFromSpec(model.UIOptions{})
	w := cfg.Compute(Viewport{WidthPx: 800, HeightPx: 480}, State{}, 50, makeCols(4))

	assert.False(t, w.Active)
	assert.Equal(t, 0, w.RowStart)
	assert.Equal(t, 50, w.RowEnd)
	assert.Equal(t, 4, w.ColEnd)
	assert.Zero(t, w.TopSpacerPx)
	assert.Zero(t, w.BottomSpacerPx)
}

func TestComputeRowWindow(t *testing.T) {
	cfg := ConfigFromSpec(model.UIOptions{})
	const rows = 1000

	t.Run("window size is ceil(viewport/rowHeight) plus buffers", func(t *testing.T) {
		// 481px / 24px = 20.04 -> ceil 21, plus 2*5 buffer rows.
		w := cfg.Compute(Viewport{WidthPx: 800, HeightPx: 481}, State{}, rows, makeCols(4))
		require.True(t, w.Active)
		assert.Equal(t, 21+2*DefaultBufferRows, w.RowEnd-w.RowStart)
	})

	t.Run("spacers cover the skipped extents", func(t *testing.T) {
		w := cfg.Compute(Viewport{WidthPx: 800, HeightPx: 480}, State{RowStart: 100}, rows, makeCols(4))
		assert.Equal(t, 100, w.RowStart)
		assert.Equal(t, 100*DefaultRowHeightPx, w.TopSpacerPx)
		assert.Equal(t, (rows-w.RowEnd)*DefaultRowHeightPx, w.BottomSpacerPx)
	})

	t.Run("window clamps at the end", func(t *testing.T) {
		w := cfg.Compute(Viewport{WidthPx: 800, HeightPx: 480}, State{RowStart: rows + 50}, rows, makeCols(4))
		assert.Equal(t, rows-1, w.RowStart)
		assert.Equal(t, rows, w.RowEnd)
		assert.Zero(t, w.BottomSpacerPx)
	})

	t.Run("zero rows and cols yield an empty window", func(t *testing.T) {
		on := cfg
		on.Enabled = boolPtr(true)
		w := on.Compute(Viewport{WidthPx: 800, HeightPx: 480}, State{}, 0, nil)
		assert.True(t, w.Active)
		assert.Zero(t, w.RowEnd)
		assert.Zero(t, w.TopSpacerPx)
		assert.Zero(t, w.BottomSpacerPx)
	})
}

func TestComputeColWindow(t *testing.T) {
	cfg := ConfigFromSpec(model.UIOptions{})
	cols := makeCols(40) // 40 * 100px, past the col threshold

	t.Run("accumulates widths to the viewport budget", func(t *testing.T) {
		w := cfg.Compute(Viewport{WidthPx: 500, HeightPx: 480}, State{}, 10, cols)
		require.True(t, w.Active)
		// Budget 500 + 2*120 = 740px -> 8 columns at 100px each.
		assert.Equal(t, 0, w.ColStart)
		assert.Equal(t, 8, w.ColEnd)
		assert.Zero(t, w.LeadSpacerPx)
		assert.Equal(t, (40-8)*100, w.TrailSpacerPx)
	})

	t.Run("lead spacer matches skipped column widths", func(t *testing.T) {
		w := cfg.Compute(Viewport{WidthPx: 500, HeightPx: 480}, State{ColStart: 10}, 10, cols)
		assert.Equal(t, 10, w.ColStart)
		assert.Equal(t, 1000, w.LeadSpacerPx)
	})

	t.Run("at least one column is always visible", func(t *testing.T) {
		tiny := cfg
		tiny.Enabled = boolPtr(true)
		w := tiny.Compute(Viewport{WidthPx: 0, HeightPx: 480}, State{}, 10, cols)
		assert.GreaterOrEqual(t, w.ColEnd-w.ColStart, 1)
	})

	t.Run("columns without widths use the default", func(t *testing.T) {
		bare := []model.Column{{Key: "a"}}
		assert.Equal(t, DefaultColWidthPx, colWidth(bare[0]))
	})
}

func TestRowStartForScroll(t *testing.T) {
	cfg := ConfigFromSpec(model.UIOptions{})

	assert.Equal(t, 0, cfg.RowStartForScroll(0, 100))
	assert.Equal(t, 0, cfg.RowStartForScroll(23, 100))
	assert.Equal(t, 1, cfg.RowStartForScroll(24, 100))
	assert.Equal(t, 41, cfg.RowStartForScroll(1000, 100))
	assert.Equal(t, 99, cfg.RowStartForScroll(1<<20, 100)) // clamped
	assert.Equal(t, 0, cfg.RowStartForScroll(-5, 100))
	assert.Equal(t, 0, cfg.RowStartForScroll(500, 0))
}

func TestColStartForScroll(t *testing.T) {
	cols := []model.Column{
		{Key: "a", WidthPx: 100},
		{Key: "b", WidthPx: 200},
		{Key: "c", WidthPx: 50},
	}

	assert.Equal(t, 0, ColStartForScroll(0, cols))
	assert.Equal(t, 0, ColStartForScroll(99, cols))
	assert.Equal(t, 1, ColStartForScroll(100, cols))
	assert.Equal(t, 1, ColStartForScroll(299, cols))
	assert.Equal(t, 2, ColStartForScroll(300, cols))
	assert.Equal(t, 2, ColStartForScroll(9999, cols)) // clamped to last
	assert.Equal(t, 0, ColStartForScroll(10, nil))
}

func TestFlatten(t *testing.T) {
	rows := []model.Row{
		{ID: "p1", Children: []model.Row{
			{ID: "c1"},
			{ID: "c2", Children: []model.Row{{ID: "g1"}}},
		}},
		{ID: "p2"},
	}

	t.Run("tree disabled is the identity flatten", func(t *testing.T) {
		flat := Flatten(rows, false, nil)
		require.Len(t, flat, 2)
		assert.Equal(t, 0, flat[0].Depth)
		assert.False(t, flat[0].HasChildren)
	})

	t.Run("collapsed parents hide children", func(t *testing.T) {
		flat := Flatten(rows, true, map[string]struct{}{})
		require.Len(t, flat, 2)
		assert.True(t, flat[0].HasChildren)
		assert.False(t, flat[0].Expanded)
	})

	t.Run("expansion is per row id and depth-first", func(t *testing.T) {
		expanded := map[string]struct{}{"p1": {}, "c2": {}}
		flat := Flatten(rows, true, expanded)

		ids := make([]string, len(flat))
		depths := make([]int, len(flat))
		for i, fr := range flat {
			ids[i] = fr.Row.ID
			depths[i] = fr.Depth
		}
		assert.Equal(t, []string{"p1", "c1", "c2", "g1", "p2"}, ids)
		assert.Equal(t, []int{0, 1, 1, 2, 0}, depths)
	})

	t.Run("expanding a leaf is a no-op", func(t *testing.T) {
		flat := Flatten(rows, true, map[string]struct{}{"p2": {}})
		require.Len(t, flat, 2)
		assert.False(t, flat[1].Expanded)
	})
}
