package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/gridcore/internal/bus"
	"github.com/tablekit/gridcore/internal/model"
)

// wireRefresh emulates the grid core's refresh loop: a refresh event resets
// the model rows to the base set and republishes data.
func wireRefresh(api *fakeAPI, base []model.Row) {
	api.bus.Subscribe(EventRefresh, func(any) {
		api.m.SetRows(append([]model.Row(nil), base...))
		api.bus.Publish(bus.EventData, nil)
	})
}

func publishData(api *fakeAPI, rows []model.Row) {
	api.m.SetRows(append([]model.Row(nil), rows...))
	api.bus.Publish(bus.EventData, nil)
}

func rowIDs(rows []model.Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func namedRows() []model.Row {
	return []model.Row{
		{ID: "r1", Cells: map[string]any{"name": "charlie", "age": float64(30)}},
		{ID: "r2", Cells: map[string]any{"name": "alice", "age": float64(9)}},
		{ID: "r3", Cells: map[string]any{"name": "bob", "age": float64(100)}},
	}
}

func TestPresentationPlugin(t *testing.T) {
	t.Run("zebra adds a base fragment", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g", UI: model.UIOptions{Zebra: true}})
		_, err := presentationFactory(api, nil)
		require.NoError(t, err)

		require.Len(t, api.styles, 1)
		assert.Equal(t, BuiltinPresentationID, api.styles[0].ID)
		assert.Equal(t, basePresentationPriority, api.styles[0].Priority)
	})

	t.Run("no zebra, no fragment", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := presentationFactory(api, nil)
		require.NoError(t, err)
		assert.Empty(t, api.styles)
	})

	t.Run("status footer item", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := presentationFactory(api, nil)
		require.NoError(t, err)

		require.Len(t, api.footer, 1)
		assert.Equal(t, "core.status", api.footer[0].ID())
		assert.Contains(t, api.footer[0].View(), "0 rows")
	})
}

func TestSortPlugin(t *testing.T) {
	t.Run("sorts on data by the model sort list", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := sortFactory(api, nil)
		require.NoError(t, err)

		api.m.Sort = []model.SortSpec{{Key: "name"}}
		publishData(api, namedRows())

		assert.Equal(t, []string{"r2", "r3", "r1"}, rowIDs(api.m.Rows))
	})

	t.Run("numeric values compare numerically", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := sortFactory(api, nil)
		require.NoError(t, err)

		api.m.Sort = []model.SortSpec{{Key: "age"}}
		publishData(api, namedRows())

		// 9 < 30 < 100; lexicographic order would put "100" first.
		assert.Equal(t, []string{"r2", "r1", "r3"}, rowIDs(api.m.Rows))
	})

	t.Run("sort:set toggles direction on repeat", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		base := namedRows()
		wireRefresh(api, base)

		_, err := sortFactory(api, nil)
		require.NoError(t, err)
		publishData(api, base)

		api.bus.Publish(EventSortSet, model.SortSpec{Key: "name"})
		assert.Equal(t, []string{"r2", "r3", "r1"}, rowIDs(api.m.Rows))

		api.bus.Publish(EventSortSet, model.SortSpec{Key: "name"})
		assert.Equal(t, []string{"r1", "r3", "r2"}, rowIDs(api.m.Rows))

		// The sort list is replaced through the capability mutator, never by
		// writing the model directly.
		assert.Equal(t, 2, api.sortSets)
		require.Len(t, api.m.Sort, 1)
		assert.True(t, api.m.Sort[0].Desc)
	})
}

func TestFilterPlugin(t *testing.T) {
	t.Run("declared filters apply on data", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := filterFactory(api, nil)
		require.NoError(t, err)

		api.m.Filters = []model.FilterSpec{{Key: "name", Op: "prefix", Value: "b"}}
		publishData(api, namedRows())

		assert.Equal(t, []string{"r3"}, rowIDs(api.m.Rows))
	})

	t.Run("interactive term filters any cell", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		base := namedRows()
		wireRefresh(api, base)

		_, err := filterFactory(api, nil)
		require.NoError(t, err)
		publishData(api, base)

		api.bus.Publish(EventFilterSet, "ALICE")
		assert.Equal(t, []string{"r2"}, rowIDs(api.m.Rows))

		// Clearing the term restores the full set.
		api.bus.Publish(EventFilterSet, "")
		assert.Len(t, api.m.Rows, 3)
	})

	t.Run("unknown operator matches nothing", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := filterFactory(api, nil)
		require.NoError(t, err)

		api.m.Filters = []model.FilterSpec{{Key: "name", Op: "regex", Value: ".*"}}
		publishData(api, namedRows())

		assert.Empty(t, api.m.Rows)
	})

	t.Run("toolbar summary reflects the term", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		wireRefresh(api, namedRows())

		_, err := filterFactory(api, nil)
		require.NoError(t, err)

		require.Len(t, api.toolbar, 1)
		assert.Empty(t, api.toolbar[0].View())

		api.bus.Publish(EventFilterSet, "bob")
		assert.Contains(t, api.toolbar[0].View(), `"bob"`)
	})
}

func TestPaginatePlugin(t *testing.T) {
	manyRows := func(n int) []model.Row {
		rows := make([]model.Row, n)
		for i := range rows {
			rows[i] = model.Row{ID: string(rune('a' + i)), Cells: map[string]any{"i": i}}
		}
		return rows
	}

	t.Run("slices to the page size", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := paginateFactory(api, map[string]any{"pageSize": 2})
		require.NoError(t, err)

		publishData(api, manyRows(5))
		assert.Len(t, api.m.Rows, 2)
	})

	t.Run("page navigation", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		base := manyRows(5)
		wireRefresh(api, base)

		_, err := paginateFactory(api, map[string]any{"pageSize": 2})
		require.NoError(t, err)
		publishData(api, base)

		api.bus.Publish(EventPageNext, nil)
		assert.Equal(t, []string{"c", "d"}, rowIDs(api.m.Rows))

		api.bus.Publish(EventPageNext, nil)
		assert.Equal(t, []string{"e"}, rowIDs(api.m.Rows))

		// Already on the last page: no refresh, rows unchanged.
		api.bus.Publish(EventPageNext, nil)
		assert.Equal(t, []string{"e"}, rowIDs(api.m.Rows))

		api.bus.Publish(EventPagePrev, nil)
		assert.Equal(t, []string{"c", "d"}, rowIDs(api.m.Rows))
	})

	t.Run("pager footer item", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := paginateFactory(api, map[string]any{"pageSize": 2})
		require.NoError(t, err)

		publishData(api, manyRows(5))
		require.Len(t, api.footer, 1)
		assert.Equal(t, "page 1/3 (5 rows)", api.footer[0].View())
	})

	t.Run("invalid page size falls back to the default", func(t *testing.T) {
		api := newFakeAPI(&model.GridSpec{ID: "g"})
		_, err := paginateFactory(api, map[string]any{"pageSize": "not-a-number"})
		require.NoError(t, err)

		publishData(api, manyRows(5))
		assert.Len(t, api.m.Rows, 5)
	})
}

func TestCompareCells(t *testing.T) {
	assert.Negative(t, compareCells(float64(9), float64(30)))
	assert.Positive(t, compareCells(float64(100), float64(30)))
	assert.Zero(t, compareCells("same", "SAME"))
	assert.Negative(t, compareCells("alpha", "beta"))
}
