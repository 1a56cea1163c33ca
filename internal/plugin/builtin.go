package plugin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tablekit/gridcore/internal/bus"
	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
)

// BuiltinPresentationID identifies the always-present presentation plugin.
const BuiltinPresentationID = "core.presentation"

// Built-in functionality plugin names and the events they listen on.
const (
	SortPluginName     = "sort"
	FilterPluginName   = "filter"
	PaginatePluginName = "paginate"

	EventSortSet   = "sort:set"   // detail: model.SortSpec
	EventFilterSet = "filter:set" // detail: string (substring term)
	EventPageNext  = "page:next"
	EventPagePrev  = "page:prev"
	EventRefresh   = "refresh" // ask the core to republish source rows
)

// defaultPageSize is used when the paginate plugin is enabled without an
// explicit pageSize option.
const defaultPageSize = 50

//nolint:gochecknoglobals // Guards one-time registration of built-in factories.
var builtinOnce sync.Once

// RegisterBuiltins adds the built-in functionality plugins to the factory
// registry. Safe to call repeatedly; registration happens once.
func RegisterBuiltins() {
	builtinOnce.Do(func() {
		MustRegister(SortPluginName, "1.0.0",
			Meta{ID: SortPluginName, Nature: model.NatureFunctionality, Priority: 100}, sortFactory)
		MustRegister(FilterPluginName, "1.0.0",
			Meta{ID: FilterPluginName, Nature: model.NatureFunctionality, Priority: 110}, filterFactory)
		MustRegister(PaginatePluginName, "1.0.0",
			Meta{ID: PaginatePluginName, Nature: model.NatureFunctionality, Priority: 120}, paginateFactory)
	})
}

// presentationFactory is the built-in presentation plugin. It contributes
// the zebra stripe fragment when the spec asks for it and a status line in
// the footer. It runs first so any other fragment can override it.
func presentationFactory(api API, _ map[string]any) (Disposer, error) {
	spec := api.GetConfig()

	var disposeStyles func()
	if spec != nil && spec.UI.Zebra {
		disposeStyles = api.AddStyles(style.Fragment{
			ID:       BuiltinPresentationID,
			Priority: basePresentationPriority,
			Styles: style.Sheet{
				style.SlotRowAlt: lipgloss.NewStyle().Background(lipgloss.Color("236")),
			},
		})
	}

	api.AddFooterItem(render.NewFuncItem("core.status", func() string {
		return fmt.Sprintf("%s · %d rows", api.Status(), len(api.Rows()))
	}))

	return func() {
		if disposeStyles != nil {
			disposeStyles()
		}
	}, nil
}

// sortFactory orders rows by the model's sort list on every data event.
// A sort:set event replaces the sort list, toggling direction when the
// same key is set twice.
func sortFactory(api API, _ map[string]any) (Disposer, error) {
	apply := func() {
		specs := api.Sort()
		rows := api.Rows()
		if len(specs) == 0 || len(rows) == 0 {
			return
		}
		sortRows(rows, specs)
		api.SetRows(rows)
	}

	offData := api.On(bus.EventData, func(any) { apply() })
	offSet := api.On(EventSortSet, func(detail any) {
		spec, ok := detail.(model.SortSpec)
		if !ok {
			return
		}
		current := api.Sort()
		if len(current) == 1 && current[0].Key == spec.Key {
			spec.Desc = !current[0].Desc
		}
		api.SetSort([]model.SortSpec{spec})
		api.Emit(EventRefresh, nil)
	})

	return func() {
		offData()
		offSet()
	}, nil
}

// sortRows stable-sorts rows by the sort specs in sequence, comparing
// numerically when both values parse as numbers.
func sortRows(rows []model.Row, specs []model.SortSpec) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range specs {
			cmp := compareCells(rows[i].Cells[s.Key], rows[j].Cells[s.Key])
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareCells(a, b any) int {
	as := model.FormatCell(a)
	bs := model.FormatCell(b)
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
}

// filterFactory drops rows not matching the model's filter list and the
// interactive substring term, and shows the active term in the toolbar.
func filterFactory(api API, _ map[string]any) (Disposer, error) {
	// Bus handlers run on the publishing goroutine, so the interactive term
	// is read and written from more than one of them.
	var mu sync.Mutex
	term := ""

	currentTerm := func() string {
		mu.Lock()
		defer mu.Unlock()
		return term
	}

	apply := func() {
		filters := api.Filters()
		t := currentTerm()
		if len(filters) == 0 && t == "" {
			return
		}
		rows := api.Rows()
		kept := make([]model.Row, 0, len(rows))
		for _, row := range rows {
			if matchesFilters(row, filters) && matchesTerm(row, t) {
				kept = append(kept, row)
			}
		}
		api.SetRows(kept)
	}

	api.AddToolbarItem(render.NewFuncItem("filter.summary", func() string {
		t := currentTerm()
		if t == "" {
			return ""
		}
		return fmt.Sprintf("filter: %q", t)
	}))

	offData := api.On(bus.EventData, func(any) { apply() })
	offSet := api.On(EventFilterSet, func(detail any) {
		next, ok := detail.(string)
		if !ok {
			return
		}
		mu.Lock()
		term = next
		mu.Unlock()
		api.Emit(EventRefresh, nil)
	})

	return func() {
		offData()
		offSet()
	}, nil
}

func matchesFilters(row model.Row, filters []model.FilterSpec) bool {
	for _, f := range filters {
		value := strings.ToLower(model.FormatCell(row.Cells[f.Key]))
		want := strings.ToLower(f.Value)
		switch f.Op {
		case "", "contains":
			if !strings.Contains(value, want) {
				return false
			}
		case "equals":
			if value != want {
				return false
			}
		case "prefix":
			if !strings.HasPrefix(value, want) {
				return false
			}
		default:
			// Unknown operators never match anything: surfacing bad
			// filters beats silently showing unfiltered data.
			return false
		}
	}
	return true
}

func matchesTerm(row model.Row, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, v := range row.Cells {
		if strings.Contains(strings.ToLower(model.FormatCell(v)), needle) {
			return true
		}
	}
	return false
}

// paginateFactory slices the row set to the current page and adds a pager
// to the footer. page:next / page:prev move between pages.
func paginateFactory(api API, options map[string]any) (Disposer, error) {
	pageSize := defaultPageSize
	if raw, ok := options["pageSize"]; ok {
		if n, ok := toInt(raw); ok && n > 0 {
			pageSize = n
		}
	}

	// Page state is shared between the data handler, the navigation
	// handlers, and the footer item, each on its publisher's goroutine.
	var mu sync.Mutex
	page := 0
	total := 0

	apply := func() {
		rows := api.Rows()
		mu.Lock()
		total = len(rows)
		pages := pageCount(total, pageSize)
		if page >= pages {
			page = pages - 1
		}
		if page < 0 {
			page = 0
		}
		start := page * pageSize
		end := start + pageSize
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		mu.Unlock()
		api.SetRows(rows[start:end])
	}

	api.AddFooterItem(render.NewFuncItem("paginate.pager", func() string {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Sprintf("page %d/%d (%d rows)", page+1, pageCount(total, pageSize), total)
	}))

	offData := api.On(bus.EventData, func(any) { apply() })
	offNext := api.On(EventPageNext, func(any) {
		mu.Lock()
		ok := page+1 < pageCount(total, pageSize)
		if ok {
			page++
		}
		mu.Unlock()
		if ok {
			api.Emit(EventRefresh, nil)
		}
	})
	offPrev := api.On(EventPagePrev, func(any) {
		mu.Lock()
		ok := page > 0
		if ok {
			page--
		}
		mu.Unlock()
		if ok {
			api.Emit(EventRefresh, nil)
		}
	})

	return func() {
		offData()
		offNext()
		offPrev()
	}, nil
}

func pageCount(total, pageSize int) int {
	if total == 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
