// Package render computes the visible window over a (possibly
// hierarchical) row set and produces the render tree consumed by the
// embedding surface.
package render

import "github.com/tablekit/gridcore/internal/model"

// FlatRow is one visible row after hierarchy flattening.
type FlatRow struct {
	Row         model.Row
	Depth       int
	HasChildren bool
	Expanded    bool
}

// Flatten linearizes rows depth-first. With tree mode off it is the
// identity flatten at depth 0; with tree mode on, children are included
// only while their parent's id is in the expansion set.
func Flatten(rows []model.Row, treeEnabled bool, expanded map[string]struct{}) []FlatRow {
	out := make([]FlatRow, 0, len(rows))
	if !treeEnabled {
		for _, r := range rows {
			out = append(out, FlatRow{Row: r})
		}
		return out
	}
	return flattenInto(out, rows, 0, expanded)
}

func flattenInto(out []FlatRow, rows []model.Row, depth int, expanded map[string]struct{}) []FlatRow {
	for _, r := range rows {
		_, open := expanded[r.ID]
		out = append(out, FlatRow{
			Row:         r,
			Depth:       depth,
			HasChildren: len(r.Children) > 0,
			Expanded:    open && len(r.Children) > 0,
		})
		if open && len(r.Children) > 0 {
			out = flattenInto(out, r.Children, depth+1, expanded)
		}
	}
	return out
}
