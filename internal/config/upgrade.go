package config

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/tablekit/gridcore/internal/model"
)

// rowIDAttr is the attribute consulted for a stable row id before one is
// synthesized from the grid id and row index.
const rowIDAttr = "data-row-id"

// UpgradeTable converts a legacy HTML table fragment into a GridSpec with a
// static data source: one column per header cell, one row per body row,
// cell values taken as trimmed text.
func UpgradeTable(gridID string, fragment []byte) (*model.GridSpec, error) {
	root, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parsing table fragment: %w", err)
	}

	table := findElement(root, "table")
	if table == nil {
		return nil, fmt.Errorf("fragment contains no table element")
	}

	if gridID == "" {
		gridID = attrValue(table, "id")
	}

	headerCells, bodyRows := splitTableRows(table)

	columns := make([]model.Column, len(headerCells))
	for i, cell := range headerCells {
		title := strings.TrimSpace(textContent(cell))
		if title == "" {
			title = fmt.Sprintf("Col %d", i+1)
		}
		columns[i] = model.Column{
			Key:   fmt.Sprintf("col%d", i+1),
			Title: title,
		}
	}

	rows := make([]model.Row, 0, len(bodyRows))
	for i, tr := range bodyRows {
		id := attrValue(tr, rowIDAttr)
		if id == "" {
			id = fmt.Sprintf("%s__r%d", gridID, i+1)
		}
		cells := make(map[string]any)
		for j, td := range childElements(tr, "td", "th") {
			if j >= len(columns) {
				break
			}
			cells[columns[j].Key] = strings.TrimSpace(textContent(td))
		}
		rows = append(rows, model.Row{ID: id, Cells: cells})
	}

	return &model.GridSpec{
		ID:      gridID,
		Columns: columns,
		Data: model.DataSource{
			Kind:     "static",
			Snapshot: &model.Snapshot{Rows: rows},
		},
	}, nil
}

// splitTableRows returns the header cells and the body row elements of a
// table. Headers come from the first row containing th cells (thead or
// otherwise); every other row with cells is a body row.
func splitTableRows(table *html.Node) (headerCells, bodyRows []*html.Node) {
	var trs []*html.Node
	walk(table, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			trs = append(trs, n)
		}
	})

	for _, tr := range trs {
		ths := childElements(tr, "th")
		if headerCells == nil && len(ths) > 0 {
			headerCells = ths
			continue
		}
		if len(childElements(tr, "td", "th")) > 0 {
			bodyRows = append(bodyRows, tr)
		}
	}

	// Tables without a th row: promote the first row to headers.
	if headerCells == nil && len(bodyRows) > 0 {
		headerCells = childElements(bodyRows[0], "td", "th")
		bodyRows = bodyRows[1:]
	}
	return headerCells, bodyRows
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node, names ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		for _, name := range names {
			if c.Data == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
