package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
)

// Tree row glyphs.
const (
	glyphCollapsed = "▸ "
	glyphExpanded  = "▾ "
	glyphLeaf      = "  "
)

// View paints the last built render tree with the composed style sheet.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.tree == nil {
		return m.spin.View() + " resolving grid configuration"
	}
	return paintTree(m.tree, m.grid.Styles(), m.spin.View())
}

// paintTree renders a full tree to terminal lines. Error status paints the
// banner alone; loading shows the spinner above whatever rows exist.
func paintTree(tree *render.Tree, sheet style.Sheet, spinner string) string {
	var b strings.Builder

	if tree.Title != "" {
		b.WriteString(sheet[style.SlotTitle].Render(tree.Title))
		b.WriteString("\n")
	}

	if tree.Status == model.StatusError {
		b.WriteString(sheet[style.SlotBanner].Render(tree.Banner))
		b.WriteString("\n")
		return b.String()
	}

	if tree.Status == model.StatusLoading || tree.Status == model.StatusInit {
		b.WriteString(sheet[style.SlotToolbar].Render(spinner + " loading"))
		b.WriteString("\n")
	}

	if line := paintItems(tree.Toolbar, sheet[style.SlotToolbar]); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	paintTable(&b, tree, sheet)

	if line := paintItems(tree.Footer, sheet[style.SlotFooter]); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// paintItems joins non-empty item views with a separator.
func paintItems(items []render.Item, s lipgloss.Style) string {
	views := make([]string, 0, len(items))
	for _, it := range items {
		if v := it.View(); v != "" {
			views = append(views, v)
		}
	}
	if len(views) == 0 {
		return ""
	}
	return s.Render(strings.Join(views, "  │  "))
}

func paintTable(b *strings.Builder, tree *render.Tree, sheet style.Sheet) {
	if len(tree.Header) == 0 && len(tree.Rows) == 0 {
		return
	}

	headerStyle := sheet[style.SlotHeader]
	cells := make([]string, len(tree.Header))
	for i, h := range tree.Header {
		cells[i] = padCell(h.Text, h.WidthPx, h.Align)
	}
	b.WriteString(headerStyle.Render(strings.Join(cells, " ")))
	b.WriteString("\n")

	// Spacer extents collapse to a one-line indicator; the pixel math
	// stays intact for surfaces that can honor real extents.
	if tree.Window.TopSpacerPx > 0 {
		b.WriteString(spacerLine(tree.Window.TopSpacerPx))
		b.WriteString("\n")
	}

	rowStyle := sheet[style.SlotRow]
	altStyle := sheet[style.SlotRowAlt]
	for _, row := range tree.Rows {
		s := rowStyle
		if row.Alt {
			s = altStyle
		}
		b.WriteString(s.Render(paintRow(row)))
		b.WriteString("\n")
	}

	if tree.Window.BottomSpacerPx > 0 {
		b.WriteString(spacerLine(tree.Window.BottomSpacerPx))
		b.WriteString("\n")
	}
}

// paintRow renders one body row: tree indentation and glyph on the first
// cell, then width-padded cells.
func paintRow(row render.BodyRow) string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		text := c.Text
		if i == 0 {
			prefix := strings.Repeat("  ", row.Depth)
			switch {
			case row.HasChildren && row.Expanded:
				prefix += glyphExpanded
			case row.HasChildren:
				prefix += glyphCollapsed
			default:
				prefix += glyphLeaf
			}
			text = prefix + text
		}
		cells[i] = padCell(text, c.WidthPx, c.Align)
	}
	return strings.Join(cells, " ")
}

// padCell pads or truncates text to the column's character width, derived
// from its pixel width.
func padCell(text string, widthPx int, align model.Align) string {
	width := widthPx / pxPerChar
	if width < 1 {
		width = 1
	}
	runes := []rune(text)
	if len(runes) > width {
		if width > 1 {
			return string(runes[:width-1]) + "…"
		}
		return string(runes[:width])
	}
	pad := strings.Repeat(" ", width-len(runes))
	switch align {
	case model.AlignRight:
		return pad + text
	case model.AlignCenter:
		left := (width - len(runes)) / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-len(runes)-left)
	default:
		return text + pad
	}
}

// spacerLine stands in for off-window rows.
func spacerLine(px int) string {
	return fmt.Sprintf("┄ %d rows off-screen ┄", px/render.DefaultRowHeightPx)
}
