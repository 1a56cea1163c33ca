package render

// Item is a toolbar or footer entry contributed by a plugin. Items render
// themselves to a string; the embedding surface lays them out in
// registration order.
type Item interface {
	ID() string
	View() string
}

// Focusable is an Item that can hold input focus, such as a filter input.
// Selection offsets are rune offsets into the item's editable text.
type Focusable interface {
	Item
	Focused() bool
	Focus()
	Blur()
	Selection() (start, end int)
	SetSelection(start, end int)
}

// TextItem is a static text item.
type TextItem struct {
	id   string
	text string
}

// NewTextItem builds a static toolbar/footer item.
func NewTextItem(id, text string) *TextItem {
	return &TextItem{id: id, text: text}
}

func (t *TextItem) ID() string   { return t.id }
func (t *TextItem) View() string { return t.text }

// FuncItem renders through a callback, for items whose content depends on
// live state.
type FuncItem struct {
	id   string
	view func() string
}

// NewFuncItem builds a callback-rendered item.
func NewFuncItem(id string, view func() string) *FuncItem {
	return &FuncItem{id: id, view: view}
}

func (f *FuncItem) ID() string { return f.id }

func (f *FuncItem) View() string {
	if f.view == nil {
		return ""
	}
	return f.view()
}

// FocusState is the captured focus of an interactive element: its item id
// plus text-selection offsets. Captured before a rebuild, restored on the
// next paint when an item with the same id exists in the new tree.
type FocusState struct {
	ItemID string
	Start  int
	End    int
}

// CaptureFocus records which focusable item currently holds focus, or nil
// when none does.
func CaptureFocus(itemLists ...[]Item) *FocusState {
	for _, items := range itemLists {
		for _, it := range items {
			f, ok := it.(Focusable)
			if !ok || !f.Focused() {
				continue
			}
			start, end := f.Selection()
			return &FocusState{ItemID: f.ID(), Start: start, End: end}
		}
	}
	return nil
}

// RestoreFocus refocuses the item matching the captured state. Matching is
// by item id, never by instance identity: every rebuild creates new
// instances. Returns false when no equivalent item exists; the failure is
// best-effort and never surfaced further.
func RestoreFocus(fs *FocusState, itemLists ...[]Item) bool {
	if fs == nil {
		return false
	}
	for _, items := range itemLists {
		for _, it := range items {
			f, ok := it.(Focusable)
			if !ok || f.ID() != fs.ItemID {
				continue
			}
			f.Focus()
			f.SetSelection(fs.Start, fs.End)
			return true
		}
	}
	return false
}
