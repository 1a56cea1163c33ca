package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tablekit/gridcore/internal/grid"
	"github.com/tablekit/gridcore/internal/model"
	"github.com/tablekit/gridcore/internal/plugin"
	"github.com/tablekit/gridcore/internal/render"
)

// pxPerChar approximates the pixel width of one terminal cell so the
// pixel-based windowing math maps onto character columns.
const pxPerChar = 8

// chromeLines is the vertical space reserved for title, toolbar, header,
// and footer around the row viewport.
const chromeLines = 5

// Key bindings.
const (
	keyQuit   = "q"
	keyCtrlC  = "ctrl+c"
	keySlash  = "/"
	keyEnter  = "enter"
	keyEsc    = "esc"
	keyExpand = "+"
	keyFold   = "-"
)

// renderMsg signals that the grid published a render request.
type renderMsg struct{}

// focusMsg carries captured focus to restore on the paint following a
// rebuild.
type focusMsg struct {
	state *render.FocusState
}

// Model is the Bubble Tea model embedding one grid instance.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type Model struct {
	grid   *grid.Grid
	filter *InputItem
	spin   spinner.Model

	tree *render.Tree

	width     int
	height    int
	scrollTop int // px
	scrollLft int // px

	quitting bool
}

// New creates the TUI model for a grid. filter may be nil when the host
// did not wire a toolbar input.
func New(g *grid.Grid, filter *InputItem) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		grid:   g,
		filter: filter,
		spin:   s,
	}
}

// Init starts the spinner and the render-notification listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForRender())
}

// waitForRender blocks on the grid's coalesced render channel.
func (m Model) waitForRender() tea.Cmd {
	return func() tea.Msg {
		<-m.grid.RenderNotify()
		return renderMsg{}
	}
}

// Update handles terminal events and grid render notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		m.tree = m.grid.BuildTree()
		cmds := []tea.Cmd{m.waitForRender()}
		if m.tree.Focus != nil {
			// Focus restoration is deferred to the next paint tick,
			// never applied synchronously during the rebuild.
			fs := m.tree.Focus
			cmds = append(cmds, func() tea.Msg { return focusMsg{state: fs} })
		}
		return m, tea.Batch(cmds...)

	case focusMsg:
		if m.tree != nil {
			// Best-effort: a missing equivalent element is not an error.
			render.RestoreFocus(msg.state, m.tree.Toolbar, m.tree.Footer)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := msg.Height - chromeLines
		if rows < 1 {
			rows = 1
		}
		m.grid.SetViewport(msg.Width*pxPerChar, rows*render.DefaultRowHeightPx)
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	switch msg.Button { //nolint:exhaustive // Only wheel events scroll the grid.
	case tea.MouseButtonWheelUp:
		m.scrollTop -= render.DefaultRowHeightPx
	case tea.MouseButtonWheelDown:
		m.scrollTop += render.DefaultRowHeightPx
	default:
		return m
	}
	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
	m.grid.HandleScroll(m.scrollTop, m.scrollLft)
	return m
}

//nolint:gocognit // Key handling inherently requires a branch per binding.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter != nil && m.filter.Focused() {
		switch msg.String() {
		case keyEnter:
			m.filter.Blur()
			m.grid.Events().Publish(plugin.EventFilterSet, m.filter.Value())
			return m, nil
		case keyEsc:
			m.filter.Blur()
			m.filter.Reset()
			m.grid.Events().Publish(plugin.EventFilterSet, "")
			return m, nil
		default:
			cmd := m.filter.Update(msg)
			m.grid.RequestRender()
			return m, cmd
		}
	}

	viewportPx := (m.height - chromeLines) * render.DefaultRowHeightPx
	if viewportPx < render.DefaultRowHeightPx {
		viewportPx = render.DefaultRowHeightPx
	}

	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.quitting = true
		m.grid.Close()
		return m, tea.Quit

	case "up", "k":
		m.scrollTop -= render.DefaultRowHeightPx
	case "down", "j":
		m.scrollTop += render.DefaultRowHeightPx
	case "pgup":
		m.scrollTop -= viewportPx
	case "pgdown":
		m.scrollTop += viewportPx
	case "home":
		m.scrollTop = 0
	case "end":
		m.scrollTop = totalRowExtent(m.grid)
	case "left", "h":
		m.scrollLft -= render.DefaultColWidthPx
	case "right", "l":
		m.scrollLft += render.DefaultColWidthPx

	case keySlash:
		if m.filter != nil {
			m.filter.Focus()
			m.grid.RequestRender()
			return m, textinput.Blink
		}
		return m, nil

	case "n":
		m.grid.Events().Publish(plugin.EventPageNext, nil)
		return m, nil
	case "p":
		m.grid.Events().Publish(plugin.EventPagePrev, nil)
		return m, nil

	case "s":
		if cols := m.grid.Model().Columns; len(cols) > 0 {
			m.grid.Events().Publish(plugin.EventSortSet, model.SortSpec{Key: cols[0].Key})
		}
		return m, nil

	case keyExpand:
		m.grid.SetExpansion(parentIDs(m.grid.Model().Rows))
		return m, nil
	case keyFold:
		m.grid.SetExpansion(nil)
		return m, nil

	default:
		return m, nil
	}

	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
	if m.scrollLft < 0 {
		m.scrollLft = 0
	}
	m.grid.HandleScroll(m.scrollTop, m.scrollLft)
	return m, nil
}

// totalRowExtent returns the pixel extent of all rows, for the End key.
func totalRowExtent(g *grid.Grid) int {
	return len(g.Model().Rows) * render.DefaultRowHeightPx
}

// parentIDs collects ids of rows that have children, at any depth.
func parentIDs(rows []model.Row) []string {
	var out []string
	var visit func([]model.Row)
	visit = func(rs []model.Row) {
		for _, r := range rs {
			if len(r.Children) > 0 {
				out = append(out, r.ID)
				visit(r.Children)
			}
		}
	}
	visit(rows)
	return out
}

// Run starts the Bubble Tea program for a grid and blocks until exit.
func Run(g *grid.Grid, filter *InputItem) error {
	p := tea.NewProgram(New(g, filter), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
