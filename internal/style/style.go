// Package style composes the grid's lipgloss style sheet from base rules,
// plugin-registered fragments, and caller overrides in a deterministic
// order.
package style

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Slot names a styleable region of the rendered grid.
type Slot string

// Styleable regions.
const (
	SlotTable    Slot = "table"
	SlotHeader   Slot = "header"
	SlotCell     Slot = "cell"
	SlotRow      Slot = "row"
	SlotRowAlt   Slot = "rowAlt" // zebra stripe
	SlotSelected Slot = "selected"
	SlotBanner   Slot = "banner" // error banner
	SlotToolbar  Slot = "toolbar"
	SlotFooter   Slot = "footer"
	SlotTitle    Slot = "title"
)

// Palette colors shared by the built-in themes.
var (
	colorHeader   = lipgloss.Color("63")  // purple
	colorSelected = lipgloss.Color("212") // pink
	colorMuted    = lipgloss.Color("241") // gray
	colorError    = lipgloss.Color("196") // red
	colorStripe   = lipgloss.Color("236") // dark gray
)

// Sheet maps slots to composed styles.
type Sheet map[Slot]lipgloss.Style

// Fragment is a named, prioritized set of slot styles registered by a
// plugin (or by the host as an override layer).
type Fragment struct {
	ID       string
	Priority int
	Styles   Sheet
}

// Pipeline owns the ordered style composition for one grid instance.
// Composition order: structural base → reserved theme slot → plugin
// fragments by (priority asc, id lex) → caller overrides. Any fragment
// registration or removal triggers a full recomposition.
type Pipeline struct {
	mu        sync.Mutex
	base      Sheet
	theme     Sheet // reserved slot, currently unpopulated
	fragments []Fragment
	overrides Sheet
	disabled  bool // skip all but caller overrides
	composed  Sheet
}

// NewPipeline builds a pipeline with the structural base styles for the
// given theme hint. disableDefaults skips everything but caller overrides.
func NewPipeline(themeHint string, disableDefaults bool) *Pipeline {
	p := &Pipeline{
		base:      baseSheet(themeHint),
		theme:     Sheet{},
		overrides: Sheet{},
		disabled:  disableDefaults,
	}
	p.recompose()
	return p
}

// baseSheet returns the structural base rules. The theme hint selects the
// accent palette; unknown hints fall back to the default palette.
func baseSheet(themeHint string) Sheet {
	header := lipgloss.NewStyle().Bold(true).Foreground(colorHeader)
	if themeHint == "plain" {
		header = lipgloss.NewStyle().Bold(true)
	}
	return Sheet{
		SlotTable:    lipgloss.NewStyle(),
		SlotHeader:   header,
		SlotCell:     lipgloss.NewStyle(),
		SlotRow:      lipgloss.NewStyle(),
		SlotRowAlt:   lipgloss.NewStyle().Background(colorStripe),
		SlotSelected: lipgloss.NewStyle().Bold(true).Foreground(colorSelected),
		SlotBanner:   lipgloss.NewStyle().Bold(true).Foreground(colorError),
		SlotToolbar:  lipgloss.NewStyle().Foreground(colorMuted),
		SlotFooter:   lipgloss.NewStyle().Foreground(colorMuted),
		SlotTitle:    lipgloss.NewStyle().Bold(true),
	}
}

// AddFragment registers a plugin style fragment and returns its disposer.
// A fragment without an id receives a generated one; registering an id that
// already exists replaces the previous fragment.
func (p *Pipeline) AddFragment(f Fragment) func() {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	p.mu.Lock()
	p.removeLocked(f.ID)
	p.fragments = append(p.fragments, f)
	p.recompose()
	p.mu.Unlock()

	id := f.ID
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.removeLocked(id)
		p.recompose()
	}
}

func (p *Pipeline) removeLocked(id string) {
	for i, f := range p.fragments {
		if f.ID == id {
			p.fragments = append(p.fragments[:i:i], p.fragments[i+1:]...)
			return
		}
	}
}

// SetOverrides installs the caller-supplied override layer, applied last.
func (p *Pipeline) SetOverrides(overrides Sheet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if overrides == nil {
		overrides = Sheet{}
	}
	p.overrides = overrides
	p.recompose()
}

// Reset drops all plugin fragments. Called on grid reinitialization; the
// base, theme, and caller override layers survive.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragments = nil
	p.recompose()
}

// Sheet returns the currently composed style sheet.
func (p *Pipeline) Sheet() Sheet {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(Sheet, len(p.composed))
	for k, v := range p.composed {
		out[k] = v
	}
	return out
}

// Style returns the composed style for one slot.
func (p *Pipeline) Style(slot Slot) lipgloss.Style {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.composed[slot]
}

// recompose rebuilds the composed sheet from scratch. Never patches
// incrementally: determinism over cleverness.
func (p *Pipeline) recompose() {
	composed := Sheet{}

	if !p.disabled {
		for slot, s := range p.base {
			composed[slot] = s
		}
		for slot, s := range p.theme {
			composed[slot] = layer(composed[slot], s)
		}

		ordered := make([]Fragment, len(p.fragments))
		copy(ordered, p.fragments)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Priority != ordered[j].Priority {
				return ordered[i].Priority < ordered[j].Priority
			}
			return ordered[i].ID < ordered[j].ID
		})
		for _, f := range ordered {
			for slot, s := range f.Styles {
				composed[slot] = layer(composed[slot], s)
			}
		}
	}

	for slot, s := range p.overrides {
		composed[slot] = layer(composed[slot], s)
	}

	p.composed = composed
}

// layer applies next on top of prev: properties set on next win, unset
// properties inherit from prev.
func layer(prev, next lipgloss.Style) lipgloss.Style {
	return next.Inherit(prev)
}
