// Package model defines the declarative grid specification and the mutable
// runtime grid model shared by the resolver, providers, plugins, and the
// renderer.
package model

import "fmt"

// Align is a column text alignment.
type Align string

// Supported column alignments.
const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Nature classifies what a plugin contributes. It is descriptive metadata
// only: execution order is decided purely by priority, declaration order,
// and id.
type Nature string

// Known plugin natures.
const (
	NaturePresentation    Nature = "presentation"
	NatureContentSupplier Nature = "content-supplier"
	NatureFunctionality   Nature = "grid-functionality"
)

// Column declares a single grid column.
type Column struct {
	Key     string `json:"key" yaml:"key"`
	Title   string `json:"title" yaml:"title"`
	WidthPx int    `json:"widthPx,omitempty" yaml:"widthPx,omitempty"`
	Align   Align  `json:"align,omitempty" yaml:"align,omitempty"`
}

// Row is a single data row. Children carry hierarchical rows rendered only
// while their parent id is in the expansion set.
type Row struct {
	ID       string         `json:"id" yaml:"id"`
	Cells    map[string]any `json:"cells" yaml:"cells"`
	Children []Row          `json:"children,omitempty" yaml:"children,omitempty"`
}

// SortSpec orders rows by a column key.
type SortSpec struct {
	Key  string `json:"key" yaml:"key"`
	Desc bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// FilterSpec restricts rows by a column key. Op defaults to "contains".
type FilterSpec struct {
	Key   string `json:"key" yaml:"key"`
	Op    string `json:"op,omitempty" yaml:"op,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Snapshot is a full columns+rows payload as published by data providers.
type Snapshot struct {
	Columns []Column     `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    []Row        `json:"rows" yaml:"rows"`
	Sort    []SortSpec   `json:"sort,omitempty" yaml:"sort,omitempty"`
	Filters []FilterSpec `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// DataSource describes how row data is acquired.
type DataSource struct {
	Kind            string            `json:"kind" yaml:"kind"`
	Snapshot        *Snapshot         `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	URL             string            `json:"url,omitempty" yaml:"url,omitempty"`
	Method          string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	BodyJSON        string            `json:"bodyJson,omitempty" yaml:"bodyJson,omitempty"`
	PollMs          int               `json:"pollMs,omitempty" yaml:"pollMs,omitempty"`
	EventName       string            `json:"eventName,omitempty" yaml:"eventName,omitempty"`
	WithCredentials bool              `json:"withCredentials,omitempty" yaml:"withCredentials,omitempty"`
}

// PluginRef references a plugin factory plus per-instance overrides.
type PluginRef struct {
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	Nature    Nature         `json:"nature,omitempty" yaml:"nature,omitempty"`
	ModuleRef string         `json:"moduleRef,omitempty" yaml:"moduleRef,omitempty"`
	Priority  int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Options   map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// ToolbarOptions toggles the toolbar region.
type ToolbarOptions struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// TreeOptions toggles hierarchical row flattening.
type TreeOptions struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// VirtualizationOptions tunes the windowing renderer. Enabled, when set,
// overrides the automatic row/column-count activation.
type VirtualizationOptions struct {
	Enabled      *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	RowHeightPx  int   `json:"rowHeightPx,omitempty" yaml:"rowHeightPx,omitempty"`
	RowThreshold int   `json:"rowThreshold,omitempty" yaml:"rowThreshold,omitempty"`
	ColThreshold int   `json:"colThreshold,omitempty" yaml:"colThreshold,omitempty"`
	BufferRows   int   `json:"bufferRows,omitempty" yaml:"bufferRows,omitempty"`
	BufferCols   int   `json:"bufferCols,omitempty" yaml:"bufferCols,omitempty"`
}

// UIOptions carries presentation toggles from the declarative spec.
type UIOptions struct {
	Zebra          bool                   `json:"zebra,omitempty" yaml:"zebra,omitempty"`
	Toolbar        ToolbarOptions         `json:"toolbar,omitempty" yaml:"toolbar,omitempty"`
	Tree           TreeOptions            `json:"tree,omitempty" yaml:"tree,omitempty"`
	Virtualization *VirtualizationOptions `json:"virtualization,omitempty" yaml:"virtualization,omitempty"`
}

// GridSpec is the resolved declarative description of a grid. It is
// immutable once resolved; reinitialization resolves a fresh instance.
type GridSpec struct {
	ID      string      `json:"id" yaml:"id"`
	Title   string      `json:"title,omitempty" yaml:"title,omitempty"`
	UI      UIOptions   `json:"ui,omitempty" yaml:"ui,omitempty"`
	Columns []Column    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Data    DataSource  `json:"data,omitempty" yaml:"data,omitempty"`
	Plugins []PluginRef `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// Validate checks the minimal structural requirements of a resolved spec.
func (s *GridSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("grid spec missing id")
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c.Key == "" {
			return fmt.Errorf("grid %q: column with empty key", s.ID)
		}
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("grid %q: duplicate column key %q", s.ID, c.Key)
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

// FormatCell renders a cell value for display. Strings pass through
// unchanged; other scalar values use their default formatting.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers free of ".000000".
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
