package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tablekit/gridcore/internal/grid"
	"github.com/tablekit/gridcore/internal/render"
	"github.com/tablekit/gridcore/internal/style"
	"github.com/tablekit/gridcore/internal/tui"
)

// filterInputID is the stable id of the host filter input, matched across
// rebuilds for focus restoration.
const filterInputID = "host.filter"

// newViewCmd creates the view command: resolve a spec document and run the
// terminal grid until the user quits.
func newViewCmd(flags *rootFlags) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "view <spec-file>",
		Short: "Render a grid in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := loadHost(cmd, flags)
			if err != nil {
				return err
			}
			sources, err := readSources(args[0])
			if err != nil {
				return err
			}

			filter := tui.NewInputItem(filterInputID, "filter rows")

			g := grid.New(cmd.Context(), grid.Options{
				Resolve:          host.ResolveOptions(flags.gridID),
				Sources:          sources,
				Theme:            host.Theme,
				DisableStyles:    host.DisableStyles,
				StyleOverrides:   parseOverrides(overrides),
				HostToolbarItems: []render.Item{filter},
			})
			if err := g.Init(cmd.Context()); err != nil {
				// The grid renders its own error banner; only resolution
				// failures abort before the TUI can show anything.
				return err
			}
			defer g.Close()

			return tui.Run(g, filter)
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "style", nil,
		"style override as slot=color (repeatable), e.g. --style header=63")
	return cmd
}

// parseOverrides turns slot=color pairs into a caller override sheet.
func parseOverrides(pairs []string) style.Sheet {
	if len(pairs) == 0 {
		return nil
	}
	sheet := style.Sheet{}
	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				sheet[style.Slot(p[:i])] = lipgloss.NewStyle().Foreground(lipgloss.Color(p[i+1:]))
				break
			}
		}
	}
	return sheet
}
