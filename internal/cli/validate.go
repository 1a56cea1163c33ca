package cli

import (
	"github.com/spf13/cobra"

	"github.com/tablekit/gridcore/internal/config"
)

// newValidateCmd creates the validate command: resolve a spec document and
// report what it declares without starting a grid.
func newValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Resolve and validate a grid spec document",
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

			spec, err := config.Resolve(cmd.Context(), host.ResolveOptions(flags.gridID), sources)
			if err != nil {
				return err
			}

			cmd.Printf("grid %q: %d columns, %d plugins, data source %q\n",
				spec.ID, len(spec.Columns), len(spec.Plugins), spec.Data.Kind)
			return nil
		},
	}
}
