// Package cli implements the gridcore command line: a viewer that embeds a
// grid in the terminal and a validator for declarative spec documents.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tablekit/gridcore/internal/config"
	"github.com/tablekit/gridcore/internal/logging"
)

// rootFlags carries the persistent flag values shared by all subcommands.
type rootFlags struct {
	configPath string
	logLevel   string
	mode       string
	ref        string
	factory    string
	gridID     string
	title      string
	theme      string
	noStyle    bool
}

// NewRootCmd creates the root Cobra command for the gridcore CLI.
func NewRootCmd(ver string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:     "gridcore",
		Short:   "Embeddable data grid engine",
		Long:    "gridcore resolves declarative grid specs, runs their plugin pipeline, and renders them in the terminal",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			host, err := loadHost(cmd, flags)
			if err != nil {
				return err
			}
			logging.Init(host.LogLevel, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "host config file (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "", "resolution mode (auto, embedded, external, table, factory)")
	cmd.PersistentFlags().StringVar(&flags.ref, "ref", "", "reference id for external/table resolution")
	cmd.PersistentFlags().StringVar(&flags.factory, "factory", "", "registered spec factory name")
	cmd.PersistentFlags().StringVar(&flags.gridID, "grid-id", "grid", "grid id used when the source declares none")
	cmd.PersistentFlags().StringVar(&flags.title, "title", "", "title override")
	cmd.PersistentFlags().StringVar(&flags.theme, "theme", "", "theme hint for the style pipeline")
	cmd.PersistentFlags().BoolVar(&flags.noStyle, "no-style", false, "disable built-in styles")

	cmd.AddCommand(newViewCmd(flags), newValidateCmd(flags))
	return cmd
}

// loadHost merges the host config file and environment with explicit CLI
// flags; a flag set on the command line wins.
func loadHost(cmd *cobra.Command, flags *rootFlags) (config.HostConfig, error) {
	host, err := config.LoadHostConfig(flags.configPath)
	if err != nil {
		return config.HostConfig{}, err
	}
	if cmd.Flags().Changed("log-level") {
		host.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("mode") {
		host.Mode = flags.mode
	}
	if cmd.Flags().Changed("ref") {
		host.ExternalRef = flags.ref
	}
	if cmd.Flags().Changed("factory") {
		host.FactoryName = flags.factory
	}
	if cmd.Flags().Changed("title") {
		host.TitleOverride = flags.title
	}
	if cmd.Flags().Changed("theme") {
		host.Theme = flags.theme
	}
	if flags.noStyle {
		host.DisableStyles = true
	}
	return host, nil
}

// readSources loads grid sources from the positional file argument. A .html
// file becomes a legacy table fragment; everything else is treated as a
// declarative spec document.
func readSources(path string) (config.Sources, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the CLI user.
	if err != nil {
		return config.Sources{}, err
	}
	if isTableFile(path) {
		return config.Sources{TableHTML: data}, nil
	}
	return config.Sources{Embedded: data}, nil
}

func isTableFile(path string) bool {
	for _, ext := range []string{".html", ".htm"} {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

const rootCmdExample = `  # View a grid from a declarative spec
  gridcore view examples/fleet.yaml

  # View a legacy HTML table upgraded on the fly
  gridcore view legacy/report.html --grid-id report

  # Validate a spec document without rendering it
  gridcore validate examples/fleet.yaml

  # Force a resolution mode and theme
  gridcore view examples/fleet.yaml --mode embedded --theme plain`
