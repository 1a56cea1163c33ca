package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// HostConfig is the thin host-facing configuration surface: everything a
// deployment can set without touching the declarative spec itself.
type HostConfig struct {
	Mode          string // resolution mode, see Mode constants
	ExternalRef   string // reference id for external/table resolution
	FactoryName   string // spec factory name for factory resolution
	TitleOverride string
	Theme         string // theme hint consumed by the style pipeline
	DisableStyles bool   // skip all but caller-supplied style rules
	LogLevel      string
}

// LoadHostConfig reads host configuration from an optional config file and
// the environment. Environment overrides use the GRIDCORE_ prefix
// (GRIDCORE_MODE, GRIDCORE_THEME, ...). An empty path skips file loading.
func LoadHostConfig(path string) (HostConfig, error) {
	v := viper.New()

	v.SetDefault("mode", "auto")
	v.SetDefault("external_ref", "")
	v.SetDefault("factory_name", "")
	v.SetDefault("title_override", "")
	v.SetDefault("theme", "default")
	v.SetDefault("disable_styles", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("GRIDCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return HostConfig{}, fmt.Errorf("reading host config: %w", err)
		}
	}

	return HostConfig{
		Mode:          v.GetString("mode"),
		ExternalRef:   v.GetString("external_ref"),
		FactoryName:   v.GetString("factory_name"),
		TitleOverride: v.GetString("title_override"),
		Theme:         v.GetString("theme"),
		DisableStyles: v.GetBool("disable_styles"),
		LogLevel:      v.GetString("log_level"),
	}, nil
}

// ResolveOptions converts host configuration into resolver options for the
// given grid id.
func (h HostConfig) ResolveOptions(gridID string) Options {
	return Options{
		Mode:          Mode(h.Mode),
		GridID:        gridID,
		ExternalRef:   h.ExternalRef,
		FactoryName:   h.FactoryName,
		TitleOverride: h.TitleOverride,
	}
}
