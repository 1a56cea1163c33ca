// Package griderr defines the error taxonomy shared by the grid core,
// configuration resolver, data providers, and plugin pipeline.
//
// Only ConfigError and ProviderError may drive GridModel status to "error";
// plugin initialization failures are isolated per-plugin and malformed
// stream messages are dropped without surfacing an error at all.
package griderr

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	// ErrNoSpec is returned when no resolution strategy produced a grid spec.
	ErrNoSpec = errors.New("no resolvable grid spec")

	// ErrUnknownProvider is returned when a data source names an unregistered
	// provider kind.
	ErrUnknownProvider = errors.New("unknown data provider kind")

	// ErrUnknownFactory is returned when a plugin module reference cannot be
	// resolved against the factory registry.
	ErrUnknownFactory = errors.New("unknown plugin factory")

	// ErrStaleGeneration is returned when a capability call carries a
	// generation token from a previous initialization cycle.
	ErrStaleGeneration = errors.New("stale generation token")
)

// ConfigError reports a failure to resolve a grid spec. It is terminal for
// the current initialization cycle.
type ConfigError struct {
	Mode string // resolution mode that failed, empty for the auto chain
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("config resolution (mode %s): %v", e.Mode, e.Err)
	}
	return fmt.Sprintf("config resolution: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError for the given mode.
func NewConfigError(mode string, err error) *ConfigError {
	return &ConfigError{Mode: mode, Err: err}
}

// ProviderError reports a data acquisition failure. The message is shown in
// the grid's error banner; the condition is recoverable on the next poll
// tick or reinitialization.
type ProviderError struct {
	Kind string // provider kind, e.g. "poll"
	Msg  string // banner message, e.g. "Fetch failed: HTTP 500"
	Err  error  // underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	return e.Msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError with the banner message msg.
func NewProviderError(kind, msg string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Msg: msg, Err: err}
}

// PluginInitError reports a plugin factory failure during pipeline
// initialization. It is logged and skipped; the pipeline continues.
type PluginInitError struct {
	PluginID string
	Err      error
}

func (e *PluginInitError) Error() string {
	return fmt.Sprintf("plugin %q init: %v", e.PluginID, e.Err)
}

func (e *PluginInitError) Unwrap() error { return e.Err }
