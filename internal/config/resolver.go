// Package config resolves declarative grid specifications from the sources
// a host can supply: an embedded document, externally referenced documents,
// a legacy tabular markup fragment, or a named factory callback.
package config

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
)

// Mode selects a single resolution strategy. ModeAuto walks the priority
// chain; any other mode short-circuits to exactly one strategy with no
// fallback.
type Mode string

// Resolution modes.
const (
	ModeAuto     Mode = "auto"
	ModeEmbedded Mode = "embedded"
	ModeExternal Mode = "external"
	ModeTable    Mode = "table"
	ModeFactory  Mode = "factory"
)

// Sources holds the raw material a host makes available to the resolver.
type Sources struct {
	// Embedded is an inline declarative spec document (YAML or JSON).
	Embedded []byte

	// Documents maps reference ids to declarative spec documents.
	Documents map[string][]byte

	// TableHTML is an inline legacy table fragment to upgrade.
	TableHTML []byte

	// TableDocuments maps reference ids to legacy table fragments.
	TableDocuments map[string][]byte
}

// Options is the host-facing resolution configuration.
type Options struct {
	Mode          Mode
	GridID        string // id used when the source does not declare one
	ExternalRef   string // reference id for ModeExternal / ModeTable by ref
	FactoryName   string // registry name for ModeFactory
	TitleOverride string
}

// Resolve produces a GridSpec from the configured sources, or a
// *griderr.ConfigError when no strategy yields one.
func Resolve(ctx context.Context, opts Options, src Sources) (*model.GridSpec, error) {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "config")

	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	var (
		spec *model.GridSpec
		err  error
	)
	switch mode {
	case ModeEmbedded:
		spec, err = resolveEmbedded(opts, src)
	case ModeExternal:
		spec, err = resolveExternal(opts, src)
	case ModeTable:
		spec, err = resolveTable(opts, src)
	case ModeFactory:
		spec, err = resolveFactory(opts)
	case ModeAuto:
		spec, err = resolveAuto(opts, src)
	default:
		err = fmt.Errorf("unsupported resolution mode %q", mode)
	}
	if err != nil {
		return nil, griderr.NewConfigError(string(mode), err)
	}

	if opts.TitleOverride != "" {
		spec.Title = opts.TitleOverride
	}
	if spec.ID == "" {
		spec.ID = opts.GridID
	}
	if err := spec.Validate(); err != nil {
		return nil, griderr.NewConfigError(string(mode), err)
	}

	logger.Debug().
		Str("grid_id", spec.ID).
		Str("mode", string(mode)).
		Int("columns", len(spec.Columns)).
		Int("plugins", len(spec.Plugins)).
		Msg("resolved grid spec")

	return spec, nil
}

// resolveAuto walks the strategy chain, skipping strategies whose inputs
// are absent, and fails only when every strategy was inapplicable or the
// first applicable one errored.
func resolveAuto(opts Options, src Sources) (*model.GridSpec, error) {
	if len(src.Embedded) > 0 {
		return resolveEmbedded(opts, src)
	}
	if opts.ExternalRef != "" {
		if _, ok := src.Documents[opts.ExternalRef]; ok {
			return resolveExternal(opts, src)
		}
	}
	if len(src.TableHTML) > 0 {
		return resolveTable(opts, src)
	}
	if opts.ExternalRef != "" {
		if _, ok := src.TableDocuments[opts.ExternalRef]; ok {
			return resolveTable(opts, src)
		}
	}
	if opts.FactoryName != "" {
		return resolveFactory(opts)
	}
	return nil, griderr.ErrNoSpec
}

func resolveEmbedded(opts Options, src Sources) (*model.GridSpec, error) {
	if len(src.Embedded) == 0 {
		return nil, fmt.Errorf("no embedded spec document")
	}
	return parseSpec(src.Embedded)
}

func resolveExternal(opts Options, src Sources) (*model.GridSpec, error) {
	if opts.ExternalRef == "" {
		return nil, fmt.Errorf("external mode requires a reference id")
	}
	doc, ok := src.Documents[opts.ExternalRef]
	if !ok {
		return nil, fmt.Errorf("no external document with ref %q", opts.ExternalRef)
	}
	return parseSpec(doc)
}

func resolveTable(opts Options, src Sources) (*model.GridSpec, error) {
	fragment := src.TableHTML
	if len(fragment) == 0 && opts.ExternalRef != "" {
		fragment = src.TableDocuments[opts.ExternalRef]
	}
	if len(fragment) == 0 {
		return nil, fmt.Errorf("no legacy table fragment available")
	}
	return UpgradeTable(opts.GridID, fragment)
}

func resolveFactory(opts Options) (*model.GridSpec, error) {
	if opts.FactoryName == "" {
		return nil, fmt.Errorf("factory mode requires a factory name")
	}
	factory, ok := LookupFactory(opts.FactoryName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", griderr.ErrUnknownFactory, opts.FactoryName)
	}
	spec, err := factory()
	if err != nil {
		return nil, fmt.Errorf("factory %q: %w", opts.FactoryName, err)
	}
	if spec == nil {
		return nil, fmt.Errorf("factory %q returned no spec", opts.FactoryName)
	}
	return spec, nil
}

// parseSpec decodes a YAML or JSON spec document. JSON is a subset of YAML,
// so a single decoder covers both.
func parseSpec(doc []byte) (*model.GridSpec, error) {
	var spec model.GridSpec
	if err := yaml.Unmarshal(doc, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec document: %w", err)
	}
	return &spec, nil
}
