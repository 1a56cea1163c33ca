package plugin

import (
	"context"
	"fmt"
	"sort"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
)

// basePresentationPriority places the built-in presentation plugin ahead
// of everything else so its styles apply first and every later fragment
// can override them.
const basePresentationPriority = -1000

// Loaded is a plugin resolved for one initialization cycle.
type Loaded struct {
	ID        string
	Nature    model.Nature
	Priority  int
	SourceRef string // module reference it was resolved from
	Options   map[string]any
	Factory   Factory

	declIndex int
}

// ResolveRefs resolves plugin references against the factory registry and
// returns the deterministic execution order: the built-in presentation
// plugin first, then all references sorted by (priority ascending,
// declaration order, id lexicographic). Nature never gates ordering.
// Unresolvable references are reported but do not fail the rest.
func ResolveRefs(ctx context.Context, refs []model.PluginRef) ([]Loaded, []error) {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "plugin")

	loaded := make([]Loaded, 0, len(refs)+1)
	loaded = append(loaded, Loaded{
		ID:        BuiltinPresentationID,
		Nature:    model.NaturePresentation,
		Priority:  basePresentationPriority,
		SourceRef: BuiltinPresentationID,
		Factory:   presentationFactory,
		declIndex: -1,
	})

	var errs []error
	for i, ref := range refs {
		lp, err := resolveOne(ref, i)
		if err != nil {
			logger.Warn().Str("module_ref", ref.ModuleRef).Str("id", ref.ID).Err(err).
				Msg("skipping unresolvable plugin reference")
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, lp)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		if loaded[i].Priority != loaded[j].Priority {
			return loaded[i].Priority < loaded[j].Priority
		}
		if loaded[i].declIndex != loaded[j].declIndex {
			return loaded[i].declIndex < loaded[j].declIndex
		}
		return loaded[i].ID < loaded[j].ID
	})

	return loaded, errs
}

// resolveOne merges factory metadata with reference overrides. The
// reference wins wherever it specifies a value.
func resolveOne(ref model.PluginRef, declIndex int) (Loaded, error) {
	moduleRef := ref.ModuleRef
	if moduleRef == "" {
		moduleRef = ref.ID
	}
	if moduleRef == "" {
		return Loaded{}, fmt.Errorf("plugin reference %d has neither id nor moduleRef", declIndex)
	}

	reg, err := ResolveRef(moduleRef)
	if err != nil {
		return Loaded{}, err
	}

	lp := Loaded{
		ID:        reg.Meta.ID,
		Nature:    reg.Meta.Nature,
		Priority:  reg.Meta.Priority,
		SourceRef: moduleRef,
		Options:   ref.Options,
		Factory:   reg.Factory,
		declIndex: declIndex,
	}
	if lp.ID == "" {
		lp.ID = reg.Name
	}
	if ref.ID != "" {
		lp.ID = ref.ID
	}
	if ref.Nature != "" {
		lp.Nature = ref.Nature
	}
	if ref.Priority != 0 {
		lp.Priority = ref.Priority
	}
	return lp, nil
}

// Run initializes each plugin in order. A failing or panicking factory is
// logged as a PluginInitError and skipped; the pipeline continues. The
// returned disposers run in reverse order on teardown.
func Run(ctx context.Context, api API, plugins []Loaded) []Disposer {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "plugin")

	var disposers []Disposer
	for _, lp := range plugins {
		disposer, err := initOne(lp, api)
		if err != nil {
			initErr := &griderr.PluginInitError{PluginID: lp.ID, Err: err}
			logger.Warn().Str("plugin", lp.ID).Err(initErr).Msg("plugin init failed")
			continue
		}
		if disposer != nil {
			disposers = append(disposers, disposer)
		}
		logger.Debug().Str("plugin", lp.ID).Str("nature", string(lp.Nature)).
			Int("priority", lp.Priority).Msg("plugin initialized")
	}
	return disposers
}

func initOne(lp Loaded, api API) (disposer Disposer, err error) {
	defer func() {
		if r := recover(); r != nil {
			disposer = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return lp.Factory(api, lp.Options)
}
