package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/model"
)

func noopFactory(API, map[string]any) (Disposer, error) { return nil, nil }

func TestRegister(t *testing.T) {
	t.Run("valid version", func(t *testing.T) {
		err := Register("reg-valid", "1.2.3", Meta{ID: "reg-valid"}, noopFactory)
		assert.NoError(t, err)
	})

	t.Run("invalid version", func(t *testing.T) {
		err := Register("reg-bad", "not-a-version", Meta{}, noopFactory)
		assert.Error(t, err)
	})

	t.Run("missing name or factory", func(t *testing.T) {
		assert.Error(t, Register("", "1.0.0", Meta{}, noopFactory))
		assert.Error(t, Register("reg-nil", "1.0.0", Meta{}, nil))
	})
}

func TestResolveRef(t *testing.T) {
	MustRegister("resolve-me", "1.0.0", Meta{ID: "resolve-me", Priority: 1}, noopFactory)
	MustRegister("resolve-me", "1.4.2", Meta{ID: "resolve-me", Priority: 2}, noopFactory)
	MustRegister("resolve-me", "2.0.0", Meta{ID: "resolve-me", Priority: 3}, noopFactory)

	t.Run("bare name picks the highest version", func(t *testing.T) {
		reg, err := ResolveRef("resolve-me")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", reg.Version.String())
	})

	t.Run("range picks the highest satisfying version", func(t *testing.T) {
		reg, err := ResolveRef("resolve-me@^1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "1.4.2", reg.Version.String())
	})

	t.Run("exact pin", func(t *testing.T) {
		reg, err := ResolveRef("resolve-me@1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", reg.Version.String())
	})

	t.Run("no satisfying version", func(t *testing.T) {
		_, err := ResolveRef("resolve-me@^3.0.0")
		assert.ErrorIs(t, err, griderr.ErrUnknownFactory)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ResolveRef("nobody-registered-this")
		assert.ErrorIs(t, err, griderr.ErrUnknownFactory)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := ResolveRef("resolve-me@][")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid version range")
	})
}

func TestRegisterBuiltins(t *testing.T) {
	RegisterBuiltins()
	RegisterBuiltins() // idempotent

	for _, name := range []string{SortPluginName, FilterPluginName, PaginatePluginName} {
		reg, err := ResolveRef(name)
		require.NoError(t, err, name)
		assert.Equal(t, model.NatureFunctionality, reg.Meta.Nature)
	}
}
