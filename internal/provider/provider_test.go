package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/model"
)

// recordingSink captures sink calls for provider tests.
type recordingSink struct {
	mu        sync.Mutex
	snapshots []model.Snapshot
	rowSets   [][]model.Row
	upserts   [][]model.Row
	errors    []string
}

func (s *recordingSink) SetSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

func (s *recordingSink) SetRows(rows []model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowSets = append(s.rowSets, rows)
}

func (s *recordingSink) UpsertRows(rows []model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, rows)
}

func (s *recordingSink) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

func (s *recordingSink) snapshotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func (s *recordingSink) errorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *recordingSink) lastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errors) == 0 {
		return ""
	}
	return s.errors[len(s.errors)-1]
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("builtin kinds", func(t *testing.T) {
		assert.Equal(t, []string{"poll", "static", "stream"}, r.Kinds())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.New(model.DataSource{Kind: "carrier-pigeon"}, &recordingSink{})
		assert.ErrorIs(t, err, griderr.ErrUnknownProvider)
	})

	t.Run("custom kind", func(t *testing.T) {
		r.Register("custom", newStatic)
		p, err := r.New(model.DataSource{Kind: "custom"}, &recordingSink{})
		require.NoError(t, err)
		assert.Equal(t, "static", p.Kind())
	})

	t.Run("empty kind or nil factory ignored", func(t *testing.T) {
		before := len(r.Kinds())
		r.Register("", newStatic)
		r.Register("nil-factory", nil)
		assert.Len(t, r.Kinds(), before)
	})
}

func TestStaticProvider(t *testing.T) {
	snap := &model.Snapshot{
		Columns: []model.Column{{Key: "name", Title: "Name"}},
		Rows:    []model.Row{{ID: "r1", Cells: map[string]any{"name": "Ada"}}},
	}

	t.Run("start publishes the snapshot synchronously", func(t *testing.T) {
		sink := &recordingSink{}
		p := newStatic(model.DataSource{Kind: "static", Snapshot: snap}, sink)

		require.NoError(t, p.Start(context.Background()))

		// No waiting: static start is synchronous by contract.
		require.Equal(t, 1, sink.snapshotCount())
		assert.Equal(t, *snap, sink.snapshots[0])
	})

	t.Run("missing snapshot publishes an empty one", func(t *testing.T) {
		sink := &recordingSink{}
		p := newStatic(model.DataSource{Kind: "static"}, sink)

		require.NoError(t, p.Start(context.Background()))
		require.Equal(t, 1, sink.snapshotCount())
		assert.Empty(t, sink.snapshots[0].Rows)
	})

	t.Run("stop is safe", func(t *testing.T) {
		p := newStatic(model.DataSource{Kind: "static"}, &recordingSink{})
		p.Stop()
		p.Stop()
	})
}
