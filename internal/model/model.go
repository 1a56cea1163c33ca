package model

import "fmt"

// Status is the grid lifecycle state.
type Status string

// Grid lifecycle states. Transitions are enforced by GridModel.SetStatus:
// init → loading → {ready, error}; ready/error → loading on
// reinitialization. No transition skips loading.
const (
	StatusInit    Status = "init"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// GridModel is the single mutable source of truth for a grid instance.
// There is exactly one per grid; all mutation happens through the grid
// core's capability API under its single-writer lock.
type GridModel struct {
	Columns []Column
	Rows    []Row
	Sort    []SortSpec
	Filters []FilterSpec

	status Status
	errMsg string
}

// NewGridModel returns a model in the init state.
func NewGridModel() *GridModel {
	return &GridModel{status: StatusInit}
}

// Status returns the current lifecycle state.
func (m *GridModel) Status() Status { return m.status }

// ErrMsg returns the error banner message, empty unless status is error.
func (m *GridModel) ErrMsg() string { return m.errMsg }

// SetStatus transitions the lifecycle state. Same-state transitions are
// no-ops; invalid transitions are rejected.
func (m *GridModel) SetStatus(next Status) error {
	if next == m.status {
		return nil
	}
	if !validTransition(m.status, next) {
		return fmt.Errorf("invalid status transition %s -> %s", m.status, next)
	}
	m.status = next
	if next != StatusError {
		m.errMsg = ""
	}
	return nil
}

// SetError transitions to the error state with a banner message. Error is
// entered from loading; when the model is currently ready (a stream failing
// mid-flight, for example) it hops through loading so no transition skips
// that state.
func (m *GridModel) SetError(msg string) error {
	if m.status == StatusError {
		m.errMsg = msg
		return nil
	}
	if m.status == StatusReady {
		if err := m.SetStatus(StatusLoading); err != nil {
			return err
		}
	}
	if err := m.SetStatus(StatusError); err != nil {
		return err
	}
	m.errMsg = msg
	return nil
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusInit:
		return to == StatusLoading
	case StatusLoading:
		return to == StatusReady || to == StatusError
	case StatusReady, StatusError:
		return to == StatusLoading
	default:
		return false
	}
}

// ApplySnapshot replaces columns, rows, sort, and filters wholesale. Nil
// snapshot columns fall back to the existing columns; nil sort/filters
// default to empty.
func (m *GridModel) ApplySnapshot(s Snapshot) {
	if s.Columns != nil {
		m.Columns = s.Columns
	}
	m.Rows = s.Rows
	if s.Rows == nil {
		m.Rows = []Row{}
	}
	m.Sort = s.Sort
	if m.Sort == nil {
		m.Sort = []SortSpec{}
	}
	m.Filters = s.Filters
	if m.Filters == nil {
		m.Filters = []FilterSpec{}
	}
}

// SetRows replaces the row set wholesale.
func (m *GridModel) SetRows(rows []Row) {
	if rows == nil {
		rows = []Row{}
	}
	m.Rows = rows
}

// UpsertRows merges rows by id: existing ids are replaced in place (last
// write wins), unknown ids are appended in arrival order.
func (m *GridModel) UpsertRows(rows []Row) {
	index := make(map[string]int, len(m.Rows))
	for i, r := range m.Rows {
		index[r.ID] = i
	}
	for _, r := range rows {
		if i, ok := index[r.ID]; ok {
			m.Rows[i] = r
			continue
		}
		index[r.ID] = len(m.Rows)
		m.Rows = append(m.Rows, r)
	}
}

// Reset returns the model to the init state with empty collections. Used on
// reinitialization before the next resolve/load cycle.
func (m *GridModel) Reset() {
	m.Columns = nil
	m.Rows = nil
	m.Sort = nil
	m.Filters = nil
	m.status = StatusInit
	m.errMsg = ""
}
