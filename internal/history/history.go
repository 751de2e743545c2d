// Package history keeps a bounded linear undo/redo stack of canvas snapshots.
package history

import (
	"reflect"

	"github.com/starford/onepage/internal/canvas"
)

// DefaultLimit is the maximum number of snapshots kept.
const DefaultLimit = 50

// Manager is a linear undo/redo stack. It is not safe for concurrent use.
type Manager struct {
	limit   int
	entries []canvas.Snapshot
	index   int
}

// New returns an empty manager holding at most limit entries.
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit, index: -1}
}

// Capture records s as the newest entry. Entries after the current position
// (the redo branch) are discarded; the oldest entry is dropped once the limit
// is reached. A snapshot equal to the current entry is not recorded, so the
// settle that follows an undo or redo does not echo the restored state while
// a real edit made before it settles still is. It reports whether an entry
// was added.
func (m *Manager) Capture(s canvas.Snapshot) bool {
	if m.index >= 0 && reflect.DeepEqual(m.entries[m.index], s) {
		return false
	}

	m.entries = append(m.entries[:m.index+1], s.Clone())
	if len(m.entries) > m.limit {
		m.entries = append([]canvas.Snapshot(nil), m.entries[len(m.entries)-m.limit:]...)
	}
	m.index = len(m.entries) - 1
	return true
}

// Undo steps back one entry and returns a copy of it.
func (m *Manager) Undo() (canvas.Snapshot, bool) {
	if !m.CanUndo() {
		return canvas.Snapshot{}, false
	}
	m.index--
	return m.entries[m.index].Clone(), true
}

// Redo steps forward one entry and returns a copy of it.
func (m *Manager) Redo() (canvas.Snapshot, bool) {
	if !m.CanRedo() {
		return canvas.Snapshot{}, false
	}
	m.index++
	return m.entries[m.index].Clone(), true
}

// CanUndo reports whether there is an earlier entry.
func (m *Manager) CanUndo() bool { return m.index > 0 }

// CanRedo reports whether there is a later entry.
func (m *Manager) CanRedo() bool { return m.index < len(m.entries)-1 }

// Clear drops every entry.
func (m *Manager) Clear() {
	m.entries = nil
	m.index = -1
}

// Len returns the number of entries.
func (m *Manager) Len() int { return len(m.entries) }

// Index returns the position of the current entry, -1 when empty.
func (m *Manager) Index() int { return m.index }

// Status summarises the stack for clients.
type Status struct {
	Entries int  `json:"entries"`
	Index   int  `json:"index"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// Status returns the current stack position.
func (m *Manager) Status() Status {
	return Status{Entries: len(m.entries), Index: m.index, CanUndo: m.CanUndo(), CanRedo: m.CanRedo()}
}
