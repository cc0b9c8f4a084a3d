package selection

import (
	"github.com/felo/case-outreach/internal/crm"
)

// Manager owns the selection set for the currently visible page of cases.
// It is not safe for concurrent use; callers serialize access.
type Manager struct {
	rows        []Row
	selected    []Row
	allSelected bool
}

// NewManager creates a manager with nothing visible and nothing selected.
func NewManager() *Manager {
	return &Manager{}
}

// SetVisible replaces the visible page and clears the selection.
func (m *Manager) SetVisible(cases []crm.Case) {
	m.rows = Flatten(cases)
	m.Reset()
}

// Rows returns the flattened rows of the visible page.
func (m *Manager) Rows() []Row {
	return append([]Row(nil), m.rows...)
}

// Selected returns the selection set in selection order.
func (m *Manager) Selected() []Row {
	return append([]Row(nil), m.selected...)
}

// Len is the number of selected rows.
func (m *Manager) Len() int {
	return len(m.selected)
}

// TotalVisible is the number of rows on the visible page.
func (m *Manager) TotalVisible() int {
	return len(m.rows)
}

// AllSelected reports whether every visible row is selected.
func (m *Manager) AllSelected() bool {
	return m.allSelected
}

// IsSelected reports whether the (caseID, rowID) pair is in the selection.
func (m *Manager) IsSelected(caseID, rowID string) bool {
	return m.indexOf(caseID, rowID) >= 0
}

// SelectAllVisible clears the selection when everything is already selected,
// and otherwise selects exactly the rows of the visible page.
func (m *Manager) SelectAllVisible() {
	if m.allSelected {
		m.selected = nil
	} else {
		m.selected = append([]Row(nil), m.rows...)
	}
	m.recompute()
}

// ToggleRow removes the pair if selected, otherwise adds it. It returns
// whether the pair is selected afterwards. A row id that is not on the page
// selects the visible row of the same case and sender index; pairs that
// resolve to no visible row are ignored.
func (m *Manager) ToggleRow(caseID, rowID string) bool {
	if i := m.indexOf(caseID, rowID); i >= 0 {
		m.removeAt(i)
		m.recompute()
		return false
	}

	row, ok := m.resolve(caseID, rowID)
	if !ok {
		return false
	}
	if m.indexOf(row.CaseID, row.RowID) >= 0 {
		return true
	}
	m.selected = append(m.selected, row)
	m.recompute()
	return true
}

// UnselectRow removes the pair if present and reports whether it was.
func (m *Manager) UnselectRow(caseID, rowID string) bool {
	i := m.indexOf(caseID, rowID)
	if i < 0 {
		return false
	}
	m.removeAt(i)
	m.recompute()
	return true
}

// Reset empties the selection.
func (m *Manager) Reset() {
	m.selected = nil
	m.allSelected = false
}

func (m *Manager) recompute() {
	m.allSelected = len(m.rows) > 0 && len(m.selected) == len(m.rows)
}

func (m *Manager) indexOf(caseID, rowID string) int {
	for i, s := range m.selected {
		if s.CaseID == caseID && s.RowID == rowID {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAt(i int) {
	m.selected = append(m.selected[:i:i], m.selected[i+1:]...)
}

// resolve maps a pair onto a row of the visible page. Unknown row ids of a
// visible case fall back to the row at the encoded sender index, then to the
// single legacy or contactless row. The result is always a flattened row.
func (m *Manager) resolve(caseID, rowID string) (Row, bool) {
	var candidates []Row
	for _, r := range m.rows {
		if r.CaseID != caseID {
			continue
		}
		if r.RowID == rowID {
			return r, true
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return Row{}, false
	}

	idx := senderIndex(rowID)
	for _, r := range candidates {
		if r.SenderIndex == idx {
			return r, true
		}
	}

	// only cases without a senders list have a single index-free row
	if _, ok := candidates[0].Case.Contacts().(crm.SenderList); !ok {
		return candidates[0], true
	}
	return Row{}, false
}
