package outreach

import (
	"slices"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/filter"
	"github.com/felo/case-outreach/internal/selection"
)

// Snapshot is a point-in-time copy of the session state. Mutating it does
// not affect the session.
type Snapshot struct {
	Criteria      crm.FilterCriteria `json:"criteria"`
	Page          int                `json:"page"`
	PageSize      int                `json:"pageSize"`
	TotalPages    int                `json:"totalPages"`
	TotalFiltered int                `json:"totalFiltered"`
	Rows          []selection.Row    `json:"rows"`
	Selected      []selection.Row    `json:"selected"`
	AllSelected   bool               `json:"allSelected"`
	TotalVisible  int                `json:"totalVisible"`
	Companies     []string           `json:"companies"`
	TemplateID    string             `json:"templateId"`
	Subject       string             `json:"subject"`
	Body          string             `json:"body"`
	Engineers     []crm.Engineer     `json:"engineers"`
	Sending       bool               `json:"sending"`
	CanSend       bool               `json:"canSend"`
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Criteria:      s.criteria,
		Page:          s.page,
		PageSize:      s.pageSize,
		TotalPages:    s.totalPages,
		TotalFiltered: len(s.filtered),
		Rows:          orEmpty(s.sel.Rows()),
		Selected:      orEmpty(s.sel.Selected()),
		AllSelected:   s.sel.AllSelected(),
		TotalVisible:  s.sel.TotalVisible(),
		Companies:     orEmpty(filter.Companies(s.all)),
		TemplateID:    s.templateID,
		Subject:       s.subject,
		Body:          s.body,
		Engineers:     orEmpty(slices.Clone(s.selectedEngineers)),
		Sending:       s.sending,
		CanSend:       !s.sending && s.validate(true) == nil,
	}
}

// orEmpty keeps JSON output as [] rather than null
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
