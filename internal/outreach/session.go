// Package outreach owns the state of the bulk outreach screen: the active
// filter and page, the recipient selection, the draft message and the send
// lifecycle. Every mutation goes through Session so the pieces cannot drift
// apart.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/felo/case-outreach/internal/compose"
	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/filter"
	"github.com/felo/case-outreach/internal/mailer"
	"github.com/felo/case-outreach/internal/selection"
)

// CaseLister loads the cases of one owner
type CaseLister interface {
	ListCases(owner string) ([]crm.Case, error)
}

// EngineerLookup resolves one owner's engineer ids, preserving their order
type EngineerLookup interface {
	GetEngineers(owner string, ids []string) ([]crm.Engineer, error)
}

// Deps are the collaborators of a Session
type Deps struct {
	Cases     CaseLister
	Engineers EngineerLookup
	Sender    mailer.Sender
	Templates *compose.Engine
	Logger    *slog.Logger
}

// Session is the single state object behind the outreach screen. It is safe
// for concurrent use.
type Session struct {
	mu sync.Mutex

	owner     string
	cases     CaseLister
	engineers EngineerLookup
	sender    mailer.Sender
	templates *compose.Engine
	logger    *slog.Logger

	all        []crm.Case
	filtered   []crm.Case
	criteria   crm.FilterCriteria
	page       int
	pageSize   int
	totalPages int
	sel        *selection.Manager

	templateID        string
	subject           string
	body              string
	selectedEngineers []crm.Engineer
	sending           bool
}

// NewSession creates an empty session for owner. Call Refresh to load cases.
func NewSession(owner string, pageSize int, deps Deps) *Session {
	if pageSize < 1 {
		pageSize = 10
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		owner:      owner,
		cases:      deps.Cases,
		engineers:  deps.Engineers,
		sender:     deps.Sender,
		templates:  deps.Templates,
		logger:     logger,
		criteria:   crm.FilterCriteria{Company: crm.AllCompanies, Status: crm.AllStatuses},
		page:       1,
		pageSize:   pageSize,
		sel:        selection.NewManager(),
		templateID: compose.NoTemplate,
	}
}

// Refresh reloads the owner's cases and recomputes the visible page.
// The selection is reset.
func (s *Session) Refresh() error {
	cases, err := s.cases.ListCases(s.owner)
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = filter.WithKeyTechnologies(cases)
	s.recompute()
	return nil
}

// SetFilter replaces the filter criteria and returns to the first page
func (s *Session) SetFilter(criteria crm.FilterCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = criteria
	s.page = 1
	s.recompute()
}

// SetPage moves to page n, clamped to the available pages
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
	s.recompute()
}

// SetPageSize changes the page size and returns to the first page
func (s *Session) SetPageSize(n int) error {
	if n < 1 {
		return ErrInvalidPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
	s.page = 1
	s.recompute()
	return nil
}

// recompute filters and paginates, then rebuilds the visible rows. The
// selection does not survive a change of the visible page.
func (s *Session) recompute() {
	s.filtered = filter.Cases(s.all, s.criteria)
	_, s.totalPages = filter.Paginate(s.filtered, 1, s.pageSize)
	s.page = filter.ClampPage(s.page, s.totalPages)
	visible, _ := filter.Paginate(s.filtered, s.page, s.pageSize)
	s.sel.SetVisible(visible)
}

// SelectAllVisible selects every visible row, or clears the selection when
// all of them already are
func (s *Session) SelectAllVisible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SelectAllVisible()
}

// ToggleRow flips the selection of a row and reports whether it is now selected
func (s *Session) ToggleRow(caseID, rowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.ToggleRow(caseID, rowID)
}

// UnselectRow removes a row from the selection and reports whether it was there
func (s *Session) UnselectRow(caseID, rowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.UnselectRow(caseID, rowID)
}

// ClearSelection empties the selection
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Reset()
}

// SetSubject replaces the draft subject
func (s *Session) SetSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subject = subject
}

// SetBody replaces the draft body
func (s *Session) SetBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

// SelectEngineers replaces the engineer picks. Unknown ids and engineers of
// other owners are dropped.
func (s *Session) SelectEngineers(ids []string) error {
	var engineers []crm.Engineer
	if len(ids) > 0 {
		var err error
		engineers, err = s.engineers.GetEngineers(s.owner, ids)
		if err != nil {
			return fmt.Errorf("failed to load engineers: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedEngineers = engineers
	return nil
}

// ApplyTemplate replaces the draft with the rendered template. The none
// sentinel and unknown ids clear the draft.
func (s *Session) ApplyTemplate(id string) compose.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := s.sel.Selected()
	in := compose.Input{
		Cases:     make([]compose.SelectedCase, 0, len(selected)),
		Engineers: s.selectedEngineers,
	}
	for _, row := range selected {
		in.Cases = append(in.Cases, compose.SelectedCase{Case: row.Case, SenderName: row.SenderName})
	}

	msg := s.templates.Apply(id, in)
	s.templateID = id
	s.subject = msg.Subject
	s.body = msg.Body
	return msg
}

// CanSend reports whether Send would pass its preconditions right now
func (s *Session) CanSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.sending && s.validate(true) == nil
}

func (s *Session) validate(needRecipients bool) error {
	if needRecipients && s.sel.Len() == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(s.subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(s.body) == "" {
		return ErrEmptyBody
	}
	if needRecipients && !s.hasDeliverable() {
		return ErrNoDeliverable
	}
	return nil
}

// hasDeliverable reports whether at least one selected row carries an address
func (s *Session) hasDeliverable() bool {
	for _, row := range s.sel.Selected() {
		if strings.TrimSpace(row.SenderEmail) != "" {
			return true
		}
	}
	return false
}

// begin checks preconditions, marks the session as sending and captures
// the draft together with the current selection
func (s *Session) begin(needRecipients bool) (mailer.Message, []selection.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sending {
		return mailer.Message{}, nil, ErrSendInProgress
	}
	if err := s.validate(needRecipients); err != nil {
		return mailer.Message{}, nil, err
	}
	s.sending = true
	return mailer.Message{Subject: s.subject, Body: s.body}, s.sel.Selected(), nil
}

// Send delivers the draft to every selected row. On success the selection,
// draft and engineer picks are cleared. On failure or cancellation they are
// kept so the user can retry.
func (s *Session) Send(ctx context.Context) (*mailer.Receipt, error) {
	msg, selected, err := s.begin(true)
	if err != nil {
		return nil, err
	}

	recipients := make([]mailer.Recipient, len(selected))
	for i, row := range selected {
		recipients[i] = mailer.Recipient{CaseID: row.CaseID, Name: row.SenderName, Email: row.SenderEmail}
	}

	receipt, err := s.sender.SendBulk(ctx, msg, recipients)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		s.logger.Error("bulk send failed", "recipients", len(recipients), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.sel.Reset()
	s.templateID = compose.NoTemplate
	s.subject = ""
	s.body = ""
	s.selectedEngineers = nil
	return receipt, nil
}

// SendTest delivers the draft to the test address. Nothing is cleared.
func (s *Session) SendTest(ctx context.Context) (*mailer.Receipt, error) {
	msg, _, err := s.begin(false)
	if err != nil {
		return nil, err
	}

	receipt, err := s.sender.SendTest(ctx, msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return receipt, nil
}
