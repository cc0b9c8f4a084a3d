package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/outreach"
)

// GetOutreach returns the session snapshot
func (h *Handlers) GetOutreach(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// RefreshOutreach reloads cases from the store
func (h *Handlers) RefreshOutreach(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Refresh(); err != nil {
		h.logger.Error("failed to refresh session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load cases")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type filterRequest struct {
	Company  string `json:"company"`
	Tech     string `json:"tech"`
	Status   string `json:"status"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// criteria converts the request. Plain dates cover the whole day, so a
// dateTo of 2024-05-01 includes cases registered that afternoon.
func (req filterRequest) criteria() (crm.FilterCriteria, error) {
	from, err := parseDate(req.DateFrom, false)
	if err != nil {
		return crm.FilterCriteria{}, err
	}
	to, err := parseDate(req.DateTo, true)
	if err != nil {
		return crm.FilterCriteria{}, err
	}
	return crm.FilterCriteria{
		Company:  req.Company,
		Tech:     req.Tech,
		Status:   req.Status,
		DateFrom: from,
		DateTo:   to,
	}, nil
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// SetFilter replaces the filter criteria
func (h *Handlers) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	criteria, err := req.criteria()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Dates must be YYYY-MM-DD or RFC 3339")
		return
	}
	h.session.SetFilter(criteria)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type pageRequest struct {
	Page     *int `json:"page"`
	PageSize *int `json:"pageSize"`
}

// SetPage changes the page size and/or the current page
func (h *Handlers) SetPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PageSize != nil {
		if err := h.session.SetPageSize(*req.PageSize); err != nil {
			writeSessionError(w, err)
			return
		}
	}
	if req.Page != nil {
		h.session.SetPage(*req.Page)
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// SelectAll toggles selection of every visible row
func (h *Handlers) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.session.SelectAllVisible()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type rowRequest struct {
	CaseID string `json:"caseId"`
	RowID  string `json:"rowId"`
}

func (h *Handlers) ToggleRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.session.ToggleRow(req.CaseID, req.RowID)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handlers) UnselectRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.session.UnselectRow(req.CaseID, req.RowID)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handlers) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.session.ClearSelection()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type messageRequest struct {
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

// SetMessage edits the draft. Omitted fields are left unchanged.
func (h *Handlers) SetMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Subject != nil {
		h.session.SetSubject(*req.Subject)
	}
	if req.Body != nil {
		h.session.SetBody(*req.Body)
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type engineersRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handlers) SetEngineers(w http.ResponseWriter, r *http.Request) {
	var req engineersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.SelectEngineers(req.IDs); err != nil {
		h.logger.Error("failed to select engineers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load engineers")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type templateRequest struct {
	TemplateID string `json:"templateId"`
}

// ApplyTemplate renders a template into the draft
func (h *Handlers) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.session.ApplyTemplate(req.TemplateID)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Send delivers the draft to the selected rows
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.session.Send(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// SendTest delivers the draft to the configured test address
func (h *Handlers) SendTest(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.session.SendTest(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outreach.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, outreach.ErrSendInProgress):
		writeError(w, http.StatusConflict, "send_in_progress", "A send is already in progress")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", "Send was cancelled before completion")
	case errors.Is(err, outreach.ErrSendFailed):
		writeError(w, http.StatusBadGateway, "send_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
