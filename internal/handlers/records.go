package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/filter"
	"github.com/felo/case-outreach/internal/parser"
	"github.com/go-chi/chi/v5"
)

const (
	defaultOutboxLimit = 50
	maxOutboxLimit     = 500
)

// ListTemplates returns the template catalogue
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogue.List())
}

// ListCompanies returns the distinct company names of the owner's cases
func (h *Handlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	cases, err := h.db.ListCases(h.cfg.Session.Owner)
	if err != nil {
		h.logger.Error("failed to list cases", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load companies")
		return
	}
	companies := filter.Companies(cases)
	if companies == nil {
		companies = []string{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *Handlers) ListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.db.ListCases(h.cfg.Session.Owner)
	if err != nil {
		h.logger.Error("failed to list cases", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load cases")
		return
	}
	if cases == nil {
		cases = []crm.Case{}
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.db.GetCase(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("failed to get case", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load case")
		return
	}
	if c == nil || c.Owner != h.cfg.Session.Owner {
		writeError(w, http.StatusNotFound, "not_found", "Case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCase stores a case in the session owner's partition
func (h *Handlers) CreateCase(w http.ResponseWriter, r *http.Request) {
	var c crm.Case
	if !decodeJSON(w, r, &c) {
		return
	}
	if strings.TrimSpace(c.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Title is required")
		return
	}
	c.Owner = h.cfg.Session.Owner
	c.SourcePath = ""
	c.CreatedAt = time.Time{}

	if _, err := h.db.CreateCase(&c); err != nil {
		h.logger.Error("failed to create case", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create case")
		return
	}
	h.refreshSession()
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.db.GetCase(id)
	if err == nil && (c == nil || c.Owner != h.cfg.Session.Owner) {
		err = db.ErrNotFound
	}
	if err == nil {
		err = h.db.DeleteCase(id)
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Case not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete case", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete case")
		return
	}
	h.refreshSession()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListEngineers(w http.ResponseWriter, r *http.Request) {
	engineers, err := h.db.ListEngineers(h.cfg.Session.Owner)
	if err != nil {
		h.logger.Error("failed to list engineers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load engineers")
		return
	}
	if engineers == nil {
		engineers = []crm.Engineer{}
	}
	writeJSON(w, http.StatusOK, engineers)
}

func (h *Handlers) CreateEngineer(w http.ResponseWriter, r *http.Request) {
	var e crm.Engineer
	if !decodeJSON(w, r, &e) {
		return
	}
	if strings.TrimSpace(e.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Name is required")
		return
	}
	e.Owner = h.cfg.Session.Owner

	if _, err := h.db.CreateEngineer(&e); err != nil {
		h.logger.Error("failed to create engineer", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create engineer")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// OutboxList is a page of sent messages
type OutboxList struct {
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Messages []*db.OutboxMessage `json:"messages"`
}

// ListOutbox returns the owner's sent messages, newest first
func (h *Handlers) ListOutbox(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultOutboxLimit
	}
	limit = min(limit, maxOutboxLimit)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	messages, err := h.db.ListOutbox(h.cfg.Session.Owner, limit, offset)
	if err != nil {
		h.logger.Error("failed to list outbox", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load outbox")
		return
	}
	total, err := h.db.CountOutbox(h.cfg.Session.Owner)
	if err != nil {
		h.logger.Error("failed to count outbox", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load outbox")
		return
	}
	if messages == nil {
		messages = []*db.OutboxMessage{}
	}

	writeJSON(w, http.StatusOK, OutboxList{Total: total, Limit: limit, Offset: offset, Messages: messages})
}

// OutboxDetail is a sent message with its headers parsed back from the raw
// RFC 5322 text
type OutboxDetail struct {
	*db.OutboxMessage
	MessageID  string    `json:"messageId"`
	From       string    `json:"from"`
	FromName   string    `json:"fromName,omitempty"`
	To         []string  `json:"to"`
	Date       time.Time `json:"date"`
	RawHeaders string    `json:"rawHeaders"`
}

func (h *Handlers) GetOutboxMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid message ID")
		return
	}

	msg, err := h.db.GetOutboxMessage(id)
	if err != nil {
		h.logger.Error("failed to get outbox message", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load message")
		return
	}
	if msg == nil || msg.Owner != h.cfg.Session.Owner {
		writeError(w, http.StatusNotFound, "not_found", "Message not found")
		return
	}

	parsed, err := parser.ParseEML(bytes.NewReader(msg.Raw))
	if err != nil {
		h.logger.Error("failed to parse stored message", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Stored message is unreadable")
		return
	}

	writeJSON(w, http.StatusOK, OutboxDetail{
		OutboxMessage: msg,
		MessageID:     parsed.MessageID,
		From:          parsed.Sender,
		FromName:      parsed.SenderName,
		To:            parsed.Recipients,
		Date:          parsed.Date,
		RawHeaders:    parsed.RawHeaders,
	})
}
