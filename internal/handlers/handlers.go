// Package handlers exposes the outreach session and the case records over a
// JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felo/case-outreach/internal/compose"
	"github.com/felo/case-outreach/internal/config"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/outreach"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db        *db.DB
	cfg       *config.Config
	session   *outreach.Session
	catalogue *compose.Catalogue
	logger    *slog.Logger
	imports   *importProgress
}

// New creates a new Handlers instance
func New(database *db.DB, cfg *config.Config, session *outreach.Session, catalogue *compose.Catalogue, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		db:        database,
		cfg:       cfg,
		session:   session,
		catalogue: catalogue,
		logger:    logger,
		imports:   &importProgress{},
	}
}

// Router builds the chi router with every route and middleware
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.Stats)

		r.Route("/outreach", func(r chi.Router) {
			r.Get("/", h.GetOutreach)
			r.Post("/refresh", h.RefreshOutreach)
			r.Put("/filter", h.SetFilter)
			r.Put("/page", h.SetPage)
			r.Post("/select-all", h.SelectAll)
			r.Post("/rows/toggle", h.ToggleRow)
			r.Post("/rows/unselect", h.UnselectRow)
			r.Delete("/selection", h.ClearSelection)
			r.Put("/message", h.SetMessage)
			r.Put("/engineers", h.SetEngineers)
			r.Post("/template", h.ApplyTemplate)
			r.Post("/send", h.Send)
			r.Post("/send-test", h.SendTest)
		})

		r.Get("/templates", h.ListTemplates)
		r.Get("/companies", h.ListCompanies)

		r.Get("/cases", h.ListCases)
		r.Post("/cases", h.CreateCase)
		r.Get("/cases/{id}", h.GetCase)
		r.Delete("/cases/{id}", h.DeleteCase)

		r.Get("/engineers", h.ListEngineers)
		r.Post("/engineers", h.CreateEngineer)

		r.Get("/outbox", h.ListOutbox)
		r.Get("/outbox/{id}", h.GetOutboxMessage)

		r.Post("/import", h.StartImport)
		r.Get("/import", h.ImportStatus)
		r.Get("/import/events", h.ImportEvents)
	})

	return r
}

func (h *Handlers) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			h.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// decodeJSON reads a bounded JSON body into v. It writes the 400 response
// itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return false
	}
	return true
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats returns record counts for the session owner
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats(h.cfg.Session.Owner)
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// refreshSession reloads cases after the store changed underneath the session
func (h *Handlers) refreshSession() {
	if err := h.session.Refresh(); err != nil {
		h.logger.Error("failed to refresh session", "error", err)
	}
}
