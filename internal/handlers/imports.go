package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/felo/case-outreach/internal/importer"
)

// importProgress holds the state of the background import
type importProgress struct {
	mu          sync.RWMutex
	running     bool
	current     int
	total       int
	currentFile string
	result      *importer.Result
	err         error
	startedAt   time.Time
	finishedAt  time.Time
	clients     []chan progressEvent
}

// progressEvent is one Server-Sent Event
type progressEvent struct {
	Type string `json:"type"` // "progress", "complete", "error"
	Data any    `json:"data"`
}

// ImportStatus is the JSON view of the import state
type ImportStatus struct {
	Running    bool             `json:"running"`
	Current    int              `json:"current"`
	Total      int              `json:"total"`
	File       string           `json:"file,omitempty"`
	Result     *importer.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

func (p *importProgress) status() ImportStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := ImportStatus{
		Running: p.running,
		Current: p.current,
		Total:   p.total,
		File:    p.currentFile,
		Result:  p.result,
	}
	if p.err != nil {
		s.Error = p.err.Error()
	}
	if !p.startedAt.IsZero() {
		started := p.startedAt
		s.StartedAt = &started
	}
	if !p.finishedAt.IsZero() {
		finished := p.finishedAt
		s.FinishedAt = &finished
	}
	return s
}

// StartImport ingests postings from the import root in the background
func (h *Handlers) StartImport(w http.ResponseWriter, r *http.Request) {
	p := h.imports
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		writeError(w, http.StatusConflict, "import_in_progress", "Import already in progress")
		return
	}
	p.running = true
	p.current = 0
	p.total = 0
	p.currentFile = ""
	p.result = nil
	p.err = nil
	p.startedAt = time.Now()
	p.finishedAt = time.Time{}
	p.mu.Unlock()

	im := importer.New(h.db, h.cfg.Data.ImportPath, h.cfg.Session.Owner, h.logger)

	go func() {
		// the request context ends with this handler
		result, err := im.Import(context.Background(), func(current, total int, path string) {
			p.mu.Lock()
			p.current = current
			p.total = total
			p.currentFile = path
			p.mu.Unlock()
			p.broadcast(progressEvent{Type: "progress", Data: p.status()})
		})

		p.mu.Lock()
		p.running = false
		p.finishedAt = time.Now()
		p.result = result
		p.err = err
		p.mu.Unlock()

		if err != nil {
			h.logger.Error("import failed", "error", err)
			p.broadcast(progressEvent{Type: "error", Data: map[string]string{"error": err.Error()}})
			return
		}
		h.refreshSession()
		p.broadcast(progressEvent{Type: "complete", Data: result})
	}()

	writeJSON(w, http.StatusAccepted, p.status())
}

// ImportStatus returns the current or last import state
func (h *Handlers) ImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.imports.status())
}

// ImportEvents streams import progress as Server-Sent Events
func (h *Handlers) ImportEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming unsupported")
		return
	}

	p := h.imports
	clientChan := make(chan progressEvent, 10)

	p.mu.Lock()
	p.clients = append(p.clients, clientChan)
	running := p.running
	p.mu.Unlock()

	defer p.unsubscribe(clientChan)

	if !running {
		// nothing will follow; report the last state and close
		h.sendSSE(w, flusher, "status", p.status())
		return
	}
	h.sendSSE(w, flusher, "progress", p.status())

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-clientChan:
			h.sendSSE(w, flusher, event.Type, event.Data)
			if event.Type == "complete" || event.Type == "error" {
				return
			}
		}
	}
}

func (p *importProgress) unsubscribe(ch chan progressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.clients {
		if c == ch {
			p.clients = append(p.clients[:i], p.clients[i+1:]...)
			return
		}
	}
}

// broadcast never blocks. Slow clients miss intermediate progress events but
// always receive the final one.
func (p *importProgress) broadcast(event progressEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	final := event.Type == "complete" || event.Type == "error"
	for _, client := range p.clients {
		select {
		case client <- event:
			continue
		default:
		}
		if !final {
			continue
		}
		select {
		case <-client:
		default:
		}
		select {
		case client <- event:
		default:
		}
	}
}

func (h *Handlers) sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
