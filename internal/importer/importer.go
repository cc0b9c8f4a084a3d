// Package importer ingests job postings stored as .eml files into cases.
package importer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/parser"
	"github.com/felo/case-outreach/internal/scanner"
	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag from HTML-only postings
var textPolicy = bluemonday.StrictPolicy()

// Importer handles case ingestion from an import root
type Importer struct {
	db          *db.DB
	scanner     *scanner.Scanner
	owner       string
	logger      *slog.Logger
	concurrency int
}

// New creates an importer that stores cases under owner
func New(database *db.DB, importPath, owner string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:          database,
		scanner:     scanner.NewScanner(importPath),
		owner:       owner,
		logger:      logger,
		concurrency: runtime.NumCPU() * 2,
	}
}

// WithConcurrency sets the number of concurrent workers
func (im *Importer) WithConcurrency(workers int) *Importer {
	if workers < 1 {
		workers = 1
	}
	im.concurrency = workers
	return im
}

// Result contains statistics about an import run
type Result struct {
	TotalFound  int      `json:"totalFound"`
	NewImported int      `json:"newImported"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	FailedFiles []string `json:"failedFiles"`
}

type importStatus int

const (
	statusImported importStatus = iota
	statusSkipped
	statusFailed
)

type fileResult struct {
	path   string
	status importStatus
}

// Import scans the root and ingests every posting not seen before. progress
// may be nil.
func (im *Importer) Import(ctx context.Context, progress func(current, total int, path string)) (*Result, error) {
	files, err := im.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &Result{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}
	if len(files) == 0 {
		return result, nil
	}

	exists, err := im.db.CaseSourcesExist(files)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing cases: %w", err)
	}

	im.logger.Debug("importing postings", "files", len(files), "workers", im.concurrency)

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < im.concurrency; i++ {
		wg.Add(1)
		go im.worker(ctx, &wg, fileChan, resultChan)
	}

	for _, file := range files {
		if exists[file] {
			resultChan <- fileResult{path: file, status: statusSkipped}
			continue
		}
		fileChan <- file
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	processed := 0
	for res := range resultChan {
		processed++
		if progress != nil {
			progress(processed, result.TotalFound, res.path)
		}

		switch res.status {
		case statusImported:
			result.NewImported++
		case statusSkipped:
			result.Skipped++
		case statusFailed:
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.path)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if result.NewImported > 0 {
		if err := im.db.SetSetting(db.SettingLastImport, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return result, err
		}
	}

	im.logger.Info("import complete",
		"new", result.NewImported, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (im *Importer) worker(ctx context.Context, wg *sync.WaitGroup, fileChan <-chan string, resultChan chan<- fileResult) {
	defer wg.Done()

	for path := range fileChan {
		if ctx.Err() != nil {
			resultChan <- fileResult{path: path, status: statusFailed}
			continue
		}
		resultChan <- fileResult{path: path, status: im.importFile(path)}
	}
}

func (im *Importer) importFile(relPath string) importStatus {
	full, err := im.scanner.Resolve(relPath)
	if err != nil {
		im.logger.Warn("rejected path", "path", relPath, "error", err)
		return statusFailed
	}

	parsed, err := parser.ParseEMLFile(full)
	if err != nil {
		im.logger.Warn("failed to parse posting", "path", relPath, "error", err)
		return statusFailed
	}

	c := CaseFromEmail(parsed)
	c.Owner = im.owner
	c.SourcePath = relPath

	if _, err := im.db.CreateCase(c); err != nil {
		im.logger.Warn("failed to store case", "path", relPath, "error", err)
		return statusFailed
	}
	return statusImported
}

// CaseFromEmail maps a parsed posting onto a recruiting case. The From
// mailbox becomes the first sender and Cc mailboxes follow it.
func CaseFromEmail(p *parser.ParsedEmail) *crm.Case {
	c := &crm.Case{
		ID:           p.CaseID,
		Title:        strings.TrimSpace(p.Subject),
		Skills:       p.Skills,
		Location:     p.Location,
		Budget:       p.Budget,
		Status:       crm.StatusRecruiting,
		Company:      p.Company,
		Description:  strings.TrimSpace(p.BodyText),
		RegisteredAt: p.Date,
	}
	if c.Description == "" && p.BodyHTML != "" {
		c.Description = htmlToText(p.BodyHTML)
	}

	if p.Sender != "" {
		c.Senders = append(c.Senders, crm.Sender{Name: p.SenderName, Email: p.Sender})
	}
	for _, cc := range p.CC {
		if cc.Email == "" || cc.Email == p.Sender {
			continue
		}
		c.Senders = append(c.Senders, crm.Sender{Name: cc.Name, Email: cc.Email})
	}

	if c.Company == "" {
		c.Company = domainOf(p.Sender)
	}
	if c.Title == "" {
		c.Title = "(no subject)"
	}
	return c
}

func domainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return strings.ToLower(email[at+1:])
	}
	return ""
}

// htmlToText reduces an HTML body to plain text for the case description
func htmlToText(body string) string {
	text := html.UnescapeString(textPolicy.Sanitize(body))
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
