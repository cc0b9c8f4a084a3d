package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/google/uuid"
)

const caseColumns = `
	id, owner, title, skills, key_technologies, location, budget, status,
	company, legacy_sender, legacy_sender_email, description,
	COALESCE(source_path, ''), created_at, registered_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(s rowScanner) (*crm.Case, error) {
	c := &crm.Case{}
	var skills string
	var createdAt, registeredAt NullTime
	err := s.Scan(
		&c.ID, &c.Owner, &c.Title, &skills, &c.KeyTechnologies, &c.Location, &c.Budget, &c.Status,
		&c.Company, &c.Sender, &c.SenderEmail, &c.Description,
		&c.SourcePath, &createdAt, &registeredAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Skills, err = decodeList(skills); err != nil {
		return nil, fmt.Errorf("case %s: %w", c.ID, err)
	}
	c.CreatedAt = createdAt.Time
	c.RegisteredAt = registeredAt.Time
	return c, nil
}

// CreateCase inserts a case and its senders in one transaction.
// An empty ID is replaced by a new UUID; the stored ID is returned.
func (db *DB) CreateCase(c *crm.Case) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = crm.StatusRecruiting
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	skills, err := encodeList(c.Skills)
	if err != nil {
		return "", err
	}

	var sourcePath any
	if c.SourcePath != "" {
		sourcePath = c.SourcePath
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO cases (
			id, owner, title, skills, key_technologies, location, budget, status,
			company, legacy_sender, legacy_sender_email, description,
			source_path, created_at, registered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.Owner, c.Title, skills, c.KeyTechnologies, c.Location, c.Budget, c.Status,
		c.Company, c.Sender, c.SenderEmail, c.Description,
		sourcePath, NewNullTime(c.CreatedAt), NewNullTime(c.RegisteredAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert case: %w", err)
	}

	if len(c.Senders) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO case_senders (case_id, position, name, email, title)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return "", fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, s := range c.Senders {
			if _, err := stmt.Exec(c.ID, i, s.Name, s.Email, s.Position); err != nil {
				return "", fmt.Errorf("failed to insert sender %d of case %s: %w", i, c.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return c.ID, nil
}

// GetCase retrieves a case with its senders; nil when not found
func (db *DB) GetCase(id string) (*crm.Case, error) {
	c, err := scanCase(db.QueryRow("SELECT "+caseColumns+" FROM cases WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	senders, err := db.sendersFor("case_id = ?", id)
	if err != nil {
		return nil, err
	}
	c.Senders = senders[c.ID]
	return c, nil
}

// ListCases returns every case in the owner's partition, newest first
func (db *DB) ListCases(owner string) ([]crm.Case, error) {
	rows, err := db.Query(`
		SELECT `+caseColumns+`
		FROM cases
		WHERE owner = ?
		ORDER BY created_at DESC, id
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []crm.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}

	senders, err := db.sendersFor("case_id IN (SELECT id FROM cases WHERE owner = ?)", owner)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		cases[i].Senders = senders[cases[i].ID]
	}

	return cases, nil
}

// sendersFor loads senders matching the where clause, grouped by case id
// and ordered by position.
func (db *DB) sendersFor(where string, args ...any) (map[string][]crm.Sender, error) {
	rows, err := db.Query(`
		SELECT case_id, name, email, title
		FROM case_senders
		WHERE `+where+`
		ORDER BY case_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load senders: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]crm.Sender)
	for rows.Next() {
		var caseID string
		var s crm.Sender
		if err := rows.Scan(&caseID, &s.Name, &s.Email, &s.Position); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		result[caseID] = append(result[caseID], s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating senders: %w", err)
	}
	return result, nil
}

// DeleteCase deletes a case; its senders go with it
func (db *DB) DeleteCase(id string) error {
	result, err := db.Exec("DELETE FROM cases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CaseSourcesExist reports which import paths already produced a case
func (db *DB) CaseSourcesExist(paths []string) (map[string]bool, error) {
	result := make(map[string]bool, len(paths))

	// SQLite limits the number of variables per statement (default 999)
	chunkSize := 500
	for i := 0; i < len(paths); i += chunkSize {
		end := min(i+chunkSize, len(paths))
		if err := db.checkSourceChunk(paths[i:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (db *DB) checkSourceChunk(paths []string, result map[string]bool) error {
	if len(paths) == 0 {
		return nil
	}

	query := "SELECT source_path FROM cases WHERE source_path IN (?" +
		strings.Repeat(",?", len(paths)-1) + ")"

	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
		result[p] = false
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to check case sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return fmt.Errorf("failed to scan source path: %w", err)
		}
		result[p] = true
	}
	return rows.Err()
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return items, nil
}
