package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/google/uuid"
)

// CreateEngineer inserts an engineer; an empty ID is replaced by a new UUID
func (db *DB) CreateEngineer(e *crm.Engineer) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	skills, err := encodeList(e.Skills)
	if err != nil {
		return "", err
	}

	_, err = db.Exec(`
		INSERT INTO engineers (id, owner, name, skills, experience, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Owner, e.Name, skills, e.Experience, NewNullTime(e.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert engineer: %w", err)
	}
	return e.ID, nil
}

// ListEngineers returns the owner's engineers ordered by name
func (db *DB) ListEngineers(owner string) ([]crm.Engineer, error) {
	return db.queryEngineers(`
		SELECT id, owner, name, skills, experience, created_at
		FROM engineers WHERE owner = ?
		ORDER BY name, id
	`, owner)
}

// GetEngineers returns the owner's engineers with the given ids in the
// order the ids were given. Unknown ids and other owners' engineers are
// skipped.
func (db *DB) GetEngineers(owner string, ids []string) ([]crm.Engineer, error) {
	if len(ids) == 0 {
		return []crm.Engineer{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, owner)
	for _, id := range ids {
		args = append(args, id)
	}

	found, err := db.queryEngineers(`
		SELECT id, owner, name, skills, experience, created_at
		FROM engineers WHERE owner = ? AND id IN (?`+strings.Repeat(",?", len(ids)-1)+`)
	`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]crm.Engineer, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	result := make([]crm.Engineer, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			result = append(result, e)
		}
	}
	return result, nil
}

func (db *DB) queryEngineers(query string, args ...any) ([]crm.Engineer, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query engineers: %w", err)
	}
	defer rows.Close()

	var engineers []crm.Engineer
	for rows.Next() {
		var e crm.Engineer
		var skills string
		var createdAt NullTime
		if err := rows.Scan(&e.ID, &e.Owner, &e.Name, &skills, &e.Experience, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan engineer: %w", err)
		}
		if e.Skills, err = decodeList(skills); err != nil {
			return nil, fmt.Errorf("engineer %s: %w", e.ID, err)
		}
		e.CreatedAt = createdAt.Time
		engineers = append(engineers, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engineers: %w", err)
	}
	return engineers, nil
}
