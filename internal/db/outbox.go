package db

import (
	"database/sql"
	"fmt"
	"time"
)

// OutboxMessage is one message accepted by the sender
type OutboxMessage struct {
	ID            int64     `json:"id"`
	BatchID       string    `json:"batchId"`
	Owner         string    `json:"owner,omitempty"`
	CaseID        string    `json:"caseId,omitempty"`
	Recipient     string    `json:"recipient"`
	RecipientName string    `json:"recipientName,omitempty"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Raw           []byte    `json:"-"` // full RFC 5322 message, only loaded by GetOutboxMessage
	IsTest        bool      `json:"isTest"`
	SentAt        time.Time `json:"sentAt"`
}

// InsertOutboxBatch inserts messages in a single transaction, so a batch is
// either stored completely or not at all. IDs are set on the inputs.
func (db *DB) InsertOutboxBatch(messages []*OutboxMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO outbox (
			batch_id, owner, case_id, recipient, recipient_name, subject, body, raw, is_test, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		result, err := stmt.Exec(
			m.BatchID, m.Owner, m.CaseID, m.Recipient, m.RecipientName, m.Subject, m.Body, m.Raw, m.IsTest,
			NewNullTime(m.SentAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox message for %s: %w", m.Recipient, err)
		}
		if m.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListOutbox returns the owner's most recent messages (without raw content)
func (db *DB) ListOutbox(owner string, limit, offset int) ([]*OutboxMessage, error) {
	rows, err := db.Query(`
		SELECT id, batch_id, owner, case_id, recipient, recipient_name, subject, body, is_test, sent_at
		FROM outbox
		WHERE owner = ?
		ORDER BY sent_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer rows.Close()

	var messages []*OutboxMessage
	for rows.Next() {
		m := &OutboxMessage{}
		var sentAt NullTime
		err := rows.Scan(&m.ID, &m.BatchID, &m.Owner, &m.CaseID, &m.Recipient, &m.RecipientName,
			&m.Subject, &m.Body, &m.IsTest, &sentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		m.SentAt = sentAt.Time
		messages = append(messages, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox: %w", err)
	}
	return messages, nil
}

// GetOutboxMessage retrieves one message including its raw content
func (db *DB) GetOutboxMessage(id int64) (*OutboxMessage, error) {
	m := &OutboxMessage{}
	var sentAt NullTime
	err := db.QueryRow(`
		SELECT id, batch_id, owner, case_id, recipient, recipient_name, subject, body, raw, is_test, sent_at
		FROM outbox WHERE id = ?
	`, id).Scan(&m.ID, &m.BatchID, &m.Owner, &m.CaseID, &m.Recipient, &m.RecipientName,
		&m.Subject, &m.Body, &m.Raw, &m.IsTest, &sentAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox message: %w", err)
	}
	m.SentAt = sentAt.Time
	return m, nil
}

// CountOutbox returns the number of messages stored for the owner
func (db *DB) CountOutbox(owner string) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM outbox WHERE owner = ?", owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return count, nil
}
