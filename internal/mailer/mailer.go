// Package mailer is the delivery collaborator behind bulk outreach. The
// Simulated sender composes real RFC 5322 messages but only records them in
// the outbox.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoRecipients is returned by SendBulk when no recipient has an address
var ErrNoRecipients = errors.New("no deliverable recipients")

// Message is the composed subject and body shared by every recipient
type Message struct {
	Subject string
	Body    string
}

// Recipient is one addressee of a bulk send
type Recipient struct {
	CaseID string
	Name   string
	Email  string
}

// Receipt summarizes an accepted send
type Receipt struct {
	BatchID string    `json:"batchId"`
	Sent    int       `json:"sent"`
	Skipped int       `json:"skipped"` // recipients without an address
	SentAt  time.Time `json:"sentAt"`
}

// Sender delivers composed messages. Implementations must apply a send
// completely or not at all.
type Sender interface {
	SendBulk(ctx context.Context, msg Message, recipients []Recipient) (*Receipt, error)
	SendTest(ctx context.Context, msg Message) (*Receipt, error)
}

// Options configures the simulated sender
type Options struct {
	Owner         string // tenant recorded on every outbox message
	FromAddress   string
	FromName      string
	TestAddress   string
	Delay         time.Duration
	RatePerSecond float64
	Workers       int
	Logger        *slog.Logger
}
