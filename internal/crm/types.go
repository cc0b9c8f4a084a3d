// Package crm holds the records shared by the outreach core: job postings
// (cases), their sender contacts, engineers and message templates.
package crm

import (
	"strings"
	"time"
)

// Case statuses used by the case screens. Other values are kept as free text.
const (
	StatusRecruiting = "recruiting"
	StatusClosed     = "closed"
)

// Case represents a job posting
type Case struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner,omitempty"`
	Title           string    `json:"title"`
	Skills          []string  `json:"skills"`
	KeyTechnologies string    `json:"keyTechnologies,omitempty"`
	Location        string    `json:"location,omitempty"`
	Budget          string    `json:"budget,omitempty"`
	Status          string    `json:"status"`
	Company         string    `json:"company,omitempty"`
	Senders         []Sender  `json:"senders,omitempty"`
	Sender          string    `json:"sender,omitempty"`      // legacy single sender (name or address)
	SenderEmail     string    `json:"senderEmail,omitempty"` // legacy single sender address
	Description     string    `json:"description,omitempty"`
	SourcePath      string    `json:"sourcePath,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	RegisteredAt    time.Time `json:"registeredAt"`
}

// Sender is a contact belonging to a case
type Sender struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Position string `json:"position,omitempty"`
}

// Contacts is the resolved shape of a case's sender fields. It is one of
// SenderList, LegacySender or NoSender.
type Contacts interface {
	contacts()
}

// SenderList is a case carrying an explicit, non-empty senders sequence.
type SenderList []Sender

// LegacySender is a case carrying only the old single sender/senderEmail pair.
type LegacySender struct {
	Name  string
	Email string
}

// NoSender is a case with no contact information at all.
type NoSender struct{}

func (SenderList) contacts()   {}
func (LegacySender) contacts() {}
func (NoSender) contacts()     {}

// Contacts resolves which sender representation the case uses.
func (c *Case) Contacts() Contacts {
	if len(c.Senders) > 0 {
		return SenderList(c.Senders)
	}
	if c.Sender != "" || c.SenderEmail != "" {
		email := c.SenderEmail
		name := c.Sender
		// Older records stored the address in the sender field itself.
		if email == "" && strings.Contains(c.Sender, "@") {
			email = c.Sender
		}
		return LegacySender{Name: name, Email: email}
	}
	return NoSender{}
}

// TechnologyText returns the key technologies text used for filtering,
// falling back to the skills joined with ", ".
func (c *Case) TechnologyText() string {
	if c.KeyTechnologies != "" {
		return c.KeyTechnologies
	}
	return strings.Join(c.Skills, ", ")
}

// Engineer is a candidate record used as a placeholder source
type Engineer struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner,omitempty"`
	Name       string    `json:"name"`
	Skills     []string  `json:"skills"`
	Experience string    `json:"experience"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Template is a named subject/body pair with {{key}} placeholders
type Template struct {
	ID      string `json:"id" toml:"id"`
	Name    string `json:"name" toml:"name"`
	Subject string `json:"subject" toml:"subject"`
	Body    string `json:"body" toml:"body"`
}

// FilterCriteria narrows the case list shown on the outreach screens.
// Company "all" (or empty) and Status "all" (or empty) match everything.
// Zero dates are open bounds.
type FilterCriteria struct {
	Company  string    `json:"company"`
	Tech     string    `json:"tech"`
	Status   string    `json:"status"`
	DateFrom time.Time `json:"dateFrom"`
	DateTo   time.Time `json:"dateTo"`
}

// AllCompanies is the company filter value that matches every case.
const AllCompanies = "all"

// AllStatuses is the status filter value that matches every case.
const AllStatuses = "all"
