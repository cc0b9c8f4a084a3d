package parser

import "time"

// Address is a parsed mailbox
type Address struct {
	Name  string
	Email string
}

// ParsedEmail represents a parsed email with all its components
type ParsedEmail struct {
	MessageID  string
	Subject    string
	Sender     string
	SenderName string
	Recipients []string
	CC         []Address
	Date       time.Time
	BodyText   string
	BodyHTML   string
	RawHeaders string

	// Posting metadata carried in custom headers
	CaseID   string   // X-Case-Id
	Company  string   // X-Company
	Skills   []string // X-Skills, comma separated
	Location string   // X-Location
	Budget   string   // X-Budget
}
