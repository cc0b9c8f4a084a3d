// Package parser reads RFC 5322 messages: job postings to ingest and
// outbox messages to display.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ParseEMLFile parses an .eml file and returns a ParsedEmail
func ParseEMLFile(filePath string) (*ParsedEmail, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseEML(f)
}

// ParseEML parses an email from a reader
func ParseEML(r io.Reader) (*ParsedEmail, error) {
	// Read the entire message first to capture raw headers
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}
	defer mr.Close()

	parsed := &ParsedEmail{
		RawHeaders: extractRawHeaders(buf.String()),
	}

	header := mr.Header

	if msgID, err := header.MessageID(); err == nil && msgID != "" {
		parsed.MessageID = "<" + msgID + ">"
	}

	parsed.Subject = decodeMIMEWord(header.Get("Subject"))

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		parsed.Sender = fromAddrs[0].Address
		parsed.SenderName = fromAddrs[0].Name
	}

	if toAddrs, err := header.AddressList("To"); err == nil {
		for _, addr := range toAddrs {
			parsed.Recipients = append(parsed.Recipients, addr.Address)
		}
	}

	if ccAddrs, err := header.AddressList("Cc"); err == nil {
		for _, addr := range ccAddrs {
			parsed.CC = append(parsed.CC, Address{Name: addr.Name, Email: addr.Address})
		}
	}

	// A missing or broken Date header leaves the zero time
	if date, err := header.Date(); err == nil {
		parsed.Date = date
	}

	parsed.CaseID = strings.TrimSpace(header.Get("X-Case-Id"))
	parsed.Company = decodeMIMEWord(header.Get("X-Company"))
	parsed.Skills = splitList(decodeMIMEWord(header.Get("X-Skills")))
	parsed.Location = decodeMIMEWord(header.Get("X-Location"))
	parsed.Budget = decodeMIMEWord(header.Get("X-Budget"))

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		// Attachments carry nothing a posting or outbox view needs
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"), contentType == "":
			if parsed.BodyText == "" {
				parsed.BodyText = string(body)
			}
		case strings.HasPrefix(contentType, "text/html"):
			parsed.BodyHTML = string(body)
		}
	}

	return parsed, nil
}

// extractRawHeaders extracts the raw header section from the email
func extractRawHeaders(emailContent string) string {
	// Headers end at the first blank line
	parts := strings.SplitN(emailContent, "\r\n\r\n", 2)
	if len(parts) < 2 {
		parts = strings.SplitN(emailContent, "\n\n", 2)
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// splitList splits a comma separated header value, accepting the
// ideographic and full-width commas used in Japanese postings.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	})

	var items []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			items = append(items, f)
		}
	}
	return items
}
