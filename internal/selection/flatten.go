// Package selection turns a page of cases into addressable (case, sender)
// rows and tracks which of those rows the user has chosen.
package selection

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/felo/case-outreach/internal/crm"
)

// defaultEmailToken stands in for the address part of a row id when the case
// carries no usable address.
const defaultEmailToken = "default"

// fallbackDomain is appended to a sender's compacted name when the sender
// has no address of its own.
const fallbackDomain = "@example.com"

// Row is one selectable (case, sender) pairing
type Row struct {
	CaseID         string   `json:"caseId"`
	RowID          string   `json:"rowId"`
	SenderName     string   `json:"senderName"`
	SenderEmail    string   `json:"senderEmail"`
	SenderPosition string   `json:"senderPosition,omitempty"`
	SenderIndex    int      `json:"senderIndex"`
	Case           crm.Case `json:"-"`
}

// Flatten expands every case into one row per sender. Output order follows
// case order, then sender order, so identical input always produces the same
// row ids.
func Flatten(cases []crm.Case) []Row {
	rows := make([]Row, 0, len(cases))
	seen := make(map[string]bool, len(cases))

	for _, c := range cases {
		for _, row := range caseRows(c) {
			// Distinct cases can still collide ("1" + "a-b@x" vs "1-a" + "b@x");
			// later rows get a numeric suffix so ids stay unique within the pass.
			if seen[row.RowID] {
				base := row.RowID
				for n := 1; seen[row.RowID]; n++ {
					row.RowID = base + "~" + strconv.Itoa(n)
				}
			}
			seen[row.RowID] = true
			rows = append(rows, row)
		}
	}
	return rows
}

func caseRows(c crm.Case) []Row {
	switch contacts := c.Contacts().(type) {
	case crm.SenderList:
		rows := make([]Row, 0, len(contacts))
		for i, s := range contacts {
			email := s.Email
			if email == "" {
				email = FallbackEmail(s.Name)
			}
			rows = append(rows, Row{
				CaseID:         c.ID,
				RowID:          RowID(c.ID, email, i),
				SenderName:     s.Name,
				SenderEmail:    email,
				SenderPosition: s.Position,
				SenderIndex:    i,
				Case:           c,
			})
		}
		return rows

	case crm.LegacySender:
		token := contacts.Email
		if token == "" {
			token = defaultEmailToken
		}
		return []Row{{
			CaseID:      c.ID,
			RowID:       RowID(c.ID, token, 0),
			SenderName:  contacts.Name,
			SenderEmail: contacts.Email,
			Case:        c,
		}}

	default:
		return []Row{{
			CaseID: c.ID,
			RowID:  RowID(c.ID, defaultEmailToken, 0),
			Case:   c,
		}}
	}
}

// RowID builds the composite identifier "<caseId>-<email>-<index>".
func RowID(caseID, email string, index int) string {
	return caseID + "-" + email + "-" + strconv.Itoa(index)
}

// FallbackEmail derives a placeholder address from a sender name: all
// whitespace removed, lower-cased, with the example.com domain.
func FallbackEmail(name string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return strings.ToLower(compact) + fallbackDomain
}

// senderIndex recovers the sender position encoded at the end of a row id.
// It returns 0 when the id has no parsable index.
func senderIndex(rowID string) int {
	if i := strings.LastIndex(rowID, "~"); i >= 0 {
		rowID = rowID[:i]
	}
	i := strings.LastIndex(rowID, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(rowID[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
