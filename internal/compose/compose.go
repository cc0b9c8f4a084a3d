// Package compose merges message templates with case and engineer data.
package compose

import (
	"strings"

	"github.com/felo/case-outreach/internal/crm"
)

// NoTemplate is the sentinel template id that clears the draft.
const NoTemplate = "none"

// ContactLabel is the fixed value of the {{contact}} placeholder.
const ContactLabel = "営業担当"

// skillSeparator joins engineer skills in the {{engineer_skills}} placeholder.
const skillSeparator = "，"

// Placeholder keys recognised in template text as {{key}}.
const (
	KeyCaseTitle          = "case_title"
	KeySenderName         = "sender_name"
	KeyCaseDetail         = "case_detail"
	KeyCompany            = "company"
	KeyContact            = "contact"
	KeyEngineerName       = "engineer_name"
	KeyEngineerExperience = "engineer_experience"
	KeyEngineerSkills     = "engineer_skills"
)

// SelectedCase is a case together with the sender chosen for it.
type SelectedCase struct {
	Case       crm.Case
	SenderName string
}

// Input is the placeholder source for a template application.
type Input struct {
	Cases     []SelectedCase
	Engineers []crm.Engineer
}

// Message is a composed subject and body.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Engine resolves templates from a read-only catalogue.
type Engine struct {
	catalogue *Catalogue
}

// NewEngine creates an engine over the given catalogue.
func NewEngine(catalogue *Catalogue) *Engine {
	return &Engine{catalogue: catalogue}
}

// Apply renders the template with the given id. An empty id, the
// NoTemplate sentinel and unknown ids all produce an empty message.
func (e *Engine) Apply(templateID string, in Input) Message {
	if templateID == "" || templateID == NoTemplate {
		return Message{}
	}
	tmpl, ok := e.catalogue.Get(templateID)
	if !ok {
		return Message{}
	}

	r := Replacer(Values(in))
	return Message{
		Subject: r.Replace(tmpl.Subject),
		Body:    r.Replace(tmpl.Body),
	}
}

// Values builds the placeholder map from the first selected case and the
// first selected engineer. Missing sources resolve to empty strings.
func Values(in Input) map[string]string {
	values := map[string]string{
		KeyCaseTitle:          "",
		KeySenderName:         "",
		KeyCaseDetail:         "",
		KeyCompany:            "",
		KeyContact:            ContactLabel,
		KeyEngineerName:       "",
		KeyEngineerExperience: "",
		KeyEngineerSkills:     "",
	}

	if len(in.Cases) > 0 {
		sc := in.Cases[0]
		values[KeyCaseTitle] = sc.Case.Title
		values[KeySenderName] = sc.SenderName
		if values[KeySenderName] == "" {
			values[KeySenderName] = sc.Case.Sender
		}
		values[KeyCaseDetail] = sc.Case.Description
		values[KeyCompany] = sc.Case.Company
	}

	if len(in.Engineers) > 0 {
		eng := in.Engineers[0]
		values[KeyEngineerName] = eng.Name
		values[KeyEngineerExperience] = eng.Experience
		values[KeyEngineerSkills] = strings.Join(eng.Skills, skillSeparator)
	}

	return values
}

// Replacer returns a single-pass replacer for {{key}} tokens. Replacement
// text is never rescanned, and tokens without a value are left as is.
func Replacer(values map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...)
}
