package compose

import (
	"fmt"

	"github.com/felo/case-outreach/internal/crm"
)

// Built-in templates for the case->company and candidate->company screens.
var builtin = []crm.Template{
	{
		ID:      "engineer-introduction",
		Name:    "エンジニア紹介",
		Subject: "【エンジニアご紹介】{{case_title}}の件",
		Body: `{{company}}
{{sender_name}} 様

お世話になっております。{{contact}}です。
{{case_title}}につきまして、以下のエンジニアをご紹介いたします。

氏名: {{engineer_name}}
経験: {{engineer_experience}}
スキル: {{engineer_skills}}

ご検討のほど、よろしくお願いいたします。`,
	},
	{
		ID:      "case-inquiry",
		Name:    "案件確認",
		Subject: "{{case_title}}についてのご確認",
		Body: `{{sender_name}} 様

{{contact}}です。下記案件について詳細を確認させてください。

{{case_detail}}

よろしくお願いいたします。`,
	},
	{
		ID:      "follow-up",
		Name:    "フォローアップ",
		Subject: "先日ご連絡の件（{{company}}）",
		Body: `{{sender_name}} 様

先日ご連絡いたしました{{case_title}}の件、その後いかがでしょうか。
引き続きよろしくお願いいたします。

{{contact}}`,
	},
}

// Catalogue is a static, read-only set of templates keyed by id.
type Catalogue struct {
	order []string
	byID  map[string]crm.Template
}

// NewCatalogue builds a catalogue from the built-in templates followed by
// extra. Duplicate or empty ids are rejected.
func NewCatalogue(extra ...crm.Template) (*Catalogue, error) {
	c := &Catalogue{byID: make(map[string]crm.Template)}
	for _, t := range append(append([]crm.Template(nil), builtin...), extra...) {
		if t.ID == "" || t.ID == NoTemplate {
			return nil, fmt.Errorf("invalid template id %q", t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c, nil
}

// Get looks up a template by id.
func (c *Catalogue) Get(id string) (crm.Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// List returns all templates in catalogue order.
func (c *Catalogue) List() []crm.Template {
	out := make([]crm.Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
