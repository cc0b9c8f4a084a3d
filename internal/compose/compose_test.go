package compose

import (
	"testing"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, extra ...crm.Template) *Engine {
	t.Helper()
	cat, err := NewCatalogue(extra...)
	require.NoError(t, err)
	return NewEngine(cat)
}

func testInput() Input {
	return Input{
		Cases: []SelectedCase{
			{Case: crm.Case{Title: "Go開発", Company: "Acme", Description: "API開発", Sender: "旧担当"}, SenderName: "田中"},
			{Case: crm.Case{Title: "ignored"}},
		},
		Engineers: []crm.Engineer{
			{Name: "山田", Experience: "5年", Skills: []string{"Go", "AWS", "Docker"}},
			{Name: "ignored"},
		},
	}
}

func TestApplyUsesFirstCaseAndEngineer(t *testing.T) {
	e := testEngine(t, crm.Template{
		ID:      "t",
		Subject: "{{case_title}} / {{company}}",
		Body:    "{{sender_name}} {{case_detail}} {{contact}} {{engineer_name}} {{engineer_experience}} {{engineer_skills}}",
	})

	msg := e.Apply("t", testInput())
	assert.Equal(t, "Go開発 / Acme", msg.Subject)
	assert.Equal(t, "田中 API開発 営業担当 山田 5年 Go，AWS，Docker", msg.Body)
}

func TestApplyReplacesEveryOccurrence(t *testing.T) {
	e := testEngine(t, crm.Template{ID: "t", Subject: "{{company}}{{company}}", Body: "{{company}}\n{{company}}"})

	msg := e.Apply("t", testInput())
	assert.Equal(t, "AcmeAcme", msg.Subject)
	assert.Equal(t, "Acme\nAcme", msg.Body)
}

func TestApplyLeavesUnknownTokens(t *testing.T) {
	e := testEngine(t, crm.Template{ID: "t", Subject: "{{unknown}} {{company}}", Body: "{{ company }}{{company"})

	msg := e.Apply("t", testInput())
	assert.Equal(t, "{{unknown}} Acme", msg.Subject)
	assert.Equal(t, "{{ company }}{{company", msg.Body)
}

func TestApplyDoesNotExpandReplacementText(t *testing.T) {
	in := testInput()
	in.Cases[0].Case.Title = "{{company}}"
	e := testEngine(t, crm.Template{ID: "t", Subject: "{{case_title}}", Body: ""})

	assert.Equal(t, "{{company}}", e.Apply("t", in).Subject)
}

func TestApplyIsIdempotent(t *testing.T) {
	e := testEngine(t)
	first := e.Apply("engineer-introduction", testInput())
	second := e.Apply("engineer-introduction", testInput())
	assert.Equal(t, first, second)
	assert.NotContains(t, first.Body, "{{")
}

func TestApplyEmptySources(t *testing.T) {
	e := testEngine(t, crm.Template{ID: "t", Subject: "[{{case_title}}]", Body: "[{{engineer_skills}}]{{contact}}"})

	msg := e.Apply("t", Input{})
	assert.Equal(t, "[]", msg.Subject)
	assert.Equal(t, "[]営業担当", msg.Body)
}

func TestApplySenderFallsBackToLegacyField(t *testing.T) {
	e := testEngine(t, crm.Template{ID: "t", Subject: "{{sender_name}}"})
	in := Input{Cases: []SelectedCase{{Case: crm.Case{Sender: "旧担当"}}}}

	assert.Equal(t, "旧担当", e.Apply("t", in).Subject)
}

func TestApplyClearsOnMissingTemplate(t *testing.T) {
	e := testEngine(t)
	for _, id := range []string{"", NoTemplate, "nonexistent-id"} {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, Message{}, e.Apply(id, testInput()))
		})
	}
}

func TestCatalogue(t *testing.T) {
	cat, err := NewCatalogue(crm.Template{ID: "custom", Name: "Custom"})
	require.NoError(t, err)

	list := cat.List()
	require.Len(t, list, len(builtin)+1)
	assert.Equal(t, "custom", list[len(list)-1].ID)

	_, err = NewCatalogue(crm.Template{ID: "case-inquiry"})
	assert.Error(t, err, "built-in ids cannot be redefined")

	_, err = NewCatalogue(crm.Template{ID: NoTemplate})
	assert.Error(t, err)
}
