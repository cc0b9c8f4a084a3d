package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContacts(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want Contacts
	}{
		{
			name: "sender list",
			c:    Case{Senders: []Sender{{Name: "田中", Email: "a@x.co.jp"}}},
			want: SenderList{{Name: "田中", Email: "a@x.co.jp"}},
		},
		{
			name: "legacy pair",
			c:    Case{Sender: "佐藤", SenderEmail: "sato@y.co.jp"},
			want: LegacySender{Name: "佐藤", Email: "sato@y.co.jp"},
		},
		{
			name: "legacy address in sender field",
			c:    Case{Sender: "legacy@y.co.jp"},
			want: LegacySender{Name: "legacy@y.co.jp", Email: "legacy@y.co.jp"},
		},
		{
			name: "legacy name only",
			c:    Case{Sender: "鈴木"},
			want: LegacySender{Name: "鈴木"},
		},
		{
			name: "empty senders slice falls back to legacy",
			c:    Case{Senders: []Sender{}, SenderEmail: "b@z.jp"},
			want: LegacySender{Email: "b@z.jp"},
		},
		{
			name: "nothing",
			c:    Case{},
			want: NoSender{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Contacts())
		})
	}
}

func TestTechnologyText(t *testing.T) {
	c := Case{Skills: []string{"Go", "AWS"}}
	assert.Equal(t, "Go, AWS", c.TechnologyText())

	c.KeyTechnologies = "Kubernetes"
	assert.Equal(t, "Kubernetes", c.TechnologyText())
}
