package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const posting = "From: Tanaka <tanaka@acme.co.jp>\n" +
	"Cc: Suzuki <suzuki@acme.co.jp>\n" +
	"Subject: Go backend\n" +
	"Date: Mon, 1 Jan 2024 10:00:00 +0900\n" +
	"X-Skills: Go, AWS\n" +
	"\n" +
	"API development for a logistics platform.\n"

func writePosting(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestImport(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	root := t.TempDir()
	writePosting(t, root, "2024/backend.eml", posting)
	writePosting(t, root, "2024/company.eml",
		"From: hr@globex.example\nSubject: PM\nX-Company: Globex\n\nProject manager\n")
	writePosting(t, root, "readme.txt", "not a posting")

	im := New(database, root, "tenant", nil).WithConcurrency(2)

	var calls int
	result, err := im.Import(context.Background(), func(current, total int, path string) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalFound)
	assert.Equal(t, 2, result.NewImported)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 2, calls)

	cases, err := database.ListCases("tenant")
	require.NoError(t, err)
	require.Len(t, cases, 2)

	byTitle := map[string]crm.Case{}
	for _, c := range cases {
		byTitle[c.Title] = c
	}
	backend := byTitle["Go backend"]
	assert.Equal(t, "acme.co.jp", backend.Company)
	assert.Equal(t, []string{"Go", "AWS"}, backend.Skills)
	assert.Equal(t, "2024/backend.eml", backend.SourcePath)
	require.Len(t, backend.Senders, 2)
	assert.Equal(t, "tanaka@acme.co.jp", backend.Senders[0].Email)
	assert.Equal(t, "suzuki@acme.co.jp", backend.Senders[1].Email)
	assert.Equal(t, "Globex", byTitle["PM"].Company)

	last, err := database.GetSetting(db.SettingLastImport)
	require.NoError(t, err)
	assert.NotEmpty(t, last)

	// second run skips everything already ingested
	again, err := im.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Zero(t, again.NewImported)
}

func TestImportReportsFailures(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	root := t.TempDir()
	writePosting(t, root, "a.eml", "X-Case-Id: fixed\nFrom: a@x.example\nSubject: A\n\nbody\n")
	writePosting(t, root, "b.eml", "X-Case-Id: fixed\nFrom: b@x.example\nSubject: B\n\nbody\n")

	result, err := New(database, root, "tenant", nil).WithConcurrency(1).Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewImported)
	assert.Equal(t, 1, result.Failed, "duplicate case ids cannot both be stored")
	assert.Len(t, result.FailedFiles, 1)
}

func TestImportEmptyRoot(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	result, err := New(database, t.TempDir(), "tenant", nil).Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalFound)

	last, err := database.GetSetting(db.SettingLastImport)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestCaseFromEmail(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := CaseFromEmail(&parser.ParsedEmail{
		Sender:     "Boss@Initech.Example",
		SenderName: "Bill",
		CC:         []parser.Address{{Email: "Boss@Initech.Example"}, {Name: "Peter", Email: "peter@initech.example"}, {Name: "blank"}},
		Date:       date,
		BodyText:   "  TPS reports  \n",
	})

	assert.Equal(t, "(no subject)", c.Title)
	assert.Equal(t, "initech.example", c.Company)
	assert.Equal(t, crm.StatusRecruiting, c.Status)
	assert.Equal(t, "TPS reports", c.Description)
	assert.Equal(t, date, c.RegisteredAt)
	assert.Equal(t, []crm.Sender{
		{Name: "Bill", Email: "Boss@Initech.Example"},
		{Name: "Peter", Email: "peter@initech.example"},
	}, c.Senders)
}

// TestHTMLOnlyPostingIsSanitized checks that markup and scripts never reach
// the case description
func TestHTMLOnlyPostingIsSanitized(t *testing.T) {
	tests := []struct {
		name             string
		input            string
		shouldContain    []string
		shouldNotContain []string
	}{
		{
			name:             "Script tag removal",
			input:            "<p>Hello</p><script>alert('XSS')</script>",
			shouldContain:    []string{"Hello"},
			shouldNotContain: []string{"<p>", "<script>", "alert"},
		},
		{
			name:             "Event handler removal",
			input:            `<div>Go &amp; AWS<img src="x" onerror="alert('XSS')"></div>`,
			shouldContain:    []string{"Go & AWS"},
			shouldNotContain: []string{"onerror", "<img"},
		},
		{
			name:             "Links keep their text",
			input:            "<ul>\n<li>Remote</li>\n\n<li><a href=\"javascript:alert(1)\">Apply</a></li>\n</ul>",
			shouldContain:    []string{"Remote\nApply"},
			shouldNotContain: []string{"javascript:", "href"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CaseFromEmail(&parser.ParsedEmail{Subject: "html", BodyHTML: tt.input})
			for _, s := range tt.shouldContain {
				assert.Contains(t, c.Description, s)
			}
			for _, s := range tt.shouldNotContain {
				assert.NotContains(t, c.Description, s)
			}
		})
	}
}
