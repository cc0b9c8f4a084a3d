package outreach_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felo/case-outreach/internal/compose"
	"github.com/felo/case-outreach/internal/crm"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/importer"
	"github.com/felo/case-outreach/internal/mailer"
	"github.com/felo/case-outreach/internal/outreach"
	"github.com/felo/case-outreach/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postings = map[string]string{
	"acme/go.eml": "From: =?UTF-8?B?55Sw5Lit?= <tanaka@acme.co.jp>\n" +
		"Cc: Suzuki <suzuki@acme.co.jp>\n" +
		"Subject: Go backend\n" +
		"Date: Mon, 1 Jan 2024 10:00:00 +0900\n" +
		"X-Company: Acme\n" +
		"X-Skills: Go, Kubernetes\n" +
		"\n" +
		"Payments API.\n",
	"globex/java.eml": "From: hr@globex.example\n" +
		"Subject: Java batch\n" +
		"Date: Tue, 2 Jan 2024 10:00:00 +0900\n" +
		"X-Skills: Java\n" +
		"\n" +
		"Nightly batch jobs.\n",
}

// TestEndToEndWorkflow covers ingesting postings through to a recorded send
func TestEndToEndWorkflow(t *testing.T) {
	root := t.TempDir()
	for rel, content := range postings {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	result, err := importer.New(database, root, "tenant", nil).Import(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.NewImported)

	catalogue, err := compose.NewCatalogue()
	require.NoError(t, err)
	_, err = database.CreateEngineer(&crm.Engineer{Owner: "tenant", Name: "山田", Experience: "7年", Skills: []string{"Go"}})
	require.NoError(t, err)
	engineers, err := database.ListEngineers("tenant")
	require.NoError(t, err)

	session := outreach.NewSession("tenant", 10, outreach.Deps{
		Cases:     database,
		Engineers: database,
		Sender:    mailer.NewSimulated(database, mailer.Options{Owner: "tenant", FromAddress: "sales@example.com", FromName: "営業担当"}),
		Templates: compose.NewEngine(catalogue),
	})
	require.NoError(t, session.Refresh())

	snap := session.Snapshot()
	assert.Len(t, snap.Rows, 3, "two senders for acme, one for globex")
	assert.Equal(t, []string{"Acme", "globex.example"}, snap.Companies)

	session.SetFilter(crm.FilterCriteria{Company: crm.AllCompanies, Tech: "kubernetes"})
	snap = session.Snapshot()
	require.Len(t, snap.Rows, 2)

	session.SelectAllVisible()
	require.NoError(t, session.SelectEngineers([]string{engineers[0].ID}))
	msg := session.ApplyTemplate("engineer-introduction")
	assert.Equal(t, "【エンジニアご紹介】Go backendの件", msg.Subject)
	assert.Contains(t, msg.Body, "田中 様")

	receipt, err := session.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Sent)
	assert.Empty(t, session.Snapshot().Selected)

	sent, err := database.ListOutbox("tenant", 10, 0)
	require.NoError(t, err)
	require.Len(t, sent, 2)

	recipients := []string{sent[0].Recipient, sent[1].Recipient}
	assert.ElementsMatch(t, []string{"tanaka@acme.co.jp", "suzuki@acme.co.jp"}, recipients)

	stored, err := database.GetOutboxMessage(sent[0].ID)
	require.NoError(t, err)
	parsed, err := parser.ParseEML(bytes.NewReader(stored.Raw))
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, parsed.Subject)
	assert.NotEmpty(t, parsed.CaseID)
}
