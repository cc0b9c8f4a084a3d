package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingOutbox struct{ calls int }

func (f *failingOutbox) InsertOutboxBatch([]*db.OutboxMessage) error {
	f.calls++
	return errors.New("disk full")
}

func newTestSender(t *testing.T, outbox Outbox, delay time.Duration) *Simulated {
	t.Helper()
	s := NewSimulated(outbox, Options{
		Owner:       "tenant",
		FromAddress: "sales@example.com",
		FromName:    "営業担当",
		TestAddress: "me@example.com",
		Delay:       delay,
		Workers:     2,
	})
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSendBulkRecordsBatch(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	s := newTestSender(t, database, 0)
	msg := Message{Subject: "Go案件のご紹介", Body: "田中様\nよろしくお願いいたします。"}
	receipt, err := s.SendBulk(context.Background(), msg, []Recipient{
		{CaseID: "1", Name: "田中", Email: "tanaka@acme.co.jp"},
		{CaseID: "2", Name: "nobody"},
		{CaseID: "3", Name: "Legacy", Email: "legacy@y.co.jp"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.BatchID)
	assert.Equal(t, 2, receipt.Sent)
	assert.Equal(t, 1, receipt.Skipped)

	list, err := database.ListOutbox("tenant", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, m := range list {
		assert.Equal(t, receipt.BatchID, m.BatchID)
		assert.Equal(t, "tenant", m.Owner)
		assert.False(t, m.IsTest)
		assert.Equal(t, msg.Subject, m.Subject)
	}

	stored, err := database.GetOutboxMessage(list[1].ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tanaka@acme.co.jp", stored.Recipient)

	parsed, err := parser.ParseEML(bytes.NewReader(stored.Raw))
	require.NoError(t, err)
	assert.Equal(t, "Go案件のご紹介", parsed.Subject)
	assert.Equal(t, "sales@example.com", parsed.Sender)
	assert.Equal(t, "営業担当", parsed.SenderName)
	assert.Equal(t, []string{"tanaka@acme.co.jp"}, parsed.Recipients)
	assert.Equal(t, "1", parsed.CaseID)
	assert.Contains(t, parsed.BodyText, "よろしくお願いいたします。")
	assert.Contains(t, parsed.MessageID, "@example.com>")
	assert.True(t, parsed.Date.Equal(s.now()))
}

func TestSendTestUsesTestAddress(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	s := newTestSender(t, database, 0)
	receipt, err := s.SendTest(context.Background(), Message{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Sent)

	list, err := database.ListOutbox("tenant", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "me@example.com", list[0].Recipient)
	assert.True(t, list[0].IsTest)
}

func TestTestAddressDefaultsToFrom(t *testing.T) {
	s := NewSimulated(&failingOutbox{}, Options{FromAddress: "sales@example.com"})
	assert.Equal(t, "sales@example.com", s.testTo)
	assert.Equal(t, 1, s.workers)
	assert.Nil(t, s.limiter)
}

func TestCancelledSendWritesNothing(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	s := newTestSender(t, database, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SendBulk(ctx, Message{Subject: "s", Body: "b"}, []Recipient{{Email: "a@x.co.jp"}})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := database.CountOutbox("tenant")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendBulkWithoutAddressesFails(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	s := newTestSender(t, database, time.Hour)
	receipt, err := s.SendBulk(context.Background(), Message{Subject: "s", Body: "b"}, []Recipient{
		{CaseID: "3", Name: "nobody"},
		{CaseID: "4", Email: "  "},
	})
	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrNoRecipients)

	count, err := database.CountOutbox("tenant")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOutboxFailureIsReported(t *testing.T) {
	outbox := &failingOutbox{}
	s := newTestSender(t, outbox, 0)

	receipt, err := s.SendBulk(context.Background(), Message{Subject: "s", Body: "b"}, []Recipient{{Email: "a@x.co.jp"}})
	assert.Nil(t, receipt)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, outbox.calls)
}

func TestRateLimitedSend(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	s := NewSimulated(database, Options{Owner: "tenant", FromAddress: "sales@example.com", RatePerSecond: 1000, Workers: 4})
	require.NotNil(t, s.limiter)

	recipients := make([]Recipient, 20)
	for i := range recipients {
		recipients[i] = Recipient{CaseID: "c", Email: "r@example.com"}
	}
	receipt, err := s.SendBulk(context.Background(), Message{Subject: "s", Body: "b"}, recipients)
	require.NoError(t, err)
	assert.Equal(t, 20, receipt.Sent)
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "b.3@example.com", messageID("b", 3, "sales@example.com"))
	assert.Equal(t, "b.0@localhost", messageID("b", 0, "broken@"))
	assert.Equal(t, "b.0@localhost", messageID("b", 0, ""))
}
