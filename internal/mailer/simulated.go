package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/felo/case-outreach/internal/db"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Outbox stores accepted messages
type Outbox interface {
	InsertOutboxBatch(messages []*db.OutboxMessage) error
}

// Simulated waits a fixed delay, composes one message per recipient and
// records the batch in the outbox. Nothing leaves the process.
type Simulated struct {
	outbox  Outbox
	owner   string
	from    mail.Address
	testTo  string
	delay   time.Duration
	limiter *rate.Limiter
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

// NewSimulated creates a simulated sender writing to outbox
func NewSimulated(outbox Outbox, opts Options) *Simulated {
	s := &Simulated{
		outbox:  outbox,
		owner:   opts.Owner,
		from:    mail.Address{Name: opts.FromName, Address: opts.FromAddress},
		testTo:  opts.TestAddress,
		delay:   opts.Delay,
		workers: opts.Workers,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.testTo == "" {
		s.testTo = opts.FromAddress
	}
	if opts.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return s
}

// SendBulk sends msg to every recipient with an address. Recipients without
// one are skipped; ErrNoRecipients is returned when none is left.
func (s *Simulated) SendBulk(ctx context.Context, msg Message, recipients []Recipient) (*Receipt, error) {
	var deliverable []Recipient
	skipped := 0
	for _, r := range recipients {
		if strings.TrimSpace(r.Email) == "" {
			skipped++
			s.logger.Warn("skipping recipient without address", "case", r.CaseID, "name", r.Name)
			continue
		}
		deliverable = append(deliverable, r)
	}
	if len(deliverable) == 0 {
		return nil, ErrNoRecipients
	}

	receipt, err := s.send(ctx, msg, deliverable, false)
	if err != nil {
		return nil, err
	}
	receipt.Skipped = skipped
	return receipt, nil
}

// SendTest sends msg once to the configured test address
func (s *Simulated) SendTest(ctx context.Context, msg Message) (*Receipt, error) {
	return s.send(ctx, msg, []Recipient{{Name: s.from.Name, Email: s.testTo}}, true)
}

func (s *Simulated) send(ctx context.Context, msg Message, recipients []Recipient, isTest bool) (*Receipt, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	sentAt := s.now()
	messages := make([]*db.OutboxMessage, len(recipients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, r := range recipients {
		i, r := i, r // per-iteration copies; module targets go 1.21 loop semantics
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			raw, err := s.compose(msg, r, messageID(batchID, i, s.from.Address), sentAt)
			if err != nil {
				return fmt.Errorf("failed to compose message for %s: %w", r.Email, err)
			}
			messages[i] = &db.OutboxMessage{
				BatchID:       batchID,
				Owner:         s.owner,
				CaseID:        r.CaseID,
				Recipient:     r.Email,
				RecipientName: r.Name,
				Subject:       msg.Subject,
				Body:          msg.Body,
				Raw:           raw,
				IsTest:        isTest,
				SentAt:        sentAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.outbox.InsertOutboxBatch(messages); err != nil {
		return nil, fmt.Errorf("failed to record batch %s: %w", batchID, err)
	}

	s.logger.Info("batch sent", "batch", batchID, "recipients", len(messages), "test", isTest)
	return &Receipt{BatchID: batchID, Sent: len(messages), SentAt: sentAt}, nil
}

// wait is the fixed network delay stand-in; it honours cancellation
func (s *Simulated) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// compose renders a single-part UTF-8 text message
func (s *Simulated) compose(msg Message, r Recipient, msgID string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{&s.from})
	h.SetAddressList("To", []*mail.Address{{Name: r.Name, Address: r.Email}})
	h.SetSubject(msg.Subject)
	h.SetMessageID(msgID)
	if r.CaseID != "" {
		h.Set("X-Case-Id", r.CaseID)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func messageID(batchID string, index int, from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return batchID + "." + strconv.Itoa(index) + "@" + domain
}
