package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

const (
	inboxMailbox = "me"
	inboxQuery   = "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"
	maxEmailBody = 4000
)

// Submitter is the part of TrackerService the inbox watcher needs.
type Submitter interface {
	Submit(ctx context.Context, source, text string) (*models.Candidate, *models.Outcome, error)
}

// SheetReader returns the current sheet.
type SheetReader interface {
	Read(ctx context.Context) (*models.Sheet, error)
}

// EmailService feeds application emails for companies already on the sheet
// through the tracker.
type EmailService struct {
	Store       InboxStore
	GmailClient *gmail.Service
	Tracker     Submitter
	Sheet       SheetReader
	Matcher     *MatcherService
	Interval    time.Duration
	Logger      *zap.Logger
}

func NewEmailService(store InboxStore, gmailClient *gmail.Service, tracker Submitter, sheet SheetReader, matcher *MatcherService, interval time.Duration, logger *zap.Logger) *EmailService {
	return &EmailService{
		Store:       store,
		GmailClient: gmailClient,
		Tracker:     tracker,
		Sheet:       sheet,
		Matcher:     matcher,
		Interval:    interval,
		Logger:      logger,
	}
}

// StartWatcher syncs once immediately, then every Interval until ctx ends.
func (s *EmailService) StartWatcher(ctx context.Context) {
	if s.GmailClient == nil || s.Store == nil {
		s.Logger.Warn("inbox watcher disabled: needs a gmail client and a database")
		return
	}
	if s.Interval <= 0 {
		s.Logger.Warn("inbox watcher disabled: interval must be positive", zap.Duration("interval", s.Interval))
		return
	}

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		s.SyncEmails(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SyncEmails(ctx)
			}
		}
	}()
}

// SyncEmails runs one polling cycle.
func (s *EmailService) SyncEmails(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	s.Logger.Info("inbox sync starting")

	cursor, err := s.Store.Cursor(ctx)
	if err != nil {
		s.Logger.Error("load inbox state", zap.Error(err))
		return
	}

	var messages []*gmail.Message
	var newHistoryID uint64

	if cursor == 0 {
		s.Logger.Info("first run, full sync")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, cursor)
		if err != nil && isNotFound(err) {
			s.Logger.Warn("history id expired, falling back to full sync")
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		s.Logger.Error("inbox sync failed", zap.Error(err))
		return
	}

	if len(messages) > 0 {
		s.processMessages(ctx, messages)
	} else {
		s.Logger.Info("no new relevant emails")
	}

	// A full sync may hand back a lower ID than an expired cursor.
	if newHistoryID != 0 && newHistoryID != cursor {
		if err := s.Store.SaveCursor(ctx, newHistoryID); err != nil {
			s.Logger.Error("save history id", zap.Error(err))
			return
		}
		s.Logger.Debug("history cursor advanced", zap.Uint64("history_id", newHistoryID))
	}
}

func (s *EmailService) processMessages(ctx context.Context, messages []*gmail.Message) {
	sheet, err := s.Sheet.Read(ctx)
	if err != nil {
		s.Logger.Error("read sheet for inbox matching", zap.Error(err))
		return
	}
	companies := s.Matcher.Companies(sheet)

	s.Logger.Info("processing candidate emails", zap.Int("count", len(messages)))
	for _, msg := range messages {
		seen, err := s.Store.IsProcessed(ctx, msg.Id)
		if err != nil {
			// Left unmarked so the next cycle looks at it again.
			s.Logger.Warn("check processed email", zap.String("id", msg.Id), zap.Error(err))
			continue
		}
		if seen {
			continue
		}

		s.processSingleEmail(ctx, companies, msg)

		if err := s.Store.MarkProcessed(ctx, msg.Id); err != nil {
			s.Logger.Warn("mark email processed", zap.String("id", msg.Id), zap.Error(err))
		}
	}
}

// performFullSync scans the last 7 days and resets the history cursor.
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, s.Logger, 3, time.Second, transient, func() error {
		var e error
		resp, e = s.GmailClient.Users.Messages.List(inboxMailbox).Q(inboxQuery).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	profile, err := s.GmailClient.Users.GetProfile(inboxMailbox).Context(ctx).Do()
	if err != nil {
		return nil, 0, err
	}
	return s.expandMessages(ctx, resp.Messages), profile.HistoryId, nil
}

// performIncrementalSync asks Gmail only for what changed since startID.
func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListHistoryResponse
	err := retry(ctx, s.Logger, 3, time.Second, transient, func() error {
		var e error
		call := s.GmailClient.Users.History.List(inboxMailbox).StartHistoryId(startID)
		call.HistoryTypes("messageAdded")
		resp, e = call.Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	var headers []*gmail.Message
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				headers = append(headers, added.Message)
			}
		}
	}
	return s.expandMessages(ctx, headers), resp.HistoryId, nil
}

func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) []*gmail.Message {
	var full []*gmail.Message
	for _, h := range headers {
		err := retry(ctx, s.Logger, 2, 500*time.Millisecond, transient, func() error {
			msg, err := s.GmailClient.Users.Messages.Get(inboxMailbox, h.Id).Context(ctx).Do()
			if err == nil {
				full = append(full, msg)
			}
			return err
		})
		if err != nil {
			s.Logger.Warn("fetch email", zap.String("id", h.Id), zap.Error(err))
		}
	}
	return full
}

// processSingleEmail submits msg when it names a tracked company. It reports
// whether the email was submitted.
func (s *EmailService) processSingleEmail(ctx context.Context, companies []string, msg *gmail.Message) bool {
	headers := parseHeaders(msg)
	subject := headers["Subject"]
	sender := headers["From"]
	log := s.Logger.With(zap.String("email_id", msg.Id), zap.String("subject", subject))

	company := s.Matcher.FindCompanyFromEmail(companies, subject, sender)
	if company == "" {
		log.Debug("skipped: no tracked company in sender or subject")
		return false
	}
	log.Info("matched company", zap.String("company", company))

	text := buildEmailText(sender, subject, getEmailBody(msg))
	_, outcome, err := s.Tracker.Submit(ctx, SourceInbox, text)
	if err != nil {
		log.Warn("inbox submission failed", zap.Error(err))
		return false
	}
	log.Info("inbox submission applied", zap.String("kind", string(outcome.Kind)), zap.Int("row", outcome.Row))
	return true
}

func buildEmailText(sender, subject, body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxEmailBody {
		cut := maxEmailBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return fmt.Sprintf("Email from %s. Subject: %s. Body: %s", sender, subject, body)
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
	}
	return ""
}

// Gmail bodies are URL-safe base64, usually without padding.
func decodeBody(data string) string {
	d, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(d)
}
