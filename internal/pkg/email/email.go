// Package email sends transactional mail through a configurable provider.
package email

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Message is one email. Text is always sent; HTML is added as an alternative when set.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Recipients returns the non-empty, trimmed recipient addresses.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, to := range m.To {
		if to = strings.TrimSpace(to); to != "" {
			out = append(out, to)
		}
	}
	return out
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Providers understood by New.
const (
	ProviderSMTP     = "smtp"
	ProviderSES      = "ses"
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

// Config selects and configures a provider.
type Config struct {
	Provider       string
	FromName       string
	FromEmail      string
	SMTP           SMTPConfig
	SESRegion      string
	SendGridAPIKey string
}

// New builds the Sender for cfg.Provider.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderSMTP:
		smtpCfg := cfg.SMTP
		smtpCfg.FromName, smtpCfg.FromEmail = cfg.FromName, cfg.FromEmail
		return NewSMTPSender(smtpCfg, logger), nil
	case ProviderSES:
		return NewSESSender(ctx, cfg.SESRegion, cfg.FromName, cfg.FromEmail, logger)
	case ProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromEmail, logger), nil
	case ProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Strs("to", msg.Recipients()).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email provider is log - message not sent")
	return nil
}

// Recorder keeps messages in memory. Tests use it to inspect outgoing mail.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	// Err, when set, is returned by every Send after recording.
	Err error
}

// Send implements Sender.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return r.Err
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.Messages...)
}
