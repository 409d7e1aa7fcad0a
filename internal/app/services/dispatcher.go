package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/metrics"
	"github.com/yigit/edutransit/internal/pkg/push"
	"golang.org/x/sync/errgroup"
)

// Dispatcher delivers email and push messages. Delivery failures are logged
// and returned so callers can decide to ignore them.
type Dispatcher struct {
	mailer email.Sender
	pusher push.Notifier
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(mailer email.Sender, pusher push.Notifier, logger zerolog.Logger) *Dispatcher {
	if pusher == nil {
		pusher = push.Disabled{}
	}
	return &Dispatcher{mailer: mailer, pusher: pusher, logger: logger}
}

// Email sends one message
func (d *Dispatcher) Email(ctx context.Context, msg email.Message) error {
	err := d.mailer.Send(ctx, msg)
	metrics.RecordDelivery("email", err)
	if err != nil {
		d.logger.Error().Err(err).Str("subject", msg.Subject).Int("recipients", len(msg.To)).Msg("Email delivery failed")
		return err
	}
	return nil
}

// Push sends a notification to every non-empty token
func (d *Dispatcher) Push(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) error {
	err := d.pusher.Send(ctx, tokens, title, body, data)
	metrics.RecordDelivery("push", err)
	if err != nil {
		d.logger.Error().Err(err).Str("title", title).Msg("Push delivery failed")
		return err
	}
	return nil
}

// Alert is the same message sent by email and by push
type Alert struct {
	Email      email.Message
	PushTokens []string
	PushTitle  string
	PushBody   string
	PushData   map[string]interface{}
}

// Fanout sends the email and the push of an alert concurrently. Both are
// always attempted; the first failure is returned.
func (d *Dispatcher) Fanout(ctx context.Context, alert Alert) error {
	var g errgroup.Group
	if len(alert.Email.To) > 0 {
		g.Go(func() error { return d.Email(ctx, alert.Email) })
	}
	if len(alert.PushTokens) > 0 {
		g.Go(func() error {
			return d.Push(ctx, alert.PushTokens, alert.PushTitle, alert.PushBody, alert.PushData)
		})
	}
	return g.Wait()
}
