package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

)

var (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridSender sends mail through the SendGrid v3 API
type SendGridSender struct {
	key    string
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendGridSender creates a SendGridSender
func NewSendGridSender(key, fromName, fromEmail string, logger zerolog.Logger) *SendGridSender {
	return &SendGridSender{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (s *SendGridSender) prepare(to []string, msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, addr := range to {
		p.AddTos(sgmail.NewEmail("", addr))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	contents := []*sgmail.Content{sgmail.NewContent("text/plain", msg.Text)}
	if msg.HTML != "" {
		contents = append(contents, sgmail.NewContent("text/html", msg.HTML))
	}
	m.AddContent(contents...)
	return m
}

// Send implements Sender.
func (s *SendGridSender) Send(_ context.Context, msg Message) error {
	to := msg.Recipients()
	if len(to) == 0 {
		return nil
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(to, msg))

	res, err := sendgrid.API(req)
	if err == nil && res.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode, res.Body)
	}
	if err != nil {
		s.logger.Error().Err(err).Strs("to", to).Msg("SendGrid send failed")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
