package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRecipients(t *testing.T) {
	m := Message{To: []string{" a@x.io ", "", "b@x.io", "   "}}
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, m.Recipients())
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Provider: "log"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(ctx, Config{Provider: "SMTP", FromEmail: "admin@schoolapp.com", SMTP: SMTPConfig{Host: "localhost", Port: 25}}, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &SMTPSender{}, s)
	assert.Equal(t, "admin@schoolapp.com", s.(*SMTPSender).config.FromEmail)

	s, err = New(ctx, Config{Provider: "sendgrid", SendGridAPIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SendGridSender{}, s)

	_, err = New(ctx, Config{Provider: "pigeon"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSMTPComposePlain(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{FromName: "Transport", FromEmail: "admin@schoolapp.com"}, zerolog.Nop())
	body, err := s.compose([]string{"p@x.io"}, Message{Subject: "Account Created", Text: "Username: kid"})
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "From: Transport <admin@schoolapp.com>\r\n")
	assert.Contains(t, out, "Subject: Account Created\r\n")
	assert.Contains(t, out, "Content-Type: text/plain; charset=UTF-8")
	assert.True(t, strings.HasSuffix(out, "Username: kid"))
}

func TestSMTPComposeAlternative(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{FromEmail: "admin@schoolapp.com"}, zerolog.Nop())
	body, err := s.compose([]string{"a@x.io", "b@x.io"}, Message{Subject: "Alert", Text: "plain", HTML: "<b>rich</b>"})
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "To: a@x.io, b@x.io\r\n")
	assert.Contains(t, out, "multipart/alternative; boundary=")
	assert.Contains(t, out, "plain")
	assert.Contains(t, out, "<b>rich</b>")
	assert.Less(t, strings.Index(out, "text/plain"), strings.Index(out, "text/html"))
}

func TestSMTPWithoutCredentialsSkips(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1}, zerolog.Nop())
	assert.NoError(t, s.Send(context.Background(), Message{To: []string{"a@x.io"}, Subject: "s", Text: "t"}))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{Subject: "one"}))
	r.Err = errors.New("boom")
	assert.Error(t, r.Send(context.Background(), Message{Subject: "two"}))
	assert.Len(t, r.Sent(), 2)
}
