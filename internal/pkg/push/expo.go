// Package push delivers mobile push notifications through the Expo relay.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultURL is the public Expo push endpoint.
const DefaultURL = "https://exp.host/--/api/v2/push/send"

// Notifier sends one message to many device tokens.
type Notifier interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) error
}

// Message is one entry of the Expo request array.
type Message struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
	Sound string                 `json:"sound"`
}

// Config controls the Expo client.
type Config struct {
	URL     string
	Timeout time.Duration
}

// ExpoClient posts messages to the Expo push API.
type ExpoClient struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewExpoClient builds a client whose requests are traced by the global
// tracer provider and carry a traceparent header.
func NewExpoClient(cfg Config, log zerolog.Logger) *ExpoClient {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ExpoClient{
		url: cfg.URL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// Send posts one message per non-empty token. With no usable tokens it returns nil without a request.
func (c *ExpoClient) Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}

	messages := make([]Message, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		messages = append(messages, Message{To: t, Title: title, Body: body, Data: data, Sound: "default"})
	}
	if len(messages) == 0 {
		return nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("push: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error().Err(err).Int("tokens", len(messages)).Msg("Error sending push notification")
		return fmt.Errorf("push: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("push: relay returned status %d", resp.StatusCode)
		c.log.Error().Err(err).Int("tokens", len(messages)).Msg("Push relay rejected request")
		return err
	}

	c.log.Debug().Int("tokens", len(messages)).Str("title", title).Msg("Push notification sent")
	return nil
}

// Disabled drops every message.
type Disabled struct{}

// Send implements Notifier.
func (Disabled) Send(context.Context, []string, string, string, map[string]interface{}) error {
	return nil
}
