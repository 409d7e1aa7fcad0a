package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

)

// SESSender sends mail through Amazon SES
type SESSender struct {
	client *sesv2.Client
	from   string
	logger zerolog.Logger
}

// NewSESSender loads the default AWS configuration for region and creates an SES client
func NewSESSender(ctx context.Context, region, fromName, fromEmail string, logger zerolog.Logger) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	logger.Info().Str("region", region).Str("from", fromEmail).Msg("SES email sender enabled")
	return &SESSender{client: sesv2.NewFromConfig(cfg), from: from, logger: logger}, nil
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	to := msg.Recipients()
	if len(to) == 0 {
		return nil
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error().Err(err).Strs("to", to).Msg("SES SendEmail failed")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
