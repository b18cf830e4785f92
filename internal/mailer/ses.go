package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
)

// sesAPI is the slice of the SES v2 client SESTransport needs.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures SESTransport. Empty keys fall back to the default
// AWS credential chain.
type SESConfig struct {
	Region           string
	AccessKey        string
	SecretKey        string
	ConfigurationSet string
	From             string
	FromName         string
}

// SESTransport sends mail through Amazon SES v2.
type SESTransport struct {
	client sesAPI
	cfg    SESConfig
}

// NewSESTransport builds an SES client from cfg.
func NewSESTransport(ctx context.Context, cfg SESConfig) (*SESTransport, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: from address is required", domain.ErrConfiguration)
	}
	if cfg.Region == "" {
		cfg.Region = "us-west-2"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESTransport(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newSESTransport(client sesAPI, cfg SESConfig) *SESTransport {
	return &SESTransport{client: client, cfg: cfg}
}

// Name implements notify.Transport.
func (t *SESTransport) Name() string { return "ses" }

// Send implements notify.Transport.
func (t *SESTransport) Send(ctx context.Context, env domain.Envelope) error {
	from := t.cfg.From
	if t.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", t.cfg.FromName, t.cfg.From)
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(env.Text), Charset: aws.String("UTF-8")},
	}
	if env.HTML != "" {
		body.Html = &types.Content{Data: aws.String(env.HTML), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{env.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(env.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if t.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(t.cfg.ConfigurationSet)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	logger.Debug("ses accepted message", "recipient", env.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
