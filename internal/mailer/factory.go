package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/service/notify"
)

// Options selects a transport by name ("smtp", "ses" or "log") and carries
// the settings for each. From and FromName override the per-transport
// values.
type Options struct {
	Transport string
	From      string
	FromName  string
	SMTP      SMTPConfig
	SES       SESConfig
}

// New builds the transport named in opts.
func New(ctx context.Context, opts Options) (notify.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Transport)) {
	case "", "log":
		return NewLogTransport(50), nil
	case "smtp":
		cfg := opts.SMTP
		cfg.From, cfg.FromName = opts.From, opts.FromName
		return NewSMTPTransport(cfg)
	case "ses":
		cfg := opts.SES
		cfg.From, cfg.FromName = opts.From, opts.FromName
		return NewSESTransport(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown mail transport %q", domain.ErrConfiguration, opts.Transport)
	}
}
