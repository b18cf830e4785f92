package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Security is "starttls" (default), "ssl" or "none".
	Security string
	Timeout  time.Duration
	From     string
	FromName string
}

// SMTPTransport sends mail through an SMTP relay. A fresh connection is
// dialed for every message.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport validates cfg and returns a transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is required", domain.ErrConfiguration)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: from address is required", domain.ErrConfiguration)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPTransport{cfg: cfg}, nil
}

// Name implements notify.Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
	}
	switch strings.ToLower(t.cfg.Security) {
	case "ssl", "tls":
		opts = append(opts, mail.WithSSLPort(false))
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	return opts
}

// buildMessage turns env into a MIME message: text/plain alone, or
// multipart/alternative when an HTML body is present.
func (t *SMTPTransport) buildMessage(env domain.Envelope) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if t.cfg.FromName != "" {
		if err := msg.FromFormat(t.cfg.FromName, t.cfg.From); err != nil {
			return nil, fmt.Errorf("set from: %w", err)
		}
	} else if err := msg.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(env.Subject)
	msg.SetDate()
	msg.SetMessageIDWithValue(uuid.NewString() + "@" + domainOf(t.cfg.From))

	msg.SetBodyString(mail.TypeTextPlain, env.Text)
	if env.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, env.HTML)
	}
	return msg, nil
}

// Send implements notify.Transport.
func (t *SMTPTransport) Send(ctx context.Context, env domain.Envelope) error {
	msg, err := t.buildMessage(env)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(t.cfg.Host, t.options()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
