package mailer

import (
	"context"
	"sync"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
)

// LogTransport writes envelopes to the structured log instead of sending
// them, and keeps the most recent ones in memory. For development.
type LogTransport struct {
	mu     sync.Mutex
	recent []domain.Envelope
	keep   int
}

// NewLogTransport returns a log sink remembering up to keep envelopes.
func NewLogTransport(keep int) *LogTransport {
	if keep <= 0 {
		keep = 100
	}
	return &LogTransport{keep: keep}
}

// Name implements notify.Transport.
func (t *LogTransport) Name() string { return "log" }

// Send implements notify.Transport.
func (t *LogTransport) Send(_ context.Context, env domain.Envelope) error {
	logger.Info("mail (log transport)",
		"recipient", env.To,
		"subject", env.Subject,
		"html", env.HTML != "",
		"text_bytes", len(env.Text))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = append(t.recent, env)
	if len(t.recent) > t.keep {
		t.recent = t.recent[len(t.recent)-t.keep:]
	}
	return nil
}

// Recent returns a copy of the remembered envelopes, oldest first.
func (t *LogTransport) Recent() []domain.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Envelope(nil), t.recent...)
}
