package notify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
)

// Content is one message as produced by a renderer. HTML is optional; when
// it is set and Text is empty the plain-text alternative is derived from it.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer produces the content for one recipient. An error aborts the
// batch and is reported as a configuration error.
type Renderer func(to domain.Visitor) (Content, error)

// Observer is told about every delivery attempt. kind labels the message
// type ("newsletter", "welcome", ...).
type Observer interface {
	Delivery(kind string, ok bool, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Delivery(string, bool, time.Duration) {}

// Dispatcher sends messages synchronously through one transport.
type Dispatcher struct {
	transport Transport
	observer  Observer
}

// NewDispatcher creates a dispatcher. A nil observer is allowed.
func NewDispatcher(t Transport, obs Observer) *Dispatcher {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Dispatcher{transport: t, observer: obs}
}

// SendOne makes a single delivery attempt to recipient and reports whether
// the transport accepted it. Transport errors and panics are logged and
// turned into false.
func (d *Dispatcher) SendOne(ctx context.Context, kind, recipient string, c Content) (ok bool) {
	start := time.Now()
	env := domain.Envelope{To: recipient, Subject: c.Subject, Text: c.Text, HTML: c.HTML}
	if env.HTML != "" && env.Text == "" {
		env.Text = PlainText(env.HTML)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("mail transport panicked",
				"kind", kind, "recipient", recipient, "transport", d.transport.Name(), "panic", r)
			ok = false
		}
		d.observer.Delivery(kind, ok, time.Since(start))
	}()

	if err := d.transport.Send(ctx, env); err != nil {
		logger.Warn("delivery failed",
			"kind", kind, "recipient", recipient, "transport", d.transport.Name(), "error", err)
		return false
	}
	logger.Debug("delivered", "kind", kind, "recipient", recipient, "transport", d.transport.Name())
	return true
}

// SendBatch delivers render(v) to every visitor yielded by recipients, in
// order, one at a time. Individual delivery failures are counted in the
// report and do not stop the batch. A rendering error stops the batch and is
// returned wrapping domain.ErrConfiguration; a recipient iteration error
// stops it and is returned as is. In both cases the report covers the
// attempts made so far.
func (d *Dispatcher) SendBatch(ctx context.Context, kind string, recipients iter.Seq2[domain.Visitor, error], render Renderer) (domain.DeliveryReport, error) {
	report := domain.DeliveryReport{BatchID: uuid.NewString()}
	start := time.Now()
	logger.Info("batch started", "kind", kind, "batch_id", report.BatchID)

	for v, err := range recipients {
		if err != nil {
			logger.Error("batch aborted: recipient listing failed",
				"kind", kind, "batch_id", report.BatchID, "error", err)
			return report, err
		}
		content, err := render(v)
		if err != nil {
			if !errors.Is(err, domain.ErrConfiguration) {
				err = fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
			}
			logger.Error("batch aborted: render failed",
				"kind", kind, "batch_id", report.BatchID, "error", err)
			return report, err
		}

		report.Attempted++
		if d.SendOne(ctx, kind, v.Email, content) {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	logger.Info("batch finished",
		"kind", kind,
		"batch_id", report.BatchID,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed", time.Since(start))
	return report, nil
}
