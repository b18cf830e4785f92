package notify

import (
	"context"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Transport sends a single envelope. Implementations live in
// internal/mailer.
type Transport interface {
	Send(ctx context.Context, env domain.Envelope) error
	Name() string
}
