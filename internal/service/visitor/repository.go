package visitor

import (
	"context"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Repository defines the data access contract for visitor records.
type Repository interface {
	// GetByEmail returns the visitor with exactly this email, or an error
	// wrapping domain.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.Visitor, error)

	// Create inserts v and fills in its ID. Returns an error wrapping
	// domain.ErrDuplicate if the email is already registered.
	Create(ctx context.Context, v *domain.Visitor) error

	// UpdateName overwrites the stored display name.
	UpdateName(ctx context.Context, id int64, name string) error

	// Exists reports whether a visitor with this email is registered.
	Exists(ctx context.Context, email string) (bool, error)

	// Page returns up to limit visitors with ID greater than afterID, in ID order.
	Page(ctx context.Context, afterID int64, limit int) ([]domain.Visitor, error)

	// Count returns the number of registered visitors.
	Count(ctx context.Context) (int, error)
}
