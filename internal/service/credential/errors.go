package credential

import (
	"errors"
	"fmt"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Sentinel errors for the credential store.
var (
	ErrNotFound = fmt.Errorf("credential %w", domain.ErrNotFound)
	ErrExpired  = errors.New("credential expired")
)
