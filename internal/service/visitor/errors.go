package visitor

import (
	"fmt"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Sentinel errors for the visitor service layer.
var (
	ErrNotFound = fmt.Errorf("visitor %w", domain.ErrNotFound)
)
