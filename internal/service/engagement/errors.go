package engagement

import (
	"fmt"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Sentinel errors for the engagement service layer.
var (
	ErrPostNotFound = fmt.Errorf("post %w", domain.ErrNotFound)
)
