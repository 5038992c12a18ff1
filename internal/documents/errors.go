package documents

import (
	"fmt"

	"portfolio-backend/internal/shared/apperr"
)

var (
	// ErrNotFound indicates the document does not exist or is not visible to the caller.
	ErrNotFound = fmt.Errorf("document %w", apperr.ErrNotFound)
	// ErrConflict indicates another document already holds the subdomain.
	ErrConflict = fmt.Errorf("subdomain already taken: %w", apperr.ErrConflict)
	// ErrLimitReached indicates the owner is at the document limit for their plan.
	ErrLimitReached = fmt.Errorf("document limit reached: %w", apperr.ErrForbidden)
	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = fmt.Errorf("document: %w", apperr.ErrInvalid)
)
