package sharelinks

import (
	"fmt"

	"portfolio-backend/internal/shared/apperr"
)

var (
	ErrNotFound = fmt.Errorf("share link %w", apperr.ErrNotFound)
	ErrExpired  = fmt.Errorf("share link %w", apperr.ErrExpired)
	// ErrRevoked is reported as gone, like an expired link.
	ErrRevoked = fmt.Errorf("share link revoked: %w", apperr.ErrExpired)
)
