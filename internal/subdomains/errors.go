package subdomains

import (
	"fmt"

	"portfolio-backend/internal/shared/apperr"
)

// InvalidError reports a candidate that can never be reserved.
type InvalidError struct {
	Candidate string
	Reason    string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid subdomain %q: %s", e.Candidate, e.Reason)
}

// Is lets callers match apperr.ErrInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == apperr.ErrInvalid
}

func (e *InvalidError) PublicMessage() string {
	return e.Reason
}

func (e *InvalidError) PublicDetails() any {
	return map[string]any{"candidate": e.Candidate}
}

// Check validates candidate and rejects reserved labels, returning the
// normalized label or an *InvalidError.
func Check(candidate string) (string, error) {
	c := Normalize(candidate)
	if v := Validate(c); !v.Valid {
		return "", &InvalidError{Candidate: c, Reason: v.Reason}
	}
	if IsReserved(c) {
		return "", &InvalidError{Candidate: c, Reason: "reserved"}
	}
	return c, nil
}
