// Package subdomains turns display names into DNS labels and reports whether
// a label can be claimed. Reservation itself happens in the document store.
package subdomains

import (
	"context"
	"errors"
	"strings"

	"portfolio-backend/internal/documents"
)

const (
	MinLength = 3
	MaxLength = 30
)

// Availability statuses.
const (
	StatusAvailable = "available"
	StatusTaken     = "taken"
	StatusInvalid   = "invalid"
)

var reserved = map[string]struct{}{
	"www":   {},
	"api":   {},
	"admin": {},
}

// IsReserved reports whether label belongs to the platform itself.
func IsReserved(label string) bool {
	_, ok := reserved[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Validation is the outcome of a syntax check.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Availability is the outcome of CheckAvailability.
type Availability struct {
	Candidate string `json:"candidate"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// DeriveCandidate lowercases name, turns every run of characters outside
// [a-z0-9] into a single hyphen, trims hyphens and truncates to MaxLength.
// The result may still be too short; callers validate it.
func DeriveCandidate(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// Normalize lowercases and trims an explicitly requested label without
// rewriting its characters, so Validate still reports bad input.
func Normalize(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}

// Validate checks candidate against the label syntax: 3 to 30 characters
// from [a-z0-9-]. Input is lowercased first.
func Validate(candidate string) Validation {
	c := strings.ToLower(strings.TrimSpace(candidate))
	switch {
	case c == "":
		return Validation{Reason: "subdomain is required"}
	case len(c) < MinLength:
		return Validation{Reason: "subdomain must be at least 3 characters"}
	case len(c) > MaxLength:
		return Validation{Reason: "subdomain must be at most 30 characters"}
	}
	for _, r := range c {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return Validation{Reason: "subdomain may only contain letters, digits and hyphens"}
		}
	}
	if strings.HasPrefix(c, "-") || strings.HasSuffix(c, "-") {
		return Validation{Reason: "subdomain cannot start or end with a hyphen"}
	}
	return Validation{Valid: true}
}

// Lookup finds the document holding a subdomain.
type Lookup interface {
	GetBySubdomain(ctx context.Context, subdomain string) (documents.Document, error)
}

// Allocator answers availability questions against the document store.
type Allocator struct {
	Docs Lookup
}

// NewAllocator constructs an Allocator.
func NewAllocator(docs Lookup) *Allocator {
	return &Allocator{Docs: docs}
}

// CheckAvailability reports whether candidate could be reserved right now.
// The answer is advisory: a concurrent reservation can still win, and only
// the store's compare-and-set is authoritative. Store failures are returned
// as errors rather than guessed as available or taken.
func (a *Allocator) CheckAvailability(ctx context.Context, candidate string) (Availability, error) {
	c, err := Check(candidate)
	if err != nil {
		var invalid *InvalidError
		if errors.As(err, &invalid) {
			return Availability{Candidate: invalid.Candidate, Status: StatusInvalid, Reason: invalid.Reason}, nil
		}
		return Availability{}, err
	}
	out := Availability{Candidate: c}
	_, err = a.Docs.GetBySubdomain(ctx, c)
	switch {
	case err == nil:
		out.Status = StatusTaken
	case errors.Is(err, documents.ErrNotFound):
		out.Status = StatusAvailable
	default:
		return Availability{}, err
	}
	return out, nil
}
