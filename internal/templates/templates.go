// Package templates lists the visual templates a document can be rendered
// with. Rendering itself lives in the frontend; the backend only needs ids and
// the premium flag for entitlement checks.
package templates

import (
	"fmt"
	"strings"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
)

// DefaultID is assigned to documents created without a template.
const DefaultID = "minimal"

// Template describes a selectable template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Premium bool   `json:"premium"`
}

// ErrUnknown is returned for template ids outside the catalog.
var ErrUnknown = fmt.Errorf("unknown template: %w", apperr.ErrInvalid)

var catalog = []Template{
	{ID: "minimal", Name: "Minimal"},
	{ID: "classic", Name: "Classic"},
	{ID: "developer", Name: "Developer"},
	{ID: "modern", Name: "Modern", Premium: true},
	{ID: "executive", Name: "Executive", Premium: true},
	{ID: "creative", Name: "Creative", Premium: true},
}

// All returns the template catalog.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a template by id, case-insensitively.
func Lookup(id string) (Template, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Authorize resolves id and checks it against tier. An empty id selects DefaultID.
func Authorize(tier plans.Tier, id string) (Template, error) {
	if strings.TrimSpace(id) == "" {
		id = DefaultID
	}
	t, ok := Lookup(id)
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	if t.Premium && !plans.CanUsePremiumTemplate(tier) {
		return Template{}, plans.Deny(tier, plans.CapabilityPremiumTemplate)
	}
	return t, nil
}
