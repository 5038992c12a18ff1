// Package plans maps plan tiers to capabilities. Every function here is pure:
// callers read the owner's current tier and pass it in on each check.
package plans

import (
	"fmt"
	"strings"
)

// catalog is ordered from most to least restrictive.
var catalog = []Plan{
	{
		Tier:       TierFree,
		Name:       "Free",
		PriceCents: 0,
		Capabilities: Capabilities{
			MaxDocuments: 1,
		},
	},
	{
		Tier:       TierStandard,
		Name:       "Standard",
		PriceCents: 900,
		Capabilities: Capabilities{
			MaxDocuments:          5,
			AllowDeploy:           true,
			AllowPremiumTemplates: true,
		},
	},
	{
		Tier:       TierPro,
		Name:       "Pro",
		PriceCents: 1900,
		Capabilities: Capabilities{
			MaxDocuments:          Unlimited,
			AllowDeploy:           true,
			AllowBrandingRemoval:  true,
			AllowPremiumTemplates: true,
		},
	},
}

// ParseTier normalizes a stored or client-supplied tier label. Unknown and
// empty values fall back to the free tier; a missing profile is a valid state.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierStandard:
		return TierStandard
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}

// Catalog returns all plans, most restrictive first.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// PlanFor returns the plan for tier, falling back to the free plan.
func PlanFor(tier Tier) Plan {
	normalized := ParseTier(string(tier))
	for _, p := range catalog {
		if p.Tier == normalized {
			return p
		}
	}
	return catalog[0]
}

// CapabilitiesFor returns the capability set for tier.
func CapabilitiesFor(tier Tier) Capabilities {
	return PlanFor(tier).Capabilities
}

// CanCreateDocument reports whether an owner holding currentCount documents
// may create one more.
func CanCreateDocument(tier Tier, currentCount int) Decision {
	plan := PlanFor(tier)
	limit := plan.Capabilities.MaxDocuments
	if limit == Unlimited || currentCount < limit {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Reason: fmt.Sprintf("%s plan allows up to %d document(s); delete one or upgrade your plan to create more",
			plan.Name, limit),
	}
}

// CanDeploySubdomain reports whether tier may publish to a custom subdomain.
func CanDeploySubdomain(tier Tier) bool {
	return CapabilitiesFor(tier).AllowDeploy
}

// CanRemoveBranding reports whether tier may hide the platform badge.
func CanRemoveBranding(tier Tier) bool {
	return CapabilitiesFor(tier).AllowBrandingRemoval
}

// CanUsePremiumTemplate reports whether tier may select premium templates.
func CanUsePremiumTemplate(tier Tier) bool {
	return CapabilitiesFor(tier).AllowPremiumTemplates
}

// ShowBranding decides the platform badge at render time. The owner's
// preference only counts while their current tier allows removal, so a
// downgrade brings the badge back without touching stored documents.
func ShowBranding(hideRequested bool, tier Tier) bool {
	return !(hideRequested && CanRemoveBranding(tier))
}
