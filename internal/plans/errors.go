package plans

import (
	"fmt"

	"portfolio-backend/internal/shared/apperr"
)

// Capability names used in DeniedError.
const (
	CapabilityCreateDocument  = "create_document"
	CapabilityDeploySubdomain = "deploy_subdomain"
	CapabilityRemoveBranding  = "remove_branding"
	CapabilityPremiumTemplate = "premium_template"
)

// DeniedError reports an entitlement refusal with a user-facing reason.
type DeniedError struct {
	Tier       Tier
	Capability string
	Reason     string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied on %s plan: %s", e.Capability, PlanFor(e.Tier).Name, e.Reason)
}

// Is lets callers match apperr.ErrForbidden.
func (e *DeniedError) Is(target error) bool {
	return target == apperr.ErrForbidden
}

// Deny builds a DeniedError with a default upgrade hint for boolean capabilities.
func Deny(tier Tier, capability string) *DeniedError {
	plan := PlanFor(tier)
	var reason string
	switch capability {
	case CapabilityDeploySubdomain:
		reason = fmt.Sprintf("%s plan does not include custom subdomains; upgrade to Standard or Pro to publish", plan.Name)
	case CapabilityRemoveBranding:
		reason = fmt.Sprintf("%s plan does not allow removing branding; upgrade to Pro", plan.Name)
	case CapabilityPremiumTemplate:
		reason = fmt.Sprintf("%s plan does not include premium templates; upgrade to Standard or Pro", plan.Name)
	default:
		reason = fmt.Sprintf("not available on the %s plan", plan.Name)
	}
	return &DeniedError{Tier: plan.Tier, Capability: capability, Reason: reason}
}

// PublicMessage is the user-facing explanation rendered by HTTP handlers.
func (e *DeniedError) PublicMessage() string {
	return e.Reason
}

// PublicDetails carries the limiting plan and the suggested upgrade path.
func (e *DeniedError) PublicDetails() any {
	return map[string]any{
		"tier":       e.Tier,
		"plan":       PlanFor(e.Tier).Name,
		"capability": e.Capability,
		"upgradeTo":  upgradeTarget(e.Tier, e.Capability),
	}
}

// upgradeTarget returns the cheapest plan above tier that grants capability.
func upgradeTarget(tier Tier, capability string) Tier {
	current := PlanFor(tier)
	above := false
	for _, p := range catalog {
		if p.Tier == current.Tier {
			above = true
			continue
		}
		if !above {
			continue
		}
		if grants(p, current, capability) {
			return p.Tier
		}
	}
	return ""
}

func grants(p, current Plan, capability string) bool {
	switch capability {
	case CapabilityDeploySubdomain:
		return p.Capabilities.AllowDeploy
	case CapabilityRemoveBranding:
		return p.Capabilities.AllowBrandingRemoval
	case CapabilityPremiumTemplate:
		return p.Capabilities.AllowPremiumTemplates
	case CapabilityCreateDocument:
		return effectiveLimit(p) > effectiveLimit(current)
	default:
		return false
	}
}

func effectiveLimit(p Plan) int {
	if p.Capabilities.MaxDocuments == Unlimited {
		return int(^uint(0) >> 1)
	}
	return p.Capabilities.MaxDocuments
}
