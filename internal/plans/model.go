package plans

// Tier identifies a subscription plan. Only a tier label is stored per owner;
// capabilities always come from the static catalog.
type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// Unlimited marks a capability bound that is never reached.
const Unlimited = -1

// Capabilities is the set of entitlements granted by a plan.
type Capabilities struct {
	MaxDocuments          int  `json:"maxDocuments"`
	AllowDeploy           bool `json:"allowDeploy"`
	AllowBrandingRemoval  bool `json:"allowBrandingRemoval"`
	AllowPremiumTemplates bool `json:"allowPremiumTemplates"`
}

// Plan is static configuration for a tier.
type Plan struct {
	Tier         Tier         `json:"tier"`
	Name         string       `json:"name"`
	PriceCents   int          `json:"priceCents"`
	Capabilities Capabilities `json:"capabilities"`
}

// Decision is the outcome of a bounded entitlement check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
