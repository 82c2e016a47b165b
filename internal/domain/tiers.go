package domain

import "encoding/json"

// Quota is a monthly allowance for a countable resource. The unlimited
// sentinel is exempt from counting entirely.
type Quota int

// QuotaUnlimited marks a quota with no limit.
const QuotaUnlimited Quota = -1

// Unlimited reports whether the quota is exempt from counting.
func (q Quota) Unlimited() bool {
	return q == QuotaUnlimited
}

// Allows reports whether one more unit fits under the quota given current usage.
func (q Quota) Allows(used int) bool {
	return q.Unlimited() || used < int(q)
}

// MarshalJSON encodes unlimited quotas as the string "unlimited".
func (q Quota) MarshalJSON() ([]byte, error) {
	if q.Unlimited() {
		return json.Marshal("unlimited")
	}
	return json.Marshal(int(q))
}

// UnmarshalJSON accepts either a number or the string "unlimited".
func (q *Quota) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QuotaUnlimited
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quota(n)
	return nil
}

// Capability is a boolean gate on a tier controlling access to a feature.
type Capability string

const (
	CapabilityAIRecommendations Capability = "ai_recommendations"
	CapabilityDataExport        Capability = "data_export"
	CapabilityAPIAccess         Capability = "api_access"
	CapabilityCustomBranding    Capability = "custom_branding"
	CapabilityPrioritySupport   Capability = "priority_support"
)

// TierLimits holds the capability limits for a tier.
type TierLimits struct {
	ActionsPerMonth   Quota `json:"actionsPerMonth"`
	Seats             Quota `json:"seats"`
	AIRecommendations bool  `json:"aiRecommendations"`
	DataExport        bool  `json:"dataExport"`
	APIAccess         bool  `json:"apiAccess"`
	CustomBranding    bool  `json:"customBranding"`
	PrioritySupport   bool  `json:"prioritySupport"`
}

// Has reports whether the capability flag is set.
func (l TierLimits) Has(c Capability) bool {
	switch c {
	case CapabilityAIRecommendations:
		return l.AIRecommendations
	case CapabilityDataExport:
		return l.DataExport
	case CapabilityAPIAccess:
		return l.APIAccess
	case CapabilityCustomBranding:
		return l.CustomBranding
	case CapabilityPrioritySupport:
		return l.PrioritySupport
	}
	return false
}

// Tier is a named subscription plan with fixed capability limits.
type Tier struct {
	Name       string     `json:"name"`
	PriceCents int        `json:"priceCents"` // monthly price in USD cents
	PriceID    string     `json:"priceId"`    // payment provider price id, empty for Free
	Features   []string   `json:"features"`
	Limits     TierLimits `json:"limits"`
	Popular    bool       `json:"popular"`
}

// Tier names. The set is closed: plan state in the database must always
// reference one of these.
const (
	TierFree       = "Free"
	TierPro        = "Pro"
	TierTeam       = "Team"
	TierNonprofit  = "Nonprofit"
	TierEnterprise = "Enterprise"
	TierGovernment = "Government"
)

// AvailableTiers returns all tiers in ascending price order.
func AvailableTiers() []Tier {
	return []Tier{
		{
			Name:       TierFree,
			PriceCents: 0,
			PriceID:    "",
			Features: []string{
				"10 actions per month",
				"Basic analytics",
				"Community leaderboard",
				"Public profile",
			},
			Limits: TierLimits{
				ActionsPerMonth: 10,
				Seats:           1,
			},
		},
		{
			Name:       TierPro,
			PriceCents: 2900,
			PriceID:    "price_pro_monthly",
			Features: []string{
				"Unlimited actions",
				"Full AI recommendations",
				"AI chat assistant",
				"Data export (CSV, JSON)",
				"All achievements",
				"Priority support",
			},
			Limits: TierLimits{
				ActionsPerMonth:   QuotaUnlimited,
				Seats:             1,
				AIRecommendations: true,
				DataExport:        true,
				PrioritySupport:   true,
			},
			Popular: true,
		},
		{
			Name:       TierTeam,
			PriceCents: 9900,
			PriceID:    "price_team_monthly",
			Features: []string{
				"Everything in Pro",
				"5 user seats",
				"Shared team dashboard",
				"Team analytics",
				"Basic API access",
				"SSO (Google, Microsoft)",
			},
			Limits: TierLimits{
				ActionsPerMonth:   QuotaUnlimited,
				Seats:             5,
				AIRecommendations: true,
				DataExport:        true,
				APIAccess:         true,
				PrioritySupport:   true,
			},
		},
		{
			Name:       TierNonprofit,
			PriceCents: 29900,
			PriceID:    "price_nonprofit_monthly",
			Features: []string{
				"Everything in Team",
				"50 user seats",
				"Custom branding",
				"Impact report generator",
				"Advanced analytics",
				"Full API access",
				"Dedicated account manager",
			},
			Limits: TierLimits{
				ActionsPerMonth:   QuotaUnlimited,
				Seats:             50,
				AIRecommendations: true,
				DataExport:        true,
				APIAccess:         true,
				CustomBranding:    true,
				PrioritySupport:   true,
			},
		},
		{
			Name:       TierEnterprise,
			PriceCents: 99900,
			PriceID:    "price_enterprise_monthly",
			Features: []string{
				"Everything in Nonprofit",
				"Unlimited users",
				"White-label platform",
				"Full API access (unlimited)",
				"Custom development hours",
				"SLA (99.9% uptime)",
				"24/7 priority support",
			},
			Limits: TierLimits{
				ActionsPerMonth:   QuotaUnlimited,
				Seats:             QuotaUnlimited,
				AIRecommendations: true,
				DataExport:        true,
				APIAccess:         true,
				CustomBranding:    true,
				PrioritySupport:   true,
			},
		},
		{
			Name:       TierGovernment,
			PriceCents: 249900,
			PriceID:    "price_government_monthly",
			Features: []string{
				"Everything in Enterprise",
				"Multi-department access",
				"Citizen engagement portal",
				"Compliance (GDPR, SOC 2)",
				"On-premise deployment option",
				"Custom workflows",
				"Dedicated support team",
			},
			Limits: TierLimits{
				ActionsPerMonth:   QuotaUnlimited,
				Seats:             QuotaUnlimited,
				AIRecommendations: true,
				DataExport:        true,
				APIAccess:         true,
				CustomBranding:    true,
				PrioritySupport:   true,
			},
		},
	}
}

// TierTable is an immutable lookup of tier definitions, built once at
// startup and injected wherever plan limits are consulted.
type TierTable struct {
	ordered []Tier // ascending price
	byName  map[string]Tier
}

// NewTierTable builds the lookup from the static tier set.
func NewTierTable() *TierTable {
	tiers := AvailableTiers()
	byName := make(map[string]Tier, len(tiers))
	for _, t := range tiers {
		byName[t.Name] = t
	}
	return &TierTable{ordered: tiers, byName: byName}
}

// All returns the tiers in ascending price order.
func (t *TierTable) All() []Tier {
	return t.ordered
}

// Lookup returns the tier definition for a name.
func (t *TierTable) Lookup(name string) (Tier, bool) {
	tier, ok := t.byName[name]
	return tier, ok
}

// MinimumTierWith returns the cheapest tier that has the capability flag
// set, for upgrade messaging.
func (t *TierTable) MinimumTierWith(c Capability) (Tier, bool) {
	for _, tier := range t.ordered {
		if tier.Limits.Has(c) {
			return tier, true
		}
	}
	return Tier{}, false
}
