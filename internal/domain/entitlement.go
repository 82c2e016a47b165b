package domain

// ActionKind names a gated operation for the entitlement resolver.
type ActionKind string

const (
	ActionCivicAction ActionKind = "civic_action"
	ActionAIRequest   ActionKind = "ai_request"
	ActionExport      ActionKind = "export"
	ActionAPICall     ActionKind = "api_call"
)

// DenyReason classifies why a permission check was denied.
type DenyReason string

const (
	DenyQuotaExceeded       DenyReason = "quota_exceeded"
	DenyCapabilityNotInPlan DenyReason = "capability_not_in_plan"
)

// Decision is the outcome of a permission check. Denial is an expected,
// frequent outcome and is returned as data, never as an error.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
	// Limit is set for quota denials, for display.
	Limit int `json:"limit,omitempty"`
	// RequiredTier is set for capability denials: the cheapest tier that
	// would permit the action.
	RequiredTier string `json:"requiredTier,omitempty"`
}

// Permit is the allowed decision.
func Permit() Decision {
	return Decision{Allowed: true}
}

// UsageSummary reports usage-vs-limit for the dashboard meter.
// Percentage is not clamped: a soft-limit race can push it past 100.
type UsageSummary struct {
	Tier       string  `json:"tier"`
	Used       int     `json:"used"`
	Limit      Quota   `json:"limit"`
	Percentage float64 `json:"percentage"`
}
