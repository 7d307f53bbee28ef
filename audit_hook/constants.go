package audithook

// Action constants for audit events.
const (
	// Catalog actions
	ActionPlanAdded    = "plan.added"
	ActionPlanRemoved  = "plan.removed"
	ActionPlanEnabled  = "plan.enabled"
	ActionPlanDisabled = "plan.disabled"
	ActionPriceSet     = "price.set"
	ActionPriceRemoved = "price.removed"

	// Configuration actions
	ActionConfigUpdated = "config.updated"

	// Payment actions
	ActionPaymentAccepted = "payment.accepted"
	ActionPaymentRejected = "payment.rejected"
	ActionPayoutForwarded = "payout.forwarded"

	// Entitlement actions
	ActionEntitlementActivated = "entitlement.activated"
	ActionEntitlementStacked   = "entitlement.stacked"
	ActionEntitlementReset     = "entitlement.reset"
)

// Resource constants for audit events.
const (
	ResourcePlan        = "plan"
	ResourcePrice       = "price"
	ResourceConfig      = "config"
	ResourcePayment     = "payment"
	ResourcePayout      = "payout"
	ResourceEntitlement = "entitlement"
)

// Category constants for audit events.
const (
	CategoryCatalog = "catalog"
	CategoryConfig  = "config"
	CategoryPayment = "payment"
	CategoryAccess  = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
