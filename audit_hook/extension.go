// Package audithook bridges Subgate lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/subgate/plugin"
	"github.com/xraph/subgate/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnPlanAdded          = (*Extension)(nil)
	_ plugin.OnPlanRemoved        = (*Extension)(nil)
	_ plugin.OnPlanEnabled        = (*Extension)(nil)
	_ plugin.OnPlanDisabled       = (*Extension)(nil)
	_ plugin.OnPriceSet           = (*Extension)(nil)
	_ plugin.OnPriceRemoved       = (*Extension)(nil)
	_ plugin.OnConfigUpdated      = (*Extension)(nil)
	_ plugin.OnPaymentAccepted    = (*Extension)(nil)
	_ plugin.OnPaymentRejected    = (*Extension)(nil)
	_ plugin.OnPayoutForwarded    = (*Extension)(nil)
	_ plugin.OnEntitlementChanged = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// concrete audit system — callers inject one at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Subgate lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanAdded implements plugin.OnPlanAdded.
func (e *Extension) OnPlanAdded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPlanAdded, SeverityInfo, OutcomeSuccess,
		ResourcePlan, "", CategoryCatalog, nil,
		"event", "plan_added",
	)
}

// OnPlanRemoved implements plugin.OnPlanRemoved.
func (e *Extension) OnPlanRemoved(ctx context.Context, planID string) error {
	return e.record(ctx, ActionPlanRemoved, SeverityWarning, OutcomeSuccess,
		ResourcePlan, planID, CategoryCatalog, nil,
		"plan_id", planID,
	)
}

// OnPlanEnabled implements plugin.OnPlanEnabled.
func (e *Extension) OnPlanEnabled(ctx context.Context, planID string) error {
	return e.record(ctx, ActionPlanEnabled, SeverityInfo, OutcomeSuccess,
		ResourcePlan, planID, CategoryCatalog, nil,
		"plan_id", planID,
	)
}

// OnPlanDisabled implements plugin.OnPlanDisabled.
func (e *Extension) OnPlanDisabled(ctx context.Context, planID string) error {
	return e.record(ctx, ActionPlanDisabled, SeverityInfo, OutcomeSuccess,
		ResourcePlan, planID, CategoryCatalog, nil,
		"plan_id", planID,
	)
}

// OnPriceSet implements plugin.OnPriceSet.
func (e *Extension) OnPriceSet(ctx context.Context, planID string, asset types.Asset, price types.Amount) error {
	return e.record(ctx, ActionPriceSet, SeverityInfo, OutcomeSuccess,
		ResourcePrice, planID, CategoryCatalog, nil,
		"plan_id", planID,
		"asset", asset.String(),
		"price", price.String(),
	)
}

// OnPriceRemoved implements plugin.OnPriceRemoved.
func (e *Extension) OnPriceRemoved(ctx context.Context, planID string, asset types.Asset) error {
	return e.record(ctx, ActionPriceRemoved, SeverityInfo, OutcomeSuccess,
		ResourcePrice, planID, CategoryCatalog, nil,
		"plan_id", planID,
		"asset", asset.String(),
	)
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigUpdated implements plugin.OnConfigUpdated.
func (e *Extension) OnConfigUpdated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionConfigUpdated, SeverityWarning, OutcomeSuccess,
		ResourceConfig, "", CategoryConfig, nil,
		"event", "config_updated",
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentAccepted implements plugin.OnPaymentAccepted.
func (e *Extension) OnPaymentAccepted(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPaymentAccepted, SeverityInfo, OutcomeSuccess,
		ResourcePayment, "", CategoryPayment, nil,
		"event", "payment_accepted",
	)
}

// OnPaymentRejected implements plugin.OnPaymentRejected.
func (e *Extension) OnPaymentRejected(ctx context.Context, user types.Address, planID string, _ interface{}, reason error) error {
	return e.record(ctx, ActionPaymentRejected, SeverityWarning, OutcomeFailure,
		ResourcePayment, planID, CategoryPayment, reason,
		"user", user.String(),
		"plan_id", planID,
	)
}

// OnPayoutForwarded implements plugin.OnPayoutForwarded.
func (e *Extension) OnPayoutForwarded(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error {
	return e.record(ctx, ActionPayoutForwarded, SeverityInfo, OutcomeSuccess,
		ResourcePayout, "", CategoryPayment, nil,
		"asset", asset.String(),
		"amount", amount.String(),
		"to", to.String(),
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnEntitlementChanged implements plugin.OnEntitlementChanged.
func (e *Extension) OnEntitlementChanged(ctx context.Context, _ interface{}, transition string) error {
	action := ActionEntitlementActivated
	switch transition {
	case "stacked":
		action = ActionEntitlementStacked
	case "reset":
		action = ActionEntitlementReset
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceEntitlement, "", CategoryAccess, nil,
		"transition", transition,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
