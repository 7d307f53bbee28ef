// Package observability provides a metrics extension for Subgate that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/subgate/plugin"
	"github.com/xraph/subgate/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnPlanAdded          = (*MetricsExtension)(nil)
	_ plugin.OnPlanRemoved        = (*MetricsExtension)(nil)
	_ plugin.OnPlanEnabled        = (*MetricsExtension)(nil)
	_ plugin.OnPlanDisabled       = (*MetricsExtension)(nil)
	_ plugin.OnPriceSet           = (*MetricsExtension)(nil)
	_ plugin.OnPriceRemoved       = (*MetricsExtension)(nil)
	_ plugin.OnConfigUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnPaymentAccepted    = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRejected    = (*MetricsExtension)(nil)
	_ plugin.OnPayoutForwarded    = (*MetricsExtension)(nil)
	_ plugin.OnEntitlementChanged = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Subgate plugin to automatically track payment metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	PlanAdded    Counter
	PlanRemoved  Counter
	PlanEnabled  Counter
	PlanDisabled Counter
	PriceSet     Counter
	PriceRemoved Counter

	// Configuration metrics
	ConfigUpdated Counter

	// Payment metrics
	PaymentAccepted Counter
	PaymentRejected Counter
	PayoutForwarded Counter

	// Entitlement metrics
	EntitlementActivated Counter
	EntitlementStacked   Counter
	EntitlementReset     Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Catalog metrics
		PlanAdded:    factory.Counter("subgate.plan.added"),
		PlanRemoved:  factory.Counter("subgate.plan.removed"),
		PlanEnabled:  factory.Counter("subgate.plan.enabled"),
		PlanDisabled: factory.Counter("subgate.plan.disabled"),
		PriceSet:     factory.Counter("subgate.price.set"),
		PriceRemoved: factory.Counter("subgate.price.removed"),

		// Configuration metrics
		ConfigUpdated: factory.Counter("subgate.config.updated"),

		// Payment metrics
		PaymentAccepted: factory.Counter("subgate.payment.accepted"),
		PaymentRejected: factory.Counter("subgate.payment.rejected"),
		PayoutForwarded: factory.Counter("subgate.payout.forwarded"),

		// Entitlement metrics
		EntitlementActivated: factory.Counter("subgate.entitlement.activated"),
		EntitlementStacked:   factory.Counter("subgate.entitlement.stacked"),
		EntitlementReset:     factory.Counter("subgate.entitlement.reset"),

		// Error metrics
		StoreErrors:  factory.Counter("subgate.store.errors"),
		PluginErrors: factory.Counter("subgate.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanAdded implements plugin.OnPlanAdded.
func (m *MetricsExtension) OnPlanAdded(_ context.Context, _ interface{}) error {
	m.PlanAdded.Inc()
	return nil
}

// OnPlanRemoved implements plugin.OnPlanRemoved.
func (m *MetricsExtension) OnPlanRemoved(_ context.Context, _ string) error {
	m.PlanRemoved.Inc()
	return nil
}

// OnPlanEnabled implements plugin.OnPlanEnabled.
func (m *MetricsExtension) OnPlanEnabled(_ context.Context, _ string) error {
	m.PlanEnabled.Inc()
	return nil
}

// OnPlanDisabled implements plugin.OnPlanDisabled.
func (m *MetricsExtension) OnPlanDisabled(_ context.Context, _ string) error {
	m.PlanDisabled.Inc()
	return nil
}

// OnPriceSet implements plugin.OnPriceSet.
func (m *MetricsExtension) OnPriceSet(_ context.Context, _ string, _ types.Asset, _ types.Amount) error {
	m.PriceSet.Inc()
	return nil
}

// OnPriceRemoved implements plugin.OnPriceRemoved.
func (m *MetricsExtension) OnPriceRemoved(_ context.Context, _ string, _ types.Asset) error {
	m.PriceRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigUpdated implements plugin.OnConfigUpdated.
func (m *MetricsExtension) OnConfigUpdated(_ context.Context, _ interface{}) error {
	m.ConfigUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentAccepted implements plugin.OnPaymentAccepted.
func (m *MetricsExtension) OnPaymentAccepted(_ context.Context, _ interface{}) error {
	m.PaymentAccepted.Inc()
	return nil
}

// OnPaymentRejected implements plugin.OnPaymentRejected.
func (m *MetricsExtension) OnPaymentRejected(_ context.Context, _ types.Address, _ string, _ interface{}, _ error) error {
	m.PaymentRejected.Inc()
	return nil
}

// OnPayoutForwarded implements plugin.OnPayoutForwarded.
func (m *MetricsExtension) OnPayoutForwarded(_ context.Context, _ types.Asset, _ types.Amount, _ types.Address) error {
	m.PayoutForwarded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnEntitlementChanged implements plugin.OnEntitlementChanged.
func (m *MetricsExtension) OnEntitlementChanged(_ context.Context, _ interface{}, transition string) error {
	switch transition {
	case "activated":
		m.EntitlementActivated.Inc()
	case "stacked":
		m.EntitlementStacked.Inc()
	case "reset":
		m.EntitlementReset.Inc()
	}
	return nil
}
