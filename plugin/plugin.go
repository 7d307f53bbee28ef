// Package plugin provides an extensible plugin system for Subgate.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/subgate/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPlanAdded is called when a plan is added to the catalog.
type OnPlanAdded interface {
	Plugin
	OnPlanAdded(ctx context.Context, plan interface{}) error
}

// OnPlanRemoved is called when a plan is removed from the catalog.
type OnPlanRemoved interface {
	Plugin
	OnPlanRemoved(ctx context.Context, planID string) error
}

// OnPlanEnabled is called when a plan starts accepting payments.
type OnPlanEnabled interface {
	Plugin
	OnPlanEnabled(ctx context.Context, planID string) error
}

// OnPlanDisabled is called when a plan stops accepting payments.
type OnPlanDisabled interface {
	Plugin
	OnPlanDisabled(ctx context.Context, planID string) error
}

// OnPriceSet is called when a plan price is configured for an asset.
type OnPriceSet interface {
	Plugin
	OnPriceSet(ctx context.Context, planID string, asset types.Asset, price types.Amount) error
}

// OnPriceRemoved is called when a plan price is removed for an asset.
type OnPriceRemoved interface {
	Plugin
	OnPriceRemoved(ctx context.Context, planID string, asset types.Asset) error
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigUpdated is called when the global configuration changes.
type OnConfigUpdated interface {
	Plugin
	OnConfigUpdated(ctx context.Context, cfg interface{}) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentAccepted is called when a payment passes verification and
// commits, with the minted receipt.
type OnPaymentAccepted interface {
	Plugin
	OnPaymentAccepted(ctx context.Context, receipt interface{}) error
}

// OnPaymentRejected is called when a payment fails a precondition.
type OnPaymentRejected interface {
	Plugin
	OnPaymentRejected(ctx context.Context, user types.Address, planID string, incoming interface{}, reason error) error
}

// OnPayoutForwarded is called after a verified payment is forwarded to
// the payout address.
type OnPayoutForwarded interface {
	Plugin
	OnPayoutForwarded(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnEntitlementChanged is called when a payment activates, stacks, or
// resets a user's access window.
type OnEntitlementChanged interface {
	Plugin
	OnEntitlementChanged(ctx context.Context, userPlan interface{}, transition string) error
}
