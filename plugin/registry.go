package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/subgate/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onPlanAdded          []OnPlanAdded
	onPlanRemoved        []OnPlanRemoved
	onPlanEnabled        []OnPlanEnabled
	onPlanDisabled       []OnPlanDisabled
	onPriceSet           []OnPriceSet
	onPriceRemoved       []OnPriceRemoved
	onConfigUpdated      []OnConfigUpdated
	onPaymentAccepted    []OnPaymentAccepted
	onPaymentRejected    []OnPaymentRejected
	onPayoutForwarded    []OnPayoutForwarded
	onEntitlementChanged []OnEntitlementChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPlanAdded); ok {
		r.onPlanAdded = append(r.onPlanAdded, v)
	}
	if v, ok := p.(OnPlanRemoved); ok {
		r.onPlanRemoved = append(r.onPlanRemoved, v)
	}
	if v, ok := p.(OnPlanEnabled); ok {
		r.onPlanEnabled = append(r.onPlanEnabled, v)
	}
	if v, ok := p.(OnPlanDisabled); ok {
		r.onPlanDisabled = append(r.onPlanDisabled, v)
	}
	if v, ok := p.(OnPriceSet); ok {
		r.onPriceSet = append(r.onPriceSet, v)
	}
	if v, ok := p.(OnPriceRemoved); ok {
		r.onPriceRemoved = append(r.onPriceRemoved, v)
	}
	if v, ok := p.(OnConfigUpdated); ok {
		r.onConfigUpdated = append(r.onConfigUpdated, v)
	}
	if v, ok := p.(OnPaymentAccepted); ok {
		r.onPaymentAccepted = append(r.onPaymentAccepted, v)
	}
	if v, ok := p.(OnPaymentRejected); ok {
		r.onPaymentRejected = append(r.onPaymentRejected, v)
	}
	if v, ok := p.(OnPayoutForwarded); ok {
		r.onPayoutForwarded = append(r.onPayoutForwarded, v)
	}
	if v, ok := p.(OnEntitlementChanged); ok {
		r.onEntitlementChanged = append(r.onEntitlementChanged, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPlanAdded)(nil)).Elem(), "OnPlanAdded")
	checkInterface(reflect.TypeOf((*OnPriceSet)(nil)).Elem(), "OnPriceSet")
	checkInterface(reflect.TypeOf((*OnConfigUpdated)(nil)).Elem(), "OnConfigUpdated")
	checkInterface(reflect.TypeOf((*OnPaymentAccepted)(nil)).Elem(), "OnPaymentAccepted")
	checkInterface(reflect.TypeOf((*OnPaymentRejected)(nil)).Elem(), "OnPaymentRejected")
	checkInterface(reflect.TypeOf((*OnPayoutForwarded)(nil)).Elem(), "OnPayoutForwarded")
	checkInterface(reflect.TypeOf((*OnEntitlementChanged)(nil)).Elem(), "OnEntitlementChanged")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanAdded emits a plan added event.
func (r *Registry) EmitPlanAdded(ctx context.Context, plan interface{}) {
	r.mu.RLock()
	plugins := r.onPlanAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanAdded(ctx, plan)
		}); err != nil {
			r.logger.Warn("plugin OnPlanAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanRemoved emits a plan removed event.
func (r *Registry) EmitPlanRemoved(ctx context.Context, planID string) {
	r.mu.RLock()
	plugins := r.onPlanRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanRemoved(ctx, planID)
		}); err != nil {
			r.logger.Warn("plugin OnPlanRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanEnabled emits a plan enabled event.
func (r *Registry) EmitPlanEnabled(ctx context.Context, planID string) {
	r.mu.RLock()
	plugins := r.onPlanEnabled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanEnabled(ctx, planID)
		}); err != nil {
			r.logger.Warn("plugin OnPlanEnabled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanDisabled emits a plan disabled event.
func (r *Registry) EmitPlanDisabled(ctx context.Context, planID string) {
	r.mu.RLock()
	plugins := r.onPlanDisabled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanDisabled(ctx, planID)
		}); err != nil {
			r.logger.Warn("plugin OnPlanDisabled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPriceSet emits a price set event.
func (r *Registry) EmitPriceSet(ctx context.Context, planID string, asset types.Asset, price types.Amount) {
	r.mu.RLock()
	plugins := r.onPriceSet
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceSet(ctx, planID, asset, price)
		}); err != nil {
			r.logger.Warn("plugin OnPriceSet failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPriceRemoved emits a price removed event.
func (r *Registry) EmitPriceRemoved(ctx context.Context, planID string, asset types.Asset) {
	r.mu.RLock()
	plugins := r.onPriceRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceRemoved(ctx, planID, asset)
		}); err != nil {
			r.logger.Warn("plugin OnPriceRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitConfigUpdated emits a configuration updated event.
func (r *Registry) EmitConfigUpdated(ctx context.Context, cfg interface{}) {
	r.mu.RLock()
	plugins := r.onConfigUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnConfigUpdated(ctx, cfg)
		}); err != nil {
			r.logger.Warn("plugin OnConfigUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentAccepted emits a payment accepted event.
func (r *Registry) EmitPaymentAccepted(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentAccepted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentAccepted(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentAccepted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentRejected emits a payment rejected event.
func (r *Registry) EmitPaymentRejected(ctx context.Context, user types.Address, planID string, incoming interface{}, reason error) {
	r.mu.RLock()
	plugins := r.onPaymentRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRejected(ctx, user, planID, incoming, reason)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPayoutForwarded emits a payout forwarded event.
func (r *Registry) EmitPayoutForwarded(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) {
	r.mu.RLock()
	plugins := r.onPayoutForwarded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPayoutForwarded(ctx, asset, amount, to)
		}); err != nil {
			r.logger.Warn("plugin OnPayoutForwarded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEntitlementChanged emits an entitlement transition event.
func (r *Registry) EmitEntitlementChanged(ctx context.Context, userPlan interface{}, transition string) {
	r.mu.RLock()
	plugins := r.onEntitlementChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEntitlementChanged(ctx, userPlan, transition)
		}); err != nil {
			r.logger.Warn("plugin OnEntitlementChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the payment pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
