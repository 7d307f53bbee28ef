package subgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/subgate/config"
	"github.com/xraph/subgate/entitlement"
	"github.com/xraph/subgate/id"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/plan"
	"github.com/xraph/subgate/plugin"
	"github.com/xraph/subgate/store"
	"github.com/xraph/subgate/types"
)

// Engine is the subscription billing and entitlement engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	now       func() time.Time
	sender    Sender
	authorize Authorizer
}

// New creates a new Engine instance. Until an owner (or a custom
// authorizer) is configured, every mutating operation is unauthorized.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the timestamp source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithSender sets the outbound transfer primitive used to forward
// verified payments to the payout address.
func WithSender(s Sender) Option {
	return func(e *Engine) {
		e.sender = s
	}
}

// WithOwner authorizes exactly one address for owner-gated operations.
func WithOwner(owner types.Address) Option {
	return func(e *Engine) {
		e.authorize = func(caller types.Address) bool { return caller == owner }
	}
}

// WithAuthorizer replaces the owner predicate with a custom one.
func WithAuthorizer(a Authorizer) Option {
	return func(e *Engine) {
		e.authorize = a
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("subgate started", "plugins", e.plugins.Count())
	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

func (e *Engine) gate(ctx context.Context) (types.Address, error) {
	caller := CallerFrom(ctx)
	if e.authorize == nil || !e.authorize(caller) {
		return caller, ErrUnauthorized
	}
	return caller, nil
}

// ──────────────────────────────────────────────────
// Catalog Management (owner-gated)
// ──────────────────────────────────────────────────

// AddPlan creates a catalog entry under the given ID. New plans are
// enabled immediately; they accept no payments until a price is set.
func (e *Engine) AddPlan(ctx context.Context, planID string, validity time.Duration) (*plan.Plan, error) {
	if _, err := e.gate(ctx); err != nil {
		return nil, err
	}
	if planID == "" {
		return nil, ValidationError{Field: "plan_id", Message: "must not be empty"}
	}
	if validity <= 0 {
		return nil, ValidationError{Field: "validity", Message: "must be positive"}
	}

	p := &plan.Plan{
		Entity:   types.EntityAt(e.now()),
		ID:       planID,
		Status:   plan.StatusEnabled,
		Validity: validity,
	}

	if err := e.store.CreatePlan(ctx, p); err != nil {
		return nil, err
	}

	e.plugins.EmitPlanAdded(ctx, p)
	e.logger.Info("plan added", "plan_id", planID, "validity", validity)
	return p, nil
}

// RemovePlan deletes a catalog entry together with every price entry
// configured for it. Entitlements already granted against the plan are
// untouched: removal stops new payments, it does not revoke access.
func (e *Engine) RemovePlan(ctx context.Context, planID string) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}

	if err := e.store.DeletePlan(ctx, planID); err != nil {
		return err
	}

	e.plugins.EmitPlanRemoved(ctx, planID)
	e.logger.Info("plan removed", "plan_id", planID)
	return nil
}

// EnablePlan marks a plan as accepting payments.
func (e *Engine) EnablePlan(ctx context.Context, planID string) error {
	return e.setPlanStatus(ctx, planID, plan.StatusEnabled)
}

// DisablePlan stops a plan from accepting payments. Existing
// entitlements keep running to their expiry.
func (e *Engine) DisablePlan(ctx context.Context, planID string) error {
	return e.setPlanStatus(ctx, planID, plan.StatusDisabled)
}

func (e *Engine) setPlanStatus(ctx context.Context, planID string, status plan.Status) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}

	err := e.store.Atomic(ctx, func(ctx context.Context, tx store.Store) error {
		p, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if p.Status == status {
			return nil
		}
		p.Status = status
		p.TouchAt(e.now())
		return tx.UpdatePlan(ctx, p)
	})
	if err != nil {
		return err
	}

	if status == plan.StatusEnabled {
		e.plugins.EmitPlanEnabled(ctx, planID)
	} else {
		e.plugins.EmitPlanDisabled(ctx, planID)
	}
	e.logger.Info("plan status set", "plan_id", planID, "status", status)
	return nil
}

// SetPrice configures the price of a plan in one asset, adding the asset
// to the plan's accepted set. Setting a price for an already-accepted
// asset overwrites it; repeating the same call is a no-op.
func (e *Engine) SetPrice(ctx context.Context, planID string, asset types.Asset, price types.Amount) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}
	if asset.IsZero() {
		return ValidationError{Field: "asset", Message: "must not be empty"}
	}
	if price.IsNegative() {
		return ValidationError{Field: "price", Message: "must not be negative"}
	}

	if err := e.store.PutPrice(ctx, planID, asset, price); err != nil {
		return err
	}

	e.plugins.EmitPriceSet(ctx, planID, asset, price)
	e.logger.Info("price set", "plan_id", planID, "asset", asset, "price", price)
	return nil
}

// RemovePrice removes one asset's price entry, dropping the asset from
// the plan's accepted set in the same step.
func (e *Engine) RemovePrice(ctx context.Context, planID string, asset types.Asset) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}

	if err := e.store.DeletePrice(ctx, planID, asset); err != nil {
		return err
	}

	e.plugins.EmitPriceRemoved(ctx, planID, asset)
	e.logger.Info("price removed", "plan_id", planID, "asset", asset)
	return nil
}

// ──────────────────────────────────────────────────
// Engine Configuration (owner-gated)
// ──────────────────────────────────────────────────

// SetPayoutAddress sets the destination verified payments are forwarded
// to. It may be changed at any time; payments in flight settle against
// the address read inside their own transaction.
func (e *Engine) SetPayoutAddress(ctx context.Context, addr types.Address) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}
	if addr.IsZero() {
		return ValidationError{Field: "payout_address", Message: "must not be empty"}
	}

	var cfg *config.Config
	err := e.store.Atomic(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		cfg, err = tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		cfg.PayoutAddress = addr
		return tx.PutConfig(ctx, cfg)
	})
	if err != nil {
		return err
	}

	e.plugins.EmitConfigUpdated(ctx, cfg)
	e.logger.Info("payout address set", "payout_address", addr)
	return nil
}

// SetEnabled flips the global payment switch. Enabling requires a payout
// address: a verified payment must always have somewhere to go.
//
// Note: the contract this engine descends from disabled the system no
// matter which value the owner requested. That was a defect, and this
// implementation honors the requested value instead.
func (e *Engine) SetEnabled(ctx context.Context, enabled bool) error {
	if _, err := e.gate(ctx); err != nil {
		return err
	}

	var cfg *config.Config
	err := e.store.Atomic(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		cfg, err = tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if enabled && cfg.PayoutAddress.IsZero() {
			return ErrConfiguration
		}
		cfg.Enabled = enabled
		return tx.PutConfig(ctx, cfg)
	})
	if err != nil {
		return err
	}

	e.plugins.EmitConfigUpdated(ctx, cfg)
	e.logger.Info("engine enabled flag set", "enabled", enabled)
	return nil
}

// ──────────────────────────────────────────────────
// Payment Verification
// ──────────────────────────────────────────────────

// Pay verifies an incoming payment from the context caller against the
// plan's configured price and, when every precondition holds, applies
// the entitlement transition, appends a receipt, updates the payment
// totals, and forwards the full amount to the payout address — all in
// one transaction. Preconditions are checked in a fixed order: engine
// enabled, plan exists, asset accepted, amount exact, plan enabled; the
// first failure aborts with no state change and no transfer.
func (e *Engine) Pay(ctx context.Context, planID string, in payment.Incoming) (*payment.Receipt, error) {
	caller := CallerFrom(ctx)
	if caller.IsZero() {
		return nil, ValidationError{Field: "caller", Message: "missing from context"}
	}

	now := e.now()
	var (
		receipt    *payment.Receipt
		userPlan   *entitlement.UserPlan
		transition entitlement.Transition
		payout     types.Address
	)

	err := e.store.Atomic(ctx, func(ctx context.Context, tx store.Store) error {
		cfg, err := tx.GetConfig(ctx)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			return ErrDisabled
		}

		p, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}

		price, err := tx.GetPrice(ctx, planID, in.Asset)
		if err != nil {
			return err
		}
		if !in.Amount.Equal(price) {
			return ErrInvalidAmount
		}

		if !p.Enabled() {
			return ErrPlanDisabled
		}

		userPlan, err = tx.GetUserPlan(ctx, caller, planID)
		switch {
		case err == nil:
			transition = userPlan.Extend(now, p.Validity)
		case errors.Is(err, ErrNotFound):
			userPlan = entitlement.Activate(caller, planID, now, p.Validity)
			transition = entitlement.Activated
		default:
			return err
		}
		if err := tx.PutUserPlan(ctx, userPlan); err != nil {
			return err
		}

		receipt = &payment.Receipt{
			ID:     id.NewPaymentID(),
			User:   caller,
			PlanID: planID,
			Asset:  in.Asset,
			Amount: in.Amount,
			PaidAt: now,
		}
		if err := tx.AppendReceipt(ctx, receipt); err != nil {
			return err
		}
		if err := tx.AddToTotals(ctx, caller, in.Asset, in.Amount); err != nil {
			return err
		}

		// The transfer runs last inside the transaction: if the host
		// cannot forward the funds, the whole payment is discarded.
		payout = cfg.PayoutAddress
		if e.sender != nil {
			if err := e.sender.Send(ctx, in.Asset, in.Amount, payout); err != nil {
				return fmt.Errorf("%w: %v", ErrTransferFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		if IsRejected(err) {
			e.plugins.EmitPaymentRejected(ctx, caller, planID, &in, err)
			e.logger.Info("payment rejected",
				"user", caller,
				"plan_id", planID,
				"asset", in.Asset,
				"amount", in.Amount,
				"reason", err,
			)
		}
		return nil, err
	}

	e.plugins.EmitPaymentAccepted(ctx, receipt)
	e.plugins.EmitEntitlementChanged(ctx, userPlan, string(transition))
	if e.sender != nil {
		e.plugins.EmitPayoutForwarded(ctx, in.Asset, in.Amount, payout)
	}

	e.logger.Info("payment accepted",
		"receipt_id", receipt.ID,
		"user", caller,
		"plan_id", planID,
		"asset", in.Asset,
		"amount", in.Amount,
		"transition", transition,
		"expires_at", userPlan.ExpiresAt,
	)
	return receipt, nil
}

// ──────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────
//
// Views never fail on missing keys: an unknown plan, user, or asset
// yields an empty result, never an error.

// IsEnabled reports whether the engine accepts payments.
func (e *Engine) IsEnabled(ctx context.Context) (bool, error) {
	cfg, err := e.store.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Enabled, nil
}

// PayoutAddress returns the configured payout destination, or the zero
// Address when none is set.
func (e *Engine) PayoutAddress(ctx context.Context) (types.Address, error) {
	cfg, err := e.store.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.PayoutAddress, nil
}

// ListPlans returns every catalog entry.
func (e *Engine) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return e.store.ListPlans(ctx)
}

// GetPlan returns one catalog entry, or nil when the plan is unknown.
func (e *Engine) GetPlan(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := e.store.GetPlan(ctx, planID)
	if IsNotFound(err) {
		return nil, nil
	}
	return p, err
}

// ListPrices returns the configured prices of one plan, empty when the
// plan is unknown or has no prices.
func (e *Engine) ListPrices(ctx context.Context, planID string) ([]plan.PriceEntry, error) {
	return e.store.ListPrices(ctx, planID)
}

// GetUserPlan returns one user's entitlement record for a plan, or nil
// when the user never paid for it.
func (e *Engine) GetUserPlan(ctx context.Context, user types.Address, planID string) (*entitlement.UserPlan, error) {
	up, err := e.store.GetUserPlan(ctx, user, planID)
	if IsNotFound(err) {
		return nil, nil
	}
	return up, err
}

// ListUserPlans returns every entitlement record of one user, lapsed
// records included.
func (e *Engine) ListUserPlans(ctx context.Context, user types.Address) ([]*entitlement.UserPlan, error) {
	return e.store.ListUserPlans(ctx, user)
}

// ListUsers returns every address that ever made a verified payment.
func (e *Engine) ListUsers(ctx context.Context) ([]types.Address, error) {
	return e.store.ListUsers(ctx)
}

// ListPaymentAssets returns every asset a verified payment was made in.
func (e *Engine) ListPaymentAssets(ctx context.Context) ([]types.Asset, error) {
	return e.store.ListPaymentAssets(ctx)
}

// AssetTotal returns the cumulative amount ever paid in one asset,
// zero when the asset never saw a payment.
func (e *Engine) AssetTotal(ctx context.Context, asset types.Asset) (types.Amount, error) {
	return e.store.AssetTotal(ctx, asset)
}

// UserAssetTotal returns the cumulative amount one user ever paid in one
// asset, zero when no such payment exists.
func (e *Engine) UserAssetTotal(ctx context.Context, user types.Address, asset types.Asset) (types.Amount, error) {
	return e.store.UserAssetTotal(ctx, user, asset)
}

// ListReceipts returns every receipt minted for one user's payments, in
// payment order.
func (e *Engine) ListReceipts(ctx context.Context, user types.Address) ([]*payment.Receipt, error) {
	return e.store.ListReceipts(ctx, user)
}
