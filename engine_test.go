package subgate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/subgate"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/store/memory"
	"github.com/xraph/subgate/types"
)

const month = 2_592_000 * time.Second

var (
	owner    = types.Address("erd1owner")
	treasury = types.Address("erd1treasury")
	alice    = types.Address("erd1alice")
	bob      = types.Address("erd1bob")
)

// fakeClock is a settable timestamp source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// recordingSender remembers every outbound transfer and can be told to fail.
type recordingSender struct {
	mu    sync.Mutex
	sends []sentTransfer
	fail  error
}

type sentTransfer struct {
	Asset  types.Asset
	Amount types.Amount
	To     types.Address
}

func (s *recordingSender) Send(_ context.Context, asset types.Asset, amount types.Amount, to types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sends = append(s.sends, sentTransfer{Asset: asset, Amount: amount, To: to})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sends)
}

type testEnv struct {
	engine *subgate.Engine
	clock  *fakeClock
	sender *recordingSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &fakeClock{t: time.Unix(1000, 0)}
	sender := &recordingSender{}
	engine := subgate.New(memory.New(),
		subgate.WithOwner(owner),
		subgate.WithClock(clock.Now),
		subgate.WithSender(sender),
	)
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Stop() })

	return &testEnv{engine: engine, clock: clock, sender: sender}
}

func ownerCtx() context.Context {
	return subgate.WithCaller(context.Background(), owner)
}

// setupCatalog configures one enabled "monthly" plan priced at 100 native
// units, with payouts to the treasury and the engine switched on.
func (env *testEnv) setupCatalog(t *testing.T) {
	t.Helper()
	ctx := ownerCtx()

	if _, err := env.engine.AddPlan(ctx, "monthly", month); err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if err := env.engine.SetPrice(ctx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	if err := env.engine.SetPayoutAddress(ctx, treasury); err != nil {
		t.Fatalf("SetPayoutAddress failed: %v", err)
	}
	if err := env.engine.SetEnabled(ctx, true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
}

func (env *testEnv) pay(ctx context.Context, planID string, asset types.Asset, amount types.Amount) (*payment.Receipt, error) {
	return env.engine.Pay(ctx, planID, payment.Incoming{Asset: asset, Amount: amount})
}

// ──────────────────────────────────────────────────
// Authorization
// ──────────────────────────────────────────────────

func TestMutationsRequireOwner(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)

	tests := []struct {
		name string
		op   func(ctx context.Context) error
	}{
		{"AddPlan", func(ctx context.Context) error {
			_, err := env.engine.AddPlan(ctx, "yearly", 12*month)
			return err
		}},
		{"RemovePlan", func(ctx context.Context) error {
			return env.engine.RemovePlan(ctx, "monthly")
		}},
		{"EnablePlan", func(ctx context.Context) error {
			return env.engine.EnablePlan(ctx, "monthly")
		}},
		{"DisablePlan", func(ctx context.Context) error {
			return env.engine.DisablePlan(ctx, "monthly")
		}},
		{"SetPrice", func(ctx context.Context) error {
			return env.engine.SetPrice(ctx, "monthly", types.NativeAsset, types.Units(200))
		}},
		{"RemovePrice", func(ctx context.Context) error {
			return env.engine.RemovePrice(ctx, "monthly", types.NativeAsset)
		}},
		{"SetPayoutAddress", func(ctx context.Context) error {
			return env.engine.SetPayoutAddress(ctx, alice)
		}},
		{"SetEnabled", func(ctx context.Context) error {
			return env.engine.SetEnabled(ctx, false)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A non-owner caller is refused.
			err := tt.op(subgate.WithCaller(context.Background(), alice))
			if !errors.Is(err, subgate.ErrUnauthorized) {
				t.Errorf("non-owner: got %v, want ErrUnauthorized", err)
			}

			// So is a context with no caller at all.
			err = tt.op(context.Background())
			if !errors.Is(err, subgate.ErrUnauthorized) {
				t.Errorf("missing caller: got %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestPayRequiresCaller(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)

	_, err := env.pay(context.Background(), "monthly", types.NativeAsset, types.Units(100))
	var verr subgate.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

// ──────────────────────────────────────────────────
// Catalog management
// ──────────────────────────────────────────────────

func TestAddPlanValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	if _, err := env.engine.AddPlan(ctx, "", month); err == nil {
		t.Error("expected error for empty plan ID")
	}
	if _, err := env.engine.AddPlan(ctx, "monthly", 0); err == nil {
		t.Error("expected error for zero validity")
	}
	if _, err := env.engine.AddPlan(ctx, "monthly", -time.Hour); err == nil {
		t.Error("expected error for negative validity")
	}

	if _, err := env.engine.AddPlan(ctx, "monthly", month); err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if _, err := env.engine.AddPlan(ctx, "monthly", month); !errors.Is(err, subgate.ErrPlanExists) {
		t.Errorf("duplicate: got %v, want ErrPlanExists", err)
	}
}

func TestRemovePlanCascadesPrices(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	ctx := ownerCtx()

	if err := env.engine.SetPrice(ctx, "monthly", "usdc", types.Units(99)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	// A payment first, so the entitlement has something to survive.
	if _, err := env.pay(subgate.WithCaller(context.Background(), alice), "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}

	if err := env.engine.RemovePlan(ctx, "monthly"); err != nil {
		t.Fatalf("RemovePlan failed: %v", err)
	}

	p, err := env.engine.GetPlan(ctx, "monthly")
	if err != nil || p != nil {
		t.Errorf("plan should be gone, got %v, %v", p, err)
	}
	prices, err := env.engine.ListPrices(ctx, "monthly")
	if err != nil {
		t.Fatalf("ListPrices failed: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("expected no price residue, got %d entries", len(prices))
	}

	// Removal stops new payments, it does not revoke granted access.
	up, err := env.engine.GetUserPlan(ctx, alice, "monthly")
	if err != nil {
		t.Fatalf("GetUserPlan failed: %v", err)
	}
	if up == nil {
		t.Error("entitlement should survive plan removal")
	}
}

func TestEnableDisablePlan(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	ctx := ownerCtx()
	aliceCtx := subgate.WithCaller(context.Background(), alice)

	if err := env.engine.DisablePlan(ctx, "monthly"); err != nil {
		t.Fatalf("DisablePlan failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); !errors.Is(err, subgate.ErrPlanDisabled) {
		t.Errorf("got %v, want ErrPlanDisabled", err)
	}

	if err := env.engine.EnablePlan(ctx, "monthly"); err != nil {
		t.Fatalf("EnablePlan failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Errorf("Pay after re-enable failed: %v", err)
	}

	if err := env.engine.EnablePlan(ctx, "missing"); !errors.Is(err, subgate.ErrUnknownPlan) {
		t.Errorf("got %v, want ErrUnknownPlan", err)
	}
}

func TestSetAndRemovePrice(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	ctx := ownerCtx()
	aliceCtx := subgate.WithCaller(context.Background(), alice)

	// Overwriting a price replaces it.
	if err := env.engine.SetPrice(ctx, "monthly", types.NativeAsset, types.Units(150)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); !errors.Is(err, subgate.ErrInvalidAmount) {
		t.Errorf("old price should be gone: got %v, want ErrInvalidAmount", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(150)); err != nil {
		t.Errorf("Pay at new price failed: %v", err)
	}

	// Removing the price drops the asset from the accepted set.
	if err := env.engine.RemovePrice(ctx, "monthly", types.NativeAsset); err != nil {
		t.Fatalf("RemovePrice failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(150)); !errors.Is(err, subgate.ErrAssetNotAccepted) {
		t.Errorf("got %v, want ErrAssetNotAccepted", err)
	}

	// Validation.
	if err := env.engine.SetPrice(ctx, "monthly", "", types.Units(1)); err == nil {
		t.Error("expected error for empty asset")
	}
	if err := env.engine.SetPrice(ctx, "monthly", types.NativeAsset, types.Units(-1)); err == nil {
		t.Error("expected error for negative price")
	}
	if err := env.engine.SetPrice(ctx, "missing", types.NativeAsset, types.Units(1)); !errors.Is(err, subgate.ErrUnknownPlan) {
		t.Errorf("got %v, want ErrUnknownPlan", err)
	}
}

// ──────────────────────────────────────────────────
// Configuration
// ──────────────────────────────────────────────────

func TestSetEnabledRequiresPayoutAddress(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	if err := env.engine.SetEnabled(ctx, true); !errors.Is(err, subgate.ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
	enabled, err := env.engine.IsEnabled(ctx)
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if enabled {
		t.Error("engine must stay disabled after a refused enable")
	}

	// Disabling never needs a payout address.
	if err := env.engine.SetEnabled(ctx, false); err != nil {
		t.Fatalf("SetEnabled(false) failed: %v", err)
	}

	if err := env.engine.SetPayoutAddress(ctx, treasury); err != nil {
		t.Fatalf("SetPayoutAddress failed: %v", err)
	}
	if err := env.engine.SetEnabled(ctx, true); err != nil {
		t.Fatalf("SetEnabled(true) failed: %v", err)
	}
	enabled, _ = env.engine.IsEnabled(ctx)
	if !enabled {
		t.Error("engine should be enabled")
	}

	addr, err := env.engine.PayoutAddress(ctx)
	if err != nil {
		t.Fatalf("PayoutAddress failed: %v", err)
	}
	if addr != treasury {
		t.Errorf("got payout address %q, want %q", addr, treasury)
	}
}

func TestSetPayoutAddressValidation(t *testing.T) {
	env := newTestEnv(t)
	if err := env.engine.SetPayoutAddress(ownerCtx(), ""); err == nil {
		t.Error("expected error for empty payout address")
	}
}

// ──────────────────────────────────────────────────
// Payment verification
// ──────────────────────────────────────────────────

func TestPayPreconditionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()
	aliceCtx := subgate.WithCaller(context.Background(), alice)

	// Engine disabled masks everything else, even an unknown plan.
	if _, err := env.pay(aliceCtx, "missing", types.NativeAsset, types.Units(1)); !errors.Is(err, subgate.ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}

	env.setupCatalog(t)

	if _, err := env.pay(aliceCtx, "missing", types.NativeAsset, types.Units(100)); !errors.Is(err, subgate.ErrUnknownPlan) {
		t.Errorf("got %v, want ErrUnknownPlan", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", "usdc", types.Units(100)); !errors.Is(err, subgate.ErrAssetNotAccepted) {
		t.Errorf("got %v, want ErrAssetNotAccepted", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(99)); !errors.Is(err, subgate.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}

	// A wrong amount on a disabled plan reports the amount first: the
	// plan-enabled check is the last precondition.
	if err := env.engine.DisablePlan(ctx, "monthly"); err != nil {
		t.Fatalf("DisablePlan failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(99)); !errors.Is(err, subgate.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount before ErrPlanDisabled", err)
	}
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); !errors.Is(err, subgate.ErrPlanDisabled) {
		t.Errorf("got %v, want ErrPlanDisabled", err)
	}
}

func TestPayRejectionLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	aliceCtx := subgate.WithCaller(context.Background(), alice)
	ctx := context.Background()

	rejections := []struct {
		name   string
		planID string
		asset  types.Asset
		amount types.Amount
	}{
		{"unknown plan", "missing", types.NativeAsset, types.Units(100)},
		{"asset not accepted", "monthly", "usdc", types.Units(100)},
		{"wrong amount", "monthly", types.NativeAsset, types.Units(99)},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.pay(aliceCtx, tt.planID, tt.asset, tt.amount); err == nil {
				t.Fatal("expected rejection")
			}

			up, err := env.engine.GetUserPlan(ctx, alice, tt.planID)
			if err != nil {
				t.Fatalf("GetUserPlan failed: %v", err)
			}
			if up != nil {
				t.Error("rejected payment must not create an entitlement")
			}
			receipts, err := env.engine.ListReceipts(ctx, alice)
			if err != nil {
				t.Fatalf("ListReceipts failed: %v", err)
			}
			if len(receipts) != 0 {
				t.Errorf("rejected payment must not mint receipts, got %d", len(receipts))
			}
			total, err := env.engine.AssetTotal(ctx, tt.asset)
			if err != nil {
				t.Fatalf("AssetTotal failed: %v", err)
			}
			if !total.IsZero() {
				t.Errorf("rejected payment must not touch totals, got %s", total)
			}
			if env.sender.count() != 0 {
				t.Error("rejected payment must not forward funds")
			}
		})
	}
}

func TestPayActivateStackReset(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	aliceCtx := subgate.WithCaller(context.Background(), alice)
	ctx := context.Background()

	// First payment at T=1000 activates a window ending one validity later.
	env.clock.Set(time.Unix(1000, 0))
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	up, err := env.engine.GetUserPlan(ctx, alice, "monthly")
	if err != nil || up == nil {
		t.Fatalf("GetUserPlan: %v, %v", up, err)
	}
	if want := time.Unix(2_593_000, 0); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}

	// Renewal at T=2000 stacks onto the running window.
	env.clock.Set(time.Unix(2000, 0))
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	up, _ = env.engine.GetUserPlan(ctx, alice, "monthly")
	if want := time.Unix(5_185_000, 0); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}

	// Renewal at T=3_000_000 finds the window lapsed and restarts it.
	env.clock.Set(time.Unix(5_200_000, 0))
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	up, _ = env.engine.GetUserPlan(ctx, alice, "monthly")
	if want := time.Unix(7_792_000, 0); !up.ExpiresAt.Equal(want) {
		t.Errorf("got expiry %v, want %v", up.ExpiresAt, want)
	}

	if !up.FirstSubscribed.Equal(time.Unix(1000, 0)) {
		t.Errorf("FirstSubscribed changed: %v", up.FirstSubscribed)
	}
	if !up.LastSubscribed.Equal(time.Unix(5_200_000, 0)) {
		t.Errorf("LastSubscribed not updated: %v", up.LastSubscribed)
	}

	receipts, err := env.engine.ListReceipts(ctx, alice)
	if err != nil {
		t.Fatalf("ListReceipts failed: %v", err)
	}
	if len(receipts) != 3 {
		t.Fatalf("got %d receipts, want 3", len(receipts))
	}
	for i, r := range receipts {
		if r.User != alice || r.PlanID != "monthly" {
			t.Errorf("receipt %d has wrong identity: %s / %s", i, r.User, r.PlanID)
		}
		if !r.Amount.Equal(types.Units(100)) {
			t.Errorf("receipt %d amount %s, want 100", i, r.Amount)
		}
	}

	if env.sender.count() != 3 {
		t.Errorf("got %d forwarded transfers, want 3", env.sender.count())
	}
}

func TestPayForwardsFullAmountToPayout(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)

	if _, err := env.pay(subgate.WithCaller(context.Background(), alice), "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay failed: %v", err)
	}

	env.sender.mu.Lock()
	defer env.sender.mu.Unlock()
	if len(env.sender.sends) != 1 {
		t.Fatalf("got %d transfers, want 1", len(env.sender.sends))
	}
	got := env.sender.sends[0]
	if got.To != treasury {
		t.Errorf("forwarded to %q, want %q", got.To, treasury)
	}
	if got.Asset != types.NativeAsset || !got.Amount.Equal(types.Units(100)) {
		t.Errorf("forwarded %s %s, want 100 native", got.Amount, got.Asset)
	}
}

func TestPayTransferFailureDiscardsPayment(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	env.sender.fail = errors.New("host refused transfer")
	ctx := context.Background()

	_, err := env.pay(subgate.WithCaller(ctx, alice), "monthly", types.NativeAsset, types.Units(100))
	if !errors.Is(err, subgate.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	up, _ := env.engine.GetUserPlan(ctx, alice, "monthly")
	if up != nil {
		t.Error("failed transfer must roll back the entitlement")
	}
	receipts, _ := env.engine.ListReceipts(ctx, alice)
	if len(receipts) != 0 {
		t.Errorf("failed transfer must roll back receipts, got %d", len(receipts))
	}
	total, _ := env.engine.AssetTotal(ctx, types.NativeAsset)
	if !total.IsZero() {
		t.Errorf("failed transfer must roll back totals, got %s", total)
	}
}

// ──────────────────────────────────────────────────
// Ledger aggregation
// ──────────────────────────────────────────────────

func TestAccountingIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	ctx := ownerCtx()

	if err := env.engine.SetPrice(ctx, "monthly", "usdc", types.Units(25)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	aliceCtx := subgate.WithCaller(context.Background(), alice)
	bobCtx := subgate.WithCaller(context.Background(), bob)

	payments := []struct {
		ctx    context.Context
		asset  types.Asset
		amount types.Amount
	}{
		{aliceCtx, types.NativeAsset, types.Units(100)},
		{aliceCtx, types.NativeAsset, types.Units(100)},
		{bobCtx, types.NativeAsset, types.Units(100)},
		{aliceCtx, "usdc", types.Units(25)},
		{bobCtx, "usdc", types.Units(25)},
		{bobCtx, "usdc", types.Units(25)},
	}
	for i, p := range payments {
		if _, err := env.pay(p.ctx, "monthly", p.asset, p.amount); err != nil {
			t.Fatalf("payment %d failed: %v", i, err)
		}
	}

	// The global total per asset equals the sum over users.
	users, err := env.engine.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}

	assets, err := env.engine.ListPaymentAssets(ctx)
	if err != nil {
		t.Fatalf("ListPaymentAssets failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d payment assets, want 2", len(assets))
	}

	for _, asset := range assets {
		global, err := env.engine.AssetTotal(ctx, asset)
		if err != nil {
			t.Fatalf("AssetTotal(%s) failed: %v", asset, err)
		}
		var sum types.Amount
		for _, user := range users {
			part, err := env.engine.UserAssetTotal(ctx, user, asset)
			if err != nil {
				t.Fatalf("UserAssetTotal(%s, %s) failed: %v", user, asset, err)
			}
			sum = sum.Add(part)
		}
		if !sum.Equal(global) {
			t.Errorf("asset %s: per-user sum %s != global total %s", asset, sum, global)
		}
	}

	native, _ := env.engine.AssetTotal(ctx, types.NativeAsset)
	if !native.Equal(types.Units(300)) {
		t.Errorf("native total %s, want 300", native)
	}
	usdc, _ := env.engine.AssetTotal(ctx, "usdc")
	if !usdc.Equal(types.Units(75)) {
		t.Errorf("usdc total %s, want 75", usdc)
	}

	aliceNative, _ := env.engine.UserAssetTotal(ctx, alice, types.NativeAsset)
	if !aliceNative.Equal(types.Units(200)) {
		t.Errorf("alice native total %s, want 200", aliceNative)
	}
}

// ──────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────

func TestViewsReturnEmptyOnMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.engine.GetPlan(ctx, "missing")
	if err != nil || p != nil {
		t.Errorf("GetPlan: got %v, %v, want nil, nil", p, err)
	}
	up, err := env.engine.GetUserPlan(ctx, alice, "missing")
	if err != nil || up != nil {
		t.Errorf("GetUserPlan: got %v, %v, want nil, nil", up, err)
	}

	prices, err := env.engine.ListPrices(ctx, "missing")
	if err != nil || len(prices) != 0 {
		t.Errorf("ListPrices: got %v, %v, want empty", prices, err)
	}
	plans, err := env.engine.ListUserPlans(ctx, alice)
	if err != nil || len(plans) != 0 {
		t.Errorf("ListUserPlans: got %v, %v, want empty", plans, err)
	}
	users, err := env.engine.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Errorf("ListUsers: got %v, %v, want empty", users, err)
	}
	receipts, err := env.engine.ListReceipts(ctx, alice)
	if err != nil || len(receipts) != 0 {
		t.Errorf("ListReceipts: got %v, %v, want empty", receipts, err)
	}
	assets, err := env.engine.ListPaymentAssets(ctx)
	if err != nil || len(assets) != 0 {
		t.Errorf("ListPaymentAssets: got %v, %v, want empty", assets, err)
	}

	total, err := env.engine.AssetTotal(ctx, "usdc")
	if err != nil || !total.IsZero() {
		t.Errorf("AssetTotal: got %s, %v, want zero", total, err)
	}
	userTotal, err := env.engine.UserAssetTotal(ctx, alice, "usdc")
	if err != nil || !userTotal.IsZero() {
		t.Errorf("UserAssetTotal: got %s, %v, want zero", userTotal, err)
	}

	enabled, err := env.engine.IsEnabled(ctx)
	if err != nil || enabled {
		t.Errorf("IsEnabled: got %v, %v, want false", enabled, err)
	}
	addr, err := env.engine.PayoutAddress(ctx)
	if err != nil || !addr.IsZero() {
		t.Errorf("PayoutAddress: got %q, %v, want empty", addr, err)
	}
}

func TestListUserPlansAcrossPlans(t *testing.T) {
	env := newTestEnv(t)
	env.setupCatalog(t)
	ctx := ownerCtx()

	if _, err := env.engine.AddPlan(ctx, "yearly", 12*month); err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if err := env.engine.SetPrice(ctx, "yearly", types.NativeAsset, types.Units(1000)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	aliceCtx := subgate.WithCaller(context.Background(), alice)
	if _, err := env.pay(aliceCtx, "monthly", types.NativeAsset, types.Units(100)); err != nil {
		t.Fatalf("Pay monthly failed: %v", err)
	}
	if _, err := env.pay(aliceCtx, "yearly", types.NativeAsset, types.Units(1000)); err != nil {
		t.Fatalf("Pay yearly failed: %v", err)
	}

	plans, err := env.engine.ListUserPlans(ctx, alice)
	if err != nil {
		t.Fatalf("ListUserPlans failed: %v", err)
	}
	if len(plans) != 2 {
		t.Errorf("got %d entitlements, want 2", len(plans))
	}
}
