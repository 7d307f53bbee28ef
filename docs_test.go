package subgate_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/subgate"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/store/memory"
	"github.com/xraph/subgate/types"
)

// TestQuickStart exercises the flow shown in the package documentation:
// open a store, configure the catalog and payout routing, then take a
// payment and read the resulting entitlement back.
func TestQuickStart(t *testing.T) {
	ctx := context.Background()
	owner := types.Address("erd1owner")
	treasury := types.Address("erd1treasury")

	engine := subgate.New(memory.New(),
		subgate.WithOwner(owner),
		subgate.WithSender(subgate.SenderFunc(func(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error {
			return nil
		})),
	)
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer engine.Stop()

	ownerCtx := subgate.WithCaller(ctx, owner)

	if _, err := engine.AddPlan(ownerCtx, "monthly", 30*24*time.Hour); err != nil {
		t.Fatalf("AddPlan failed: %v", err)
	}
	if err := engine.SetPrice(ownerCtx, "monthly", subgate.NativeAsset, subgate.Units(100)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	if err := engine.SetPayoutAddress(ownerCtx, treasury); err != nil {
		t.Fatalf("SetPayoutAddress failed: %v", err)
	}
	if err := engine.SetEnabled(ownerCtx, true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	userCtx := subgate.WithCaller(ctx, "erd1alice")
	receipt, err := engine.Pay(userCtx, "monthly", payment.Incoming{
		Asset:  subgate.NativeAsset,
		Amount: subgate.Units(100),
	})
	if err != nil {
		t.Fatalf("Pay failed: %v", err)
	}
	if receipt.ID.IsNil() {
		t.Error("expected receipt to carry an ID")
	}

	up, err := engine.GetUserPlan(ctx, "erd1alice", "monthly")
	if err != nil {
		t.Fatalf("GetUserPlan failed: %v", err)
	}
	if up == nil {
		t.Fatal("expected an entitlement record after payment")
	}
	if !up.Active(time.Now()) {
		t.Error("expected entitlement to be active")
	}
}
