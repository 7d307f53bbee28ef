package payment

import (
	"context"

	"github.com/xraph/subgate/types"
)

type Store interface {
	AppendReceipt(ctx context.Context, r *Receipt) error
	ListReceipts(ctx context.Context, user types.Address) ([]*Receipt, error)

	// AddToTotals bumps both the global per-asset total and the
	// per-(user, asset) total by amount, initializing either on first touch.
	AddToTotals(ctx context.Context, user types.Address, asset types.Asset, amount types.Amount) error
	AssetTotal(ctx context.Context, asset types.Asset) (types.Amount, error)
	UserAssetTotal(ctx context.Context, user types.Address, asset types.Asset) (types.Amount, error)
	ListPaymentAssets(ctx context.Context) ([]types.Asset, error)
}
