package payment

import (
	"time"

	"github.com/xraph/subgate/id"
	"github.com/xraph/subgate/types"
)

// Incoming is the transfer attached to a pay call: one asset, one amount,
// already received by the host before the engine runs.
type Incoming struct {
	Asset  types.Asset  `json:"asset"`
	Amount types.Amount `json:"amount"`
}

// Receipt is the immutable record minted for every verified payment.
// Receipts are append-only; no operation mutates or deletes one.
type Receipt struct {
	ID     id.PaymentID `json:"id"`
	User   types.Address `json:"user"`
	PlanID string        `json:"plan_id"`
	Asset  types.Asset   `json:"asset"`
	Amount types.Amount  `json:"amount"`
	PaidAt time.Time     `json:"paid_at"`
}

// AssetTotal is the cumulative amount ever paid in one asset.
// Totals only grow — the engine has no decrement path.
type AssetTotal struct {
	Asset types.Asset  `json:"asset"`
	Total types.Amount `json:"total"`
}

// UserAssetTotal is the cumulative amount one user ever paid in one asset.
type UserAssetTotal struct {
	User  types.Address `json:"user"`
	Asset types.Asset   `json:"asset"`
	Total types.Amount  `json:"total"`
}
