package subgate

import "github.com/xraph/subgate/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Asset is re-exported from types package.
type Asset = types.Asset

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	Units       = types.Units
	ZeroAmount  = types.ZeroAmount
	ParseAmount = types.ParseAmount
	MustAmount  = types.MustAmount
	SumAmounts  = types.SumAmounts
)

// NativeAsset is the identifier of the host's native asset.
const NativeAsset = types.NativeAsset

// Re-export Entity constructors
var (
	NewEntity = types.NewEntity
	EntityAt  = types.EntityAt
)
