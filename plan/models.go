package plan

import (
	"time"

	"github.com/xraph/subgate/types"
)

type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Plan is a catalog entry defining a subscription product. The ID is an
// opaque key chosen by the owner at creation time ("monthly", "yearly", …)
// and unique among live catalog entries.
type Plan struct {
	types.Entity
	ID     string        `json:"id"`
	Status Status        `json:"status"`
	// Validity is the entitlement window granted per verified payment.
	Validity time.Duration `json:"validity"`

	// Refund support is reserved but not implemented: no operation reads
	// these fields and no refund path exists anywhere in the engine.
	AllowsRefund bool          `json:"allows_refund"`
	RefundPeriod time.Duration `json:"refund_period"`
}

// Enabled reports whether the plan accepts payments.
func (p *Plan) Enabled() bool { return p.Status == StatusEnabled }

// PriceEntry is the configured price of a plan in one accepted asset.
// An entry exists iff the asset is a member of the plan's allowed-asset
// set; the set and the price map always move in lockstep.
type PriceEntry struct {
	PlanID string       `json:"plan_id"`
	Asset  types.Asset  `json:"asset"`
	Price  types.Amount `json:"price"`
}
