// Package config holds the engine's global switch and payout routing.
package config

import "github.com/xraph/subgate/types"

// Config is the global engine state: whether payments are accepted, and
// where verified payments are forwarded. Enabled may only become true
// once PayoutAddress is set.
type Config struct {
	Enabled       bool          `json:"enabled"`
	PayoutAddress types.Address `json:"payout_address"`
}
