package subgate

import (
	"context"

	"github.com/xraph/subgate/types"
)

// Sender forwards a verified payment to its destination. The host owns
// the transfer primitive; the engine only decides when a transfer is due.
// Send is called as the last step inside the payment transaction, so a
// failed transfer discards the whole payment.
type Sender interface {
	Send(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, asset types.Asset, amount types.Amount, to types.Address) error {
	return f(ctx, asset, amount, to)
}

// Authorizer decides whether a caller may perform owner-gated operations.
type Authorizer func(caller types.Address) bool

type callerKey struct{}

// WithCaller returns a context carrying the caller's address. The host
// must attach the caller before invoking any engine operation that acts
// on the caller's behalf.
func WithCaller(ctx context.Context, caller types.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom extracts the caller address from the context. Returns the
// zero Address when none was attached.
func CallerFrom(ctx context.Context) types.Address {
	if v, ok := ctx.Value(callerKey{}).(types.Address); ok {
		return v
	}
	return ""
}
