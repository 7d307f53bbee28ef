package entitlement

import (
	"context"

	"github.com/xraph/subgate/types"
)

type Store interface {
	Get(ctx context.Context, user types.Address, planID string) (*UserPlan, error)
	Put(ctx context.Context, up *UserPlan) error
	ListByUser(ctx context.Context, user types.Address) ([]*UserPlan, error)
	ListUsers(ctx context.Context) ([]types.Address, error)
}
