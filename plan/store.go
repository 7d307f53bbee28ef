package plan

import (
	"context"

	"github.com/xraph/subgate/types"
)

type Store interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, planID string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Update(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, planID string) error

	PutPrice(ctx context.Context, planID string, asset types.Asset, price types.Amount) error
	GetPrice(ctx context.Context, planID string, asset types.Asset) (types.Amount, error)
	DeletePrice(ctx context.Context, planID string, asset types.Asset) error
	ListPrices(ctx context.Context, planID string) ([]PriceEntry, error)
}
