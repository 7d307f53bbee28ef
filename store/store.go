package store

import (
	"context"

	"github.com/xraph/subgate/config"
	"github.com/xraph/subgate/entitlement"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/plan"
	"github.com/xraph/subgate/types"
)

// Store is the unified storage interface for all Subgate state.
// Instead of embedding the sub-interfaces, we explicitly declare all
// methods to avoid naming conflicts.
type Store interface {
	// Config methods
	GetConfig(ctx context.Context) (*config.Config, error)
	PutConfig(ctx context.Context, cfg *config.Config) error

	// Plan methods
	CreatePlan(ctx context.Context, p *plan.Plan) error
	GetPlan(ctx context.Context, planID string) (*plan.Plan, error)
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
	UpdatePlan(ctx context.Context, p *plan.Plan) error
	// DeletePlan removes the plan and cascades deletion of every price
	// entry for it — no residue is permitted.
	DeletePlan(ctx context.Context, planID string) error

	// Price methods
	PutPrice(ctx context.Context, planID string, asset types.Asset, price types.Amount) error
	GetPrice(ctx context.Context, planID string, asset types.Asset) (types.Amount, error)
	DeletePrice(ctx context.Context, planID string, asset types.Asset) error
	ListPrices(ctx context.Context, planID string) ([]plan.PriceEntry, error)

	// Entitlement methods
	GetUserPlan(ctx context.Context, user types.Address, planID string) (*entitlement.UserPlan, error)
	PutUserPlan(ctx context.Context, up *entitlement.UserPlan) error
	ListUserPlans(ctx context.Context, user types.Address) ([]*entitlement.UserPlan, error)
	ListUsers(ctx context.Context) ([]types.Address, error)

	// Payment ledger methods
	AppendReceipt(ctx context.Context, r *payment.Receipt) error
	ListReceipts(ctx context.Context, user types.Address) ([]*payment.Receipt, error)
	AddToTotals(ctx context.Context, user types.Address, asset types.Asset, amount types.Amount) error
	AssetTotal(ctx context.Context, asset types.Asset) (types.Amount, error)
	UserAssetTotal(ctx context.Context, user types.Address, asset types.Asset) (types.Amount, error)
	ListPaymentAssets(ctx context.Context) ([]types.Asset, error)

	// Atomic runs fn inside one call-scoped transaction: every mutation
	// fn performs through tx commits together when fn returns nil and is
	// discarded entirely when fn returns an error.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
