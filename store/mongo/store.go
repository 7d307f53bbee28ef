// Package mongo implements the Subgate store on MongoDB.
//
// Atomic requires a deployment that supports multi-document
// transactions (replica set or sharded cluster).
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	subgate "github.com/xraph/subgate"
	"github.com/xraph/subgate/config"
	"github.com/xraph/subgate/entitlement"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/plan"
	"github.com/xraph/subgate/store"
	"github.com/xraph/subgate/types"
)

// Collection name constants.
const (
	colConfig          = "subgate_config"
	colPlans           = "subgate_plans"
	colPrices          = "subgate_prices"
	colUserPlans       = "subgate_user_plans"
	colReceipts        = "subgate_receipts"
	colAssetTotals     = "subgate_asset_totals"
	colUserAssetTotals = "subgate_user_asset_totals"
)

// compile-time interface checks
var (
	_ store.Store = (*Store)(nil)
	_ store.Store = (*txStore)(nil)
)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a MongoDB store over an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Migrate creates the indexes every collection relies on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colPrices: {{
			Keys:    bson.D{{Key: "plan_id", Value: 1}, {Key: "asset", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		colUserPlans: {{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "plan_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		colReceipts: {{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "paid_at", Value: 1}},
		}},
		colUserAssetTotals: {{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "asset", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for col, models := range indexes {
		if _, err := s.col(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("subgate/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// txStore is the transactional view handed to Atomic callbacks. The
// session context routes its operations into the open transaction.
type txStore struct {
	*Store
}

// Atomic runs fn inside one MongoDB transaction.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx, &txStore{Store: s})
	})
	return err
}

// Atomic on a transaction reuses the surrounding transaction.
func (t *txStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// ==================== Config ====================

func (s *Store) GetConfig(ctx context.Context) (*config.Config, error) {
	var m configModel
	err := s.col(colConfig).FindOne(ctx, bson.M{"_id": 1}).Decode(&m)
	if isNoDocuments(err) {
		return &config.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: get config: %w", err)
	}
	return fromConfigModel(&m), nil
}

func (s *Store) PutConfig(ctx context.Context, cfg *config.Config) error {
	_, err := s.col(colConfig).ReplaceOne(ctx,
		bson.M{"_id": 1},
		toConfigModel(cfg),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("subgate/mongo: put config: %w", err)
	}
	return nil
}

// ==================== Plans ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	_, err := s.col(colPlans).InsertOne(ctx, toPlanModel(p))
	if mongo.IsDuplicateKeyError(err) {
		return subgate.ErrPlanExists
	}
	if err != nil {
		return fmt.Errorf("subgate/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID string) (*plan.Plan, error) {
	var m planModel
	err := s.col(colPlans).FindOne(ctx, bson.M{"_id": planID}).Decode(&m)
	if isNoDocuments(err) {
		return nil, subgate.ErrUnknownPlan
	}
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m), nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	cur, err := s.col(colPlans).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list plans: %w", err)
	}
	var models []planModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	result := make([]*plan.Plan, len(models))
	for i := range models {
		result[i] = fromPlanModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	res, err := s.col(colPlans).ReplaceOne(ctx, bson.M{"_id": p.ID}, toPlanModel(p))
	if err != nil {
		return fmt.Errorf("subgate/mongo: update plan: %w", err)
	}
	if res.MatchedCount == 0 {
		return subgate.ErrUnknownPlan
	}
	return nil
}

func (s *Store) DeletePlan(ctx context.Context, planID string) error {
	if _, err := s.col(colPrices).DeleteMany(ctx, bson.M{"plan_id": planID}); err != nil {
		return fmt.Errorf("subgate/mongo: delete plan prices: %w", err)
	}
	res, err := s.col(colPlans).DeleteOne(ctx, bson.M{"_id": planID})
	if err != nil {
		return fmt.Errorf("subgate/mongo: delete plan: %w", err)
	}
	if res.DeletedCount == 0 {
		return subgate.ErrUnknownPlan
	}
	return nil
}

func (s *Store) planExists(ctx context.Context, planID string) error {
	err := s.col(colPlans).FindOne(ctx, bson.M{"_id": planID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if isNoDocuments(err) {
		return subgate.ErrUnknownPlan
	}
	return err
}

// ==================== Prices ====================

func (s *Store) PutPrice(ctx context.Context, planID string, asset types.Asset, price types.Amount) error {
	if err := s.planExists(ctx, planID); err != nil {
		return err
	}
	_, err := s.col(colPrices).ReplaceOne(ctx,
		bson.M{"plan_id": planID, "asset": asset.String()},
		&priceModel{PlanID: planID, Asset: asset.String(), Price: price.String()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("subgate/mongo: put price: %w", err)
	}
	return nil
}

func (s *Store) GetPrice(ctx context.Context, planID string, asset types.Asset) (types.Amount, error) {
	if err := s.planExists(ctx, planID); err != nil {
		return types.Amount{}, err
	}
	var m priceModel
	err := s.col(colPrices).FindOne(ctx,
		bson.M{"plan_id": planID, "asset": asset.String()},
	).Decode(&m)
	if isNoDocuments(err) {
		return types.Amount{}, subgate.ErrAssetNotAccepted
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("subgate/mongo: get price: %w", err)
	}
	entry, err := fromPriceModel(&m)
	if err != nil {
		return types.Amount{}, err
	}
	return entry.Price, nil
}

func (s *Store) DeletePrice(ctx context.Context, planID string, asset types.Asset) error {
	if err := s.planExists(ctx, planID); err != nil {
		return err
	}
	res, err := s.col(colPrices).DeleteOne(ctx,
		bson.M{"plan_id": planID, "asset": asset.String()},
	)
	if err != nil {
		return fmt.Errorf("subgate/mongo: delete price: %w", err)
	}
	if res.DeletedCount == 0 {
		return subgate.ErrAssetNotAccepted
	}
	return nil
}

func (s *Store) ListPrices(ctx context.Context, planID string) ([]plan.PriceEntry, error) {
	cur, err := s.col(colPrices).Find(ctx, bson.M{"plan_id": planID},
		options.Find().SetSort(bson.D{{Key: "asset", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list prices: %w", err)
	}
	var models []priceModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	result := make([]plan.PriceEntry, len(models))
	for i := range models {
		entry, err := fromPriceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = entry
	}
	return result, nil
}

// ==================== Entitlements ====================

func (s *Store) GetUserPlan(ctx context.Context, user types.Address, planID string) (*entitlement.UserPlan, error) {
	var m userPlanModel
	err := s.col(colUserPlans).FindOne(ctx,
		bson.M{"user": user.String(), "plan_id": planID},
	).Decode(&m)
	if isNoDocuments(err) {
		return nil, subgate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: get user plan: %w", err)
	}
	return fromUserPlanModel(&m), nil
}

func (s *Store) PutUserPlan(ctx context.Context, up *entitlement.UserPlan) error {
	_, err := s.col(colUserPlans).ReplaceOne(ctx,
		bson.M{"user": up.User.String(), "plan_id": up.PlanID},
		toUserPlanModel(up),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("subgate/mongo: put user plan: %w", err)
	}
	return nil
}

func (s *Store) ListUserPlans(ctx context.Context, user types.Address) ([]*entitlement.UserPlan, error) {
	cur, err := s.col(colUserPlans).Find(ctx, bson.M{"user": user.String()},
		options.Find().SetSort(bson.D{{Key: "plan_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list user plans: %w", err)
	}
	var models []userPlanModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	result := make([]*entitlement.UserPlan, len(models))
	for i := range models {
		result[i] = fromUserPlanModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]types.Address, error) {
	cur, err := s.col(colUserPlans).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "first_subscribed", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list users: %w", err)
	}
	var models []userPlanModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(models))
	result := make([]types.Address, 0, len(models))
	for i := range models {
		if seen[models[i].User] {
			continue
		}
		seen[models[i].User] = true
		result = append(result, types.Address(models[i].User))
	}
	return result, nil
}

// ==================== Payment ledger ====================

func (s *Store) AppendReceipt(ctx context.Context, r *payment.Receipt) error {
	_, err := s.col(colReceipts).InsertOne(ctx, toReceiptModel(r))
	if err != nil {
		return fmt.Errorf("subgate/mongo: append receipt: %w", err)
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, user types.Address) ([]*payment.Receipt, error) {
	cur, err := s.col(colReceipts).Find(ctx, bson.M{"user": user.String()},
		options.Find().SetSort(bson.D{{Key: "paid_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list receipts: %w", err)
	}
	var models []receiptModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	result := make([]*payment.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) AddToTotals(ctx context.Context, user types.Address, asset types.Asset, amount types.Amount) error {
	// Totals persist as decimal strings, so accumulation happens here.
	// Callers run this inside Atomic.
	total, err := s.AssetTotal(ctx, asset)
	if err != nil {
		return err
	}
	if _, err := s.col(colAssetTotals).ReplaceOne(ctx,
		bson.M{"_id": asset.String()},
		&assetTotalModel{Asset: asset.String(), Total: total.Add(amount).String()},
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("subgate/mongo: add to asset total: %w", err)
	}

	userTotal, err := s.UserAssetTotal(ctx, user, asset)
	if err != nil {
		return err
	}
	if _, err := s.col(colUserAssetTotals).ReplaceOne(ctx,
		bson.M{"user": user.String(), "asset": asset.String()},
		&userAssetTotalModel{User: user.String(), Asset: asset.String(), Total: userTotal.Add(amount).String()},
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("subgate/mongo: add to user asset total: %w", err)
	}
	return nil
}

func (s *Store) AssetTotal(ctx context.Context, asset types.Asset) (types.Amount, error) {
	var m assetTotalModel
	err := s.col(colAssetTotals).FindOne(ctx, bson.M{"_id": asset.String()}).Decode(&m)
	if isNoDocuments(err) {
		return types.ZeroAmount(), nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("subgate/mongo: asset total: %w", err)
	}
	return types.ParseAmount(m.Total)
}

func (s *Store) UserAssetTotal(ctx context.Context, user types.Address, asset types.Asset) (types.Amount, error) {
	var m userAssetTotalModel
	err := s.col(colUserAssetTotals).FindOne(ctx,
		bson.M{"user": user.String(), "asset": asset.String()},
	).Decode(&m)
	if isNoDocuments(err) {
		return types.ZeroAmount(), nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("subgate/mongo: user asset total: %w", err)
	}
	return types.ParseAmount(m.Total)
}

func (s *Store) ListPaymentAssets(ctx context.Context) ([]types.Asset, error) {
	cur, err := s.col(colAssetTotals).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("subgate/mongo: list payment assets: %w", err)
	}
	var models []assetTotalModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	result := make([]types.Asset, len(models))
	for i := range models {
		result[i] = types.Asset(models[i].Asset)
	}
	return result, nil
}
