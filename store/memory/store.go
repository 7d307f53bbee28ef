// Package memory provides an in-memory Store, used in tests and as the
// default backend when no database is wired.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	subgate "github.com/xraph/subgate"
	"github.com/xraph/subgate/config"
	"github.com/xraph/subgate/entitlement"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/plan"
	"github.com/xraph/subgate/store"
	"github.com/xraph/subgate/types"
)

// compile-time interface checks
var (
	_ store.Store = (*Store)(nil)
	_ store.Store = (*txStore)(nil)
)

// state is the full engine state. Atomic clones it, mutates the clone,
// and swaps it in on success, so a failed call leaves zero residue.
type state struct {
	cfg config.Config

	plans  map[string]*plan.Plan
	prices map[string]map[types.Asset]types.Amount

	userPlans map[types.Address]map[string]*entitlement.UserPlan
	users     []types.Address

	receipts        []*payment.Receipt
	assetTotals     map[types.Asset]types.Amount
	userAssetTotals map[types.Address]map[types.Asset]types.Amount
	paymentAssets   []types.Asset
}

func newState() *state {
	return &state{
		plans:           make(map[string]*plan.Plan),
		prices:          make(map[string]map[types.Asset]types.Amount),
		userPlans:       make(map[types.Address]map[string]*entitlement.UserPlan),
		assetTotals:     make(map[types.Asset]types.Amount),
		userAssetTotals: make(map[types.Address]map[types.Asset]types.Amount),
	}
}

func (st *state) clone() *state {
	cl := &state{
		cfg:           st.cfg,
		plans:         make(map[string]*plan.Plan, len(st.plans)),
		prices:        make(map[string]map[types.Asset]types.Amount, len(st.prices)),
		userPlans:     make(map[types.Address]map[string]*entitlement.UserPlan, len(st.userPlans)),
		users:         slices.Clone(st.users),
		receipts:      slices.Clone(st.receipts),
		assetTotals:   maps.Clone(st.assetTotals),
		paymentAssets: slices.Clone(st.paymentAssets),
		userAssetTotals: make(map[types.Address]map[types.Asset]types.Amount,
			len(st.userAssetTotals)),
	}
	for pid, p := range st.plans {
		cp := *p
		cl.plans[pid] = &cp
	}
	for pid, assets := range st.prices {
		cl.prices[pid] = maps.Clone(assets)
	}
	for user, ups := range st.userPlans {
		m := make(map[string]*entitlement.UserPlan, len(ups))
		for pid, up := range ups {
			cp := *up
			m[pid] = &cp
		}
		cl.userPlans[user] = m
	}
	for user, totals := range st.userAssetTotals {
		cl.userAssetTotals[user] = maps.Clone(totals)
	}
	return cl
}

// Store is the locking front over the shared state.
type Store struct {
	mu sync.RWMutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

// txStore operates directly on a cloned state inside one Atomic call.
// It needs no locking: the clone is confined to that call.
type txStore struct {
	st *state
}

// Atomic clones the state, runs fn against the clone, and publishes the
// clone only when fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl := s.st.clone()
	if err := fn(ctx, &txStore{st: cl}); err != nil {
		return err
	}
	s.st = cl
	return nil
}

// Atomic on a transaction reuses the surrounding transaction.
func (t *txStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

// ==================== Config ====================

func (st *state) getConfig() (*config.Config, error) {
	cfg := st.cfg
	return &cfg, nil
}

func (st *state) putConfig(cfg *config.Config) error {
	st.cfg = *cfg
	return nil
}

func (s *Store) GetConfig(_ context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getConfig()
}

func (s *Store) PutConfig(_ context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.putConfig(cfg)
}

func (t *txStore) GetConfig(_ context.Context) (*config.Config, error) { return t.st.getConfig() }
func (t *txStore) PutConfig(_ context.Context, cfg *config.Config) error {
	return t.st.putConfig(cfg)
}

// ==================== Plans ====================

func (st *state) createPlan(p *plan.Plan) error {
	if _, exists := st.plans[p.ID]; exists {
		return subgate.ErrPlanExists
	}
	cp := *p
	st.plans[p.ID] = &cp
	return nil
}

func (st *state) getPlan(planID string) (*plan.Plan, error) {
	if p, ok := st.plans[planID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, subgate.ErrUnknownPlan
}

func (st *state) listPlans() ([]*plan.Plan, error) {
	ids := slices.Sorted(maps.Keys(st.plans))
	result := make([]*plan.Plan, 0, len(ids))
	for _, pid := range ids {
		cp := *st.plans[pid]
		result = append(result, &cp)
	}
	return result, nil
}

func (st *state) updatePlan(p *plan.Plan) error {
	if _, exists := st.plans[p.ID]; !exists {
		return subgate.ErrUnknownPlan
	}
	cp := *p
	st.plans[p.ID] = &cp
	return nil
}

func (st *state) deletePlan(planID string) error {
	if _, exists := st.plans[planID]; !exists {
		return subgate.ErrUnknownPlan
	}
	delete(st.plans, planID)
	delete(st.prices, planID)
	return nil
}

func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createPlan(p)
}

func (s *Store) GetPlan(_ context.Context, planID string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getPlan(planID)
}

func (s *Store) ListPlans(_ context.Context) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listPlans()
}

func (s *Store) UpdatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updatePlan(p)
}

func (s *Store) DeletePlan(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deletePlan(planID)
}

func (t *txStore) CreatePlan(_ context.Context, p *plan.Plan) error { return t.st.createPlan(p) }
func (t *txStore) GetPlan(_ context.Context, planID string) (*plan.Plan, error) {
	return t.st.getPlan(planID)
}
func (t *txStore) ListPlans(_ context.Context) ([]*plan.Plan, error) { return t.st.listPlans() }
func (t *txStore) UpdatePlan(_ context.Context, p *plan.Plan) error  { return t.st.updatePlan(p) }
func (t *txStore) DeletePlan(_ context.Context, planID string) error { return t.st.deletePlan(planID) }

// ==================== Prices ====================

func (st *state) putPrice(planID string, asset types.Asset, price types.Amount) error {
	if _, exists := st.plans[planID]; !exists {
		return subgate.ErrUnknownPlan
	}
	assets, ok := st.prices[planID]
	if !ok {
		assets = make(map[types.Asset]types.Amount)
		st.prices[planID] = assets
	}
	assets[asset] = price
	return nil
}

func (st *state) getPrice(planID string, asset types.Asset) (types.Amount, error) {
	if _, exists := st.plans[planID]; !exists {
		return types.Amount{}, subgate.ErrUnknownPlan
	}
	if price, ok := st.prices[planID][asset]; ok {
		return price, nil
	}
	return types.Amount{}, subgate.ErrAssetNotAccepted
}

func (st *state) deletePrice(planID string, asset types.Asset) error {
	if _, exists := st.plans[planID]; !exists {
		return subgate.ErrUnknownPlan
	}
	if _, ok := st.prices[planID][asset]; !ok {
		return subgate.ErrAssetNotAccepted
	}
	delete(st.prices[planID], asset)
	return nil
}

func (st *state) listPrices(planID string) ([]plan.PriceEntry, error) {
	assets := slices.Sorted(maps.Keys(st.prices[planID]))
	result := make([]plan.PriceEntry, 0, len(assets))
	for _, asset := range assets {
		result = append(result, plan.PriceEntry{
			PlanID: planID,
			Asset:  asset,
			Price:  st.prices[planID][asset],
		})
	}
	return result, nil
}

func (s *Store) PutPrice(_ context.Context, planID string, asset types.Asset, price types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.putPrice(planID, asset, price)
}

func (s *Store) GetPrice(_ context.Context, planID string, asset types.Asset) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getPrice(planID, asset)
}

func (s *Store) DeletePrice(_ context.Context, planID string, asset types.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deletePrice(planID, asset)
}

func (s *Store) ListPrices(_ context.Context, planID string) ([]plan.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listPrices(planID)
}

func (t *txStore) PutPrice(_ context.Context, planID string, asset types.Asset, price types.Amount) error {
	return t.st.putPrice(planID, asset, price)
}
func (t *txStore) GetPrice(_ context.Context, planID string, asset types.Asset) (types.Amount, error) {
	return t.st.getPrice(planID, asset)
}
func (t *txStore) DeletePrice(_ context.Context, planID string, asset types.Asset) error {
	return t.st.deletePrice(planID, asset)
}
func (t *txStore) ListPrices(_ context.Context, planID string) ([]plan.PriceEntry, error) {
	return t.st.listPrices(planID)
}

// ==================== Entitlements ====================

func (st *state) getUserPlan(user types.Address, planID string) (*entitlement.UserPlan, error) {
	if up, ok := st.userPlans[user][planID]; ok {
		cp := *up
		return &cp, nil
	}
	return nil, subgate.ErrNotFound
}

func (st *state) putUserPlan(up *entitlement.UserPlan) error {
	plans, ok := st.userPlans[up.User]
	if !ok {
		plans = make(map[string]*entitlement.UserPlan)
		st.userPlans[up.User] = plans
		st.users = append(st.users, up.User)
	}
	cp := *up
	plans[up.PlanID] = &cp
	return nil
}

func (st *state) listUserPlans(user types.Address) ([]*entitlement.UserPlan, error) {
	ids := slices.Sorted(maps.Keys(st.userPlans[user]))
	result := make([]*entitlement.UserPlan, 0, len(ids))
	for _, pid := range ids {
		cp := *st.userPlans[user][pid]
		result = append(result, &cp)
	}
	return result, nil
}

func (st *state) listUsers() ([]types.Address, error) {
	return slices.Clone(st.users), nil
}

func (s *Store) GetUserPlan(_ context.Context, user types.Address, planID string) (*entitlement.UserPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getUserPlan(user, planID)
}

func (s *Store) PutUserPlan(_ context.Context, up *entitlement.UserPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.putUserPlan(up)
}

func (s *Store) ListUserPlans(_ context.Context, user types.Address) ([]*entitlement.UserPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listUserPlans(user)
}

func (s *Store) ListUsers(_ context.Context) ([]types.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listUsers()
}

func (t *txStore) GetUserPlan(_ context.Context, user types.Address, planID string) (*entitlement.UserPlan, error) {
	return t.st.getUserPlan(user, planID)
}
func (t *txStore) PutUserPlan(_ context.Context, up *entitlement.UserPlan) error {
	return t.st.putUserPlan(up)
}
func (t *txStore) ListUserPlans(_ context.Context, user types.Address) ([]*entitlement.UserPlan, error) {
	return t.st.listUserPlans(user)
}
func (t *txStore) ListUsers(_ context.Context) ([]types.Address, error) { return t.st.listUsers() }

// ==================== Payment ledger ====================

func (st *state) appendReceipt(r *payment.Receipt) error {
	cp := *r
	st.receipts = append(st.receipts, &cp)
	return nil
}

func (st *state) listReceipts(user types.Address) ([]*payment.Receipt, error) {
	result := make([]*payment.Receipt, 0)
	for _, r := range st.receipts {
		if r.User == user {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (st *state) addToTotals(user types.Address, asset types.Asset, amount types.Amount) error {
	if _, ok := st.assetTotals[asset]; !ok {
		st.paymentAssets = append(st.paymentAssets, asset)
	}
	st.assetTotals[asset] = st.assetTotals[asset].Add(amount)

	totals, ok := st.userAssetTotals[user]
	if !ok {
		totals = make(map[types.Asset]types.Amount)
		st.userAssetTotals[user] = totals
	}
	totals[asset] = totals[asset].Add(amount)
	return nil
}

func (st *state) assetTotal(asset types.Asset) (types.Amount, error) {
	return st.assetTotals[asset], nil
}

func (st *state) userAssetTotal(user types.Address, asset types.Asset) (types.Amount, error) {
	return st.userAssetTotals[user][asset], nil
}

func (st *state) listPaymentAssets() ([]types.Asset, error) {
	return slices.Clone(st.paymentAssets), nil
}

func (s *Store) AppendReceipt(_ context.Context, r *payment.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.appendReceipt(r)
}

func (s *Store) ListReceipts(_ context.Context, user types.Address) ([]*payment.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listReceipts(user)
}

func (s *Store) AddToTotals(_ context.Context, user types.Address, asset types.Asset, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.addToTotals(user, asset, amount)
}

func (s *Store) AssetTotal(_ context.Context, asset types.Asset) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.assetTotal(asset)
}

func (s *Store) UserAssetTotal(_ context.Context, user types.Address, asset types.Asset) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.userAssetTotal(user, asset)
}

func (s *Store) ListPaymentAssets(_ context.Context) ([]types.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listPaymentAssets()
}

func (t *txStore) AppendReceipt(_ context.Context, r *payment.Receipt) error {
	return t.st.appendReceipt(r)
}
func (t *txStore) ListReceipts(_ context.Context, user types.Address) ([]*payment.Receipt, error) {
	return t.st.listReceipts(user)
}
func (t *txStore) AddToTotals(_ context.Context, user types.Address, asset types.Asset, amount types.Amount) error {
	return t.st.addToTotals(user, asset, amount)
}
func (t *txStore) AssetTotal(_ context.Context, asset types.Asset) (types.Amount, error) {
	return t.st.assetTotal(asset)
}
func (t *txStore) UserAssetTotal(_ context.Context, user types.Address, asset types.Asset) (types.Amount, error) {
	return t.st.userAssetTotal(user, asset)
}
func (t *txStore) ListPaymentAssets(_ context.Context) ([]types.Asset, error) {
	return t.st.listPaymentAssets()
}

// ==================== Store management ====================

func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error    { return nil }
func (s *Store) Close() error                    { return nil }

func (t *txStore) Migrate(_ context.Context) error { return nil }
func (t *txStore) Ping(_ context.Context) error    { return nil }
func (t *txStore) Close() error                    { return nil }
