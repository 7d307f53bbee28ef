// Package postgres implements the Subgate store on PostgreSQL via
// database/sql and the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

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

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn holds every data operation; it runs against either the pooled
// database or one open transaction.
type conn struct {
	q querier
}

// Store implements store.Store using PostgreSQL.
type Store struct {
	conn
	db *sql.DB
}

// New creates a PostgreSQL store over an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{conn: conn{q: db}, db: db}
}

// Open connects to the database at dsn and returns a store over it.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(_ context.Context) error {
	return s.runMigrations()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// txStore is the transactional view handed to Atomic callbacks.
type txStore struct {
	conn
	tx *sql.Tx
}

// Atomic runs fn inside one database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	t := &txStore{conn: conn{q: dbTx}, tx: dbTx}
	if err := fn(ctx, t); err != nil {
		_ = dbTx.Rollback() //nolint:errcheck // the fn error wins
		return err
	}
	return dbTx.Commit()
}

// Atomic on a transaction reuses the surrounding transaction.
func (t *txStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

func (t *txStore) Migrate(_ context.Context) error { return nil }
func (t *txStore) Ping(_ context.Context) error    { return nil }
func (t *txStore) Close() error                    { return nil }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ==================== Config ====================

func (c conn) GetConfig(ctx context.Context) (*config.Config, error) {
	cfg := &config.Config{}
	err := c.q.QueryRowContext(ctx,
		`SELECT enabled, payout_address FROM subgate_config WHERE id = 1`,
	).Scan(&cfg.Enabled, &cfg.PayoutAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c conn) PutConfig(ctx context.Context, cfg *config.Config) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_config (id, enabled, payout_address) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET enabled = excluded.enabled, payout_address = excluded.payout_address`,
		cfg.Enabled, cfg.PayoutAddress,
	)
	return err
}

// ==================== Plans ====================

func (c conn) CreatePlan(ctx context.Context, p *plan.Plan) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_plans (id, status, validity_ns, allows_refund, refund_period_ns, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, string(p.Status), int64(p.Validity), p.AllowsRefund, int64(p.RefundPeriod),
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return subgate.ErrPlanExists
	}
	return err
}

func (c conn) GetPlan(ctx context.Context, planID string) (*plan.Plan, error) {
	p := &plan.Plan{}
	var status string
	var validity, refundPeriod int64
	err := c.q.QueryRowContext(ctx,
		`SELECT id, status, validity_ns, allows_refund, refund_period_ns, created_at, updated_at
		 FROM subgate_plans WHERE id = $1`, planID,
	).Scan(&p.ID, &status, &validity, &p.AllowsRefund, &refundPeriod, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subgate.ErrUnknownPlan
	}
	if err != nil {
		return nil, err
	}
	p.Status = plan.Status(status)
	p.Validity = time.Duration(validity)
	p.RefundPeriod = time.Duration(refundPeriod)
	return p, nil
}

func (c conn) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, status, validity_ns, allows_refund, refund_period_ns, created_at, updated_at
		 FROM subgate_plans ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]*plan.Plan, 0)
	for rows.Next() {
		p := &plan.Plan{}
		var status string
		var validity, refundPeriod int64
		if err := rows.Scan(&p.ID, &status, &validity, &p.AllowsRefund, &refundPeriod, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Status = plan.Status(status)
		p.Validity = time.Duration(validity)
		p.RefundPeriod = time.Duration(refundPeriod)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (c conn) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE subgate_plans SET status = $1, validity_ns = $2, allows_refund = $3, refund_period_ns = $4, updated_at = $5
		 WHERE id = $6`,
		string(p.Status), int64(p.Validity), p.AllowsRefund, int64(p.RefundPeriod), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return subgate.ErrUnknownPlan
	}
	return nil
}

func (c conn) DeletePlan(ctx context.Context, planID string) error {
	if _, err := c.q.ExecContext(ctx,
		`DELETE FROM subgate_prices WHERE plan_id = $1`, planID,
	); err != nil {
		return err
	}
	res, err := c.q.ExecContext(ctx, `DELETE FROM subgate_plans WHERE id = $1`, planID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return subgate.ErrUnknownPlan
	}
	return nil
}

func (c conn) planExists(ctx context.Context, planID string) error {
	var one int
	err := c.q.QueryRowContext(ctx,
		`SELECT 1 FROM subgate_plans WHERE id = $1`, planID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return subgate.ErrUnknownPlan
	}
	return err
}

// ==================== Prices ====================

func (c conn) PutPrice(ctx context.Context, planID string, asset types.Asset, price types.Amount) error {
	if err := c.planExists(ctx, planID); err != nil {
		return err
	}
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_prices (plan_id, asset, price) VALUES ($1, $2, $3)
		 ON CONFLICT (plan_id, asset) DO UPDATE SET price = excluded.price`,
		planID, asset, price,
	)
	return err
}

func (c conn) GetPrice(ctx context.Context, planID string, asset types.Asset) (types.Amount, error) {
	if err := c.planExists(ctx, planID); err != nil {
		return types.Amount{}, err
	}
	var price types.Amount
	err := c.q.QueryRowContext(ctx,
		`SELECT price FROM subgate_prices WHERE plan_id = $1 AND asset = $2`,
		planID, asset,
	).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Amount{}, subgate.ErrAssetNotAccepted
	}
	return price, err
}

func (c conn) DeletePrice(ctx context.Context, planID string, asset types.Asset) error {
	if err := c.planExists(ctx, planID); err != nil {
		return err
	}
	res, err := c.q.ExecContext(ctx,
		`DELETE FROM subgate_prices WHERE plan_id = $1 AND asset = $2`,
		planID, asset,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return subgate.ErrAssetNotAccepted
	}
	return nil
}

func (c conn) ListPrices(ctx context.Context, planID string) ([]plan.PriceEntry, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT asset, price FROM subgate_prices WHERE plan_id = $1 ORDER BY asset`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]plan.PriceEntry, 0)
	for rows.Next() {
		entry := plan.PriceEntry{PlanID: planID}
		if err := rows.Scan(&entry.Asset, &entry.Price); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// ==================== Entitlements ====================

func (c conn) GetUserPlan(ctx context.Context, user types.Address, planID string) (*entitlement.UserPlan, error) {
	up := &entitlement.UserPlan{}
	err := c.q.QueryRowContext(ctx,
		`SELECT user_addr, plan_id, expires_at, first_subscribed, last_subscribed, created_at, updated_at
		 FROM subgate_user_plans WHERE user_addr = $1 AND plan_id = $2`,
		user, planID,
	).Scan(&up.User, &up.PlanID, &up.ExpiresAt, &up.FirstSubscribed, &up.LastSubscribed, &up.CreatedAt, &up.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subgate.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return up, nil
}

func (c conn) PutUserPlan(ctx context.Context, up *entitlement.UserPlan) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_user_plans (user_addr, plan_id, expires_at, first_subscribed, last_subscribed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_addr, plan_id) DO UPDATE SET
		   expires_at = excluded.expires_at,
		   last_subscribed = excluded.last_subscribed,
		   updated_at = excluded.updated_at`,
		up.User, up.PlanID, up.ExpiresAt, up.FirstSubscribed, up.LastSubscribed,
		up.CreatedAt, up.UpdatedAt,
	)
	return err
}

func (c conn) ListUserPlans(ctx context.Context, user types.Address) ([]*entitlement.UserPlan, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT user_addr, plan_id, expires_at, first_subscribed, last_subscribed, created_at, updated_at
		 FROM subgate_user_plans WHERE user_addr = $1 ORDER BY plan_id`,
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]*entitlement.UserPlan, 0)
	for rows.Next() {
		up := &entitlement.UserPlan{}
		if err := rows.Scan(&up.User, &up.PlanID, &up.ExpiresAt, &up.FirstSubscribed, &up.LastSubscribed, &up.CreatedAt, &up.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, up)
	}
	return result, rows.Err()
}

func (c conn) ListUsers(ctx context.Context) ([]types.Address, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT user_addr FROM subgate_user_plans
		 GROUP BY user_addr ORDER BY MIN(first_subscribed), user_addr`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]types.Address, 0)
	for rows.Next() {
		var user types.Address
		if err := rows.Scan(&user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

// ==================== Payment ledger ====================

func (c conn) AppendReceipt(ctx context.Context, r *payment.Receipt) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_receipts (id, user_addr, plan_id, asset, amount, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.User, r.PlanID, r.Asset, r.Amount, r.PaidAt,
	)
	return err
}

func (c conn) ListReceipts(ctx context.Context, user types.Address) ([]*payment.Receipt, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, user_addr, plan_id, asset, amount, paid_at
		 FROM subgate_receipts WHERE user_addr = $1 ORDER BY seq`,
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]*payment.Receipt, 0)
	for rows.Next() {
		r := &payment.Receipt{}
		if err := rows.Scan(&r.ID, &r.User, &r.PlanID, &r.Asset, &r.Amount, &r.PaidAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (c conn) AddToTotals(ctx context.Context, user types.Address, asset types.Asset, amount types.Amount) error {
	// NUMERIC supports in-database accumulation, so both totals bump in
	// two statements without a read.
	if _, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_asset_totals (asset, total) VALUES ($1, $2)
		 ON CONFLICT (asset) DO UPDATE SET total = subgate_asset_totals.total + excluded.total`,
		asset, amount,
	); err != nil {
		return err
	}
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subgate_user_asset_totals (user_addr, asset, total) VALUES ($1, $2, $3)
		 ON CONFLICT (user_addr, asset) DO UPDATE SET total = subgate_user_asset_totals.total + excluded.total`,
		user, asset, amount,
	)
	return err
}

func (c conn) AssetTotal(ctx context.Context, asset types.Asset) (types.Amount, error) {
	var total types.Amount
	err := c.q.QueryRowContext(ctx,
		`SELECT total FROM subgate_asset_totals WHERE asset = $1`, asset,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ZeroAmount(), nil
	}
	return total, err
}

func (c conn) UserAssetTotal(ctx context.Context, user types.Address, asset types.Asset) (types.Amount, error) {
	var total types.Amount
	err := c.q.QueryRowContext(ctx,
		`SELECT total FROM subgate_user_asset_totals WHERE user_addr = $1 AND asset = $2`,
		user, asset,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ZeroAmount(), nil
	}
	return total, err
}

func (c conn) ListPaymentAssets(ctx context.Context) ([]types.Asset, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT asset FROM subgate_asset_totals ORDER BY asset`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	result := make([]types.Asset, 0)
	for rows.Next() {
		var asset types.Asset
		if err := rows.Scan(&asset); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}
