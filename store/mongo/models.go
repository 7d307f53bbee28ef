package mongo

import (
	"time"

	"github.com/xraph/subgate/config"
	"github.com/xraph/subgate/entitlement"
	"github.com/xraph/subgate/id"
	"github.com/xraph/subgate/payment"
	"github.com/xraph/subgate/plan"
	"github.com/xraph/subgate/types"
)

// Amounts persist as their canonical decimal string so no precision is
// lost to BSON numeric types.

// ==================== Config model ====================

type configModel struct {
	ID            int    `bson:"_id"`
	Enabled       bool   `bson:"enabled"`
	PayoutAddress string `bson:"payout_address"`
}

func toConfigModel(cfg *config.Config) *configModel {
	return &configModel{
		ID:            1,
		Enabled:       cfg.Enabled,
		PayoutAddress: cfg.PayoutAddress.String(),
	}
}

func fromConfigModel(m *configModel) *config.Config {
	return &config.Config{
		Enabled:       m.Enabled,
		PayoutAddress: types.Address(m.PayoutAddress),
	}
}

// ==================== Plan model ====================

type planModel struct {
	ID             string    `bson:"_id"`
	Status         string    `bson:"status"`
	ValidityNS     int64     `bson:"validity_ns"`
	AllowsRefund   bool      `bson:"allows_refund"`
	RefundPeriodNS int64     `bson:"refund_period_ns"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:             p.ID,
		Status:         string(p.Status),
		ValidityNS:     int64(p.Validity),
		AllowsRefund:   p.AllowsRefund,
		RefundPeriodNS: int64(p.RefundPeriod),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) *plan.Plan {
	p := &plan.Plan{
		ID:           m.ID,
		Status:       plan.Status(m.Status),
		Validity:     time.Duration(m.ValidityNS),
		AllowsRefund: m.AllowsRefund,
		RefundPeriod: time.Duration(m.RefundPeriodNS),
	}
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return p
}

// ==================== Price model ====================

type priceModel struct {
	PlanID string `bson:"plan_id"`
	Asset  string `bson:"asset"`
	Price  string `bson:"price"`
}

func fromPriceModel(m *priceModel) (plan.PriceEntry, error) {
	price, err := types.ParseAmount(m.Price)
	if err != nil {
		return plan.PriceEntry{}, err
	}
	return plan.PriceEntry{
		PlanID: m.PlanID,
		Asset:  types.Asset(m.Asset),
		Price:  price,
	}, nil
}

// ==================== UserPlan model ====================

type userPlanModel struct {
	User            string    `bson:"user"`
	PlanID          string    `bson:"plan_id"`
	ExpiresAt       time.Time `bson:"expires_at"`
	FirstSubscribed time.Time `bson:"first_subscribed"`
	LastSubscribed  time.Time `bson:"last_subscribed"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toUserPlanModel(up *entitlement.UserPlan) *userPlanModel {
	return &userPlanModel{
		User:            up.User.String(),
		PlanID:          up.PlanID,
		ExpiresAt:       up.ExpiresAt,
		FirstSubscribed: up.FirstSubscribed,
		LastSubscribed:  up.LastSubscribed,
		CreatedAt:       up.CreatedAt,
		UpdatedAt:       up.UpdatedAt,
	}
}

func fromUserPlanModel(m *userPlanModel) *entitlement.UserPlan {
	up := &entitlement.UserPlan{
		User:            types.Address(m.User),
		PlanID:          m.PlanID,
		ExpiresAt:       m.ExpiresAt,
		FirstSubscribed: m.FirstSubscribed,
		LastSubscribed:  m.LastSubscribed,
	}
	up.CreatedAt = m.CreatedAt
	up.UpdatedAt = m.UpdatedAt
	return up
}

// ==================== Receipt model ====================

type receiptModel struct {
	ID     string    `bson:"_id"`
	User   string    `bson:"user"`
	PlanID string    `bson:"plan_id"`
	Asset  string    `bson:"asset"`
	Amount string    `bson:"amount"`
	PaidAt time.Time `bson:"paid_at"`
}

func toReceiptModel(r *payment.Receipt) *receiptModel {
	return &receiptModel{
		ID:     r.ID.String(),
		User:   r.User.String(),
		PlanID: r.PlanID,
		Asset:  r.Asset.String(),
		Amount: r.Amount.String(),
		PaidAt: r.PaidAt,
	}
}

func fromReceiptModel(m *receiptModel) (*payment.Receipt, error) {
	rid, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	return &payment.Receipt{
		ID:     rid,
		User:   types.Address(m.User),
		PlanID: m.PlanID,
		Asset:  types.Asset(m.Asset),
		Amount: amount,
		PaidAt: m.PaidAt,
	}, nil
}

// ==================== Totals models ====================

type assetTotalModel struct {
	Asset string `bson:"_id"`
	Total string `bson:"total"`
}

type userAssetTotalModel struct {
	User  string `bson:"user"`
	Asset string `bson:"asset"`
	Total string `bson:"total"`
}
