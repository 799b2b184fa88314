// AngelaMos | 2026
// entity.go

package payment

import (
	"time"
)

type Payment struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	PlanID      string `db:"plan_id"`
	AmountPaise int64  `db:"amount_paise"`
	Currency    string `db:"currency"`
	OrderID     string `db:"order_id"`
	PaymentID   string `db:"payment_id"`
	Signature   string `db:"signature"`
	Status      string `db:"status"`
	// Quota captured at purchase time so later plan edits never change
	// what this payment entitles the buyer to.
	Quota                   int       `db:"quota"`
	SubscriptionProvisioned bool      `db:"subscription_provisioned"`
	ProvisionError          string    `db:"provision_error"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

func (p *Payment) IsApproved() bool {
	return p.Status == StatusApproved
}
