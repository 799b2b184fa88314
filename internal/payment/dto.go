// AngelaMos | 2026
// dto.go

package payment

import (
	"time"

	"github.com/dateu/dateu-backend/internal/subscription"
)

type CreateOrderRequest struct {
	PlanID string `json:"planId" validate:"required"`
	// AmountPaise is what the client believes it is paying; it must
	// match the plan's configured price.
	AmountPaise int64 `json:"amountPaise" validate:"required,gt=0"`
}

type OrderResponse struct {
	OrderID     string `json:"orderId"`
	AmountPaise int64  `json:"amountPaise"`
	Currency    string `json:"currency"`
	KeyID       string `json:"keyId"`
	PlanID      string `json:"planId"`
}

// VerifyRequest carries the checkout callback fields under the gateway's
// own names so the frontend can forward the callback payload untouched.
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	PlanID    string `json:"planId"`
	// AmountPaise is stored when the callback references an order we
	// have no pending record for.
	AmountPaise int64 `json:"amountPaise"`
}

type VerifyResponse struct {
	Status    string                        `json:"status"`
	PaymentID string                        `json:"paymentId"`
	Provision *subscription.ProvisionResult `json:"provision,omitempty"`
}

type PaymentResponse struct {
	ID                      string    `json:"id"`
	UserID                  string    `json:"userId"`
	PlanID                  string    `json:"planId"`
	AmountPaise             int64     `json:"amountPaise"`
	Currency                string    `json:"currency"`
	OrderID                 string    `json:"orderId"`
	PaymentID               string    `json:"paymentId,omitempty"`
	Status                  string    `json:"status"`
	Quota                   int       `json:"quota"`
	SubscriptionProvisioned bool      `json:"subscriptionProvisioned"`
	ProvisionError          string    `json:"provisionError,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func ToPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:                      p.ID,
		UserID:                  p.UserID,
		PlanID:                  p.PlanID,
		AmountPaise:             p.AmountPaise,
		Currency:                p.Currency,
		OrderID:                 p.OrderID,
		PaymentID:               p.PaymentID,
		Status:                  p.Status,
		Quota:                   p.Quota,
		SubscriptionProvisioned: p.SubscriptionProvisioned,
		ProvisionError:          p.ProvisionError,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

type ListPaymentsParams struct {
	Status string
	UserID string
	Page   int
	Limit  int
}
