// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dateu/dateu-backend/internal/config"
	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/plan"
	"github.com/dateu/dateu-backend/internal/subscription"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrSignatureMismatch    = errors.New("payment signature verification failed")
)

// Provisioner grants the quota a completed purchase entitles the buyer to.
type Provisioner interface {
	Provision(ctx context.Context, userID, planID string, fallbackQuota int) (*subscription.ProvisionResult, error)
}

// PlanCatalog is the slice of the plan service that ordering needs.
type PlanCatalog interface {
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
}

type Service struct {
	repo        Repository
	orders      OrderClient
	plans       PlanCatalog
	provisioner Provisioner
	cfg         config.RazorpayConfig
	logger      *slog.Logger
}

func NewService(
	repo Repository,
	orders OrderClient,
	plans PlanCatalog,
	provisioner Provisioner,
	cfg config.RazorpayConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		orders:      orders,
		plans:       plans,
		provisioner: provisioner,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateOrder opens a gateway order for a plan and records a pending
// payment. The plan's quota is captured on the record so later plan
// edits never change what this purchase grants.
func (s *Service) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*OrderResponse, error) {
	if s.cfg.KeyID == "" || s.cfg.KeySecret == "" {
		return nil, core.FailedPreconditionError(ErrGatewayNotConfigured.Error())
	}

	planID := req.PlanID

	p, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("plan not found")
		}
		return nil, err
	}
	if !p.Active {
		return nil, core.FailedPreconditionError("plan is not active")
	}
	if p.PricePaise <= 0 {
		return nil, core.FailedPreconditionError("plan has no price configured")
	}
	if req.AmountPaise != p.PricePaise {
		return nil, fmt.Errorf(
			"create order: amount %d does not match plan price %d: %w",
			req.AmountPaise, p.PricePaise, core.ErrInvalidInput,
		)
	}

	receipt := fmt.Sprintf("dateu_%s", uuid.New().String()[:8])
	orderID, err := s.orders.CreateOrder(ctx, p.PricePaise, s.cfg.Currency, receipt, map[string]interface{}{
		"user_id": userID,
		"plan_id": planID,
	})
	if err != nil {
		s.logger.Error("gateway order creation failed", "user_id", userID, "plan_id", planID, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}

	record := &Payment{
		ID:          uuid.New().String(),
		UserID:      userID,
		PlanID:      planID,
		AmountPaise: p.PricePaise,
		Currency:    s.cfg.Currency,
		OrderID:     orderID,
		Status:      StatusPending,
		Quota:       p.Quota(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &OrderResponse{
		OrderID:     orderID,
		AmountPaise: p.PricePaise,
		Currency:    s.cfg.Currency,
		KeyID:       s.cfg.KeyID,
		PlanID:      planID,
	}, nil
}

// VerifyPayment checks the checkout callback signature and, on success,
// approves the payment and grants its quota. A mismatched signature
// writes nothing.
func (s *Service) VerifyPayment(ctx context.Context, userID string, req VerifyRequest) (*VerifyResponse, error) {
	if s.cfg.KeySecret == "" {
		return nil, core.FailedPreconditionError(ErrGatewayNotConfigured.Error())
	}

	expected := signPayload(s.cfg.KeySecret, req.OrderID, req.PaymentID)
	if expected != req.Signature {
		s.logger.Warn("payment signature mismatch", "user_id", userID, "order_id", req.OrderID)
		return nil, core.ForbiddenError(ErrSignatureMismatch.Error())
	}

	record, err := s.repo.GetByUserAndOrder(ctx, userID, req.OrderID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		// Callback for an order we never saw. Record it approved so the
		// purchase is not lost; quota falls back to the plan lookup.
		record = &Payment{
			ID:          uuid.New().String(),
			UserID:      userID,
			PlanID:      req.PlanID,
			AmountPaise: req.AmountPaise,
			Currency:    s.cfg.Currency,
			OrderID:     req.OrderID,
			PaymentID:   req.PaymentID,
			Signature:   req.Signature,
			Status:      StatusApproved,
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Approve(ctx, record.ID, req.PaymentID, req.Signature); err != nil {
			return nil, err
		}
		record.Status = StatusApproved
	}

	result := s.provisionOnce(ctx, record)
	return &VerifyResponse{
		Status:    StatusApproved,
		PaymentID: record.ID,
		Provision: result,
	}, nil
}

// ListMine returns the caller's payment history, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]Payment, error) {
	return s.repo.ListByUser(ctx, userID, 50)
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, params ListPaymentsParams) ([]Payment, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	return s.repo.List(ctx, params)
}

// AdminApprove marks a payment approved and grants its quota. A
// provisioning failure does not fail the approval; it is recorded on
// the payment for a later repair.
func (s *Service) AdminApprove(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	record, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if record.UserID == "" || record.PlanID == "" {
		return nil, core.FailedPreconditionError("payment record is missing user or plan")
	}

	if !record.IsApproved() {
		if err := s.repo.Approve(ctx, record.ID, record.PaymentID, record.Signature); err != nil {
			return nil, err
		}
		record.Status = StatusApproved
	}

	s.provisionOnce(ctx, record)

	resp := ToPaymentResponse(record)
	return &resp, nil
}

func (s *Service) AdminReject(ctx context.Context, paymentID string) error {
	record, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if record.IsApproved() && record.SubscriptionProvisioned {
		return core.FailedPreconditionError("payment already provisioned a subscription")
	}
	return s.repo.Reject(ctx, record.ID)
}

// provisionOnce runs the grant exactly once per payment, guarded by the
// subscription_provisioned flag. Failures are recorded on the payment
// and swallowed; the approval itself stands.
func (s *Service) provisionOnce(ctx context.Context, record *Payment) *subscription.ProvisionResult {
	if record.SubscriptionProvisioned {
		return nil
	}

	result, err := s.provisioner.Provision(ctx, record.UserID, record.PlanID, record.Quota)
	if err != nil {
		s.logger.Error("subscription provisioning failed",
			"payment_id", record.ID,
			"user_id", record.UserID,
			"plan_id", record.PlanID,
			"error", err)
		if recErr := s.repo.RecordProvisionError(ctx, record.ID, err.Error()); recErr != nil {
			s.logger.Error("failed to record provision error", "payment_id", record.ID, "error", recErr)
		}
		record.ProvisionError = err.Error()
		return nil
	}

	if err := s.repo.MarkProvisioned(ctx, record.ID); err != nil {
		s.logger.Error("failed to mark payment provisioned", "payment_id", record.ID, "error", err)
	}
	record.SubscriptionProvisioned = true
	record.ProvisionError = ""
	return result
}

// signPayload reproduces the gateway's signature scheme: hex-encoded
// HMAC-SHA256 over "orderId|paymentId" keyed with the API secret.
func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
