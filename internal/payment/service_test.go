// AngelaMos | 2026
// service_test.go

package payment

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dateu/dateu-backend/internal/config"
	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/plan"
	"github.com/dateu/dateu-backend/internal/subscription"
)

type fakeRepo struct {
	payments map[string]*Payment
	writes   int
}

func newFakeRepo(payments ...*Payment) *fakeRepo {
	m := make(map[string]*Payment, len(payments))
	for _, p := range payments {
		m[p.ID] = p
	}
	return &fakeRepo{payments: m}
}

func (f *fakeRepo) Create(_ context.Context, p *Payment) error {
	f.payments[p.ID] = p
	f.writes++
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetByUserAndOrder(_ context.Context, userID, orderID string) (*Payment, error) {
	for _, p := range f.payments {
		if p.UserID == userID && p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) Approve(_ context.Context, id, paymentID, signature string) error {
	p, ok := f.payments[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Status = StatusApproved
	p.PaymentID = paymentID
	p.Signature = signature
	f.writes++
	return nil
}

func (f *fakeRepo) Reject(_ context.Context, id string) error {
	p, ok := f.payments[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Status = StatusRejected
	f.writes++
	return nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string, limit int) ([]Payment, error) {
	out := []Payment{}
	for _, p := range f.payments {
		if p.UserID == userID && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListPaymentsParams) ([]Payment, int, error) {
	out := []Payment{}
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) MarkProvisioned(_ context.Context, id string) error {
	p, ok := f.payments[id]
	if !ok {
		return core.ErrNotFound
	}
	p.SubscriptionProvisioned = true
	p.ProvisionError = ""
	f.writes++
	return nil
}

func (f *fakeRepo) RecordProvisionError(_ context.Context, id, message string) error {
	p, ok := f.payments[id]
	if !ok {
		return core.ErrNotFound
	}
	p.ProvisionError = message
	f.writes++
	return nil
}

func (f *fakeRepo) ApprovedPayments(_ context.Context, userID string) ([]subscription.ApprovedPayment, error) {
	out := []subscription.ApprovedPayment{}
	for _, p := range f.payments {
		if p.UserID == userID && p.IsApproved() {
			out = append(out, subscription.ApprovedPayment{PlanID: p.PlanID, Quota: p.Quota})
		}
	}
	return out, nil
}

type fakeOrders struct {
	orderID string
	err     error
	calls   int
}

func (f *fakeOrders) CreateOrder(_ context.Context, _ int64, _, _ string, _ map[string]interface{}) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.orderID, nil
}

type fakeCatalog struct {
	plans map[string]*plan.Plan
}

func (f *fakeCatalog) GetPlan(_ context.Context, id string) (*plan.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

type fakeProvisioner struct {
	err   error
	calls int
}

func (f *fakeProvisioner) Provision(_ context.Context, _, _ string, _ int) (*subscription.ProvisionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &subscription.ProvisionResult{SubscriptionID: "s1", QuotaGranted: 10}, nil
}

var testGatewayCfg = config.RazorpayConfig{
	KeyID:     "rzp_test_key",
	KeySecret: "rzp_test_secret",
	Currency:  "INR",
}

func newTestService(repo Repository, orders OrderClient, catalog PlanCatalog, prov Provisioner, cfg config.RazorpayConfig) *Service {
	return NewService(repo, orders, catalog, prov, cfg, slog.Default())
}

func TestCreateOrderCapturesQuotaAndPrice(t *testing.T) {
	repo := newFakeRepo()
	orders := &fakeOrders{orderID: "order_123"}
	catalog := &fakeCatalog{plans: map[string]*plan.Plan{
		"gold": {ID: "gold", PricePaise: 49900, MatchQuota: 10, Active: true},
	}}
	svc := newTestService(repo, orders, catalog, &fakeProvisioner{}, testGatewayCfg)

	resp, err := svc.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		PlanID: "gold", AmountPaise: 49900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OrderID != "order_123" || resp.AmountPaise != 49900 {
		t.Fatalf("unexpected order response: %+v", resp)
	}

	record, err := repo.GetByUserAndOrder(context.Background(), "u1", "order_123")
	if err != nil {
		t.Fatalf("payment record not written: %v", err)
	}
	if record.Status != StatusPending || record.Quota != 10 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestCreateOrderRequiresGatewayConfig(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeOrders{}, &fakeCatalog{}, &fakeProvisioner{}, config.RazorpayConfig{})

	_, err := svc.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		PlanID: "gold", AmountPaise: 49900,
	})
	if err == nil {
		t.Fatal("expected error with no gateway keys")
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "FAILED_PRECONDITION" {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}

func TestCreateOrderRejectsInactivePlan(t *testing.T) {
	catalog := &fakeCatalog{plans: map[string]*plan.Plan{
		"retired": {ID: "retired", PricePaise: 9900, MatchQuota: 3, Active: false},
	}}
	svc := newTestService(newFakeRepo(), &fakeOrders{orderID: "o"}, catalog, &fakeProvisioner{}, testGatewayCfg)

	_, err := svc.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		PlanID: "retired", AmountPaise: 9900,
	})
	if err == nil {
		t.Fatal("expected error for inactive plan")
	}
}

func TestCreateOrderRejectsAmountMismatch(t *testing.T) {
	repo := newFakeRepo()
	catalog := &fakeCatalog{plans: map[string]*plan.Plan{
		"gold": {ID: "gold", PricePaise: 49900, MatchQuota: 10, Active: true},
	}}
	orders := &fakeOrders{orderID: "order_123"}
	svc := newTestService(repo, orders, catalog, &fakeProvisioner{}, testGatewayCfg)

	_, err := svc.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		PlanID: "gold", AmountPaise: 100,
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input for a wrong amount", err)
	}
	if repo.writes != 0 {
		t.Fatal("no payment record may be written for a rejected amount")
	}
	if orders.calls != 0 {
		t.Fatal("no gateway order may be created for a rejected amount")
	}
}

func TestVerifyTamperedSignatureWritesNothing(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", OrderID: "order_123", Status: StatusPending, Quota: 10,
	})
	prov := &fakeProvisioner{}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	_, err := svc.VerifyPayment(context.Background(), "u1", VerifyRequest{
		OrderID:   "order_123",
		PaymentID: "pay_456",
		Signature: "deadbeef",
	})
	if err == nil {
		t.Fatal("expected signature mismatch error")
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "PERMISSION_DENIED" {
		t.Fatalf("expected permission denied, got %v", err)
	}

	if repo.writes != 0 {
		t.Fatalf("tampered callback must write nothing, got %d writes", repo.writes)
	}
	if prov.calls != 0 {
		t.Fatal("tampered callback must not provision")
	}
	if repo.payments["p1"].Status != StatusPending {
		t.Fatal("payment status must stay pending")
	}
}

func TestVerifyApprovesAndProvisions(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", PlanID: "gold", OrderID: "order_123",
		Status: StatusPending, Quota: 10,
	})
	prov := &fakeProvisioner{}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	sig := signPayload(testGatewayCfg.KeySecret, "order_123", "pay_456")
	resp, err := svc.VerifyPayment(context.Background(), "u1", VerifyRequest{
		OrderID:   "order_123",
		PaymentID: "pay_456",
		Signature: sig,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusApproved {
		t.Fatalf("got status %q, want approved", resp.Status)
	}
	if resp.Provision == nil || resp.Provision.QuotaGranted != 10 {
		t.Fatalf("expected provisioning result, got %+v", resp.Provision)
	}

	record := repo.payments["p1"]
	if record.Status != StatusApproved || record.PaymentID != "pay_456" {
		t.Fatalf("record not approved: %+v", record)
	}
	if !record.SubscriptionProvisioned {
		t.Fatal("record must be flagged provisioned")
	}
}

func TestVerifyUnknownOrderCreatesApprovedRecord(t *testing.T) {
	repo := newFakeRepo()
	prov := &fakeProvisioner{}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	sig := signPayload(testGatewayCfg.KeySecret, "order_999", "pay_1")
	_, err := svc.VerifyPayment(context.Background(), "u1", VerifyRequest{
		OrderID:   "order_999",
		PaymentID: "pay_1",
		Signature: sig,
		PlanID:    "gold",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := repo.GetByUserAndOrder(context.Background(), "u1", "order_999")
	if err != nil {
		t.Fatalf("approved record not created: %v", err)
	}
	if record.Status != StatusApproved || record.PlanID != "gold" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestProvisioningRunsOncePerPayment(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", PlanID: "gold", OrderID: "order_123",
		Status: StatusApproved, Quota: 10, SubscriptionProvisioned: true,
	})
	prov := &fakeProvisioner{}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	sig := signPayload(testGatewayCfg.KeySecret, "order_123", "pay_456")
	resp, err := svc.VerifyPayment(context.Background(), "u1", VerifyRequest{
		OrderID:   "order_123",
		PaymentID: "pay_456",
		Signature: sig,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provision != nil {
		t.Fatal("replay must not provision again")
	}
	if prov.calls != 0 {
		t.Fatalf("provisioner called %d times for provisioned payment", prov.calls)
	}
}

func TestAdminApproveSwallowsProvisioningFailure(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", PlanID: "ghost", OrderID: "order_123",
		Status: StatusPending,
	})
	prov := &fakeProvisioner{err: errors.New("plan grants no quota")}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	resp, err := svc.AdminApprove(context.Background(), "p1")
	if err != nil {
		t.Fatalf("approval must not fail on provisioning error: %v", err)
	}

	if resp.Status != StatusApproved {
		t.Fatalf("got status %q, want approved", resp.Status)
	}
	if resp.SubscriptionProvisioned {
		t.Fatal("payment must not be flagged provisioned")
	}
	if resp.ProvisionError == "" {
		t.Fatal("provisioning failure must be recorded")
	}
	if repo.payments["p1"].ProvisionError == "" {
		t.Fatal("provision error must be persisted")
	}
}

func TestAdminRejectBlocksProvisionedPayment(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", Status: StatusApproved, SubscriptionProvisioned: true,
	})
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, &fakeProvisioner{}, testGatewayCfg)

	err := svc.AdminReject(context.Background(), "p1")
	if err == nil {
		t.Fatal("rejecting a provisioned payment must fail")
	}
}

func TestAdminApproveRequiresUserAndPlan(t *testing.T) {
	repo := newFakeRepo(&Payment{
		ID: "p1", UserID: "u1", OrderID: "order_123", Status: StatusPending,
	})
	prov := &fakeProvisioner{}
	svc := newTestService(repo, &fakeOrders{}, &fakeCatalog{}, prov, testGatewayCfg)

	_, err := svc.AdminApprove(context.Background(), "p1")

	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "FAILED_PRECONDITION" {
		t.Fatalf("got %v, want failed-precondition", err)
	}
	if prov.calls != 0 {
		t.Fatal("no provisioning may run for an incomplete record")
	}
	if repo.payments["p1"].Status != StatusPending {
		t.Fatal("record must stay pending")
	}
}

func TestSignPayload(t *testing.T) {
	// Known-answer check so the scheme cannot drift: hex HMAC-SHA256 of
	// "order|payment" keyed with the secret.
	got := signPayload("secret", "order_1", "pay_1")
	want := "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb"
	if got != want {
		t.Fatalf("got signature %q, want %q", got, want)
	}
}
