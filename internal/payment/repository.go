// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/subscription"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByUserAndOrder(ctx context.Context, userID, orderID string) (*Payment, error)
	Approve(ctx context.Context, id, paymentID, signature string) error
	Reject(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Payment, error)
	List(ctx context.Context, params ListPaymentsParams) ([]Payment, int, error)
	MarkProvisioned(ctx context.Context, id string) error
	RecordProvisionError(ctx context.Context, id, message string) error
	ApprovedPayments(ctx context.Context, userID string) ([]subscription.ApprovedPayment, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, plan_id, amount_paise, currency, order_id,
			payment_id, signature, status, quota, subscription_provisioned,
			provision_error, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.UserID, p.PlanID, p.AmountPaise, p.Currency, p.OrderID,
		p.PaymentID, p.Signature, p.Status, p.Quota, p.SubscriptionProvisioned,
		p.ProvisionError,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return core.ErrDuplicateKey
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	query := `SELECT * FROM payments WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// GetByUserAndOrder looks a payment up by its natural key. One user can
// hold at most one payment record per gateway order.
func (r *repository) GetByUserAndOrder(ctx context.Context, userID, orderID string) (*Payment, error) {
	var p Payment
	query := `SELECT * FROM payments WHERE user_id = $1 AND order_id = $2`

	err := r.db.GetContext(ctx, &p, query, userID, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get payment by order: %w", err)
	}
	return &p, nil
}

func (r *repository) Approve(ctx context.Context, id, paymentID, signature string) error {
	query := `
		UPDATE payments
		SET status = $2, payment_id = $3, signature = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, StatusApproved, paymentID, signature)
	if err != nil {
		return fmt.Errorf("approve payment: %w", err)
	}
	return requireRow(result, "approve payment")
}

func (r *repository) Reject(ctx context.Context, id string) error {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, StatusRejected)
	if err != nil {
		return fmt.Errorf("reject payment: %w", err)
	}
	return requireRow(result, "reject payment")
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit int) ([]Payment, error) {
	payments := []Payment{}
	query := `
		SELECT * FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &payments, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *repository) List(ctx context.Context, params ListPaymentsParams) ([]Payment, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}
	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, params.UserID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	listQuery := fmt.Sprintf(`
		SELECT * FROM payments
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, params.Limit, offset)

	payments := []Payment{}
	if err := r.db.SelectContext(ctx, &payments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return payments, total, nil
}

func (r *repository) MarkProvisioned(ctx context.Context, id string) error {
	query := `
		UPDATE payments
		SET subscription_provisioned = TRUE, provision_error = '', updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark provisioned: %w", err)
	}
	return requireRow(result, "mark provisioned")
}

func (r *repository) RecordProvisionError(ctx context.Context, id, message string) error {
	query := `
		UPDATE payments
		SET provision_error = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, message)
	if err != nil {
		return fmt.Errorf("record provision error: %w", err)
	}
	return requireRow(result, "record provision error")
}

// ApprovedPayments feeds subscription repair: reconciliation only ever
// counts approved payments, oldest first.
func (r *repository) ApprovedPayments(ctx context.Context, userID string) ([]subscription.ApprovedPayment, error) {
	rows := []struct {
		PlanID string `db:"plan_id"`
		Quota  int    `db:"quota"`
	}{}
	query := `
		SELECT plan_id, quota FROM payments
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &rows, query, userID, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved payments: %w", err)
	}

	approved := make([]subscription.ApprovedPayment, 0, len(rows))
	for _, row := range rows {
		approved = append(approved, subscription.ApprovedPayment{
			PlanID: row.PlanID,
			Quota:  row.Quota,
		})
	}
	return approved, nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
