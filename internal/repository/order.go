package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymflow/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Amounts travel as text so no precision is lost between NUMERIC and decimal.
const orderColumns = `id, user_id, plan, amount::text, status, payment_method, reference, proof_url,
	customer_name, customer_email, customer_phone, notes, reviewed_by, reviewed_at, created_at, updated_at`

// OrderRepository handles database operations for payment orders.
type OrderRepository struct {
	db DBTX
}

func scanOrder(row pgx.Row) (*domain.PaymentOrder, error) {
	var (
		o      domain.PaymentOrder
		amount string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Plan, &amount, &o.Status, &o.PaymentMethod, &o.Reference, &o.ProofURL,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Notes, &o.ReviewedBy, &o.ReviewedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.PaymentOrder, error) {
	defer rows.Close()
	var orders []*domain.PaymentOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Create inserts a new payment order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (id, user_id, plan, amount, status, payment_method, reference, proof_url,
			customer_name, customer_email, customer_phone, notes, reviewed_by, reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		o.ID, o.UserID, o.Plan, o.Amount.StringFixed(2), o.Status, o.PaymentMethod, o.Reference, o.ProofURL,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.Notes, o.ReviewedBy, o.ReviewedAt,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByID returns an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.PaymentOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM payment_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PaymentOrder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM payment_orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return collectOrders(rows)
}

// List returns one page of orders, newest first, with the total match count.
func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]*domain.PaymentOrder, int64, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, f.Status)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM payment_orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, offset(f.Page, f.Limit))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	orders, err := collectOrders(rows)
	return orders, total, err
}

// Review writes the outcome of a review. The pending guard makes two
// concurrent reviews of the same order race on the row: exactly one wins.
func (r *OrderRepository) Review(ctx context.Context, o *domain.PaymentOrder) (bool, error) {
	query := `
		UPDATE payment_orders
		SET status = $2, reviewed_by = $3, reviewed_at = $4, notes = $5, updated_at = $6
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, o.ID, o.Status, o.ReviewedBy, o.ReviewedAt, o.Notes, o.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to review order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes an order by ID.
func (r *OrderRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM payment_orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountByStatus returns the number of orders in status.
func (r *OrderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_orders WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// SumApproved returns the revenue collected from approved orders.
func (r *OrderRepository) SumApproved(ctx context.Context) (decimal.Decimal, error) {
	var sum string
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM payment_orders WHERE status = 'approved'`).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return decimal.NewFromString(sum)
}
