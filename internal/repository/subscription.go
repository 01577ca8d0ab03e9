package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `id, user_id, plan, status, start_date, end_date, created_at, updated_at`

type SubscriptionRepository struct {
	db DBTX
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.StartDate = sub.StartDate.UTC()
	sub.EndDate = sub.EndDate.UTC()
	return &sub, nil
}

// LockUser takes a transaction-scoped advisory lock on the user's
// subscription. Outside a transaction it is released immediately.
func (r *SubscriptionRepository) LockUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "subscription:"+userID)
	if err != nil {
		return fmt.Errorf("failed to lock subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) findOne(ctx context.Context, where string, arg string) (*domain.Subscription, error) {
	sub, err := scanSubscription(r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	return r.findOne(ctx, `user_id = $1`, userID)
}

// Save upserts the subscription on its user. The stored id is kept on
// conflict and copied back into sub.
func (r *SubscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.Status,
		sub.StartDate, sub.EndDate, sub.CreatedAt, sub.UpdatedAt,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// List returns subscriptions ordered by end date, filtered against now.
func (r *SubscriptionRepository) List(ctx context.Context, filter domain.SubscriptionFilter, now time.Time) ([]*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	args := []any{}
	switch filter {
	case domain.SubscriptionFilterActive:
		query += ` WHERE status = 'active' AND end_date > $1`
		args = append(args, now)
	case domain.SubscriptionFilterExpired:
		query += ` WHERE status <> 'active' OR end_date <= $1`
		args = append(args, now)
	}
	query += ` ORDER BY end_date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountActive returns the number of subscriptions running at now.
func (r *SubscriptionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE status = 'active' AND end_date > $1`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return n, nil
}
