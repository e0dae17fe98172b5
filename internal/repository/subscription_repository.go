package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/stayease/internal/domain"
)

type SubscriptionRepository interface {
	FindByHost(ctx context.Context, hostID string) (*domain.Subscription, error)
	// Activate redeems s.LastOrderID and replaces the host's subscription
	// with usage reset, in one transaction. An order redeemed before yields
	// ErrAlreadyDone and changes nothing.
	Activate(ctx context.Context, s *domain.Subscription) error
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

const subscriptionCols = `host_id, plan_id, plan_name, price, currency, interval, quota, used, active,
period_start, period_end, last_order_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.HostID, &s.PlanID, &s.PlanName, &s.Price, &s.Currency, &s.Interval, &s.Quota, &s.Used, &s.Active,
		&s.PeriodStart, &s.PeriodEnd, &s.LastOrderID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) FindByHost(ctx context.Context, hostID string) (*domain.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE host_id = $1`, hostID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *subscriptionRepository) Activate(ctx context.Context, s *domain.Subscription) error {
	const redeem = `INSERT INTO subscription_orders (order_id, host_id, plan_id) VALUES ($1, $2, $3)`
	const upsert = `
		INSERT INTO subscriptions (host_id, plan_id, plan_name, price, currency, interval, quota, used,
			active, period_start, period_end, last_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11)
		ON CONFLICT (host_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			plan_name = EXCLUDED.plan_name,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			interval = EXCLUDED.interval,
			quota = EXCLUDED.quota,
			used = 0,
			active = EXCLUDED.active,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			last_order_id = EXCLUDED.last_order_id,
			updated_at = now()
		RETURNING used, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, redeem, s.LastOrderID, s.HostID, s.PlanID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s was already redeemed", domain.ErrAlreadyDone, s.LastOrderID)
		}
		return err
	}

	err = tx.QueryRow(ctx, upsert,
		s.HostID, s.PlanID, s.PlanName, s.Price, s.Currency, s.Interval, s.Quota,
		s.Active, s.PeriodStart, s.PeriodEnd, s.LastOrderID,
	).Scan(&s.Used, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
