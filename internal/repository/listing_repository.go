package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/quota"
)

type ListingRepository interface {
	// CreateWithQuota re-checks the host's subscription under a row lock,
	// inserts the listing and consumes one unit of quota in one transaction.
	// Nothing is written when the decision is a denial.
	CreateWithQuota(ctx context.Context, l *domain.Listing, now time.Time) (quota.Decision, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	ListPublished(ctx context.Context) ([]domain.Listing, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error)
	Publish(ctx context.Context, hostID, id string) (*domain.Listing, error)
	// Delete removes a host's own listing. Bookings keep their listing_id.
	Delete(ctx context.Context, hostID, id string) (bool, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

const listingCols = `id, host_id, title, description, location, category, promo_code,
price, capacity, status, image_url, created_at, updated_at`

func scanListing(row rowScanner) (*domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(
		&l.ID, &l.HostID, &l.Title, &l.Description, &l.Location, &l.Category, &l.PromoCode,
		&l.Price, &l.Capacity, &l.Status, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) CreateWithQuota(ctx context.Context, l *domain.Listing, now time.Time) (quota.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return quota.Decision{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sub, err := scanSubscription(tx.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE host_id = $1 FOR UPDATE`, l.HostID))
	if errors.Is(err, pgx.ErrNoRows) {
		sub, err = nil, nil
	}
	if err != nil {
		return quota.Decision{}, fmt.Errorf("lock subscription: %w", err)
	}

	decision := quota.Evaluate(sub, now)
	if !decision.Allowed {
		return decision, nil
	}

	const insert = `
		INSERT INTO listings (id, host_id, title, description, location, category, promo_code,
			price, capacity, status, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, insert,
		l.ID, l.HostID, l.Title, l.Description, l.Location, l.Category, l.PromoCode,
		l.Price, l.Capacity, l.Status, l.ImageURL,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return quota.Decision{}, fmt.Errorf("insert listing: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE subscriptions SET used = used + 1, updated_at = now() WHERE host_id = $1`, l.HostID); err != nil {
		return quota.Decision{}, fmt.Errorf("consume quota: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return quota.Decision{}, fmt.Errorf("commit: %w", err)
	}
	return decision, nil
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	l, err := scanListing(r.pool.QueryRow(ctx, `SELECT `+listingCols+` FROM listings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (r *listingRepository) ListPublished(ctx context.Context) ([]domain.Listing, error) {
	return r.list(ctx, `SELECT `+listingCols+` FROM listings WHERE status = 'published' ORDER BY created_at DESC`)
}

func (r *listingRepository) ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error) {
	return r.list(ctx, `SELECT `+listingCols+` FROM listings WHERE host_id = $1 ORDER BY created_at DESC`, hostID)
}

func (r *listingRepository) list(ctx context.Context, q string, args ...any) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (r *listingRepository) Publish(ctx context.Context, hostID, id string) (*domain.Listing, error) {
	const q = `
		UPDATE listings SET status = 'published', updated_at = now()
		WHERE id = $1 AND host_id = $2
		RETURNING ` + listingCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	l, err := scanListing(r.pool.QueryRow(ctx, q, id, hostID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (r *listingRepository) Delete(ctx context.Context, hostID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1 AND host_id = $2`, id, hostID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
