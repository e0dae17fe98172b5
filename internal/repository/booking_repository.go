package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/stayease/internal/domain"
)

type BookingRepository interface {
	// CreateIfAvailable serializes bookings per listing and rejects a window
	// that overlaps an existing non-cancelled booking with ErrConflict. A
	// reused order id yields ErrAlreadyDone.
	CreateIfAvailable(ctx context.Context, b *domain.Booking) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error)
	OverlappingListingIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error)
	ListByGuest(ctx context.Context, guestID string) ([]domain.Booking, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, listing_id, host_id, guest_id, check_in, check_out, amount, currency,
status, order_id, payer_name, payer_email, note, created_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.ListingID, &b.HostID, &b.GuestID, &b.CheckIn, &b.CheckOut, &b.Amount, &b.Currency,
		&b.Status, &b.OrderID, &b.PayerName, &b.PayerEmail, &b.Note, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) CreateIfAvailable(ctx context.Context, b *domain.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.ListingID); err != nil {
		return fmt.Errorf("lock listing: %w", err)
	}

	const overlap = `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1 AND status <> 'cancelled'
			  AND check_in < $3 AND check_out > $2
		)`
	var taken bool
	if err := tx.QueryRow(ctx, overlap, b.ListingID, b.CheckIn, b.CheckOut).Scan(&taken); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: listing already booked for these dates", domain.ErrConflict)
	}

	const insert = `
		INSERT INTO bookings (id, listing_id, host_id, guest_id, check_in, check_out, amount, currency,
			status, order_id, payer_name, payer_email, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`
	err = tx.QueryRow(ctx, insert,
		b.ID, b.ListingID, b.HostID, b.GuestID, b.CheckIn, b.CheckOut, b.Amount, b.Currency,
		b.Status, b.OrderID, b.PayerName, b.PayerEmail, b.Note,
	).Scan(&b.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: order already used", domain.ErrAlreadyDone)
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *bookingRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE order_id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) OverlappingListingIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error) {
	const q = `
		SELECT DISTINCT listing_id FROM bookings
		WHERE status <> 'cancelled' AND check_in < $2 AND check_out > $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *bookingRepository) ListByGuest(ctx context.Context, guestID string) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingCols+` FROM bookings WHERE guest_id = $1 ORDER BY check_in DESC`, guestID)
}

func (r *bookingRepository) ListByHost(ctx context.Context, hostID string) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingCols+` FROM bookings WHERE host_id = $1 ORDER BY check_in DESC`, hostID)
}

func (r *bookingRepository) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
