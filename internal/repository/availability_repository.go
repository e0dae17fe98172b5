package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/stayease/internal/domain"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, b *domain.AvailabilityBlock) error
	ListByHost(ctx context.Context, hostID string) ([]domain.AvailabilityBlock, error)
	Delete(ctx context.Context, hostID, id string) (bool, error)
}

type availabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepository{pool: pool}
}

func (r *availabilityRepository) Create(ctx context.Context, b *domain.AvailabilityBlock) error {
	const q = `
		INSERT INTO availability (id, host_id, listing_id, title, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, b.ID, b.HostID, b.ListingID, b.Title, b.Start, b.End)
	return err
}

func (r *availabilityRepository) ListByHost(ctx context.Context, hostID string) ([]domain.AvailabilityBlock, error) {
	const q = `
		SELECT id, host_id, listing_id, title, start_at, end_at
		FROM availability WHERE host_id = $1 ORDER BY start_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := []domain.AvailabilityBlock{}
	for rows.Next() {
		var b domain.AvailabilityBlock
		if err := rows.Scan(&b.ID, &b.HostID, &b.ListingID, &b.Title, &b.Start, &b.End); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *availabilityRepository) Delete(ctx context.Context, hostID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM availability WHERE id = $1 AND host_id = $2`, id, hostID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
