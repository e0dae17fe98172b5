package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/stayease/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	MarkVerified(ctx context.Context, userID, expectedToken string, at time.Time) (bool, error)
	SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) (bool, error)
	BecomeHost(ctx context.Context, userID string, requirements json.RawMessage, plan string, at time.Time) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateRole(ctx context.Context, userID, role string) error
	Stats(ctx context.Context) (*domain.Stats, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, email, password_hash, full_name, phone, address, role, verified,
verification_token, verification_token_expiry, verified_at,
host_requirements, selected_plan, policies_acknowledged_at, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		requirements []byte
		plan         *string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Address, &u.Role, &u.Verified,
		&u.VerificationToken, &u.VerificationTokenExpiry, &u.VerifiedAt,
		&requirements, &plan, &u.PoliciesAcknowledgedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(requirements) > 0 {
		u.HostRequirements = json.RawMessage(requirements)
	}
	if plan != nil {
		u.SelectedPlan = *plan
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
		INSERT INTO users (id, email, password_hash, full_name, phone, address, role,
			verified, verification_token, verification_token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9)
		RETURNING created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.pool.QueryRow(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Address, u.Role,
		u.VerificationToken, u.VerificationTokenExpiry,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	return err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// MarkVerified only succeeds while the row still holds expectedToken, so two
// racing verifications cannot both apply.
func (r *userRepository) MarkVerified(ctx context.Context, userID, expectedToken string, at time.Time) (bool, error) {
	const q = `
		UPDATE users
		SET verified = true,
			verification_token = NULL,
			verification_token_expiry = NULL,
			verified_at = $3,
			updated_at = now()
		WHERE id = $1 AND verified = false AND verification_token = $2`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, userID, expectedToken, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) (bool, error) {
	const q = `
		UPDATE users
		SET verification_token = $2, verification_token_expiry = $3, updated_at = now()
		WHERE id = $1 AND verified = false`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, userID, token, expiry)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) BecomeHost(ctx context.Context, userID string, requirements json.RawMessage, plan string, at time.Time) (*domain.User, error) {
	const q = `
		UPDATE users
		SET role = CASE WHEN role = 'admin' THEN role ELSE 'host' END,
			host_requirements = $2,
			selected_plan = $3,
			policies_acknowledged_at = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, userID, []byte(requirements), plan, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	limit, offset = clampPage(limit, offset)
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateRole(ctx context.Context, userID, role string) error {
	const q = `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE role = 'host'),
			(SELECT count(*) FROM listings),
			(SELECT count(*) FROM bookings)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s domain.Stats
	if err := r.pool.QueryRow(ctx, q).Scan(&s.Users, &s.Hosts, &s.Listings, &s.Bookings); err != nil {
		return nil, err
	}
	return &s, nil
}
