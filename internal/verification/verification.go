// Package verification moves a user from unverified to verified given the
// token from their emailed link.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/token"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
)

type Repository interface {
	// FindByEmail returns nil, nil when no user has the address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// MarkVerified flips the user to verified only if it is still unverified
	// and still holds expectedToken. It reports whether a row changed.
	MarkVerified(ctx context.Context, userID, expectedToken string, at time.Time) (bool, error)
}

type Result struct {
	User            *domain.User
	AlreadyVerified bool
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Verify(ctx context.Context, email, supplied string) (*Result, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", domain.ErrUpstream, err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if user.Verified {
		return &Result{User: user, AlreadyVerified: true}, nil
	}

	stored := ""
	if user.VerificationToken != nil {
		stored = *user.VerificationToken
	}
	if !token.Validate(stored, supplied) {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	if user.VerificationTokenExpiry != nil && user.VerificationTokenExpiry.Before(now) {
		return nil, domain.ErrExpired
	}

	changed, err := s.repo.MarkVerified(ctx, user.ID, stored, now)
	if err != nil {
		return nil, fmt.Errorf("%w: mark verified: %v", domain.ErrUpstream, err)
	}

	if !changed {
		// Lost a race: someone else consumed or replaced the token.
		current, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("%w: reload user: %v", domain.ErrUpstream, err)
		}
		if current != nil && current.Verified {
			return &Result{User: current, AlreadyVerified: true}, nil
		}
		return nil, domain.ErrInvalidToken
	}

	user.Verified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiry = nil
	user.VerifiedAt = &now

	if err := s.publisher.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		VerifiedAt: now,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user verified event", logger.Err(err), "user_id", user.ID)
	}

	return &Result{User: user}, nil
}
