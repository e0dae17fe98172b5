package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/mailer"
	"github.com/diagnosis/stayease/internal/repository"
	"github.com/diagnosis/stayease/internal/token"
	"github.com/diagnosis/stayease/pkg/auth"
	"github.com/diagnosis/stayease/pkg/config"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	BecomeHost(ctx context.Context, userID string, req *domain.BecomeHostRequest) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, userID, role string) error
	Stats(ctx context.Context) (*domain.Stats, error)
}

type authService struct {
	userRepo repository.UserRepository
	codec    *token.Codec
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
	now      func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	codec *token.Codec,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		codec:    codec,
		mailer:   mailer,
		eventBus: eventBus,
		config:   config,
		now:      time.Now,
	}
}

// Register creates an unverified user and emails the verification link.
// A mail failure is logged and does not undo the registration.
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: check existing user: %v", domain.ErrUpstream, err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	verifyToken := s.codec.Generate(req.Email, now)
	expiry := now.Add(s.config.Auth.EmailVerificationTTL)

	user := &domain.User{
		ID:                      uuid.NewString(),
		Email:                   req.Email,
		PasswordHash:            passwordHash,
		FullName:                req.FullName,
		Phone:                   req.Phone,
		Address:                 req.Address,
		Role:                    domain.RoleGuest,
		VerificationToken:       &verifyToken,
		VerificationTokenExpiry: &expiry,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: create user: %v", domain.ErrUpstream, err)
	}

	verifyURL := s.buildVerificationURL(verifyToken, user.Email)
	emailQueued := true
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.FullName, verifyURL); err != nil {
		emailQueued = false
		logger.ErrorContext(ctx, "Failed to send verification email", logger.Err(err), "user_id", user.ID)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		EmailQueued:  emailQueued,
		RegisteredAt: now,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user registered event", logger.Err(err), "user_id", user.ID)
	}

	return user, verifyURL, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", domain.ErrUpstream, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil || !valid {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	if !user.Verified {
		return nil, fmt.Errorf("%w: email not verified", domain.ErrUnauthorized)
	}

	accessToken, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user,
	}, nil
}

// ResendVerification issues a fresh token. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.Validate(&domain.ResendVerificationRequest{Email: email}); err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: find user: %v", domain.ErrUpstream, err)
	}
	if user == nil {
		return "", nil
	}
	if user.Verified {
		return "", fmt.Errorf("%w: account is already verified", domain.ErrAlreadyDone)
	}

	now := s.now()
	verifyToken := s.codec.Generate(user.Email, now)
	changed, err := s.userRepo.SetVerificationToken(ctx, user.ID, verifyToken, now.Add(s.config.Auth.EmailVerificationTTL))
	if err != nil {
		return "", fmt.Errorf("%w: store verification token: %v", domain.ErrUpstream, err)
	}
	if !changed {
		return "", fmt.Errorf("%w: account is already verified", domain.ErrAlreadyDone)
	}

	verifyURL := s.buildVerificationURL(verifyToken, user.Email)
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.FullName, verifyURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", logger.Err(err), "user_id", user.ID)
	}
	return verifyURL, nil
}

func (s *authService) BecomeHost(ctx context.Context, userID string, req *domain.BecomeHostRequest) (*domain.User, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if _, ok := domain.FindPlan(req.SelectedPlan); !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, req.SelectedPlan)
	}

	requirements, err := json.Marshal(req.Requirements)
	if err != nil {
		return nil, fmt.Errorf("marshal requirements: %w", err)
	}

	user, err := s.userRepo.BecomeHost(ctx, userID, requirements, req.SelectedPlan, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: update user: %v", domain.ErrUpstream, err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", domain.ErrUpstream, err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", domain.ErrUpstream, err)
	}
	return users, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, userID, role string) error {
	if err := domain.Validate(&domain.UpdateUserRoleRequest{Role: role}); err != nil {
		return err
	}

	err := s.userRepo.UpdateRole(ctx, userID, role)
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: update user role: %v", domain.ErrUpstream, err)
	}
	return nil
}

func (s *authService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load stats: %v", domain.ErrUpstream, err)
	}
	return stats, nil
}

func (s *authService) buildVerificationURL(verifyToken, email string) string {
	q := url.Values{}
	q.Set("token", verifyToken)
	q.Set("email", email)
	return fmt.Sprintf("%s/verify-email?%s", strings.TrimRight(s.config.App.BaseURL, "/"), q.Encode())
}
