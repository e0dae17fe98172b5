package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/search"
	"github.com/diagnosis/stayease/internal/service"
	"github.com/diagnosis/stayease/internal/verification"
	"github.com/diagnosis/stayease/pkg/auth"
	"github.com/diagnosis/stayease/pkg/config"
	"github.com/diagnosis/stayease/pkg/logger"
	mw "github.com/diagnosis/stayease/pkg/middleware"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// RateLimiter counts requests per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Services groups the application services the handlers call into.
type Services struct {
	Auth         service.AuthService
	Verifier     *verification.Service
	Listings     service.ListingService
	Bookings     service.BookingService
	Subscription service.SubscriptionService
	Calendar     service.CalendarService
	Search       *search.Service
}

type Handlers struct {
	auth         service.AuthService
	verifier     *verification.Service
	listings     service.ListingService
	bookings     service.BookingService
	subscription service.SubscriptionService
	calendar     service.CalendarService
	search       *search.Service
	sequencer    *search.Sequencer
	limiter      RateLimiter
	idempotency  mw.IdempotencyStore
	config       *config.Config
}

// New wires the handlers. limiter and idempotency may be nil, in which case
// rate limiting and idempotent replay are skipped.
func New(svc Services, limiter RateLimiter, idempotency mw.IdempotencyStore, config *config.Config) *Handlers {
	return &Handlers{
		auth:         svc.Auth,
		verifier:     svc.Verifier,
		listings:     svc.Listings,
		bookings:     svc.Bookings,
		subscription: svc.Subscription,
		calendar:     svc.Calendar,
		search:       svc.Search,
		sequencer:    search.NewSequencer(10 * time.Minute),
		limiter:      limiter,
		idempotency:  idempotency,
		config:       config,
	}
}

// RequireJWT authenticates the bearer token. An empty role admits any
// signed-in user; admins pass every role check.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.UserID())
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit limits requests per client IP under the given scope. Limiter
// errors let the request through.
func (h *Handlers) RateLimit(scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := scope + ":" + getClientIP(r)
			allowed, err := h.limiter.Allow(r.Context(), key, limit, h.config.RateLimit.Window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", logger.Err(err))
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeServiceError maps service errors onto status codes. Upstream and
// unknown failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *service.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		writeError(w, http.StatusForbidden, quotaErr.Error(), string(quotaErr.Decision.Reason))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, domain.ErrAlreadyDone):
		writeError(w, http.StatusConflict, err.Error(), "ALREADY_DONE")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	default:
		logger.ErrorContext(r.Context(), "Request failed", logger.Err(err), "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}

// writePaymentError reports an order that has not been paid as 402.
func writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, http.StatusPaymentRequired, "Payment has not been completed", "PAYMENT_REQUIRED")
		return
	}
	writeServiceError(w, r, err)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
