package handlers

import (
	"errors"
	"net/http"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/pkg/logger"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, verifyURL, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusConflict, "An account with this email already exists", "EMAIL_EXISTS")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    user,
	}

	// Include verify URL in development mode
	if h.config.Email.DevMode {
		response["dev_verify_url"] = verifyURL
	}

	writeJSON(w, http.StatusCreated, response)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, err.Error(), "LOGIN_FAILED")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verifyURL, err := h.auth.ResendVerification(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"message": "If the account exists and is not yet verified, a new verification email has been sent.",
	}
	if h.config.Email.DevMode && verifyURL != "" {
		response["dev_verify_url"] = verifyURL
	}
	writeJSON(w, http.StatusOK, response)
}

type verifyEmailResponse struct {
	Success         bool   `json:"success"`
	AlreadyVerified bool   `json:"alreadyVerified,omitempty"`
	Message         string `json:"message"`
}

// VerifyEmail confirms the address behind an emailed link. Repeated clicks
// on a used link report alreadyVerified instead of failing.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		writeJSON(w, http.StatusBadRequest, verifyEmailResponse{Message: "Missing email or token"})
		return
	}

	result, err := h.verifier.Verify(r.Context(), email, token)
	switch {
	case err == nil && result.AlreadyVerified:
		writeJSON(w, http.StatusOK, verifyEmailResponse{
			Success:         true,
			AlreadyVerified: true,
			Message:         "Your email has already been verified. You are registered!",
		})
	case err == nil:
		writeJSON(w, http.StatusOK, verifyEmailResponse{
			Success: true,
			Message: "Your email has been successfully verified! You are now registered.",
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, verifyEmailResponse{Message: "User not found. Please register again."})
	// A processed link that fails the state machine is still a 200.
	case errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusOK, verifyEmailResponse{Message: "Invalid verification token. The link may have expired or been used."})
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusOK, verifyEmailResponse{Message: "Verification link has expired. Please request a new verification email."})
	default:
		logger.ErrorContext(r.Context(), "Email verification failed", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, verifyEmailResponse{Message: "Server error during verification."})
	}
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) BecomeHost(w http.ResponseWriter, r *http.Request) {
	var req domain.BecomeHostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.BecomeHost(r.Context(), getClaims(r).UserID(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "You are now a host. Sign in again to refresh your session.",
		"user":    user,
	})
}
