package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Valid user roles
const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

var validRoles = map[string]bool{
	RoleGuest: true,
	RoleHost:  true,
	RoleAdmin: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type User struct {
	ID                      string          `json:"id"`
	Email                   string          `json:"email"`
	PasswordHash            string          `json:"-"`
	FullName                string          `json:"fullName"`
	Phone                   string          `json:"phone"`
	Address                 string          `json:"address"`
	Role                    string          `json:"role"`
	Verified                bool            `json:"verified"`
	VerificationToken       *string         `json:"-"`
	VerificationTokenExpiry *time.Time      `json:"-"`
	VerifiedAt              *time.Time      `json:"verifiedAt,omitempty"`
	HostRequirements        json.RawMessage `json:"hostRequirements,omitempty"`
	SelectedPlan            string          `json:"selectedPlan,omitempty"`
	PoliciesAcknowledgedAt  *time.Time      `json:"policiesAcknowledgedAt,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// Consistent reports whether the verified flag agrees with the token fields:
// a verified user carries neither a token nor an expiry.
func (u *User) Consistent() bool {
	if u.Verified {
		return u.VerificationToken == nil && u.VerificationTokenExpiry == nil
	}
	return true
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=32"`
	Address  string `json:"address" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        *User  `json:"user"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HostRequirements are the acknowledgements a guest must make before
// becoming a host.
type HostRequirements struct {
	ValidID         bool `json:"validId" validate:"eq=true"`
	PropertyProof   bool `json:"propertyProof" validate:"eq=true"`
	SafetyStandards bool `json:"safetyStandards" validate:"eq=true"`
	HouseRules      bool `json:"houseRules" validate:"eq=true"`
}

type BecomeHostRequest struct {
	Requirements  HostRequirements `json:"requirements"`
	SelectedPlan  string           `json:"selectedPlan" validate:"required"`
	AcceptedTerms bool             `json:"acceptedTerms" validate:"eq=true"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=guest host admin"`
}

type Stats struct {
	Users    int64 `json:"users"`
	Hosts    int64 `json:"hosts"`
	Listings int64 `json:"listings"`
	Bookings int64 `json:"bookings"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
