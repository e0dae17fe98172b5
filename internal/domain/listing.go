package domain

import (
	"strings"
	"time"
)

const (
	ListingDraft     = "draft"
	ListingPublished = "published"
)

type Listing struct {
	ID          string    `json:"id"`
	HostID      string    `json:"hostId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	PromoCode   string    `json:"promoCode,omitempty"`
	Price       float64   `json:"price"`
	Capacity    *int      `json:"capacity,omitempty"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateListingRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Location    string  `json:"location" validate:"required,max=200"`
	Category    string  `json:"category" validate:"max=64"`
	PromoCode   string  `json:"promoCode" validate:"max=64"`
	Price       float64 `json:"price" validate:"gt=0"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
}

func (r *CreateListingRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.Category = strings.TrimSpace(r.Category)
	r.PromoCode = strings.TrimSpace(r.PromoCode)
}
