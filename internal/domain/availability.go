package domain

import "time"

type AvailabilityBlock struct {
	ID        string    `json:"id"`
	HostID    string    `json:"hostId"`
	ListingID *string   `json:"listingId,omitempty"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type CreateAvailabilityRequest struct {
	ListingID *string   `json:"listingId"`
	Title     string    `json:"title" validate:"required,max=200"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required,gtfield=Start"`
}

const (
	CalendarBlock   = "block"
	CalendarBooking = "booking"
)

// CalendarEvent is one entry of a host calendar: either a manual block or
// a booking. Only blocks can be removed.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	ListingID string    `json:"listingId,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Removable bool      `json:"removable"`
}
