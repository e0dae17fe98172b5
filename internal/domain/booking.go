package domain

import "time"

const (
	BookingPaid      = "paid"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listingId"`
	HostID     string    `json:"hostId"`
	GuestID    string    `json:"guestId"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	OrderID    string    `json:"orderId"`
	PayerName  string    `json:"payerName,omitempty"`
	PayerEmail string    `json:"payerEmail,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Nights is the number of whole nights between check-in and check-out,
// never less than one.
func Nights(checkIn, checkOut time.Time) int {
	n := int(checkOut.Sub(checkIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

type BookingCheckoutRequest struct {
	ListingID string `json:"listingId" validate:"required"`
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
}

type CreateBookingRequest struct {
	ListingID string `json:"listingId" validate:"required"`
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Note      string `json:"note" validate:"max=1000"`
}
