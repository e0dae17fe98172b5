package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/search"
)

// SearchListings filters published listings by term, stay window and guest
// count. Clients that tag searches with X-Search-Client and X-Search-Seq get
// 409 for a search that a newer one has overtaken.
func (h *Handlers) SearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := search.Query{
		Term:     q.Get("q"),
		CheckIn:  q.Get("checkIn"),
		CheckOut: q.Get("checkOut"),
	}
	if query.Term == "" {
		query.Term = q.Get("location")
	}
	if v := q.Get("guests"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			query.Guests = n
		}
	}

	client := strings.TrimSpace(r.Header.Get("X-Search-Client"))
	seq, seqErr := strconv.ParseUint(r.Header.Get("X-Search-Seq"), 10, 64)
	tracked := client != "" && seqErr == nil

	if tracked && !h.sequencer.Begin(client, seq) {
		writeSuperseded(w)
		return
	}

	listings, err := h.search.Search(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if tracked && !h.sequencer.Current(client, seq) {
		writeSuperseded(w)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func writeSuperseded(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, map[string]bool{"superseded": true})
}

func (h *Handlers) BookingCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.bookings.Checkout(r.Context(), getClaims(r).UserID(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookings.Confirm(r.Context(), getClaims(r).UserID(), &req)
	if err != nil {
		writePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) GuestBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForGuest(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}
