package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/stayease/internal/domain"
)

const maxUploadSize = 10 << 20

func (h *Handlers) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subscription.Plans())
}

func (h *Handlers) SubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriptionCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.subscription.Checkout(r.Context(), getClaims(r).UserID(), req.PlanID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handlers) ActivateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.subscription.Activate(r.Context(), getClaims(r).UserID(), &req)
	if err != nil {
		writePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscription.Get(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// CreateListing accepts either a JSON body or a multipart form carrying an
// optional "image" file.
func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	var (
		req   domain.CreateListingRequest
		image io.Reader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form", "INVALID_INPUT")
			return
		}
		if err := listingFromForm(r.MultipartForm, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
			return
		}
		if file, _, err := r.FormFile("image"); err == nil {
			defer file.Close()
			image = file
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.listings.Create(r.Context(), getClaims(r).UserID(), &req, image)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func listingFromForm(form *multipart.Form, req *domain.CreateListingRequest) error {
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req.Title = get("title")
	req.Description = get("description")
	req.Location = get("location")
	req.Category = get("category")
	req.PromoCode = get("promoCode")

	if v := get("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("price must be a number")
		}
		req.Price = price
	}
	if v := get("capacity"); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("capacity must be a whole number")
		}
		req.Capacity = &capacity
	}
	return nil
}

func (h *Handlers) PublishListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Publish(r.Context(), getClaims(r).UserID(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), getClaims(r).UserID(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HostListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListByHost(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *Handlers) HostBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForHost(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.Calendar(r.Context(), getClaims(r).UserID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handlers) AddAvailability(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	block, err := h.calendar.AddBlock(r.Context(), getClaims(r).UserID(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (h *Handlers) RemoveAvailability(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.RemoveBlock(r.Context(), getClaims(r).UserID(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
