package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/diagnosis/stayease/internal/availability"
	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/payments"
	"github.com/diagnosis/stayease/internal/repository"
	"github.com/diagnosis/stayease/pkg/config"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
)

type BookingService interface {
	Checkout(ctx context.Context, guestID string, req *domain.BookingCheckoutRequest) (*payments.Order, error)
	Confirm(ctx context.Context, guestID string, req *domain.CreateBookingRequest) (*domain.Booking, error)
	ListForGuest(ctx context.Context, guestID string) ([]domain.Booking, error)
	ListForHost(ctx context.Context, hostID string) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	listingRepo repository.ListingRepository
	payments    payments.Provider
	eventBus    events.Publisher
	config      *config.Config
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	listingRepo repository.ListingRepository,
	provider payments.Provider,
	eventBus events.Publisher,
	config *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		listingRepo: listingRepo,
		payments:    provider,
		eventBus:    eventBus,
		config:      config,
	}
}

// quote validates the stay and prices it at the listing's nightly rate.
func (s *bookingService) quote(ctx context.Context, listingID, checkIn, checkOut string) (*domain.Listing, availability.Window, float64, error) {
	w, ok := availability.ParseWindow(checkIn, checkOut)
	if !ok {
		return nil, w, 0, fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, w, 0, fmt.Errorf("%w: find listing: %v", domain.ErrUpstream, err)
	}
	if listing == nil || listing.Status != domain.ListingPublished {
		return nil, w, 0, fmt.Errorf("%w: listing", domain.ErrNotFound)
	}

	amount := listing.Price * float64(domain.Nights(w.CheckIn, w.CheckOut))
	return listing, w, amount, nil
}

func (s *bookingService) Checkout(ctx context.Context, guestID string, req *domain.BookingCheckoutRequest) (*payments.Order, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	listing, w, amount, err := s.quote(ctx, req.ListingID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Booking: %s (%s to %s)",
		listing.Title, w.CheckIn.Format("2006-01-02"), w.CheckOut.Format("2006-01-02"))
	return s.payments.CreateOrder(ctx, amount, s.config.Stripe.Currency, description,
		bookingOrderMeta(guestID, listing.ID, w))
}

// Confirm records a booking for a captured order. The order must have been
// opened by this guest for this listing and window at the current quote.
// Replaying the same order returns the booking already stored for it.
func (s *bookingService) Confirm(ctx context.Context, guestID string, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.bookingRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: find booking: %v", domain.ErrUpstream, err)
	}
	if existing != nil {
		if existing.GuestID != guestID {
			return nil, fmt.Errorf("%w: order belongs to another booking", domain.ErrConflict)
		}
		return existing, nil
	}

	listing, w, amount, err := s.quote(ctx, req.ListingID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	capture, err := s.payments.Capture(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrder(capture, amount, s.config.Stripe.Currency, bookingOrderMeta(guestID, listing.ID, w)); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:         uuid.NewString(),
		ListingID:  listing.ID,
		HostID:     listing.HostID,
		GuestID:    guestID,
		CheckIn:    w.CheckIn,
		CheckOut:   w.CheckOut,
		Amount:     amount,
		Currency:   capture.Currency,
		Status:     domain.BookingPaid,
		OrderID:    capture.OrderID,
		PayerName:  capture.PayerName,
		PayerEmail: capture.PayerEmail,
		Note:       req.Note,
	}

	if err := s.bookingRepo.CreateIfAvailable(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyDone) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create booking: %v", domain.ErrUpstream, err)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: booking.ID,
		ListingID: booking.ListingID,
		HostID:    booking.HostID,
		GuestID:   booking.GuestID,
		CheckIn:   booking.CheckIn,
		CheckOut:  booking.CheckOut,
		Amount:    booking.Amount,
		Currency:  booking.Currency,
		CreatedAt: booking.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking created event", logger.Err(err), "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) ListForGuest(ctx context.Context, guestID string) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", domain.ErrUpstream, err)
	}
	return bookings, nil
}

func (s *bookingService) ListForHost(ctx context.Context, hostID string) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", domain.ErrUpstream, err)
	}
	return bookings, nil
}
