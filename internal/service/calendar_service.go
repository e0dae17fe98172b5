package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/repository"
)

type CalendarService interface {
	Calendar(ctx context.Context, hostID string) ([]domain.CalendarEvent, error)
	AddBlock(ctx context.Context, hostID string, req *domain.CreateAvailabilityRequest) (*domain.AvailabilityBlock, error)
	RemoveBlock(ctx context.Context, hostID, id string) error
}

type calendarService struct {
	availabilityRepo repository.AvailabilityRepository
	bookingRepo      repository.BookingRepository
}

func NewCalendarService(availabilityRepo repository.AvailabilityRepository, bookingRepo repository.BookingRepository) CalendarService {
	return &calendarService{availabilityRepo: availabilityRepo, bookingRepo: bookingRepo}
}

// Calendar merges manual blocks and non-cancelled bookings, ordered by start.
func (s *calendarService) Calendar(ctx context.Context, hostID string) ([]domain.CalendarEvent, error) {
	blocks, err := s.availabilityRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: list availability: %v", domain.ErrUpstream, err)
	}
	bookings, err := s.bookingRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", domain.ErrUpstream, err)
	}

	out := make([]domain.CalendarEvent, 0, len(blocks)+len(bookings))
	for _, b := range blocks {
		ev := domain.CalendarEvent{
			ID:        b.ID,
			Kind:      domain.CalendarBlock,
			Title:     b.Title,
			Start:     b.Start,
			End:       b.End,
			Removable: true,
		}
		if b.ListingID != nil {
			ev.ListingID = *b.ListingID
		}
		out = append(out, ev)
	}
	for _, b := range bookings {
		if b.Status == domain.BookingCancelled {
			continue
		}
		title := "Booking"
		if b.PayerName != "" {
			title = "Booking: " + b.PayerName
		}
		out = append(out, domain.CalendarEvent{
			ID:        b.ID,
			Kind:      domain.CalendarBooking,
			Title:     title,
			ListingID: b.ListingID,
			Start:     b.CheckIn,
			End:       b.CheckOut,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *calendarService) AddBlock(ctx context.Context, hostID string, req *domain.CreateAvailabilityRequest) (*domain.AvailabilityBlock, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	block := &domain.AvailabilityBlock{
		ID:        uuid.NewString(),
		HostID:    hostID,
		ListingID: req.ListingID,
		Title:     req.Title,
		Start:     req.Start,
		End:       req.End,
	}
	if err := s.availabilityRepo.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("%w: create block: %v", domain.ErrUpstream, err)
	}
	return block, nil
}

func (s *calendarService) RemoveBlock(ctx context.Context, hostID, id string) error {
	removed, err := s.availabilityRepo.Delete(ctx, hostID, id)
	if err != nil {
		return fmt.Errorf("%w: delete block: %v", domain.ErrUpstream, err)
	}
	if !removed {
		return domain.ErrNotFound
	}
	return nil
}
