package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/media"
	"github.com/diagnosis/stayease/internal/quota"
	"github.com/diagnosis/stayease/internal/repository"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
)

// QuotaError is returned when the subscription gate denies a listing.
type QuotaError struct {
	Decision quota.Decision
}

func (e *QuotaError) Error() string {
	return e.Decision.Message()
}

func (e *QuotaError) Unwrap() error {
	return domain.ErrUnauthorized
}

type ListingService interface {
	Create(ctx context.Context, hostID string, req *domain.CreateListingRequest, image io.Reader) (*domain.Listing, error)
	Publish(ctx context.Context, hostID, id string) (*domain.Listing, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error)
	Delete(ctx context.Context, hostID, id string) error
}

type listingService struct {
	listingRepo repository.ListingRepository
	gate        *quota.Gate
	uploader    media.Uploader
	eventBus    events.Publisher
	now         func() time.Time
}

func NewListingService(
	listingRepo repository.ListingRepository,
	gate *quota.Gate,
	uploader media.Uploader,
	eventBus events.Publisher,
) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		gate:        gate,
		uploader:    uploader,
		eventBus:    eventBus,
		now:         time.Now,
	}
}

// Create checks the gate before touching the CDN, then creates the draft and
// consumes quota atomically. The gate is evaluated again under lock, so a
// host racing two requests cannot exceed the plan.
func (s *listingService) Create(ctx context.Context, hostID string, req *domain.CreateListingRequest, image io.Reader) (*domain.Listing, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	decision, err := s.gate.Authorize(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &QuotaError{Decision: decision}
	}

	var imageURL string
	if image != nil {
		imageURL, err = s.uploader.Upload(ctx, image)
		if err != nil {
			return nil, err
		}
	}

	listing := &domain.Listing{
		ID:          uuid.NewString(),
		HostID:      hostID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		PromoCode:   req.PromoCode,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Status:      domain.ListingDraft,
		ImageURL:    imageURL,
	}

	decision, err = s.listingRepo.CreateWithQuota(ctx, listing, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: create listing: %v", domain.ErrUpstream, err)
	}
	if !decision.Allowed {
		return nil, &QuotaError{Decision: decision}
	}

	if err := s.eventBus.Publish(ctx, events.ListingCreated, events.ListingCreatedEvent{
		ListingID: listing.ID,
		HostID:    hostID,
		Title:     listing.Title,
		CreatedAt: listing.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish listing created event", logger.Err(err), "listing_id", listing.ID)
	}

	return listing, nil
}

func (s *listingService) Publish(ctx context.Context, hostID, id string) (*domain.Listing, error) {
	listing, err := s.listingRepo.Publish(ctx, hostID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: publish listing: %v", domain.ErrUpstream, err)
	}
	if listing == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.eventBus.Publish(ctx, events.ListingPublished, events.ListingPublishedEvent{
		ListingID:   listing.ID,
		HostID:      hostID,
		PublishedAt: listing.UpdatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish listing published event", logger.Err(err), "listing_id", listing.ID)
	}
	return listing, nil
}

func (s *listingService) ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error) {
	listings, err := s.listingRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: list listings: %v", domain.ErrUpstream, err)
	}
	return listings, nil
}

func (s *listingService) Delete(ctx context.Context, hostID, id string) error {
	deleted, err := s.listingRepo.Delete(ctx, hostID, id)
	if err != nil {
		return fmt.Errorf("%w: delete listing: %v", domain.ErrUpstream, err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	logger.InfoContext(ctx, "Listing deleted", "listing_id", id, "host_id", hostID)
	return nil
}
