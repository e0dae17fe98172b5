package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/payments"
	"github.com/diagnosis/stayease/internal/repository"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
)

type SubscriptionService interface {
	Plans() []domain.Plan
	Checkout(ctx context.Context, hostID, planID string) (*payments.Order, error)
	Activate(ctx context.Context, hostID string, req *domain.ActivateSubscriptionRequest) (*domain.Subscription, error)
	Get(ctx context.Context, hostID string) (*domain.Subscription, error)
}

type subscriptionService struct {
	subRepo  repository.SubscriptionRepository
	payments payments.Provider
	eventBus events.Publisher
	now      func() time.Time
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	provider payments.Provider,
	eventBus events.Publisher,
) SubscriptionService {
	return &subscriptionService{
		subRepo:  subRepo,
		payments: provider,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *subscriptionService) Plans() []domain.Plan {
	return domain.Plans()
}

func (s *subscriptionService) Checkout(ctx context.Context, hostID, planID string) (*payments.Order, error) {
	plan, ok := domain.FindPlan(planID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, planID)
	}
	return s.payments.CreateOrder(ctx, plan.Price, plan.Currency,
		fmt.Sprintf("%s Plan Subscription", plan.Name), subscriptionOrderMeta(hostID, plan))
}

// Activate confirms payment and starts a fresh period with usage reset. The
// order must have been opened by this host for this plan at the plan price,
// and each order activates once.
func (s *subscriptionService) Activate(ctx context.Context, hostID string, req *domain.ActivateSubscriptionRequest) (*domain.Subscription, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	plan, ok := domain.FindPlan(req.PlanID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, req.PlanID)
	}

	capture, err := s.payments.Capture(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrder(capture, plan.Price, plan.Currency, subscriptionOrderMeta(hostID, plan)); err != nil {
		return nil, err
	}

	start := s.now()
	end := plan.PeriodEnd(start)
	sub := &domain.Subscription{
		HostID:      hostID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		Price:       plan.Price,
		Currency:    plan.Currency,
		Interval:    plan.Interval,
		Quota:       plan.Quota,
		Active:      true,
		PeriodStart: start,
		PeriodEnd:   &end,
		LastOrderID: capture.OrderID,
	}
	if err := s.subRepo.Activate(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadyDone) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: save subscription: %v", domain.ErrUpstream, err)
	}

	if err := s.eventBus.Publish(ctx, events.SubscriptionActivated, events.SubscriptionActivatedEvent{
		HostID:    hostID,
		PlanID:    plan.ID,
		Quota:     plan.Quota,
		PeriodEnd: &end,
		OrderID:   capture.OrderID,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish subscription activated event", logger.Err(err), "host_id", hostID)
	}

	return sub, nil
}

func (s *subscriptionService) Get(ctx context.Context, hostID string) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("%w: load subscription: %v", domain.ErrUpstream, err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}
