// Package quota decides whether a host's subscription allows another listing.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/stayease/internal/domain"
)

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNoSubscription Reason = "NO_SUBSCRIPTION"
	ReasonInactive       Reason = "SUBSCRIPTION_INACTIVE"
	ReasonExpired        Reason = "SUBSCRIPTION_EXPIRED"
	ReasonQuotaExceeded  Reason = "QUOTA_EXCEEDED"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision        { return Decision{Allowed: true} }
func Deny(r Reason) Decision { return Decision{Reason: r} }

// Message is a human readable explanation of a denial.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonNoSubscription:
		return "A subscription is required to create listings"
	case ReasonInactive:
		return "Your subscription is not active"
	case ReasonExpired:
		return "Your subscription has expired"
	case ReasonQuotaExceeded:
		return "You have reached your plan's listing limit"
	}
	return ""
}

// Evaluate applies the subscription rules in order. A nil quota means
// unlimited listings.
func Evaluate(sub *domain.Subscription, now time.Time) Decision {
	switch {
	case sub == nil:
		return Deny(ReasonNoSubscription)
	case !sub.Active:
		return Deny(ReasonInactive)
	case sub.PeriodEnd != nil && sub.PeriodEnd.Before(now):
		return Deny(ReasonExpired)
	case sub.Quota != nil && sub.Used >= *sub.Quota:
		return Deny(ReasonQuotaExceeded)
	}
	return Allow()
}

type SubscriptionReader interface {
	// FindByHost returns nil, nil when the host has no subscription.
	FindByHost(ctx context.Context, hostID string) (*domain.Subscription, error)
}

type Gate struct {
	subs SubscriptionReader
	now  func() time.Time
}

func NewGate(subs SubscriptionReader) *Gate {
	return &Gate{subs: subs, now: time.Now}
}

func (g *Gate) Authorize(ctx context.Context, hostID string) (Decision, error) {
	sub, err := g.subs.FindByHost(ctx, hostID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: load subscription: %v", domain.ErrUpstream, err)
	}
	return Evaluate(sub, g.now()), nil
}
