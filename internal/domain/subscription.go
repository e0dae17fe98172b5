package domain

import "time"

const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
	Quota    *int    `json:"quota"` // nil means unlimited
}

// PeriodEnd returns the end of a billing period starting at start.
func (p Plan) PeriodEnd(start time.Time) time.Time {
	if p.Interval == IntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func intPtr(v int) *int { return &v }

var plans = []Plan{
	{ID: "basic_monthly", Name: "Basic", Price: 299, Currency: "PHP", Interval: IntervalMonth, Quota: intPtr(3)},
	{ID: "pro_monthly", Name: "Pro", Price: 599, Currency: "PHP", Interval: IntervalMonth, Quota: intPtr(8)},
	{ID: "annual", Name: "Annual", Price: 1299, Currency: "PHP", Interval: IntervalYear},
}

func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

func FindPlan(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

type Subscription struct {
	HostID      string     `json:"hostId"`
	PlanID      string     `json:"planId"`
	PlanName    string     `json:"planName"`
	Price       float64    `json:"price"`
	Currency    string     `json:"currency"`
	Interval    string     `json:"interval"`
	Quota       *int       `json:"quota"`
	Used        int        `json:"used"`
	Active      bool       `json:"active"`
	PeriodStart time.Time  `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	LastOrderID string     `json:"lastOrderId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type SubscriptionCheckoutRequest struct {
	PlanID string `json:"planId" validate:"required"`
}

type ActivateSubscriptionRequest struct {
	PlanID  string `json:"planId" validate:"required"`
	OrderID string `json:"orderId" validate:"required"`
}
