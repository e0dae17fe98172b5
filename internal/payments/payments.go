// Package payments creates and confirms payment orders with the provider.
package payments

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/diagnosis/stayease/internal/domain"
)

type Order struct {
	ID           string  `json:"orderId"`
	ClientSecret string  `json:"clientSecret,omitempty"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Description  string  `json:"description"`
}

// Capture is a paid order with the payer's identity and the metadata it
// was created with.
type Capture struct {
	OrderID    string
	Amount     float64
	Currency   string
	PayerName  string
	PayerEmail string
	Metadata   map[string]string
}

// Matches reports whether the capture was created with every key of want
// and paid exactly amount in currency.
func (c *Capture) Matches(amount float64, currency string, want map[string]string) bool {
	if ToMinor(c.Amount) != ToMinor(amount) || !strings.EqualFold(c.Currency, currency) {
		return false
	}
	for k, v := range want {
		if c.Metadata[k] != v {
			return false
		}
	}
	return true
}

type Provider interface {
	// CreateOrder opens an order. metadata travels with it and comes back
	// on Capture.
	CreateOrder(ctx context.Context, amount float64, currency, description string, metadata map[string]string) (*Order, error)
	Capture(ctx context.Context, orderID string) (*Capture, error)
}

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateOrder(ctx context.Context, amount float64, currency, description string, metadata map[string]string) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(ToMinor(amount)),
		Currency:    stripe.String(strings.ToLower(currency)),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", domain.ErrUpstream, err)
	}

	return &Order{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       FromMinor(pi.Amount),
		Currency:     strings.ToUpper(string(pi.Currency)),
		Description:  description,
	}, nil
}

// Capture confirms the payment intent has succeeded. An intent in any other
// state is reported as ErrUnauthorized.
func (p *StripeProvider) Capture(ctx context.Context, orderID string) (*Capture, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := p.api.PaymentIntents.Get(orderID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: get payment intent: %v", domain.ErrUpstream, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment %s is %s", domain.ErrUnauthorized, orderID, pi.Status)
	}

	c := &Capture{
		OrderID:  pi.ID,
		Amount:   FromMinor(pi.Amount),
		Currency: strings.ToUpper(string(pi.Currency)),
		Metadata: pi.Metadata,
	}
	if pi.LatestCharge != nil && pi.LatestCharge.BillingDetails != nil {
		c.PayerName = pi.LatestCharge.BillingDetails.Name
		c.PayerEmail = pi.LatestCharge.BillingDetails.Email
	}
	return c, nil
}

func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinor(amount int64) float64 {
	return float64(amount) / 100
}
